package dto

type RegisterDTO struct {
	Identifier string `json:"identifier" validate:"required,max=64"`
	Password   string `json:"password"   validate:"required,max=256"`
}

type LoginDTO struct {
	Identifier string `json:"identifier" validate:"required,max=64"`
	Password   string `json:"password"   validate:"required,max=256"`
}

type DisplayNameDTO struct {
	Name string `json:"name" validate:"required,max=64"`
}

type CreateTaskDTO struct {
	Title       string  `json:"title"       validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Deadline    *string `json:"deadline"`
}

// StatusResponse is the {success, message} envelope used by most endpoints.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type LoginResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type RefreshResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"access_token"`
}

type DisplayNameResponse struct {
	Name string `json:"name"`
}

type OnlineResponse struct {
	Accounts []string `json:"accounts"`
}
