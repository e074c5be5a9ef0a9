package middleware

import (
	"context"
	"net/http"

	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/adapters/transport/http/dto"
	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	accountKey = "account"
)

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// RequireAccount resolves the access_token cookie to an account and aborts
// with 401 when it is missing or invalid.
func RequireAccount(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(AccessCookie)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.StatusResponse{Message: "not authenticated"})
			return
		}

		account, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.StatusResponse{Message: "invalid token"})
			return
		}

		c.Set(accountKey, account)
		c.Next()
	}
}

// Account returns the account stored by RequireAccount.
func Account(c *gin.Context) string {
	return c.GetString(accountKey)
}
