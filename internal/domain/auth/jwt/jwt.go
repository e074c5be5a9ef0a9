package jwt

import (
	"github.com/golang-jwt/jwt/v5"
	"time"
)

// TypeRefresh marks refresh tokens; access tokens carry no type claim.
const TypeRefresh = "refresh"

type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"type,omitempty"`
}

// JWTUtil issues and validates session tokens. Validation never panics and
// reports every failure as errors.ErrInvalidToken.
type JWTUtil interface {
	GenerateAccessToken(subject string) (token string, exp time.Time, err error)
	GenerateRefreshToken(subject string) (token string, exp time.Time, err error)
	ValidateAccessToken(token string) (claims Claims, err error)
	ValidateRefreshToken(token string) (claims Claims, err error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}
