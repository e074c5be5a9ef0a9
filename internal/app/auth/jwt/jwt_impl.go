package jwt

import (
	"errors"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/errors"
	jwt2 "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/infra/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type JwtUtilImpl struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

func NewJWTUtil(cfg *config.Config) (*JwtUtilImpl, error) {
	if len(cfg.JWTSecret) < config.MinSecretLength {
		return nil, customErrors.WrapInternal(errors.New("secret too short"), "NewJWTUtil")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, customErrors.WrapInternal(errors.New("non-positive token ttl"), "NewJWTUtil")
	}

	return &JwtUtilImpl{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}, nil
}

// WithClock replaces the time source used for issuing and validating tokens.
func (j *JwtUtilImpl) WithClock(now func() time.Time) *JwtUtilImpl {
	j.now = now
	return j
}

func (j *JwtUtilImpl) AccessTTL() time.Duration  { return j.accessTTL }
func (j *JwtUtilImpl) RefreshTTL() time.Duration { return j.refreshTTL }

func (j *JwtUtilImpl) GenerateAccessToken(subject string) (string, time.Time, error) {
	return j.sign(subject, "", j.accessTTL)
}

func (j *JwtUtilImpl) GenerateRefreshToken(subject string) (string, time.Time, error) {
	return j.sign(subject, jwt2.TypeRefresh, j.refreshTTL)
}

func (j *JwtUtilImpl) sign(subject, typ string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, customErrors.NewInvalidArgument("empty token subject")
	}
	now := j.now()

	claims := jwt2.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Type: typ,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign token")
	}
	return signed, claims.ExpiresAt.Time, nil
}

// ValidateAccessToken refuses refresh tokens so the long-lived credential
// cannot stand in for an access token.
func (j *JwtUtilImpl) ValidateAccessToken(raw string) (jwt2.Claims, error) {
	claims, err := j.parse(raw)
	if err != nil {
		return jwt2.Claims{}, err
	}
	if claims.Type == jwt2.TypeRefresh {
		return jwt2.Claims{}, customErrors.ErrInvalidToken
	}
	return claims, nil
}

func (j *JwtUtilImpl) ValidateRefreshToken(raw string) (jwt2.Claims, error) {
	claims, err := j.parse(raw)
	if err != nil {
		return jwt2.Claims{}, err
	}
	if claims.Type != jwt2.TypeRefresh {
		return jwt2.Claims{}, customErrors.ErrInvalidToken
	}
	return claims, nil
}

func (j *JwtUtilImpl) parse(raw string) (jwt2.Claims, error) {
	if raw == "" {
		return jwt2.Claims{}, customErrors.ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &jwt2.Claims{}, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return jwt2.Claims{}, customErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt2.Claims)
	if !ok || claims.Subject == "" {
		return jwt2.Claims{}, customErrors.ErrInvalidToken
	}
	return *claims, nil
}
