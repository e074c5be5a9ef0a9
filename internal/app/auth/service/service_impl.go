package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/auth/model"
	repo "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/auth/repo"
	customErrors "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/errors"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/infra/config"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// PresenceUpdater receives display name changes so that live chat
// connections format messages with the current name.
type PresenceUpdater interface {
	UpdateDisplayName(account, name string)
}

type Service interface {
	Register(context.Context, dto.RegisterDTO) error
	Login(context.Context, dto.LoginDTO) (model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (string, error)
	GetDisplayName(ctx context.Context, account string) (string, error)
	UpdateDisplayName(ctx context.Context, account string, in dto.DisplayNameDTO) error
}

type authService struct {
	accounts repo.AccountRepo
	attempts repo.LoginAttemptRepo
	jwtUtil  jwt.JWTUtil
	presence PresenceUpdater
	cfg      *config.Config
	v        *validator.Validate
	log      *zap.Logger
}

// New wires the auth service. attempts may be nil, which disables login
// throttling; presence may be nil when no chat registry is running.
func New(
	ar repo.AccountRepo,
	lr repo.LoginAttemptRepo,
	jm jwt.JWTUtil,
	presence PresenceUpdater,
	cfg *config.Config,
	v *validator.Validate,
	log *zap.Logger,
) Service {
	return &authService{
		accounts: ar, attempts: lr, jwtUtil: jm, presence: presence, cfg: cfg, v: v, log: log,
	}
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) error {
	in.Identifier = strings.TrimSpace(in.Identifier)
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument("identifier and password are required")
	}

	passwordHash, err := argon2id.CreateHash(in.Password+a.cfg.PasswordPepper, argonParams)
	if err != nil {
		return customErrors.WrapInternal(err, "Register")
	}

	account := model.Account{
		ID:           uuid.New(),
		Identifier:   in.Identifier,
		PasswordHash: passwordHash,
		DisplayName:  in.Identifier,
	}
	if err := a.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return customErrors.ErrAlreadyExists
		}
		return customErrors.WrapInternal(err, "Register")
	}
	return nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, error) {
	in.Identifier = strings.TrimSpace(in.Identifier)
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument("identifier and password are required")
	}

	if err := a.checkAttempts(ctx, in.Identifier); err != nil {
		return model.TokenPair{}, err
	}

	account, err := a.accounts.GetAccountByIdentifier(ctx, in.Identifier)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		a.recordFailure(ctx, in.Identifier)
		return model.TokenPair{}, customErrors.ErrNotFound
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	ok, err := argon2id.ComparePasswordAndHash(in.Password+a.cfg.PasswordPepper, account.PasswordHash)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		a.recordFailure(ctx, in.Identifier)
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	if a.attempts != nil {
		if err := a.attempts.Reset(ctx, in.Identifier); err != nil {
			a.log.Warn("reset login attempts", zap.Error(err))
		}
	}
	return a.issueTokens(account.Identifier)
}

// Refresh rotates the pair. The presented refresh token is not revoked and
// stays usable until its own expiry.
func (a *authService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := a.jwtUtil.ValidateRefreshToken(refreshToken)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	if _, err := a.accounts.GetAccountByIdentifier(ctx, claims.Subject); err != nil {
		if errors.Is(err, customErrors.ErrNotFound) {
			return model.TokenPair{}, customErrors.ErrInvalidToken
		}
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}
	return a.issueTokens(claims.Subject)
}

func (a *authService) Authenticate(_ context.Context, accessToken string) (string, error) {
	claims, err := a.jwtUtil.ValidateAccessToken(accessToken)
	if err != nil {
		return "", customErrors.ErrInvalidToken
	}
	return claims.Subject, nil
}

func (a *authService) GetDisplayName(ctx context.Context, account string) (string, error) {
	acc, err := a.accounts.GetAccountByIdentifier(ctx, account)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return "", customErrors.ErrNotFound
	case err != nil:
		return "", customErrors.WrapInternal(err, "GetDisplayName")
	}
	return acc.DisplayName, nil
}

func (a *authService) UpdateDisplayName(ctx context.Context, account string, in dto.DisplayNameDTO) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument("name is required and at most 64 characters")
	}

	if err := a.accounts.UpdateDisplayName(ctx, account, in.Name); err != nil {
		if errors.Is(err, customErrors.ErrNotFound) {
			return customErrors.ErrNotFound
		}
		return customErrors.WrapInternal(err, "UpdateDisplayName")
	}

	if a.presence != nil {
		a.presence.UpdateDisplayName(account, in.Name)
	}
	return nil
}

func (a *authService) checkAttempts(ctx context.Context, identifier string) error {
	if a.attempts == nil {
		return nil
	}
	n, err := a.attempts.Failures(ctx, identifier)
	if err != nil {
		return customErrors.WrapInternal(err, "LoginAttempts")
	}
	if n >= a.cfg.LoginMaxAttempts {
		return customErrors.ErrTooManyAttempts
	}
	return nil
}

func (a *authService) recordFailure(ctx context.Context, identifier string) {
	if a.attempts == nil {
		return
	}
	if _, err := a.attempts.RecordFailure(ctx, identifier, a.cfg.LoginLockout); err != nil {
		a.log.Warn("record login failure", zap.Error(err))
	}
}

func (a *authService) issueTokens(subject string) (model.TokenPair, error) {
	at, _, err := a.jwtUtil.GenerateAccessToken(subject)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateAccessToken")
	}
	rt, _, err := a.jwtUtil.GenerateRefreshToken(subject)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateRefreshToken")
	}

	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    a.jwtUtil.AccessTTL(),
		RefreshTTL:   a.jwtUtil.RefreshTTL(),
		Subject:      subject,
	}, nil
}
