package repo

import (
	"context"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/auth/model"
)

type AccountRepo interface {
	CreateAccount(ctx context.Context, a model.Account) error

	GetAccountByIdentifier(ctx context.Context, identifier string) (model.Account, error)

	UpdateDisplayName(ctx context.Context, identifier, name string) error
}
