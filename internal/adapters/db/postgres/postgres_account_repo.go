package postgres

import (
	"context"
	"errors"

	customErrors "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/errors"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/auth/model"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type PostgresAccountRepo struct {
	db *gorm.DB
}

func NewPostgresAccountRepo(db *gorm.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

func (p *PostgresAccountRepo) CreateAccount(ctx context.Context, a model.Account) error {
	res := p.db.WithContext(ctx).Create(&a)
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			return customErrors.ErrAlreadyExists
		}
		return customErrors.WrapInternal(err, "CreateAccount")
	}
	return nil
}

func (p *PostgresAccountRepo) GetAccountByIdentifier(ctx context.Context, identifier string) (model.Account, error) {
	var a model.Account
	res := p.db.WithContext(ctx).Where("identifier = ?", identifier).First(&a)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Account{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Account{}, customErrors.WrapInternal(err, "GetAccountByIdentifier")
	}

	return a, nil
}

func (p *PostgresAccountRepo) UpdateDisplayName(ctx context.Context, identifier, name string) error {
	res := p.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("identifier = ?", identifier).
		Update("display_name", name)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "UpdateDisplayName")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}

	return nil
}

// isUniqueViolation matches both the raw postgres error and the one gorm
// produces when the dialect translates errors.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
