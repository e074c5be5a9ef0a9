package postgres

import (
	"context"

	customErrors "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/errors"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/task/model"
	"gorm.io/gorm"
)

type PostgresTaskRepo struct {
	db *gorm.DB
}

func NewPostgresTaskRepo(db *gorm.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

func (p *PostgresTaskRepo) CreateTask(ctx context.Context, t *model.Task) error {
	if err := p.db.WithContext(ctx).Create(t).Error; err != nil {
		return customErrors.WrapInternal(err, "CreateTask")
	}
	return nil
}

func (p *PostgresTaskRepo) ListTasks(ctx context.Context, owner string) ([]model.Task, error) {
	out := make([]model.Task, 0)
	res := p.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("completed ASC").
		Order("id DESC").
		Find(&out)
	if err := res.Error; err != nil {
		return nil, customErrors.WrapInternal(err, "ListTasks")
	}
	return out, nil
}

func (p *PostgresTaskRepo) ToggleTask(ctx context.Context, owner string, id int64) error {
	res := p.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ? AND owner = ?", id, owner).
		Update("completed", gorm.Expr("NOT completed"))
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "ToggleTask")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}

	return nil
}

func (p *PostgresTaskRepo) DeleteTask(ctx context.Context, owner string, id int64) error {
	res := p.db.WithContext(ctx).
		Where("id = ? AND owner = ?", id, owner).
		Delete(&model.Task{})
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "DeleteTask")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}

	return nil
}
