package repo

import (
	"context"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/task/model"
)

// TaskRepo is owner-scoped: every query filters by owner, and an id that
// belongs to someone else behaves exactly like an id that does not exist.
type TaskRepo interface {
	CreateTask(ctx context.Context, t *model.Task) error

	ListTasks(ctx context.Context, owner string) ([]model.Task, error)

	ToggleTask(ctx context.Context, owner string, id int64) error

	DeleteTask(ctx context.Context, owner string, id int64) error
}
