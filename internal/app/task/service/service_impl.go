package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/adapters/transport/http/dto"
	customErrors "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/errors"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/task/model"
	repo "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/task/repo"
	"github.com/go-playground/validator/v10"
)

type Service interface {
	Create(ctx context.Context, owner string, in dto.CreateTaskDTO) (model.Task, error)
	List(ctx context.Context, owner string) ([]model.Task, error)
	Toggle(ctx context.Context, owner string, id int64) error
	Delete(ctx context.Context, owner string, id int64) error
}

type taskService struct {
	tasks repo.TaskRepo
	v     *validator.Validate
}

func New(tr repo.TaskRepo, v *validator.Validate) Service {
	return &taskService{tasks: tr, v: v}
}

func (s *taskService) Create(ctx context.Context, owner string, in dto.CreateTaskDTO) (model.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.v.Struct(in); err != nil {
		return model.Task{}, customErrors.NewInvalidArgument("title is required")
	}

	deadline, err := parseDeadline(in.Deadline)
	if err != nil {
		return model.Task{}, err
	}

	t := model.Task{
		Owner:       owner,
		Title:       in.Title,
		Description: nonBlank(in.Description),
		Deadline:    deadline,
	}
	if err := s.tasks.CreateTask(ctx, &t); err != nil {
		return model.Task{}, customErrors.WrapInternal(err, "CreateTask")
	}
	return t, nil
}

func (s *taskService) List(ctx context.Context, owner string) ([]model.Task, error) {
	tasks, err := s.tasks.ListTasks(ctx, owner)
	if err != nil {
		return nil, customErrors.WrapInternal(err, "ListTasks")
	}
	return tasks, nil
}

func (s *taskService) Toggle(ctx context.Context, owner string, id int64) error {
	return s.ownerScoped(s.tasks.ToggleTask(ctx, owner, id), "ToggleTask")
}

func (s *taskService) Delete(ctx context.Context, owner string, id int64) error {
	return s.ownerScoped(s.tasks.DeleteTask(ctx, owner, id), "DeleteTask")
}

func (s *taskService) ownerScoped(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.ErrNotFound
	default:
		return customErrors.WrapInternal(err, op)
	}
}

var deadlineLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseDeadline(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*raw)
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, customErrors.NewInvalidArgument("deadline must be RFC3339 or YYYY-MM-DD")
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
