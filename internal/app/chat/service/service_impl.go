package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/app/chat/registry"
	authrepo "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/auth/repo"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/chat/model"
	repo "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/chat/repo"
	customErrors "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/errors"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/infra/metrics"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
	MaxMessageLength    = 4000
)

type Service interface {
	Join(ctx context.Context, account string, conn registry.Conn) error
	Leave(conn registry.Conn)
	Handle(ctx context.Context, account string, frame []byte) error
	History(ctx context.Context, limit int) ([]model.MessageView, error)
	Online() []string
}

type chatService struct {
	registry *registry.Registry
	messages repo.MessageRepo
	accounts authrepo.AccountRepo
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func New(
	reg *registry.Registry,
	mr repo.MessageRepo,
	ar authrepo.AccountRepo,
	m *metrics.Metrics,
	log *zap.Logger,
) Service {
	return &chatService{registry: reg, messages: mr, accounts: ar, metrics: m, log: log}
}

func (s *chatService) Join(ctx context.Context, account string, conn registry.Conn) error {
	acc, err := s.accounts.GetAccountByIdentifier(ctx, account)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.ErrInvalidToken
	case err != nil:
		return customErrors.WrapInternal(err, "Join")
	}

	s.registry.Register(account, conn, acc.DisplayName)
	s.metrics.ChatConnections.Set(float64(s.registry.Len()))
	s.log.Info("chat join", zap.String("account", account))
	return nil
}

func (s *chatService) Leave(conn registry.Conn) {
	if s.registry.Unregister(conn) {
		s.metrics.ChatConnections.Set(float64(s.registry.Len()))
	}
}

// Handle processes one inbound frame. Public messages are appended to the
// message log before fan-out; private ones are delivered only, since the log
// is readable without authentication.
func (s *chatService) Handle(ctx context.Context, account string, frame []byte) error {
	var in model.Frame
	if err := json.Unmarshal(frame, &in); err != nil {
		return customErrors.NewInvalidArgument("frame must be {\"to\": ..., \"message\": ...}")
	}

	text := strings.TrimSpace(in.Message)
	if text == "" {
		return nil
	}
	if len(text) > MaxMessageLength {
		return customErrors.NewInvalidArgument("message too long")
	}

	to := strings.TrimSpace(in.To)
	if to == "" || to == model.RecipientAll {
		msg := model.Message{Sender: account, Content: text}
		if err := s.messages.AppendMessage(ctx, &msg); err != nil {
			return customErrors.WrapInternal(err, "AppendMessage")
		}
		s.metrics.ChatMessages.WithLabelValues("broadcast").Inc()
		s.reportDelivery(s.registry.Broadcast(account, text))
		return nil
	}

	s.metrics.ChatMessages.WithLabelValues("direct").Inc()
	s.reportDelivery(s.registry.SendDirect(account, to, text))
	return nil
}

func (s *chatService) History(ctx context.Context, limit int) ([]model.MessageView, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	out, err := s.messages.RecentMessages(ctx, limit)
	if err != nil {
		return nil, customErrors.WrapInternal(err, "RecentMessages")
	}
	return out, nil
}

func (s *chatService) Online() []string {
	return s.registry.Online()
}

func (s *chatService) reportDelivery(err error) {
	if err == nil {
		return
	}
	failed := multierr.Errors(err)
	s.metrics.ChatDropped.Add(float64(len(failed)))
	s.log.Debug("chat delivery failed", zap.Int("connections", len(failed)), zap.Error(err))
}
