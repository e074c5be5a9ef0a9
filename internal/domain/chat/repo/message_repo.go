package repo

import (
	"context"
	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/chat/model"
)

type MessageRepo interface {
	AppendMessage(ctx context.Context, m *model.Message) error

	// RecentMessages returns the last limit messages, oldest first.
	RecentMessages(ctx context.Context, limit int) ([]model.MessageView, error)
}
