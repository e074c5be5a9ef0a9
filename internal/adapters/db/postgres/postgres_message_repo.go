package postgres

import (
	"context"
	"slices"

	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/chat/model"
	customErrors "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/errors"
	"gorm.io/gorm"
)

type PostgresMessageRepo struct {
	db *gorm.DB
}

func NewPostgresMessageRepo(db *gorm.DB) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

func (p *PostgresMessageRepo) AppendMessage(ctx context.Context, m *model.Message) error {
	if err := p.db.WithContext(ctx).Create(m).Error; err != nil {
		return customErrors.WrapInternal(err, "AppendMessage")
	}
	return nil
}

// RecentMessages reads the newest rows first and reverses them so callers
// get chronological order.
func (p *PostgresMessageRepo) RecentMessages(ctx context.Context, limit int) ([]model.MessageView, error) {
	out := make([]model.MessageView, 0, limit)
	res := p.db.WithContext(ctx).
		Table("messages AS m").
		Select("m.id AS id, m.sender AS account, COALESCE(a.display_name, m.sender) AS name, m.content AS content, m.created_at AS created_at").
		Joins("LEFT JOIN accounts AS a ON a.identifier = m.sender").
		Order("m.id DESC").
		Limit(limit).
		Scan(&out)
	if err := res.Error; err != nil {
		return nil, customErrors.WrapInternal(err, "RecentMessages")
	}

	slices.Reverse(out)
	return out, nil
}
