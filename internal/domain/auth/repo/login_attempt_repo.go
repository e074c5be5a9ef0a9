package repo

import (
	"context"
	"time"
)

// LoginAttemptRepo counts failed logins per identifier inside a sliding window.
type LoginAttemptRepo interface {
	Failures(ctx context.Context, identifier string) (int64, error)

	RecordFailure(ctx context.Context, identifier string, window time.Duration) (int64, error)

	Reset(ctx context.Context, identifier string) error
}
