package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTokenPurge removes refresh tokens past their expiry. Expired rows
	// are dead weight: they can never be rotated, only matched during reuse
	// checks, so they are purged on a schedule.
	TaskTokenPurge = "tokens:purge"
)

// TokenPurger is implemented by the auth service.
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// NewTokenPurgeTask constructs the purge task. It carries no payload.
func NewTokenPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskTokenPurge, nil)
}

// NewTokenPurgeHandler returns the handler processing TaskTokenPurge tasks.
func NewTokenPurgeHandler(purger TokenPurger, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		purged, err := purger.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("purged expired refresh tokens", slog.Int64("count", purged))
		}
		return nil
	}
}
