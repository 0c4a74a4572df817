package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/denimstock/denimstock/internal/jobs"
)

// DefaultIdempotencyRetention applies when the payload carries no retention.
const DefaultIdempotencyRetention = 7 * 24 * time.Hour

// KeyPruner deletes idempotency keys older than the cutoff.
type KeyPruner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob prunes stale idempotency keys.
type IdempotencyCleanupJob struct {
	Keys    KeyPruner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes TaskIdempotencyCleanup.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload CleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := payload.Retention
	if retention <= 0 {
		retention = DefaultIdempotencyRetention
	}
	tracker := j.Metrics.Track(TaskIdempotencyCleanup)
	removed, err := j.Keys.Cleanup(ctx, retention)
	if err != nil {
		return tracker.End(err)
	}
	j.Metrics.AddProcessed(TaskIdempotencyCleanup, removed)
	if j.Logger != nil && removed > 0 {
		j.Logger.Info("idempotency keys pruned", slog.Int64("removed", removed))
	}
	return tracker.End(nil)
}
