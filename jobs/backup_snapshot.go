package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/denimstock/denimstock/internal/backup"
	jobmetrics "github.com/denimstock/denimstock/internal/jobs"
)

// BackupCreator produces a backup archive.
type BackupCreator interface {
	Create(ctx context.Context) (backup.Object, error)
}

// BackupSnapshotJob writes scheduled backups.
type BackupSnapshotJob struct {
	Backups BackupCreator
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewBackupSnapshotJob constructs the job.
func NewBackupSnapshotJob(backups BackupCreator, logger *slog.Logger, metrics *jobmetrics.Metrics) *BackupSnapshotJob {
	return &BackupSnapshotJob{Backups: backups, Logger: logger, Metrics: metrics}
}

// Handle processes TaskBackupSnapshot.
func (j *BackupSnapshotJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload SchedulePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track(TaskBackupSnapshot)
	obj, err := j.Backups.Create(ctx)
	if err != nil {
		return tracker.End(err)
	}
	j.Metrics.AddProcessed(TaskBackupSnapshot, obj.Size)
	if j.Logger != nil {
		j.Logger.Info("scheduled backup written",
			slog.String("name", obj.Name),
			slog.Int64("size", obj.Size),
			slog.String("scheduled_for", payload.ScheduledFor.Format(time.RFC3339)))
	}
	return tracker.End(nil)
}
