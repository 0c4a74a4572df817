package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskBackupSnapshot writes a scheduled backup archive.
	TaskBackupSnapshot = "backup:snapshot"
	// TaskLowStockScan reports rows at or below the low-stock threshold.
	TaskLowStockScan = "stock:low_scan"
	// TaskReportCacheBump invalidates every cached report.
	TaskReportCacheBump = "reports:cache_bump"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// SchedulePayload carries scheduling metadata shared by the periodic tasks.
type SchedulePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// CleanupPayload configures the idempotency key retention window.
type CleanupPayload struct {
	ScheduledFor time.Time     `json:"scheduled_for"`
	Retention    time.Duration `json:"retention"`
}

func newScheduledTask(taskType string, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SchedulePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault)), nil
}

// NewBackupSnapshotTask constructs the backup task.
func NewBackupSnapshotTask(at time.Time) (*asynq.Task, error) {
	return newScheduledTask(TaskBackupSnapshot, at)
}

// NewLowStockScanTask constructs the low-stock scan task.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	return newScheduledTask(TaskLowStockScan, at)
}

// NewReportCacheBumpTask constructs the report cache invalidation task.
func NewReportCacheBumpTask(at time.Time) (*asynq.Task, error) {
	return newScheduledTask(TaskReportCacheBump, at)
}

// NewIdempotencyCleanupTask constructs the cleanup task for the given retention.
func NewIdempotencyCleanupTask(at time.Time, retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(CleanupPayload{ScheduledFor: at, Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
