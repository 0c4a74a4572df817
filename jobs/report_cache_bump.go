package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/denimstock/denimstock/internal/jobs"
)

// CacheBumper invalidates cached reports.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// ReportCacheBumpJob forces report caches to rebuild, covering writes made
// outside the HTTP API such as restores from the CLI.
type ReportCacheBumpJob struct {
	Cache   CacheBumper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes TaskReportCacheBump.
func (j *ReportCacheBumpJob) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := j.Metrics.Track(TaskReportCacheBump)
	if j.Cache == nil {
		return tracker.End(nil)
	}
	if err := j.Cache.Bump(ctx); err != nil {
		return tracker.End(err)
	}
	if j.Logger != nil {
		j.Logger.Debug("report cache bumped")
	}
	return tracker.End(nil)
}
