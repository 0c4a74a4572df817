package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/denimstock/denimstock/internal/inventory"
	jobmetrics "github.com/denimstock/denimstock/internal/jobs"
)

// LowStockSource lists stock rows at or below the threshold.
type LowStockSource interface {
	LowStock(ctx context.Context) ([]inventory.StockView, error)
	Threshold() int
}

// LowStockNotifier delivers the low-stock digest.
type LowStockNotifier interface {
	LowStock(ctx context.Context, rows []inventory.StockView, threshold int) error
}

// LowStockGauge records the number of low rows seen by the last scan.
type LowStockGauge interface {
	LowStockRows(n int)
}

// LowStockScanJob reports low stock to the configured notifier.
type LowStockScanJob struct {
	Stock    LowStockSource
	Notifier LowStockNotifier
	Gauge    LowStockGauge
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// Handle processes TaskLowStockScan.
func (j *LowStockScanJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload SchedulePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track(TaskLowStockScan)
	rows, err := j.Stock.LowStock(ctx)
	if err != nil {
		return tracker.End(err)
	}
	if j.Gauge != nil {
		j.Gauge.LowStockRows(len(rows))
	}
	j.Metrics.AddProcessed(TaskLowStockScan, int64(len(rows)))
	if len(rows) == 0 {
		return tracker.End(nil)
	}
	if j.Logger != nil {
		j.Logger.Warn("low stock detected", slog.Int("rows", len(rows)), slog.Int("threshold", j.Stock.Threshold()))
	}
	if j.Notifier != nil {
		if err := j.Notifier.LowStock(ctx, rows, j.Stock.Threshold()); err != nil {
			return tracker.End(err)
		}
	}
	return tracker.End(nil)
}
