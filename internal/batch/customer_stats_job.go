package batch

import (
	"context"
	"customer-api/internal/infrastructure/monitoring"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	defaultStatsSchedule = "*/5 * * * *"
	defaultStatsTimeout  = 30 * time.Second
)

// CustomerCounter is satisfied by every customer.Dao.
type CustomerCounter interface {
	CountCustomers(ctx context.Context) (int64, error)
}

// CustomerStatsJob refreshes the stored-customers gauge.
type CustomerStatsJob struct {
	counter CustomerCounter
	logger  *slog.Logger
}

func NewCustomerStatsJob(counter CustomerCounter, logger *slog.Logger) *CustomerStatsJob {
	if counter == nil || logger == nil {
		panic("CustomerStatsJob dependencies cannot be nil")
	}
	return &CustomerStatsJob{
		counter: counter,
		logger:  logger.With("job", "CustomerStats"),
	}
}

func (j *CustomerStatsJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.DebugContext(ctx, "Starting customer stats job.")

	count, err := j.counter.CountCustomers(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to count customers, gauge left unchanged.", slog.Any("error", err))
		return fmt.Errorf("cannot refresh customer stats: %w", err)
	}

	monitoring.SetCustomerCount(count)
	j.logger.InfoContext(ctx, "Customer stats job finished.",
		slog.Int64("customers", count),
		slog.Duration("duration", time.Since(startTime)),
	)
	return nil
}

// Schedule registers the job on c. Each run gets its own timeout.
func (j *CustomerStatsJob) Schedule(c *cron.Cron, spec string, timeout time.Duration) (cron.EntryID, error) {
	if spec == "" {
		spec = defaultStatsSchedule
		j.logger.Warn("Customer stats schedule not configured, using default", "schedule", spec)
	}
	if timeout <= 0 {
		timeout = defaultStatsTimeout
	}

	id, err := c.AddJob(spec, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if runErr := j.Run(ctx); runErr != nil {
			j.logger.Error("Customer stats job finished with error", slog.Any("error", runErr))
		}
	}))
	if err != nil {
		return 0, fmt.Errorf("failed to schedule customer stats job %q: %w", spec, err)
	}

	j.logger.Info("Scheduled customer stats job", "schedule", spec, "job_id", id)
	return id, nil
}
