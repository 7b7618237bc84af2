// Package maintenance runs the periodic cleanup jobs: expired sessions,
// lapsed subscriptions and closed rate limit windows.
package maintenance

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Task is one cleanup job. Run reports how many rows it touched.
type Task struct {
	Name string
	Run  func(ctx context.Context) (int64, error)
}

// taskTimeout bounds a single task run.
const taskTimeout = time.Minute

// Run executes every task immediately and then once per interval until ctx
// is cancelled.
func Run(ctx context.Context, interval time.Duration, tasks []Task, logger zerolog.Logger) error {
	logger = logger.With().Str("orchestrator", "maintenance").Logger()
	logger.Info().Dur("interval", interval).Int("tasks", len(tasks)).Msg("Starting maintenance orchestrator")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		RunOnce(ctx, tasks, logger)
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down maintenance orchestrator")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce executes each task in order. A failing task is logged and does
// not stop the rest. It returns the rows touched per task name.
func RunOnce(ctx context.Context, tasks []Task, logger zerolog.Logger) map[string]int64 {
	results := make(map[string]int64, len(tasks))
	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}
		taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
		n, err := task.Run(taskCtx)
		cancel()
		if err != nil {
			logger.Error().Err(err).Str("task", task.Name).Msg("Maintenance task failed")
			continue
		}
		results[task.Name] = n
		if n > 0 {
			logger.Info().Str("task", task.Name).Int64("rows", n).Msg("Maintenance task completed")
		}
	}
	return results
}
