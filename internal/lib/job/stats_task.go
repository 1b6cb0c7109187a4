package job

import (
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskStatsRefresh recomputes the cached trial statistics.
	TaskStatsRefresh = "trial:stats_refresh"
)

// statsRefreshUniqueTTL collapses bursts of upserts into one pending refresh.
const statsRefreshUniqueTTL = 10 * time.Second

// NewStatsRefreshTask builds the task enqueued after trial results change.
// It carries no payload; the handler always recomputes from the database.
func NewStatsRefreshTask() *asynq.Task {
	return asynq.NewTask(
		TaskStatsRefresh,
		nil,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
		asynq.Unique(statsRefreshUniqueTTL),
	)
}
