package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// StatsRefresher recomputes trial statistics and stores them in the cache.
type StatsRefresher interface {
	RefreshTrialStats(ctx context.Context) error
}

// InitHandlers sets the dependencies used by task handlers. It must be
// called before Start.
func (j *JobService) InitHandlers(refresher StatsRefresher) {
	j.refresher = refresher
}

func (j *JobService) handleStatsRefreshTask(ctx context.Context, t *asynq.Task) error {
	if j.refresher == nil {
		return fmt.Errorf("no stats refresher registered: %w", asynq.SkipRetry)
	}

	j.logger.Debug().
		Str("type", t.Type()).
		Msg("Processing stats refresh task")

	if err := j.refresher.RefreshTrialStats(ctx); err != nil {
		j.logger.Error().
			Str("type", t.Type()).
			Err(err).
			Msg("Failed to refresh trial stats")
		return err
	}

	j.logger.Debug().
		Str("type", t.Type()).
		Msg("Refreshed trial stats")

	return nil
}
