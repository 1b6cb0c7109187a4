package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deppfellow/perf-dashboard/internal/middleware"
	"github.com/deppfellow/perf-dashboard/internal/model"
	"github.com/deppfellow/perf-dashboard/internal/repository"
	"github.com/deppfellow/perf-dashboard/internal/server"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// StatsCacheKey holds the JSON-encoded model.TrialStats.
	StatsCacheKey = "dashboard:trial:stats"

	// StatsGenerationKey is incremented by every upsert. Stats are cached
	// only if the generation they were computed under is still current.
	StatsGenerationKey = "dashboard:trial:stats:gen"
)

// storeStatsScript sets KEYS[2] to ARGV[2] with a PX of ARGV[3] only while
// KEYS[1] still equals ARGV[1]. A missing generation counts as "0".
var storeStatsScript = redis.NewScript(`
if (redis.call('GET', KEYS[1]) or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

type TrialService struct {
	server    *server.Server
	trialRepo *repository.TrialRepository
}

func NewTrialService(s *server.Server, trialRepo *repository.TrialRepository) *TrialService {
	return &TrialService{
		server:    s,
		trialRepo: trialRepo,
	}
}

func (s *TrialService) ListTrials(ctx context.Context, filter model.TrialFilter) (*model.ListTrialsResponse, error) {
	trials, err := s.trialRepo.ListTrials(ctx, filter)
	if err != nil {
		return nil, err
	}

	return model.NewListTrialsResponse(trials), nil
}

// GetTrialStats serves statistics from the cache when it is enabled and
// falls back to computing them. Cache failures never fail the request.
func (s *TrialService) GetTrialStats(ctx context.Context) (*model.TrialStats, error) {
	if !s.cacheEnabled() {
		return s.trialRepo.GetTrialStats(ctx)
	}

	if stats, ok := s.cachedStats(ctx); ok {
		return stats, nil
	}

	return s.computeStats(ctx)
}

// RefreshTrialStats recomputes statistics and caches them unless an upsert
// lands while they are being computed.
func (s *TrialService) RefreshTrialStats(ctx context.Context) error {
	if !s.cacheEnabled() {
		return nil
	}

	_, err := s.computeStats(ctx)
	return err
}

// CreateTrial returns a response with a nil Inserted when a matching trial
// already exists or the current second is already taken.
func (s *TrialService) CreateTrial(ctx context.Context, filter model.TrialFilter) (*model.CreateTrialResponse, error) {
	ts, err := s.trialRepo.CreateTrial(ctx, filter)
	if err != nil {
		return nil, err
	}

	if ts == nil {
		s.logger(ctx).Debug().Bool("active", filter.Active).Msg("trial creation suppressed")
		return &model.CreateTrialResponse{}, nil
	}

	return &model.CreateTrialResponse{Inserted: &model.InsertedTrial{TS: *ts}}, nil
}

// UpsertTrial stores trial results, invalidates the cached statistics and
// asks the job worker to recompute them.
func (s *TrialService) UpsertTrial(ctx context.Context, trial model.Trial) error {
	if err := s.trialRepo.UpsertTrial(ctx, trial); err != nil {
		return err
	}

	if !s.cacheEnabled() {
		return nil
	}

	_, err := s.server.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, StatsGenerationKey)
		pipe.Del(ctx, StatsCacheKey)
		return nil
	})
	if err != nil {
		s.logger(ctx).Warn().Err(err).Int64("ts", trial.TS).Msg("failed to invalidate trial stats cache")
	}

	if s.server.Job != nil {
		if err := s.server.Job.EnqueueStatsRefresh(ctx); err != nil {
			s.logger(ctx).Warn().Err(err).Msg("failed to enqueue trial stats refresh")
		}
	}

	return nil
}

func (s *TrialService) cacheEnabled() bool {
	return s.server.Redis != nil && s.server.Config.Cache.StatsTTL > 0
}

func (s *TrialService) logger(ctx context.Context) *zerolog.Logger {
	return middleware.LoggerFromContext(ctx, s.server.Logger)
}

// computeStats reads the generation before querying, so a result computed
// from rows an upsert has since replaced is never cached.
func (s *TrialService) computeStats(ctx context.Context) (*model.TrialStats, error) {
	gen, genErr := s.statsGeneration(ctx)

	stats, err := s.trialRepo.GetTrialStats(ctx)
	if err != nil {
		return nil, err
	}

	if genErr == nil {
		s.storeStats(ctx, gen, stats)
	}
	return stats, nil
}

func (s *TrialService) statsGeneration(ctx context.Context) (int64, error) {
	gen, err := s.server.Redis.Get(ctx, StatsGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		s.logger(ctx).Warn().Err(err).Msg("failed to read trial stats generation")
	}
	return gen, err
}

func (s *TrialService) cachedStats(ctx context.Context) (*model.TrialStats, bool) {
	raw, err := s.server.Redis.Get(ctx, StatsCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger(ctx).Warn().Err(err).Msg("failed to read trial stats cache")
		}
		return nil, false
	}

	var stats model.TrialStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.logger(ctx).Warn().Err(err).Msg("discarding malformed trial stats cache entry")
		return nil, false
	}

	return &stats, true
}

// storeStats caches stats computed under generation gen and reports whether
// they were written.
func (s *TrialService) storeStats(ctx context.Context, gen int64, stats *model.TrialStats) bool {
	raw, err := json.Marshal(stats)
	if err != nil {
		s.logger(ctx).Warn().Err(fmt.Errorf("encoding trial stats: %w", err)).Msg("failed to cache trial stats")
		return false
	}

	ttl := max(s.server.Config.Cache.StatsTTL.Milliseconds(), 1)

	stored, err := storeStatsScript.Run(ctx, s.server.Redis,
		[]string{StatsGenerationKey, StatsCacheKey},
		gen, raw, ttl,
	).Int()
	if err != nil {
		s.logger(ctx).Warn().Err(err).Msg("failed to cache trial stats")
		return false
	}

	if stored == 0 {
		s.logger(ctx).Debug().Int64("generation", gen).Msg("trial stats changed while computing, not cached")
	}
	return stored == 1
}
