package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/deppfellow/perf-dashboard/internal/database"
	"github.com/deppfellow/perf-dashboard/internal/model"
	"github.com/deppfellow/perf-dashboard/internal/server"
	"github.com/deppfellow/perf-dashboard/internal/sqlerr"
	"github.com/jackc/pgx/v5"
)

// statsTrimThreshold is the completed-trial count above which the lowest
// and highest throughput deciles are left out of the mean.
const statsTrimThreshold = 8

type TrialRepository struct {
	server *server.Server
}

func NewTrialRepository(s *server.Server) *TrialRepository {
	return &TrialRepository{server: s}
}

// ListTrials returns the trials matching filter, newest first.
func (r *TrialRepository) ListTrials(ctx context.Context, filter model.TrialFilter) ([]model.Trial, error) {
	where, args := TrialPredicate(filter).Render(0)

	query := "SELECT ts, size, period FROM trial"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY ts DESC"

	if filter.Limit != nil && *filter.Limit >= 0 {
		args = append(args, *filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	var trials []model.Trial
	err := r.server.DB.WithConn(ctx, func(ctx context.Context, q database.Querier) error {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return err
		}

		trials, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Trial])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list trials: %w", err)
	}

	return trials, nil
}

const (
	countCompletedQuery = `
SELECT count(1) FROM trial
WHERE size IS NOT NULL AND period IS NOT NULL`

	statsQuery = `
SELECT avg(rate)::float8, count(1)
FROM (
	SELECT rate, ntile(10) OVER (ORDER BY rate) AS bucket
	FROM (
		SELECT 1000000.0 * size / period AS rate FROM trial
		WHERE size IS NOT NULL AND period IS NOT NULL
	) AS rates
) AS ranked`
)

// GetTrialStats computes the trimmed mean throughput over completed trials.
//
// Both statements run on the same connection. A completed trial with a zero
// period makes Postgres fail the second one with a division by zero.
func (r *TrialRepository) GetTrialStats(ctx context.Context) (*model.TrialStats, error) {
	var stats model.TrialStats

	err := r.server.DB.WithConn(ctx, func(ctx context.Context, q database.Querier) error {
		if err := q.QueryRow(ctx, countCompletedQuery).Scan(&stats.TotalCount); err != nil {
			return err
		}

		query := statsQuery
		if stats.TotalCount > statsTrimThreshold {
			query += "\nWHERE bucket BETWEEN 2 AND 9"
		}

		return q.QueryRow(ctx, query).Scan(&stats.StatMean, &stats.StatCount)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute trial stats: %w", err)
	}

	return &stats, nil
}

// CreateTrial inserts a trial stamped with the current second unless a trial
// matching filter already exists. The existence check and the insert are a
// single statement.
//
// It returns nil, nil when nothing was inserted, either because a matching
// trial exists or because a trial with the same timestamp does.
func (r *TrialRepository) CreateTrial(ctx context.Context, filter model.TrialFilter) (*int64, error) {
	where, args := TrialPredicate(filter).Render(0)

	query := "INSERT INTO trial DEFAULT VALUES RETURNING ts"
	if where != "" {
		query = `
INSERT INTO trial (ts)
SELECT ` + nowEpoch + `
WHERE NOT EXISTS (SELECT 1 FROM trial WHERE ` + where + ` LIMIT 1)
RETURNING ts`
	}

	var ts int64
	err := r.server.DB.WithConn(ctx, func(ctx context.Context, q database.Querier) error {
		return q.QueryRow(ctx, query, args...).Scan(&ts)
	})

	switch {
	case err == nil:
		return &ts, nil
	case errors.Is(err, pgx.ErrNoRows), sqlerr.IsUniqueViolation(err):
		return nil, nil
	default:
		return nil, fmt.Errorf("failed to create trial: %w", err)
	}
}

// UpsertTrial sets the results of the trial at trial.TS, inserting the row if needed.
func (r *TrialRepository) UpsertTrial(ctx context.Context, trial model.Trial) error {
	const query = `
INSERT INTO trial (ts, size, period) VALUES ($1, $2, $3)
ON CONFLICT (ts) DO UPDATE SET size = EXCLUDED.size, period = EXCLUDED.period`

	err := r.server.DB.WithConn(ctx, func(ctx context.Context, q database.Querier) error {
		_, err := q.Exec(ctx, query, trial.TS, trial.Size, trial.Period)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to upsert trial %d: %w", trial.TS, err)
	}

	return nil
}
