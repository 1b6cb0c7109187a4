package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/perf-dashboard/internal/database"
	"github.com/deppfellow/perf-dashboard/internal/server"
)

type SurveyRepository struct {
	server *server.Server
}

func NewSurveyRepository(s *server.Server) *SurveyRepository {
	return &SurveyRepository{server: s}
}

// InsertSurvey records one rating by its code.
func (r *SurveyRepository) InsertSurvey(ctx context.Context, code int) error {
	err := r.server.DB.WithConn(ctx, func(ctx context.Context, q database.Querier) error {
		_, err := q.Exec(ctx, "INSERT INTO survey (subj) VALUES ($1)", code)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert survey response: %w", err)
	}

	return nil
}
