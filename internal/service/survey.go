package service

import (
	"context"
	"fmt"

	"github.com/deppfellow/perf-dashboard/internal/model"
	"github.com/deppfellow/perf-dashboard/internal/repository"
	"github.com/deppfellow/perf-dashboard/internal/server"
)

type SurveyService struct {
	server     *server.Server
	surveyRepo *repository.SurveyRepository
}

func NewSurveyService(s *server.Server, surveyRepo *repository.SurveyRepository) *SurveyService {
	return &SurveyService{
		server:     s,
		surveyRepo: surveyRepo,
	}
}

// SubmitSurvey records a rating given by its label.
func (s *SurveyService) SubmitSurvey(ctx context.Context, label string) (*model.SurveyResponse, error) {
	code, ok := model.SurveyCode(label)
	if !ok {
		return nil, fmt.Errorf("%w: subjective=%q", model.ErrInvalidParam, label)
	}

	if err := s.surveyRepo.InsertSurvey(ctx, code); err != nil {
		return nil, err
	}

	return &model.SurveyResponse{
		Inserted: model.SurveyEntry{Value: label, Code: code},
	}, nil
}
