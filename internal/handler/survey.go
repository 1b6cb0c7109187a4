package handler

import (
	"context"
	"net/http"

	"github.com/deppfellow/perf-dashboard/internal/model"
	"github.com/deppfellow/perf-dashboard/internal/server"
	"github.com/labstack/echo/v4"
)

type SurveyService interface {
	SubmitSurvey(ctx context.Context, label string) (*model.SurveyResponse, error)
}

type SurveyHandler struct {
	Handler
	surveyService SurveyService
}

func NewSurveyHandler(s *server.Server, surveyService SurveyService) *SurveyHandler {
	return &SurveyHandler{
		Handler:       NewHandler(s),
		surveyService: surveyService,
	}
}

func (h *SurveyHandler) SubmitSurvey(c echo.Context) error {
	return Handle(
		h.Handler,
		func(c echo.Context, req *model.SubmitSurveyRequest) (*model.SurveyResponse, error) {
			return h.surveyService.SubmitSurvey(c.Request().Context(), req.Subjective)
		},
		http.StatusOK,
		&model.SubmitSurveyRequest{},
	)(c)
}
