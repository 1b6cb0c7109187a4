package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/deppfellow/perf-dashboard/internal/model"
	"github.com/deppfellow/perf-dashboard/internal/server"
	"github.com/deppfellow/perf-dashboard/internal/validation"
	"github.com/labstack/echo/v4"
)

// ErrFormBodyUnsupported is returned when a trial creation request carries
// form fields. It is deliberately not an *errs.HTTPError, so it is answered
// as an unhandled 500 rather than a validation failure.
var ErrFormBodyUnsupported = errors.New("creating a trial from form data is not implemented")

// TrialService is what TrialHandler needs from the service layer.
type TrialService interface {
	ListTrials(ctx context.Context, filter model.TrialFilter) (*model.ListTrialsResponse, error)
	GetTrialStats(ctx context.Context) (*model.TrialStats, error)
	CreateTrial(ctx context.Context, filter model.TrialFilter) (*model.CreateTrialResponse, error)
	UpsertTrial(ctx context.Context, trial model.Trial) error
}

type TrialHandler struct {
	Handler
	trialService TrialService
}

func NewTrialHandler(s *server.Server, trialService TrialService) *TrialHandler {
	return &TrialHandler{
		Handler:      NewHandler(s),
		trialService: trialService,
	}
}

func (h *TrialHandler) ListTrials(c echo.Context) error {
	return Handle(
		h.Handler,
		func(c echo.Context, req *model.ListTrialsRequest) (*model.ListTrialsResponse, error) {
			filter, err := req.Filter()
			if err != nil {
				return nil, err
			}
			return h.trialService.ListTrials(c.Request().Context(), filter)
		},
		http.StatusOK,
		&model.ListTrialsRequest{},
	)(c)
}

func (h *TrialHandler) GetTrialStats(c echo.Context) error {
	return Handle(
		h.Handler,
		func(c echo.Context, _ *model.GetTrialStatsRequest) (*model.TrialStats, error) {
			return h.trialService.GetTrialStats(c.Request().Context())
		},
		http.StatusOK,
		&model.GetTrialStatsRequest{},
	)(c)
}

// CreateTrial answers 201 with the new timestamp, or 409 when a matching
// trial already exists. A form body is rejected before the query is looked at.
func (h *TrialHandler) CreateTrial(c echo.Context) error {
	if hasFormData(c.Request()) {
		return ErrFormBodyUnsupported
	}

	return Handle(
		h.Handler,
		func(c echo.Context, req *model.CreateTrialRequest) (*model.CreateTrialResponse, error) {
			filter, err := req.Filter()
			if err != nil {
				return nil, err
			}
			return h.trialService.CreateTrial(c.Request().Context(), filter)
		},
		http.StatusCreated,
		&model.CreateTrialRequest{},
	)(c)
}

func (h *TrialHandler) UpsertTrial(c echo.Context) error {
	return HandleNoContent(
		h.Handler,
		func(c echo.Context, req *model.UpsertTrialRequest) error {
			trial, err := req.Trial()
			if err != nil {
				return err
			}
			return h.trialService.UpsertTrial(c.Request().Context(), trial)
		},
		http.StatusNoContent,
		&model.UpsertTrialRequest{},
	)(c)
}

// hasFormData reports whether the request body carries any form field.
// Query parameters do not count.
func hasFormData(r *http.Request) bool {
	values, err := validation.BodyForm(r)
	return err == nil && len(values) > 0
}
