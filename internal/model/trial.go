package model

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/deppfellow/perf-dashboard/internal/errs"
	"github.com/deppfellow/perf-dashboard/internal/validation"
	"github.com/go-playground/validator/v10"
)

// TrialReportingTimeout is how long (seconds) a trial may stay active
// without reporting results before it stops counting as active.
const TrialReportingTimeout = 60

// Trial is one benchmark execution. Size and Period are nil while the trial
// is active and both set once it has reported.
type Trial struct {
	TS     int64  `json:"ts" db:"ts"`
	Size   *int64 `json:"size" db:"size"`
	Period *int64 `json:"period" db:"period"`
}

// Active reports whether the trial has not reported results yet.
func (t Trial) Active() bool {
	return t.Size == nil && t.Period == nil
}

// TrialFilter selects trials that are active and/or recently completed.
type TrialFilter struct {
	// Active selects trials without results created within TrialReportingTimeout.
	Active bool

	// Period, in seconds, selects completed trials younger than Period.
	Period *int64

	// Limit caps the number of listed trials. Negative means no limit.
	Limit *int64
}

// TrialStats summarizes throughput over completed trials.
type TrialStats struct {
	TotalCount int64    `json:"total_count"`
	StatCount  int64    `json:"stat_count"`
	StatMean   *float64 `json:"stat_mean"`
}

var (
	// ErrInvalidParam is wrapped by every parse failure below.
	ErrInvalidParam = errors.New("invalid parameter")

	castTrue  = map[string]bool{"1": true, "true": true, "on": true}
	castFalse = map[string]bool{"0": true, "false": true, "off": true, "": true}

	periodRe = regexp.MustCompile(`^(\d+)([mh])?$`)
	tsRe     = regexp.MustCompile(`^-?\d+$`)

	validate = validator.New()
)

// ParseActive parses a boolean-like query value, case-insensitively.
func ParseActive(value string) (bool, error) {
	value = strings.ToLower(value)

	switch {
	case castTrue[value]:
		return true, nil
	case castFalse[value]:
		return false, nil
	default:
		return false, fmt.Errorf("%w: active=%q", ErrInvalidParam, value)
	}
}

// ParsePeriod parses "<digits>[m|h]" into seconds. An empty value means no period.
func ParsePeriod(value string) (*int64, error) {
	if value == "" {
		return nil, nil
	}

	match := periodRe.FindStringSubmatch(strings.ToLower(value))
	if match == nil {
		return nil, fmt.Errorf("%w: period=%q", ErrInvalidParam, value)
	}

	seconds, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: period=%q: %w", ErrInvalidParam, value, err)
	}

	var unit int64 = 1
	switch match[2] {
	case "m":
		unit = 60
	case "h":
		unit = 3600
	}

	if seconds > (1<<63-1)/unit {
		return nil, fmt.Errorf("%w: period=%q overflows", ErrInvalidParam, value)
	}

	seconds *= unit
	return &seconds, nil
}

// ParseLimit parses an optional integer. Surrounding whitespace and a sign are accepted.
func ParseLimit(value string) (*int64, error) {
	if value == "" {
		return nil, nil
	}

	limit, err := parseInt(value)
	if err != nil {
		return nil, fmt.Errorf("%w: limit=%q", ErrInvalidParam, value)
	}
	return &limit, nil
}

func parseInt(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}

func buildFilter(active, period, limit string) (TrialFilter, error) {
	var (
		filter      TrialFilter
		fieldErrors validation.CustomValidationErrors
		err         error
	)

	if filter.Active, err = ParseActive(active); err != nil {
		fieldErrors = append(fieldErrors, validation.CustomValidationError{
			Field:   "active",
			Message: "must be one of: 1, true, on, 0, false, off",
		})
	}

	if filter.Period, err = ParsePeriod(period); err != nil {
		fieldErrors = append(fieldErrors, validation.CustomValidationError{
			Field:   "period",
			Message: "must be a number of seconds, optionally suffixed with m or h",
		})
	}

	if filter.Limit, err = ParseLimit(limit); err != nil {
		fieldErrors = append(fieldErrors, validation.CustomValidationError{
			Field:   "limit",
			Message: "must be an integer",
		})
	}

	if len(fieldErrors) > 0 {
		return TrialFilter{}, fieldErrors
	}
	return filter, nil
}

// ListTrialsRequest is the query string of GET /dashboard/trial/.
type ListTrialsRequest struct {
	Active string `query:"active"`
	Period string `query:"period"`
	Limit  string `query:"limit"`
}

func (r *ListTrialsRequest) Validate() error {
	_, err := r.Filter()
	return err
}

// Filter returns the parsed filter, or validation.CustomValidationErrors.
func (r *ListTrialsRequest) Filter() (TrialFilter, error) {
	return buildFilter(r.Active, r.Period, r.Limit)
}

// CreateTrialRequest is the query string of POST /dashboard/trial/.
// The filter describes the trials whose existence suppresses creation.
type CreateTrialRequest struct {
	Active string `query:"active"`
	Period string `query:"period"`
}

func (r *CreateTrialRequest) Validate() error {
	_, err := r.Filter()
	return err
}

func (r *CreateTrialRequest) Filter() (TrialFilter, error) {
	return buildFilter(r.Active, r.Period, "")
}

// UpsertTrialRequest is PUT /dashboard/trial/:ts with form fields size and period.
type UpsertTrialRequest struct {
	TS     string `param:"ts"`
	Size   string `form:"size" validate:"required"`
	Period string `form:"period" validate:"required"`
}

// Validate rejects a non-integer path segment as not found, the same way an
// integer-only route would, and non-integer form fields as a bad request.
func (r *UpsertTrialRequest) Validate() error {
	if !tsRe.MatchString(r.TS) {
		return errs.NewNotFoundError(http.StatusText(http.StatusNotFound), false, nil)
	}

	if err := validate.Struct(r); err != nil {
		return err
	}

	var fieldErrors validation.CustomValidationErrors
	if _, err := parseInt(r.Size); err != nil {
		fieldErrors = append(fieldErrors, validation.CustomValidationError{Field: "size", Message: "must be an integer"})
	}
	if _, err := parseInt(r.Period); err != nil {
		fieldErrors = append(fieldErrors, validation.CustomValidationError{Field: "period", Message: "must be an integer"})
	}

	if len(fieldErrors) > 0 {
		return fieldErrors
	}
	return nil
}

// Trial returns the completed trial described by the request. Call after Validate.
func (r *UpsertTrialRequest) Trial() (Trial, error) {
	ts, err := strconv.ParseInt(r.TS, 10, 64)
	if err != nil {
		return Trial{}, fmt.Errorf("%w: ts=%q", ErrInvalidParam, r.TS)
	}
	size, err := parseInt(r.Size)
	if err != nil {
		return Trial{}, fmt.Errorf("%w: size=%q", ErrInvalidParam, r.Size)
	}
	period, err := parseInt(r.Period)
	if err != nil {
		return Trial{}, fmt.Errorf("%w: period=%q", ErrInvalidParam, r.Period)
	}

	return Trial{TS: ts, Size: &size, Period: &period}, nil
}

// ListTrialsResponse is the body of GET /dashboard/trial/.
type ListTrialsResponse struct {
	Selected []Trial `json:"selected"`
	Count    int     `json:"count"`
}

// NewListTrialsResponse never serializes a nil selection as null.
func NewListTrialsResponse(trials []Trial) *ListTrialsResponse {
	if trials == nil {
		trials = []Trial{}
	}
	return &ListTrialsResponse{Selected: trials, Count: len(trials)}
}

// InsertedTrial identifies a newly created trial.
type InsertedTrial struct {
	TS int64 `json:"ts"`
}

// CreateTrialResponse is the body of POST /dashboard/trial/. Inserted is nil
// when creation was suppressed by a matching trial or a timestamp collision.
type CreateTrialResponse struct {
	Inserted *InsertedTrial `json:"inserted"`
}

// StatusCode is 201 when a trial was inserted and 409 otherwise.
func (r *CreateTrialResponse) StatusCode() int {
	if r.Inserted == nil {
		return http.StatusConflict
	}
	return http.StatusCreated
}

// GetTrialStatsRequest is GET /dashboard/trial/stats, which takes no input.
type GetTrialStatsRequest struct{}

func (r *GetTrialStatsRequest) Validate() error {
	return nil
}
