package model

import (
	"errors"
	"net/http"
	"testing"

	"github.com/deppfellow/perf-dashboard/internal/errs"
	"github.com/deppfellow/perf-dashboard/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActive(t *testing.T) {
	for _, v := range []string{"1", "true", "on", "TRUE", "On", "tRuE"} {
		got, err := ParseActive(v)
		require.NoError(t, err, v)
		assert.True(t, got, v)
	}

	for _, v := range []string{"0", "false", "off", "", "FALSE", "Off"} {
		got, err := ParseActive(v)
		require.NoError(t, err, v)
		assert.False(t, got, v)
	}

	for _, v := range []string{"yes", "2", " 1", "t"} {
		_, err := ParseActive(v)
		assert.ErrorIs(t, err, ErrInvalidParam, v)
	}
}

func TestParsePeriod(t *testing.T) {
	tests := map[string]int64{
		"90": 90,
		"5m": 300,
		"5M": 300,
		"2h": 7200,
		"0":  0,
		"0h": 0,
	}

	for in, want := range tests {
		got, err := ParsePeriod(in)
		require.NoError(t, err, in)
		require.NotNil(t, got, in)
		assert.Equal(t, want, *got, in)
	}

	got, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, in := range []string{"5d", "m", "-5", "5 m", "1.5h", "9223372036854775807h", "99999999999999999999"} {
		_, err := ParsePeriod(in)
		assert.ErrorIs(t, err, ErrInvalidParam, in)
	}
}

func TestParseLimit(t *testing.T) {
	got, err := ParseLimit("")
	require.NoError(t, err)
	assert.Nil(t, got)

	for in, want := range map[string]int64{"10": 10, " 7 ": 7, "-1": -1, "+3": 3, "0": 0} {
		got, err := ParseLimit(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, *got, in)
	}

	_, err = ParseLimit("ten")
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestListTrialsRequest_CollectsAllFieldErrors(t *testing.T) {
	req := &ListTrialsRequest{Active: "maybe", Period: "soon", Limit: "x"}

	err := req.Validate()

	var fieldErrors validation.CustomValidationErrors
	require.True(t, errors.As(err, &fieldErrors))
	require.Len(t, fieldErrors, 3)
	assert.Equal(t, "active", fieldErrors[0].Field)
	assert.Equal(t, "period", fieldErrors[1].Field)
	assert.Equal(t, "limit", fieldErrors[2].Field)
}

func TestCreateTrialRequest_Filter(t *testing.T) {
	req := &CreateTrialRequest{Active: "1", Period: "1h"}

	require.NoError(t, req.Validate())
	filter, err := req.Filter()
	require.NoError(t, err)

	assert.True(t, filter.Active)
	assert.Equal(t, int64(3600), *filter.Period)
	assert.Nil(t, filter.Limit)
}

func TestUpsertTrialRequest(t *testing.T) {
	req := &UpsertTrialRequest{TS: "-12", Size: "5", Period: "0"}

	require.NoError(t, req.Validate())
	trial, err := req.Trial()
	require.NoError(t, err)

	assert.Equal(t, int64(-12), trial.TS)
	assert.Equal(t, int64(5), *trial.Size)
	assert.Equal(t, int64(0), *trial.Period)
	assert.False(t, trial.Active())
}

func TestUpsertTrialRequest_NonIntegerTimestamp(t *testing.T) {
	for _, ts := range []string{"abc", "+5", "1.0", ""} {
		err := (&UpsertTrialRequest{TS: ts, Size: "1", Period: "1"}).Validate()

		var httpErr *errs.HTTPError
		require.True(t, errors.As(err, &httpErr), ts)
		assert.Equal(t, http.StatusNotFound, httpErr.Status, ts)
	}
}

func TestUpsertTrialRequest_MissingAndInvalidFields(t *testing.T) {
	err := (&UpsertTrialRequest{TS: "1"}).Validate()
	var tagErrors validator.ValidationErrors
	require.True(t, errors.As(err, &tagErrors))
	assert.Len(t, tagErrors, 2)

	err = (&UpsertTrialRequest{TS: "1", Size: "1", Period: "fast"}).Validate()
	var fieldErrors validation.CustomValidationErrors
	require.True(t, errors.As(err, &fieldErrors))
	require.Len(t, fieldErrors, 1)
	assert.Equal(t, "period", fieldErrors[0].Field)
}

func TestCreateTrialResponse_StatusCode(t *testing.T) {
	assert.Equal(t, http.StatusConflict, (&CreateTrialResponse{}).StatusCode())
	assert.Equal(t, http.StatusCreated, (&CreateTrialResponse{Inserted: &InsertedTrial{TS: 1}}).StatusCode())
}

func TestNewListTrialsResponse(t *testing.T) {
	resp := NewListTrialsResponse(nil)

	assert.NotNil(t, resp.Selected)
	assert.Zero(t, resp.Count)
}
