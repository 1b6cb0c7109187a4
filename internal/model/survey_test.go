package model

import (
	"errors"
	"testing"

	"github.com/deppfellow/perf-dashboard/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurveyCode(t *testing.T) {
	for want, label := range SurveyLabels {
		got, ok := SurveyCode(label)
		require.True(t, ok, label)
		assert.Equal(t, want, got, label)
	}

	for _, label := range []string{"loud", "Good", " good", ""} {
		_, ok := SurveyCode(label)
		assert.False(t, ok, label)
	}
}

func TestSubmitSurveyRequest_Validate(t *testing.T) {
	require.NoError(t, (&SubmitSurveyRequest{Subjective: "unusable"}).Validate())

	err := (&SubmitSurveyRequest{Subjective: "loud"}).Validate()
	var fieldErrors validation.CustomValidationErrors
	require.True(t, errors.As(err, &fieldErrors))
	assert.Equal(t, "subjective", fieldErrors[0].Field)
	assert.Equal(t, "must be one of: good, slow, unusable", fieldErrors[0].Message)
}
