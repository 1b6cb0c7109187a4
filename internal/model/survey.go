package model

import (
	"strings"

	"github.com/deppfellow/perf-dashboard/internal/validation"
)

// SurveyLabels is the closed set of subjective ratings. A label's index is
// its stored code, so entries must never be reordered.
var SurveyLabels = [...]string{"good", "slow", "unusable"}

// SurveyCode returns the code of an exactly matching label.
func SurveyCode(label string) (int, bool) {
	for code, candidate := range SurveyLabels {
		if candidate == label {
			return code, true
		}
	}
	return 0, false
}

// SubmitSurveyRequest is the form of POST /dashboard/survey/.
type SubmitSurveyRequest struct {
	Subjective string `form:"subjective"`
}

func (r *SubmitSurveyRequest) Validate() error {
	if _, ok := SurveyCode(r.Subjective); !ok {
		return validation.CustomValidationErrors{{
			Field:   "subjective",
			Message: "must be one of: " + strings.Join(SurveyLabels[:], ", "),
		}}
	}
	return nil
}

// SurveyEntry is one recorded rating.
type SurveyEntry struct {
	Value string `json:"value"`
	Code  int    `json:"code"`
}

// SurveyResponse is the body of POST /dashboard/survey/.
type SurveyResponse struct {
	Inserted SurveyEntry `json:"inserted"`
}
