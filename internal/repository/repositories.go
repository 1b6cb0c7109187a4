package repository

import (
	"github.com/deppfellow/perf-dashboard/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Trial  *TrialRepository
	Survey *SurveyRepository
}

// NewRepositories constructs the repositories on top of s.DB.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Trial:  NewTrialRepository(s),
		Survey: NewSurveyRepository(s),
	}
}
