package service

import (
	"github.com/deppfellow/perf-dashboard/internal/lib/job"
	"github.com/deppfellow/perf-dashboard/internal/repository"
	"github.com/deppfellow/perf-dashboard/internal/server"
)

type Services struct {
	Trial  *TrialService
	Survey *SurveyService
	Job    *job.JobService
}

func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		Trial:  NewTrialService(s, repos.Trial),
		Survey: NewSurveyService(s, repos.Survey),
		Job:    s.Job,
	}, nil
}
