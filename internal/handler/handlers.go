package handler

import (
	"github.com/deppfellow/perf-dashboard/internal/server"
	"github.com/deppfellow/perf-dashboard/internal/service"
)

// Handlers groups all HTTP handlers for the router.
type Handlers struct {
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Trial   *TrialHandler
	Survey  *SurveyHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Trial:   NewTrialHandler(s, services.Trial),
		Survey:  NewSurveyHandler(s, services.Survey),
	}
}
