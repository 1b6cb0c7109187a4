package router

import (
	"github.com/deppfellow/perf-dashboard/internal/handler"
	"github.com/labstack/echo/v4"
)

func registerDashboardRoutes(r *echo.Echo, h *handler.Handlers) {
	dashboard := r.Group("/dashboard")

	dashboard.POST("/survey/", h.Survey.SubmitSurvey)

	trial := dashboard.Group("/trial")
	trial.GET("/", h.Trial.ListTrials)
	trial.GET("/stats", h.Trial.GetTrialStats)
	trial.POST("/", h.Trial.CreateTrial)
	trial.PUT("/:ts", h.Trial.UpsertTrial)
}
