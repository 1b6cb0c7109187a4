package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/deppfellow/perf-dashboard/internal/middleware"
	"github.com/deppfellow/perf-dashboard/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// defaultHealthCheckTimeout bounds each dependency ping when none is configured.
const defaultHealthCheckTimeout = 5 * time.Second

// HealthHandler reports whether the service and its dependencies are reachable.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

type healthCheck struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

type healthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]healthCheck `json:"checks"`
}

// CheckHealth answers 200 when the database is reachable and 503 otherwise.
// Redis is reported but only backs a cache, so it never fails the check.
// Dependencies missing from observability.health_checks.checks are skipped.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	checks := h.server.Config.Observability.HealthChecks

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	response := healthResponse{
		Status:      "healthy",
		Timestamp:   start.UTC(),
		Environment: h.server.Config.Primary.Env,
		Checks:      make(map[string]healthCheck),
	}

	ctx := c.Request().Context()

	if !checks.Enabled {
		return c.JSON(http.StatusOK, response)
	}

	if slices.Contains(checks.Checks, "database") {
		response.Checks["database"] = h.check(ctx, &logger, checks.Timeout, "database", h.server.DB.Pool.Ping)
	}

	if h.server.Redis != nil && slices.Contains(checks.Checks, "redis") {
		response.Checks["redis"] = h.check(ctx, &logger, checks.Timeout, "redis", func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		})
	}

	if database, ok := response.Checks["database"]; ok && database.Status != "healthy" {
		response.Status = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) check(ctx context.Context, logger *zerolog.Logger, timeout time.Duration, name string, ping func(context.Context) error) healthCheck {
	if timeout <= 0 {
		timeout = defaultHealthCheckTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	checkStart := time.Now()
	err := ping(ctx)
	elapsed := time.Since(checkStart)

	if err == nil {
		return healthCheck{Status: "healthy", ResponseTime: elapsed.String()}
	}

	logger.Error().
		Err(err).
		Str("check_type", name).
		Dur("response_time", elapsed).
		Msg("health check failed")

	if app := h.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("HealthCheckError", map[string]any{
			"check_type":       name,
			"operation":        "health_check",
			"error_type":       name + "_unhealthy",
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})
	}

	return healthCheck{Status: "unhealthy", ResponseTime: elapsed.String(), Error: err.Error()}
}
