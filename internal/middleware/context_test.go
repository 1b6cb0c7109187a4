package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deppfellow/perf-dashboard/internal/config"
	"github.com/deppfellow/perf-dashboard/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFromContext_FallsBackOutsideRequests(t *testing.T) {
	fallback := zerolog.Nop()

	assert.Same(t, &fallback, LoggerFromContext(context.Background(), &fallback))
}

func TestLoggerFromContext_UsesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	root := zerolog.New(&buf)
	s := &server.Server{Config: &config.Config{}, Logger: &root}

	e := echo.New()
	e.Use(RequestID(), NewContextEnhancer(s).EnhanceContext())
	e.GET("/trial", func(c echo.Context) error {
		fallback := zerolog.Nop()
		LoggerFromContext(c.Request().Context(), &fallback).Info().Msg("listed")
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/trial", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), `"message":"listed"`)
}
