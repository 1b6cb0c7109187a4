package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/perf-dashboard/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest_AllocatesFreshValue(t *testing.T) {
	template := &model.ListTrialsRequest{}

	first := newRequest(template)
	first.Active = "1"
	second := newRequest(template)

	assert.NotSame(t, template, first)
	assert.NotSame(t, first, second)
	assert.Empty(t, second.Active)
	assert.Empty(t, template.Active)
}

func TestJSONResponseHandler_StatusCoder(t *testing.T) {
	h := JSONResponseHandler{status: http.StatusCreated}

	assert.Equal(t, http.StatusConflict, h.statusFor(&model.CreateTrialResponse{}))
	assert.Equal(t, http.StatusCreated, h.statusFor(&model.CreateTrialResponse{Inserted: &model.InsertedTrial{TS: 1}}))
	assert.Equal(t, http.StatusCreated, h.statusFor(&model.TrialStats{}))
}

func TestHasFormData(t *testing.T) {
	t.Run("no body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/?active=1", nil)
		assert.False(t, hasFormData(req))
	})

	t.Run("urlencoded", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("size=1"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		assert.True(t, hasFormData(req))
	})

	t.Run("json body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"size":1}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		assert.False(t, hasFormData(req))
	})

	t.Run("multipart", func(t *testing.T) {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		require.NoError(t, w.WriteField("period", "5"))
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/", &body)
		req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
		assert.True(t, hasFormData(req))
	})
}
