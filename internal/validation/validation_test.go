package validation

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/perf-dashboard/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	ID    string `param:"id"`
	Mode  string `query:"mode"`
	Count int    `form:"count" validate:"min=1"`
	Name  string `form:"name" validate:"required"`

	custom error
}

func (r *sampleRequest) Validate() error {
	if r.custom != nil {
		return r.custom
	}
	return validator.New().Struct(r)
}

func newContext(method, target, body string) echo.Context {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func requireHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "got %T: %v", err, err)
	return httpErr
}

func TestBindAndValidate_QueryBoundForNonGet(t *testing.T) {
	c := newContext(http.MethodPost, "/?mode=fast", "count=2&name=x")
	req := &sampleRequest{}

	require.NoError(t, BindAndValidate(c, req))

	assert.Equal(t, "fast", req.Mode)
	assert.Equal(t, 2, req.Count)
	assert.Equal(t, "x", req.Name)
}

func TestBindAndValidate_TagErrors(t *testing.T) {
	c := newContext(http.MethodPost, "/", "count=0")

	httpErr := requireHTTPError(t, BindAndValidate(c, &sampleRequest{}))

	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.ElementsMatch(t, []errs.FieldError{
		{Field: "count", Error: "must be at least 1"},
		{Field: "name", Error: "is required"},
	}, httpErr.Errors)
}

func TestBindAndValidate_BindFailure(t *testing.T) {
	c := newContext(http.MethodPost, "/", "count=many&name=x")

	httpErr := requireHTTPError(t, BindAndValidate(c, &sampleRequest{}))

	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.NotEmpty(t, httpErr.Message)
}

func TestBindAndValidate_CustomErrors(t *testing.T) {
	c := newContext(http.MethodGet, "/", "")
	req := &sampleRequest{custom: CustomValidationErrors{{Field: "mode", Message: "bad"}}}

	httpErr := requireHTTPError(t, BindAndValidate(c, req))

	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, []errs.FieldError{{Field: "mode", Error: "bad"}}, httpErr.Errors)
}

func TestBindAndValidate_HTTPErrorPassesThrough(t *testing.T) {
	c := newContext(http.MethodGet, "/", "")
	notFound := errs.NewNotFoundError("Not Found", false, nil)

	err := BindAndValidate(c, &sampleRequest{custom: notFound})

	assert.Same(t, notFound, err)
}

func TestBindAndValidate_QueryDoesNotFillFormFields(t *testing.T) {
	c := newContext(http.MethodPost, "/?name=x&count=2", "other=1")
	req := &sampleRequest{}

	httpErr := requireHTTPError(t, BindAndValidate(c, req))

	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Empty(t, req.Name)
	assert.Zero(t, req.Count)
}

func TestBindAndValidate_IgnoresJSONBody(t *testing.T) {
	httpReq := httptest.NewRequest(http.MethodPost, "/?mode=fast", strings.NewReader(`{"name":"x","count":2,"mode":"slow"}`))
	httpReq.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := echo.New().NewContext(httpReq, httptest.NewRecorder())
	req := &sampleRequest{}

	httpErr := requireHTTPError(t, BindAndValidate(c, req))

	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "fast", req.Mode)
	assert.Empty(t, req.Name)
}

func TestBindAndValidate_MultipartBody(t *testing.T) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("name", "x"))
	require.NoError(t, w.WriteField("count", "3"))
	require.NoError(t, w.Close())

	httpReq := httptest.NewRequest(http.MethodPut, "/?name=ignored", &body)
	httpReq.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	c := echo.New().NewContext(httpReq, httptest.NewRecorder())
	req := &sampleRequest{}

	require.NoError(t, BindAndValidate(c, req))

	assert.Equal(t, "x", req.Name)
	assert.Equal(t, 3, req.Count)
}

func TestBodyForm_LeavesOutQuery(t *testing.T) {
	httpReq := httptest.NewRequest(http.MethodPost, "/?size=1", strings.NewReader("period=2"))
	httpReq.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm+"; charset=utf-8")

	values, err := BodyForm(httpReq)
	require.NoError(t, err)

	assert.Equal(t, "2", values.Get("period"))
	assert.False(t, values.Has("size"))
}
