package validation

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/deppfellow/perf-dashboard/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// maxMultipartMemory bounds the in-memory part of a parsed multipart body.
const maxMultipartMemory = 1 << 20

// Validatable is implemented by request payload types that know how to validate themselves.
//
// Validate may return validator.ValidationErrors, CustomValidationErrors, or
// an *errs.HTTPError when the failure is not a 400 (an unroutable path
// parameter, for example).
type Validatable interface {
	Validate() error
}

// CustomValidationError represents a single validation issue for a specific field.
// This is used for validation errors that cannot be expressed via validator tags.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// BindAndValidate binds request data into payload and validates it.
//
// Flow:
// 1) `param` fields from the route, `query` fields from the query string.
// 2) `form` fields from an urlencoded or multipart body only. Query values
//    never fill form fields, and JSON or other bodies are ignored.
// 3) payload.Validate() applies validation rules.
//
// payload must be a pointer to a struct.
func BindAndValidate(c echo.Context, payload Validatable) error {
	binder := &echo.DefaultBinder{}

	if err := binder.BindPathParams(c, payload); err != nil {
		return bindError(err)
	}

	if err := binder.BindQueryParams(c, payload); err != nil {
		return bindError(err)
	}

	if err := bindBodyForm(c, binder, payload); err != nil {
		return bindError(err)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	return nil
}

// BodyForm returns the form fields carried by the request body, leaving out
// the query string that http.Request.Form merges in. Bodies that are not
// urlencoded or multipart yield no fields.
func BodyForm(r *http.Request) (url.Values, error) {
	mediatype, _, _ := strings.Cut(r.Header.Get(echo.HeaderContentType), ";")

	switch strings.TrimSpace(mediatype) {
	case echo.MIMEApplicationForm:
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.PostForm, nil

	case echo.MIMEMultipartForm:
		if r.MultipartForm == nil {
			if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
				return nil, err
			}
		}
		return r.MultipartForm.Value, nil
	}

	return nil, nil
}

// bindBodyForm runs echo's form binding over a request rebuilt from the body
// fields alone, since echo reads urlencoded fields from http.Request.Form.
func bindBodyForm(c echo.Context, binder *echo.DefaultBinder, payload any) error {
	values, err := BodyForm(c.Request())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed form body").SetInternal(err)
	}
	if len(values) == 0 {
		return nil
	}

	encoded := values.Encode()
	body, err := http.NewRequestWithContext(c.Request().Context(), http.MethodPost, "/", strings.NewReader(encoded))
	if err != nil {
		return err
	}
	body.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	body.ContentLength = int64(len(encoded))

	return binder.BindBody(c.Echo().NewContext(body, c.Response()), payload)
}

func bindError(err error) error {
	message := "Invalid request"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}
	}

	return errs.NewBadRequestError(message, false, nil, nil, nil)
}

func validationError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var custom CustomValidationErrors
	if errors.As(err, &custom) {
		fieldErrors := make([]errs.FieldError, 0, len(custom))
		for _, ce := range custom {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: ce.Field, Error: ce.Message})
		}
		return errs.NewBadRequestError("Validation failed", true, nil, fieldErrors, nil)
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return errs.NewBadRequestError("Validation failed", true, nil, extractFieldErrors(validationErrors), nil)
	}

	return err
}

// extractFieldErrors turns validator tag failures into user-friendly messages.
func extractFieldErrors(validationErrors validator.ValidationErrors) []errs.FieldError {
	fieldErrors := make([]errs.FieldError, 0, len(validationErrors))

	for _, err := range validationErrors {
		field := strings.ToLower(err.Field())
		var msg string

		switch err.Tag() {
		case "required":
			msg = "is required"

		case "min":
			if err.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", err.Param())
			}

		case "max":
			if err.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", err.Param())
			}

		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", err.Param())

		case "numeric":
			msg = "must be an integer"

		default:
			if err.Param() != "" {
				msg = fmt.Sprintf("%s: %s:%s", field, err.Tag(), err.Param())
			} else {
				msg = fmt.Sprintf("%s: %s", field, err.Tag())
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: field,
			Error: msg,
		})
	}

	return fieldErrors
}
