package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/perf-dashboard/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrCode reports the Code of the first *sqlerr.Error in the chain, or Other.
func ErrCode(err error) Code {
	var pgerr *Error
	if errors.As(err, &pgerr) {
		return pgerr.Code
	}
	return Other
}

// ConvertPgError normalizes a raw Postgres error. The driver error stays
// reachable through Unwrap.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// violation describes how a client-caused constraint failure is reported.
type violation struct {
	action  string
	message func(e *Error) string
}

var violations = map[Code]violation{
	UniqueViolation: {
		action: "ALREADY_EXISTS",
		message: func(e *Error) string {
			field := humanize(uniqueColumn(e.ConstraintName))
			if field == "" {
				field = "identifier"
			}
			return fmt.Sprintf("A %s with this %s already exists", entity(e.TableName), field)
		},
	},
	NotNullViolation: {
		action: "REQUIRED",
		message: func(e *Error) string {
			field := humanize(e.ColumnName)
			if field == "" {
				field = "field"
			}
			return fmt.Sprintf("The %s is required", field)
		},
	},
	CheckViolation: {
		action: "INVALID",
		message: func(e *Error) string {
			if field := humanize(e.ColumnName); field != "" {
				return fmt.Sprintf("The %s value does not meet required conditions", field)
			}
			return "One or more values do not meet required conditions"
		},
	},
}

// errorCode builds "<TABLE>_<ACTION>", e.g. TRIAL_ALREADY_EXISTS.
func errorCode(table, action string) string {
	if table == "" {
		table = "record"
	}
	return strings.ToUpper(singular(table)) + "_" + action
}

func entity(table string) string {
	if table == "" {
		return "record"
	}
	return humanize(singular(table))
}

func singular(name string) string {
	if len(name) > 1 && strings.HasSuffix(strings.ToLower(name), "s") {
		return name[:len(name)-1]
	}
	return name
}

// humanize turns snake_case into Title Case.
func humanize(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

var constraintColumnRe = regexp.MustCompile(`^(?:unique_[^_]+_(\w+)|[^_]+_(\w+)_(?:key|ukey|pkey))$`)

// uniqueColumn infers the column from "unique_<table>_<column>" or
// "<table>_<column>_(key|ukey|pkey)" constraint names.
func uniqueColumn(constraint string) string {
	m := constraintColumnRe.FindStringSubmatch(constraint)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// HandleError converts a database error into an *errs.HTTPError.
//
// Constraint violations become 400s, missing rows 404, anything else a
// generic 500. HTTPErrors pass through unchanged.
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		sqlErr := ConvertPgError(pgerr)

		v, ok := violations[sqlErr.Code]
		if !ok {
			return errs.NewInternalServerError()
		}

		code := errorCode(sqlErr.TableName, v.action)

		var fieldErrors []errs.FieldError
		if sqlErr.Code == NotNullViolation && sqlErr.ColumnName != "" {
			fieldErrors = []errs.FieldError{{Field: strings.ToLower(sqlErr.ColumnName), Error: "is required"}}
		}

		return errs.NewBadRequestError(v.message(sqlErr), true, &code, fieldErrors, nil)
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return errs.NewNotFoundError("Resource not found", false, nil)
	}

	return errs.NewInternalServerError()
}
