// Package validation binds request data and validates it.
//
// It uses the `validator` library for rules expressible as struct tags and
// CustomValidationErrors for the rest, and converts either into a 400
// *errs.HTTPError with field-level details.
package validation
