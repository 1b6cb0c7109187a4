// Package errs defines the error body every dashboard endpoint returns:
// a machine code, a message, the status, and optional field errors.
package errs
