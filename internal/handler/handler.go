// Package handler is the HTTP entry point for business logic after the
// router.
//
// It binds and validates requests through the validation package, calls
// the service layer, and writes responses.
package handler
