// Package model holds the domain types shared by the handler, service and
// repository layers: trials, survey responses, and the request/response
// payloads of the dashboard API.
//
// Request payloads implement validation.Validatable so the handler pipeline
// can bind and validate them before any datastore access.
package model
