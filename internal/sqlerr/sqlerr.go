// Package sqlerr classifies Postgres driver errors by SQLSTATE and turns
// constraint violations into 400 responses. Everything else it cannot
// attribute to the client becomes a generic 500.
package sqlerr
