// Package http exposes the OrgaService application services over a JSON API.
//
// Routing uses the standard library mux with trailing-slash ID routes; the
// resolved identifiers and the authenticated principal travel on the request
// context. User-facing error messages are French; structured logs stay in
// English.
package http
