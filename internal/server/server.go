// package server contains middleware & handlers for the milonga plan web service
package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Router defines the interface for HTTP routing and middleware management.
// The API registers its endpoints against this so tests can substitute a router.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for one method on a path
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}
