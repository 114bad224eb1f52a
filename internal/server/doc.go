// Package server provides HTTP routing, middleware, and the plan generation API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation keeps a per-path method table over
// [http.ServeMux]: an unsupported method on a known path answers 405 with an
// Allow header.
//
// # Plan Streaming
//
// POST /api/plan runs a generation and streams newline-delimited JSON: one
// self-describing event per line, flushed as soon as each tanda is ready.
// Consumers must treat "done" and "error" as terminal. A dropped connection
// cancels the run through the request context, so no further oracle calls
// are issued for an audience that is gone.
//
// # Other Endpoints
//
//   - POST /api/replace : single-track replacement with progressive broadening
//   - GET  /api/library/styles : styles and track counts of the loaded library
//   - POST /api/library/reload : swap in a fresh snapshot when the file changed
//   - GET  /api/plans, /api/plans/{id} : saved plan browsing
package server
