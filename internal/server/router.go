package server

import (
	"net/http"
	"sort"
	"strings"
)

// BasicRouter routes the plan API over an [http.ServeMux]. Each path keeps
// its own method table, so one endpoint can serve reads and writes side by
// side and an unsupported method gets a 405 with an Allow header instead of
// a 404.
type BasicRouter struct {
	mux         *http.ServeMux
	routes      map[string]map[string]http.Handler
	middlewares []Middleware
}

// NewBasicRouter creates an empty router.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:    http.NewServeMux(),
		routes: make(map[string]map[string]http.Handler),
	}
}

// Use appends [Middleware] to the stack. Middleware is baked into a route at
// registration time, so Use must come before Handle.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for one method on path. A path ending in "/"
// matches the whole subtree, following ServeMux rules. Registering a second
// method on an already-known path extends that path's method table.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	method = strings.ToUpper(method)

	byMethod, known := r.routes[path]
	if !known {
		byMethod = make(map[string]http.Handler)
		r.routes[path] = byMethod
		r.mux.Handle(path, dispatch(byMethod))
	}
	byMethod[method] = r.Apply(handler)
}

// dispatch selects the handler for the request method, answering 405 with
// the allowed methods when the table has no entry.
func dispatch(byMethod map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if h, ok := byMethod[strings.ToUpper(req.Method)]; ok {
			h.ServeHTTP(w, req)
			return
		}
		allowed := make([]string, 0, len(byMethod))
		for m := range byMethod {
			allowed = append(allowed, m)
		}
		sort.Strings(allowed)
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware, last added wrapping
// first so the first Use sits outermost.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}
