package server

import (
	"net/http"
	"slices"
	"strings"
)

// BasicRouter dispatches the API routes over an [http.ServeMux].
//
// Every route is wrapped in the full middleware stack, including requests that fail the method check.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	routes      []string
}

func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware; the first one added is the outermost.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for path. A GET route also answers HEAD.
//
// Other methods get a JSON 405 with an Allow header.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	allowed := []string{strings.ToUpper(method)}
	if allowed[0] == http.MethodGet {
		allowed = append(allowed, http.MethodHead)
	}

	checked := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !slices.Contains(allowed, req.Method) {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", req.Method+" is not supported on "+path)
			return
		}
		handler.ServeHTTP(w, req)
	})

	r.mux.Handle(path, r.Apply(checked))
	r.routes = append(r.routes, allowed[0]+" "+path)
}

// Handler registers a [Handler] on each of its routes. The handler does its own method checks.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)
	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
		r.routes = append(r.routes, "* "+route)
	}
}

// Routes lists the registered routes as "METHOD path" in registration order.
func (r *BasicRouter) Routes() []string {
	return slices.Clone(r.routes)
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps handler so that the first registered middleware runs first.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	for _, mw := range slices.Backward(r.middlewares) {
		handler = mw(handler)
	}
	return handler
}
