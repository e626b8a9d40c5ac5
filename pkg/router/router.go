package router

import (
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Route is a registered handler. Pattern segments starting with ':' bind
// one path segment; a trailing "/*" binds the rest of the path, slash
// included, as "wildcard".
type Route struct {
	Method      string
	Pattern     string
	Handler     http.Handler
	Middlewares []Middleware
	Params      []string

	segments []segment
	wildcard bool
}

type segment struct {
	literal string
	param   string
}

// Router dispatches on method and path pattern and wraps every handler,
// including the 404 and 405 fallbacks, in the global middleware.
type Router struct {
	mu         sync.RWMutex
	routes     map[string][]Route
	middleware []Middleware
	notFound   http.Handler
	notAllowed http.Handler
}

// New creates a new Router instance.
func New() *Router {
	return &Router{
		routes:   make(map[string][]Route),
		notFound: http.NotFoundHandler(),
		notAllowed: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}),
	}
}

// GET is a shortcut for adding a route with GET method.
func (r *Router) GET(pattern string, handler http.Handler, mw ...Middleware) {
	r.AddRoute(http.MethodGet, pattern, handler, mw...)
}

// POST is a shortcut for adding a route with POST method.
func (r *Router) POST(pattern string, handler http.Handler, mw ...Middleware) {
	r.AddRoute(http.MethodPost, pattern, handler, mw...)
}

// PUT is a shortcut for adding a route with PUT method.
func (r *Router) PUT(pattern string, handler http.Handler, mw ...Middleware) {
	r.AddRoute(http.MethodPut, pattern, handler, mw...)
}

// DELETE is a shortcut for adding a route with DELETE method.
func (r *Router) DELETE(pattern string, handler http.Handler, mw ...Middleware) {
	r.AddRoute(http.MethodDelete, pattern, handler, mw...)
}

// PATCH is a shortcut for adding a route with PATCH method.
func (r *Router) PATCH(pattern string, handler http.Handler, mw ...Middleware) {
	r.AddRoute(http.MethodPatch, pattern, handler, mw...)
}

// AddRoute registers handler for method and pattern. Route middleware runs
// inside the global middleware. Routes are tried in registration order.
func (r *Router) AddRoute(method, pattern string, handler http.Handler, mw ...Middleware) {
	route := compile(pattern)
	route.Method = method
	route.Handler = handler
	route.Middlewares = mw

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[method] = append(r.routes[method], route)
}

func compile(pattern string) Route {
	route := Route{Pattern: pattern}
	rest := strings.Trim(pattern, "/")
	if rest == "*" || strings.HasSuffix(rest, "/*") {
		route.wildcard = true
		rest = strings.TrimSuffix(strings.TrimSuffix(rest, "*"), "/")
	}
	if rest == "" {
		return route
	}
	for _, part := range strings.Split(rest, "/") {
		if name, ok := strings.CutPrefix(part, ":"); ok && name != "" {
			route.segments = append(route.segments, segment{param: name})
			route.Params = append(route.Params, name)
			continue
		}
		route.segments = append(route.segments, segment{literal: part})
	}
	return route
}

// match returns the bound parameters, or nil when path does not match.
// Parameters never match an empty segment.
func (route *Route) match(path string) Params {
	params := Params{}
	rest := path
	for _, seg := range route.segments {
		if len(rest) < 2 || rest[0] != '/' {
			return nil
		}
		end := strings.IndexByte(rest[1:], '/') + 1
		if end == 0 {
			end = len(rest)
		}
		part := rest[1:end]
		rest = rest[end:]

		switch {
		case part == "":
			return nil
		case seg.param != "":
			params[seg.param] = part
		case part != seg.literal:
			return nil
		}
	}

	switch {
	case route.wildcard:
		if rest == "" || rest[0] != '/' {
			return nil
		}
		params["wildcard"] = rest
	case len(route.segments) == 0:
		if rest != "/" {
			return nil
		}
	case rest != "":
		return nil
	}
	return params
}

// ServeHTTP implements http.Handler interface.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	middleware := r.middleware
	methodRoutes := r.routes[req.Method]
	r.mu.RUnlock()

	for _, route := range methodRoutes {
		params := route.match(req.URL.Path)
		if params == nil {
			continue
		}
		ctx := WithParams(req.Context(), params)
		ctx = withPattern(ctx, route.Pattern)

		// Build handler chain: global middleware + route middleware + handler
		handler := route.Handler
		for i := len(route.Middlewares) - 1; i >= 0; i-- {
			handler = route.Middlewares[i](handler)
		}
		for i := len(middleware) - 1; i >= 0; i-- {
			handler = middleware[i](handler)
		}

		handler.ServeHTTP(w, req.WithContext(ctx))
		return
	}

	if allowed := r.allowedMethods(req.URL.Path); len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		r.fallback(r.notAllowed, middleware).ServeHTTP(w, req)
		return
	}
	r.fallback(r.notFound, middleware).ServeHTTP(w, req)
}

func (r *Router) fallback(h http.Handler, middleware []Middleware) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

// allowedMethods returns the methods that have a route matching path.
func (r *Router) allowedMethods(path string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for method, routes := range r.routes {
		for _, route := range routes {
			if route.match(path) != nil {
				out = append(out, method)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// Use adds a middleware to the router's global middleware chain.
func (r *Router) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, middlewares...)
}

// SetNotFoundHandler sets the handler for routes that don't match.
func (r *Router) SetNotFoundHandler(handler http.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notFound = handler
}

// SetMethodNotAllowedHandler sets the handler for methods that don't match.
func (r *Router) SetMethodNotAllowedHandler(handler http.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notAllowed = handler
}

// Routes returns a copy of all registered routes, sorted by pattern and method.
func (r *Router) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var routes []Route
	for _, methodRoutes := range r.routes {
		routes = append(routes, methodRoutes...)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Pattern != routes[j].Pattern {
			return routes[i].Pattern < routes[j].Pattern
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

// Handler is an adapter that allows using a function as an http.Handler.
type Handler func(http.ResponseWriter, *http.Request)

// ServeHTTP implements http.Handler.
func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h(w, r)
}
