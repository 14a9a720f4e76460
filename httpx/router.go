package httpx

import (
	"sort"
	"strings"
)

// Route describes one endpoint.
type Route struct {
	Method     string           `json:"method"`
	Path       string           `json:"path"`
	Handler    HandlerFunc      `json:"-"`
	Middleware []MiddlewareFunc `json:"-"`
}

// RegisterRoutes adds every complete route to a; incomplete ones are skipped.
func RegisterRoutes(a *App, routes ...Route) {
	if a == nil || a.e == nil {
		return
	}
	for _, r := range routes {
		if r.Handler == nil || r.Path == "" || r.Method == "" {
			continue
		}
		a.e.Add(strings.ToUpper(r.Method), r.Path, r.Handler, r.Middleware...)
	}
}

// Router registers routes below a path prefix with a shared middleware stack.
type Router struct {
	app    *App
	prefix string
	mw     []MiddlewareFunc
}

// NewRouter creates a router under prefix. An empty route path mounts the
// handler at the prefix itself.
func NewRouter(a *App, prefix string, mw ...MiddlewareFunc) *Router {
	return &Router{app: a, prefix: strings.TrimSuffix(prefix, "/"), mw: mw}
}

// Group derives a router for a sub-prefix that inherits r's middleware.
func (r *Router) Group(prefix string, mw ...MiddlewareFunc) *Router {
	stack := append(append([]MiddlewareFunc(nil), r.mw...), mw...)
	return &Router{app: r.app, prefix: r.prefix + strings.TrimSuffix(prefix, "/"), mw: stack}
}

func (r *Router) GET(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	return r.Handle("GET", path, h, mw...)
}

func (r *Router) POST(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	return r.Handle("POST", path, h, mw...)
}

func (r *Router) PUT(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	return r.Handle("PUT", path, h, mw...)
}

func (r *Router) PATCH(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	return r.Handle("PATCH", path, h, mw...)
}

func (r *Router) DELETE(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	return r.Handle("DELETE", path, h, mw...)
}

// Handle registers h for method at the router's prefix joined with path.
func (r *Router) Handle(method, path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	if r.app == nil || r.app.e == nil || h == nil {
		return r
	}
	full := r.prefix + path
	if full == "" {
		full = "/"
	}
	stack := append(append([]MiddlewareFunc(nil), r.mw...), mw...)
	r.app.e.Add(strings.ToUpper(method), full, h, stack...)
	return r
}

// Routes lists the registered endpoints ordered by path and method.
func (a *App) Routes() []Route {
	registered := a.e.Routes()
	out := make([]Route, 0, len(registered))
	for _, r := range registered {
		if r.Method == "echo_route_any" {
			continue
		}
		out = append(out, Route{Method: r.Method, Path: r.Path})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}
