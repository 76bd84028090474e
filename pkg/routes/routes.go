// Package routes declares handler routes as data and registers them on a
// ServeMux using method-qualified patterns.
package routes

import "net/http"

// Route binds a method and pattern to a handler. A positive MaxBytes caps
// the request body; reads past it fail with *http.MaxBytesError.
type Route struct {
	Method   string
	Pattern  string
	Handler  http.HandlerFunc
	MaxBytes int64
}

// Group is a set of routes sharing a prefix. Children inherit the prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Patterns returns the full mux pattern of every route in g, children included.
func (g Group) Patterns() []string {
	var out []string
	g.walk("", func(pattern string, _ Route) {
		out = append(out, pattern)
	})
	return out
}

// Register adds every route in groups to mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		g.walk("", func(pattern string, r Route) {
			mux.HandleFunc(pattern, r.handler())
		})
	}
}

func (g Group) walk(parent string, fn func(string, Route)) {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		fn(r.Method+" "+prefix+r.Pattern, r)
	}
	for _, child := range g.Children {
		child.walk(prefix, fn)
	}
}

func (r Route) handler() http.HandlerFunc {
	if r.MaxBytes <= 0 {
		return r.Handler
	}
	return func(w http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(w, req.Body, r.MaxBytes)
		r.Handler(w, req)
	}
}
