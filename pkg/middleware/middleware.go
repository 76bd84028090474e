// Package middleware provides the HTTP middleware shared by the API and MCP
// modules and an ordered stack to compose them.
package middleware

import (
	"net/http"
	"strings"
	"time"
)

// Func wraps a handler with additional behavior.
type Func = func(http.Handler) http.Handler

// Stack composes middleware in registration order: the first Func added
// sees the request first.
type Stack struct {
	fns []Func
}

// New creates an empty Stack.
func New() *Stack {
	return &Stack{}
}

// Use appends fn to the stack.
func (s *Stack) Use(fn Func) {
	s.fns = append(s.fns, fn)
}

// Len reports how many middleware are registered.
func (s *Stack) Len() int {
	return len(s.fns)
}

// Apply wraps handler with the stack.
func (s *Stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.fns) - 1; i >= 0; i-- {
		handler = s.fns[i](handler)
	}
	return handler
}

// Unless applies fn to every request except those skip matches.
func Unless(skip func(*http.Request) bool, fn Func) Func {
	return func(next http.Handler) http.Handler {
		wrapped := fn(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip(r) {
				next.ServeHTTP(w, r)
				return
			}
			wrapped.ServeHTTP(w, r)
		})
	}
}

// PathSuffix matches requests whose path ends with any of suffixes.
func PathSuffix(suffixes ...string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		for _, s := range suffixes {
			if strings.HasSuffix(r.URL.Path, s) {
				return true
			}
		}
		return false
	}
}

// Streaming clears the server write deadline for long-lived responses such
// as MCP event streams.
func Streaming() Func {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
			next.ServeHTTP(w, r)
		})
	}
}
