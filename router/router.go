// Package router provides a route table implementing http.Resolver.
package router

import (
	"fmt"

	"github.com/indigo-web/bitty/http"
	"github.com/indigo-web/bitty/http/status"
)

// Handler renders the body of a page, using the reply primitives of the session.
type Handler interface {
	WriteBody(s *http.Session)
}

// HandlerFunc adapts a plain function into the Handler.
type HandlerFunc func(s *http.Session)

func (h HandlerFunc) WriteBody(s *http.Session) {
	h(s)
}

// Route describes a single page.
type Route struct {
	// Dynamic routes carry no ETag and are never answered with 304 Not Modified.
	Dynamic bool
	// Gets, Cookies and Posts are the argument names the route recognizes.
	Gets, Cookies, Posts []string
	Handler              Handler
}

// Table is a fixed set of routes looked up by the exact path. It must be fully populated
// before the server starts, as it isn't safe for concurrent modification.
type Table struct {
	paths  map[string]int
	routes []Route
}

func New() *Table {
	return &Table{
		paths: make(map[string]int),
	}
}

// Add registers the route. Duplicate paths and routes without a handler result in panic.
func (t *Table) Add(path string, route Route) *Table {
	if route.Handler == nil {
		panic(fmt.Errorf("route has no handler: %s", path))
	}

	if _, found := t.paths[path]; found {
		panic(fmt.Errorf("route already registered: %s", path))
	}

	t.paths[path] = len(t.routes)
	t.routes = append(t.routes, route)

	return t
}

// Handle is a shorthand for registering a static route without arguments.
func (t *Table) Handle(path string, handler HandlerFunc) *Table {
	return t.Add(path, Route{Handler: handler})
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	return len(t.routes)
}

func (t *Table) Resolve(path string) (http.Page, bool) {
	id, found := t.paths[path]
	if !found {
		return http.Page{}, false
	}

	route := t.routes[id]

	return http.Page{
		ID:      uintptr(id),
		Dynamic: route.Dynamic,
		Gets:    route.Gets,
		Cookies: route.Cookies,
		Posts:   route.Posts,
	}, true
}

func (t *Table) WriteBody(s *http.Session, id uintptr) {
	if id >= uintptr(len(t.routes)) {
		internalError(s)
		return
	}

	t.routes[id].Handler.WriteBody(s)
}

// internalError replies with 500 Internal Server Error, carrying the status text as the body.
func internalError(s *http.Session) {
	code := status.CodeOf(status.ErrInternalServerError)
	s.SetStatus(code)
	s.WriteWholeString(status.Line(code))
}
