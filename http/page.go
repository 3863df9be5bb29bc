package http

import "github.com/indigo-web/bitty/internal/args"

// Page is what a Resolver knows about a route.
type Page struct {
	// ID is opaque to the session and is passed back into Resolver.WriteBody.
	ID uintptr
	// Dynamic pages carry no ETag and are never answered with 304 Not Modified.
	Dynamic bool
	// Gets, Cookies and Posts are the argument names the page recognizes. Arguments
	// under any other name are dropped while parsing.
	Gets, Cookies, Posts []string
}

func (p Page) names() args.Names {
	return args.Names{Get: p.Gets, Cookie: p.Cookies, Post: p.Posts}
}

// Resolver is the source of routes.
type Resolver interface {
	// Resolve looks the path up. The path is valid only during the call.
	Resolve(path string) (Page, bool)
	// WriteBody renders the page, using the reply primitives of the session. It's called
	// once per request, unless the request failed before.
	WriteBody(s *Session, id uintptr)
}

// Stream is the outbound half of a connection, as the session sees it.
type Stream interface {
	Write(b []byte) error
	Close()
	IsConnected() bool
}
