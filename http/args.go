package http

import (
	"github.com/indigo-web/bitty/internal/args"
	"github.com/indigo-web/utils/uf"
)

// Get returns the decoded value of a query argument. Only the names the page declared
// are ever found. The value is valid until the reply is done.
func (s *Session) Get(name string) (string, bool) {
	return s.lookup(args.Get, name)
}

// Cookie returns the decoded value of a request cookie. Only the names the page declared
// are ever found. The value is valid until the reply is done.
func (s *Session) Cookie(name string) (string, bool) {
	return s.lookup(args.Cookie, name)
}

// Post returns the decoded value of an urlencoded form field. Only the names the page
// declared are ever found. The value is valid until the reply is done.
func (s *Session) Post(name string) (string, bool) {
	return s.lookup(args.Post, name)
}

func (s *Session) lookup(section args.Section, name string) (string, bool) {
	value, found := s.args.Find(section, name)
	return uf.B2S(value), found
}
