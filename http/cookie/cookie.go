package cookie

import (
	"errors"
	"strings"
	"time"
)

type Cookie struct {
	Name    string
	Value   string
	Path    string
	Domain  string
	Expires time.Time
	// MaxAge defines a delta in seconds, when the cookie should be dropped.
	// Note, that zero is treated as a zero-value, so will be ignored. In order
	// to be added with a value of zero, it must be negative. -1 is the conventional
	// value for this purpose
	MaxAge   int
	SameSite SameSite
	Secure   bool
	HttpOnly bool
}

func New(name, value string) Cookie {
	return Cookie{Name: name, Value: value}
}

var (
	ErrNoName       = errors.New("cookie name is empty")
	ErrBadName      = errors.New("cookie name contains a forbidden character")
	ErrBadValue     = errors.New("cookie value contains a forbidden character")
	ErrBadAttribute = errors.New("cookie attribute contains a line break or a semicolon")
)

// forbidden are the characters which would break the Set-Cookie framing.
const forbidden = " ,;\r\n"

// Validate reports whether the cookie may be rendered into a Set-Cookie header as is.
// Values carrying forbidden characters are expected to be percent-encoded first.
func (c Cookie) Validate() error {
	switch {
	case len(c.Name) == 0:
		return ErrNoName
	case strings.ContainsAny(c.Name, forbidden):
		return ErrBadName
	case strings.ContainsAny(c.Value, forbidden):
		return ErrBadValue
	case strings.ContainsAny(c.Path, ";\r\n"),
		strings.ContainsAny(c.Domain, ";\r\n"),
		strings.ContainsAny(c.SameSite, ";\r\n"):
		return ErrBadAttribute
	}

	return nil
}

type Builder struct {
	cookie Cookie
}

// Build is a chainable constructor for cookies. A preferred way of instantiation
func Build(name, value string) Builder {
	return Builder{New(name, value)}
}

func (b Builder) Path(path string) Builder {
	b.cookie.Path = path
	return b
}

func (b Builder) Domain(domain string) Builder {
	b.cookie.Domain = domain
	return b
}

func (b Builder) Expires(expires time.Time) Builder {
	b.cookie.Expires = expires
	return b
}

func (b Builder) MaxAge(maxAge int) Builder {
	b.cookie.MaxAge = maxAge
	return b
}

func (b Builder) SameSite(sameSite SameSite) Builder {
	b.cookie.SameSite = sameSite
	return b
}

func (b Builder) Secure(secure bool) Builder {
	b.cookie.Secure = secure
	return b
}

func (b Builder) HttpOnly(httpOnly bool) Builder {
	b.cookie.HttpOnly = httpOnly
	return b
}

// Cookie returns the built cookie instance
func (b Builder) Cookie() Cookie {
	return b.cookie
}

type SameSite = string

const (
	SameSiteLax    SameSite = "Lax"
	SameSiteStrict SameSite = "Strict"
	SameSiteNone   SameSite = "None"
)
