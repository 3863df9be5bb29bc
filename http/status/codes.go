package status

import "strconv"

type (
	Code   uint16
	Status string
)

// HTTP status codes a reply may carry. Codes outside this set are refused by
// http.Session.SetStatus, so Text and Line never have to deal with them.
const (
	OK Code = 200 // RFC 9110, 15.3.1

	MovedPermanently  Code = 301 // RFC 9110, 15.4.2
	NotModified       Code = 304 // RFC 9110, 15.4.5
	TemporaryRedirect Code = 307 // RFC 9110, 15.4.8
	PermanentRedirect Code = 308 // RFC 9110, 15.4.9

	BadRequest                  Code = 400 // RFC 9110, 15.5.1
	Forbidden                   Code = 403 // RFC 9110, 15.5.4
	NotFound                    Code = 404 // RFC 9110, 15.5.5
	MethodNotAllowed            Code = 405 // RFC 9110, 15.5.6
	RequestURITooLong           Code = 414 // RFC 9110, 15.5.15
	RequestHeaderFieldsTooLarge Code = 431 // RFC 6585, 5

	InternalServerError     Code = 500 // RFC 9110, 15.6.1
	NotImplemented          Code = 501 // RFC 9110, 15.6.2
	HTTPVersionNotSupported Code = 505 // RFC 9110, 15.6.6
	InsufficientStorage     Code = 507 // RFC 4918, 11.5
)

// KnownCodes lists every code the engine is able to reply with.
var KnownCodes = []Code{
	OK,
	MovedPermanently, NotModified, TemporaryRedirect, PermanentRedirect,
	BadRequest, Forbidden, NotFound, MethodNotAllowed, RequestURITooLong, RequestHeaderFieldsTooLarge,
	InternalServerError, NotImplemented, HTTPVersionNotSupported, InsufficientStorage,
}

// Text returns a text for the HTTP status code. It returns the empty
// string if the code is unknown.
func Text(code Code) Status {
	switch code {
	case OK:
		return "OK"
	case MovedPermanently:
		return "Moved Permanently"
	case NotModified:
		return "Not Modified"
	case TemporaryRedirect:
		return "Temporary Redirect"
	case PermanentRedirect:
		return "Permanent Redirect"
	case BadRequest:
		return "Bad Request"
	case Forbidden:
		return "Forbidden"
	case NotFound:
		return "Not Found"
	case MethodNotAllowed:
		return "Method Not Allowed"
	case RequestURITooLong:
		return "URI Too Long"
	case RequestHeaderFieldsTooLarge:
		return "Request Header Fields Too Large"
	case InternalServerError:
		return "Internal Server Error"
	case NotImplemented:
		return "Not Implemented"
	case HTTPVersionNotSupported:
		return "HTTP Version Not Supported"
	case InsufficientStorage:
		return "Insufficient Storage"
	}

	return ""
}

// Known reports whether the code has a text, hence may be used in a reply.
func Known(code Code) bool {
	return len(Text(code)) > 0
}

var lines = func() map[Code]string {
	m := make(map[Code]string, len(KnownCodes))
	for _, code := range KnownCodes {
		m[code] = strconv.Itoa(int(code)) + " " + string(Text(code))
	}

	return m
}()

// Line returns the code followed by its text, e.g. "404 Not Found". It is the
// payload of both the status line and the synthesized error bodies. Unknown codes
// are rendered as 500.
func Line(code Code) string {
	if line, found := lines[code]; found {
		return line
	}

	return lines[InternalServerError]
}
