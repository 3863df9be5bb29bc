package status

type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	ErrBadRequest              = NewError(BadRequest, "bad request")
	ErrNoProtocol              = NewError(BadRequest, "request line carries no protocol")
	ErrBadETag                 = NewError(BadRequest, "malformed entity tag")
	ErrBadContentLength        = NewError(BadRequest, "malformed Content-Length value")
	ErrNotFound                = NewError(NotFound, "not found")
	ErrURITooLong              = NewError(RequestURITooLong, "request URI too long")
	ErrHeaderFieldsTooLarge    = NewError(RequestHeaderFieldsTooLarge, "too large header line")
	ErrMethodNotImplemented    = NewError(NotImplemented, "request method is not supported")
	ErrHTTPVersionNotSupported = NewError(HTTPVersionNotSupported, "HTTP version not supported")
	ErrInsufficientStorage     = NewError(InsufficientStorage, "arguments storage exhausted")
	ErrInternalServerError     = NewError(InternalServerError, "internal server error")
)

// CodeOf extracts the status code out of an HTTPError. Any other error is an
// internal server error.
func CodeOf(err error) Code {
	if httpErr, ok := err.(HTTPError); ok {
		return httpErr.Code
	}

	return InternalServerError
}
