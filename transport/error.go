package transport

import "errors"

// Error is a transport-fatal failure. The connection it happened on is in the Failed
// state and its handle is released.
type Error struct {
	Code ErrorCode
	// Errno is the OS error, if any
	Errno error
}

func (e *Error) Error() string {
	if e.Errno == nil {
		return e.Code.String()
	}

	return e.Code.String() + ": " + e.Errno.Error()
}

func (e *Error) Unwrap() error {
	return e.Errno
}

// ErrNotConnected is returned on writes into a connection which isn't connected.
var ErrNotConnected = &Error{Code: NotConnected}

// IsTimeout reports whether the error is either of the designed timeouts.
func IsTimeout(err error) bool {
	var transportErr *Error
	if !errors.As(err, &transportErr) {
		return false
	}

	return transportErr.Code == ConnectTimedOut || transportErr.Code == WriteTimedOut
}
