//go:build linux || darwin || freebsd || netbsd || openbsd

package transport

import (
	"io"
	"net"
	"time"

	"github.com/indigo-web/bitty/config"
	"github.com/indigo-web/bitty/internal/timer"
	"golang.org/x/sys/unix"
)

// pollWritableMillis is how long a blocked write waits for the socket to drain, before
// checking the write timeout again.
const pollWritableMillis = 10

// Conn is a single non-blocking socket, driven by repeated calls rather than by blocking
// ones. It's either a listener, or a connection produced by a listener or by Connect.
type Conn struct {
	state State
	fd    int
	// readReady marks that the previous read filled the whole buffer, so there's likely
	// more data pending and polling may be skipped.
	readReady bool
	errno     error
	code      ErrorCode
	// started is the moment the connection began connecting. Used only while Connecting.
	started time.Time
	cfg     config.NET
	now     timer.Clock
}

func New(cfg config.NET) Conn {
	var c Conn
	c.Init(cfg)
	return c
}

// Init brings the connection to the Idle state with no handle. It must not be called on
// a connection which owns one; Close it first.
func (c *Conn) Init(cfg config.NET) {
	*c = Conn{
		fd:  -1,
		cfg: cfg,
		now: timer.System,
	}
}

// WithClock replaces the clock used for connect and write timeouts.
func (c *Conn) WithClock(now func() time.Time) *Conn {
	c.now = now
	return c
}

// Connect resolves the host and starts connecting to it. Unless an error is returned, the
// connection is either Connected already or Connecting, in which case Tick must be called
// until the state changes.
func (c *Conn) Connect(host string, port int) error {
	c.Close()
	c.code, c.errno = AllOk, nil

	addr, err := net.ResolveIPAddr("ip4", host)
	if err != nil {
		return c.fail(ResolveFailed, err)
	}

	if err = c.socket(); err != nil {
		return err
	}

	sa := &unix.SockaddrInet4{Port: port}
	copy(sa.Addr[:], addr.IP.To4())

	switch err = unix.Connect(c.fd, sa); err {
	case nil:
		c.state = Connected
	case unix.EINPROGRESS:
		c.state = Connecting
		c.started = c.now()
	default:
		return c.fail(ConnectFailed, err)
	}

	return nil
}

// Listen binds the connection to the address and port and starts listening. Empty address
// means any address.
func (c *Conn) Listen(address string, port int) error {
	c.Close()
	c.code, c.errno = AllOk, nil

	if err := c.socket(); err != nil {
		return err
	}

	if err := unix.SetsockoptInt(c.fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return c.fail(SocketFailed, err)
	}

	sa := &unix.SockaddrInet4{Port: port}
	if len(address) > 0 {
		ip := net.ParseIP(address).To4()
		if ip == nil {
			return c.fail(BindFailed, &net.AddrError{Err: "not an IPv4 address", Addr: address})
		}

		copy(sa.Addr[:], ip)
	}

	if err := unix.Bind(c.fd, sa); err != nil {
		return c.fail(BindFailed, err)
	}

	if err := unix.Listen(c.fd, c.cfg.Backlog); err != nil {
		return c.fail(ListenFailed, err)
	}

	c.state = Listening
	return nil
}

// Accept takes a pending connection, if any, into the passed one. Whatever the passed
// connection held before is closed. A failure is recorded on the listener, which moves
// to the Failed state.
func (c *Conn) Accept(into *Conn) bool {
	if c.state != Listening {
		return false
	}

	fd, _, err := unix.Accept(c.fd)
	switch err {
	case nil:
	case unix.EAGAIN, unix.EINTR, unix.ECONNABORTED:
		return false
	default:
		c.fail(AcceptFailed, err)
		return false
	}

	into.Close()
	into.code, into.errno = AllOk, nil

	if err = unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		into.fail(NonBlockingFailed, err)
		return false
	}

	unix.CloseOnExec(fd)
	into.fd = fd
	into.state = Connected

	return true
}

// Tick advances the Connecting state. The returned error is non-nil only if connecting
// failed during this very call.
func (c *Conn) Tick() error {
	if c.state != Connecting {
		return nil
	}

	fds := [1]unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLOUT}}
	n, err := unix.Poll(fds[:], 0)
	switch {
	case err == unix.EINTR:
		return nil
	case err != nil:
		return c.fail(PollFailed, err)
	case n == 0:
		if timer.Expired(c.started, c.now(), c.cfg.ConnectTimeout) {
			return c.fail(ConnectTimedOut, nil)
		}

		return nil
	}

	soerr, err := unix.GetsockoptInt(c.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return c.fail(GetsockoptFailed, err)
	}

	if soerr != 0 {
		return c.fail(ConnectFailed, unix.Errno(soerr))
	}

	c.state = Connected
	return nil
}

// Read reads whatever is available right now. It returns 0 and no error if there's
// nothing to read or the connection isn't connected, and io.EOF if the peer closed the
// connection, which is closed then, too.
func (c *Conn) Read(buff []byte) (int, error) {
	switch c.state {
	case Connected:
	case Failed:
		return 0, c.Err()
	default:
		return 0, nil
	}

	if !c.readReady {
		fds := [1]unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds[:], 0)
		switch {
		case err == unix.EINTR, err == nil && n == 0:
			return 0, nil
		case err != nil:
			return 0, c.fail(PollFailed, err)
		}
	}

	c.readReady = false
	n, err := unix.Read(c.fd, buff)
	switch {
	case err == unix.EAGAIN, err == unix.EINTR:
		return 0, nil
	case err != nil:
		return 0, c.fail(ReadFailed, err)
	case n == 0 && len(buff) > 0:
		c.Close()
		return 0, io.EOF
	}

	c.readReady = n == len(buff)
	return n, nil
}

// Write writes the whole b. A socket reporting it would block is waited for, but not
// longer than the write timeout.
func (c *Conn) Write(b []byte) error {
	if c.state != Connected {
		return ErrNotConnected
	}

	var deadline time.Time

	for len(b) > 0 {
		n, err := unix.Write(c.fd, b)
		switch err {
		case nil:
			b = b[n:]
		case unix.EAGAIN, unix.EINTR:
			if deadline.IsZero() {
				deadline = c.now().Add(c.cfg.WriteTimeout)
			} else if !c.now().Before(deadline) {
				return c.fail(WriteTimedOut, err)
			}

			fds := [1]unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLOUT}}
			if _, err = unix.Poll(fds[:], pollWritableMillis); err != nil && err != unix.EINTR {
				return c.fail(PollFailed, err)
			}
		default:
			return c.fail(WriteFailed, err)
		}
	}

	return nil
}

// Close releases the handle, if any, and brings the connection back to Idle. Closing is
// always safe, including already closed connections.
func (c *Conn) Close() {
	c.release()
	c.state = Idle
}

func (c *Conn) HasError() bool {
	return c.state == Failed
}

func (c *Conn) IsConnected() bool {
	return c.state == Connected
}

func (c *Conn) State() State {
	return c.state
}

// Handle returns the OS handle of the socket, if it has any.
func (c *Conn) Handle() (fd int, ok bool) {
	return c.fd, c.fd >= 0
}

// ErrorCode returns the code of the last failure.
func (c *Conn) ErrorCode() ErrorCode {
	return c.code
}

// LastErrno returns the OS error of the last failure, or nil.
func (c *Conn) LastErrno() error {
	return c.errno
}

// Err returns the last failure as an *Error, or nil if there was none.
func (c *Conn) Err() error {
	if c.code == AllOk {
		return nil
	}

	return &Error{Code: c.code, Errno: c.errno}
}

// Port returns the local port the socket is bound to.
func (c *Conn) Port() (int, error) {
	sa, err := unix.Getsockname(c.fd)
	if err != nil {
		return 0, err
	}

	if inet4, ok := sa.(*unix.SockaddrInet4); ok {
		return inet4.Port, nil
	}

	return 0, unix.EAFNOSUPPORT
}

func (c *Conn) socket() error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return c.fail(SocketFailed, err)
	}

	c.fd = fd
	unix.CloseOnExec(fd)

	if err = unix.SetNonblock(fd, true); err != nil {
		return c.fail(NonBlockingFailed, err)
	}

	return nil
}

func (c *Conn) fail(code ErrorCode, errno error) error {
	c.release()
	c.state = Failed
	c.code, c.errno = code, errno

	return &Error{Code: code, Errno: errno}
}

func (c *Conn) release() {
	if c.fd >= 0 {
		_ = unix.Close(c.fd)
		c.fd = -1
	}

	c.readReady = false
}
