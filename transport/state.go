package transport

type State uint8

const (
	Idle State = iota
	Connecting
	Connected
	Listening
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Listening:
		return "listening"
	case Failed:
		return "error"
	}

	return "unknown"
}

// ErrorCode tells which step of the connection lifecycle failed.
type ErrorCode uint8

const (
	AllOk ErrorCode = iota
	ResolveFailed
	SocketFailed
	ConnectFailed
	ConnectTimedOut
	GetsockoptFailed
	NonBlockingFailed
	PollFailed
	WriteFailed
	WriteTimedOut
	ReadFailed
	BindFailed
	ListenFailed
	AcceptFailed
	NotConnected
)

func (e ErrorCode) String() string {
	switch e {
	case AllOk:
		return "all ok"
	case ResolveFailed:
		return "host name resolution failed"
	case SocketFailed:
		return "failed to get a socket"
	case ConnectFailed:
		return "connect failed"
	case ConnectTimedOut:
		return "failed to connect in time"
	case GetsockoptFailed:
		return "failed to get socket error status"
	case NonBlockingFailed:
		return "failed to switch to non-blocking mode"
	case PollFailed:
		return "poll failed"
	case WriteFailed:
		return "write failed"
	case WriteTimedOut:
		return "write timed out"
	case ReadFailed:
		return "read failed"
	case BindFailed:
		return "bind failed"
	case ListenFailed:
		return "listen failed"
	case AcceptFailed:
		return "accept failed"
	case NotConnected:
		return "not connected"
	}

	return "unknown error"
}
