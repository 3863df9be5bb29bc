package config

import "time"

type (
	NET struct {
		// ReadBufferSize is the maximal number of bytes read from a single connection
		// during one scheduling pass. It bounds the CPU time a tick may spend.
		ReadBufferSize int
		// IdleTimeout controls the maximal lifetime of IDLE connections. If no data was
		// received in this period of time, the connection is force-closed.
		IdleTimeout time.Duration
		// ConnectTimeout limits the outgoing connection handshake. Exceeding it is reported
		// as a transport error, not retried.
		ConnectTimeout time.Duration
		// WriteTimeout limits how long a single write may keep retrying a socket which
		// reports it would block.
		WriteTimeout time.Duration
		// Backlog is passed to listen(2).
		Backlog int
		// BindAddress is an IPv4 address to listen on. Empty string means any address.
		BindAddress string `test:"nullable"`
	}

	Pool struct {
		// Connections is the number of session slots. Each one of them holds a connection,
		// a line buffer, an argument storage and a write buffer, all allocated once.
		Connections int
	}

	Session struct {
		// LineBufferSize limits a single request line, header line, POST key and the chunk
		// of POST value kept before it is flushed into the argument storage.
		LineBufferSize int
		// ArgsStorageSize is the capacity of the packed GET, Cookie and POST arguments
		// storage. Overflowing it results in 507 Insufficient Storage.
		ArgsStorageSize int
		// WriteBufferSize stages the response before it's written into the socket. The
		// buffer is flushed when full and at the end of every reply.
		WriteBufferSize int
	}

	Reply struct {
		// ServerName is the value of the Server header.
		ServerName string
		// DocVersion is the ETag of every non-dynamic route, compared verbatim against
		// If-None-Match.
		DocVersion string
	}

	Host struct {
		// TickInterval is the pause between scheduling passes in App.Serve.
		TickInterval time.Duration
		// DrainPeriod is for how long App.Serve keeps ticking after its context is done,
		// so in-flight replies can finish.
		DrainPeriod time.Duration
	}
)

// Config holds settings used across various parts of bitty, mainly restrictions and limitations.
// All the buffers are allocated once at start, their sizes taken from here.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	NET     NET
	Pool    Pool
	Session Session
	Reply   Reply
	Host    Host
}

// Default returns default config. The values are tuned for small embedded hosts, so are
// pretty restrictive.
func Default() *Config {
	return &Config{
		NET: NET{
			ReadBufferSize: 100,
			IdleTimeout:    10 * time.Second,
			ConnectTimeout: 10 * time.Second,
			WriteTimeout:   5 * time.Second,
			Backlog:        5,
		},
		Pool: Pool{
			Connections: 16,
		},
		Session: Session{
			LineBufferSize:  256,
			ArgsStorageSize: 100,
			WriteBufferSize: 1024,
		},
		Reply: Reply{
			ServerName: "BittyHTTP",
			DocVersion: "1.0.0.0",
		},
		Host: Host{
			TickInterval: time.Millisecond,
			DrainPeriod:  3 * time.Second,
		},
	}
}
