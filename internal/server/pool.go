//go:build linux || darwin || freebsd || netbsd || openbsd

package server

import (
	"errors"
	"io"
	"log"

	"github.com/indigo-web/bitty/config"
	"github.com/indigo-web/bitty/http"
	"github.com/indigo-web/bitty/internal/timer"
	"github.com/indigo-web/bitty/transport"
)

type slot struct {
	conn    transport.Conn
	session *http.Session
}

// Pool is a fixed set of connection slots served from a single listener. Nothing happens
// on its own: every call to Tick makes a single scheduling pass over all the slots,
// accepting into the free ones and reading from the connected ones.
type Pool struct {
	cfg      *config.Config
	listener transport.Conn
	slots    []slot
	buff     []byte
	now      timer.Clock
	logger   *log.Logger
	// listenerFailed prevents logging the same listener failure on every tick.
	listenerFailed bool
}

func NewPool(cfg *config.Config, resolver http.Resolver) *Pool {
	p := &Pool{
		cfg:      cfg,
		listener: transport.New(cfg.NET),
		slots:    make([]slot, cfg.Pool.Connections),
		buff:     make([]byte, cfg.NET.ReadBufferSize),
		now:      timer.System,
		logger:   log.Default(),
	}

	for i := range p.slots {
		s := &p.slots[i]
		s.conn.Init(cfg.NET)
		s.session = http.NewSession(cfg, resolver, &s.conn)
	}

	return p
}

// WithClock replaces the clock used for idle timeouts.
func (p *Pool) WithClock(now timer.Clock) *Pool {
	p.now = now
	return p
}

func (p *Pool) WithLogger(logger *log.Logger) *Pool {
	p.logger = logger
	return p
}

// Listen starts listening on the port, at the address set by config.NET.BindAddress.
func (p *Pool) Listen(port int) error {
	p.listenerFailed = false
	return p.listener.Listen(p.cfg.NET.BindAddress, port)
}

// Port returns the port the listener is actually bound to.
func (p *Pool) Port() (int, error) {
	return p.listener.Port()
}

// Err returns the failure of the listener, if any.
func (p *Pool) Err() error {
	return p.listener.Err()
}

// Tick makes a single scheduling pass. Each connected slot is read from at most once,
// and no more than config.NET.ReadBufferSize bytes.
func (p *Pool) Tick() {
	_ = p.listener.Tick()
	now := p.now()

	for i := range p.slots {
		s := &p.slots[i]
		if err := s.conn.Tick(); err != nil {
			p.logger.Printf("connection #%d: %s", i, err)
		}

		if !s.conn.IsConnected() {
			if s.conn.HasError() {
				// e.g. a reply write failed during the previous pass
				p.logger.Printf("connection #%d: %s", i, s.conn.Err())
				s.conn.Close()
			}

			if p.accept(s) {
				s.session.Reset(now)
			}

			continue
		}

		n, err := s.conn.Read(p.buff)
		switch {
		case err != nil:
			if !errors.Is(err, io.EOF) {
				p.logger.Printf("connection #%d: %s", i, err)
			}

			s.session.Close()
		case n == 0:
			if timer.Expired(s.session.LastRead(), now, p.cfg.NET.IdleTimeout) {
				s.session.Close()
			}
		default:
			s.session.Touch(now)
			s.session.Feed(p.buff[:n])
		}
	}
}

func (p *Pool) accept(s *slot) bool {
	if p.listener.Accept(&s.conn) {
		return true
	}

	if p.listener.HasError() && !p.listenerFailed {
		p.listenerFailed = true
		p.logger.Printf("listener: %s", p.listener.Err())
	}

	if s.conn.HasError() {
		p.logger.Printf("accept: %s", s.conn.Err())
		s.conn.Close()
	}

	return false
}

// Connected returns the number of currently connected slots.
func (p *Pool) Connected() (n int) {
	for i := range p.slots {
		if p.slots[i].conn.IsConnected() {
			n++
		}
	}

	return n
}

// Handles appends the OS handles of the listener and of every connected slot to dst.
func (p *Pool) Handles(dst []int) []int {
	if fd, ok := p.listener.Handle(); ok {
		dst = append(dst, fd)
	}

	for i := range p.slots {
		if p.slots[i].conn.IsConnected() {
			if fd, ok := p.slots[i].conn.Handle(); ok {
				dst = append(dst, fd)
			}
		}
	}

	return dst
}

// Shutdown closes the listener and all the connections, regardless of their state.
func (p *Pool) Shutdown() {
	p.listener.Close()

	for i := range p.slots {
		p.slots[i].session.Close()
	}
}
