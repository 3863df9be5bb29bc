//go:build linux || darwin || freebsd || netbsd || openbsd

package bitty

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/indigo-web/bitty/config"
	"github.com/indigo-web/bitty/http"
	"github.com/indigo-web/bitty/internal/server"
)

// ErrNotStarted is returned by the methods which need the App to be started first.
var ErrNotStarted = errors.New("bitty: app isn't started")

// App is a single-threaded web-server. It doesn't do anything on its own: the host either
// calls Tick periodically after Start, or hands the control over to Serve.
type App struct {
	cfg      *config.Config
	resolver http.Resolver
	logger   *log.Logger
	hooks    hooks
	pool     *server.Pool
}

// New returns a new App instance, serving routes of the resolver.
func New(resolver http.Resolver) *App {
	return &App{
		cfg:      config.Default(),
		resolver: resolver,
		logger:   log.Default(),
	}
}

// Tune replaces default config. It has effect only if called before Start.
func (a *App) Tune(cfg *config.Config) *App {
	a.cfg = cfg
	return a
}

// Logger replaces the default logger. It has effect only if called before Start.
func (a *App) Logger(logger *log.Logger) *App {
	a.logger = logger
	return a
}

// NotifyOnStart calls the callback in Serve, once the app is listening.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls the callback in Serve, once all the connections are closed.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Start allocates all the connection slots and starts listening on the port. Zero port
// picks any free one, which can be then obtained via Port.
func (a *App) Start(port int) error {
	if a.pool != nil {
		a.pool.Shutdown()
	}

	a.pool = server.NewPool(a.cfg, a.resolver).WithLogger(a.logger)
	if err := a.pool.Listen(port); err != nil {
		a.pool = nil
		return err
	}

	return nil
}

// Port returns the port the app listens on.
func (a *App) Port() (int, error) {
	if a.pool == nil {
		return 0, ErrNotStarted
	}

	return a.pool.Port()
}

// Tick makes a single scheduling pass over all the connections. It never blocks for
// longer than writing the replies takes.
func (a *App) Tick() {
	if a.pool != nil {
		a.pool.Tick()
	}
}

// Connected returns the number of currently open connections.
func (a *App) Connected() int {
	if a.pool == nil {
		return 0
	}

	return a.pool.Connected()
}

// Handles appends the OS handles of the listener and all the open connections to dst,
// so the host may wait on them before calling Tick.
func (a *App) Handles(dst []int) []int {
	if a.pool == nil {
		return dst
	}

	return a.pool.Handles(dst)
}

// Shutdown closes the listener and all the connections immediately. The app may be
// started again afterwards.
func (a *App) Shutdown() {
	if a.pool != nil {
		a.pool.Shutdown()
		a.pool = nil
	}
}

// Serve starts the app and ticks it every config.Host.TickInterval until the context is
// done. After that, the app keeps ticking until either no connections are left, or
// config.Host.DrainPeriod passes.
func (a *App) Serve(ctx context.Context, port int) error {
	if err := a.Start(port); err != nil {
		return err
	}

	callIfNotNil(a.hooks.OnStart)
	defer callIfNotNil(a.hooks.OnStop)
	defer a.Shutdown()

	ticker := time.NewTicker(a.cfg.Host.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.drain(ticker)
			return nil
		case <-ticker.C:
			a.Tick()
		}
	}
}

func (a *App) drain(ticker *time.Ticker) {
	deadline := time.After(a.cfg.Host.DrainPeriod)

	for a.Connected() > 0 {
		select {
		case <-deadline:
			return
		case <-ticker.C:
			a.Tick()
		}
	}
}

type hooks struct {
	OnStart, OnStop func()
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}
