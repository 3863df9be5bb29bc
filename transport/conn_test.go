//go:build linux || darwin || freebsd || netbsd || openbsd

package transport

import (
	"errors"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/indigo-web/bitty/config"
	"github.com/indigo-web/bitty/internal/timer"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const waitFor = 5 * time.Second

// eventually calls fn until it returns true, failing the test after waitFor.
func eventually(t *testing.T, fn func() bool) {
	deadline := time.Now().Add(waitFor)
	for !fn() {
		if time.Now().After(deadline) {
			require.FailNow(t, "condition wasn't met in time")
		}

		time.Sleep(time.Millisecond)
	}
}

func newListener(t *testing.T) (*Conn, int) {
	listener := New(config.Default().NET)
	require.NoError(t, listener.Listen("127.0.0.1", 0))
	t.Cleanup(listener.Close)

	port, err := listener.Port()
	require.NoError(t, err)
	require.NotZero(t, port)

	return &listener, port
}

func TestListen(t *testing.T) {
	t.Run("accept", func(t *testing.T) {
		listener, port := newListener(t)
		require.Equal(t, Listening, listener.State())
		_, ok := listener.Handle()
		require.True(t, ok)

		conn := New(config.Default().NET)
		defer conn.Close()
		require.False(t, listener.Accept(&conn), "nothing is pending yet")

		client, err := net.Dial("tcp", "127.0.0.1:"+strconv.Itoa(port))
		require.NoError(t, err)
		defer client.Close()

		eventually(t, func() bool {
			return listener.Accept(&conn)
		})
		require.True(t, conn.IsConnected())
		require.Equal(t, AllOk, conn.ErrorCode())

		buff := make([]byte, 64)
		n, err := conn.Read(buff)
		require.NoError(t, err)
		require.Zero(t, n, "nothing was sent yet")

		_, err = client.Write([]byte("hello"))
		require.NoError(t, err)

		var received []byte
		eventually(t, func() bool {
			n, err := conn.Read(buff)
			require.NoError(t, err)
			received = append(received, buff[:n]...)
			return len(received) == len("hello")
		})
		require.Equal(t, "hello", string(received))

		require.NoError(t, conn.Write([]byte("world")))
		require.NoError(t, client.SetReadDeadline(time.Now().Add(waitFor)))
		reply := make([]byte, 5)
		_, err = io.ReadFull(client, reply)
		require.NoError(t, err)
		require.Equal(t, "world", string(reply))

		require.NoError(t, client.Close())
		eventually(t, func() bool {
			_, err := conn.Read(buff)
			if err != nil {
				require.ErrorIs(t, err, io.EOF)
				return true
			}

			return false
		})
		require.Equal(t, Idle, conn.State())
		_, ok = conn.Handle()
		require.False(t, ok)
	})

	t.Run("bad address", func(t *testing.T) {
		conn := New(config.Default().NET)
		err := conn.Listen("definitely not an address", 0)
		require.Error(t, err)
		require.True(t, conn.HasError())
		require.Equal(t, Failed, conn.State())
		require.Equal(t, "failed", conn.State().String())
		require.Equal(t, BindFailed, conn.ErrorCode())
		_, ok := conn.Handle()
		require.False(t, ok)

		conn.Close()
		require.Equal(t, Idle, conn.State())
	})

	t.Run("failure is forgotten", func(t *testing.T) {
		conn := New(config.Default().NET)
		defer conn.Close()
		require.Error(t, conn.Listen("definitely not an address", 0))
		require.Error(t, conn.Err())

		require.NoError(t, conn.Listen("127.0.0.1", 0))
		require.Equal(t, Listening, conn.State())
		require.NoError(t, conn.Err())
		require.Equal(t, AllOk, conn.ErrorCode())
		require.NoError(t, conn.LastErrno())
	})

	t.Run("address in use", func(t *testing.T) {
		_, port := newListener(t)
		conn := New(config.Default().NET)
		err := conn.Listen("127.0.0.1", port)
		require.Error(t, err)
		require.True(t, errors.Is(err, unix.EADDRINUSE))
		require.Equal(t, BindFailed, conn.ErrorCode())
	})
}

func TestConnect(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer server.Close()

		conn := New(config.Default().NET)
		defer conn.Close()
		require.NoError(t, conn.Connect("127.0.0.1", server.Addr().(*net.TCPAddr).Port))

		eventually(t, func() bool {
			require.NoError(t, conn.Tick())
			return conn.IsConnected()
		})

		peer, err := server.Accept()
		require.NoError(t, err)
		defer peer.Close()

		require.NoError(t, conn.Write([]byte("ping")))
		require.NoError(t, peer.SetReadDeadline(time.Now().Add(waitFor)))
		buff := make([]byte, 4)
		_, err = io.ReadFull(peer, buff)
		require.NoError(t, err)
		require.Equal(t, "ping", string(buff))
	})

	t.Run("refused", func(t *testing.T) {
		server, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := server.Addr().(*net.TCPAddr).Port
		require.NoError(t, server.Close())

		conn := New(config.Default().NET)
		defer conn.Close()
		if err = conn.Connect("127.0.0.1", port); err == nil {
			eventually(t, func() bool {
				err = conn.Tick()
				return conn.State() != Connecting
			})
		}

		require.Error(t, err)
		require.True(t, conn.HasError())
		require.Equal(t, ConnectFailed, conn.ErrorCode())
		require.ErrorIs(t, conn.Err(), unix.ECONNREFUSED)
	})

	t.Run("timeout", func(t *testing.T) {
		// a listening socket never becomes writable, hence never completes connecting
		listener, _ := newListener(t)
		fd, _ := listener.Handle()
		dup, err := unix.Dup(fd)
		require.NoError(t, err)

		clock := timer.NewManual(time.Now())
		conn := New(config.Default().NET)
		conn.WithClock(clock.Now)
		conn.fd, conn.state, conn.started = dup, Connecting, clock.Now()

		require.NoError(t, conn.Tick())
		require.Equal(t, Connecting, conn.State())

		clock.Advance(config.Default().NET.ConnectTimeout)
		err = conn.Tick()
		require.Error(t, err)
		require.True(t, IsTimeout(err))
		require.Equal(t, ConnectTimedOut, conn.ErrorCode())
		_, ok := conn.Handle()
		require.False(t, ok)
	})

	t.Run("unresolvable", func(t *testing.T) {
		conn := New(config.Default().NET)
		require.Error(t, conn.Connect("host.invalid", 80))
		require.Equal(t, ResolveFailed, conn.ErrorCode())
	})

	t.Run("reconnect after failure", func(t *testing.T) {
		server, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer server.Close()

		conn := New(config.Default().NET)
		defer conn.Close()
		require.Error(t, conn.Connect("host.invalid", 80))
		require.NoError(t, conn.Connect("127.0.0.1", server.Addr().(*net.TCPAddr).Port))
		require.NotEqual(t, Failed, conn.State())
		require.Equal(t, AllOk, conn.ErrorCode())
		require.NoError(t, conn.Err())
		require.NoError(t, conn.LastErrno())
	})
}

func TestNotConnected(t *testing.T) {
	conn := New(config.Default().NET)
	n, err := conn.Read(make([]byte, 8))
	require.NoError(t, err)
	require.Zero(t, n)
	require.ErrorIs(t, conn.Write([]byte("data")), ErrNotConnected)
	require.NoError(t, conn.Tick())
	require.NoError(t, conn.Err())
}
