package router

import (
	"math"
	"testing"
	"time"

	"github.com/indigo-web/bitty/config"
	"github.com/indigo-web/bitty/http"
	"github.com/indigo-web/bitty/http/mime"
	"github.com/indigo-web/bitty/transport/dummy"
	"github.com/stretchr/testify/require"
)

// staleIDs hands out page IDs the table doesn't know.
type staleIDs struct {
	*Table
}

func (s staleIDs) Resolve(path string) (http.Page, bool) {
	page, found := s.Table.Resolve(path)
	page.ID += 10
	return page, found
}

func serve(t *testing.T, resolver http.Resolver, request string) string {
	stream := dummy.NewStream()
	session := http.NewSession(config.Default(), resolver, stream)
	session.Reset(time.Now())
	session.Feed([]byte(request))
	require.False(t, stream.Closed())

	return stream.Written()
}

func TestTable(t *testing.T) {
	t.Run("resolve", func(t *testing.T) {
		table := New().
			Handle("/", func(*http.Session) {}).
			Add("/form", Route{
				Dynamic: true,
				Gets:    []string{"q"},
				Posts:   []string{"name"},
				Handler: HandlerFunc(func(*http.Session) {}),
			})

		require.Equal(t, 2, table.Len())

		page, found := table.Resolve("/form")
		require.True(t, found)
		require.Equal(t, uintptr(1), page.ID)
		require.True(t, page.Dynamic)
		require.Equal(t, []string{"q"}, page.Gets)
		require.Empty(t, page.Cookies)
		require.Equal(t, []string{"name"}, page.Posts)

		page, found = table.Resolve("/")
		require.True(t, found)
		require.Zero(t, page.ID)
		require.False(t, page.Dynamic)

		_, found = table.Resolve("/nowhere")
		require.False(t, found)
		_, found = table.Resolve("/form/")
		require.False(t, found)
	})

	t.Run("duplicate path", func(t *testing.T) {
		table := New().Handle("/", func(*http.Session) {})
		require.Panics(t, func() {
			table.Handle("/", func(*http.Session) {})
		})
	})

	t.Run("no handler", func(t *testing.T) {
		require.Panics(t, func() {
			New().Add("/", Route{})
		})
	})

	t.Run("dispatch", func(t *testing.T) {
		table := New().
			Handle("/a", func(s *http.Session) {
				s.WriteWholeString("a")
			}).
			Add("/b", Route{
				Gets: []string{"name"},
				Handler: HandlerFunc(func(s *http.Session) {
					name, _ := s.Get("name")
					s.WriteWholeString("b " + name)
				}),
			})

		require.Equal(t,
			"HTTP/1.1 200 OK\r\nServer: BittyHTTP\r\nETag: \"1.0.0.0\"\r\nContent-Length: 6\r\n\r\nb John",
			serve(t, table, "GET /b?name=John HTTP/1.1\r\n\r\n"),
		)
		require.Equal(t,
			"HTTP/1.1 200 OK\r\nServer: BittyHTTP\r\nETag: \"1.0.0.0\"\r\nContent-Length: 1\r\n\r\na",
			serve(t, table, "GET /a HTTP/1.1\r\n\r\n"),
		)
	})

	t.Run("unknown id", func(t *testing.T) {
		table := New().Handle("/", func(*http.Session) {})
		require.Equal(t,
			"HTTP/1.1 500 Internal Server Error\r\nServer: BittyHTTP\r\nETag: \"1.0.0.0\"\r\n"+
				"Content-Length: 25\r\n\r\n500 Internal Server Error",
			serve(t, staleIDs{table}, "GET / HTTP/1.1\r\n\r\n"),
		)
	})
}

func TestStatic(t *testing.T) {
	table := New().Add("/index.html", Static([]byte("<h1>Hello</h1>"), mime.HTML))
	require.Equal(t,
		"HTTP/1.1 200 OK\r\nServer: BittyHTTP\r\nETag: \"1.0.0.0\"\r\n"+
			"Content-Type: text/html\r\nContent-Length: 14\r\n\r\n<h1>Hello</h1>",
		serve(t, table, "GET /index.html HTTP/1.1\r\n\r\n"),
	)
}

func TestJSON(t *testing.T) {
	t.Run("value", func(t *testing.T) {
		table := New().Add("/status", JSON(func() any {
			return map[string]any{"connections": 3}
		}))

		require.Equal(t,
			"HTTP/1.1 200 OK\r\nServer: BittyHTTP\r\n"+
				"Content-Type: application/json\r\nContent-Length: 17\r\n\r\n{\"connections\":3}",
			serve(t, table, "GET /status HTTP/1.1\r\nIf-None-Match: \"1.0.0.0\"\r\n\r\n"),
		)
	})

	t.Run("unserializable", func(t *testing.T) {
		table := New().Add("/status", JSON(func() any {
			return math.Inf(1)
		}))

		require.Equal(t,
			"HTTP/1.1 500 Internal Server Error\r\nServer: BittyHTTP\r\n"+
				"Content-Length: 25\r\n\r\n500 Internal Server Error",
			serve(t, table, "GET /status HTTP/1.1\r\n\r\n"),
		)
	})
}
