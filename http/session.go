package http

import (
	"bytes"
	"strconv"
	"time"

	"github.com/indigo-web/bitty/config"
	"github.com/indigo-web/bitty/http/method"
	"github.com/indigo-web/bitty/http/status"
	"github.com/indigo-web/bitty/http/urlencoded"
	"github.com/indigo-web/bitty/internal/args"
	"github.com/indigo-web/bitty/internal/buffer"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

type Phase uint8

const (
	Closed Phase = iota
	Request
	Headers
	Body
	Response
)

func (p Phase) String() string {
	switch p {
	case Closed:
		return "closed"
	case Request:
		return "request"
	case Headers:
		return "headers"
	case Body:
		return "body"
	case Response:
		return "response"
	}

	return "unknown"
}

// postState is the position inside an urlencoded form body.
type postState uint8

const (
	gettingKey postState = iota
	gettingValue
	postError
)

const protocol = "HTTP/1.1"

// minWriteBufferSize keeps the write buffer able to hold at least a status line.
const minWriteBufferSize = 64

// Session is the HTTP state of a single connection. It consumes the incoming bytes in
// whatever pieces they arrive, and replies through the Stream as soon as a request is
// complete. All the memory it uses is allocated once, in NewSession.
type Session struct {
	cfg      *config.Config
	resolver Resolver
	conn     Stream
	phase    Phase
	line     buffer.Buffer
	method   method.Method
	// code is the reply status. Zero means it's unset, so the page decides.
	code         status.Code
	userSetCode  bool
	writeStarted bool
	chunked      bool
	replyStarted bool
	headersDone  bool
	page         Page
	found        bool
	lastRead     time.Time
	bodySize     int64
	post         postState
	args         args.Storage
	out          []byte
}

func NewSession(cfg *config.Config, resolver Resolver, conn Stream) *Session {
	return &Session{
		cfg:      cfg,
		resolver: resolver,
		conn:     conn,
		line:     buffer.New(cfg.Session.LineBufferSize),
		args:     args.New(cfg.Session.ArgsStorageSize),
		out:      make([]byte, 0, max(cfg.Session.WriteBufferSize, minWriteBufferSize)),
	}
}

// Reset brings the session to the beginning of a new request. now is treated as the
// moment of the last read.
func (s *Session) Reset(now time.Time) {
	s.phase = Request
	s.line.Clear()
	s.method = method.Unknown
	s.code = 0
	s.userSetCode = false
	s.writeStarted = false
	s.chunked = false
	s.replyStarted = false
	s.headersDone = false
	s.page = Page{}
	s.found = false
	s.lastRead = now
	s.bodySize = 0
	s.post = gettingKey
	s.args.Reset()
	s.out = s.out[:0]
}

// Close closes the connection, dropping whatever was parsed so far.
func (s *Session) Close() {
	s.conn.Close()
	s.phase = Closed
}

// Touch marks the moment of the last read.
func (s *Session) Touch(now time.Time) {
	s.lastRead = now
}

// LastRead returns the moment of the last read.
func (s *Session) LastRead() time.Time {
	return s.lastRead
}

func (s *Session) Phase() Phase {
	return s.phase
}

// Method returns the method of the current request.
func (s *Session) Method() method.Method {
	return s.method
}

// Status returns the reply status set so far. Zero means it wasn't set yet.
func (s *Session) Status() status.Code {
	return s.code
}

// Feed consumes the data. It keeps going until either all the data is consumed, or the
// connection is closed. Complete requests are replied to immediately, and the rest of
// the data is considered the beginning of the next one.
func (s *Session) Feed(data []byte) {
	for {
		switch s.phase {
		case Closed:
			s.conn.Close()
			return
		case Request:
			line, rest, complete, err := s.nextLine(data)
			if err != nil {
				s.abort(status.ErrURITooLong)
				return
			}

			if !complete {
				return
			}

			data = rest
			if len(line) == 0 {
				// empty lines preceding the request line are ignored
				continue
			}

			s.processRequestLine(line)
			s.line.Clear()
			s.phase = Headers
		case Headers:
			line, rest, complete, err := s.nextLine(data)
			if err != nil {
				s.abort(status.ErrHeaderFieldsTooLarge)
				return
			}

			if !complete {
				return
			}

			data = rest
			if len(line) == 0 {
				s.phase = Body
			} else {
				s.processHeader(line)
			}

			s.line.Clear()
		case Body:
			data = s.consumeBody(data)
			if s.bodySize > 0 {
				return
			}

			s.phase = Response
		case Response:
			s.respond()
			if !s.conn.IsConnected() {
				s.phase = Closed
				return
			}

			s.Reset(s.lastRead)
			if len(data) == 0 {
				return
			}
		}
	}
}

// nextLine accumulates the data into the line buffer until a LF, dropping CRs. If data
// ends before the line does, complete is false and the whole data is consumed. An
// overflowing line is an error, turned by the caller into the status of its phase.
func (s *Session) nextLine(data []byte) (line, rest []byte, complete bool, err error) {
	for i, c := range data {
		switch c {
		case '\r':
			continue
		case '\n':
			return s.line.Preview(), data[i+1:], true, nil
		}

		if !s.line.AppendByte(c) {
			return nil, nil, false, status.ErrBadRequest
		}
	}

	return nil, nil, false, nil
}

// abort replies with the error status and closes the connection, as the rest of the
// stream can't be framed anymore.
func (s *Session) abort(err error) {
	s.code = status.CodeOf(err)
	s.startReply()
	s.finishReply()
	s.Close()
}

func (s *Session) fail(err error) {
	s.code = status.CodeOf(err)
}

func (s *Session) processRequestLine(line []byte) {
	m, uri := method.Prefix(line)
	if m == method.Unknown {
		s.fail(status.ErrMethodNotImplemented)
		return
	}

	s.method = m
	path, query, err := splitURI(uri)
	if err != nil {
		s.fail(err)
		return
	}

	page, found := s.resolver.Resolve(uf.B2S(path))
	if !found {
		s.fail(status.ErrNotFound)
		return
	}

	s.page, s.found = page, true
	if err = s.args.Seed(page.names(), query); err != nil {
		s.fail(err)
	}
}

// splitURI separates the path and the query of a request line, stripped of its method.
// The protocol is looked up backwards, so the path may contain spaces.
func splitURI(uri []byte) (path, query []byte, err error) {
	h := bytes.LastIndexByte(uri, 'H')
	if h <= 0 {
		return nil, nil, status.ErrNoProtocol
	}

	if string(uri[h:]) != protocol {
		return nil, nil, status.ErrHTTPVersionNotSupported
	}

	target := bytes.TrimRight(uri[:h], " ")
	if q := bytes.IndexByte(target, '?'); q != -1 {
		return target[:q], target[q+1:], nil
	}

	return target, target[len(target):], nil
}

func (s *Session) processHeader(line []byte) {
	colon := bytes.IndexByte(line, ':')
	if colon == -1 {
		return
	}

	key := uf.B2S(line[:colon])
	value := bytes.Trim(line[colon+1:], " \t")

	switch {
	case strcomp.EqualFold(key, "if-none-match"):
		if err := s.ifNoneMatch(value); err != nil {
			s.fail(err)
		}
	case strcomp.EqualFold(key, "cookie"):
		if !s.found {
			return
		}

		if err := s.args.MergeCookies(value); err != nil {
			s.fail(err)
		}
	case strcomp.EqualFold(key, "content-length"):
		length, err := strconv.ParseUint(uf.B2S(value), 10, 32)
		if err != nil {
			s.fail(status.ErrBadContentLength)
			return
		}

		s.bodySize = int64(length)
	}
}

// ifNoneMatch checks the comma-separated entity tags against the document version.
func (s *Session) ifNoneMatch(value []byte) error {
	for {
		value = bytes.TrimLeft(value, " \t,")
		if len(value) == 0 {
			return nil
		}

		if value[0] == '*' {
			s.notModified()
			return nil
		}

		value = bytes.TrimPrefix(value, []byte("W/"))
		if len(value) == 0 || value[0] != '"' {
			return status.ErrBadETag
		}

		end := bytes.IndexByte(value[1:], '"')
		if end == -1 {
			return status.ErrBadETag
		}

		if string(value[1:1+end]) == s.cfg.Reply.DocVersion {
			s.notModified()
		}

		value = value[1+end+1:]
	}
}

func (s *Session) notModified() {
	if s.found && !s.page.Dynamic && s.code == 0 {
		s.code = status.NotModified
	}
}

// consumeBody eats up to the remaining number of body bytes, returning the rest.
func (s *Session) consumeBody(data []byte) []byte {
	if s.bodySize == 0 {
		return data
	}

	if s.method != method.POST {
		n := int64(len(data))
		if n > s.bodySize {
			n = s.bodySize
		}

		s.bodySize -= n
		return data[n:]
	}

	for len(data) > 0 && s.bodySize > 0 {
		s.postByte(data[0])
		data = data[1:]
		s.bodySize--
	}

	if s.bodySize == 0 {
		if s.post == gettingValue {
			s.flushValue(true)
		}

		s.post = gettingKey
		s.line.Clear()
	}

	return data
}

func (s *Session) postByte(c byte) {
	switch s.post {
	case gettingKey:
		switch c {
		case '=':
			err := s.args.BeginPost(s.line.Preview())
			s.line.Clear()
			if err != nil {
				s.fail(err)
				s.post = postError
				return
			}

			s.post = gettingValue
		case '&':
			// a key without a value
			s.line.Clear()
		default:
			if !s.line.AppendByte(c) {
				s.fail(status.ErrInsufficientStorage)
				s.line.Clear()
				s.post = postError
			}
		}
	case gettingValue:
		if c == '&' {
			s.flushValue(true)
			s.post = gettingKey
			return
		}

		s.line.AppendByte(c)
		if s.line.Len() == s.line.Cap() {
			s.flushValue(false)
		}
	case postError:
		if c == '&' {
			s.post = gettingKey
		}
	}
}

// flushValue moves the accumulated part of a POST value into the storage. Unless it's
// the final part, a trailing incomplete escape sequence is kept back in the line buffer,
// as it continues in the next part.
func (s *Session) flushValue(final bool) {
	value := s.line.Preview()
	held := 0
	if !final && s.line.Cap() > 2 {
		held = urlencoded.PartialEscape(value)
	}

	decoded := urlencoded.DecodeFormInPlace(value[:len(value)-held])
	if err := s.args.AppendPost(decoded); err != nil {
		s.fail(err)
		s.post = postError
		s.line.Clear()
		return
	}

	s.line.Keep(held)
	if final {
		s.args.EndPost()
	}
}

// respond renders the reply of a complete request.
func (s *Session) respond() {
	if s.code == 0 && s.found {
		s.code = status.OK
		s.resolver.WriteBody(s, s.page.ID)
	} else if !s.replyStarted {
		s.startReply()
	}

	s.finishReply()
}
