package http

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/indigo-web/bitty/http/cookie"
	"github.com/indigo-web/bitty/http/status"
	"github.com/indigo-web/utils/uf"
)

// MaxChunkSize is the longest chunk of a chunked body. Longer writes are split.
const MaxChunkSize = math.MaxUint32

// maxChunkSize is lowered by tests only.
var maxChunkSize uint64 = MaxChunkSize

const chunkZeroTrailer = "0\r\n\r\n"

var zoneGMT = time.FixedZone("GMT", 0)

// SetStatus sets the reply status explicitly. It must precede any other reply writes and
// is refused for codes unknown to status.Known.
func (s *Session) SetStatus(code status.Code) bool {
	if !status.Known(code) || s.writeStarted || s.replyStarted {
		return false
	}

	s.userSetCode = true
	s.code = code
	s.startReply()

	return true
}

// Header writes an arbitrary header line, e.g. "Content-Type: text/html". The line must
// not contain line breaks.
func (s *Session) Header(line string) bool {
	if len(line) == 0 || strings.ContainsAny(line, "\r\n") || !s.headersOpen() {
		return false
	}

	s.append(line)
	s.crlf()

	return true
}

// Location redirects to the url. Unless another status was set explicitly, the reply
// becomes 301 Moved Permanently.
func (s *Session) Location(url string) bool {
	if len(url) == 0 || strings.ContainsAny(url, "\r\n") {
		return false
	}

	if !s.userSetCode && !s.SetStatus(status.MovedPermanently) {
		return false
	}

	if !s.headersOpen() {
		return false
	}

	s.append("Location: ")
	s.append(url)
	s.crlf()

	return true
}

// SetCookie writes a Set-Cookie header. Cookies failing cookie.Cookie.Validate are refused.
func (s *Session) SetCookie(c cookie.Cookie) bool {
	if c.Validate() != nil || !s.headersOpen() {
		return false
	}

	var scratch [64]byte

	s.append("Set-Cookie: ")
	s.append(c.Name)
	s.append("=")
	s.append(c.Value)

	if !c.Expires.IsZero() {
		s.append("; Expires=")
		s.write(c.Expires.In(zoneGMT).AppendFormat(scratch[:0], time.RFC1123))
	}

	if len(c.Path) > 0 {
		s.append("; Path=")
		s.append(c.Path)
	}

	if len(c.Domain) > 0 {
		s.append("; Domain=")
		s.append(c.Domain)
	}

	if c.MaxAge != 0 {
		maxAge := 0
		if c.MaxAge > 0 {
			maxAge = c.MaxAge
		}

		s.append("; Max-Age=")
		s.write(strconv.AppendInt(scratch[:0], int64(maxAge), 10))
	}

	if len(c.SameSite) > 0 {
		s.append("; SameSite=")
		s.append(c.SameSite)
	}

	if c.Secure {
		s.append("; Secure")
	}

	if c.HttpOnly {
		s.append("; HttpOnly")
	}

	s.crlf()

	return true
}

// WriteWhole writes the whole body at once, framed with Content-Length. Only a single
// body write is allowed per request.
func (s *Session) WriteWhole(body []byte) bool {
	if s.writeStarted || !s.headersOpen() {
		return false
	}

	var scratch [20]byte

	s.writeStarted = true
	s.append("Content-Length: ")
	s.write(strconv.AppendUint(scratch[:0], uint64(len(body)), 10))
	s.crlf()
	s.crlf()
	s.headersDone = true
	s.write(body)

	return true
}

func (s *Session) WriteWholeString(body string) bool {
	return s.WriteWhole(uf.S2B(body))
}

// WriteChunk writes a piece of the body, switching the reply to chunked transfer encoding
// on the first call. Empty chunks are ignored, as an empty chunk terminates the stream,
// which is done automatically once the page is rendered.
func (s *Session) WriteChunk(chunk []byte) bool {
	if len(chunk) == 0 {
		return true
	}

	if !s.writeStarted {
		if !s.headersOpen() {
			return false
		}

		s.writeStarted, s.chunked = true, true
		s.append("Transfer-Encoding: chunked\r\n\r\n")
		s.headersDone = true
	} else if !s.chunked {
		return false
	}

	var scratch [16]byte

	for len(chunk) > 0 {
		piece := chunk
		if uint64(len(piece)) > maxChunkSize {
			piece = piece[:maxChunkSize]
		}

		s.write(strconv.AppendUint(scratch[:0], uint64(len(piece)), 16))
		s.crlf()
		s.write(piece)
		s.crlf()
		chunk = chunk[len(piece):]
	}

	return true
}

func (s *Session) WriteChunkString(chunk string) bool {
	return s.WriteChunk(uf.S2B(chunk))
}

// headersOpen starts the reply if it isn't yet, and reports whether more headers may
// be written.
func (s *Session) headersOpen() bool {
	if s.writeStarted || s.headersDone {
		return false
	}

	if !s.replyStarted {
		s.startReply()
	}

	return !s.headersDone
}

// startReply writes the status line and the standard headers. Error statuses, unless
// set explicitly, are completed with their own text as the body right away.
func (s *Session) startReply() {
	if s.code == 0 {
		s.code = status.InternalServerError
	}

	s.replyStarted = true
	s.append(protocol)
	s.append(" ")
	s.append(status.Line(s.code))
	s.crlf()
	s.append("Server: ")
	s.append(s.cfg.Reply.ServerName)
	s.crlf()

	switch {
	case s.code == status.NotModified && !s.userSetCode:
		s.etag()
		s.crlf()
		s.headersDone = true
	case s.code != status.OK && !s.userSetCode:
		var scratch [20]byte

		text := status.Line(s.code)
		s.append("Content-Length: ")
		s.write(strconv.AppendUint(scratch[:0], uint64(len(text)), 10))
		s.crlf()
		s.crlf()
		s.append(text)
		s.headersDone = true
	default:
		s.etag()
	}
}

func (s *Session) etag() {
	if s.page.Dynamic {
		return
	}

	s.append(`ETag: "`)
	s.append(s.cfg.Reply.DocVersion)
	s.append(`"`)
	s.crlf()
}

// finishReply completes whatever the page left open and flushes the reply.
func (s *Session) finishReply() {
	if !s.replyStarted {
		s.startReply()
	}

	if !s.headersDone {
		if s.code != status.NotModified {
			s.append("Content-Length: 0\r\n")
		}

		s.crlf()
		s.headersDone = true
	}

	if s.chunked {
		s.append(chunkZeroTrailer)
	}

	s.flush()
}

func (s *Session) append(str string) {
	s.write(uf.S2B(str))
}

func (s *Session) crlf() {
	s.append("\r\n")
}

// write tries to append data into a limited capacity buffer, which can possibly overflow.
// If the data is longer than free space left in the buffer, the buffer is filled till full
// and flushed, leaving thereby free space for the rest of the data.
func (s *Session) write(data []byte) {
	for len(data) > 0 {
		freeSpace := cap(s.out) - len(s.out)

		if len(data) <= freeSpace {
			s.out = append(s.out, data...)
			return
		}

		s.out = append(s.out, data[:freeSpace]...)
		s.flush()
		data = data[freeSpace:]
	}
}

// flush hands the buffered reply to the connection. A failed write leaves the connection
// in its error state, which is noticed once the reply is done.
func (s *Session) flush() {
	if len(s.out) > 0 {
		_ = s.conn.Write(s.out)
		s.out = s.out[:0]
	}
}
