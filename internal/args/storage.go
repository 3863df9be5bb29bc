// Package args implements the packed storage of GET, Cookie and POST arguments.
//
// The storage is a single fixed-capacity buffer holding an entry for every name the route
// recognizes, sections going in the order Get, Cookie, Post. An entry is either the Absent
// marker alone, or the Present marker followed by the decoded value and a terminator.
// As entries are walked in the declared order, no lengths or offsets are stored.
package args

import (
	"bytes"

	"github.com/indigo-web/bitty/http/status"
	"github.com/indigo-web/bitty/http/urlencoded"
)

const (
	Absent     byte = 'N'
	Present    byte = 'Y'
	terminator byte = 0
)

var terminatorSeq = []byte{terminator}

type Section uint8

const (
	Get Section = iota
	Cookie
	Post
)

// Names are the argument names recognized by a route, in their declared order.
type Names struct {
	Get, Cookie, Post []string
}

func (n Names) of(section Section) []string {
	switch section {
	case Get:
		return n.Get
	case Cookie:
		return n.Cookie
	default:
		return n.Post
	}
}

type Storage struct {
	buff  []byte
	names Names
	// postPos is where the next bytes of the current POST value go. Negative value means
	// the value isn't recognized and must be discarded.
	postPos int
}

func New(size int) Storage {
	return Storage{
		buff:    make([]byte, 0, size),
		postPos: -1,
	}
}

// Reset invalidates the stored arguments. The memory isn't zeroed.
func (s *Storage) Reset() {
	s.buff = s.buff[:0]
	s.names = Names{}
	s.postPos = -1
}

// Bytes returns the packed representation.
func (s *Storage) Bytes() []byte {
	return s.buff
}

// Seed lays the storage out for the route names: GET entries are filled from the query,
// Cookie and POST entries are all absent until MergeCookies and AppendPost fill them.
func (s *Storage) Seed(names Names, query []byte) error {
	s.Reset()
	s.names = names

	for _, name := range names.Get {
		pos := len(s.buff)
		if !s.put(Absent) {
			return status.ErrInsufficientStorage
		}

		if value, found := lookup(query, '&', name); found {
			if err := s.splice(pos, value); err != nil {
				return err
			}
		}
	}

	for range len(names.Cookie) + len(names.Post) {
		if !s.put(Absent) {
			return status.ErrInsufficientStorage
		}
	}

	return nil
}

// MergeCookies fills absent Cookie entries from a Cookie header value. Entries already
// present, e.g. from a previous Cookie header, are kept.
func (s *Storage) MergeCookies(header []byte) error {
	pos := s.skip(0, len(s.names.Get))

	for _, name := range s.names.Cookie {
		if pos >= len(s.buff) {
			break
		}

		if s.buff[pos] == Absent {
			if value, found := lookup(header, ';', name); found {
				if err := s.splice(pos, value); err != nil {
					return err
				}
			}
		}

		pos = s.next(pos)
	}

	return nil
}

// BeginPost starts a new POST value. The key is decoded in place. If the key isn't
// recognized or was already seen, the following AppendPost calls are no-op.
func (s *Storage) BeginPost(key []byte) error {
	s.postPos = -1
	key = urlencoded.DecodeFormInPlace(key)
	pos := s.skip(0, len(s.names.Get)+len(s.names.Cookie))

	for _, name := range s.names.Post {
		if pos >= len(s.buff) {
			return nil
		}

		if name == string(key) {
			if s.buff[pos] != Absent {
				return nil
			}

			if !s.insert(pos+1, terminatorSeq) {
				return status.ErrInsufficientStorage
			}

			s.buff[pos] = Present
			s.postPos = pos + 1
			return nil
		}

		pos = s.next(pos)
	}

	return nil
}

// AppendPost appends already decoded bytes to the current POST value. On overflow the
// storage isn't modified.
func (s *Storage) AppendPost(value []byte) error {
	if s.postPos < 0 {
		return nil
	}

	value = stripNUL(value)
	if !s.insert(s.postPos, value) {
		s.postPos = -1
		return status.ErrInsufficientStorage
	}

	s.postPos += len(value)
	return nil
}

// EndPost finishes the current POST value.
func (s *Storage) EndPost() {
	s.postPos = -1
}

// Find returns the value of the name in the section. The value is valid until the
// storage is reset.
func (s *Storage) Find(section Section, name string) (value []byte, found bool) {
	pos := 0
	for sec := Get; sec < section; sec++ {
		pos = s.skip(pos, len(s.names.of(sec)))
	}

	for _, n := range s.names.of(section) {
		if pos >= len(s.buff) {
			return nil, false
		}

		if n == name {
			if s.buff[pos] != Present {
				return nil, false
			}

			end := bytes.IndexByte(s.buff[pos+1:], terminator)
			if end == -1 {
				return nil, false
			}

			return s.buff[pos+1 : pos+1+end], true
		}

		pos = s.next(pos)
	}

	return nil, false
}

// next returns the offset of the entry following the one at pos.
func (s *Storage) next(pos int) int {
	if s.buff[pos] != Present {
		return pos + 1
	}

	end := bytes.IndexByte(s.buff[pos+1:], terminator)
	if end == -1 {
		return len(s.buff)
	}

	return pos + 1 + end + 1
}

// skip walks n entries starting at pos, without looking at them.
func (s *Storage) skip(pos, n int) int {
	for ; n > 0 && pos < len(s.buff); n-- {
		pos = s.next(pos)
	}

	return pos
}

func (s *Storage) put(c byte) bool {
	if len(s.buff) == cap(s.buff) {
		return false
	}

	s.buff = append(s.buff, c)
	return true
}

// insert makes room at pos by shifting the trailing bytes and copies data there. It fails
// without touching anything if the capacity would be exceeded.
func (s *Storage) insert(pos int, data []byte) bool {
	if len(s.buff)+len(data) > cap(s.buff) {
		return false
	}

	oldLen := len(s.buff)
	s.buff = s.buff[:oldLen+len(data)]
	copy(s.buff[pos+len(data):], s.buff[pos:oldLen])
	copy(s.buff[pos:], data)

	return true
}

// remove drops n bytes at pos, shifting the trailing bytes back.
func (s *Storage) remove(pos, n int) {
	copy(s.buff[pos:], s.buff[pos+n:])
	s.buff = s.buff[:len(s.buff)-n]
}

// splice turns the absent entry at pos into a present one, carrying the decoded raw value.
func (s *Storage) splice(pos int, raw []byte) error {
	// Absent becomes Present, so only the value and its terminator take new space
	if len(s.buff)+len(raw)+1 > cap(s.buff) {
		return status.ErrInsufficientStorage
	}

	s.insert(pos+1, raw)
	s.insert(pos+1+len(raw), terminatorSeq)
	s.buff[pos] = Present
	value := s.buff[pos+1 : pos+1+len(raw)]
	decoded := stripNUL(urlencoded.DecodeInPlace(value))
	if shrunk := len(value) - len(decoded); shrunk > 0 {
		s.remove(pos+1+len(decoded), shrunk)
	}

	return nil
}

// lookup returns the value of the first sep-separated key=value pair whose key equals name.
// Leading spaces of keys are ignored. Pairs without = never match.
func lookup(data []byte, sep byte, name string) (value []byte, found bool) {
	for len(data) > 0 {
		var segment []byte
		if end := bytes.IndexByte(data, sep); end == -1 {
			segment, data = data, nil
		} else {
			segment, data = data[:end], data[end+1:]
		}

		eq := bytes.IndexByte(segment, '=')
		if eq == -1 {
			continue
		}

		if string(bytes.TrimLeft(segment[:eq], " ")) == name {
			return segment[eq+1:], true
		}
	}

	return nil, false
}

// stripNUL removes terminator bytes out of a decoded value in place, as they'd break
// entries framing.
func stripNUL(value []byte) []byte {
	if bytes.IndexByte(value, terminator) == -1 {
		return value
	}

	n := 0
	for _, c := range value {
		if c != terminator {
			value[n] = c
			n++
		}
	}

	return value[:n]
}
