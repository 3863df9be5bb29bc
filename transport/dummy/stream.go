// Package dummy provides test doubles for the transport layer.
package dummy

import "errors"

// ErrBroken is returned by a Stream set to be broken.
var ErrBroken = errors.New("dummy stream: broken")

// Stream is an in-memory outbound connection. It tracks all the written data, making it
// thereby a universal mock for the session tests.
type Stream struct {
	written    []byte
	writes     int
	closed     int
	broken     bool
	journaling bool
}

func NewStream() *Stream {
	return &Stream{journaling: true}
}

func (s *Stream) Write(b []byte) error {
	if s.broken || s.closed > 0 {
		return ErrBroken
	}

	s.writes++
	if s.journaling {
		s.written = append(s.written, b...)
	}

	return nil
}

func (s *Stream) Close() {
	s.closed++
}

func (s *Stream) IsConnected() bool {
	return !s.broken && s.closed == 0
}

// Break makes all the following writes fail, and the stream report being disconnected.
func (s *Stream) Break() *Stream {
	s.broken = true
	return s
}

func (s *Stream) Journaling(flag bool) *Stream {
	s.journaling = flag
	return s
}

// Written returns everything written so far.
func (s *Stream) Written() string {
	if !s.journaling {
		panic("dummy stream: cannot access written data: journaling is disabled!")
	}

	return string(s.written)
}

// Reset forgets the written data and reconnects the stream.
func (s *Stream) Reset() {
	s.written = s.written[:0]
	s.writes = 0
	s.closed = 0
	s.broken = false
}

// Writes returns the number of successful Write calls.
func (s *Stream) Writes() int {
	return s.writes
}

// Closed reports whether Close was called at least once.
func (s *Stream) Closed() bool {
	return s.closed > 0
}
