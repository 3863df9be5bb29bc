// Package urlencoded implements the percent-encoding used by query strings, cookies
// and application/x-www-form-urlencoded bodies.
//
// Decoding is lenient: a percent sign not followed by two hex digits is kept as is,
// so arbitrary client input never fails to decode.
package urlencoded

import (
	"bytes"

	"github.com/indigo-web/bitty/internal/hexconv"
)

// DecodeInPlace decodes %XX sequences of b into b itself, returning the decoded
// prefix. The output never grows past the input.
func DecodeInPlace(b []byte) []byte {
	percent := bytes.IndexByte(b, '%')
	if percent == -1 {
		return b
	}

	dst := b[:percent]

	for i := percent; i < len(b); i++ {
		if b[i] == '%' && i+2 < len(b) && hexconv.Is(b[i+1]) && hexconv.Is(b[i+2]) {
			dst = append(dst, hexconv.Byte(b[i+1], b[i+2]))
			i += 2
			continue
		}

		dst = append(dst, b[i])
	}

	return dst
}

// DecodeFormInPlace is the same as DecodeInPlace, but on top also decodes + as spaces.
// Used for form bodies.
func DecodeFormInPlace(b []byte) []byte {
	for i, c := range b {
		if c == '+' {
			b[i] = ' '
		}
	}

	return DecodeInPlace(b)
}

// Decode appends the decoded src to dst.
func Decode(dst []byte, src string) []byte {
	offset := len(dst)
	dst = append(dst, src...)

	return dst[:offset+len(DecodeInPlace(dst[offset:]))]
}

// DecodeTo decodes src into out, which is never grown. ok is false if out was too short,
// in which case n bytes of truncated output are still valid.
func DecodeTo(out []byte, src string) (n int, ok bool) {
	for i := 0; i < len(src); i++ {
		if n == len(out) {
			return n, false
		}

		if src[i] == '%' && i+2 < len(src) && hexconv.Is(src[i+1]) && hexconv.Is(src[i+2]) {
			out[n] = hexconv.Byte(src[i+1], src[i+2])
			i += 2
		} else {
			out[n] = src[i]
		}

		n++
	}

	return n, true
}

// PartialEscape returns the length of an incomplete escape sequence trailing b: 1 for a
// lone percent sign, 2 for a percent sign followed by a single hex digit, 0 otherwise.
// Used when a value is decoded piecewise and the sequence may continue in the next piece.
func PartialEscape(b []byte) int {
	switch {
	case len(b) >= 1 && b[len(b)-1] == '%':
		return 1
	case len(b) >= 2 && b[len(b)-2] == '%' && hexconv.Is(b[len(b)-1]):
		return 2
	}

	return 0
}
