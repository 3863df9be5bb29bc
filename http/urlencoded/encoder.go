package urlencoded

import "github.com/indigo-web/bitty/internal/hexconv"

var unreserved = func() (table [256]bool) {
	for c := 'a'; c <= 'z'; c++ {
		table[c] = true
	}

	for c := 'A'; c <= 'Z'; c++ {
		table[c] = true
	}

	for c := '0'; c <= '9'; c++ {
		table[c] = true
	}

	table['-'], table['_'], table['.'], table['~'] = true, true, true, true

	return table
}()

// Encode appends src to dst, escaping every byte outside [A-Za-z0-9-_.~] as %XX.
func Encode(dst []byte, src string) []byte {
	for i := 0; i < len(src); i++ {
		if c := src[i]; unreserved[c] {
			dst = append(dst, c)
		} else {
			dst = append(dst, '%', hexconv.Upper[c>>4], hexconv.Upper[c&0xf])
		}
	}

	return dst
}

// EncodeTo encodes src into out, which is never grown. An escape sequence is never split,
// so if out is too short, the output stops at the last whole character and ok is false.
func EncodeTo(out []byte, src string) (n int, ok bool) {
	for i := 0; i < len(src); i++ {
		c := src[i]

		if unreserved[c] {
			if n+1 > len(out) {
				return n, false
			}

			out[n] = c
			n++
			continue
		}

		if n+3 > len(out) {
			return n, false
		}

		out[n], out[n+1], out[n+2] = '%', hexconv.Upper[c>>4], hexconv.Upper[c&0xf]
		n += 3
	}

	return n, true
}

// EncodedLen returns the length of src once encoded.
func EncodedLen(src string) (n int) {
	for i := 0; i < len(src); i++ {
		if unreserved[src[i]] {
			n++
		} else {
			n += 3
		}
	}

	return n
}
