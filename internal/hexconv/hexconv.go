package hexconv

// Halfbyte maps a hex digit to its value. Non-hex characters map to zero, so
// they must be filtered out with Is first.
var Halfbyte = [256]byte{
	'0': 0x0, '1': 0x1, '2': 0x2, '3': 0x3, '4': 0x4,
	'5': 0x5, '6': 0x6, '7': 0x7, '8': 0x8, '9': 0x9,
	'a': 0xa, 'b': 0xb, 'c': 0xc, 'd': 0xd, 'e': 0xe, 'f': 0xf,
	'A': 0xA, 'B': 0xB, 'C': 0xC, 'D': 0xD, 'E': 0xE, 'F': 0xF,
}

var isHex = [256]bool{
	'0': true, '1': true, '2': true, '3': true, '4': true,
	'5': true, '6': true, '7': true, '8': true, '9': true,
	'a': true, 'b': true, 'c': true, 'd': true, 'e': true, 'f': true,
	'A': true, 'B': true, 'C': true, 'D': true, 'E': true, 'F': true,
}

// Upper contains the digits used for encoding.
const Upper = "0123456789ABCDEF"

func Is(char byte) bool {
	return isHex[char]
}

// Byte composes a byte out of two hex digits. Both must be valid.
func Byte(high, low byte) byte {
	return Halfbyte[high]<<4 | Halfbyte[low]
}
