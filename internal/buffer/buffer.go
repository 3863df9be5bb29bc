package buffer

// Buffer is a fixed-capacity accumulator of a single line or token. It never grows: once
// it's full, appends are refused and the caller decides what to do with the content.
type Buffer struct {
	memory []byte
}

func New(size int) Buffer {
	return Buffer{
		memory: make([]byte, 0, size),
	}
}

// AppendByte writes a single byte, checking whether it won't exceed the limit.
func (b *Buffer) AppendByte(c byte) (ok bool) {
	if len(b.memory) == cap(b.memory) {
		return false
	}

	b.memory = append(b.memory, c)
	return true
}

// Len returns the number of accumulated bytes.
func (b *Buffer) Len() int {
	return len(b.memory)
}

// Cap returns the capacity the buffer was created with.
func (b *Buffer) Cap() int {
	return cap(b.memory)
}

// Preview returns the accumulated bytes. They are valid until the next modification.
func (b *Buffer) Preview() []byte {
	return b.memory
}

// Keep drops everything except the last n bytes, which are moved to the beginning.
func (b *Buffer) Keep(n int) {
	if n > len(b.memory) {
		n = len(b.memory)
	}

	copy(b.memory, b.memory[len(b.memory)-n:])
	b.memory = b.memory[:n]
}

// Clear just resets the pointers, so old values may be overridden by new ones.
func (b *Buffer) Clear() {
	b.memory = b.memory[:0]
}
