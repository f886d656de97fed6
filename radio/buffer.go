package radio

// DefaultDepth is the number of frames a Buffer holds before it starts
// overwriting the oldest one.
const DefaultDepth = 16

// Buffer is a bounded FIFO of frames shared between layers. Reading an empty
// buffer yields a zero-length frame; writing a full buffer drops the oldest
// unread frame. It is not safe for concurrent use.
type Buffer struct {
	data       [][]byte
	head, tail int // head = next read, tail = next write
	count      int
	overwrites uint64
}

func NewBuffer(depth int) *Buffer {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Buffer{data: make([][]byte, depth)}
}

// Write copies frame into the buffer and returns its position in the queue
// (0 = next to be read).
func (b *Buffer) Write(frame []byte) int {
	if b.count == len(b.data) {
		b.data[b.head] = nil
		b.head = (b.head + 1) % len(b.data)
		b.count--
		b.overwrites++
	}
	b.data[b.tail] = append([]byte(nil), frame...)
	b.tail = (b.tail + 1) % len(b.data)
	b.count++
	return b.count - 1
}

// Read removes and returns the oldest frame, or nil when the buffer is empty.
func (b *Buffer) Read() []byte {
	if b.count == 0 {
		return nil
	}
	frame := b.data[b.head]
	b.data[b.head] = nil
	b.head = (b.head + 1) % len(b.data)
	b.count--
	return frame
}

func (b *Buffer) Len() int { return b.count }
func (b *Buffer) Cap() int { return len(b.data) }

// Overwrites counts frames lost to writes on a full buffer.
func (b *Buffer) Overwrites() uint64 { return b.overwrites }
