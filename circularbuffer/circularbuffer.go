/*
 * circularbuffer provides the sliding-window storage behind the rolling checksum and the comparer. C2 keeps the
 * last blockSize bytes written to it available as a single contiguous slice, and reports the bytes that each
 * write pushed out of the window, which is exactly the shape the rolling arithmetic needs.
 */
package circularbuffer

func MakeC2Buffer(blockSize int) *C2 {
    return &C2{
        blockSize: blockSize,
        buffer:    make([]byte, 0, blockSize*2),
        evicted:   make([]byte, 0, blockSize),
    }
}

/*
 * C2 is a circular buffer capped at blockSize bytes, implemented over a double-length backing slice so that
 * GetBlock can always return the window as one contiguous view. When appending would run off the end of the
 * backing storage, the live window is copied back to the front; amortized cost per byte is O(1).
 *
 * Not safe for concurrent use.
 */
type C2 struct {
    blockSize int
    buffer    []byte
    head      int
    evicted   []byte
    one       [1]byte
}

// Len is the number of bytes currently in the window.
func (c *C2) Len() int {
    return len(c.buffer) - c.head
}

// GetBlock returns the current window contents. The slice aliases internal
// storage and is only valid until the next Write.
func (c *C2) GetBlock() []byte {
    return c.buffer[c.head:]
}

/*
 * Write appends p to the window, evicting from the head whatever no longer fits. The evicted bytes are
 * retrievable through Evicted until the next Write. Writes larger than the window evict everything currently
 * held plus the surplus prefix of p itself.
 */
func (c *C2) Write(p []byte) {
    c.evicted = c.evicted[:0]

    if len(p) >= c.blockSize {
        c.evicted = append(c.evicted, c.buffer[c.head:]...)
        c.evicted = append(c.evicted, p[:len(p)-c.blockSize]...)
        c.buffer = append(c.buffer[:0], p[len(p)-c.blockSize:]...)
        c.head = 0
        return
    }

    if len(c.buffer)+len(p) > cap(c.buffer) {
        // wrap: move the live window back to the front
        n := copy(c.buffer[:cap(c.buffer)], c.buffer[c.head:])
        c.buffer = c.buffer[:n]
        c.head = 0
    }

    c.buffer = append(c.buffer, p...)

    if over := c.Len() - c.blockSize; over > 0 {
        c.evicted = append(c.evicted, c.buffer[c.head:c.head+over]...)
        c.head += over
    }
}

// WriteByte appends a single byte, evicting the head byte if the window is full.
func (c *C2) WriteByte(b byte) {
    c.one[0] = b
    c.Write(c.one[:])
}

// Evicted returns the bytes pushed out of the window by the last Write.
func (c *C2) Evicted() []byte {
    return c.evicted
}

// Pop removes and returns the head byte of the window. Panics on an empty window;
// callers gate on Len.
func (c *C2) Pop() byte {
    b := c.buffer[c.head]
    c.head++
    return b
}

func (c *C2) Reset() {
    c.buffer = c.buffer[:0]
    c.head = 0
    c.evicted = c.evicted[:0]
}
