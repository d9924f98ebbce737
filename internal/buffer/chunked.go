package buffer

import "unsafe"

// block is one fixed-capacity storage unit of a Chunked buffer.
type block struct {
	data []byte // len(data) == capacity, always
	next *block
	prev *block
}

// Chunked is a Buffer backed by a linked list of fixed-size blocks.
//
// Appends fill the tail block and link a new one when it is full, so data
// already written is never moved. Finalize copies every block once into a
// result sized to the total length.
type Chunked struct {
	head *block
	tail *block

	chunkSize int
	ptr       int // bytes written into tail
	length    int // total bytes stored

	finalized bool
}

// NewChunked creates an empty Chunked buffer.
func NewChunked(opts ...Option) *Chunked {
	o := applyOptions(opts)
	b := &block{data: make([]byte, o.chunkSize)}
	return &Chunked{
		head:      b,
		tail:      b,
		chunkSize: o.chunkSize,
	}
}

// ChunkSize returns the capacity of a single block.
func (c *Chunked) ChunkSize() int {
	return c.chunkSize
}

// Write appends p. It never returns a short write.
func (c *Chunked) Write(p []byte) (int, error) {
	if c.finalized {
		return 0, ErrFinalized
	}
	written := 0
	for written < len(p) {
		if c.ptr == c.chunkSize {
			c.grow()
		}
		n := copy(c.tail.data[c.ptr:], p[written:])
		c.ptr += n
		c.length += n
		written += n
	}
	return written, nil
}

// WriteString appends s without converting it to a byte slice first.
func (c *Chunked) WriteString(s string) (int, error) {
	if c.finalized {
		return 0, ErrFinalized
	}
	written := 0
	for written < len(s) {
		if c.ptr == c.chunkSize {
			c.grow()
		}
		n := copy(c.tail.data[c.ptr:], s[written:])
		c.ptr += n
		c.length += n
		written += n
	}
	return written, nil
}

// grow links a fresh block after the tail, or reuses one left behind by a
// retraction that stepped back over a block boundary.
func (c *Chunked) grow() {
	if c.tail.next == nil {
		b := &block{data: make([]byte, c.chunkSize), prev: c.tail}
		c.tail.next = b
	}
	c.tail = c.tail.next
	c.ptr = 0
}

// RetractLastByte removes the last stored byte.
func (c *Chunked) RetractLastByte() error {
	if c.finalized {
		return ErrFinalized
	}
	if c.length == 0 {
		return ErrEmpty
	}
	if c.ptr == 0 {
		// The tail is an empty block left by grow; the byte lives in prev.
		c.tail = c.tail.prev
		c.ptr = c.chunkSize
	}
	c.ptr--
	c.length--
	return nil
}

// Len returns the number of stored bytes.
func (c *Chunked) Len() int {
	return c.length
}

// Blocks returns the number of allocated blocks.
func (c *Chunked) Blocks() int {
	n := 0
	for b := c.head; b != nil; b = b.next {
		n++
	}
	return n
}

// Finalize concatenates all blocks and releases them.
func (c *Chunked) Finalize() (string, error) {
	if c.finalized {
		return "", ErrFinalized
	}

	res := make([]byte, c.length)
	read := 0
	for b := c.head; b != nil; {
		n := c.chunkSize
		if b == c.tail {
			n = c.ptr
		}
		if read+n > c.length {
			n = c.length - read
		}
		copy(res[read:], b.data[:n])
		read += n

		// Blocks past the tail (left by a retraction) contribute nothing.
		next := b.next
		b.next, b.prev, b.data = nil, nil, nil
		b = next
	}

	c.head, c.tail = nil, nil
	c.ptr, c.length = 0, 0
	c.finalized = true

	if len(res) == 0 {
		return "", nil
	}
	// res is never touched again; hand it out without a second copy.
	return unsafe.String(&res[0], len(res)), nil
}
