// Package buffer provides append-only text sinks used by the encoder.
//
// A Buffer accepts fragments of arbitrary length, can drop the last byte it
// stored, and is turned into one contiguous string exactly once by Finalize.
// Two implementations share the contract:
//
//   - Chunked stores data in a linked list of fixed-capacity blocks.
//   - Fragments keeps every appended fragment as its own list element.
//
// Chunked is the default. It never reallocates data that was already
// written, and Finalize copies each block once into an exactly-sized result.
package buffer

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultChunkSize is the capacity of one block in a Chunked buffer.
const DefaultChunkSize = 128

// Errors returned by buffers.
var (
	// ErrEmpty is returned by RetractLastByte when nothing is stored.
	ErrEmpty = errors.New("buffer is empty")

	// ErrFinalized is returned by any operation after Finalize.
	ErrFinalized = errors.New("buffer already finalized")
)

// Buffer is an append-only byte sink with single-byte tail retraction.
type Buffer interface {
	io.Writer
	io.StringWriter

	// RetractLastByte removes the last stored byte.
	// It returns ErrEmpty if the buffer holds no data.
	RetractLastByte() error

	// Finalize returns the stored content and releases the storage.
	// Every later call on the buffer returns ErrFinalized.
	Finalize() (string, error)

	// Len returns the number of bytes currently stored.
	Len() int
}

// Strategy selects a Buffer implementation.
type Strategy string

// Available strategies.
const (
	StrategyChunked   Strategy = "chunked"
	StrategyFragments Strategy = "fragments"
)

// ParseStrategy parses a strategy name. The empty string selects the default.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(StrategyChunked), "chunk", "block":
		return StrategyChunked, nil
	case string(StrategyFragments), "fragment", "list":
		return StrategyFragments, nil
	default:
		return "", fmt.Errorf("unknown buffer strategy %q", s)
	}
}

// Option configures a Buffer created by New.
type Option func(*options)

type options struct {
	chunkSize int
}

// WithChunkSize sets the block capacity of a Chunked buffer.
// Values below 1 fall back to DefaultChunkSize. Fragments ignores it.
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

func applyOptions(opts []Option) options {
	o := options{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.chunkSize < 1 {
		o.chunkSize = DefaultChunkSize
	}
	return o
}

// New creates an empty buffer for the given strategy.
// Unknown strategies fall back to Chunked.
func New(s Strategy, opts ...Option) Buffer {
	if s == StrategyFragments {
		return NewFragments()
	}
	return NewChunked(opts...)
}
