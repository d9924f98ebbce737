package encoder

import (
	"go.uber.org/zap"

	"github.com/dshills/luaseri/internal/buffer"
)

// DefaultMaxDepth is the nesting limit applied when none is configured.
const DefaultMaxDepth = 256

// Option configures an Encoder.
type Option func(*Encoder)

// WithStrategy selects the buffer implementation.
func WithStrategy(s buffer.Strategy) Option {
	return func(e *Encoder) {
		e.strategy = s
	}
}

// WithChunkSize sets the block size of the chunked buffer.
func WithChunkSize(n int) Option {
	return func(e *Encoder) {
		e.chunkSize = n
	}
}

// WithMaxDepth limits composite nesting. The top-level composite is depth 1.
// Zero or a negative value disables the limit, leaving deep inputs bounded
// only by the goroutine stack.
func WithMaxDepth(n int) Option {
	return func(e *Encoder) {
		e.maxDepth = n
	}
}

// WithIntegerKeys rejects numeric keys with a fractional part.
func WithIntegerKeys() Option {
	return func(e *Encoder) {
		e.integerKeys = true
	}
}

// WithPositional writes entries whose numeric keys run 1, 2, 3, ... in
// iteration order as bare values, the way a list constructor would.
func WithPositional() Option {
	return func(e *Encoder) {
		e.positional = true
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Encoder) {
		if l != nil {
			e.logger = l
		}
	}
}
