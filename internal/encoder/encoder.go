// Package encoder serializes composite values into compact table text.
//
// The output mirrors a table constructor:
//
//	{[1]=10,[2]=20,name="x",nested={[1]=1}}
//
// Numeric keys are written as [n]=, text keys as name=. Numbers use
// numfmt, text is wrapped in double quotes without any escaping, and nested
// composites recurse. Every entry is followed by a comma and the final comma
// of a non-empty composite is retracted before the closing brace, so an
// empty composite is simply {}.
//
// Text is written byte for byte. Embedded quotes or control characters are
// not escaped, so such output cannot be read back unambiguously.
package encoder

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/luaseri/internal/buffer"
	"github.com/dshills/luaseri/internal/numfmt"
	"github.com/dshills/luaseri/internal/value"
)

// Encoder converts values into table text.
// An Encoder is immutable after New and safe for concurrent use.
type Encoder struct {
	strategy    buffer.Strategy
	chunkSize   int
	maxDepth    int
	integerKeys bool
	positional  bool
	logger      *zap.Logger
}

// New creates an Encoder.
func New(opts ...Option) *Encoder {
	e := &Encoder{
		strategy:  buffer.StrategyChunked,
		chunkSize: buffer.DefaultChunkSize,
		maxDepth:  DefaultMaxDepth,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEncoder = New()

// Encode serializes v with default settings.
func Encode(v value.Value) (string, error) {
	return defaultEncoder.Encode(v)
}

// Encode serializes v. The top-level value must be a composite.
// On error the returned string is empty; no partial output is produced.
func (e *Encoder) Encode(v value.Value) (string, error) {
	c, ok := v.Composite()
	if !ok {
		return "", newTypeError(nil, v.TypeName(), "top-level value must be a composite", nil)
	}

	st := &encodeState{
		enc: e,
		buf: buffer.New(e.strategy, buffer.WithChunkSize(e.chunkSize)),
	}
	if err := st.writeComposite(c, 1); err != nil {
		e.logger.Debug("encode failed", zap.Error(err), zap.Int("entries", st.entries))
		return "", err
	}

	out, err := st.buf.Finalize()
	if err != nil {
		return "", fmt.Errorf("finalize buffer: %w", err)
	}

	e.logger.Debug("encoded",
		zap.Int("bytes", len(out)),
		zap.Int("entries", st.entries),
		zap.Int("depth", st.deepest),
		zap.String("buffer", string(e.strategy)),
	)
	return out, nil
}

// encodeState holds everything owned by a single Encode call.
type encodeState struct {
	enc     *Encoder
	buf     buffer.Buffer
	path    []value.Key
	scratch []byte
	err     error

	entries int
	deepest int
}

func (st *encodeState) write(s string) {
	if st.err != nil {
		return
	}
	_, st.err = st.buf.WriteString(s)
}

func (st *encodeState) writeBytes(p []byte) {
	if st.err != nil {
		return
	}
	_, st.err = st.buf.Write(p)
}

func (st *encodeState) writeComposite(c value.Composite, depth int) error {
	if limit := st.enc.maxDepth; limit > 0 && depth > limit {
		return fmt.Errorf("%w: limit %d reached at %s", ErrDepthExceeded, limit, FormatPath(st.path))
	}
	if depth > st.deepest {
		st.deepest = depth
	}

	st.write("{")

	written := 0
	run := positionalRun{next: 1, active: st.enc.positional}
	for k, v := range c.All() {
		st.path = append(st.path, k)
		if err := st.writeKey(k, &run); err != nil {
			return err
		}
		if err := st.writeValue(v, depth); err != nil {
			return err
		}
		st.path = st.path[:len(st.path)-1]
		written++
		st.entries++
	}

	if written > 0 {
		if err := st.buf.RetractLastByte(); err != nil {
			return fmt.Errorf("retract separator: %w", err)
		}
	}
	st.write("}")
	return st.err
}

// positionalRun tracks whether numeric keys so far are exactly 1, 2, ...
type positionalRun struct {
	next   float64
	active bool
}

// take reports whether n continues the run, advancing it if so.
func (r *positionalRun) take(n float64) bool {
	if !r.active {
		return false
	}
	if n != r.next {
		r.active = false
		return false
	}
	r.next++
	return true
}

func (st *encodeState) writeKey(k value.Key, run *positionalRun) error {
	switch k.Kind() {
	case value.KeyNumeric:
		n, _ := k.Number()
		if st.enc.integerKeys && !numfmt.IsIntegral(n) {
			return newTypeError(st.path, "fractional number key", "numeric keys must be integers", nil)
		}
		b, err := numfmt.Append(st.scratch[:0], n)
		if err != nil {
			return newTypeError(st.path, "number key", "numeric keys must be finite", err)
		}
		st.scratch = b
		if run.take(n) {
			return nil
		}
		st.write("[")
		st.writeBytes(b)
		st.write("]=")

	case value.KeyText:
		s, _ := k.Text()
		st.write(s)
		st.write("=")

	default:
		return newTypeError(st.path, k.TypeName()+" key", "keys must be numbers or text", nil)
	}
	return st.err
}

func (st *encodeState) writeValue(v value.Value, depth int) error {
	switch v.Kind() {
	case value.KindNumber:
		n, _ := v.Number()
		b, err := numfmt.Append(st.scratch[:0], n)
		if err != nil {
			return newTypeError(st.path, "number", "numbers must be finite", err)
		}
		st.scratch = append(b, ',')
		st.writeBytes(st.scratch)

	case value.KindText:
		s, _ := v.Text()
		st.write(`"`)
		st.write(s)
		st.write(`",`)

	case value.KindComposite:
		c, _ := v.Composite()
		if err := st.writeComposite(c, depth+1); err != nil {
			return err
		}
		st.write(",")

	default:
		return newTypeError(st.path, v.TypeName(), "values must be numbers, text or composites", nil)
	}
	return st.err
}
