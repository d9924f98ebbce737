// Package numfmt formats float64 values the way serialized tables expect:
// integral values as plain base-10 integers, everything else as the
// shortest decimal that parses back to the same float64.
package numfmt

import (
	"errors"
	"math"
	"strconv"
)

// MaxLen bounds the output of Format for every finite non-integral value and
// every integral value inside the int64 range. The shortest round-trip form
// of a float64 has at most 17 significant digits, plus sign, point and a
// four-character exponent.
const MaxLen = 32

// ErrNonFinite is returned for NaN and infinities.
var ErrNonFinite = errors.New("number is not finite")

// Integral values in [minInt, maxInt) convert to int64 exactly.
const (
	minInt = -(1 << 63)
	maxInt = 1 << 63
)

// Format returns the textual form of n.
func Format(n float64) (string, error) {
	var scratch [MaxLen]byte
	b, err := Append(scratch[:0], n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Append appends the textual form of n to dst.
func Append(dst []byte, n float64) ([]byte, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return dst, ErrNonFinite
	}
	if math.Trunc(n) == n {
		if n >= minInt && n < maxInt {
			return strconv.AppendInt(dst, int64(n), 10), nil
		}
		// Integral but outside int64: expand fully rather than truncate.
		return strconv.AppendFloat(dst, n, 'f', 0, 64), nil
	}
	return strconv.AppendFloat(dst, n, 'g', -1, 64), nil
}

// IsIntegral reports whether n is finite and has no fractional part.
func IsIntegral(n float64) bool {
	return !math.IsInf(n, 0) && math.Trunc(n) == n
}
