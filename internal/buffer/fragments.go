package buffer

import "strings"

// Fragments is a Buffer that keeps every appended fragment as a separate
// list element and joins them once in Finalize.
type Fragments struct {
	parts     []string
	length    int
	finalized bool
}

// NewFragments creates an empty Fragments buffer.
func NewFragments() *Fragments {
	return &Fragments{}
}

// Write appends a copy of p.
func (f *Fragments) Write(p []byte) (int, error) {
	if f.finalized {
		return 0, ErrFinalized
	}
	if len(p) == 0 {
		return 0, nil
	}
	f.parts = append(f.parts, string(p))
	f.length += len(p)
	return len(p), nil
}

// WriteString appends s. Strings are immutable, so s is stored as is.
func (f *Fragments) WriteString(s string) (int, error) {
	if f.finalized {
		return 0, ErrFinalized
	}
	if s == "" {
		return 0, nil
	}
	f.parts = append(f.parts, s)
	f.length += len(s)
	return len(s), nil
}

// RetractLastByte trims the last fragment, dropping it once it is empty.
func (f *Fragments) RetractLastByte() error {
	if f.finalized {
		return ErrFinalized
	}
	if f.length == 0 {
		return ErrEmpty
	}
	last := len(f.parts) - 1
	p := f.parts[last]
	if len(p) == 1 {
		f.parts[last] = ""
		f.parts = f.parts[:last]
	} else {
		f.parts[last] = p[:len(p)-1]
	}
	f.length--
	return nil
}

// Len returns the number of stored bytes.
func (f *Fragments) Len() int {
	return f.length
}

// Parts returns the number of stored fragments.
func (f *Fragments) Parts() int {
	return len(f.parts)
}

// Finalize joins all fragments and releases them.
func (f *Fragments) Finalize() (string, error) {
	if f.finalized {
		return "", ErrFinalized
	}
	var sb strings.Builder
	sb.Grow(f.length)
	for _, p := range f.parts {
		sb.WriteString(p)
	}
	f.parts = nil
	f.length = 0
	f.finalized = true
	return sb.String(), nil
}
