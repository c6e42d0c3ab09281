package domain

import (
	"path/filepath"
	"unique"
)

// InternedString wraps a unique.Handle[string] so repeated paths share one
// allocation and compare by handle.
type InternedString struct {
	h unique.Handle[string]
}

// NewInternedString interns s as is.
func NewInternedString(s string) InternedString {
	return InternedString{h: unique.Make(s)}
}

// NewPath interns the cleaned form of path, so "a/./b" and "a/b" are the same node.
func NewPath(path string) InternedString {
	return NewInternedString(filepath.Clean(path))
}

// NewInternedStrings interns every element of ss.
func NewInternedStrings(ss []string) []InternedString {
	out := make([]InternedString, len(ss))
	for i, s := range ss {
		out[i] = NewInternedString(s)
	}
	return out
}

// String returns the underlying string value.
func (is InternedString) String() string {
	var zero unique.Handle[string]
	if is.h == zero {
		return ""
	}
	return is.h.Value()
}

// IsZero reports whether is was never assigned.
func (is InternedString) IsZero() bool {
	var zero unique.Handle[string]
	return is.h == zero
}

// Value returns the underlying unique.Handle[string].
func (is InternedString) Value() unique.Handle[string] {
	return is.h
}

// MarshalText implements encoding.TextMarshaler.
func (is InternedString) MarshalText() ([]byte, error) {
	return []byte(is.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (is *InternedString) UnmarshalText(text []byte) error {
	is.h = unique.Make(string(text))
	return nil
}
