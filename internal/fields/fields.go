// Package fields implements the transductor's field store: a set of
// growable, ordinal-indexed byte buffers plus a single
// current-selection register.
package fields

import (
	"fmt"
	"strconv"
)

// Anonymous is the reserved ordinal for the anonymous field, always
// present.
const Anonymous = 0

// NotANumberError is returned by DecodeI64/DecodeF64 when a field's
// bytes do not parse as the requested numeric form.
type NotANumberError struct {
	Ordinal int
	Bytes   []byte
	Cause   error
}

func (e *NotANumberError) Error() string {
	return fmt.Sprintf("fields: field %d is not a number (%q): %s", e.Ordinal, e.Bytes, e.Cause)
}

func (e *NotANumberError) Unwrap() error { return e.Cause }

// Store holds every field's buffer plus the selection register.
//
// Field content is append-only except by Clear/ClearAll/Cut, which is
// the invariant the built-in effectors (select/paste/cut/copy/clear)
// are built to preserve; Store itself does not enforce it beyond
// exposing no other mutator.
type Store struct {
	bufs     [][]byte
	selected int
}

// New returns a Store sized for n fields (ordinals 0..n-1); ordinal 0 is
// the anonymous field and always exists.
func New(n int) *Store {
	if n < 1 {
		n = 1
	}
	return &Store{bufs: make([][]byte, n), selected: Anonymous}
}

// Select sets the selection register. The prior selection's contents are
// left untouched.
func (s *Store) Select(ord int) {
	s.selected = ord
}

// Selected returns the currently selected ordinal.
func (s *Store) Selected() int {
	return s.selected
}

// PasteByte appends b to the selected field.
func (s *Store) PasteByte(b byte) {
	s.bufs[s.selected] = append(s.bufs[s.selected], b)
}

// PasteBytes appends bs to the selected field.
func (s *Store) PasteBytes(bs []byte) {
	s.bufs[s.selected] = append(s.bufs[s.selected], bs...)
}

// Copy appends the selected field's contents into dst without emptying
// the selection.
func (s *Store) Copy(dst int) {
	s.bufs[dst] = append(s.bufs[dst], s.bufs[s.selected]...)
}

// Cut appends the selected field's contents into dst, then empties the
// selected field.
func (s *Store) Cut(dst int) {
	s.bufs[dst] = append(s.bufs[dst], s.bufs[s.selected]...)
	s.bufs[s.selected] = s.bufs[s.selected][:0]
}

// Clear empties field ord.
func (s *Store) Clear(ord int) {
	s.bufs[ord] = s.bufs[ord][:0]
}

// ClearAll empties every field.
func (s *Store) ClearAll() {
	for i := range s.bufs {
		s.bufs[i] = s.bufs[i][:0]
	}
}

// Read returns field ord's current contents. The returned slice aliases
// the store's buffer and must not be retained across a subsequent
// mutation of the same field.
func (s *Store) Read(ord int) []byte {
	return s.bufs[ord]
}

// DecodeI64 interprets field ord's bytes as UTF-8 decimal digits.
func (s *Store) DecodeI64(ord int) (int64, error) {
	v, err := strconv.ParseInt(string(s.bufs[ord]), 10, 64)
	if err != nil {
		return 0, &NotANumberError{Ordinal: ord, Bytes: s.bufs[ord], Cause: err}
	}
	return v, nil
}

// DecodeF64 interprets field ord's bytes as a UTF-8 decimal float.
func (s *Store) DecodeF64(ord int) (float64, error) {
	v, err := strconv.ParseFloat(string(s.bufs[ord]), 64)
	if err != nil {
		return 0, &NotANumberError{Ordinal: ord, Bytes: s.bufs[ord], Cause: err}
	}
	return v, nil
}

// DecodeUTF8 interprets field ord's bytes as UTF-8 text.
func (s *Store) DecodeUTF8(ord int) string {
	return string(s.bufs[ord])
}

// Reset returns the selection register to the anonymous field, as
// required of Transductor.Stop. It does not touch any field's content:
// stop's job is to end the run, not to discard what the run extracted.
func (s *Store) Reset() {
	s.selected = Anonymous
}
