// Package cow provides the copy-on-write primitives that back every piece
// of data attached to a network: a refcounted field holding one value, and
// a reassignable entry pointing at it.
//
// Forking an entry is O(1): it bumps the field's use count and aliases the
// same value. The first mutation through a shared entry clones the value,
// installs a private field with use count 1, and leaves every other entry
// still pointing at the pre-mutation value. Reference counting is explicit:
// Go's garbage collector offers no deterministic finalization, so holders
// must call Release when they drop an entry.
package cow

import (
	"fmt"
	"reflect"
)

// Cloner is implemented by values that know how to deep-copy themselves.
// Any Cloner can be stored in an Entry.
type Cloner interface {
	CloneValue() interface{}
}

// field owns one value and counts the entries sharing it.
type field struct {
	value interface{}
	uses  int
}

// Entry is a reassignable indirection over a refcounted field. Multiple
// entries may alias the same field after a fork; an entry's field pointer
// is the only thing ever replaced on write.
type Entry struct {
	f *field
}

// NewEntry creates an entry owning v with use count 1.
// Returns a NotCopyableError if v cannot be cloned.
func NewEntry(v interface{}) (*Entry, error) {
	if err := CheckCopyable(v); err != nil {
		return nil, err
	}
	return &Entry{f: &field{value: v, uses: 1}}, nil
}

// Fork returns a new entry aliasing the same field, bumping its use count.
func (e *Entry) Fork() *Entry {
	e.f.uses++
	return &Entry{f: e.f}
}

// Release drops this entry's share of the field. When the last share is
// released the value is dropped. Releasing twice is a no-op; any other use
// of a released entry is a programming error.
func (e *Entry) Release() {
	if e.f == nil {
		return
	}
	e.f.uses--
	if e.f.uses == 0 {
		e.f.value = nil
	}
	e.f = nil
}

// Shared reports whether other entries alias the same field.
func (e *Entry) Shared() bool {
	return e.f.uses > 1
}

// Uses returns the current use count of the underlying field.
func (e *Entry) Uses() int {
	return e.f.uses
}

// Read calls fn with the current value. fn must not retain the value or
// mutate through it; it is a borrowed reference for the duration of the
// call. This is the seam where a future read lock would be taken.
func (e *Entry) Read(fn func(v interface{})) {
	fn(e.f.value)
}

// Mutate runs fn against the value for in-place mutation. If the field is
// shared, the value is cloned first and fn runs on the private clone; every
// other entry keeps the pre-mutation value.
func (e *Entry) Mutate(fn func(v interface{})) error {
	if e.f.uses > 1 {
		clone, err := cloneValue(e.f.value)
		if err != nil {
			return err
		}
		e.f.uses--
		e.f = &field{value: clone, uses: 1}
	}
	fn(e.f.value)
	return nil
}

// Reassign replaces the whole value. The new value must have the same
// dynamic type as the current one; a mismatch is a TypeMismatchError.
// On a shared field the entry is repointed at a fresh private field,
// leaving the other holders on the old value.
func (e *Entry) Reassign(v interface{}) error {
	want := reflect.TypeOf(e.f.value)
	got := reflect.TypeOf(v)
	if want != got {
		return &TypeMismatchError{Want: typeName(want), Got: typeName(got)}
	}
	if e.f.uses > 1 {
		e.f.uses--
		e.f = &field{value: v, uses: 1}
		return nil
	}
	e.f.value = v
	return nil
}

// Clone returns a deep copy of a copyable value. Aggregate extraction out
// of an entry goes through this so callers never share the stored value.
func Clone(v interface{}) (interface{}, error) {
	return cloneValue(v)
}

// CheckCopyable reports whether v has a well-defined copy operation, which
// every stored value needs before it can participate in copy-on-write.
func CheckCopyable(v interface{}) error {
	_, err := cloneValue(v)
	return err
}

func cloneValue(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case Cloner:
		return val.CloneValue(), nil
	case []float64:
		out := make([]float64, len(val))
		copy(out, val)
		return out, nil
	case []int:
		out := make([]int, len(val))
		copy(out, val)
		return out, nil
	case []bool:
		out := make([]bool, len(val))
		copy(out, val)
		return out, nil
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out, nil
	case map[string]float64:
		out := make(map[string]float64, len(val))
		for k, x := range val {
			out[k] = x
		}
		return out, nil
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, x := range val {
			out[k] = x
		}
		return out, nil
	default:
		return nil, &NotCopyableError{Type: typeName(reflect.TypeOf(v))}
	}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	return t.String()
}

// NotCopyableError reports a value with no well-defined copy operation.
type NotCopyableError struct {
	Type string
}

func (e *NotCopyableError) Error() string {
	return fmt.Sprintf("value of type %s has no copy operation", e.Type)
}

// TypeMismatchError reports a reassignment with a value of a different
// type than the entry currently holds.
type TypeMismatchError struct {
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cannot reassign %s value over %s", e.Got, e.Want)
}
