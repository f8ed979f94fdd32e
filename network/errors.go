package network

import (
	"fmt"
	"strings"
)

// NameConflictError reports a class, web, field or label name already in
// use on the target.
type NameConflictError struct {
	Kind string // "class", "web", "field", "label"
	Name string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("%s name %q already in use", e.Kind, e.Name)
}

// UnknownNameError reports a lookup of a class, web or field that was
// never added.
type UnknownNameError struct {
	Kind string
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("no %s named %q", e.Kind, e.Name)
}

// LabelError reports a node label missing from the relevant index. It
// carries the class name (empty for the root index) and the valid label
// set to drive a helpful message.
type LabelError struct {
	Label string
	Class string
	Valid []string
}

func (e *LabelError) Error() string {
	scope := "the root index"
	if e.Class != "" {
		scope = fmt.Sprintf("class %q", e.Class)
	}
	return fmt.Sprintf("label %q not found in %s; valid labels: [%s]",
		e.Label, scope, strings.Join(e.Valid, " "))
}

// SizeMismatchError reports a length that does not match the target's
// node or edge count.
type SizeMismatchError struct {
	What string
	Want int
	Got  int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("%s has length %d, want %d", e.What, e.Got, e.Want)
}

// ShapeError reports a structurally unusable argument, such as attaching
// a reflexive web across two different classes or a non-slice value
// offered as per-node data.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return e.Reason
}

// RangeError reports an out-of-bounds integer access through a view.
type RangeError struct {
	Index  int
	Length int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d)", e.Index, e.Length)
}
