package network

import (
	"fmt"
	"reflect"

	"graphstore/cow"
	"graphstore/index"
)

// View is a protected handle into one field entry. External code reads,
// mutates and reassigns through it with bounds and label checking, and
// never obtains a reference to the stored value itself. The view keeps
// its owning network reachable.
type View struct {
	owner *Network
	entry *cow.Entry
	idx   *index.Index // nil for edge and graph views
	scope string       // class or web name, "" for graph views
	size  int          // required value length, -1 when unconstrained
}

// NodesView returns a view over a per-node field of a class.
func (n *Network) NodesView(class, field string) (*View, error) {
	c, err := n.Class(class)
	if err != nil {
		return nil, err
	}
	entry, ok := c.data[field]
	if !ok {
		return nil, &UnknownNameError{Kind: "field", Name: field}
	}
	return &View{owner: n, entry: entry, idx: c.idx, scope: class, size: c.Len()}, nil
}

// EdgesView returns a view over a per-edge field of a web.
func (n *Network) EdgesView(web, field string) (*View, error) {
	w, err := n.Web(web)
	if err != nil {
		return nil, err
	}
	entry, ok := w.data[field]
	if !ok {
		return nil, &UnknownNameError{Kind: "field", Name: field}
	}
	return &View{owner: n, entry: entry, scope: web, size: w.NEdges()}, nil
}

// GraphView returns a view over a graph-level field.
func (n *Network) GraphView(field string) (*View, error) {
	entry, ok := n.data[field]
	if !ok {
		return nil, &UnknownNameError{Kind: "field", Name: field}
	}
	return &View{owner: n, entry: entry, size: -1}, nil
}

// Len returns the value's element count, or -1 for a non-indexed
// graph-level value.
func (v *View) Len() int {
	length := -1
	v.entry.Read(func(val interface{}) {
		rv := reflect.ValueOf(val)
		switch rv.Kind() {
		case reflect.Slice, reflect.Map:
			length = rv.Len()
		}
	})
	return length
}

// Read calls fn with the current value. The same borrowing contract as
// cow.Entry.Read applies: fn must not retain or mutate it.
func (v *View) Read(fn func(val interface{})) {
	v.entry.Read(fn)
}

// Mutate runs fn against the value for in-place mutation, copy-on-write.
func (v *View) Mutate(fn func(val interface{})) error {
	return v.entry.Mutate(fn)
}

// Reassign replaces the whole value. For per-node and per-edge fields the
// replacement must keep the target's length.
func (v *View) Reassign(val interface{}) error {
	if v.size >= 0 {
		length, err := sliceLen(val)
		if err != nil {
			return err
		}
		if length != v.size {
			return &SizeMismatchError{
				What: fmt.Sprintf("replacement value for %q", v.scope),
				Want: v.size,
				Got:  length,
			}
		}
	}
	return v.entry.Reassign(val)
}

// Values copies the whole value out.
func (v *View) Values() (interface{}, error) {
	var out interface{}
	var err error
	v.entry.Read(func(val interface{}) {
		out, err = cow.Clone(val)
	})
	return out, err
}

// At returns the element at position i.
func (v *View) At(i int) (interface{}, error) {
	var out interface{}
	var err error
	v.entry.Read(func(val interface{}) {
		rv := reflect.ValueOf(val)
		if rv.Kind() != reflect.Slice {
			err = &ShapeError{Reason: "indexed access needs a slice value"}
			return
		}
		if i < 0 || i >= rv.Len() {
			err = &RangeError{Index: i, Length: rv.Len()}
			return
		}
		out = rv.Index(i).Interface()
	})
	return out, err
}

// SetAt replaces the element at position i, copy-on-write.
func (v *View) SetAt(i int, x interface{}) error {
	if err := v.checkElem(i, x); err != nil {
		return err
	}
	return v.entry.Mutate(func(val interface{}) {
		reflect.ValueOf(val).Index(i).Set(reflect.ValueOf(x))
	})
}

// checkElem validates bounds and element type before any mutation, so a
// failing SetAt has no side effect.
func (v *View) checkElem(i int, x interface{}) error {
	var err error
	v.entry.Read(func(val interface{}) {
		rv := reflect.ValueOf(val)
		if rv.Kind() != reflect.Slice {
			err = &ShapeError{Reason: "indexed access needs a slice value"}
			return
		}
		if i < 0 || i >= rv.Len() {
			err = &RangeError{Index: i, Length: rv.Len()}
			return
		}
		want := rv.Type().Elem()
		got := reflect.TypeOf(x)
		if got != want {
			err = &cow.TypeMismatchError{Want: want.String(), Got: typeString(got)}
		}
	})
	return err
}

// position resolves a label through the class index.
func (v *View) position(label string) (int, error) {
	if v.idx == nil {
		return 0, &ShapeError{Reason: fmt.Sprintf("view of %q has no label index", v.scope)}
	}
	pos, ok := v.idx.PositionOf(label)
	if !ok {
		return 0, &LabelError{Label: label, Class: v.scope, Valid: v.idx.Labels()}
	}
	return pos, nil
}

// Label returns the element for a node label.
func (v *View) Label(label string) (interface{}, error) {
	pos, err := v.position(label)
	if err != nil {
		return nil, err
	}
	return v.At(pos)
}

// SetLabel replaces the element for a node label, copy-on-write.
func (v *View) SetLabel(label string, x interface{}) error {
	pos, err := v.position(label)
	if err != nil {
		return err
	}
	return v.SetAt(pos, x)
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	return t.String()
}
