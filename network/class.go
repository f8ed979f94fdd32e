package network

import (
	"graphstore/cow"
	"graphstore/index"
	"graphstore/restrict"
)

// Class is one node compartment: a name, an optional parent, the
// restriction carving it out of the parent's position space, its own
// label index and an append-only set of data fields. A class created by
// AddClass has no parent and its restriction is relative to the root
// index; a subclass's restriction is relative to its immediate parent.
type Class struct {
	name   string
	parent string // "" for a root-derived class
	res    restrict.Restriction
	idx    *index.Index
	data   map[string]*cow.Entry
	fields []string
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// Parent returns the parent class name, or "" for a root-derived class.
func (c *Class) Parent() string { return c.parent }

// Len returns the number of nodes in the class.
func (c *Class) Len() int { return c.idx.Len() }

// Labels returns the class's node labels in position order.
func (c *Class) Labels() []string { return c.idx.Labels() }

// Has reports whether the label belongs to the class.
func (c *Class) Has(label string) bool { return c.idx.Has(label) }

// PositionOf returns the class-local position of a label.
func (c *Class) PositionOf(label string) (int, bool) { return c.idx.PositionOf(label) }

// Restriction returns the (immutable) restriction relative to the parent.
func (c *Class) Restriction() restrict.Restriction { return c.res }

// Fields returns the names of the data fields attached to the class, in
// attachment order.
func (c *Class) Fields() []string {
	out := make([]string, len(c.fields))
	copy(out, c.fields)
	return out
}

// fork shares the class structure and forks every data entry. The index
// and restriction are immutable after construction and stay shared.
func (c *Class) fork() *Class {
	out := &Class{
		name:   c.name,
		parent: c.parent,
		res:    c.res,
		idx:    c.idx,
		data:   make(map[string]*cow.Entry, len(c.data)),
		fields: make([]string, len(c.fields)),
	}
	copy(out.fields, c.fields)
	for name, e := range c.data {
		out.data[name] = e.Fork()
	}
	return out
}

func (c *Class) release() {
	for _, e := range c.data {
		e.Release()
	}
}
