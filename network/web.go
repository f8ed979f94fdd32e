package network

import (
	"graphstore/cow"
	"graphstore/topology"
)

// Web is one named edge topology between two classes (or a class and
// itself) plus its own append-only set of data fields, one value per edge.
type Web struct {
	name   string
	source string
	target string
	topo   topology.Topology
	data   map[string]*cow.Entry
	fields []string
}

// Name returns the web name.
func (w *Web) Name() string { return w.name }

// Source returns the source class name.
func (w *Web) Source() string { return w.source }

// Target returns the target class name.
func (w *Web) Target() string { return w.target }

// Topology returns the (immutable) edge topology.
func (w *Web) Topology() topology.Topology { return w.topo }

// NEdges returns the number of edges.
func (w *Web) NEdges() int { return w.topo.NEdges() }

// Fields returns the names of the data fields attached to the web, in
// attachment order.
func (w *Web) Fields() []string {
	out := make([]string, len(w.fields))
	copy(out, w.fields)
	return out
}

func (w *Web) fork() *Web {
	out := &Web{
		name:   w.name,
		source: w.source,
		target: w.target,
		topo:   w.topo,
		data:   make(map[string]*cow.Entry, len(w.data)),
		fields: make([]string, len(w.fields)),
	}
	copy(out.fields, w.fields)
	for name, e := range w.data {
		out.data[name] = e.Fork()
	}
	return out
}

func (w *Web) release() {
	for _, e := range w.data {
		e.Release()
	}
}
