// Package network composes the copy-on-write store: a root label index,
// hierarchical node classes, edge webs and data fields at every level,
// all forkable in O(1) regardless of the amount of attached data.
//
// The structure is append-only: classes, webs, labels and fields are
// added, never removed or replaced, and every mutator validates its
// arguments before touching any state, so a failed call leaves the
// network exactly as it was.
package network

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"graphstore/cow"
	"graphstore/index"
	"graphstore/restrict"
	"graphstore/topology"
)

// Network owns the root class index, the named classes and webs, and
// graph-level data fields. It is the unit that is forked.
type Network struct {
	id         string
	root       *cow.Entry // holds *index.Index
	classes    map[string]*Class
	classOrder []string
	webs       map[string]*Web
	webOrder   []string
	data       map[string]*cow.Entry
	fieldOrder []string

	// restrictions caches mask-built restrictions by their mask encoding
	// so repeated subclass masks share one immutable value.
	restrictions map[string]restrict.Restriction
}

// New creates an empty network.
func New() *Network {
	root, err := cow.NewEntry(index.New())
	if err != nil {
		// The index implements cow.Cloner.
		panic(err)
	}
	return &Network{
		id:           uuid.NewString(),
		root:         root,
		classes:      make(map[string]*Class),
		webs:         make(map[string]*Web),
		data:         make(map[string]*cow.Entry),
		restrictions: make(map[string]restrict.Restriction),
	}
}

// ID returns the unique identity of this network instance. A fork gets a
// fresh ID.
func (n *Network) ID() string { return n.id }

// NNodes returns the size of the root index.
func (n *Network) NNodes() int {
	var size int
	n.root.Read(func(v interface{}) { size = v.(*index.Index).Len() })
	return size
}

// Labels returns all root labels in position order.
func (n *Network) Labels() []string {
	var labels []string
	n.root.Read(func(v interface{}) { labels = v.(*index.Index).Labels() })
	return labels
}

// ClassNames returns the class names in creation order.
func (n *Network) ClassNames() []string {
	out := make([]string, len(n.classOrder))
	copy(out, n.classOrder)
	return out
}

// WebNames returns the web names in creation order.
func (n *Network) WebNames() []string {
	out := make([]string, len(n.webOrder))
	copy(out, n.webOrder)
	return out
}

// FieldNames returns the graph-level field names in attachment order.
func (n *Network) FieldNames() []string {
	out := make([]string, len(n.fieldOrder))
	copy(out, n.fieldOrder)
	return out
}

// NFields returns the number of graph-level fields.
func (n *Network) NFields() int { return len(n.fieldOrder) }

// Class returns a class by name.
func (n *Network) Class(name string) (*Class, error) {
	c, ok := n.classes[name]
	if !ok {
		return nil, &UnknownNameError{Kind: "class", Name: name}
	}
	return c, nil
}

// Web returns a web by name.
func (n *Network) Web(name string) (*Web, error) {
	w, ok := n.webs[name]
	if !ok {
		return nil, &UnknownNameError{Kind: "web", Name: name}
	}
	return w, nil
}

// NEdges returns the edge count of the named web.
func (n *Network) NEdges(web string) (int, error) {
	w, err := n.Web(web)
	if err != nil {
		return 0, err
	}
	return w.NEdges(), nil
}

// checkName rejects a class/web name already used in the shared namespace.
func (n *Network) checkName(kind, name string) error {
	if name == "" {
		return &ShapeError{Reason: kind + " name must not be empty"}
	}
	if _, ok := n.classes[name]; ok {
		return &NameConflictError{Kind: "class", Name: name}
	}
	if _, ok := n.webs[name]; ok {
		return &NameConflictError{Kind: "web", Name: name}
	}
	return nil
}

// AddClass appends labels to the root index and creates a class spanning
// exactly the newly appended positions. It fails if the name is taken or
// any label already exists anywhere in the root.
func (n *Network) AddClass(name string, labels []string) error {
	if err := n.checkName("class", name); err != nil {
		return err
	}
	if len(labels) == 0 {
		return &ShapeError{Reason: fmt.Sprintf("class %q needs at least one label", name)}
	}

	var conflict error
	seen := make(map[string]bool, len(labels))
	n.root.Read(func(v interface{}) {
		ix := v.(*index.Index)
		for _, l := range labels {
			if ix.Has(l) || seen[l] {
				conflict = &NameConflictError{Kind: "label", Name: l}
				return
			}
			seen[l] = true
		}
	})
	if conflict != nil {
		return conflict
	}

	start := n.NNodes()
	var appendErr error
	if err := n.root.Mutate(func(v interface{}) {
		appendErr = v.(*index.Index).Append(labels)
	}); err != nil {
		return err
	}
	if appendErr != nil {
		return appendErr
	}

	span, err := restrict.NewSpan(start, start+len(labels)-1)
	if err != nil {
		return err
	}
	idx, err := index.FromLabels(labels)
	if err != nil {
		return err
	}

	n.classes[name] = &Class{
		name: name,
		res:  span,
		idx:  idx,
		data: make(map[string]*cow.Entry),
	}
	n.classOrder = append(n.classOrder, name)
	return nil
}

// AddSubclass creates a class selecting a subset of an existing class's
// positions through the given restriction.
func (n *Network) AddSubclass(parent, name string, res restrict.Restriction) error {
	if err := n.checkName("class", name); err != nil {
		return err
	}
	p, err := n.Class(parent)
	if err != nil {
		return err
	}
	if res.Len() > 0 {
		if last := res.ToParent(res.Len() - 1); last >= p.Len() {
			return &SizeMismatchError{
				What: fmt.Sprintf("restriction for subclass %q of %q", name, parent),
				Want: p.Len(),
				Got:  last + 1,
			}
		}
	}

	n.classes[name] = &Class{
		name:   name,
		parent: parent,
		res:    res,
		idx:    p.idx.Derive(res),
		data:   make(map[string]*cow.Entry),
	}
	n.classOrder = append(n.classOrder, name)
	return nil
}

// AddSubclassMask creates a subclass from a boolean mask over the parent's
// positions, picking the most compact restriction representation.
func (n *Network) AddSubclassMask(parent, name string, mask []bool) error {
	p, err := n.Class(parent)
	if err != nil {
		return err
	}
	if len(mask) != p.Len() {
		return &SizeMismatchError{
			What: fmt.Sprintf("mask for subclass %q of %q", name, parent),
			Want: p.Len(),
			Got:  len(mask),
		}
	}
	return n.AddSubclass(parent, name, n.cachedRestriction(mask))
}

// AddSubclassPattern creates a subclass of the labels matching a
// doublestar glob pattern.
func (n *Network) AddSubclassPattern(parent, name, pattern string) error {
	p, err := n.Class(parent)
	if err != nil {
		return err
	}
	mask, err := p.idx.Match(pattern)
	if err != nil {
		return err
	}
	return n.AddSubclassMask(parent, name, mask)
}

// cachedRestriction memoizes mask-built restrictions; they are immutable,
// so identical masks share one value.
func (n *Network) cachedRestriction(mask []bool) restrict.Restriction {
	key := make([]byte, len(mask))
	for i, b := range mask {
		if b {
			key[i] = '1'
		} else {
			key[i] = '0'
		}
	}
	if r, ok := n.restrictions[string(key)]; ok {
		return r
	}
	r := restrict.FromMask(mask)
	n.restrictions[string(key)] = r
	return r
}

// AddWeb attaches a named topology between two classes. The topology's
// node counts must match the class sizes, and reflexive or symmetric
// shapes must connect a class to itself.
func (n *Network) AddWeb(name, source, target string, topo topology.Topology) error {
	if err := n.checkName("web", name); err != nil {
		return err
	}
	src, err := n.Class(source)
	if err != nil {
		return err
	}
	tgt, err := n.Class(target)
	if err != nil {
		return err
	}

	switch topo.(type) {
	case *topology.SparseReflexive, *topology.FullReflexive,
		*topology.SparseSymmetric, *topology.FullSymmetric:
		if source != target {
			return &ShapeError{Reason: fmt.Sprintf(
				"web %q: %s topology connects a class to itself, got %q and %q",
				name, topology.Kind(topo), source, target)}
		}
	}

	if topo.NSources() != src.Len() {
		return &SizeMismatchError{
			What: fmt.Sprintf("web %q source side (class %q)", name, source),
			Want: src.Len(),
			Got:  topo.NSources(),
		}
	}
	if topo.NTargets() != tgt.Len() {
		return &SizeMismatchError{
			What: fmt.Sprintf("web %q target side (class %q)", name, target),
			Want: tgt.Len(),
			Got:  topo.NTargets(),
		}
	}

	n.webs[name] = &Web{
		name:   name,
		source: source,
		target: target,
		topo:   topo,
		data:   make(map[string]*cow.Entry),
	}
	n.webOrder = append(n.webOrder, name)
	return nil
}

// sliceLen validates a per-node or per-edge value: it must be a slice of
// the expected length.
func sliceLen(values interface{}) (int, error) {
	rv := reflect.ValueOf(values)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return 0, &ShapeError{Reason: "per-node and per-edge field values must be a slice"}
	}
	return rv.Len(), nil
}

// AddClassField attaches per-node data to a class. The value must be a
// copyable slice with one element per node.
func (n *Network) AddClassField(class, field string, values interface{}) error {
	c, err := n.Class(class)
	if err != nil {
		return err
	}
	if _, ok := c.data[field]; ok {
		return &NameConflictError{Kind: "field", Name: field}
	}
	length, err := sliceLen(values)
	if err != nil {
		return err
	}
	if length != c.Len() {
		return &SizeMismatchError{
			What: fmt.Sprintf("field %q on class %q", field, class),
			Want: c.Len(),
			Got:  length,
		}
	}
	entry, err := cow.NewEntry(values)
	if err != nil {
		return err
	}
	c.data[field] = entry
	c.fields = append(c.fields, field)
	return nil
}

// AddWebField attaches per-edge data to a web. The value must be a
// copyable slice with one element per edge.
func (n *Network) AddWebField(web, field string, values interface{}) error {
	w, err := n.Web(web)
	if err != nil {
		return err
	}
	if _, ok := w.data[field]; ok {
		return &NameConflictError{Kind: "field", Name: field}
	}
	length, err := sliceLen(values)
	if err != nil {
		return err
	}
	if length != w.NEdges() {
		return &SizeMismatchError{
			What: fmt.Sprintf("field %q on web %q", field, web),
			Want: w.NEdges(),
			Got:  length,
		}
	}
	entry, err := cow.NewEntry(values)
	if err != nil {
		return err
	}
	w.data[field] = entry
	w.fields = append(w.fields, field)
	return nil
}

// AddGraphField attaches graph-level data to the network itself. Any
// copyable value is accepted; there is no size constraint.
func (n *Network) AddGraphField(field string, value interface{}) error {
	if _, ok := n.data[field]; ok {
		return &NameConflictError{Kind: "field", Name: field}
	}
	entry, err := cow.NewEntry(value)
	if err != nil {
		return err
	}
	n.data[field] = entry
	n.fieldOrder = append(n.fieldOrder, field)
	return nil
}

// Fork returns an independent copy of the network in O(1) relative to the
// attached data: every field entry is forked (use count bump), structure
// tables are shallow-copied, and immutable indexes, restrictions and
// topologies stay shared. Writes after the fork are invisible across it
// in both directions.
func (n *Network) Fork() *Network {
	out := &Network{
		id:           uuid.NewString(),
		root:         n.root.Fork(),
		classes:      make(map[string]*Class, len(n.classes)),
		classOrder:   make([]string, len(n.classOrder)),
		webs:         make(map[string]*Web, len(n.webs)),
		webOrder:     make([]string, len(n.webOrder)),
		data:         make(map[string]*cow.Entry, len(n.data)),
		fieldOrder:   make([]string, len(n.fieldOrder)),
		restrictions: make(map[string]restrict.Restriction, len(n.restrictions)),
	}
	copy(out.classOrder, n.classOrder)
	copy(out.webOrder, n.webOrder)
	copy(out.fieldOrder, n.fieldOrder)
	for name, c := range n.classes {
		out.classes[name] = c.fork()
	}
	for name, w := range n.webs {
		out.webs[name] = w.fork()
	}
	for name, e := range n.data {
		out.data[name] = e.Fork()
	}
	for key, r := range n.restrictions {
		out.restrictions[key] = r
	}
	return out
}

// Release drops the network's share of every field it holds. Fields no
// longer held by any network are freed. Using the network afterwards is a
// programming error.
func (n *Network) Release() {
	n.root.Release()
	for _, c := range n.classes {
		c.release()
	}
	for _, w := range n.webs {
		w.release()
	}
	for _, e := range n.data {
		e.Release()
	}
}
