// Package index maintains the bidirectional label⇄position mapping for one
// node class. Positions are assigned sequentially in insertion order and
// never removed or reordered; a child index is derived from a parent index
// by filtering through a restriction.
package index

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"graphstore/restrict"
)

// Index maps unique labels to dense 0-based positions and back.
type Index struct {
	forward map[string]int
	labels  []string
}

// New returns an empty index.
func New() *Index {
	return &Index{forward: make(map[string]int)}
}

// FromLabels builds an index assigning positions in the given order.
func FromLabels(labels []string) (*Index, error) {
	ix := New()
	if err := ix.Append(labels); err != nil {
		return nil, err
	}
	return ix, nil
}

// Len returns the number of labels.
func (ix *Index) Len() int {
	return len(ix.labels)
}

// Has reports whether the label is present.
func (ix *Index) Has(label string) bool {
	_, ok := ix.forward[label]
	return ok
}

// PositionOf returns the position of a label.
func (ix *Index) PositionOf(label string) (int, bool) {
	pos, ok := ix.forward[label]
	return pos, ok
}

// LabelAt returns the label at a position.
func (ix *Index) LabelAt(pos int) (string, bool) {
	if pos < 0 || pos >= len(ix.labels) {
		return "", false
	}
	return ix.labels[pos], true
}

// Labels returns a copy of all labels in position order.
func (ix *Index) Labels() []string {
	out := make([]string, len(ix.labels))
	copy(out, ix.labels)
	return out
}

// Append assigns the next positions to the given labels. The call is
// all-or-nothing: if any label is already present, or repeated within the
// batch, nothing is appended.
func (ix *Index) Append(labels []string) error {
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if ix.Has(l) {
			return fmt.Errorf("label %q already indexed", l)
		}
		if seen[l] {
			return fmt.Errorf("label %q repeated", l)
		}
		seen[l] = true
	}
	for _, l := range labels {
		ix.forward[l] = len(ix.labels)
		ix.labels = append(ix.labels, l)
	}
	return nil
}

// Derive builds a child index over the labels the restriction selects,
// keeping the parent's relative order with recomputed dense positions.
func (ix *Index) Derive(r restrict.Restriction) *Index {
	child := New()
	r.Each(func(parent int) {
		label := ix.labels[parent]
		child.forward[label] = len(child.labels)
		child.labels = append(child.labels, label)
	})
	return child
}

// Match builds a membership mask by matching every label against a
// doublestar glob pattern.
func (ix *Index) Match(pattern string) ([]bool, error) {
	mask := make([]bool, len(ix.labels))
	for i, label := range ix.labels {
		ok, err := doublestar.Match(pattern, label)
		if err != nil {
			return nil, fmt.Errorf("matching pattern %q: %w", pattern, err)
		}
		mask[i] = ok
	}
	return mask, nil
}

// CloneValue deep-copies the index, letting it live inside a
// copy-on-write entry.
func (ix *Index) CloneValue() interface{} {
	out := &Index{
		forward: make(map[string]int, len(ix.forward)),
		labels:  make([]string, len(ix.labels)),
	}
	for k, v := range ix.forward {
		out.forward[k] = v
	}
	copy(out.labels, ix.labels)
	return out
}
