// Package restrict describes how a subclass selects positions out of its
// parent's position space, with local⇄parent index conversion.
//
// The set of representations is closed: Full (everything), Span (one
// contiguous run), Sparse (explicit sorted positions) and Runs
// (run-length encoded with prefix sums). FromMask picks the most compact
// representation for a boolean mask. All variants are immutable once built.
package restrict

import (
	"fmt"
	"sort"
)

// Restriction selects a subset of a parent's positions. Local positions
// are dense 0..Len()-1 in the parent's relative order.
type Restriction interface {
	// Len returns the number of selected parent positions.
	Len() int

	// Contains reports whether the parent position is selected.
	Contains(parent int) bool

	// ToParent converts a local position to the parent position it selects.
	// The local position must be in [0, Len()).
	ToParent(local int) int

	// ToLocal converts a selected parent position to its local position.
	// The result is undefined unless Contains(parent) holds; callers must
	// check membership first when the position is untrusted.
	ToLocal(parent int) int

	// Each calls fn with every selected parent position in ascending order.
	Each(fn func(parent int))

	// Mask materializes the selection as a boolean mask over a parent of
	// size n.
	Mask(n int) []bool

	isRestriction()
}

// Full selects every position of a parent of size n.
type Full struct {
	n int
}

// NewFull returns the restriction selecting all of 0..n-1.
func NewFull(n int) *Full {
	return &Full{n: n}
}

func (r *Full) Len() int               { return r.n }
func (r *Full) Contains(parent int) bool { return parent >= 0 && parent < r.n }
func (r *Full) ToParent(local int) int { return local }
func (r *Full) ToLocal(parent int) int { return parent }
func (r *Full) isRestriction()         {}

func (r *Full) Each(fn func(parent int)) {
	for i := 0; i < r.n; i++ {
		fn(i)
	}
}

func (r *Full) Mask(n int) []bool {
	mask := make([]bool, n)
	for i := 0; i < r.n && i < n; i++ {
		mask[i] = true
	}
	return mask
}

// Span selects one contiguous run of parent positions, lo..hi inclusive.
type Span struct {
	lo, hi int
}

// NewSpan returns the restriction selecting lo..hi inclusive.
func NewSpan(lo, hi int) (*Span, error) {
	if lo < 0 || hi < lo {
		return nil, fmt.Errorf("invalid span %d..%d", lo, hi)
	}
	return &Span{lo: lo, hi: hi}, nil
}

func (r *Span) Len() int                 { return r.hi - r.lo + 1 }
func (r *Span) Contains(parent int) bool { return parent >= r.lo && parent <= r.hi }
func (r *Span) ToParent(local int) int   { return r.lo + local }
func (r *Span) ToLocal(parent int) int   { return parent - r.lo }
func (r *Span) isRestriction()           {}

func (r *Span) Each(fn func(parent int)) {
	for i := r.lo; i <= r.hi; i++ {
		fn(i)
	}
}

func (r *Span) Mask(n int) []bool {
	mask := make([]bool, n)
	for i := r.lo; i <= r.hi && i < n; i++ {
		mask[i] = true
	}
	return mask
}

// Sparse selects an arbitrary subset, stored as sorted parent positions.
// Membership and conversion are binary searches.
type Sparse struct {
	pos []int
}

// NewSparse returns the restriction selecting exactly the given parent
// positions, which must be non-negative, strictly ascending.
func NewSparse(positions []int) (*Sparse, error) {
	pos := make([]int, len(positions))
	copy(pos, positions)
	for i, p := range pos {
		if p < 0 {
			return nil, fmt.Errorf("negative position %d", p)
		}
		if i > 0 && pos[i-1] >= p {
			return nil, fmt.Errorf("positions not strictly ascending at %d", p)
		}
	}
	return &Sparse{pos: pos}, nil
}

func (r *Sparse) Len() int { return len(r.pos) }

func (r *Sparse) Contains(parent int) bool {
	i := sort.SearchInts(r.pos, parent)
	return i < len(r.pos) && r.pos[i] == parent
}

func (r *Sparse) ToParent(local int) int { return r.pos[local] }

func (r *Sparse) ToLocal(parent int) int {
	return sort.SearchInts(r.pos, parent)
}

func (r *Sparse) isRestriction() {}

func (r *Sparse) Each(fn func(parent int)) {
	for _, p := range r.pos {
		fn(p)
	}
}

func (r *Sparse) Mask(n int) []bool {
	mask := make([]bool, n)
	for _, p := range r.pos {
		if p < n {
			mask[p] = true
		}
	}
	return mask
}

// run is one maximal contiguous block of selected parent positions.
type run struct {
	lo, hi int
}

// Runs selects a subset as disjoint sorted runs plus prefix sums of their
// sizes, so conversions are a binary search over run boundaries.
//
// With cum[k] the number of selected positions before run k:
//
//	ToParent(j) = runs[k].lo + (j - cum[k])   for the greatest k with cum[k] <= j
//	ToLocal(p)  = cum[k] + (p - runs[k].lo)   for the run k containing p
type Runs struct {
	runs []run
	cum  []int
	n    int // total selected
}

func (r *Runs) Len() int { return r.n }

// runFor returns the index of the last run with lo <= parent, or -1.
func (r *Runs) runFor(parent int) int {
	return sort.Search(len(r.runs), func(i int) bool {
		return r.runs[i].lo > parent
	}) - 1
}

func (r *Runs) Contains(parent int) bool {
	k := r.runFor(parent)
	return k >= 0 && parent <= r.runs[k].hi
}

func (r *Runs) ToParent(local int) int {
	k := sort.Search(len(r.cum), func(i int) bool {
		return r.cum[i] > local
	}) - 1
	return r.runs[k].lo + (local - r.cum[k])
}

func (r *Runs) ToLocal(parent int) int {
	k := r.runFor(parent)
	return r.cum[k] + (parent - r.runs[k].lo)
}

func (r *Runs) isRestriction() {}

func (r *Runs) Each(fn func(parent int)) {
	for _, rn := range r.runs {
		for p := rn.lo; p <= rn.hi; p++ {
			fn(p)
		}
	}
}

func (r *Runs) Mask(n int) []bool {
	mask := make([]bool, n)
	for _, rn := range r.runs {
		for p := rn.lo; p <= rn.hi && p < n; p++ {
			mask[p] = true
		}
	}
	return mask
}

// FromMask scans the mask once and picks the most compact representation:
// a single run covering the whole mask becomes Full, any other single run
// becomes Span, and an arbitrary subset becomes Sparse while the position
// list stays no larger than three entries per run, Runs beyond that. The
// threshold is a space heuristic, but it is deterministic and pinned by
// tests: callers may rely on the variant chosen for a given mask.
func FromMask(mask []bool) Restriction {
	var positions []int
	var runs []run

	for i, b := range mask {
		if !b {
			continue
		}
		positions = append(positions, i)
		if len(runs) > 0 && runs[len(runs)-1].hi == i-1 {
			runs[len(runs)-1].hi = i
		} else {
			runs = append(runs, run{lo: i, hi: i})
		}
	}

	switch {
	case len(runs) == 1 && runs[0].lo == 0 && runs[0].hi == len(mask)-1:
		return NewFull(len(mask))
	case len(runs) == 1:
		return &Span{lo: runs[0].lo, hi: runs[0].hi}
	case len(positions) <= 3*len(runs):
		return &Sparse{pos: positions}
	default:
		cum := make([]int, len(runs))
		total := 0
		for i, rn := range runs {
			cum[i] = total
			total += rn.hi - rn.lo + 1
		}
		return &Runs{runs: runs, cum: cum, n: total}
	}
}
