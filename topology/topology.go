// Package topology implements the edge-level structures connecting two
// node classes (or a class to itself): foreign, reflexive and symmetric
// incidence shapes, each in a sparse (adjacency) and a full (formula-only)
// density. The set of shapes is closed.
//
// Edges carry a dense 0-based index in canonical row-major order, with the
// source the slower-varying coordinate; for the symmetric shape only pairs
// with source >= target are canonical and edges are numbered row-major
// over that lower triangle. Edge indices are assigned once at construction
// and stable for the lifetime of the topology. Building from a dense
// boolean matrix or from the equivalent coordinate list yields identical
// edge-to-index assignments.
package topology

import (
	"fmt"
	"sort"
)

// Incidence pairs a neighboring node with the index of the connecting edge.
type Incidence struct {
	Node int
	Edge int
}

// Coord names one edge by source and target position.
type Coord struct {
	Source int
	Target int
}

// Topology is the query contract shared by every shape.
type Topology interface {
	// NSources returns the size of the source position space.
	NSources() int

	// NTargets returns the size of the target position space.
	NTargets() int

	// NEdges returns the number of edges. Symmetric shapes count each
	// undirected pair once.
	NEdges() int

	// IsEdge reports whether the edge exists. Out-of-bounds positions
	// report false.
	IsEdge(source, target int) bool

	// EdgeIndex returns the canonical index of an edge assumed to exist,
	// or -1 when it does not. Callers with untrusted positions must check
	// IsEdge first.
	EdgeIndex(source, target int) int

	// Targets returns the (target, edge) incidences of a source in
	// ascending target order.
	Targets(source int) []Incidence

	// Sources returns the (source, edge) incidences of a target in
	// ascending source order.
	Sources(target int) []Incidence

	// EachEdge visits every edge in canonical order.
	EachEdge(fn func(source, target, edge int))

	// EachSource visits every source node with its targets, in forward
	// order, optionally skipping nodes with no outgoing edges.
	EachSource(skipEmpty bool, fn func(source int, targets []Incidence))

	// EachTarget visits every target node with its sources, in backward
	// orientation, optionally skipping nodes with no incoming edges.
	EachTarget(skipEmpty bool, fn func(target int, sources []Incidence))

	isTopology()
}

// Symmetric is the extended contract of the undirected shapes: edge data
// is reachable from either endpoint with identical semantics.
type Symmetric interface {
	Topology

	// Adjacency returns the incidences of a node. With canonicalOnly set
	// only neighbors in the canonical lower-triangular direction
	// (neighbor <= node) are enumerated, so that iterating all nodes
	// visits each undirected edge exactly once.
	Adjacency(node int, canonicalOnly bool) []Incidence
}

// Kind names the concrete shape of a topology. The set of shapes is
// closed, so the switch is exhaustive.
func Kind(t Topology) string {
	switch t.(type) {
	case *SparseForeign:
		return "foreign"
	case *FullForeign:
		return "foreign-full"
	case *SparseReflexive:
		return "reflexive"
	case *FullReflexive:
		return "reflexive-full"
	case *SparseSymmetric:
		return "symmetric"
	case *FullSymmetric:
		return "symmetric-full"
	}
	return ""
}

// NotSquareError reports a non-square matrix offered to a reflexive or
// symmetric constructor.
type NotSquareError struct {
	Rows int
	Cols int
}

func (e *NotSquareError) Error() string {
	return fmt.Sprintf("reflexive and symmetric topologies need a square matrix, got %dx%d", e.Rows, e.Cols)
}

// checkDense validates a rectangular matrix and returns its dimensions.
func checkDense(dense [][]bool) (rows, cols int, err error) {
	rows = len(dense)
	if rows == 0 {
		return 0, 0, nil
	}
	cols = len(dense[0])
	for i, row := range dense {
		if len(row) != cols {
			return 0, 0, fmt.Errorf("ragged matrix: row %d has %d columns, want %d", i, len(row), cols)
		}
	}
	return rows, cols, nil
}

// checkCoords validates coordinate bounds, sorts row-major and rejects
// duplicates, so that coordinate construction assigns the same edge
// indices as a dense scan.
func checkCoords(nSources, nTargets int, coords []Coord) ([]Coord, error) {
	sorted := make([]Coord, len(coords))
	copy(sorted, coords)
	for _, c := range sorted {
		if c.Source < 0 || c.Source >= nSources || c.Target < 0 || c.Target >= nTargets {
			return nil, fmt.Errorf("edge (%d, %d) out of bounds for %dx%d", c.Source, c.Target, nSources, nTargets)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Source != sorted[j].Source {
			return sorted[i].Source < sorted[j].Source
		}
		return sorted[i].Target < sorted[j].Target
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, fmt.Errorf("duplicate edge (%d, %d)", sorted[i].Source, sorted[i].Target)
		}
	}
	return sorted, nil
}

// adjacency holds per-node incidence lists both directions for the sparse
// directed shapes.
type adjacency struct {
	out    [][]Incidence
	in     [][]Incidence
	nEdges int
}

// buildAdjacency assigns edge indices to canonically sorted coords and
// fills both adjacency directions.
func buildAdjacency(nSources, nTargets int, sorted []Coord) adjacency {
	a := adjacency{
		out:    make([][]Incidence, nSources),
		in:     make([][]Incidence, nTargets),
		nEdges: len(sorted),
	}
	for edge, c := range sorted {
		a.out[c.Source] = append(a.out[c.Source], Incidence{Node: c.Target, Edge: edge})
		a.in[c.Target] = append(a.in[c.Target], Incidence{Node: c.Source, Edge: edge})
	}
	for t := range a.in {
		sort.Slice(a.in[t], func(i, j int) bool { return a.in[t][i].Node < a.in[t][j].Node })
	}
	return a
}

// findIncidence binary-searches an incidence list sorted by node.
func findIncidence(list []Incidence, node int) (Incidence, bool) {
	i := sort.Search(len(list), func(k int) bool { return list[k].Node >= node })
	if i < len(list) && list[i].Node == node {
		return list[i], true
	}
	return Incidence{}, false
}

// denseCoords extracts the true cells of a matrix in row-major order.
func denseCoords(dense [][]bool) []Coord {
	var coords []Coord
	for s, row := range dense {
		for t, b := range row {
			if b {
				coords = append(coords, Coord{Source: s, Target: t})
			}
		}
	}
	return coords
}

// copyIncidences returns a defensive copy so callers cannot disturb the
// stored adjacency.
func copyIncidences(list []Incidence) []Incidence {
	out := make([]Incidence, len(list))
	copy(out, list)
	return out
}

// eachNode drives the skip-empty node iteration shared by all shapes.
func eachNode(n int, rows func(i int) []Incidence, skipEmpty bool, fn func(node int, inc []Incidence)) {
	for i := 0; i < n; i++ {
		inc := rows(i)
		if skipEmpty && len(inc) == 0 {
			continue
		}
		fn(i, inc)
	}
}
