package topology

import (
	"fmt"
	"sort"
)

// SparseSymmetric connects a class to itself with undirected edges. An
// edge between a and b is stored once under its canonical pair
// (max, min) and found from either endpoint.
type SparseSymmetric struct {
	n   int
	adj [][]Incidence
	m   int
}

// NewSymmetric builds a sparse symmetric topology from a dense boolean
// matrix, which must be square. A cell set on either side of the diagonal
// produces the same undirected edge, so a lower-triangular input with k
// true cells yields exactly k edges.
func NewSymmetric(dense [][]bool) (*SparseSymmetric, error) {
	rows, cols, err := checkDense(dense)
	if err != nil {
		return nil, err
	}
	if rows != cols {
		return nil, &NotSquareError{Rows: rows, Cols: cols}
	}

	var coords []Coord
	for s := 0; s < rows; s++ {
		for t := 0; t <= s; t++ {
			if dense[s][t] || dense[t][s] {
				coords = append(coords, Coord{Source: s, Target: t})
			}
		}
	}
	return newSymmetric(rows, coords), nil
}

// SymmetricFromCoords builds a sparse symmetric topology over n nodes.
// Coordinates are canonicalized to (max, min); both orientations of a
// pair name the same undirected edge. Edge indices match NewSymmetric on
// the equivalent matrix.
func SymmetricFromCoords(n int, coords []Coord) (*SparseSymmetric, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative topology size %d", n)
	}

	canonical := make([]Coord, 0, len(coords))
	for _, c := range coords {
		if c.Source < 0 || c.Source >= n || c.Target < 0 || c.Target >= n {
			return nil, fmt.Errorf("edge (%d, %d) out of bounds for %d nodes", c.Source, c.Target, n)
		}
		if c.Source < c.Target {
			c.Source, c.Target = c.Target, c.Source
		}
		canonical = append(canonical, c)
	}
	sort.Slice(canonical, func(i, j int) bool {
		if canonical[i].Source != canonical[j].Source {
			return canonical[i].Source < canonical[j].Source
		}
		return canonical[i].Target < canonical[j].Target
	})
	// Both orientations of a pair collapse to one edge.
	deduped := canonical[:0]
	for i, c := range canonical {
		if i == 0 || c != canonical[i-1] {
			deduped = append(deduped, c)
		}
	}
	return newSymmetric(n, deduped), nil
}

// newSymmetric assigns edge indices to canonically ordered lower-triangle
// coords and builds the per-node adjacency.
func newSymmetric(n int, coords []Coord) *SparseSymmetric {
	s := &SparseSymmetric{n: n, adj: make([][]Incidence, n), m: len(coords)}
	for edge, c := range coords {
		s.adj[c.Source] = append(s.adj[c.Source], Incidence{Node: c.Target, Edge: edge})
		if c.Source != c.Target {
			s.adj[c.Target] = append(s.adj[c.Target], Incidence{Node: c.Source, Edge: edge})
		}
	}
	for i := range s.adj {
		sort.Slice(s.adj[i], func(a, b int) bool { return s.adj[i][a].Node < s.adj[i][b].Node })
	}
	return s
}

func (s *SparseSymmetric) NSources() int { return s.n }
func (s *SparseSymmetric) NTargets() int { return s.n }
func (s *SparseSymmetric) NEdges() int   { return s.m }
func (s *SparseSymmetric) isTopology()   {}

func (s *SparseSymmetric) IsEdge(source, target int) bool {
	if source < 0 || source >= s.n {
		return false
	}
	_, ok := findIncidence(s.adj[source], target)
	return ok
}

func (s *SparseSymmetric) EdgeIndex(source, target int) int {
	if source < 0 || source >= s.n {
		return -1
	}
	inc, ok := findIncidence(s.adj[source], target)
	if !ok {
		return -1
	}
	return inc.Edge
}

// Adjacency returns the incidences of a node; with canonicalOnly set only
// the lower-triangular direction (neighbor <= node) is enumerated.
func (s *SparseSymmetric) Adjacency(node int, canonicalOnly bool) []Incidence {
	if !canonicalOnly {
		return copyIncidences(s.adj[node])
	}
	var out []Incidence
	for _, inc := range s.adj[node] {
		if inc.Node <= node {
			out = append(out, inc)
		}
	}
	return out
}

// Targets and Sources are the same view for an undirected topology: every
// incident neighbor, from either endpoint.
func (s *SparseSymmetric) Targets(source int) []Incidence { return s.Adjacency(source, false) }
func (s *SparseSymmetric) Sources(target int) []Incidence { return s.Adjacency(target, false) }

func (s *SparseSymmetric) EachEdge(fn func(source, target, edge int)) {
	for node := 0; node < s.n; node++ {
		for _, inc := range s.adj[node] {
			if inc.Node <= node {
				fn(node, inc.Node, inc.Edge)
			}
		}
	}
}

func (s *SparseSymmetric) EachSource(skipEmpty bool, fn func(source int, targets []Incidence)) {
	eachNode(s.n, func(i int) []Incidence { return copyIncidences(s.adj[i]) }, skipEmpty, fn)
}

func (s *SparseSymmetric) EachTarget(skipEmpty bool, fn func(target int, sources []Incidence)) {
	eachNode(s.n, func(i int) []Incidence { return copyIncidences(s.adj[i]) }, skipEmpty, fn)
}

// FullSymmetric connects every unordered pair of nodes, diagonal
// included; edge indices are row-major over the lower triangle.
type FullSymmetric struct {
	n int
}

// NewFullSymmetric builds the complete undirected topology over n nodes.
func NewFullSymmetric(n int) *FullSymmetric {
	return &FullSymmetric{n: n}
}

func (s *FullSymmetric) NSources() int { return s.n }
func (s *FullSymmetric) NTargets() int { return s.n }
func (s *FullSymmetric) NEdges() int   { return s.n * (s.n + 1) / 2 }
func (s *FullSymmetric) isTopology()   {}

func (s *FullSymmetric) IsEdge(source, target int) bool {
	return source >= 0 && source < s.n && target >= 0 && target < s.n
}

func (s *FullSymmetric) EdgeIndex(source, target int) int {
	if !s.IsEdge(source, target) {
		return -1
	}
	hi, lo := source, target
	if hi < lo {
		hi, lo = lo, hi
	}
	return hi*(hi+1)/2 + lo
}

// Adjacency returns the incidences of a node; with canonicalOnly set only
// neighbors <= node are enumerated.
func (s *FullSymmetric) Adjacency(node int, canonicalOnly bool) []Incidence {
	limit := s.n
	if canonicalOnly {
		limit = node + 1
	}
	out := make([]Incidence, 0, limit)
	for t := 0; t < limit; t++ {
		out = append(out, Incidence{Node: t, Edge: s.EdgeIndex(node, t)})
	}
	return out
}

func (s *FullSymmetric) Targets(source int) []Incidence { return s.Adjacency(source, false) }
func (s *FullSymmetric) Sources(target int) []Incidence { return s.Adjacency(target, false) }

func (s *FullSymmetric) EachEdge(fn func(source, target, edge int)) {
	for source := 0; source < s.n; source++ {
		for target := 0; target <= source; target++ {
			fn(source, target, source*(source+1)/2+target)
		}
	}
}

func (s *FullSymmetric) EachSource(skipEmpty bool, fn func(source int, targets []Incidence)) {
	eachNode(s.n, s.Targets, skipEmpty, fn)
}

func (s *FullSymmetric) EachTarget(skipEmpty bool, fn func(target int, sources []Incidence)) {
	eachNode(s.n, s.Sources, skipEmpty, fn)
}
