package topology

import "fmt"

// SparseReflexive connects a class to itself with directed edges,
// self-loops allowed, keeping incoming and outgoing adjacency per node.
type SparseReflexive struct {
	n   int
	adj adjacency
}

// NewReflexive builds a sparse reflexive topology from a dense boolean
// matrix, which must be square.
func NewReflexive(dense [][]bool) (*SparseReflexive, error) {
	rows, cols, err := checkDense(dense)
	if err != nil {
		return nil, err
	}
	if rows != cols {
		return nil, &NotSquareError{Rows: rows, Cols: cols}
	}
	return &SparseReflexive{
		n:   rows,
		adj: buildAdjacency(rows, rows, denseCoords(dense)),
	}, nil
}

// ReflexiveFromCoords builds a sparse reflexive topology over n nodes from
// a coordinate list, assigning the same edge indices as NewReflexive on
// the equivalent matrix.
func ReflexiveFromCoords(n int, coords []Coord) (*SparseReflexive, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative topology size %d", n)
	}
	sorted, err := checkCoords(n, n, coords)
	if err != nil {
		return nil, err
	}
	return &SparseReflexive{n: n, adj: buildAdjacency(n, n, sorted)}, nil
}

func (r *SparseReflexive) NSources() int { return r.n }
func (r *SparseReflexive) NTargets() int { return r.n }
func (r *SparseReflexive) NEdges() int   { return r.adj.nEdges }
func (r *SparseReflexive) isTopology()   {}

func (r *SparseReflexive) IsEdge(source, target int) bool {
	if source < 0 || source >= r.n {
		return false
	}
	_, ok := findIncidence(r.adj.out[source], target)
	return ok
}

func (r *SparseReflexive) EdgeIndex(source, target int) int {
	if source < 0 || source >= r.n {
		return -1
	}
	inc, ok := findIncidence(r.adj.out[source], target)
	if !ok {
		return -1
	}
	return inc.Edge
}

func (r *SparseReflexive) Targets(source int) []Incidence {
	return copyIncidences(r.adj.out[source])
}

func (r *SparseReflexive) Sources(target int) []Incidence {
	return copyIncidences(r.adj.in[target])
}

func (r *SparseReflexive) EachEdge(fn func(source, target, edge int)) {
	for s, row := range r.adj.out {
		for _, inc := range row {
			fn(s, inc.Node, inc.Edge)
		}
	}
}

func (r *SparseReflexive) EachSource(skipEmpty bool, fn func(source int, targets []Incidence)) {
	eachNode(r.n, func(i int) []Incidence { return copyIncidences(r.adj.out[i]) }, skipEmpty, fn)
}

func (r *SparseReflexive) EachTarget(skipEmpty bool, fn func(target int, sources []Incidence)) {
	eachNode(r.n, func(i int) []Incidence { return copyIncidences(r.adj.in[i]) }, skipEmpty, fn)
}

// FullReflexive connects every node to every node, self-loops included.
type FullReflexive struct {
	n int
}

// NewFullReflexive builds the complete directed topology over n nodes.
func NewFullReflexive(n int) *FullReflexive {
	return &FullReflexive{n: n}
}

func (r *FullReflexive) NSources() int { return r.n }
func (r *FullReflexive) NTargets() int { return r.n }
func (r *FullReflexive) NEdges() int   { return r.n * r.n }
func (r *FullReflexive) isTopology()   {}

func (r *FullReflexive) IsEdge(source, target int) bool {
	return source >= 0 && source < r.n && target >= 0 && target < r.n
}

func (r *FullReflexive) EdgeIndex(source, target int) int {
	if !r.IsEdge(source, target) {
		return -1
	}
	return source*r.n + target
}

func (r *FullReflexive) Targets(source int) []Incidence {
	out := make([]Incidence, r.n)
	for t := range out {
		out[t] = Incidence{Node: t, Edge: source*r.n + t}
	}
	return out
}

func (r *FullReflexive) Sources(target int) []Incidence {
	out := make([]Incidence, r.n)
	for s := range out {
		out[s] = Incidence{Node: s, Edge: s*r.n + target}
	}
	return out
}

func (r *FullReflexive) EachEdge(fn func(source, target, edge int)) {
	for s := 0; s < r.n; s++ {
		for t := 0; t < r.n; t++ {
			fn(s, t, s*r.n+t)
		}
	}
}

func (r *FullReflexive) EachSource(skipEmpty bool, fn func(source int, targets []Incidence)) {
	eachNode(r.n, r.Targets, skipEmpty, fn)
}

func (r *FullReflexive) EachTarget(skipEmpty bool, fn func(target int, sources []Incidence)) {
	eachNode(r.n, r.Sources, skipEmpty, fn)
}
