package topology

import "fmt"

// SparseForeign connects two distinct classes through explicit adjacency
// lists in both directions.
type SparseForeign struct {
	nSources int
	nTargets int
	adj      adjacency
}

// NewForeign builds a sparse foreign topology from a dense boolean matrix,
// scanning row-major and assigning edge indices on the fly.
func NewForeign(dense [][]bool) (*SparseForeign, error) {
	rows, cols, err := checkDense(dense)
	if err != nil {
		return nil, err
	}
	return &SparseForeign{
		nSources: rows,
		nTargets: cols,
		adj:      buildAdjacency(rows, cols, denseCoords(dense)),
	}, nil
}

// ForeignFromCoords builds a sparse foreign topology from a coordinate
// list. The same logical edge set yields the same edge indices as
// NewForeign.
func ForeignFromCoords(nSources, nTargets int, coords []Coord) (*SparseForeign, error) {
	if nSources < 0 || nTargets < 0 {
		return nil, fmt.Errorf("negative topology size %dx%d", nSources, nTargets)
	}
	sorted, err := checkCoords(nSources, nTargets, coords)
	if err != nil {
		return nil, err
	}
	return &SparseForeign{
		nSources: nSources,
		nTargets: nTargets,
		adj:      buildAdjacency(nSources, nTargets, sorted),
	}, nil
}

func (f *SparseForeign) NSources() int { return f.nSources }
func (f *SparseForeign) NTargets() int { return f.nTargets }
func (f *SparseForeign) NEdges() int   { return f.adj.nEdges }
func (f *SparseForeign) isTopology()   {}

func (f *SparseForeign) IsEdge(source, target int) bool {
	if source < 0 || source >= f.nSources {
		return false
	}
	_, ok := findIncidence(f.adj.out[source], target)
	return ok
}

func (f *SparseForeign) EdgeIndex(source, target int) int {
	if source < 0 || source >= f.nSources {
		return -1
	}
	inc, ok := findIncidence(f.adj.out[source], target)
	if !ok {
		return -1
	}
	return inc.Edge
}

func (f *SparseForeign) Targets(source int) []Incidence {
	return copyIncidences(f.adj.out[source])
}

func (f *SparseForeign) Sources(target int) []Incidence {
	return copyIncidences(f.adj.in[target])
}

func (f *SparseForeign) EachEdge(fn func(source, target, edge int)) {
	for s, row := range f.adj.out {
		for _, inc := range row {
			fn(s, inc.Node, inc.Edge)
		}
	}
}

func (f *SparseForeign) EachSource(skipEmpty bool, fn func(source int, targets []Incidence)) {
	eachNode(f.nSources, func(i int) []Incidence { return copyIncidences(f.adj.out[i]) }, skipEmpty, fn)
}

func (f *SparseForeign) EachTarget(skipEmpty bool, fn func(target int, sources []Incidence)) {
	eachNode(f.nTargets, func(i int) []Incidence { return copyIncidences(f.adj.in[i]) }, skipEmpty, fn)
}

// FullForeign connects every source to every target; edge indices are pure
// arithmetic and nothing is stored beyond the two sizes.
type FullForeign struct {
	nSources int
	nTargets int
}

// NewFullForeign builds the complete topology over the given sizes.
func NewFullForeign(nSources, nTargets int) *FullForeign {
	return &FullForeign{nSources: nSources, nTargets: nTargets}
}

func (f *FullForeign) NSources() int { return f.nSources }
func (f *FullForeign) NTargets() int { return f.nTargets }
func (f *FullForeign) NEdges() int   { return f.nSources * f.nTargets }
func (f *FullForeign) isTopology()   {}

func (f *FullForeign) IsEdge(source, target int) bool {
	return source >= 0 && source < f.nSources && target >= 0 && target < f.nTargets
}

func (f *FullForeign) EdgeIndex(source, target int) int {
	if !f.IsEdge(source, target) {
		return -1
	}
	return source*f.nTargets + target
}

func (f *FullForeign) Targets(source int) []Incidence {
	out := make([]Incidence, f.nTargets)
	for t := range out {
		out[t] = Incidence{Node: t, Edge: source*f.nTargets + t}
	}
	return out
}

func (f *FullForeign) Sources(target int) []Incidence {
	out := make([]Incidence, f.nSources)
	for s := range out {
		out[s] = Incidence{Node: s, Edge: s*f.nTargets + target}
	}
	return out
}

func (f *FullForeign) EachEdge(fn func(source, target, edge int)) {
	for s := 0; s < f.nSources; s++ {
		for t := 0; t < f.nTargets; t++ {
			fn(s, t, s*f.nTargets+t)
		}
	}
}

func (f *FullForeign) EachSource(skipEmpty bool, fn func(source int, targets []Incidence)) {
	eachNode(f.nSources, f.Targets, skipEmpty, fn)
}

func (f *FullForeign) EachTarget(skipEmpty bool, fn func(target int, sources []Incidence)) {
	eachNode(f.nTargets, f.Sources, skipEmpty, fn)
}
