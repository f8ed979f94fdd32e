package restrict

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkInvariants verifies the conversion laws every variant must satisfy
// over a parent of size n: Contains agrees with the mask, ToLocal/ToParent
// are inverse bijections, and Each visits positions ascending.
func checkInvariants(t *testing.T, r Restriction, mask []bool) {
	t.Helper()

	selected := 0
	for _, b := range mask {
		if b {
			selected++
		}
	}
	require.Equal(t, selected, r.Len())

	for i, b := range mask {
		require.Equal(t, b, r.Contains(i), "Contains(%d)", i)
		if b {
			require.Equal(t, i, r.ToParent(r.ToLocal(i)), "round trip parent %d", i)
		}
	}

	for j := 0; j < r.Len(); j++ {
		p := r.ToParent(j)
		require.True(t, r.Contains(p), "ToParent(%d)=%d not contained", j, p)
		require.Equal(t, j, r.ToLocal(p), "round trip local %d", j)
	}

	var visited []int
	r.Each(func(p int) { visited = append(visited, p) })
	require.Len(t, visited, r.Len())
	for j, p := range visited {
		require.Equal(t, r.ToParent(j), p)
	}

	require.Equal(t, mask, r.Mask(len(mask)))
}

func TestFull(t *testing.T) {
	r := NewFull(4)
	checkInvariants(t, r, []bool{true, true, true, true})
	assert.False(t, r.Contains(-1))
	assert.False(t, r.Contains(4))
}

func TestSpan(t *testing.T) {
	r, err := NewSpan(2, 4)
	require.NoError(t, err)
	checkInvariants(t, r, []bool{false, false, true, true, true, false})

	_, err = NewSpan(3, 2)
	require.Error(t, err)
	_, err = NewSpan(-1, 2)
	require.Error(t, err)
}

func TestSparse(t *testing.T) {
	r, err := NewSparse([]int{1, 4, 5})
	require.NoError(t, err)
	checkInvariants(t, r, []bool{false, true, false, false, true, true, false})

	_, err = NewSparse([]int{3, 3})
	require.Error(t, err)
	_, err = NewSparse([]int{4, 2})
	require.Error(t, err)
	_, err = NewSparse([]int{-1})
	require.Error(t, err)
}

func TestFromMaskPicksVariant(t *testing.T) {
	// Single run covering the whole parent: Full.
	r := FromMask([]bool{true, true, true})
	assert.IsType(t, &Full{}, r)

	// Exactly one run: Span.
	r = FromMask([]bool{false, true, true, false})
	assert.IsType(t, &Span{}, r)

	// Two runs, four selected: 4 <= 3*2, Sparse.
	r = FromMask([]bool{true, true, false, true, true})
	assert.IsType(t, &Sparse{}, r)

	// Two runs, seven selected: 7 > 3*2, Runs.
	r = FromMask([]bool{true, true, true, true, false, true, true, true})
	assert.IsType(t, &Runs{}, r)

	// Exactly at the threshold stays Sparse.
	r = FromMask([]bool{true, true, true, false, true, true, true})
	assert.IsType(t, &Sparse{}, r)

	// Empty selection.
	r = FromMask([]bool{false, false})
	assert.IsType(t, &Sparse{}, r)
	assert.Equal(t, 0, r.Len())
}

func TestFromMaskRoundTrip(t *testing.T) {
	masks := [][]bool{
		{},
		{true},
		{false},
		{true, false, true},
		{false, true, true, false, true},
		{true, true, true, true, false, true, true, true, false, true, true, true},
	}
	for _, mask := range masks {
		checkInvariants(t, FromMask(mask), mask)
	}
}

func TestRunsArithmetic(t *testing.T) {
	// Three runs with gaps: positions 1-4, 6-10, 13. Ten selected over
	// three runs exceeds the Sparse threshold.
	mask := make([]bool, 15)
	for _, p := range []int{1, 2, 3, 4, 6, 7, 8, 9, 10, 13} {
		mask[p] = true
	}
	r := FromMask(mask)
	require.IsType(t, &Runs{}, r)
	checkInvariants(t, r, mask)

	assert.Equal(t, 1, r.ToParent(0))
	assert.Equal(t, 4, r.ToParent(3))
	assert.Equal(t, 6, r.ToParent(4))
	assert.Equal(t, 10, r.ToParent(8))
	assert.Equal(t, 13, r.ToParent(9))
	assert.Equal(t, 5, r.ToLocal(7))
	assert.False(t, r.Contains(0))
	assert.False(t, r.Contains(5))
	assert.False(t, r.Contains(14))
}

func TestRunsAgainstSparseRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(60)
		mask := make([]bool, n)
		var positions []int
		for i := range mask {
			if rng.Intn(3) != 0 {
				mask[i] = true
				positions = append(positions, i)
			}
		}

		checkInvariants(t, FromMask(mask), mask)

		// Runs and Sparse must agree everywhere regardless of which one
		// the heuristic would have picked.
		sparse, err := NewSparse(positions)
		require.NoError(t, err)
		runs := runsFromMask(mask)
		require.Equal(t, sparse.Len(), runs.Len())
		for i := 0; i < n; i++ {
			require.Equal(t, sparse.Contains(i), runs.Contains(i), "mask %v pos %d", mask, i)
		}
		for j := 0; j < sparse.Len(); j++ {
			require.Equal(t, sparse.ToParent(j), runs.ToParent(j))
			require.Equal(t, j, runs.ToLocal(runs.ToParent(j)))
		}
	}
}

// runsFromMask builds the run-length representation directly, bypassing
// the FromMask heuristic.
func runsFromMask(mask []bool) *Runs {
	var rs []run
	for i, b := range mask {
		if !b {
			continue
		}
		if len(rs) > 0 && rs[len(rs)-1].hi == i-1 {
			rs[len(rs)-1].hi = i
		} else {
			rs = append(rs, run{lo: i, hi: i})
		}
	}
	cum := make([]int, len(rs))
	total := 0
	for i, rn := range rs {
		cum[i] = total
		total += rn.hi - rn.lo + 1
	}
	return &Runs{runs: rs, cum: cum, n: total}
}
