package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphstore/restrict"
	"graphstore/topology"
)

func TestAddClassAppendsToRoot(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("producers", []string{"algae", "moss"}))
	require.NoError(t, n.AddClass("consumers", []string{"ant", "mouse"}))

	assert.Equal(t, 4, n.NNodes())
	assert.Equal(t, []string{"algae", "moss", "ant", "mouse"}, n.Labels())
	assert.Equal(t, []string{"producers", "consumers"}, n.ClassNames())

	c, err := n.Class("consumers")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"ant", "mouse"}, c.Labels())

	// The class spans exactly the newly appended root positions.
	assert.Equal(t, 2, c.Restriction().ToParent(0))
	assert.Equal(t, 3, c.Restriction().ToParent(1))
}

func TestAddClassConflicts(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("a", []string{"x"}))

	var nce *NameConflictError
	err := n.AddClass("a", []string{"y"})
	require.ErrorAs(t, err, &nce)
	assert.Equal(t, "class", nce.Kind)

	// Label collisions anywhere in the root are rejected, and the failed
	// call adds nothing.
	err = n.AddClass("b", []string{"y", "x"})
	require.ErrorAs(t, err, &nce)
	assert.Equal(t, "label", nce.Kind)
	assert.Equal(t, "x", nce.Name)
	assert.Equal(t, 1, n.NNodes())
	_, err = n.Class("b")
	require.Error(t, err)

	err = n.AddClass("b", []string{"y", "y"})
	require.ErrorAs(t, err, &nce)
}

func TestSubclassScenario(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("species", []string{"a", "b", "c", "d", "e"}))
	require.NoError(t, n.AddSubclassMask("species", "herbivores", []bool{false, true, true, false, true}))

	c, err := n.Class("herbivores")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"b", "c", "e"}, c.Labels())

	require.NoError(t, n.AddClassField("herbivores", "growth", []float64{0.15, 0.25, 0.35}))

	view, err := n.NodesView("herbivores", "growth")
	require.NoError(t, err)
	got, err := view.Label("c")
	require.NoError(t, err)
	assert.Equal(t, 0.25, got)
}

func TestSubclassValidation(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("species", []string{"a", "b"}))

	var sme *SizeMismatchError
	err := n.AddSubclassMask("species", "sub", []bool{true})
	require.ErrorAs(t, err, &sme)

	// Restriction reaching outside the parent.
	sp, err := restrict.NewSpan(1, 5)
	require.NoError(t, err)
	err = n.AddSubclass("species", "sub", sp)
	require.ErrorAs(t, err, &sme)

	var une *UnknownNameError
	err = n.AddSubclassMask("ghosts", "sub", []bool{true})
	require.ErrorAs(t, err, &une)
	assert.Equal(t, "class", une.Kind)
}

func TestSubclassOfSubclass(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("species", []string{"a", "b", "c", "d"}))
	require.NoError(t, n.AddSubclassMask("species", "upper", []bool{true, false, true, true}))
	// Mask is relative to the immediate parent.
	require.NoError(t, n.AddSubclassMask("upper", "inner", []bool{false, true, true}))

	c, err := n.Class("inner")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, c.Labels())
}

func TestSubclassPattern(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("species", []string{"moss", "mouse", "ant"}))
	require.NoError(t, n.AddSubclassPattern("species", "m-species", "m*"))

	c, err := n.Class("m-species")
	require.NoError(t, err)
	assert.Equal(t, []string{"moss", "mouse"}, c.Labels())
}

func TestAddWeb(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("consumers", []string{"ant", "mouse"}))
	require.NoError(t, n.AddClass("producers", []string{"algae", "moss", "ivy"}))

	topo, err := topology.NewForeign([][]bool{
		{true, false, true},
		{false, true, false},
	})
	require.NoError(t, err)
	require.NoError(t, n.AddWeb("grazing", "consumers", "producers", topo))

	w, err := n.Web("grazing")
	require.NoError(t, err)
	assert.Equal(t, 3, w.NEdges())
	assert.Equal(t, "consumers", w.Source())

	// Size mismatch against the declared classes.
	var sme *SizeMismatchError
	bad := topology.NewFullForeign(3, 3)
	err = n.AddWeb("bad", "consumers", "producers", bad)
	require.ErrorAs(t, err, &sme)

	// Reflexive webs connect a class to itself.
	var she *ShapeError
	refl := topology.NewFullReflexive(2)
	err = n.AddWeb("bad", "consumers", "producers", refl)
	require.ErrorAs(t, err, &she)

	// Classes and webs share one namespace.
	var nce *NameConflictError
	err = n.AddClass("grazing", []string{"zzz"})
	require.ErrorAs(t, err, &nce)
}

func TestAddFieldValidation(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("species", []string{"a", "b", "c"}))

	// Wrong length: error, and the field set is unchanged.
	var sme *SizeMismatchError
	err := n.AddClassField("species", "mass", []float64{1, 2})
	require.ErrorAs(t, err, &sme)
	c, err := n.Class("species")
	require.NoError(t, err)
	assert.Empty(t, c.Fields())
	_, err = n.NodesView("species", "mass")
	require.Error(t, err)

	require.NoError(t, n.AddClassField("species", "mass", []float64{1, 2, 3}))
	assert.Equal(t, []string{"mass"}, c.Fields())

	var nce *NameConflictError
	err = n.AddClassField("species", "mass", []float64{4, 5, 6})
	require.ErrorAs(t, err, &nce)
	assert.Equal(t, "field", nce.Kind)

	// Non-copyable and non-slice values are rejected.
	var she *ShapeError
	err = n.AddClassField("species", "weird", 42)
	require.ErrorAs(t, err, &she)

	require.NoError(t, n.AddGraphField("temperature", []float64{290.5}))
	err = n.AddGraphField("odd", make(chan int))
	require.Error(t, err)
}

func TestWebFields(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("species", []string{"a", "b", "c"}))
	topo, err := topology.NewReflexive([][]bool{
		{false, true, false},
		{false, false, true},
		{true, false, false},
	})
	require.NoError(t, err)
	require.NoError(t, n.AddWeb("trophic", "species", "species", topo))

	count, err := n.NEdges("trophic")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, n.AddWebField("trophic", "efficiency", []float64{0.1, 0.2, 0.3}))

	var sme *SizeMismatchError
	err = n.AddWebField("trophic", "short", []float64{0.1})
	require.ErrorAs(t, err, &sme)

	view, err := n.EdgesView("trophic", "efficiency")
	require.NoError(t, err)
	got, err := view.At(topo.EdgeIndex(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 0.2, got)
}

func TestLabelErrorListsValidLabels(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("species", []string{"a", "b", "c"}))
	require.NoError(t, n.AddClassField("species", "mass", []float64{1, 2, 3}))

	view, err := n.NodesView("species", "mass")
	require.NoError(t, err)

	_, err = view.Label("zzz")
	var le *LabelError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "zzz", le.Label)
	assert.Equal(t, "species", le.Class)
	assert.Equal(t, []string{"a", "b", "c"}, le.Valid)
	assert.Contains(t, le.Error(), "[a b c]")
}

func TestForkIndependence(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("species", []string{"a", "b", "c"}))
	require.NoError(t, n.AddClassField("species", "mass", []float64{1, 2, 3}))
	require.NoError(t, n.AddGraphField("notes", []string{"hello"}))

	fork := n.Fork()
	assert.NotEqual(t, n.ID(), fork.ID())

	// Mutating the fork never changes the original.
	fv, err := fork.NodesView("species", "mass")
	require.NoError(t, err)
	require.NoError(t, fv.SetLabel("b", 99.0))

	ov, err := n.NodesView("species", "mass")
	require.NoError(t, err)
	orig, err := ov.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, orig)

	forked, err := fv.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 99, 3}, forked)

	// And vice versa.
	require.NoError(t, ov.SetAt(0, 7.0))
	forked, err = fv.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 99, 3}, forked)

	// Unmutated fields stay shared and observe the same value.
	gn, err := n.GraphView("notes")
	require.NoError(t, err)
	gf, err := fork.GraphView("notes")
	require.NoError(t, err)
	a, err := gn.Values()
	require.NoError(t, err)
	b, err := gf.Values()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestForkStructureIndependence(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("species", []string{"a"}))

	fork := n.Fork()
	require.NoError(t, fork.AddClass("more", []string{"b"}))

	// The fork grew its own root index; the original is untouched.
	assert.Equal(t, 2, fork.NNodes())
	assert.Equal(t, 1, n.NNodes())
	_, err := n.Class("more")
	require.Error(t, err)

	// The original can add the same label afterwards without conflict.
	require.NoError(t, n.AddClass("mine", []string{"b"}))
	assert.Equal(t, 2, n.NNodes())
}

func TestReleaseAccounting(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("species", []string{"a", "b"}))
	require.NoError(t, n.AddClassField("species", "mass", []float64{1, 2}))

	fork := n.Fork()
	n.Release()

	// The fork still reads everything after the original is gone.
	v, err := fork.NodesView("species", "mass")
	require.NoError(t, err)
	vals, err := v.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, vals)
	fork.Release()
}

func TestViewBoundsAndTypes(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("species", []string{"a", "b"}))
	require.NoError(t, n.AddClassField("species", "mass", []float64{1, 2}))

	v, err := n.NodesView("species", "mass")
	require.NoError(t, err)
	assert.Equal(t, 2, v.Len())

	var re *RangeError
	_, err = v.At(2)
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 2, re.Length)
	_, err = v.At(-1)
	require.ErrorAs(t, err, &re)
	err = v.SetAt(5, 1.0)
	require.ErrorAs(t, err, &re)

	// Element type mismatches are rejected before any mutation.
	err = v.SetAt(0, "oops")
	require.Error(t, err)
	got, err := v.At(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestViewReassign(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("species", []string{"a", "b"}))
	require.NoError(t, n.AddClassField("species", "mass", []float64{1, 2}))

	v, err := n.NodesView("species", "mass")
	require.NoError(t, err)

	var sme *SizeMismatchError
	err = v.Reassign([]float64{1, 2, 3})
	require.ErrorAs(t, err, &sme)

	err = v.Reassign([]int{1, 2})
	require.Error(t, err)

	require.NoError(t, v.Reassign([]float64{5, 6}))
	vals, err := v.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6}, vals)
}

func TestViewClosuresAreCOW(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("species", []string{"a", "b"}))
	require.NoError(t, n.AddClassField("species", "mass", []float64{1, 2}))
	fork := n.Fork()

	v, err := fork.NodesView("species", "mass")
	require.NoError(t, err)
	require.NoError(t, v.Mutate(func(val interface{}) {
		val.([]float64)[0] = 100
	}))

	ov, err := n.NodesView("species", "mass")
	require.NoError(t, err)
	vals, err := ov.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, vals)
}

func TestRestrictionCache(t *testing.T) {
	n := New()
	require.NoError(t, n.AddClass("species", []string{"a", "b", "c"}))
	require.NoError(t, n.AddSubclassMask("species", "one", []bool{true, false, true}))
	require.NoError(t, n.AddSubclassMask("species", "two", []bool{true, false, true}))

	one, err := n.Class("one")
	require.NoError(t, err)
	two, err := n.Class("two")
	require.NoError(t, err)
	assert.Same(t, one.Restriction(), two.Restriction())
}

func TestFingerprint(t *testing.T) {
	build := func() *Network {
		n := New()
		if err := n.AddClass("species", []string{"a", "b"}); err != nil {
			t.Fatal(err)
		}
		if err := n.AddClassField("species", "mass", []float64{1, 2}); err != nil {
			t.Fatal(err)
		}
		return n
	}

	n1 := build()
	n2 := build()
	f1, err := n1.Fingerprint()
	require.NoError(t, err)
	f2, err := n2.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, f1, f2)

	// A fork fingerprints equal until it diverges.
	fork := n1.Fork()
	ff, err := fork.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, f1, ff)

	v, err := fork.NodesView("species", "mass")
	require.NoError(t, err)
	require.NoError(t, v.SetAt(0, 9.0))
	ff, err = fork.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, f1, ff)

	// The original is unchanged.
	f1b, err := n1.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, f1, f1b)
}
