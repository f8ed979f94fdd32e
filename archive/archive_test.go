package archive

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphstore/network"
	"graphstore/topology"
)

func buildNetwork(t *testing.T) *network.Network {
	t.Helper()
	n := network.New()

	require.NoError(t, n.AddClass("producers", []string{"algae", "moss"}))
	require.NoError(t, n.AddClass("consumers", []string{"ant", "mouse", "owl"}))
	require.NoError(t, n.AddSubclassMask("consumers", "rodents", []bool{false, true, false}))

	grazing, err := topology.NewForeign([][]bool{
		{true, false},
		{false, true},
		{false, false},
	})
	require.NoError(t, err)
	require.NoError(t, n.AddWeb("grazing", "consumers", "producers", grazing))

	contact, err := topology.SymmetricFromCoords(3, []topology.Coord{
		{Source: 1, Target: 0},
		{Source: 2, Target: 2},
	})
	require.NoError(t, err)
	require.NoError(t, n.AddWeb("contact", "consumers", "consumers", contact))

	require.NoError(t, n.AddWeb("overlap", "producers", "producers", topology.NewFullReflexive(2)))

	require.NoError(t, n.AddClassField("producers", "growth", []float64{0.15, 0.25}))
	require.NoError(t, n.AddClassField("consumers", "legs", []int{6, 4, 2}))
	require.NoError(t, n.AddWebField("grazing", "efficiency", []float64{0.4, 0.5}))
	require.NoError(t, n.AddGraphField("biome", []string{"temperate"}))
	require.NoError(t, n.AddGraphField("params", map[string]float64{"temp": 12.5}))

	return n
}

func TestSaveLoadRoundTrip(t *testing.T) {
	n := buildNetwork(t)
	path := filepath.Join(t.TempDir(), "net.db")

	require.NoError(t, Save(n, path))

	loaded, err := Load(path)
	require.NoError(t, err)

	want, err := n.Fingerprint()
	require.NoError(t, err)
	got, err := loaded.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Spot checks beyond the fingerprint: structure and typed values.
	assert.Equal(t, n.ClassNames(), loaded.ClassNames())
	assert.Equal(t, n.WebNames(), loaded.WebNames())

	rodents, err := loaded.Class("rodents")
	require.NoError(t, err)
	assert.Equal(t, []string{"mouse"}, rodents.Labels())

	contact, err := loaded.Web("contact")
	require.NoError(t, err)
	assert.Equal(t, "symmetric", topology.Kind(contact.Topology()))
	assert.True(t, contact.Topology().IsEdge(0, 1))

	legs, err := loaded.NodesView("consumers", "legs")
	require.NoError(t, err)
	vals, err := legs.Values()
	require.NoError(t, err)
	assert.Equal(t, []int{6, 4, 2}, vals)

	params, err := loaded.GraphView("params")
	require.NoError(t, err)
	pv, err := params.Values()
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"temp": 12.5}, pv)
}

func TestLoadedNetworkIsIndependent(t *testing.T) {
	n := buildNetwork(t)
	path := filepath.Join(t.TempDir(), "net.db")
	require.NoError(t, Save(n, path))

	loaded, err := Load(path)
	require.NoError(t, err)

	view, err := loaded.NodesView("producers", "growth")
	require.NoError(t, err)
	require.NoError(t, view.SetAt(0, 9.9))

	orig, err := n.NodesView("producers", "growth")
	require.NoError(t, err)
	got, err := orig.At(0)
	require.NoError(t, err)
	assert.Equal(t, 0.15, got)
}

func TestLoadMissingArchive(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
}
