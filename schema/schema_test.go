package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphstore/network"
)

const doc = `
classes:
  - name: producers
    labels: [algae, moss]
  - name: consumers
    labels: [ant, mouse, owl]
subclasses:
  - name: rodents
    parent: consumers
    labels: [mouse]
  - name: m-consumers
    parent: consumers
    pattern: "m*"
webs:
  - name: grazing
    source: consumers
    target: producers
    kind: foreign
    matrix:
      - [1, 0]
      - [0, 2]
      - [0, 0]
  - name: trophic
    source: consumers
    target: consumers
    kind: reflexive
    edges:
      - [2, 0]
      - [2, 1]
fields:
  - target: producers
    name: growth
    values: [0.15, 0.25]
  - target: grazing
    name: efficiency
    values: [0.4, 0.5]
  - target: graph
    name: notes
    values: [temperate]
`

func TestParseBuildsNetwork(t *testing.T) {
	n, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, 5, n.NNodes())
	assert.Equal(t, []string{"producers", "consumers", "rodents", "m-consumers"}, n.ClassNames())

	rodents, err := n.Class("rodents")
	require.NoError(t, err)
	assert.Equal(t, []string{"mouse"}, rodents.Labels())

	m, err := n.Class("m-consumers")
	require.NoError(t, err)
	assert.Equal(t, []string{"mouse"}, m.Labels())

	grazing, err := n.Web("grazing")
	require.NoError(t, err)
	assert.Equal(t, 2, grazing.NEdges())
	assert.True(t, grazing.Topology().IsEdge(1, 1))

	trophic, err := n.Web("trophic")
	require.NoError(t, err)
	assert.Equal(t, 2, trophic.NEdges())
	assert.True(t, trophic.Topology().IsEdge(2, 0))
	assert.False(t, trophic.Topology().IsEdge(0, 2))

	view, err := n.NodesView("producers", "growth")
	require.NoError(t, err)
	got, err := view.Label("moss")
	require.NoError(t, err)
	assert.Equal(t, 0.25, got)

	gv, err := n.GraphView("notes")
	require.NoError(t, err)
	vals, err := gv.Values()
	require.NoError(t, err)
	assert.Equal(t, []string{"temperate"}, vals)
}

func TestParseSurfacesTypedErrors(t *testing.T) {
	// Field of the wrong length reaches the store's size check.
	_, err := Parse([]byte(`
classes:
  - name: species
    labels: [a, b, c]
fields:
  - target: species
    name: mass
    values: [1.0]
`))
	var sme *network.SizeMismatchError
	require.ErrorAs(t, err, &sme)

	// Unknown subclass label carries the valid label set.
	_, err = Parse([]byte(`
classes:
  - name: species
    labels: [a, b]
subclasses:
  - name: sub
    parent: species
    labels: [zzz]
`))
	var le *network.LabelError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, []string{"a", "b"}, le.Valid)

	// Duplicate names collide in the shared namespace.
	_, err = Parse([]byte(`
classes:
  - name: species
    labels: [a]
  - name: species
    labels: [b]
`))
	var nce *network.NameConflictError
	require.ErrorAs(t, err, &nce)
}

func TestSubclassSelectorExclusive(t *testing.T) {
	_, err := Parse([]byte(`
classes:
  - name: species
    labels: [a, b]
subclasses:
  - name: sub
    parent: species
    labels: [a]
    pattern: "a*"
`))
	require.Error(t, err)

	_, err = Parse([]byte(`
classes:
  - name: species
    labels: [a, b]
subclasses:
  - name: sub
    parent: species
`))
	require.Error(t, err)
}

func TestFullWeb(t *testing.T) {
	n, err := Parse([]byte(`
classes:
  - name: species
    labels: [a, b, c]
webs:
  - name: all
    source: species
    target: species
    kind: symmetric
    full: true
`))
	require.NoError(t, err)

	w, err := n.Web("all")
	require.NoError(t, err)
	assert.Equal(t, 6, w.NEdges())
}
