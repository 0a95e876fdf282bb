package reconstruct

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/recongraph/internal/task"
)

func TestDependencyOrder_RandomAcyclicGraphs(t *testing.T) {
	const n = 50
	rng := rand.New(rand.NewPCG(7, 11))

	for trial := range 20 {
		t.Run(fmt.Sprintf("trial_%d", trial), func(t *testing.T) {
			g := New()

			// byRank[i] may only read from byRank[j] for j < i. Layers are
			// created in a shuffled order so creation order is no hint.
			byRank := make([]LayerRef, n)
			for _, rank := range rng.Perm(n) {
				byRank[rank] = addLayer(t, g, newRecordingTask(fmt.Sprintf("L%d", rank), task.KindReconstruct))
			}

			type edge struct{ from, to LayerRef }
			var edges []edge
			for i := range n {
				for j := i + 1; j < n; j++ {
					if rng.Float64() < 0.08 {
						connectLayer(t, g, byRank[i], byRank[j], task.ChannelTopologicalSectionLayers)
						edges = append(edges, edge{byRank[i], byRank[j]})
					}
				}
			}

			order := g.DependencyOrder()
			require.Len(t, order, n)
			assert.ElementsMatch(t, byRank, order)
			for _, e := range edges {
				assert.Less(t, indexOf(order, e.from), indexOf(order, e.to), "%s must precede %s", e.from, e.to)
			}

			assert.Equal(t, order, g.DependencyOrder(), "ordering an unchanged graph is stable")
		})
	}
}

func TestDependencyOrder_DefaultLayerFirst(t *testing.T) {
	g := New()
	for i := range 5 {
		addLayer(t, g, newRecordingTask(fmt.Sprintf("L%d", i), task.KindReconstruct))
	}
	tree := addLayer(t, g, newRecordingTask("tree", task.KindReconstructionTree))

	order := g.DependencyOrder()
	assert.NotEqual(t, tree, order[0])

	require.NoError(t, g.SetDefaultReconstructionTreeLayer(tree))
	order = g.DependencyOrder()
	require.Len(t, order, 6)
	assert.Equal(t, tree, order[0])
}

func TestDependencyOrder_Diamond(t *testing.T) {
	g := New()
	top := addLayer(t, g, newRecordingTask("top", task.KindReconstruct))
	left := addLayer(t, g, newRecordingTask("left", task.KindReconstruct))
	right := addLayer(t, g, newRecordingTask("right", task.KindReconstruct))
	bottom := addLayer(t, g, newRecordingTask("bottom", task.KindReconstruct))

	// bottom is created last but connected first.
	connectLayer(t, g, left, bottom, task.ChannelTopologicalSectionLayers)
	connectLayer(t, g, right, bottom, task.ChannelTopologicalSectionLayers)
	connectLayer(t, g, top, left, task.ChannelTopologicalSectionLayers)
	connectLayer(t, g, top, right, task.ChannelTopologicalSectionLayers)

	order := g.DependencyOrder()
	require.Len(t, order, 4)
	assert.Equal(t, top, order[0])
	assert.Equal(t, bottom, order[3])
}

func TestDependencyOrder_FilesContributeNoEdges(t *testing.T) {
	g := New()
	f := addFile(t, g, "a.gpml")
	a := addLayer(t, g, newRecordingTask("a", task.KindReconstruct))
	b := addLayer(t, g, newRecordingTask("b", task.KindReconstruct))
	connectFile(t, g, f, b, task.ChannelReconstructableFeatures)
	connectFile(t, g, f, a, task.ChannelReconstructableFeatures)

	assert.Equal(t, []LayerRef{a, b}, g.DependencyOrder())
}

func TestDependencyOrder_CycleIsTolerated(t *testing.T) {
	g := New()
	a := addLayer(t, g, newRecordingTask("a", task.KindReconstruct))
	b := addLayer(t, g, newRecordingTask("b", task.KindReconstruct))
	connectLayer(t, g, a, b, task.ChannelTopologicalSectionLayers)
	connectLayer(t, g, b, a, task.ChannelTopologicalSectionLayers)
	self := addLayer(t, g, newRecordingTask("self", task.KindReconstruct))
	connectLayer(t, g, self, self, task.ChannelTopologicalSectionLayers)

	var order []LayerRef
	require.NotPanics(t, func() { order = g.DependencyOrder() })
	assert.ElementsMatch(t, []LayerRef{a, b, self}, order)

	require.NoError(t, g.RemoveLayer(self))
	assert.Len(t, g.DependencyOrder(), 2)
}
