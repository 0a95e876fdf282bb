package reconstruct

// DependencyOrder returns every layer ordered so that each layer comes after
// the layers whose outputs it reads. The default layer, when set, is visited
// first. The relative order of unrelated layers follows creation order but
// carries no meaning.
func (g *Graph) DependencyOrder() []LayerRef {
	order := g.dependencyOrder()
	refs := make([]LayerRef, len(order))
	for i, l := range order {
		refs[i] = l.Ref()
	}
	return refs
}

// dependencyOrder is a depth-first post-order walk over layer-output
// connections. A connection that closes a dependency cycle is skipped with a
// warning, so every layer still appears exactly once.
func (g *Graph) dependencyOrder() []*Layer {
	order := make([]*Layer, 0, len(g.layerOrder))
	visited := make(map[*Layer]bool, len(g.layerOrder))
	visiting := make(map[*Layer]bool)

	var visit func(l *Layer)
	visit = func(l *Layer) {
		if visited[l] {
			return
		}
		visited[l] = true
		visiting[l] = true
		for _, c := range l.inputs.All() {
			dep, ok := c.source.outputtingLayer()
			if !ok {
				continue
			}
			if visiting[dep] {
				g.logger.Warn("Skipping connection that closes a dependency cycle.",
					"layer", l.Ref(), "source_layer", dep.Ref(), "channel", c.channel)
				continue
			}
			visit(dep)
		}
		delete(visiting, l)
		order = append(order, l)
	}

	if def, ok := g.defaultLayer.Get(); ok {
		visit(def)
	}
	for _, l := range g.layerOrder {
		visit(l)
	}

	assert(len(order) == g.layers.len(), "Graph.dependencyOrder",
		"order has %d layers, graph has %d", len(order), g.layers.len())
	return order
}
