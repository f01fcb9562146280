package markov

import (
	"log/slog"
)

// Prune removes every edge whose weight is below minWeight, then every state
// left without edges in either direction. This is useful for shrinking a
// model by dropping rare, and often noisy, transitions. Surviving states and
// edges keep their relative order; the token table is not touched, so pruned
// and unpruned models over the same data share token IDs.
//
// If the cursor's state is removed, the cursor is cleared and the next
// generation step restarts from a random state. Pruning everything leaves
// the model untrained. It returns the number of edges and states removed,
// or ErrUntrained before the first effective training call.
func (m *Model[T]) Prune(minWeight int) (int, int, error) {
	if !m.trained() {
		return 0, 0, ErrUntrained
	}
	g := m.graph

	removedEdges := 0
	for i := range g.verts {
		v := &g.verts[i]
		kept := v.edges[:0]
		total := 0
		for _, e := range v.edges {
			if e.weight >= minWeight {
				kept = append(kept, e)
				total += e.weight
			} else {
				removedEdges++
			}
		}
		v.edges = kept
		v.total = total
	}
	if removedEdges == 0 {
		m.logger.Info("Nothing to prune",
			slog.Int("min_weight", minWeight),
		)
		return 0, 0, nil
	}

	// A state survives if it still has an outgoing edge or is the target of
	// one. Dead states cannot be edge targets, so every surviving edge's
	// successor survives too.
	alive := make([]bool, len(g.verts))
	for i := range g.verts {
		if len(g.verts[i].edges) == 0 {
			continue
		}
		alive[i] = true
		for _, e := range g.verts[i].edges {
			alive[e.succ] = true
		}
	}

	remap := make([]int, len(g.verts))
	keptStates := 0
	for i := range g.verts {
		if alive[i] {
			remap[i] = keptStates
			keptStates++
		} else {
			remap[i] = -1
		}
	}
	removedStates := len(g.verts) - keptStates

	verts := make([]vertex, 0, keptStates)
	index := make(map[string]int, keptStates)
	for i := range g.verts {
		if remap[i] < 0 {
			continue
		}
		v := g.verts[i]
		succPos := make(map[int]int, len(v.edges))
		for j := range v.edges {
			v.edges[j].succ = remap[v.edges[j].succ]
			succPos[v.edges[j].succ] = j
		}
		v.succPos = succPos
		verts = append(verts, v)
		index[g.stateKey(v.window)] = len(verts) - 1
	}
	g.verts = verts
	g.index = index

	g.edgeCount = 0
	g.totalWeight = 0
	for i := range g.verts {
		g.edgeCount += len(g.verts[i].edges)
		g.totalWeight += g.verts[i].total
	}

	if g.current >= 0 {
		g.current = remap[g.current]
	}

	m.logger.Info("Model pruned",
		slog.Int("min_weight", minWeight),
		slog.Int("edges_removed", removedEdges),
		slog.Int("states_removed", removedStates),
	)
	return removedEdges, removedStates, nil
}
