package markov

import (
	"fmt"
	"math/rand/v2"
	"strconv"
)

// transition is one outgoing edge of a vertex: the successor vertex and the
// number of times that transition was observed during training.
type transition struct {
	succ   int
	weight int
}

// vertex is a single state of the chain: a fixed-length window of interned
// token IDs plus its outgoing edges in first-observed order. succPos maps a
// successor vertex ID to its position in edges so weight increments stay O(1),
// and total caches the sum of outgoing weights for the weighted draw.
type vertex struct {
	window  []int
	edges   []transition
	succPos map[int]int
	total   int
}

// Graph is a weighted directed multigraph whose vertices are fixed-length
// windows of tokens and whose edge weights count how often one window was
// observed immediately after another. It is the state-transition structure
// underlying a Model and can also be driven directly with AddEdge and
// NextRandomToken.
//
// The graph holds a single cursor: AddEdge advances it during training and
// NextRandomToken advances it during generation. Concurrent walkers over one
// graph interleave destructively; callers needing isolation must serialize
// access or work on separate copies.
type Graph[T comparable] struct {
	window int

	tokens   []T
	tokenIDs map[T]int

	verts []vertex
	index map[string]int

	// current is the cursor vertex ID, -1 while unset.
	current int

	edgeCount   int
	totalWeight int

	keyBuf []byte
	idBuf  []int
}

// NewGraph returns an empty graph whose states are windows of the given
// length. A window below 1 is treated as 1, the single-token window used by
// level-0 models.
func NewGraph[T comparable](window int) *Graph[T] {
	if window < 1 {
		window = 1
	}
	return &Graph[T]{
		window:   window,
		tokenIDs: make(map[T]int),
		index:    make(map[string]int),
		current:  -1,
	}
}

// stateKey renders a window of token IDs as the canonical map key, reusing
// the graph's key buffer.
func (g *Graph[T]) stateKey(ids []int) string {
	g.keyBuf = g.keyBuf[:0]
	for i, id := range ids {
		if i > 0 {
			g.keyBuf = append(g.keyBuf, ' ')
		}
		g.keyBuf = strconv.AppendInt(g.keyBuf, int64(id), 10)
	}
	return string(g.keyBuf)
}

// internToken returns the ID for tok, assigning the next free ID on first
// sight.
func (g *Graph[T]) internToken(tok T) int {
	if id, ok := g.tokenIDs[tok]; ok {
		return id
	}
	id := len(g.tokens)
	g.tokens = append(g.tokens, tok)
	g.tokenIDs[tok] = id
	return id
}

// ensureVertex returns the vertex ID for state, interning unseen tokens and
// creating the vertex if it does not exist yet.
func (g *Graph[T]) ensureVertex(state []T) int {
	g.idBuf = g.idBuf[:0]
	for _, tok := range state {
		g.idBuf = append(g.idBuf, g.internToken(tok))
	}
	if id, ok := g.index[g.stateKey(g.idBuf)]; ok {
		return id
	}
	window := make([]int, len(g.idBuf))
	copy(window, g.idBuf)
	return g.addVertex(window)
}

// addVertex appends a vertex for the given ID window without checking for an
// existing one. The window slice is retained.
func (g *Graph[T]) addVertex(window []int) int {
	id := len(g.verts)
	g.verts = append(g.verts, vertex{window: window, succPos: make(map[int]int)})
	g.index[g.stateKey(window)] = id
	return id
}

// lookupVertex resolves state to its vertex ID without mutating the graph.
// Unseen tokens or an unknown window report false.
func (g *Graph[T]) lookupVertex(state []T) (int, bool) {
	if len(state) != g.window {
		return 0, false
	}
	g.idBuf = g.idBuf[:0]
	for _, tok := range state {
		id, ok := g.tokenIDs[tok]
		if !ok {
			return 0, false
		}
		g.idBuf = append(g.idBuf, id)
	}
	id, ok := g.index[g.stateKey(g.idBuf)]
	return id, ok
}

// bumpEdge increments the weight of the edge from -> to, creating it at
// weight 1 in insertion order if it does not exist yet.
func (g *Graph[T]) bumpEdge(from, to int) {
	v := &g.verts[from]
	if pos, ok := v.succPos[to]; ok {
		v.edges[pos].weight++
	} else {
		v.succPos[to] = len(v.edges)
		v.edges = append(v.edges, transition{succ: to, weight: 1})
		g.edgeCount++
	}
	v.total++
	g.totalWeight++
}

// AddEdge records that the chain moved into next, advancing the cursor.
//
// The very first state added becomes the sole vertex and the cursor with no
// edge recorded. Every later call ensures next exists as a vertex, increments
// the weight of (cursor -> next), and moves the cursor to next. Weights
// accumulate across calls, so feeding the same data twice doubles them.
func (g *Graph[T]) AddEdge(next []T) error {
	if len(next) != g.window {
		return fmt.Errorf("state has %d tokens but graph window is %d", len(next), g.window)
	}
	id := g.ensureVertex(next)
	if g.current >= 0 {
		g.bumpEdge(g.current, id)
	}
	g.current = id
	return nil
}

// NextRandomToken performs one generation step: it advances the cursor by a
// weighted random transition and returns the trailing token of the new
// cursor state.
//
// When the cursor is unset, or its state has no outgoing edges (a dead end
// in the training data), the cursor jumps to a uniformly random vertex
// instead of failing. Generation therefore never halts on its own; the only
// error is ErrUntrainedGraph when the graph has no vertices at all.
func (g *Graph[T]) NextRandomToken(rng *rand.Rand) (T, error) {
	if len(g.verts) == 0 {
		var zero T
		return zero, ErrUntrainedGraph
	}
	next := -1
	if g.current >= 0 && g.verts[g.current].total > 0 {
		v := &g.verts[g.current]
		draw := rng.IntN(v.total)
		for _, e := range v.edges {
			draw -= e.weight
			if draw < 0 {
				next = e.succ
				break
			}
		}
	} else {
		// Dead end or no cursor yet: restart from a random vertex.
		next = rng.IntN(len(g.verts))
	}
	g.current = next
	window := g.verts[next].window
	return g.tokens[window[len(window)-1]], nil
}

// Window returns the number of tokens per state.
func (g *Graph[T]) Window() int { return g.window }

// Len returns the number of vertices.
func (g *Graph[T]) Len() int { return len(g.verts) }

// Edges returns the number of distinct edges.
func (g *Graph[T]) Edges() int { return g.edgeCount }

// TotalWeight returns the sum of all edge weights, which equals the number
// of transitions observed during training.
func (g *Graph[T]) TotalWeight() int { return g.totalWeight }

// TokenCount returns the number of distinct tokens seen by the graph.
func (g *Graph[T]) TokenCount() int { return len(g.tokens) }

// Weight returns how often the chain moved from one state to another, or 0
// when either state or the edge between them is unknown.
func (g *Graph[T]) Weight(from, to []T) int {
	fromID, ok := g.lookupVertex(from)
	if !ok {
		return 0
	}
	toID, ok := g.lookupVertex(to)
	if !ok {
		return 0
	}
	pos, ok := g.verts[fromID].succPos[toID]
	if !ok {
		return 0
	}
	return g.verts[fromID].edges[pos].weight
}

// Current returns a copy of the cursor's token window, or false while the
// cursor is unset.
func (g *Graph[T]) Current() ([]T, bool) {
	if g.current < 0 {
		return nil, false
	}
	window := g.verts[g.current].window
	state := make([]T, len(window))
	for i, id := range window {
		state[i] = g.tokens[id]
	}
	return state, true
}
