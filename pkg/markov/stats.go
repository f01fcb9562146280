package markov

// ModelStats holds aggregated statistics for a single model.
type ModelStats struct {
	Mode        TokenizeMode // The model's tokenization mode.
	Level       int          // The model's context length.
	Tokens      int          // The number of distinct tokens seen in training.
	States      int          // The number of vertices in the state graph.
	Edges       int          // The number of unique state->state links.
	TotalWeight int          // The sum of all link weights; the total number of trained transitions.
}

// Stats returns a snapshot of the model's statistics. An untrained model
// reports zero counts.
func (m *Model[T]) Stats() ModelStats {
	s := ModelStats{Mode: m.mode, Level: m.level}
	if m.graph != nil {
		s.Tokens = m.graph.TokenCount()
		s.States = m.graph.Len()
		s.Edges = m.graph.Edges()
		s.TotalWeight = m.graph.TotalWeight()
	}
	return s
}
