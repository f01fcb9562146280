package markov

import (
	"fmt"
	"io"
	"log/slog"
)

// Train reads data to the end, tokenizes it according to the model's mode,
// and feeds every window of max(level, 1) consecutive tokens into the state
// graph in order. Training is cumulative: repeated calls extend the same
// graph, and the cursor carries over so the first window of a later call is
// linked to the last window of the previous one.
//
// Input that tokenizes to fewer tokens than one window is a successful
// no-op. Models in ModeNone have no tokenizer and reject Train with
// ErrTypeMismatch; use TrainTokens instead.
func (m *Model[T]) Train(data io.Reader) error {
	if m.tokenize == nil {
		return fmt.Errorf("%w: %s mode requires pre-tokenized input via TrainTokens", ErrTypeMismatch, m.mode)
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("could not read training data: %w", err)
	}
	toks, err := m.tokenize(raw)
	if err != nil {
		return err
	}
	return m.TrainTokens(toks)
}

// TrainTokens trains the model on an already tokenized sequence. It is the
// only way to train a ModeNone model and works for the other modes as well
// when the caller has tokens rather than raw input.
func (m *Model[T]) TrainTokens(toks []T) error {
	window := max(m.level, 1)
	if len(toks) < window {
		m.logger.Debug("Training input shorter than one window, nothing to do",
			slog.Int("tokens", len(toks)),
			slog.Int("window", window),
		)
		return nil
	}
	g := m.ensureGraph()
	for i := 0; i+window <= len(toks); i++ {
		if err := g.AddEdge(toks[i : i+window]); err != nil {
			return fmt.Errorf("could not add state at offset %d: %w", i, err)
		}
	}
	m.logger.Info("Training completed",
		slog.Int("tokens", len(toks)),
		slog.Int("windows", len(toks)-window+1),
		slog.Int("states", g.Len()),
		slog.Int("edges", g.Edges()),
	)
	return nil
}
