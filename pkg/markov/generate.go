package markov

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Next performs one generation step and returns the produced token. The
// sequence never ends on its own: dead ends in the training data restart
// from a random state, so every call yields a token. It fails with
// ErrUntrained before the first effective training call.
//
// Each call advances the model's single cursor, which training and other
// generation consumers share.
func (m *Model[T]) Next() (T, error) {
	if !m.trained() {
		var zero T
		return zero, ErrUntrained
	}
	return m.graph.NextRandomToken(m.rng)
}

// GenerateTo draws amount tokens and writes them to w with the mode's
// separator between consecutive tokens: a space for word and none modes,
// nothing for character and byte modes. A negative amount generates until
// ctx is cancelled, in which case ctx.Err() is returned; that is the only
// way an unbounded generation ends.
func (m *Model[T]) GenerateTo(ctx context.Context, w io.Writer, amount int) error {
	if !m.trained() {
		return ErrUntrained
	}
	written := 0
	for amount < 0 || written < amount {
		if err := ctx.Err(); err != nil {
			return err
		}
		tok, err := m.graph.NextRandomToken(m.rng)
		if err != nil {
			return err
		}
		if written > 0 && m.sep != "" {
			if _, err = io.WriteString(w, m.sep); err != nil {
				return fmt.Errorf("could not write separator: %w", err)
			}
		}
		if err = m.emit(w, tok); err != nil {
			return fmt.Errorf("could not write token: %w", err)
		}
		written++
	}
	m.logger.Debug("Generation completed",
		slog.Int("tokens", written),
	)
	return nil
}
