package markov

import (
	"context"
	"log/slog"
)

// Stream returns a read-only channel carrying the model's generated token
// sequence. A goroutine feeds the channel one weighted step at a time; the
// channel is unbuffered, so generation only advances as fast as the consumer
// reads. The sequence itself never ends, and the channel is closed once the
// context is cancelled. It fails with ErrUntrained before the first
// effective training call.
//
// Every stream walks the model's shared cursor: two concurrent streams
// interleave their steps over the same graph rather than producing two
// independent walks.
func (m *Model[T]) Stream(ctx context.Context) (<-chan T, error) {
	if !m.trained() {
		return nil, ErrUntrained
	}

	tokenChan := make(chan T)

	go func() {
		defer close(tokenChan)

		for {
			tok, err := m.graph.NextRandomToken(m.rng)
			if err != nil {
				// Only possible when the graph lost all states, e.g. a
				// concurrent Prune emptied it.
				m.logger.ErrorContext(ctx, "Generation stream stopped", slog.Any("error", err))
				return
			}
			select {
			case <-ctx.Done():
				m.logger.DebugContext(ctx, "Generation stream cancelled by context")
				return
			case tokenChan <- tok:
			}
		}
	}()

	return tokenChan, nil
}
