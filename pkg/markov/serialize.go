package markov

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// modelFormat is the version tag written into every persisted model.
const modelFormat = 1

// TokenCodec converts tokens to and from their persisted form. The default
// codec used by every model marshals tokens with encoding/json, which covers
// the built-in token types; ModeNone models over custom types can install
// their own codec with SetCodec and load with LoadWithCodec.
type TokenCodec[T any] interface {
	Encode(tok T) (json.RawMessage, error)
	Decode(data json.RawMessage) (T, error)
}

type jsonCodec[T any] struct{}

func (jsonCodec[T]) Encode(tok T) (json.RawMessage, error) {
	return json.Marshal(tok)
}

func (jsonCodec[T]) Decode(data json.RawMessage) (T, error) {
	var tok T
	if err := json.Unmarshal(data, &tok); err != nil {
		var zero T
		return zero, err
	}
	return tok, nil
}

// modelBlob is the serialized representation of a trained model. Tokens,
// states, and edges are arrays in insertion order rather than JSON objects
// so that saving a loaded model reproduces the original bytes. States hold
// token IDs (indexes into Tokens); edges are [from, to, weight] triples of
// state IDs in per-state insertion order.
type modelBlob struct {
	Format int               `json:"format"`
	Mode   string            `json:"mode"`
	Level  int               `json:"level"`
	Tokens []json.RawMessage `json:"tokens"`
	States [][]int           `json:"states"`
	Edges  [][3]int          `json:"edges"`
	Cursor *int              `json:"cursor,omitempty"`
}

// header validates the blob's self-describing fields and returns the parsed
// mode. All violations map to ErrCorruptModel, including an unrecognized
// mode tag.
func (b *modelBlob) header() (TokenizeMode, error) {
	if b.Format != modelFormat {
		return 0, fmt.Errorf("%w: unsupported format %d", ErrCorruptModel, b.Format)
	}
	mode, err := ParseMode(b.Mode)
	if err != nil {
		return 0, fmt.Errorf("%w: unrecognized mode %q", ErrCorruptModel, b.Mode)
	}
	if b.Level < 0 {
		return 0, fmt.Errorf("%w: negative level %d", ErrCorruptModel, b.Level)
	}
	return mode, nil
}

// Save writes the model to w as an indented, self-describing JSON blob
// capturing the mode, the level, and the graph's full vertex, edge and
// weight contents. The cursor is included so a loaded model resumes from
// where this one left off. It fails with ErrUntrained before the first
// effective training call.
func (m *Model[T]) Save(w io.Writer) error {
	if !m.trained() {
		return ErrUntrained
	}
	g := m.graph
	blob := modelBlob{
		Format: modelFormat,
		Mode:   m.mode.String(),
		Level:  m.level,
		Tokens: make([]json.RawMessage, len(g.tokens)),
		States: make([][]int, len(g.verts)),
		Edges:  make([][3]int, 0, g.edgeCount),
	}
	for i, tok := range g.tokens {
		data, err := m.codec.Encode(tok)
		if err != nil {
			return fmt.Errorf("could not encode token %d: %w", i, err)
		}
		blob.Tokens[i] = data
	}
	for i := range g.verts {
		blob.States[i] = g.verts[i].window
	}
	for from := range g.verts {
		for _, e := range g.verts[from].edges {
			blob.Edges = append(blob.Edges, [3]int{from, e.succ, e.weight})
		}
	}
	if g.current >= 0 {
		cursor := g.current
		blob.Cursor = &cursor
	}

	m.logger.Debug("Model saved",
		slog.Int("tokens", len(blob.Tokens)),
		slog.Int("states", len(blob.States)),
		slog.Int("edges", len(blob.Edges)),
	)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&blob)
}

// Load reads a model blob written by Save and reconstructs the model with
// the default JSON token codec. The type parameter must match the blob's
// mode (string for word, rune for character, byte for byte); a mismatch
// fails with ErrTypeMismatch. Malformed blobs fail with ErrCorruptModel.
//
// The loaded model has the exact vertex, edge, and weight contents of the
// saved one. If the blob carries a cursor, generation resumes from it;
// otherwise the first step restarts from a random state.
func Load[T comparable](r io.Reader) (*Model[T], error) {
	return LoadWithCodec[T](r, jsonCodec[T]{})
}

// LoadWithCodec is Load with a caller-supplied token codec, for models whose
// tokens the default JSON codec cannot represent.
func LoadWithCodec[T comparable](r io.Reader, codec TokenCodec[T]) (*Model[T], error) {
	var blob modelBlob
	if err := json.NewDecoder(r).Decode(&blob); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	mode, err := blob.header()
	if err != nil {
		return nil, err
	}
	if len(blob.States) == 0 {
		return nil, fmt.Errorf("%w: model has no states", ErrCorruptModel)
	}

	m, err := newModelForMode[T](mode, blob.Level)
	if err != nil {
		return nil, err
	}
	m.SetCodec(codec)

	// Rebuilding in blob order reproduces the original token and state IDs,
	// so an ID colliding with an earlier one means the blob repeats an entry.
	g := m.ensureGraph()
	for i, raw := range blob.Tokens {
		tok, err := m.codec.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: token %d: %v", ErrCorruptModel, i, err)
		}
		if g.internToken(tok) != i {
			return nil, fmt.Errorf("%w: duplicate token at index %d", ErrCorruptModel, i)
		}
	}
	for i, ids := range blob.States {
		if len(ids) != g.window {
			return nil, fmt.Errorf("%w: state %d has %d tokens, want %d", ErrCorruptModel, i, len(ids), g.window)
		}
		for _, id := range ids {
			if id < 0 || id >= len(g.tokens) {
				return nil, fmt.Errorf("%w: state %d references unknown token %d", ErrCorruptModel, i, id)
			}
		}
		if _, ok := g.index[g.stateKey(ids)]; ok {
			return nil, fmt.Errorf("%w: duplicate state at index %d", ErrCorruptModel, i)
		}
		g.addVertex(ids)
	}
	for i, e := range blob.Edges {
		from, to, weight := e[0], e[1], e[2]
		if from < 0 || from >= len(g.verts) || to < 0 || to >= len(g.verts) {
			return nil, fmt.Errorf("%w: edge %d references an unknown state", ErrCorruptModel, i)
		}
		if weight < 1 {
			return nil, fmt.Errorf("%w: edge %d has weight %d", ErrCorruptModel, i, weight)
		}
		v := &g.verts[from]
		if _, ok := v.succPos[to]; ok {
			return nil, fmt.Errorf("%w: duplicate edge at index %d", ErrCorruptModel, i)
		}
		v.succPos[to] = len(v.edges)
		v.edges = append(v.edges, transition{succ: to, weight: weight})
		v.total += weight
		g.edgeCount++
		g.totalWeight += weight
	}
	if blob.Cursor != nil {
		if *blob.Cursor < 0 || *blob.Cursor >= len(g.verts) {
			return nil, fmt.Errorf("%w: cursor %d out of range", ErrCorruptModel, *blob.Cursor)
		}
		g.current = *blob.Cursor
	}
	return m, nil
}

// newModelForMode constructs a model for a persisted mode tag, checking that
// the requested token type matches the mode's.
func newModelForMode[T comparable](mode TokenizeMode, level int) (*Model[T], error) {
	if mode == ModeNone {
		return NewModel[T](level)
	}
	var built any
	var err error
	switch mode {
	case ModeWord:
		built, err = NewWordModel(level)
	case ModeChar:
		built, err = NewCharModel(level)
	case ModeByte:
		built, err = NewByteModel(level)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if err != nil {
		return nil, err
	}
	m, ok := built.(*Model[T])
	if !ok {
		return nil, fmt.Errorf("%w: model holds %s tokens", ErrTypeMismatch, mode)
	}
	return m, nil
}

// Inspect decodes only a blob's self-describing header and counts, without
// binding the token type. Callers can use it to decide which type parameter
// to load a model of unknown mode with.
func Inspect(r io.Reader) (ModelStats, error) {
	var blob modelBlob
	if err := json.NewDecoder(r).Decode(&blob); err != nil {
		return ModelStats{}, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	mode, err := blob.header()
	if err != nil {
		return ModelStats{}, err
	}
	stats := ModelStats{
		Mode:   mode,
		Level:  blob.Level,
		Tokens: len(blob.Tokens),
		States: len(blob.States),
		Edges:  len(blob.Edges),
	}
	for _, e := range blob.Edges {
		stats.TotalWeight += e[2]
	}
	return stats, nil
}
