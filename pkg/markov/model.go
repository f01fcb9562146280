package markov

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
)

// Model ties a tokenization policy and a context length ("level") to the
// state graph built from training data. The level is the number of trailing
// tokens forming a state and is fixed at construction; level 0 degenerates
// to single-token states. The graph is created on the first training call
// and extended by every later one, so training is cumulative rather than
// resetting.
//
// A Model is not safe for concurrent use: training and generation both move
// the graph's single cursor.
type Model[T comparable] struct {
	level int
	mode  TokenizeMode
	graph *Graph[T]

	// tokenize is nil for ModeNone, which only accepts pre-tokenized input.
	tokenize func([]byte) ([]T, error)
	emit     func(io.Writer, T) error
	sep      string

	codec  TokenCodec[T]
	rng    *rand.Rand
	logger *slog.Logger
}

func newModel[T comparable](level int, mode TokenizeMode) (*Model[T], error) {
	if level < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	return &Model[T]{
		level:  level,
		mode:   mode,
		codec:  jsonCodec[T]{},
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// NewWordModel returns a model that tokenizes UTF-8 text into
// whitespace-delimited words and joins generated words with single spaces.
// It fails with ErrInvalidLevel when level is negative.
func NewWordModel(level int) (*Model[string], error) {
	m, err := newModel[string](level, ModeWord)
	if err != nil {
		return nil, err
	}
	m.tokenize = tokenizeWords
	m.emit = emitString
	m.sep = " "
	return m, nil
}

// NewCharModel returns a model over individual runes of UTF-8 text.
// Generated runes are concatenated without separators.
func NewCharModel(level int) (*Model[rune], error) {
	m, err := newModel[rune](level, ModeChar)
	if err != nil {
		return nil, err
	}
	m.tokenize = tokenizeChars
	m.emit = emitRune
	return m, nil
}

// NewByteModel returns a model over raw bytes. Any input is accepted and
// generated bytes are written back without separators.
func NewByteModel(level int) (*Model[byte], error) {
	m, err := newModel[byte](level, ModeByte)
	if err != nil {
		return nil, err
	}
	m.tokenize = tokenizeBytes
	m.emit = emitByte
	return m, nil
}

// NewModel returns a model in ModeNone over caller-supplied tokens of any
// comparable type. Such a model is trained exclusively through TrainTokens;
// generated tokens are rendered with the fmt package and joined with single
// spaces.
func NewModel[T comparable](level int) (*Model[T], error) {
	m, err := newModel[T](level, ModeNone)
	if err != nil {
		return nil, err
	}
	m.emit = emitAny[T]
	m.sep = " "
	return m, nil
}

// Level returns the context length the model was constructed with.
func (m *Model[T]) Level() int { return m.level }

// Mode returns the model's tokenization mode.
func (m *Model[T]) Mode() TokenizeMode { return m.mode }

// SetLogger sets the logger for the model. By default, all logs are
// discarded. Providing a `log/slog.Logger` will enable logging for training,
// generation, and other operations.
func (m *Model[T]) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// SetRand replaces the random source used by generation. The default source
// is freshly seeded at construction; installing one with a fixed seed makes
// generation reproducible, which is mainly useful in tests and for the
// --seed flag of the CLI.
func (m *Model[T]) SetRand(rng *rand.Rand) {
	if rng != nil {
		m.rng = rng
	}
}

// SetCodec replaces the codec used to encode tokens in persisted models.
// The default codec marshals tokens with encoding/json, which covers the
// built-in modes; models over custom token types may need their own codec.
// Loading such a model back requires LoadWithCodec with the same codec.
func (m *Model[T]) SetCodec(codec TokenCodec[T]) {
	if codec != nil {
		m.codec = codec
	}
}

// trained reports whether at least one training call has taken effect. A
// Train call that produced no windows (input shorter than the window) leaves
// the model untrained.
func (m *Model[T]) trained() bool {
	return m.graph != nil && m.graph.Len() > 0
}

func (m *Model[T]) ensureGraph() *Graph[T] {
	if m.graph == nil {
		m.graph = NewGraph[T](max(m.level, 1))
	}
	return m.graph
}
