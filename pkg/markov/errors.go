package markov

import "errors"

// Sentinel errors returned by models, graphs, and the model store.
// They are matched with errors.Is; call sites may wrap them with
// additional context.
var (
	// ErrInvalidLevel indicates a model was constructed with a negative level.
	ErrInvalidLevel = errors.New("level must be non-negative")

	// ErrInvalidMode indicates an unrecognized tokenization mode name.
	ErrInvalidMode = errors.New("unknown tokenization mode")

	// ErrTypeMismatch indicates the input does not match the model's
	// tokenization mode, e.g. raw bytes fed to a character-mode model, or
	// a persisted model loaded with the wrong token type.
	ErrTypeMismatch = errors.New("input does not match tokenization mode")

	// ErrUntrained indicates generation, saving, or pruning was requested
	// before any training call took effect.
	ErrUntrained = errors.New("model has not been trained")

	// ErrUntrainedGraph indicates a generation step was requested from a
	// graph with no states. Unreachable through a Model, which guards with
	// ErrUntrained first, but a bare Graph reports it independently.
	ErrUntrainedGraph = errors.New("graph has no states")

	// ErrCorruptModel indicates persisted model data is malformed,
	// truncated, or carries an unrecognized tag.
	ErrCorruptModel = errors.New("corrupt model data")

	// ErrModelNotFound indicates the named model does not exist in the store.
	ErrModelNotFound = errors.New("model not found")
)
