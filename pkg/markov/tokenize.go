package markov

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// TokenizeMode selects how raw training input is split into tokens. The set
// is closed: a model's mode is fixed at construction and dispatched once,
// never probed from the input's shape.
type TokenizeMode int

const (
	// ModeWord splits UTF-8 text on runs of whitespace; tokens are strings.
	ModeWord TokenizeMode = iota
	// ModeChar treats UTF-8 text as individual runes.
	ModeChar
	// ModeByte treats input as raw bytes.
	ModeByte
	// ModeNone performs no tokenization; the caller supplies pre-tokenized
	// items of any comparable type via TrainTokens.
	ModeNone
)

// String returns the stable name used in persisted models and on the
// command line.
func (m TokenizeMode) String() string {
	switch m {
	case ModeWord:
		return "word"
	case ModeChar:
		return "character"
	case ModeByte:
		return "byte"
	case ModeNone:
		return "none"
	default:
		return fmt.Sprintf("TokenizeMode(%d)", int(m))
	}
}

// ParseMode converts a mode name back into a TokenizeMode. It accepts the
// names produced by String and returns ErrInvalidMode for anything else.
func ParseMode(s string) (TokenizeMode, error) {
	switch strings.ToLower(s) {
	case "word":
		return ModeWord, nil
	case "character", "char":
		return ModeChar, nil
	case "byte":
		return ModeByte, nil
	case "none":
		return ModeNone, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// tokenizeWords splits text into whitespace-delimited words, discarding
// empty fragments. Input that is not valid UTF-8 is rejected rather than
// silently mangled.
func tokenizeWords(data []byte) ([]string, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: training data is not valid UTF-8 text", ErrTypeMismatch)
	}
	return strings.Fields(string(data)), nil
}

// tokenizeChars splits text into individual runes.
func tokenizeChars(data []byte) ([]rune, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: training data is not valid UTF-8 text", ErrTypeMismatch)
	}
	return []rune(string(data)), nil
}

// tokenizeBytes uses the input bytes as tokens directly.
func tokenizeBytes(data []byte) ([]byte, error) {
	return data, nil
}

func emitString(w io.Writer, tok string) error {
	_, err := io.WriteString(w, tok)
	return err
}

func emitRune(w io.Writer, tok rune) error {
	_, err := io.WriteString(w, string(tok))
	return err
}

func emitByte(w io.Writer, tok byte) error {
	_, err := w.Write([]byte{tok})
	return err
}

func emitAny[T any](w io.Writer, tok T) error {
	_, err := fmt.Fprint(w, tok)
	return err
}
