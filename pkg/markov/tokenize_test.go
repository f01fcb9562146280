package markov

import (
	"errors"
	"testing"
)

func TestParseMode(t *testing.T) {
	testCases := []struct {
		input       string
		want        TokenizeMode
		expectError bool
	}{
		{input: "word", want: ModeWord},
		{input: "character", want: ModeChar},
		{input: "char", want: ModeChar},
		{input: "byte", want: ModeByte},
		{input: "none", want: ModeNone},
		{input: "WORD", want: ModeWord},
		{input: "Character", want: ModeChar},
		{input: "sentence", expectError: true},
		{input: "", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseMode(tc.input)
			if tc.expectError {
				if !errors.Is(err, ErrInvalidMode) {
					t.Errorf("ParseMode(%q) error = %v, want ErrInvalidMode", tc.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q) failed: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestModeStringRoundTrip(t *testing.T) {
	for _, mode := range []TokenizeMode{ModeWord, ModeChar, ModeByte, ModeNone} {
		got, err := ParseMode(mode.String())
		if err != nil {
			t.Fatalf("ParseMode(%q) failed: %v", mode.String(), err)
		}
		if got != mode {
			t.Errorf("ParseMode(%q) = %v, want %v", mode.String(), got, mode)
		}
	}
}

func TestModeStringUnknown(t *testing.T) {
	got := TokenizeMode(42).String()
	if got != "TokenizeMode(42)" {
		t.Errorf("String() = %q, want %q", got, "TokenizeMode(42)")
	}
}
