package markov

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNextUntrained(t *testing.T) {
	m, err := NewWordModel(2)
	if err != nil {
		t.Fatalf("NewWordModel() error = %v", err)
	}
	if _, err := m.Next(); !errors.Is(err, ErrUntrained) {
		t.Errorf("Next() error = %v, want ErrUntrained", err)
	}
	if err := m.GenerateTo(context.Background(), &bytes.Buffer{}, 5); !errors.Is(err, ErrUntrained) {
		t.Errorf("GenerateTo() error = %v, want ErrUntrained", err)
	}
}

func TestGenerateStaysInVocabulary(t *testing.T) {
	m := trainedWordModel(t)
	m.SetRand(fixedRand(3))

	vocab := map[string]bool{
		"one": true, "fish": true, "two": true, "fish.": true,
		"red": true, "blue": true,
	}
	for i := 0; i < 500; i++ {
		tok, err := m.Next()
		if err != nil {
			t.Fatalf("step %d: Next() failed: %v", i, err)
		}
		if !vocab[tok] {
			t.Fatalf("step %d: got token %q outside the training vocabulary", i, tok)
		}
	}
}

// containsSeq reports whether needle occurs as a contiguous run in haystack.
func containsSeq(haystack, needle []int) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, v := range needle {
			if haystack[i+j] != v {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func TestGenerateFollowsTrainedTransitions(t *testing.T) {
	// At level 2 this sequence pins down the walk almost completely: after
	// two consecutive 5s the only continuation seen in training is 4.
	m := trainedSequence(t, 2, []int{1, 2, 3, 4, 5, 5, 4, 3, 2, 1})
	m.SetRand(fixedRand(11))

	var got []int
	for i := 0; i < 5000; i++ {
		tok, err := m.Next()
		if err != nil {
			t.Fatalf("step %d: Next() failed: %v", i, err)
		}
		got = append(got, tok)
	}

	if !containsSeq(got, []int{3, 4, 5, 5, 4, 3, 2}) {
		t.Error("expected the walk to reproduce the trained run 3 4 5 5 4 3 2, but it never did")
	}
	if containsSeq(got, []int{5, 5, 3}) {
		t.Error("the walk produced 5 5 3, which the training data never contains")
	}
}

func TestGenerateToJoinsTokens(t *testing.T) {
	t.Run("Word mode separates with spaces", func(t *testing.T) {
		m, _ := NewWordModel(1)
		if err := m.Train(strings.NewReader("go go go")); err != nil {
			t.Fatalf("Train() failed: %v", err)
		}
		var buf bytes.Buffer
		if err := m.GenerateTo(context.Background(), &buf, 3); err != nil {
			t.Fatalf("GenerateTo() failed: %v", err)
		}
		if got := buf.String(); got != "go go go" {
			t.Errorf("GenerateTo() wrote %q, want %q", got, "go go go")
		}
	})

	t.Run("Character mode concatenates", func(t *testing.T) {
		m, _ := NewCharModel(1)
		if err := m.Train(strings.NewReader("aaaa")); err != nil {
			t.Fatalf("Train() failed: %v", err)
		}
		var buf bytes.Buffer
		if err := m.GenerateTo(context.Background(), &buf, 3); err != nil {
			t.Fatalf("GenerateTo() failed: %v", err)
		}
		if got := buf.String(); got != "aaa" {
			t.Errorf("GenerateTo() wrote %q, want %q", got, "aaa")
		}
	})

	t.Run("Byte mode concatenates", func(t *testing.T) {
		m, _ := NewByteModel(1)
		if err := m.Train(strings.NewReader("xx")); err != nil {
			t.Fatalf("Train() failed: %v", err)
		}
		var buf bytes.Buffer
		if err := m.GenerateTo(context.Background(), &buf, 2); err != nil {
			t.Fatalf("GenerateTo() failed: %v", err)
		}
		if got := buf.String(); got != "xx" {
			t.Errorf("GenerateTo() wrote %q, want %q", got, "xx")
		}
	})

	t.Run("None mode separates with spaces", func(t *testing.T) {
		m := trainedSequence(t, 1, []int{7, 7, 7})
		var buf bytes.Buffer
		if err := m.GenerateTo(context.Background(), &buf, 3); err != nil {
			t.Fatalf("GenerateTo() failed: %v", err)
		}
		if got := buf.String(); got != "7 7 7" {
			t.Errorf("GenerateTo() wrote %q, want %q", got, "7 7 7")
		}
	})
}

func TestGenerateToAmountZero(t *testing.T) {
	m := trainedWordModel(t)
	var buf bytes.Buffer
	if err := m.GenerateTo(context.Background(), &buf, 0); err != nil {
		t.Fatalf("GenerateTo() failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("GenerateTo() with amount 0 wrote %q, want nothing", buf.String())
	}
}

// cancelingWriter cancels its context after a fixed number of writes, which
// lets tests stop an unbounded generation deterministically.
type cancelingWriter struct {
	bytes.Buffer
	remaining int
	cancel    context.CancelFunc
}

func (w *cancelingWriter) Write(p []byte) (int, error) {
	n, err := w.Buffer.Write(p)
	w.remaining--
	if w.remaining <= 0 {
		w.cancel()
	}
	return n, err
}

// WriteString funnels io.WriteString through the counting Write above;
// without it the embedded Buffer's promoted WriteString bypasses the count
// and the cancel never fires.
func (w *cancelingWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func TestGenerateToUnboundedStopsOnCancel(t *testing.T) {
	m := trainedWordModel(t)
	m.SetRand(fixedRand(5))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &cancelingWriter{remaining: 20, cancel: cancel}

	err := m.GenerateTo(ctx, w, -1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("GenerateTo() error = %v, want context.Canceled", err)
	}
	if w.Len() == 0 {
		t.Error("GenerateTo() wrote nothing before the context was cancelled")
	}
}

func TestGenerateReproducible(t *testing.T) {
	gen := func() string {
		m := trainedWordModel(t)
		m.SetRand(fixedRand(1234))
		var buf bytes.Buffer
		if err := m.GenerateTo(context.Background(), &buf, 50); err != nil {
			t.Fatalf("GenerateTo() failed: %v", err)
		}
		return buf.String()
	}

	first, second := gen(), gen()
	if first != second {
		t.Errorf("two identically seeded models diverged:\n%q\n%q", first, second)
	}
}

func TestGenerateContinuesPastDeadEnds(t *testing.T) {
	// 1 2 3 leaves state [3] with no outgoing edges. The walk restarts
	// there instead of stopping.
	m := trainedSequence(t, 1, []int{1, 2, 3})
	m.SetRand(fixedRand(8))

	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		tok, err := m.Next()
		if err != nil {
			t.Fatalf("step %d: Next() failed: %v", i, err)
		}
		seen[tok] = true
	}
	if !seen[3] {
		t.Error("the walk never reached the dead-end token 3")
	}
	if !seen[1] && !seen[2] {
		t.Error("the walk never restarted after the dead end")
	}
}

func BenchmarkNext(b *testing.B) {
	corpus := createBenchmarkCorpus()

	for _, level := range []int{1, 2, 3} {
		b.Run(fmt.Sprintf("Level%d", level), func(b *testing.B) {
			m, err := NewWordModel(level)
			if err != nil {
				b.Fatalf("NewWordModel() error = %v", err)
			}
			if err := m.Train(strings.NewReader(corpus)); err != nil {
				b.Fatalf("Train() setup for benchmark failed: %v", err)
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := m.Next(); err != nil {
					b.Fatalf("Next() failed: %v", err)
				}
			}
		})
	}
}
