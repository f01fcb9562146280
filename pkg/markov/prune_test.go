package markov

import (
	"bytes"
	"errors"
	"testing"
)

func TestPrune(t *testing.T) {
	// 1->2 and 2->1 are walked twice, 1->3 once, and the cursor ends on
	// the weak state [3].
	m := trainedSequence(t, 1, []int{1, 2, 1, 2, 1, 3})

	removedEdges, removedStates, err := m.Prune(2)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if removedEdges != 1 {
		t.Errorf("Prune() removed %d edges, want 1", removedEdges)
	}
	if removedStates != 1 {
		t.Errorf("Prune() removed %d states, want 1", removedStates)
	}

	stats := m.Stats()
	if stats.States != 2 {
		t.Errorf("Stats().States = %d, want 2", stats.States)
	}
	if stats.Edges != 2 {
		t.Errorf("Stats().Edges = %d, want 2", stats.Edges)
	}
	if stats.TotalWeight != 4 {
		t.Errorf("Stats().TotalWeight = %d, want 4", stats.TotalWeight)
	}
	// The token table keeps pruned tokens.
	if stats.Tokens != 3 {
		t.Errorf("Stats().Tokens = %d, want 3", stats.Tokens)
	}
	if got := m.graph.Weight([]int{1}, []int{2}); got != 2 {
		t.Errorf("Weight(1, 2) = %d after prune, want 2", got)
	}
	if got := m.graph.Weight([]int{1}, []int{3}); got != 0 {
		t.Errorf("Weight(1, 3) = %d after prune, want 0", got)
	}

	// The cursor sat on the removed state, so it is cleared and the next
	// step restarts.
	if _, ok := m.graph.Current(); ok {
		t.Error("cursor still set after its state was pruned")
	}
	if _, err := m.Next(); err != nil {
		t.Errorf("Next() after prune failed: %v", err)
	}
}

func TestPruneNothingToRemove(t *testing.T) {
	m := trainedWordModel(t)

	var before bytes.Buffer
	if err := m.Save(&before); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	removedEdges, removedStates, err := m.Prune(1)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if removedEdges != 0 || removedStates != 0 {
		t.Errorf("Prune(1) removed %d edges and %d states, want none", removedEdges, removedStates)
	}

	var after bytes.Buffer
	if err := m.Save(&after); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if !bytes.Equal(before.Bytes(), after.Bytes()) {
		t.Error("a no-op prune changed the serialized model")
	}
}

func TestPruneEverything(t *testing.T) {
	m := trainedSequence(t, 1, []int{1, 2, 3})

	removedEdges, removedStates, err := m.Prune(2)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if removedEdges != 2 || removedStates != 3 {
		t.Errorf("Prune() removed %d edges and %d states, want 2 and 3", removedEdges, removedStates)
	}
	if _, err := m.Next(); !errors.Is(err, ErrUntrained) {
		t.Errorf("Next() after pruning everything: error = %v, want ErrUntrained", err)
	}
}

func TestPruneKeepsOrder(t *testing.T) {
	m := trainedSequence(t, 1, []int{1, 2, 1, 2, 1, 3, 1, 2})
	if _, _, err := m.Prune(2); err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}

	// Surviving states and edges keep their order, so a save, load, save
	// cycle reproduces the pruned model exactly.
	var first bytes.Buffer
	if err := m.Save(&first); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	loaded, err := Load[int](bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	var second bytes.Buffer
	if err := loaded.Save(&second); err != nil {
		t.Fatalf("Save() of the loaded model failed: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("saving the loaded pruned model produced different bytes")
	}
}

func TestPruneUntrained(t *testing.T) {
	m, err := NewWordModel(1)
	if err != nil {
		t.Fatalf("NewWordModel() error = %v", err)
	}
	if _, _, err := m.Prune(1); !errors.Is(err, ErrUntrained) {
		t.Errorf("Prune() error = %v, want ErrUntrained", err)
	}
}
