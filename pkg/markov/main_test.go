package markov

import (
	"database/sql"
	"go/build"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// trainedWordModel creates a level-2 word model trained on a small fixed
// corpus. It fails the test on any setup error.
func trainedWordModel(t *testing.T) *Model[string] {
	t.Helper()
	m, err := NewWordModel(2)
	if err != nil {
		t.Fatalf("NewWordModel() error = %v", err)
	}
	trainingData := "one fish two fish. red fish blue fish."
	if err := m.Train(strings.NewReader(trainingData)); err != nil {
		t.Fatalf("setup: Train() failed: %v", err)
	}
	return m
}

// trainedSequence creates a pre-tokenized model over an explicit token
// sequence, which gives tests exact control over the transition weights.
func trainedSequence(t *testing.T, level int, seq []int) *Model[int] {
	t.Helper()
	m, err := NewModel[int](level)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	if err := m.TrainTokens(seq); err != nil {
		t.Fatalf("setup: TrainTokens() failed: %v", err)
	}
	return m
}

// fixedRand returns a seeded source so walks are reproducible across runs.
func fixedRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// setupTestStore creates a Store backed by a SQLite database in a temp
// directory. It uses t.Cleanup to ensure resources are released.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=-4000")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(store.Close)

	return store
}

var (
	benchmarkCorpus string
	corpusOnce      sync.Once
)

// createBenchmarkCorpus reads Go source files to create a corpus for benchmarking.
func createBenchmarkCorpus() string {
	corpusOnce.Do(func() {
		var sb strings.Builder
		goRoot := build.Default.GOROOT
		filesToRead := []string{
			filepath.Join(goRoot, "src/net/http/server.go"),
			filepath.Join(goRoot, "src/go/parser/parser.go"),
			filepath.Join(goRoot, "src/encoding/json/encode.go"),
		}

		for _, file := range filesToRead {
			content, err := os.ReadFile(file)
			if err != nil {
				benchmarkCorpus = "this is a fallback corpus for benchmarking. it is not very long but will prevent a crash. "
				return
			}
			sb.Write(content)
			sb.WriteString("\n")
		}
		benchmarkCorpus = sb.String()
	})
	return benchmarkCorpus
}
