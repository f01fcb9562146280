package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/CTAG07/randomwriter/pkg/markov"
)

func newGenerateCmd() *cobra.Command {
	var seed int64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a token stream from a trained model",
		Long: `Generate loads the configured model, draws --amount tokens from it, and
writes them to --output. An amount of 0 generates without bound until the
process is interrupted; Ctrl-C then flushes what was written and exits
cleanly. The model's mode is read from the model itself.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := activeCfg

			blob, err := readModelData(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			stats, err := markov.Inspect(bytes.NewReader(blob))
			if err != nil {
				return err
			}

			amount := cfg.Amount
			if amount == 0 {
				amount = -1
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out, closeOut, err := openOutput(cfg.Output)
			if err != nil {
				return err
			}
			defer closeOut()

			w := bufio.NewWriter(out)
			defer func() {
				_ = w.Flush()
			}()

			var rng *rand.Rand
			if cmd.Flags().Changed("seed") {
				rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
			}

			err = generateAs(ctx, stats.Mode, blob, rng, w, amount)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "Fix the random source for reproducible output")

	return cmd
}

// readModelData returns the serialized model from the store when --db is
// set, and from the model file otherwise.
func readModelData(ctx context.Context, cfg appConfig) ([]byte, error) {
	if cfg.DB != "" {
		if cfg.Name == "" {
			return nil, fmt.Errorf("--name is required when using a model store")
		}
		store, db, err := openStore(cfg.DB)
		if err != nil {
			return nil, err
		}
		defer func() {
			store.Close()
			_ = db.Close()
		}()
		return store.ModelData(ctx, cfg.Name)
	}
	data, err := os.ReadFile(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	return data, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// rawCodec keeps tokens as their raw JSON text. Loading a none-mode model
// through it sidesteps binding the original token type: distinct tokens
// stay distinct as strings, and generation prints their JSON form.
type rawCodec struct{}

func (rawCodec) Encode(tok string) (json.RawMessage, error) {
	return json.RawMessage(tok), nil
}

func (rawCodec) Decode(data json.RawMessage) (string, error) {
	return string(data), nil
}

func generateAs(ctx context.Context, mode markov.TokenizeMode, blob []byte, rng *rand.Rand, w io.Writer, amount int) error {
	switch mode {
	case markov.ModeWord:
		m, err := markov.Load[string](bytes.NewReader(blob))
		if err != nil {
			return err
		}
		return generateModel(ctx, m, rng, w, amount)
	case markov.ModeChar:
		m, err := markov.Load[rune](bytes.NewReader(blob))
		if err != nil {
			return err
		}
		return generateModel(ctx, m, rng, w, amount)
	case markov.ModeByte:
		m, err := markov.Load[byte](bytes.NewReader(blob))
		if err != nil {
			return err
		}
		return generateModel(ctx, m, rng, w, amount)
	case markov.ModeNone:
		m, err := markov.LoadWithCodec[string](bytes.NewReader(blob), rawCodec{})
		if err != nil {
			return err
		}
		return generateModel(ctx, m, rng, w, amount)
	default:
		return fmt.Errorf("model has unsupported mode %s", mode)
	}
}

func generateModel[T comparable](ctx context.Context, m *markov.Model[T], rng *rand.Rand, w io.Writer, amount int) error {
	m.SetLogger(slog.Default())
	m.SetRand(rng)
	return m.GenerateTo(ctx, w, amount)
}
