package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/CTAG07/randomwriter/pkg/markov"
)

func newTrainCmd() *cobra.Command {
	var appendTo bool

	cmd := &cobra.Command{
		Use:   "train [input]",
		Short: "Train a model on a file, stdin, or a URL and save it",
		Long: `Train builds a Markov model from the given input and saves it to the
configured model file, or into the model store when --db is set. The input
is a file path, '-' (or nothing) for stdin, or an http(s) URL.

With --append, the existing model is loaded first and the new data extends
it; without it a fresh model is built from --mode and --level.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := activeCfg
			input := ""
			if len(args) > 0 {
				input = args[0]
			}

			data, err := openInput(cmd.Context(), input)
			if err != nil {
				return err
			}
			defer func() {
				_ = data.Close()
			}()

			if appendTo {
				blob, err := readModelData(cmd.Context(), cfg)
				switch {
				case err == nil:
					stats, err := markov.Inspect(bytes.NewReader(blob))
					if err != nil {
						return err
					}
					return trainExisting(cmd.Context(), cfg, stats.Mode, blob, data)
				case errors.Is(err, markov.ErrModelNotFound) || errors.Is(err, os.ErrNotExist):
					slog.Info("No existing model to append to, training a new one")
				default:
					return err
				}
			}

			mode, err := markov.ParseMode(cfg.Mode)
			if err != nil {
				return err
			}
			return trainFresh(cmd.Context(), cfg, mode, data)
		},
	}

	cmd.Flags().BoolVar(&appendTo, "append", false, "Extend the existing model instead of starting fresh")

	return cmd
}

// openInput returns the training data source: stdin for "-" or an empty
// argument, the response body for an http(s) URL, or a local file.
func openInput(ctx context.Context, input string) (io.ReadCloser, error) {
	if input == "" || input == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, input, nil)
		if err != nil {
			return nil, fmt.Errorf("invalid training url: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch training data: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("failed to fetch training data: %s returned %s", input, resp.Status)
		}
		return resp.Body, nil
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("failed to open training data: %w", err)
	}
	return f, nil
}

func trainFresh(ctx context.Context, cfg appConfig, mode markov.TokenizeMode, data io.Reader) error {
	switch mode {
	case markov.ModeWord:
		m, err := markov.NewWordModel(cfg.Level)
		if err != nil {
			return err
		}
		return finishTraining(ctx, cfg, m, data)
	case markov.ModeChar:
		m, err := markov.NewCharModel(cfg.Level)
		if err != nil {
			return err
		}
		return finishTraining(ctx, cfg, m, data)
	case markov.ModeByte:
		m, err := markov.NewByteModel(cfg.Level)
		if err != nil {
			return err
		}
		return finishTraining(ctx, cfg, m, data)
	default:
		return fmt.Errorf("mode %s has no tokenizer for raw input; build such models with the library's TrainTokens", mode)
	}
}

func trainExisting(ctx context.Context, cfg appConfig, mode markov.TokenizeMode, blob []byte, data io.Reader) error {
	switch mode {
	case markov.ModeWord:
		m, err := markov.Load[string](bytes.NewReader(blob))
		if err != nil {
			return err
		}
		return finishTraining(ctx, cfg, m, data)
	case markov.ModeChar:
		m, err := markov.Load[rune](bytes.NewReader(blob))
		if err != nil {
			return err
		}
		return finishTraining(ctx, cfg, m, data)
	case markov.ModeByte:
		m, err := markov.Load[byte](bytes.NewReader(blob))
		if err != nil {
			return err
		}
		return finishTraining(ctx, cfg, m, data)
	default:
		return fmt.Errorf("cannot append raw input to a model in %s mode", mode)
	}
}

func finishTraining[T comparable](ctx context.Context, cfg appConfig, m *markov.Model[T], data io.Reader) error {
	m.SetLogger(slog.Default())
	if err := m.Train(data); err != nil {
		return err
	}
	return saveModel(ctx, cfg, m)
}

// saveModel writes a trained model to the store when --db is set, and to
// the model file otherwise. File writes are atomic so an interrupted save
// cannot corrupt an existing model.
func saveModel(ctx context.Context, cfg appConfig, m markov.StorableModel) error {
	if cfg.DB != "" {
		if cfg.Name == "" {
			return fmt.Errorf("--name is required when saving to a model store")
		}
		store, db, err := openStore(cfg.DB)
		if err != nil {
			return err
		}
		defer func() {
			store.Close()
			_ = db.Close()
		}()
		return store.SaveModel(ctx, cfg.Name, m)
	}

	var buf bytes.Buffer
	if err := m.Save(&buf); err != nil {
		return err
	}
	if err := atomic.WriteFile(cfg.Model, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	slog.Info("Model written",
		slog.String("path", cfg.Model),
		slog.Int("bytes", buf.Len()),
	)
	return nil
}
