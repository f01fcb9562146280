package main

import (
	"bytes"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/CTAG07/randomwriter/pkg/markov"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage models in a SQLite store",
	}

	cmd.AddCommand(newModelsListCmd())
	cmd.AddCommand(newModelsInfoCmd())
	cmd.AddCommand(newModelsDeleteCmd())
	cmd.AddCommand(newModelsExportCmd())
	cmd.AddCommand(newModelsImportCmd())

	return cmd
}

// openStore opens the SQLite database at path, ensures the schema exists,
// and returns a ready Store. The caller closes both.
func openStore(path string) (*markov.Store, *sql.DB, error) {
	db, err := initDB(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open model store: %w", err)
	}
	if err = markov.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	store, err := markov.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	store.SetLogger(slog.Default())
	return store, db, nil
}

func requireStore() (*markov.Store, *sql.DB, error) {
	if activeCfg.DB == "" {
		return nil, nil, fmt.Errorf("a model store is required; set --db")
	}
	return openStore(activeCfg.DB)
}

func newModelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, db, err := requireStore()
			if err != nil {
				return err
			}
			defer func() {
				store.Close()
				_ = db.Close()
			}()

			infos, err := store.ListModels(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tMODE\tLEVEL\tSTATES\tEDGES\tUPDATED")
			for _, info := range infos {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
					info.Name, info.Mode, info.Level, info.States, info.Edges,
					info.UpdatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func newModelsInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Show a stored model's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, db, err := requireStore()
			if err != nil {
				return err
			}
			defer func() {
				store.Close()
				_ = db.Close()
			}()

			info, err := store.ModelInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Name:    %s\n", info.Name)
			fmt.Printf("Mode:    %s\n", info.Mode)
			fmt.Printf("Level:   %d\n", info.Level)
			fmt.Printf("States:  %d\n", info.States)
			fmt.Printf("Edges:   %d\n", info.Edges)
			fmt.Printf("Updated: %s\n", info.UpdatedAt.Format(time.RFC3339))
			return nil
		},
	}
}

func newModelsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, db, err := requireStore()
			if err != nil {
				return err
			}
			defer func() {
				store.Close()
				_ = db.Close()
			}()

			return store.DeleteModel(cmd.Context(), args[0])
		},
	}
}

func newModelsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <name> <file>",
		Short: "Write a stored model's blob to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, db, err := requireStore()
			if err != nil {
				return err
			}
			defer func() {
				store.Close()
				_ = db.Close()
			}()

			data, err := store.ModelData(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err = atomic.WriteFile(args[1], bytes.NewReader(data)); err != nil {
				return fmt.Errorf("failed to write model file: %w", err)
			}
			return nil
		},
	}
}

func newModelsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <name> <file>",
		Short: "Read a model blob from a file into the store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, db, err := requireStore()
			if err != nil {
				return err
			}
			defer func() {
				store.Close()
				_ = db.Close()
			}()

			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read model file: %w", err)
			}
			return store.SaveModelData(cmd.Context(), args[0], data)
		},
	}
}

