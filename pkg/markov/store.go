package markov

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// StorableModel is the mode-independent surface a Store needs from a model.
// Every Model satisfies it regardless of its token type, which lets code
// that stores models stay out of the generic type parameter.
type StorableModel interface {
	Save(w io.Writer) error
	Stats() ModelStats
}

// ModelInfo describes one named model held in a Store.
type ModelInfo struct {
	Name      string
	Mode      TokenizeMode
	Level     int
	States    int
	Edges     int
	UpdatedAt time.Time
}

// SetupSchema initializes the model table in the provided database. This
// function should be called once on a new database before any other
// operations are performed. It is idempotent and safe to call on an
// already-initialized database.
func SetupSchema(db *sql.DB) error {
	const schemaModels = `
CREATE TABLE IF NOT EXISTS markov_models (
    model_name TEXT PRIMARY KEY,
    mode TEXT NOT NULL,
    level INTEGER NOT NULL,
    states INTEGER NOT NULL,
    edges INTEGER NOT NULL,
    model_data BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);
`
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	// If the transaction succeeds, tx.Commit() will be called first, and the rollback will do nothing. If it fails, this will clean up.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaModels); err != nil {
		return fmt.Errorf("could not create schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// Store persists named models in a SQL database. It holds the database
// connection and prepared statements for the model table; models themselves
// are stored as the same self-describing blobs Save produces, next to the
// header fields used for listing without decoding blobs.
type Store struct {
	db             *sql.DB
	stmtUpsert     *sql.Stmt
	stmtGetInfo    *sql.Stmt
	stmtGetData    *sql.Stmt
	stmtListModels *sql.Stmt
	stmtDelete     *sql.Stmt
	logger         *slog.Logger
}

// NewStore creates and returns a new Store on a database prepared with
// SetupSchema. It pre-compiles all necessary SQL statements, returning an
// error if any preparation fails.
func NewStore(db *sql.DB) (*Store, error) {
	stmtUpsert, err := db.Prepare(`INSERT INTO markov_models (model_name, mode, level, states, edges, model_data, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(model_name) DO UPDATE SET mode = excluded.mode, level = excluded.level, states = excluded.states, edges = excluded.edges, model_data = excluded.model_data, updated_at = excluded.updated_at;`)
	if err != nil {
		return nil, err
	}

	stmtGetInfo, err := db.Prepare(`SELECT model_name, mode, level, states, edges, updated_at FROM markov_models WHERE model_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetData, err := db.Prepare(`SELECT model_data FROM markov_models WHERE model_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtListModels, err := db.Prepare(`SELECT model_name, mode, level, states, edges, updated_at FROM markov_models ORDER BY model_name;`)
	if err != nil {
		return nil, err
	}

	stmtDelete, err := db.Prepare(`DELETE FROM markov_models WHERE model_name = ?;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:             db,
		stmtUpsert:     stmtUpsert,
		stmtGetInfo:    stmtGetInfo,
		stmtGetData:    stmtGetData,
		stmtListModels: stmtListModels,
		stmtDelete:     stmtDelete,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared SQL statements held by the Store. It should be
// called when the Store is no longer needed to free up database resources.
func (s *Store) Close() {
	_ = s.stmtUpsert.Close()
	_ = s.stmtGetInfo.Close()
	_ = s.stmtGetData.Close()
	_ = s.stmtListModels.Close()
	_ = s.stmtDelete.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are
// discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SaveModel serializes m and stores it under name, replacing any model
// already stored under that name.
func (s *Store) SaveModel(ctx context.Context, name string, m StorableModel) error {
	var buf bytes.Buffer
	if err := m.Save(&buf); err != nil {
		return fmt.Errorf("could not serialize model '%s': %w", name, err)
	}
	return s.SaveModelData(ctx, name, buf.Bytes())
}

// SaveModelData stores an already serialized model blob under name. The
// blob's header is decoded to fill the info columns, so a malformed blob is
// rejected with ErrCorruptModel rather than stored.
func (s *Store) SaveModelData(ctx context.Context, name string, data []byte) error {
	stats, err := Inspect(bytes.NewReader(data))
	if err != nil {
		return err
	}
	_, err = s.stmtUpsert.ExecContext(ctx, name, stats.Mode.String(), stats.Level, stats.States, stats.Edges, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("could not store model '%s': %w", name, err)
	}

	s.logger.InfoContext(ctx, "Model stored",
		slog.String("model_name", name),
		slog.String("mode", stats.Mode.String()),
		slog.Int("level", stats.Level),
		slog.Int("states", stats.States),
		slog.Int("edges", stats.Edges),
	)
	return nil
}

// ModelInfo returns the stored metadata for the named model, or
// ErrModelNotFound.
func (s *Store) ModelInfo(ctx context.Context, name string) (ModelInfo, error) {
	var (
		info    ModelInfo
		mode    string
		updated int64
	)
	err := s.stmtGetInfo.QueryRowContext(ctx, name).Scan(&info.Name, &mode, &info.Level, &info.States, &info.Edges, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return ModelInfo{}, fmt.Errorf("%w: '%s'", ErrModelNotFound, name)
	}
	if err != nil {
		return ModelInfo{}, fmt.Errorf("could not query model '%s': %w", name, err)
	}
	info.Mode, err = ParseMode(mode)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("model '%s' has an unrecognized mode: %w", name, err)
	}
	info.UpdatedAt = time.Unix(updated, 0)
	return info, nil
}

// ModelData returns the named model's serialized blob, or ErrModelNotFound.
func (s *Store) ModelData(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.stmtGetData.QueryRowContext(ctx, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: '%s'", ErrModelNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("could not query model '%s': %w", name, err)
	}
	return data, nil
}

// ListModels returns the metadata of every stored model, ordered by name.
func (s *Store) ListModels(ctx context.Context) ([]ModelInfo, error) {
	rows, err := s.stmtListModels.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list models: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var infos []ModelInfo
	for rows.Next() {
		var (
			info    ModelInfo
			mode    string
			updated int64
		)
		if err = rows.Scan(&info.Name, &mode, &info.Level, &info.States, &info.Edges, &updated); err != nil {
			return nil, fmt.Errorf("could not scan model row: %w", err)
		}
		info.Mode, err = ParseMode(mode)
		if err != nil {
			return nil, fmt.Errorf("model '%s' has an unrecognized mode: %w", info.Name, err)
		}
		info.UpdatedAt = time.Unix(updated, 0)
		infos = append(infos, info)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating model rows: %w", err)
	}
	return infos, nil
}

// DeleteModel removes the named model, or returns ErrModelNotFound if no
// such model is stored.
func (s *Store) DeleteModel(ctx context.Context, name string) error {
	res, err := s.stmtDelete.ExecContext(ctx, name)
	if err != nil {
		return fmt.Errorf("could not delete model '%s': %w", name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not delete model '%s': %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: '%s'", ErrModelNotFound, name)
	}

	s.logger.InfoContext(ctx, "Model deleted",
		slog.String("model_name", name),
	)
	return nil
}

// LoadModel loads the named model from the store with the default token
// codec. Like Load, the type parameter must match the stored mode.
func LoadModel[T comparable](ctx context.Context, s *Store, name string) (*Model[T], error) {
	data, err := s.ModelData(ctx, name)
	if err != nil {
		return nil, err
	}
	return Load[T](bytes.NewReader(data))
}
