// Package engine wraps the embedded SQLite runtime behind a single
// process-wide handle. The engine works on a scratch copy of the database
// and write-through persists its serialized image to the durable backing
// store after every mutating statement, so a crash at any point loses at
// most the statement in flight.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/osteokit/cabinet/internal/backing"
	"github.com/osteokit/cabinet/pkg/types"
)

const workFileName = "cabinet.work.db"

// Engine owns the single open handle to the embedded database.
// It is safe for concurrent use; mutations serialize on an internal mutex
// so each persisted snapshot reflects a consistent state.
type Engine struct {
	mu          sync.Mutex
	store       backing.Store
	workPath    string
	db          *sql.DB
	initialized bool
	log         *slog.Logger
}

// New returns an Engine persisting through store, with its scratch
// database under workDir. Call Initialize before use.
func New(store backing.Store, workDir string, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:    store,
		workPath: filepath.Join(workDir, workFileName),
		log:      log,
	}
}

// Initialize opens the embedded database. Idempotent: a second call on an
// initialized engine is a no-op. When the backing store holds a saved
// image, the image is restored; otherwise a fresh database is created.
// The schema is applied in both cases (idempotent DDL), then the image is
// persisted so even an untouched store survives a restart.
//
// An engine that cannot be opened reports ErrEngineUnavailable; callers
// treat that as "local storage unavailable" and select a fallback tier.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	image, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading database image: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(e.workPath), 0o755); err != nil {
		return fmt.Errorf("%w: %v", types.ErrEngineUnavailable, err)
	}
	if image != nil {
		if err := os.WriteFile(e.workPath, image, 0o644); err != nil {
			return fmt.Errorf("%w: restoring image: %v", types.ErrEngineUnavailable, err)
		}
		e.log.Debug("restored database image", "bytes", len(image))
	} else {
		// Fresh start: make sure no stale scratch file leaks old state.
		if err := os.Remove(e.workPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: clearing scratch db: %v", types.ErrEngineUnavailable, err)
		}
	}

	db, err := sql.Open("sqlite", e.workPath)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrEngineUnavailable, err)
	}
	// One connection keeps the scratch file in a snapshot-able state and
	// matches the single-handle ownership model.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("%w: %v", types.ErrEngineUnavailable, err)
	}

	for _, ddl := range schemaDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			db.Close()
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	for _, ddl := range createIndexes {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating indexes: %w", err)
		}
	}

	e.db = db
	e.initialized = true

	if err := e.persistLocked(ctx); err != nil {
		e.db = nil
		e.initialized = false
		db.Close()
		return err
	}
	return nil
}

// Exec runs a mutating statement and persists the resulting image before
// returning, so consecutive calls never observe stale durable state.
func (e *Engine) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil, types.ErrClosed
	}
	res, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if err := e.persistLocked(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

// Query runs a read-only statement and returns all matching rows.
func (e *Engine) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	e.mu.Lock()
	db := e.db
	ok := e.initialized
	e.mu.Unlock()

	if !ok {
		return nil, types.ErrClosed
	}
	return db.QueryContext(ctx, query, args...)
}

// QueryRow runs a read-only statement expected to return at most one row.
func (e *Engine) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	e.mu.Lock()
	db := e.db
	ok := e.initialized
	e.mu.Unlock()

	if !ok {
		return nil
	}
	return db.QueryRowContext(ctx, query, args...)
}

// WithTx runs fn inside an explicit transaction, committing on success and
// rolling back on error or panic. The image is persisted once after a
// successful commit.
func (e *Engine) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return types.ErrClosed
	}
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if err = tx.Commit(); err == nil {
			err = e.persistLocked(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// Export returns the current serialized database image.
func (e *Engine) Export(ctx context.Context) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil, types.ErrClosed
	}
	return e.snapshotLocked(ctx)
}

// Close releases the handle and clears initialized state. Idempotent.
// The backing store itself is owned by the caller and stays open.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil
	}
	e.initialized = false
	db := e.db
	e.db = nil
	if err := db.Close(); err != nil {
		return fmt.Errorf("closing engine: %w", err)
	}
	return nil
}

// snapshotLocked serializes the database to bytes. The single-connection
// pool guarantees no statement is mid-flight, so the scratch file is a
// consistent image once the WAL (if any) is checkpointed.
func (e *Engine) snapshotLocked(ctx context.Context) ([]byte, error) {
	if _, err := e.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return nil, fmt.Errorf("checkpointing: %w", err)
	}
	image, err := os.ReadFile(e.workPath)
	if err != nil {
		return nil, fmt.Errorf("reading scratch db: %w", err)
	}
	return image, nil
}

func (e *Engine) persistLocked(ctx context.Context) error {
	image, err := e.snapshotLocked(ctx)
	if err != nil {
		return err
	}
	if err := e.store.Save(ctx, image); err != nil {
		return fmt.Errorf("persisting database image: %w", err)
	}
	return nil
}
