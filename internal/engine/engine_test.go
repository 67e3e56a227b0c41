package engine

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osteokit/cabinet/internal/backing"
)

func newTestEngine(t *testing.T, dataDir string) *Engine {
	t.Helper()
	store, err := backing.OpenFile(dataDir, backing.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	e := New(store, t.TempDir(), nil)
	require.NoError(t, e.Initialize(context.Background()))
	t.Cleanup(func() { e.Close() })
	return e
}

func TestInitializeIdempotent(t *testing.T) {
	e := newTestEngine(t, t.TempDir())
	require.NoError(t, e.Initialize(context.Background()))
	require.NoError(t, e.Initialize(context.Background()))
}

func TestInitializePersistsFreshImage(t *testing.T) {
	dir := t.TempDir()
	store, err := backing.OpenFile(dir, backing.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	e := New(store, t.TempDir(), nil)
	require.NoError(t, e.Initialize(ctx))
	require.NoError(t, e.Close())

	image, err := store.Load(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, image, "an untouched store must still survive a restart")
}

func TestExecWritesThrough(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	e := newTestEngine(t, dir)
	_, err := e.Exec(ctx,
		`INSERT INTO patients (first_name, last_name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		"Jean", "Aubry", "2026-01-05T09:00:00Z", "2026-01-05T09:00:00Z")
	require.NoError(t, err)
	require.NoError(t, e.Close())

	// Reopen from the persisted image in a fresh scratch dir, as after a
	// process restart.
	store, err := backing.OpenFile(dir, backing.Options{DisableLock: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	e2 := New(store, t.TempDir(), nil)
	require.NoError(t, e2.Initialize(ctx))
	t.Cleanup(func() { e2.Close() })

	var count int
	row := e2.QueryRow(ctx, `SELECT COUNT(*) FROM patients`)
	require.NotNil(t, row)
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 1, count)
}

func TestClosedEngineRejectsOperations(t *testing.T) {
	e := newTestEngine(t, t.TempDir())
	require.NoError(t, e.Close())

	_, err := e.Exec(context.Background(), `DELETE FROM patients`)
	assert.Error(t, err)
	_, err = e.Query(context.Background(), `SELECT 1`)
	assert.Error(t, err)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	e := newTestEngine(t, t.TempDir())
	ctx := context.Background()

	err := e.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO patients (first_name, last_name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			"Rolled", "Back", "2026-01-05T09:00:00Z", "2026-01-05T09:00:00Z")
		require.NoError(t, err)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var count int
	require.NoError(t, e.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&count))
	assert.Zero(t, count)
}
