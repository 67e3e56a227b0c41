package local

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osteokit/cabinet/internal/backing"
	"github.com/osteokit/cabinet/internal/engine"
	"github.com/osteokit/cabinet/pkg/types"
)

// setupStore opens a full local store over a temp-dir backed engine.
func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := backing.OpenFile(t.TempDir(), backing.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	eng := engine.New(store, t.TempDir(), nil)
	require.NoError(t, eng.Initialize(context.Background()))
	t.Cleanup(func() { eng.Close() })
	return NewStore(eng)
}

func TestPatientCreateAssignsBookkeeping(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rec, err := s.Patients().Create(ctx, &types.Patient{
		Meta:      types.Meta{ID: 999}, // must be ignored
		FirstName: "Élise",
		LastName:  "Vidal",
		Email:     "elise.vidal@example.fr",
		BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		IsSmoker:  true,
	})
	require.NoError(t, err)
	p := rec.(*types.Patient)

	assert.Equal(t, int64(1), p.ID, "id comes from the engine, not the input")
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	assert.Nil(t, p.DeletedAt)
	assert.True(t, p.IsSmoker, "boolean survives the 0/1 column")
	assert.Equal(t, "1990-01-01", p.BirthDate.Format("2006-01-02"))
}

func TestPatientUpdateMergesOnlyPatchedFields(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rec, err := s.Patients().Create(ctx, &types.Patient{
		FirstName: "Marc", LastName: "Lefèvre", Email: "marc@example.fr", Notes: "lower back",
	})
	require.NoError(t, err)
	before := rec.(*types.Patient)

	updated, err := s.Patients().Update(ctx, before.ID, map[string]any{"phone": "0612345678"})
	require.NoError(t, err)
	after := updated.(*types.Patient)

	assert.Equal(t, "0612345678", after.Phone)
	assert.Equal(t, "Marc", after.FirstName)
	assert.Equal(t, "marc@example.fr", after.Email)
	assert.Equal(t, "lower back", after.Notes)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt),
		"updatedAt must advance strictly: %v vs %v", after.UpdatedAt, before.UpdatedAt)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
}

func TestPatientUpdateRejectsUnknownField(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rec, err := s.Patients().Create(ctx, &types.Patient{FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	_, err = s.Patients().Update(ctx, rec.RecordMeta().ID, map[string]any{"bloodType": "O+"})
	assert.True(t, errors.Is(err, types.ErrInvalidData))
}

func TestPatientUpdateMissingIsNotFound(t *testing.T) {
	s := setupStore(t)
	_, err := s.Patients().Update(context.Background(), 42, map[string]any{"notes": "x"})
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestPatientSoftDeleteKeepsData(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rec, err := s.Patients().Create(ctx, &types.Patient{FirstName: "Nina", LastName: "Roche"})
	require.NoError(t, err)
	id := rec.RecordMeta().ID

	ok, err := s.Patients().Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	// Invisible to normal reads.
	got, err := s.Patients().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
	all, err := s.Patients().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	// But the row is still there with its tombstone.
	stamp, exists, err := s.Patients().RawDeletedAt(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)
	require.NotNil(t, stamp)
	assert.WithinDuration(t, time.Now(), *stamp, time.Minute)

	// Second delete is a no-op, update refuses the tombstoned row.
	ok, err = s.Patients().Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = s.Patients().Update(ctx, id, map[string]any{"notes": "x"})
	assert.True(t, errors.Is(err, types.ErrNotFound))

	// Purge physically removes it.
	require.NoError(t, s.Patients().Purge(ctx, id))
	_, exists, err = s.Patients().RawDeletedAt(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPatientGetAllOrdersByFreshness(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first, err := s.Patients().Create(ctx, &types.Patient{FirstName: "Un", LastName: "Premier"})
	require.NoError(t, err)
	_, err = s.Patients().Create(ctx, &types.Patient{FirstName: "Deux", LastName: "Second"})
	require.NoError(t, err)

	// Touching the first record moves it back to the front.
	_, err = s.Patients().Update(ctx, first.RecordMeta().ID, map[string]any{"notes": "touched"})
	require.NoError(t, err)

	all, err := s.Patients().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Premier", all[0].(*types.Patient).LastName)
}

func TestPatientSearch(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Patients().Create(ctx, &types.Patient{FirstName: "Sophie", LastName: "Garnier", Email: "s.garnier@example.fr"})
	require.NoError(t, err)
	_, err = s.Patients().Create(ctx, &types.Patient{FirstName: "Paul", LastName: "Martin"})
	require.NoError(t, err)

	byName, err := s.Patients().Search(ctx, "garnier")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Sophie", byName[0].FirstName)

	byEmail, err := s.Patients().Search(ctx, "s.garnier@")
	require.NoError(t, err)
	assert.Len(t, byEmail, 1)

	none, err := s.Patients().Search(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRoundTripPersistence(t *testing.T) {
	dataDir := t.TempDir()
	ctx := context.Background()

	store, err := backing.OpenFile(dataDir, backing.Options{})
	require.NoError(t, err)
	eng := engine.New(store, t.TempDir(), nil)
	require.NoError(t, eng.Initialize(ctx))
	s := NewStore(eng)

	_, err = s.Patients().Create(ctx, &types.Patient{
		FirstName: "Luc",
		LastName:  "Besnard",
		BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		IsSmoker:  true,
	})
	require.NoError(t, err)
	_, err = s.Patients().Create(ctx, &types.Patient{FirstName: "Emma", LastName: "Collet"})
	require.NoError(t, err)

	// Simulate a restart: close everything, reopen from the saved image.
	require.NoError(t, eng.Close())
	require.NoError(t, store.Close())

	store2, err := backing.OpenFile(dataDir, backing.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { store2.Close() })
	eng2 := engine.New(store2, t.TempDir(), nil)
	require.NoError(t, eng2.Initialize(ctx))
	t.Cleanup(func() { eng2.Close() })
	s2 := NewStore(eng2)

	all, err := s2.Patients().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	var luc *types.Patient
	for _, rec := range all {
		if p := rec.(*types.Patient); p.FirstName == "Luc" {
			luc = p
		}
	}
	require.NotNil(t, luc)
	assert.True(t, luc.IsSmoker, "boolean must reread correctly typed")
	assert.Equal(t, "1990-01-01", luc.BirthDate.Format("2006-01-02"))
}
