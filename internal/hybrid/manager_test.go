package hybrid

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osteokit/cabinet/pkg/types"
)

func newTestManager(t *testing.T, cfg types.Config) *Manager {
	t.Helper()
	m := New(cfg, nil)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestInitializeConcurrent(t *testing.T) {
	m := newTestManager(t, types.DefaultConfig(t.TempDir()))
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = m.Initialize(ctx)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	tier, err := m.Tier(ctx)
	require.NoError(t, err)
	assert.Equal(t, TierEngine, tier)
}

func TestManagerCRUD(t *testing.T) {
	m := newTestManager(t, types.DefaultConfig(t.TempDir()))
	ctx := context.Background()

	// First call initializes implicitly.
	created, err := m.Create(ctx, types.KindPatients, &types.Patient{
		FirstName: "Jeanne", LastName: "Morel", Email: "jeanne@example.fr",
	})
	require.NoError(t, err)
	id := created.RecordMeta().ID
	require.NotZero(t, id)

	updated, err := m.Update(ctx, types.KindPatients, id, map[string]any{"phone": "0611223344"})
	require.NoError(t, err)
	assert.Equal(t, "0611223344", updated.(*types.Patient).Phone)

	all, err := m.GetAll(ctx, types.KindPatients)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	deleted, err := m.Delete(ctx, types.KindPatients, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	rec, err := m.GetByID(ctx, types.KindPatients, id)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestManagerDegradesWhenLocked(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := newTestManager(t, types.DefaultConfig(dir))
	require.NoError(t, first.Initialize(ctx))

	// A second session against the same data dir cannot take the image
	// lock; it must still come up, one tier down, and still serve
	// sensitive kinds locally.
	second := newTestManager(t, types.DefaultConfig(dir))
	require.NoError(t, second.Initialize(ctx))

	tier, err := second.Tier(ctx)
	require.NoError(t, err)
	assert.Equal(t, TierObjectStore, tier)
	degraded, err := second.Degraded(ctx)
	require.NoError(t, err)
	assert.True(t, degraded)

	sqlStore, err := second.Local(ctx)
	require.NoError(t, err)
	assert.Nil(t, sqlStore, "typed SQL helpers are engine-tier only")

	created, err := second.Create(ctx, types.KindPatients, &types.Patient{
		FirstName: "Paul", LastName: "Mercier",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.RecordMeta().ID)
}

func TestCloudKindNeedsRemote(t *testing.T) {
	cfg := types.DefaultConfig(t.TempDir())
	m := newTestManager(t, cfg)

	_, err := m.GetAll(context.Background(), types.KindPractitioners)
	require.ErrorIs(t, err, types.ErrNoAdapter)
}

func TestCloudKindServedByRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/practitioners", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 3, "firstName": "Anne", "lastName": "Dumas"},
		})
	}))
	defer srv.Close()

	cfg := types.DefaultConfig(t.TempDir())
	cfg.Remote.BaseURL = srv.URL
	m := newTestManager(t, cfg)

	recs, err := m.GetAll(context.Background(), types.KindPractitioners)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Dumas", recs[0].(*types.Practitioner).LastName)
}

func TestCloudFallbackDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer srv.Close()

	cfg := types.DefaultConfig(t.TempDir())
	cfg.Remote.BaseURL = srv.URL
	cfg.CloudFallback = false
	m := newTestManager(t, cfg)

	_, err := m.GetAll(context.Background(), types.KindPractitioners)
	require.ErrorIs(t, err, types.ErrNoAdapter)
}

func TestSyncCloudToLocalBestEffort(t *testing.T) {
	// Ten patients on the remote, one of them with an empty last name
	// that the local schema rejects. The sync must land the nine good
	// rows and report the bad one instead of aborting.
	rows := make([]map[string]any, 0, 10)
	for i := 1; i <= 10; i++ {
		last := "Garnier"
		if i == 4 {
			last = ""
		}
		rows = append(rows, map[string]any{
			"id": i, "firstName": "P", "lastName": last,
		})
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/patients", r.URL.Path)
		json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	cfg := types.DefaultConfig(t.TempDir())
	cfg.Remote.BaseURL = srv.URL
	m := newTestManager(t, cfg)
	ctx := context.Background()

	report, err := m.SyncCloudToLocal(ctx, types.KindPatients)
	require.NoError(t, err)
	assert.False(t, report.Success)
	assert.Equal(t, 9, report.MigratedCount)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, int64(4), report.Errors[0].RemoteID)

	local, err := m.GetAll(ctx, types.KindPatients)
	require.NoError(t, err)
	assert.Len(t, local, 9)
}

func TestSyncRequiresRemote(t *testing.T) {
	m := newTestManager(t, types.DefaultConfig(t.TempDir()))
	_, err := m.SyncCloudToLocal(context.Background(), types.KindPatients)
	require.ErrorIs(t, err, ErrNoRemote)
}

func TestPurgeRemoteDeletesEverything(t *testing.T) {
	var purged []string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /practitioners", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "firstName": "A", "lastName": "B"},
			{"id": 2, "firstName": "C", "lastName": "D"},
		})
	})
	mux.HandleFunc("DELETE /practitioners/", func(w http.ResponseWriter, r *http.Request) {
		purged = append(purged, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := types.DefaultConfig(t.TempDir())
	cfg.Remote.BaseURL = srv.URL
	m := newTestManager(t, cfg)

	report, err := m.PurgeRemote(context.Background(), types.KindPractitioners)
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, 2, report.MigratedCount)
	assert.ElementsMatch(t, []string{"/practitioners/1", "/practitioners/2"}, purged)
}

func TestClosedManagerRefusesWork(t *testing.T) {
	m := New(types.DefaultConfig(t.TempDir()), nil)
	require.NoError(t, m.Initialize(context.Background()))
	require.NoError(t, m.Close())

	_, err := m.GetAll(context.Background(), types.KindPatients)
	require.True(t, errors.Is(err, types.ErrClosed))
}
