package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osteokit/cabinet/pkg/types"
)

func newTestTable(t *testing.T, handler http.HandlerFunc) *Table {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(types.RemoteConfig{BaseURL: srv.URL, APIKey: "test-key"}, nil)
	return NewTable(client, types.KindPractitioners)
}

func TestRemoteGetAllDecodesTyped(t *testing.T) {
	tbl := newTestTable(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/practitioners", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "firstName": "Anne", "lastName": "Dumas", "rpps": "10003456789"},
		})
	})

	recs, err := tbl.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	p := recs[0].(*types.Practitioner)
	assert.Equal(t, "Dumas", p.LastName)
	assert.Equal(t, "10003456789", p.RPPS)
}

func TestRemoteGetByIDMissing(t *testing.T) {
	tbl := newTestTable(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	rec, err := tbl.GetByID(context.Background(), 42)
	require.NoError(t, err, "absence is not an error")
	assert.Nil(t, rec)
}

func TestRemoteServerErrorIsExplicit(t *testing.T) {
	tbl := newTestTable(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})

	_, err := tbl.GetAll(context.Background())
	require.Error(t, err, "unavailability must never look like an empty result")
	assert.Contains(t, err.Error(), "503")
}

func TestRemoteCreateRoundTrip(t *testing.T) {
	tbl := newTestTable(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in["id"] = 7
		json.NewEncoder(w).Encode(in)
	})

	rec, err := tbl.Create(context.Background(), &types.Practitioner{FirstName: "Léa", LastName: "Fabre"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.RecordMeta().ID)
}

func TestRemotePurgeUsesHardFlag(t *testing.T) {
	var gotHard string
	tbl := newTestTable(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotHard = r.URL.Query().Get("hard")
	})

	require.NoError(t, tbl.Purge(context.Background(), 3))
	assert.Equal(t, "true", gotHard)
}
