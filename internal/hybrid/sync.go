package hybrid

import (
	"context"
	"errors"
	"fmt"

	"github.com/osteokit/cabinet/internal/remote"
	"github.com/osteokit/cabinet/pkg/types"
)

// SyncError records one row that failed to migrate.
type SyncError struct {
	RemoteID int64  `json:"remoteId"`
	Message  string `json:"message"`
}

// SyncReport summarizes a cloud-to-local migration pass. Success means
// every fetched row landed locally; partial failures leave Success false
// with the per-row details in Errors.
type SyncReport struct {
	Kind          types.Kind  `json:"kind"`
	MigratedCount int         `json:"migratedCount"`
	Errors        []SyncError `json:"errors,omitempty"`
	Success       bool        `json:"success"`
}

// ErrNoRemote is returned by remote-touching operations when the
// configuration carries no hosted-service endpoint.
var ErrNoRemote = errors.New("no remote endpoint configured")

// SyncCloudToLocal copies every record of kind from the hosted service
// into local storage. The copy is best-effort: a row that fails to
// insert is recorded in the report and the pass continues. Records get
// fresh local ids and timestamps; the remote rows are left untouched
// (see PurgeRemote for the erasure step after a verified migration).
//
// The remote table is addressed directly rather than through the router:
// migration is the one sanctioned read of a local-classified kind from
// the hosted service, and exists precisely to end that state.
func (m *Manager) SyncCloudToLocal(ctx context.Context, kind types.Kind) (*SyncReport, error) {
	m.mu.Lock()
	if err := m.initLocked(ctx); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	client := m.client
	dst, ok := m.backend.tables[kind]
	m.mu.Unlock()

	if client == nil {
		return nil, ErrNoRemote
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownKind, kind)
	}
	if !ok {
		return nil, fmt.Errorf("%w: no local storage for %s", types.ErrNoAdapter, kind)
	}

	src := remote.NewTable(client, kind)
	rows, err := src.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s from remote: %w", kind, err)
	}

	report := &SyncReport{Kind: kind}
	for _, rec := range rows {
		remoteID := rec.RecordMeta().ID
		if _, err := dst.Create(ctx, rec); err != nil {
			m.log.Warn("row failed to migrate", "kind", kind, "remote_id", remoteID, "error", err)
			report.Errors = append(report.Errors, SyncError{RemoteID: remoteID, Message: err.Error()})
			continue
		}
		report.MigratedCount++
	}
	report.Success = len(report.Errors) == 0
	m.log.Info("cloud-to-local sync finished", "kind", kind,
		"migrated", report.MigratedCount, "failed", len(report.Errors))
	return report, nil
}

// PurgeRemote hard-deletes every record of kind on the hosted service.
// Intended as the second step of a migration, after SyncCloudToLocal
// reported full success and the caller verified the local copy.
func (m *Manager) PurgeRemote(ctx context.Context, kind types.Kind) (*SyncReport, error) {
	m.mu.Lock()
	if err := m.initLocked(ctx); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	client := m.client
	m.mu.Unlock()

	if client == nil {
		return nil, ErrNoRemote
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownKind, kind)
	}

	src := remote.NewTable(client, kind)
	rows, err := src.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s from remote: %w", kind, err)
	}

	report := &SyncReport{Kind: kind}
	for _, rec := range rows {
		id := rec.RecordMeta().ID
		if err := src.Purge(ctx, id); err != nil {
			report.Errors = append(report.Errors, SyncError{RemoteID: id, Message: err.Error()})
			continue
		}
		report.MigratedCount++
	}
	report.Success = len(report.Errors) == 0
	return report, nil
}
