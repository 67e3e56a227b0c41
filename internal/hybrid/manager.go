// Package hybrid exposes the session-scoped storage façade. A Manager
// probes local storage capabilities once, wires the adapter router, and
// serves uniform CRUD for every entity kind. All application entry
// points (CLI commands, exchange, migration) go through a Manager.
package hybrid

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/osteokit/cabinet/internal/local"
	"github.com/osteokit/cabinet/internal/remote"
	"github.com/osteokit/cabinet/internal/router"
	"github.com/osteokit/cabinet/pkg/types"
)

// Manager owns the resolved local backend, the optional remote client,
// and the router built over both. Zero value is not usable; construct
// with New and call Close when done.
type Manager struct {
	cfg types.Config
	log *slog.Logger

	mu          sync.Mutex
	initialized bool
	backend     *localBackend
	client      *remote.Client
	rt          *router.Router
	closed      bool
}

// New returns an uninitialized manager. Initialization is deferred so
// that construction never touches the filesystem; it happens on the
// first call that needs storage, or explicitly via Initialize.
func New(cfg types.Config, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{cfg: cfg, log: log}
}

// Initialize resolves local storage and registers all adapters. It is
// idempotent and safe for concurrent use: callers racing the first
// initialization block until it finishes rather than running their own.
// A failed attempt is not latched; the next call retries.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initLocked(ctx)
}

func (m *Manager) initLocked(ctx context.Context) error {
	if m.closed {
		return types.ErrClosed
	}
	if m.initialized {
		return nil
	}
	if err := m.cfg.Validate(); err != nil {
		return err
	}

	backend, err := resolveLocal(ctx, m.cfg, m.log)
	if err != nil {
		// No local tier at all. Keep going: cloud-classified kinds can
		// still be served, local ones will surface ErrComplianceViolation.
		m.log.Error("no local storage available, running cloud-only", "error", err)
		backend = &localBackend{tier: TierNone, tables: map[types.Kind]types.Table{}}
	}

	rt := router.New(m.cfg.CloudFallback, m.log)
	for _, tbl := range backend.tables {
		rt.RegisterLocal(tbl)
	}

	if m.cfg.Remote.BaseURL != "" {
		m.client = remote.NewClient(m.cfg.Remote, m.log)
		for _, kind := range types.Kinds() {
			if router.Resolve(kind) == types.LocationCloud {
				rt.RegisterRemote(remote.NewTable(m.client, kind))
			}
		}
	}

	m.backend = backend
	m.rt = rt
	m.initialized = true
	m.log.Info("storage initialized", "tier", backend.tier.String(), "remote", m.client != nil)
	return nil
}

// Table resolves the adapter for kind, initializing on first use.
func (m *Manager) Table(ctx context.Context, kind types.Kind) (types.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.initLocked(ctx); err != nil {
		return nil, err
	}
	return m.rt.Adapter(kind)
}

// GetAll lists the active records of a kind, most recently updated first.
func (m *Manager) GetAll(ctx context.Context, kind types.Kind) ([]types.Record, error) {
	tbl, err := m.Table(ctx, kind)
	if err != nil {
		return nil, err
	}
	return tbl.GetAll(ctx)
}

// GetByID fetches one record, or (nil, nil) when absent.
func (m *Manager) GetByID(ctx context.Context, kind types.Kind, id int64) (types.Record, error) {
	tbl, err := m.Table(ctx, kind)
	if err != nil {
		return nil, err
	}
	return tbl.GetByID(ctx, id)
}

// Create inserts a record of the given kind.
func (m *Manager) Create(ctx context.Context, kind types.Kind, rec types.Record) (types.Record, error) {
	tbl, err := m.Table(ctx, kind)
	if err != nil {
		return nil, err
	}
	return tbl.Create(ctx, rec)
}

// Update merges a field patch onto an existing record.
func (m *Manager) Update(ctx context.Context, kind types.Kind, id int64, patch map[string]any) (types.Record, error) {
	tbl, err := m.Table(ctx, kind)
	if err != nil {
		return nil, err
	}
	return tbl.Update(ctx, id, patch)
}

// Delete soft-deletes a record; false when it was not there.
func (m *Manager) Delete(ctx context.Context, kind types.Kind, id int64) (bool, error) {
	tbl, err := m.Table(ctx, kind)
	if err != nil {
		return false, err
	}
	return tbl.Delete(ctx, id)
}

// Purge physically removes a record.
func (m *Manager) Purge(ctx context.Context, kind types.Kind, id int64) error {
	tbl, err := m.Table(ctx, kind)
	if err != nil {
		return err
	}
	return tbl.Purge(ctx, id)
}

// Tier reports which local storage tier the probe resolved. Initializes
// on first use.
func (m *Manager) Tier(ctx context.Context) (Tier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.initLocked(ctx); err != nil {
		return TierNone, err
	}
	return m.backend.tier, nil
}

// Degraded reports whether local storage runs below the engine tier.
func (m *Manager) Degraded(ctx context.Context) (bool, error) {
	tier, err := m.Tier(ctx)
	if err != nil {
		return false, err
	}
	return tier != TierEngine, nil
}

// Local returns the typed SQL store, or nil when the engine tier is not
// active. Callers needing the domain query helpers (search, conflicts,
// period summaries) check for nil and degrade to the generic adapter.
func (m *Manager) Local(ctx context.Context) (*local.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.initLocked(ctx); err != nil {
		return nil, err
	}
	return m.backend.sql, nil
}

// Close releases the local backend and the advisory lock. The manager
// is unusable afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if !m.initialized {
		return nil
	}
	m.initialized = false
	if err := m.backend.close(); err != nil {
		return fmt.Errorf("closing storage: %w", err)
	}
	return nil
}
