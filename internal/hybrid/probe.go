package hybrid

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/osteokit/cabinet/internal/backing"
	"github.com/osteokit/cabinet/internal/engine"
	"github.com/osteokit/cabinet/internal/fallback"
	"github.com/osteokit/cabinet/internal/local"
	"github.com/osteokit/cabinet/internal/router"
	"github.com/osteokit/cabinet/pkg/types"
)

// Tier identifies which local storage capability the probe resolved.
type Tier int

const (
	// TierEngine is the embedded SQL engine persisted through the
	// file-backed image store. The normal case.
	TierEngine Tier = iota
	// TierObjectStore is the structured JSON object store, selected when
	// the engine or its image file is unavailable.
	TierObjectStore
	// TierMemory holds data for the process lifetime only. Last resort.
	TierMemory
	// TierNone means no local storage at all; only cloud kinds work.
	TierNone
)

func (t Tier) String() string {
	switch t {
	case TierEngine:
		return "engine"
	case TierObjectStore:
		return "object-store"
	case TierMemory:
		return "memory"
	default:
		return "none"
	}
}

// localBackend is the single resolved result of the capability probe.
// Exactly one tier is active; consumers never re-probe per call.
type localBackend struct {
	tier   Tier
	file   *backing.FileStore
	eng    *engine.Engine
	sql    *local.Store
	obj    *fallback.Store
	tables map[types.Kind]types.Table
}

// resolveLocal runs the ordered capability probes once and returns the
// first tier that opens. Probes never panic upward: each failure is
// logged and the next tier is tried.
func resolveLocal(ctx context.Context, cfg types.Config, log *slog.Logger) (*localBackend, error) {
	// Tier 1: embedded engine over the durable image file.
	file, err := backing.OpenFile(cfg.DataDir, backing.Options{DisableLock: cfg.DisableLock})
	if err != nil {
		log.Warn("image store unavailable, probing next tier", "error", err)
	} else {
		eng := engine.New(file, filepath.Join(cfg.DataDir, "scratch"), log)
		if err := eng.Initialize(ctx); err != nil {
			log.Warn("embedded engine unavailable, probing next tier", "error", err)
			file.Close()
		} else {
			sqlStore := local.NewStore(eng)
			b := &localBackend{
				tier:   TierEngine,
				file:   file,
				eng:    eng,
				sql:    sqlStore,
				tables: map[types.Kind]types.Table{},
			}
			for _, kind := range router.LocalKinds() {
				b.tables[kind] = sqlStore.Table(kind)
			}
			return b, nil
		}
	}

	// Tier 2: structured object store.
	obj, err := fallback.Open(cfg.DataDir)
	if err != nil {
		log.Warn("object store unavailable, falling back to memory", "error", err)
		obj = fallback.OpenMemory()
	}
	tier := TierObjectStore
	if obj.Memory() {
		tier = TierMemory
		log.Warn("local storage is memory-only; data will not survive a restart")
	}
	b := &localBackend{tier: tier, obj: obj, tables: map[types.Kind]types.Table{}}
	for _, kind := range router.LocalKinds() {
		b.tables[kind] = obj.Table(kind)
	}
	return b, nil
}

func (b *localBackend) close() error {
	var errs []error
	if b.eng != nil {
		if err := b.eng.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.file != nil {
		if err := b.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("closing local backend: %v", errs)
	}
	return nil
}
