package fallback

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/osteokit/cabinet/pkg/types"
)

// table adapts one entity collection of the object store to the Table
// contract. All typed work goes through the JSON codec in pkg/types so
// the store itself stays schema-free.
type table struct {
	store *Store
	kind  types.Kind
}

func (t *table) Kind() types.Kind { return t.kind }

func (t *table) GetAll(ctx context.Context) ([]types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	var out []types.Record
	for _, raw := range t.store.data[t.kind] {
		rec, err := types.DecodeRecord(t.kind, raw)
		if err != nil {
			return nil, err
		}
		if rec.RecordMeta().DeletedAt == nil {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordMeta().UpdatedAt.After(out[j].RecordMeta().UpdatedAt)
	})
	return out, nil
}

func (t *table) GetByID(ctx context.Context, id int64) (types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	rec, _, err := t.findLocked(id)
	if err != nil || rec == nil {
		return nil, err
	}
	if rec.RecordMeta().DeletedAt != nil {
		return nil, nil
	}
	return rec, nil
}

func (t *table) Create(ctx context.Context, rec types.Record) (types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	now := time.Now().UTC()
	meta := rec.RecordMeta()
	t.store.nextID[t.kind]++
	meta.ID = t.store.nextID[t.kind]
	meta.CreatedAt = now
	meta.UpdatedAt = now
	meta.DeletedAt = nil

	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	t.store.data[t.kind] = append(t.store.data[t.kind], raw)
	if err := t.store.persistLocked(); err != nil {
		return nil, err
	}
	return rec, nil
}

func (t *table) Update(ctx context.Context, id int64, patch map[string]any) (types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	rec, idx, err := t.findLocked(id)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.RecordMeta().DeletedAt != nil {
		return nil, fmt.Errorf("%w: %s %d", types.ErrNotFound, t.kind, id)
	}

	// Merge by JSON round-trip: existing record to map, patch on top,
	// back into a typed record.
	merged := map[string]any{}
	if err := json.Unmarshal(t.store.data[t.kind][idx], &merged); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	for k, v := range patch {
		switch k {
		case "id", "createdAt", "updatedAt", "deletedAt":
			// Bookkeeping fields are not patchable.
		default:
			merged[k] = v
		}
	}
	mergedRaw, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	updated, err := types.DecodeRecord(t.kind, mergedRaw)
	if err != nil {
		return nil, err
	}
	updated.RecordMeta().UpdatedAt = time.Now().UTC()

	raw, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	t.store.data[t.kind][idx] = raw
	if err := t.store.persistLocked(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (t *table) Delete(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	rec, idx, err := t.findLocked(id)
	if err != nil {
		return false, err
	}
	if rec == nil || rec.RecordMeta().DeletedAt != nil {
		return false, nil
	}
	now := time.Now().UTC()
	meta := rec.RecordMeta()
	meta.DeletedAt = &now
	meta.UpdatedAt = now

	raw, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	t.store.data[t.kind][idx] = raw
	if err := t.store.persistLocked(); err != nil {
		return false, err
	}
	return true, nil
}

func (t *table) Purge(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	rec, idx, err := t.findLocked(id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: %s %d", types.ErrNotFound, t.kind, id)
	}
	items := t.store.data[t.kind]
	t.store.data[t.kind] = append(items[:idx], items[idx+1:]...)
	return t.store.persistLocked()
}

// findLocked locates a record by id regardless of tombstone state.
// Caller holds the store mutex.
func (t *table) findLocked(id int64) (types.Record, int, error) {
	for i, raw := range t.store.data[t.kind] {
		var meta types.Meta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
		}
		if meta.ID != id {
			continue
		}
		rec, err := types.DecodeRecord(t.kind, raw)
		if err != nil {
			return nil, 0, err
		}
		return rec, i, nil
	}
	return nil, 0, nil
}
