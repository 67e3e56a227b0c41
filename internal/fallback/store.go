// Package fallback implements the structured object store used when the
// embedded engine or its file-backed image is unavailable. Records are
// kept as plain JSON arrays keyed by entity kind, loaded into memory at
// open and persisted as a whole on every mutation. The contract is the
// same Table interface the SQLite adapters implement; only durability and
// query power differ.
package fallback

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/osteokit/cabinet/pkg/types"
)

const objectsFileName = "cabinet.objects.json"

// Store holds all entity collections. A Store opened with Open persists
// to a single JSON file; one from OpenMemory lives for the process only
// (the last-resort tier).
type Store struct {
	mu     sync.Mutex
	path   string // empty for the in-memory tier
	data   map[types.Kind][]json.RawMessage
	nextID map[types.Kind]int64
}

// Open loads (or creates) the object store file under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	s := &Store{
		path:   filepath.Join(dir, objectsFileName),
		data:   map[types.Kind][]json.RawMessage{},
		nextID: map[types.Kind]int64{},
	}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading object store: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parsing object store: %w", err)
	}
	s.restoreCounters()
	return s, nil
}

// OpenMemory returns a store with no durable backing at all.
func OpenMemory() *Store {
	return &Store{
		data:   map[types.Kind][]json.RawMessage{},
		nextID: map[types.Kind]int64{},
	}
}

// restoreCounters resumes id assignment above every id already present.
func (s *Store) restoreCounters() {
	for kind, items := range s.data {
		for _, raw := range items {
			var meta types.Meta
			if err := json.Unmarshal(raw, &meta); err != nil {
				continue
			}
			if meta.ID > s.nextID[kind] {
				s.nextID[kind] = meta.ID
			}
		}
	}
}

// Table returns the adapter for one entity kind.
func (s *Store) Table(kind types.Kind) types.Table {
	return &table{store: s, kind: kind}
}

// Memory reports whether this store is the in-memory last-resort tier.
func (s *Store) Memory() bool { return s.path == "" }

// persistLocked writes the whole store to disk. Caller holds s.mu.
func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding object store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing object store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing object store: %w", err)
	}
	return nil
}
