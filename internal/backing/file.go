// Package backing persists the embedded engine's serialized database image
// to a private application directory. Each save is a complete snapshot
// replacing the previous one; there are no append semantics.
package backing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/osteokit/cabinet/pkg/types"
)

// File names inside the data directory.
const (
	imageFileName = "cabinet.db.image"
	lockFileName  = "cabinet.lock"
)

// Store is the durable backing store contract used by the engine.
// Load returns (nil, nil) when no image has been saved yet.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, image []byte) error
	Close() error
}

// FileStore keeps the database image as a single file, replaced atomically
// on every save. An advisory lock file guards against a second writer on
// the same directory; the lock is best-effort and carries the owner pid
// for diagnostics only.
type FileStore struct {
	dir      string
	path     string
	lockPath string
	locked   bool
}

// Options controls FileStore opening.
type Options struct {
	// DisableLock skips the single-writer advisory lock.
	DisableLock bool
}

// OpenFile opens (creating if needed) the backing store in dir.
// Returns ErrStoreLocked when another process holds the advisory lock.
func OpenFile(dir string, opts Options) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	s := &FileStore{
		dir:      dir,
		path:     filepath.Join(dir, imageFileName),
		lockPath: filepath.Join(dir, lockFileName),
	}
	if !opts.DisableLock {
		if err := s.acquireLock(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *FileStore) acquireLock() error {
	f, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", types.ErrStoreLocked, s.lockPath)
	}
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing lock: %w", err)
	}
	s.locked = true
	return nil
}

// Load reads the previously saved image. First run returns (nil, nil).
func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return data, nil
}

// Save replaces the stored image with a full snapshot. The write goes to a
// temporary file first and is renamed into place so a crash mid-save never
// leaves a truncated image.
func (s *FileStore) Save(ctx context.Context, image []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, imageFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp image: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp image: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing image: %w", err)
	}
	return nil
}

// Close releases the advisory lock. Idempotent.
func (s *FileStore) Close() error {
	if !s.locked {
		return nil
	}
	s.locked = false
	if err := os.Remove(s.lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}

// Path returns the image file location, for diagnostics.
func (s *FileStore) Path() string { return s.path }
