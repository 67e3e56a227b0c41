package types

import "context"

// Table is the uniform CRUD contract implemented by every storage adapter:
// the local SQLite tables, the fallback object store, and the remote
// client. The hybrid manager and the router speak only this interface.
type Table interface {
	// Kind returns the entity kind this table stores.
	Kind() Kind

	// GetAll returns all records that are not soft-deleted, most recently
	// updated first.
	GetAll(ctx context.Context) ([]Record, error)

	// GetByID returns the record with the given id, or (nil, nil) if it
	// does not exist or is soft-deleted. Absence is not an error.
	GetByID(ctx context.Context, id int64) (Record, error)

	// Create assigns an id and creation timestamps, inserts the record,
	// and returns it with the generated fields filled in. Any id or
	// timestamps present on the input are overwritten.
	Create(ctx context.Context, rec Record) (Record, error)

	// Update merges the patch (keyed by JSON field name) onto the existing
	// record, bumps updatedAt, and returns the full updated record.
	// Returns ErrNotFound if the id does not exist or is soft-deleted.
	Update(ctx context.Context, id int64, patch map[string]any) (Record, error)

	// Delete soft-deletes the record by setting deletedAt. Returns false
	// when the id does not exist or is already soft-deleted.
	Delete(ctx context.Context, id int64) (bool, error)

	// Purge physically removes the record, soft-deleted or not. Used only
	// for compliance-driven erasure, e.g. after a confirmed migration.
	// Returns ErrNotFound if the id does not exist.
	Purge(ctx context.Context, id int64) error
}
