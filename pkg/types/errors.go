package types

import "errors"

// Sentinel errors for the storage core. Callers match with errors.Is.
var (
	// Engine / store lifecycle errors.
	ErrEngineUnavailable = errors.New("embedded engine unavailable")
	ErrStoreLocked       = errors.New("backing store is locked by another process")
	ErrClosed            = errors.New("storage is closed")

	// Routing errors.
	ErrComplianceViolation = errors.New("compliance violation: local entity routed to cloud")
	ErrNoAdapter           = errors.New("no adapter registered for entity kind")
	ErrUnknownKind         = errors.New("unknown entity kind")

	// Record errors.
	ErrNotFound    = errors.New("record not found")
	ErrInvalidData = errors.New("invalid record data")

	// Export/import errors.
	ErrInvalidPassword    = errors.New("invalid password")
	ErrIntegrityViolation = errors.New("integrity check failed")
	ErrBadExportFile      = errors.New("not a cabinet export file")
)
