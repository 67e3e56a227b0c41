package types

import "time"

// ExportEntities is the entity payload of a secure export package. The
// shareable set is fixed: patients, appointments, and invoices.
type ExportEntities struct {
	Patients     []*Patient     `json:"patients,omitempty"`
	Appointments []*Appointment `json:"appointments,omitempty"`
	Invoices     []*Invoice     `json:"invoices,omitempty"`
}

// ExportMetadata describes an export package. Checksum is the SHA-256 hex
// digest of the canonical serialization of the entity data only; metadata
// is excluded so it can be inspected without recomputing the digest.
type ExportMetadata struct {
	PackageID  string    `json:"packageId"`
	ExportDate time.Time `json:"exportDate"`
	Version    string    `json:"version"`
	Checksum   string    `json:"checksum"`
}

// ExportPackage is the plaintext structure encrypted into an export file.
type ExportPackage struct {
	Entities ExportEntities `json:"entities"`
	Metadata ExportMetadata `json:"metadata"`
}
