package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/osteokit/cabinet/pkg/cabinet"
	"github.com/osteokit/cabinet/pkg/types"
)

// Source is the read side the exporter pulls from. *hybrid.Manager
// satisfies it.
type Source interface {
	GetAll(ctx context.Context, kind types.Kind) ([]types.Record, error)
}

// ExportableKinds is the fixed shareable set. Consultations, documents
// and the rest stay on the originating device.
var ExportableKinds = []types.Kind{
	types.KindPatients,
	types.KindAppointments,
	types.KindInvoices,
}

// ExportOptions narrows what goes into the package. Zero value exports
// everything shareable.
type ExportOptions struct {
	// Kinds limits the entity types included; empty means all of
	// ExportableKinds. Kinds outside the shareable set are rejected.
	Kinds []types.Kind
	// PatientIDs limits patients to the given ids, and appointments and
	// invoices to those referencing them. Empty means no id filter.
	PatientIDs []int64
	// From and To bound appointments by start time and invoices by issue
	// date, inclusive. Zero bounds are open.
	From, To time.Time
}

// Exporter builds encrypted export packages from a storage source.
type Exporter struct {
	src Source
	log *slog.Logger
}

func NewExporter(src Source, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{src: src, log: log}
}

// Export gathers the selected entities, seals them under the password,
// and returns the export blob with its package metadata.
func (e *Exporter) Export(ctx context.Context, opts ExportOptions, password string) ([]byte, *types.ExportMetadata, error) {
	if password == "" {
		return nil, nil, fmt.Errorf("%w: empty password", types.ErrInvalidData)
	}
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = ExportableKinds
	}
	for _, k := range kinds {
		if !slices.Contains(ExportableKinds, k) {
			return nil, nil, fmt.Errorf("%w: %s is not shareable", types.ErrInvalidData, k)
		}
	}

	var entities types.ExportEntities
	ids := newIDSet(opts.PatientIDs)
	for _, kind := range kinds {
		recs, err := e.src.GetAll(ctx, kind)
		if err != nil {
			return nil, nil, fmt.Errorf("gathering %s: %w", kind, err)
		}
		switch kind {
		case types.KindPatients:
			for _, r := range recs {
				p := r.(*types.Patient)
				if ids.allows(p.ID) {
					entities.Patients = append(entities.Patients, p)
				}
			}
		case types.KindAppointments:
			for _, r := range recs {
				a := r.(*types.Appointment)
				if ids.allows(a.PatientID) && inRange(a.Start, opts.From, opts.To) {
					entities.Appointments = append(entities.Appointments, a)
				}
			}
		case types.KindInvoices:
			for _, r := range recs {
				inv := r.(*types.Invoice)
				if ids.allows(inv.PatientID) && inRange(inv.Date, opts.From, opts.To) {
					entities.Invoices = append(entities.Invoices, inv)
				}
			}
		}
	}

	checksum, err := Checksum(entities)
	if err != nil {
		return nil, nil, fmt.Errorf("computing checksum: %w", err)
	}
	meta := types.ExportMetadata{
		PackageID:  uuid.NewString(),
		ExportDate: time.Now().UTC(),
		Version:    cabinet.Version,
		Checksum:   checksum,
	}

	plaintext, err := json.Marshal(types.ExportPackage{Entities: entities, Metadata: meta})
	if err != nil {
		return nil, nil, err
	}
	blob, err := seal(plaintext, password)
	if err != nil {
		return nil, nil, fmt.Errorf("sealing package: %w", err)
	}

	e.log.Info("export package built", "package_id", meta.PackageID,
		"patients", len(entities.Patients),
		"appointments", len(entities.Appointments),
		"invoices", len(entities.Invoices))
	return blob, &meta, nil
}

type idSet map[int64]struct{}

func newIDSet(ids []int64) idSet {
	s := make(idSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s idSet) allows(id int64) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[id]
	return ok
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
