package local

import (
	"github.com/osteokit/cabinet/internal/engine"
	"github.com/osteokit/cabinet/pkg/types"
)

// Store groups the local table adapters over one engine handle.
type Store struct {
	eng    *engine.Engine
	tables map[types.Kind]types.Table

	patients      *PatientsTable
	appointments  *AppointmentsTable
	invoices      *InvoicesTable
	consultations *ConsultationsTable
}

// NewStore builds the full set of local adapters. The engine must already
// be initialized.
func NewStore(eng *engine.Engine) *Store {
	s := &Store{
		eng:           eng,
		patients:      NewPatientsTable(eng),
		appointments:  NewAppointmentsTable(eng),
		invoices:      NewInvoicesTable(eng),
		consultations: NewConsultationsTable(eng),
	}
	s.tables = map[types.Kind]types.Table{
		types.KindPatients:      s.patients,
		types.KindAppointments:  s.appointments,
		types.KindInvoices:      s.invoices,
		types.KindConsultations: s.consultations,
		types.KindDocuments:     NewDocumentsTable(eng),
		types.KindQuotes:        NewQuotesTable(eng),
		types.KindTreatments:    NewTreatmentsTable(eng),
		types.KindRelationships: NewRelationshipsTable(eng),
	}
	return s
}

// Table returns the adapter for kind, or nil when the kind has no local
// table (cloud-only kinds).
func (s *Store) Table(kind types.Kind) types.Table {
	return s.tables[kind]
}

// Tables returns every local adapter, for registration with the router.
func (s *Store) Tables() []types.Table {
	out := make([]types.Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	return out
}

// Typed accessors for the adapters with entity-specific query helpers.

func (s *Store) Patients() *PatientsTable           { return s.patients }
func (s *Store) Appointments() *AppointmentsTable   { return s.appointments }
func (s *Store) Invoices() *InvoicesTable           { return s.invoices }
func (s *Store) Consultations() *ConsultationsTable { return s.consultations }
