package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/osteokit/cabinet/pkg/types"
)

// ConflictPolicy decides what happens when an incoming record matches an
// existing one by identity.
type ConflictPolicy string

const (
	// ConflictSkip keeps the existing record and counts the incoming one
	// as skipped.
	ConflictSkip ConflictPolicy = "skip"
	// ConflictOverwrite replaces the matched record's business fields
	// with the incoming ones.
	ConflictOverwrite ConflictPolicy = "overwrite"
	// ConflictMerge applies nothing and surfaces the pair to the caller
	// for manual resolution.
	ConflictMerge ConflictPolicy = "merge"
)

// ParseConflictPolicy validates a policy string from config or CLI.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(s)); p {
	case ConflictSkip, ConflictOverwrite, ConflictMerge:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown conflict policy %q", types.ErrInvalidData, s)
	}
}

// Target is the write side the importer lands records on. *hybrid.Manager
// satisfies it.
type Target interface {
	GetAll(ctx context.Context, kind types.Kind) ([]types.Record, error)
	Create(ctx context.Context, kind types.Kind, rec types.Record) (types.Record, error)
	Update(ctx context.Context, kind types.Kind, id int64, patch map[string]any) (types.Record, error)
}

// ImportOptions configures one import pass.
type ImportOptions struct {
	Policy ConflictPolicy
	// SkipIntegrityCheck disables the checksum comparison. Used for
	// inspecting packages with a known-stale digest, never by default.
	SkipIntegrityCheck bool
}

// Conflict is one unresolved identity match surfaced under the merge
// policy.
type Conflict struct {
	Kind       types.Kind `json:"kind"`
	ExistingID int64      `json:"existingId"`
	Detail     string     `json:"detail"`
}

// ImportError records one record that failed to land.
type ImportError struct {
	Kind    types.Kind `json:"kind"`
	Detail  string     `json:"detail"`
	Message string     `json:"message"`
}

// ImportReport counts what one import pass did per kind. Errors holds
// the records that failed to land; the pass continues past them.
type ImportReport struct {
	Imported  map[types.Kind]int   `json:"imported"`
	Skipped   map[types.Kind]int   `json:"skipped"`
	Conflicts []Conflict           `json:"conflicts,omitempty"`
	Errors    []ImportError        `json:"errors,omitempty"`
	Metadata  types.ExportMetadata `json:"metadata"`
}

// Importer decrypts export packages and lands their entities on a target
// store under a conflict policy.
type Importer struct {
	dst Target
	log *slog.Logger
}

func NewImporter(dst Target, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{dst: dst, log: log}
}

// Import decrypts blob with password and applies its entities. The pass
// is all-checks-first: password and integrity failures abort before any
// mutation. Per-record conflicts and failures never abort the pass; they
// are counted, surfaced, or collected in the report.
func (i *Importer) Import(ctx context.Context, blob []byte, password string, opts ImportOptions) (*ImportReport, error) {
	if opts.Policy == "" {
		opts.Policy = ConflictSkip
	}

	plaintext, err := open(blob, password)
	if err != nil {
		return nil, err
	}
	var pkg types.ExportPackage
	if err := json.Unmarshal(plaintext, &pkg); err != nil {
		// Authenticated ciphertext that is not a package. Treat like a
		// wrong password: the caller cannot tell the difference.
		return nil, types.ErrInvalidPassword
	}

	if !opts.SkipIntegrityCheck {
		sum, err := Checksum(pkg.Entities)
		if err != nil {
			return nil, err
		}
		if sum != pkg.Metadata.Checksum {
			return nil, fmt.Errorf("%w: checksum mismatch", types.ErrIntegrityViolation)
		}
	}

	report := &ImportReport{
		Imported: map[types.Kind]int{},
		Skipped:  map[types.Kind]int{},
		Metadata: pkg.Metadata,
	}

	if err := i.importPatients(ctx, pkg.Entities.Patients, opts.Policy, report); err != nil {
		return report, err
	}
	if err := i.importAppointments(ctx, pkg.Entities.Appointments, opts.Policy, report); err != nil {
		return report, err
	}
	if err := i.importInvoices(ctx, pkg.Entities.Invoices, opts.Policy, report); err != nil {
		return report, err
	}

	i.log.Info("import pass finished", "package_id", pkg.Metadata.PackageID,
		"imported", report.Imported, "skipped", report.Skipped,
		"conflicts", len(report.Conflicts))
	return report, nil
}

func (i *Importer) importPatients(ctx context.Context, incoming []*types.Patient, policy ConflictPolicy, report *ImportReport) error {
	if len(incoming) == 0 {
		return nil
	}
	existing, err := i.dst.GetAll(ctx, types.KindPatients)
	if err != nil {
		return fmt.Errorf("loading existing patients: %w", err)
	}
	for _, in := range incoming {
		var match types.Record
		for _, r := range existing {
			if samePatient(in, r.(*types.Patient)) {
				match = r
				break
			}
		}
		i.apply(ctx, types.KindPatients, in, match, policy, report,
			func() string { return fmt.Sprintf("patient %s %s", in.FirstName, in.LastName) })
	}
	return nil
}

func (i *Importer) importAppointments(ctx context.Context, incoming []*types.Appointment, policy ConflictPolicy, report *ImportReport) error {
	if len(incoming) == 0 {
		return nil
	}
	existing, err := i.dst.GetAll(ctx, types.KindAppointments)
	if err != nil {
		return fmt.Errorf("loading existing appointments: %w", err)
	}
	for _, in := range incoming {
		var match types.Record
		for _, r := range existing {
			if sameAppointment(in, r.(*types.Appointment)) {
				match = r
				break
			}
		}
		i.apply(ctx, types.KindAppointments, in, match, policy, report,
			func() string { return fmt.Sprintf("appointment at %s", in.Start.Format(time.RFC3339)) })
	}
	return nil
}

func (i *Importer) importInvoices(ctx context.Context, incoming []*types.Invoice, policy ConflictPolicy, report *ImportReport) error {
	if len(incoming) == 0 {
		return nil
	}
	existing, err := i.dst.GetAll(ctx, types.KindInvoices)
	if err != nil {
		return fmt.Errorf("loading existing invoices: %w", err)
	}
	for _, in := range incoming {
		var match types.Record
		for _, r := range existing {
			if sameInvoice(in, r.(*types.Invoice)) {
				match = r
				break
			}
		}
		i.apply(ctx, types.KindInvoices, in, match, policy, report,
			func() string {
				return fmt.Sprintf("invoice of %d cents on %s", in.AmountCents, in.Date.Format("2006-01-02"))
			})
	}
	return nil
}

// apply lands one incoming record given its identity match (nil when
// new). A record that fails to land is collected in the report and the
// pass moves on. detail is lazy; it is only rendered for reported rows.
func (i *Importer) apply(ctx context.Context, kind types.Kind, in types.Record, match types.Record, policy ConflictPolicy, report *ImportReport, detail func() string) {
	fail := func(err error) {
		i.log.Warn("record failed to import", "kind", kind, "error", err)
		report.Errors = append(report.Errors, ImportError{
			Kind:    kind,
			Detail:  detail(),
			Message: err.Error(),
		})
	}

	if match == nil {
		if _, err := i.dst.Create(ctx, kind, in); err != nil {
			fail(err)
			return
		}
		report.Imported[kind]++
		return
	}
	switch policy {
	case ConflictSkip:
		report.Skipped[kind]++
	case ConflictOverwrite:
		patch, err := types.RecordPatch(in)
		if err != nil {
			fail(err)
			return
		}
		if _, err := i.dst.Update(ctx, kind, match.RecordMeta().ID, patch); err != nil {
			fail(err)
			return
		}
		report.Imported[kind]++
	case ConflictMerge:
		report.Conflicts = append(report.Conflicts, Conflict{
			Kind:       kind,
			ExistingID: match.RecordMeta().ID,
			Detail:     detail(),
		})
	}
}

// samePatient matches on email, or on the full name plus birth date.
// Records with no identity fields at all never match each other.
func samePatient(a, b *types.Patient) bool {
	if a.Email != "" && b.Email != "" && strings.EqualFold(a.Email, b.Email) {
		return true
	}
	if a.FirstName == "" || a.LastName == "" {
		return false
	}
	return strings.EqualFold(a.FirstName, b.FirstName) &&
		strings.EqualFold(a.LastName, b.LastName) &&
		sameDay(a.BirthDate, b.BirthDate)
}

// sameAppointment matches entries for the same practitioner starting
// within one hour of each other.
func sameAppointment(a, b *types.Appointment) bool {
	if a.PractitionerID != b.PractitionerID {
		return false
	}
	d := a.Start.Sub(b.Start)
	if d < 0 {
		d = -d
	}
	return d <= time.Hour
}

// sameInvoice matches on patient, issue day, and amount.
func sameInvoice(a, b *types.Invoice) bool {
	return a.PatientID == b.PatientID &&
		sameDay(a.Date, b.Date) &&
		a.AmountCents == b.AmountCents
}

func sameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() && b.IsZero()
	}
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
