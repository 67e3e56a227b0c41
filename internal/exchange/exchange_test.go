package exchange

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osteokit/cabinet/internal/hybrid"
	"github.com/osteokit/cabinet/pkg/types"
)

const testPassword = "Tr0ub4dor&3"

func newStore(t *testing.T) *hybrid.Manager {
	t.Helper()
	m := hybrid.New(types.DefaultConfig(t.TempDir()), nil)
	t.Cleanup(func() { m.Close() })
	return m
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// seedSource fills a store with three patients and two appointments and
// returns it.
func seedSource(t *testing.T) *hybrid.Manager {
	t.Helper()
	src := newStore(t)
	ctx := context.Background()

	patients := []*types.Patient{
		{FirstName: "Jeanne", LastName: "Morel", Email: "jeanne@example.fr", BirthDate: day("1990-01-01"), IsSmoker: true},
		{FirstName: "Paul", LastName: "Mercier", Email: "paul@example.fr"},
		{FirstName: "Inès", LastName: "Garnier", BirthDate: day("1984-06-12")},
	}
	var firstID int64
	for i, p := range patients {
		created, err := src.Create(ctx, types.KindPatients, p)
		require.NoError(t, err)
		if i == 0 {
			firstID = created.RecordMeta().ID
		}
	}
	for _, a := range []*types.Appointment{
		{PatientID: firstID, PractitionerID: 1, Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), DurationMin: 45},
		{PatientID: firstID, PractitionerID: 1, Start: time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC), DurationMin: 30},
	} {
		_, err := src.Create(ctx, types.KindAppointments, a)
		require.NoError(t, err)
	}
	return src
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seedSource(t)

	blob, meta, err := NewExporter(src, nil).Export(ctx, ExportOptions{}, testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, meta.PackageID)
	assert.NotEmpty(t, meta.Checksum)

	dst := newStore(t)
	report, err := NewImporter(dst, nil).Import(ctx, blob, testPassword, ImportOptions{Policy: ConflictSkip})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Imported[types.KindPatients])
	assert.Equal(t, 2, report.Imported[types.KindAppointments])
	assert.Empty(t, report.Conflicts)

	got, err := dst.GetAll(ctx, types.KindPatients)
	require.NoError(t, err)
	require.Len(t, got, 3)
	byEmail := map[string]*types.Patient{}
	for _, r := range got {
		p := r.(*types.Patient)
		byEmail[p.Email] = p
	}
	jeanne := byEmail["jeanne@example.fr"]
	require.NotNil(t, jeanne)
	assert.True(t, jeanne.IsSmoker, "boolean fields survive the round trip")
	assert.Equal(t, day("1990-01-01"), jeanne.BirthDate.UTC(), "date fields survive the round trip")

	appts, err := dst.GetAll(ctx, types.KindAppointments)
	require.NoError(t, err)
	assert.Len(t, appts, 2)
}

func TestImportIntoEmptyStoreCreatesUnderAnyPolicy(t *testing.T) {
	// With nothing to match against, every record is new; no policy may
	// treat it as a conflict or skip it.
	ctx := context.Background()
	src := seedSource(t)
	blob, _, err := NewExporter(src, nil).Export(ctx, ExportOptions{}, testPassword)
	require.NoError(t, err)

	for _, policy := range []ConflictPolicy{ConflictSkip, ConflictOverwrite, ConflictMerge} {
		dst := newStore(t)
		report, err := NewImporter(dst, nil).Import(ctx, blob, testPassword, ImportOptions{Policy: policy})
		require.NoError(t, err, "policy %s", policy)
		assert.Equal(t, 3, report.Imported[types.KindPatients], "policy %s", policy)
		assert.Equal(t, 2, report.Imported[types.KindAppointments], "policy %s", policy)
		assert.Zero(t, report.Skipped[types.KindPatients], "policy %s", policy)
		assert.Empty(t, report.Conflicts, "policy %s", policy)

		got, err := dst.GetAll(ctx, types.KindPatients)
		require.NoError(t, err)
		assert.Len(t, got, 3, "policy %s", policy)
	}
}

func TestImportCollectsRowFailures(t *testing.T) {
	// One patient the local schema rejects (empty last name) must not
	// stop the valid patient or the appointments behind it.
	entities := types.ExportEntities{
		Patients: []*types.Patient{
			{FirstName: "Jeanne", LastName: "Morel"},
			{FirstName: "Broken", LastName: ""},
		},
		Appointments: []*types.Appointment{
			{PatientID: 1, PractitionerID: 1, Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), DurationMin: 30},
		},
	}
	sum, err := Checksum(entities)
	require.NoError(t, err)
	blob := sealPackage(t, types.ExportPackage{
		Entities: entities,
		Metadata: types.ExportMetadata{Checksum: sum},
	})

	ctx := context.Background()
	dst := newStore(t)
	report, err := NewImporter(dst, nil).Import(ctx, blob, testPassword, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Imported[types.KindPatients])
	assert.Equal(t, 1, report.Imported[types.KindAppointments])
	require.Len(t, report.Errors, 1)
	assert.Equal(t, types.KindPatients, report.Errors[0].Kind)
	assert.Contains(t, report.Errors[0].Detail, "Broken")
}

func TestImportWrongPasswordMakesNoMutation(t *testing.T) {
	ctx := context.Background()
	src := seedSource(t)
	blob, _, err := NewExporter(src, nil).Export(ctx, ExportOptions{}, testPassword)
	require.NoError(t, err)

	dst := newStore(t)
	_, err = NewImporter(dst, nil).Import(ctx, blob, "not-the-password", ImportOptions{})
	require.ErrorIs(t, err, types.ErrInvalidPassword)

	got, err := dst.GetAll(ctx, types.KindPatients)
	require.NoError(t, err)
	assert.Empty(t, got, "a failed import must leave the store untouched")
}

func TestImportDetectsTamper(t *testing.T) {
	ctx := context.Background()
	blob, _, err := NewExporter(seedSource(t), nil).Export(ctx, ExportOptions{}, testPassword)
	require.NoError(t, err)

	// Flip one ciphertext byte. GCM authentication must refuse it, which
	// from the outside looks like a wrong password.
	tampered := append([]byte(nil), blob...)
	tampered[len(tampered)-1] ^= 0x01

	_, err = NewImporter(newStore(t), nil).Import(ctx, tampered, testPassword, ImportOptions{})
	require.ErrorIs(t, err, types.ErrInvalidPassword)
}

func TestImportChecksumMismatch(t *testing.T) {
	ctx := context.Background()

	// Build a package whose recorded digest does not match its entities.
	pkg := types.ExportPackage{
		Entities: types.ExportEntities{Patients: []*types.Patient{{FirstName: "A", LastName: "B"}}},
		Metadata: types.ExportMetadata{Checksum: "deadbeef"},
	}
	blob := sealPackage(t, pkg)

	imp := NewImporter(newStore(t), nil)
	_, err := imp.Import(ctx, blob, testPassword, ImportOptions{})
	require.ErrorIs(t, err, types.ErrIntegrityViolation)

	// The same package passes when the caller opts out of the check.
	report, err := imp.Import(ctx, blob, testPassword, ImportOptions{SkipIntegrityCheck: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported[types.KindPatients])
}

func TestImportMergeFlagsConflictWithoutApplying(t *testing.T) {
	ctx := context.Background()
	dst := newStore(t)
	existing, err := dst.Create(ctx, types.KindPatients, &types.Patient{
		FirstName: "Jeanne", LastName: "Morel", Email: "jeanne@example.fr", Phone: "0600000000",
	})
	require.NoError(t, err)

	src := newStore(t)
	_, err = src.Create(ctx, types.KindPatients, &types.Patient{
		FirstName: "Jeanne", LastName: "Durand", Email: "Jeanne@Example.fr", Phone: "0699999999",
	})
	require.NoError(t, err)
	blob, _, err := NewExporter(src, nil).Export(ctx, ExportOptions{}, testPassword)
	require.NoError(t, err)

	report, err := NewImporter(dst, nil).Import(ctx, blob, testPassword, ImportOptions{Policy: ConflictMerge})
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, types.KindPatients, report.Conflicts[0].Kind)
	assert.Equal(t, existing.RecordMeta().ID, report.Conflicts[0].ExistingID)
	assert.Zero(t, report.Imported[types.KindPatients])

	rec, err := dst.GetByID(ctx, types.KindPatients, existing.RecordMeta().ID)
	require.NoError(t, err)
	assert.Equal(t, "0600000000", rec.(*types.Patient).Phone, "merge must not auto-apply")
}

func TestImportOverwriteReplacesMatched(t *testing.T) {
	ctx := context.Background()
	dst := newStore(t)
	existing, err := dst.Create(ctx, types.KindPatients, &types.Patient{
		FirstName: "Paul", LastName: "Mercier", Email: "paul@example.fr", Phone: "0600000000",
	})
	require.NoError(t, err)

	src := newStore(t)
	_, err = src.Create(ctx, types.KindPatients, &types.Patient{
		FirstName: "Paul", LastName: "Mercier", Email: "paul@example.fr", Phone: "0711111111",
	})
	require.NoError(t, err)
	blob, _, err := NewExporter(src, nil).Export(ctx, ExportOptions{}, testPassword)
	require.NoError(t, err)

	report, err := NewImporter(dst, nil).Import(ctx, blob, testPassword, ImportOptions{Policy: ConflictOverwrite})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported[types.KindPatients])

	rec, err := dst.GetByID(ctx, types.KindPatients, existing.RecordMeta().ID)
	require.NoError(t, err)
	assert.Equal(t, "0711111111", rec.(*types.Patient).Phone)

	all, err := dst.GetAll(ctx, types.KindPatients)
	require.NoError(t, err)
	assert.Len(t, all, 1, "overwrite must not duplicate the record")
}

func TestImportSkipKeepsExisting(t *testing.T) {
	ctx := context.Background()
	dst := newStore(t)
	_, err := dst.Create(ctx, types.KindPatients, &types.Patient{
		// No email on the existing side; identity falls back to the
		// name and birth date tuple.
		FirstName: "Inès", LastName: "Garnier", BirthDate: day("1984-06-12"), Notes: "keep me",
	})
	require.NoError(t, err)

	src := newStore(t)
	_, err = src.Create(ctx, types.KindPatients, &types.Patient{
		FirstName: "inès", LastName: "garnier", BirthDate: day("1984-06-12"), Notes: "incoming",
	})
	require.NoError(t, err)
	blob, _, err := NewExporter(src, nil).Export(ctx, ExportOptions{}, testPassword)
	require.NoError(t, err)

	report, err := NewImporter(dst, nil).Import(ctx, blob, testPassword, ImportOptions{Policy: ConflictSkip})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped[types.KindPatients])
	assert.Zero(t, report.Imported[types.KindPatients])

	all, err := dst.GetAll(ctx, types.KindPatients)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "keep me", all[0].(*types.Patient).Notes)
}

func TestExportFilters(t *testing.T) {
	ctx := context.Background()
	src := newStore(t)

	p1, err := src.Create(ctx, types.KindPatients, &types.Patient{FirstName: "A", LastName: "A"})
	require.NoError(t, err)
	p2, err := src.Create(ctx, types.KindPatients, &types.Patient{FirstName: "B", LastName: "B"})
	require.NoError(t, err)

	mk := func(pid int64, start time.Time) {
		_, err := src.Create(ctx, types.KindAppointments, &types.Appointment{
			PatientID: pid, PractitionerID: 1, Start: start, DurationMin: 30,
		})
		require.NoError(t, err)
	}
	mk(p1.RecordMeta().ID, time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))
	mk(p1.RecordMeta().ID, time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC))
	mk(p2.RecordMeta().ID, time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC))

	blob, _, err := NewExporter(src, nil).Export(ctx, ExportOptions{
		Kinds:      []types.Kind{types.KindPatients, types.KindAppointments},
		PatientIDs: []int64{p1.RecordMeta().ID},
		From:       day("2026-01-01"),
		To:         day("2026-03-31"),
	}, testPassword)
	require.NoError(t, err)

	dst := newStore(t)
	report, err := NewImporter(dst, nil).Import(ctx, blob, testPassword, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported[types.KindPatients])
	assert.Equal(t, 1, report.Imported[types.KindAppointments])
}

func TestExportRejectsNonShareableKind(t *testing.T) {
	_, _, err := NewExporter(newStore(t), nil).Export(context.Background(), ExportOptions{
		Kinds: []types.Kind{types.KindConsultations},
	}, testPassword)
	require.ErrorIs(t, err, types.ErrInvalidData)
}

func TestPatientIdentityNeedsIdentityFields(t *testing.T) {
	assert.False(t, samePatient(&types.Patient{}, &types.Patient{}),
		"records without identity fields must never match")
	assert.False(t, samePatient(
		&types.Patient{Notes: "a"},
		&types.Patient{Notes: "b"},
	))
	assert.True(t, samePatient(
		&types.Patient{FirstName: "Jeanne", LastName: "Morel", BirthDate: day("1990-01-01")},
		&types.Patient{FirstName: "jeanne", LastName: "morel", BirthDate: day("1990-01-01")},
	))
	assert.False(t, samePatient(
		&types.Patient{FirstName: "Jeanne", LastName: "Morel", BirthDate: day("1990-01-01")},
		&types.Patient{FirstName: "Jeanne", LastName: "Morel", BirthDate: day("1991-02-02")},
	))
}

func TestParseConflictPolicy(t *testing.T) {
	p, err := ParseConflictPolicy("Overwrite")
	require.NoError(t, err)
	assert.Equal(t, ConflictOverwrite, p)

	_, err = ParseConflictPolicy("replace")
	require.ErrorIs(t, err, types.ErrInvalidData)
}

// sealPackage builds a blob straight from a package, bypassing the
// exporter, for tests that need a crafted payload.
func sealPackage(t *testing.T, pkg types.ExportPackage) []byte {
	t.Helper()
	plain, err := json.Marshal(pkg)
	require.NoError(t, err)
	blob, err := seal(plain, testPassword)
	require.NoError(t, err)
	return blob
}
