package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/osteokit/cabinet/internal/engine"
	"github.com/osteokit/cabinet/pkg/types"
)

const treatmentCols = `id, patient_id, consultation_id, treat_date,
	technique, region, notes, created_at, updated_at`

// TreatmentsTable stores the per-patient treatment history.
type TreatmentsTable struct {
	base
}

func NewTreatmentsTable(eng *engine.Engine) *TreatmentsTable {
	return &TreatmentsTable{base{
		eng:  eng,
		kind: types.KindTreatments,
		tbl:  "treatments",
		cols: map[string]patchCol{
			"patientId":      {"patient_id", asInt},
			"consultationId": {"consultation_id", asInt},
			"date":           {"treat_date", asDate},
			"technique":      {"technique", asText},
			"region":         {"region", asText},
			"notes":          {"notes", asText},
		},
	}}
}

func scanTreatment(sc rowScanner) (*types.Treatment, error) {
	var tr types.Treatment
	var consultationID sql.NullInt64
	var date, technique, region, notes sql.NullString
	var created, updated string
	err := sc.Scan(&tr.ID, &tr.PatientID, &consultationID, &date, &technique,
		&region, &notes, &created, &updated)
	if err != nil {
		return nil, err
	}
	tr.ConsultationID = consultationID.Int64
	tr.Technique = technique.String
	tr.Region = region.String
	tr.Notes = notes.String
	if tr.Date, err = scanNullableDate(date); err != nil {
		return nil, err
	}
	if tr.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if tr.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &tr, nil
}

func (t *TreatmentsTable) GetAll(ctx context.Context) ([]types.Record, error) {
	rows, err := t.eng.Query(ctx,
		selectActive(treatmentCols, t.tbl, "")+" ORDER BY updated_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		tr, err := scanTreatment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (t *TreatmentsTable) GetByID(ctx context.Context, id int64) (types.Record, error) {
	row := t.eng.QueryRow(ctx, selectActive(treatmentCols, t.tbl, "id = ?"), id)
	if row == nil {
		return nil, types.ErrClosed
	}
	tr, err := scanTreatment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tr, nil
}

func (t *TreatmentsTable) Create(ctx context.Context, rec types.Record) (types.Record, error) {
	tr, ok := rec.(*types.Treatment)
	if !ok {
		return nil, fmt.Errorf("%w: expected *Treatment, got %T", types.ErrInvalidData, rec)
	}
	now := newMeta(tr)
	var consultationID any
	if tr.ConsultationID != 0 {
		consultationID = tr.ConsultationID
	}
	res, err := t.eng.Exec(ctx, `
		INSERT INTO treatments (patient_id, consultation_id, treat_date,
			technique, region, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.PatientID, consultationID, formatNullDate(tr.Date), nullText(tr.Technique),
		nullText(tr.Region), nullText(tr.Notes), formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("inserting treatment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}

func (t *TreatmentsTable) Update(ctx context.Context, id int64, patch map[string]any) (types.Record, error) {
	if err := t.applyPatch(ctx, id, patch); err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}
