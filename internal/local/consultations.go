package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/osteokit/cabinet/internal/engine"
	"github.com/osteokit/cabinet/pkg/types"
)

const consultationCols = `id, patient_id, appointment_id, consult_date,
	summary, treatment, created_at, updated_at`

// ConsultationsTable stores the clinical record of each visit.
type ConsultationsTable struct {
	base
}

func NewConsultationsTable(eng *engine.Engine) *ConsultationsTable {
	return &ConsultationsTable{base{
		eng:  eng,
		kind: types.KindConsultations,
		tbl:  "consultations",
		cols: map[string]patchCol{
			"patientId":     {"patient_id", asInt},
			"appointmentId": {"appointment_id", asInt},
			"date":          {"consult_date", asDate},
			"summary":       {"summary", asText},
			"treatment":     {"treatment", asText},
		},
	}}
}

func scanConsultation(sc rowScanner) (*types.Consultation, error) {
	var c types.Consultation
	var appointmentID sql.NullInt64
	var date, summary, treatment sql.NullString
	var created, updated string
	err := sc.Scan(&c.ID, &c.PatientID, &appointmentID, &date, &summary,
		&treatment, &created, &updated)
	if err != nil {
		return nil, err
	}
	c.AppointmentID = appointmentID.Int64
	c.Summary = summary.String
	c.Treatment = treatment.String
	if c.Date, err = scanNullableDate(date); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *ConsultationsTable) GetAll(ctx context.Context) ([]types.Record, error) {
	rows, err := t.eng.Query(ctx,
		selectActive(consultationCols, t.tbl, "")+" ORDER BY updated_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *ConsultationsTable) GetByID(ctx context.Context, id int64) (types.Record, error) {
	row := t.eng.QueryRow(ctx, selectActive(consultationCols, t.tbl, "id = ?"), id)
	if row == nil {
		return nil, types.ErrClosed
	}
	c, err := scanConsultation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (t *ConsultationsTable) Create(ctx context.Context, rec types.Record) (types.Record, error) {
	c, ok := rec.(*types.Consultation)
	if !ok {
		return nil, fmt.Errorf("%w: expected *Consultation, got %T", types.ErrInvalidData, rec)
	}
	now := newMeta(c)
	var appointmentID any
	if c.AppointmentID != 0 {
		appointmentID = c.AppointmentID
	}
	res, err := t.eng.Exec(ctx, `
		INSERT INTO consultations (patient_id, appointment_id, consult_date,
			summary, treatment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.PatientID, appointmentID, formatNullDate(c.Date), nullText(c.Summary),
		nullText(c.Treatment), formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("inserting consultation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}

func (t *ConsultationsTable) Update(ctx context.Context, id int64, patch map[string]any) (types.Record, error) {
	if err := t.applyPatch(ctx, id, patch); err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}

// ForPatient returns a patient's consultations, newest visit first.
func (t *ConsultationsTable) ForPatient(ctx context.Context, patientID int64) ([]*types.Consultation, error) {
	rows, err := t.eng.Query(ctx,
		selectActive(consultationCols, t.tbl, "patient_id = ?")+" ORDER BY consult_date DESC, id DESC",
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
