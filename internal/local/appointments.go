package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/osteokit/cabinet/internal/engine"
	"github.com/osteokit/cabinet/pkg/types"
)

const appointmentCols = `id, patient_id, practitioner_id, start_at,
	duration_min, reason, status, created_at, updated_at`

// AppointmentsTable stores scheduled consultation slots.
type AppointmentsTable struct {
	base
}

func NewAppointmentsTable(eng *engine.Engine) *AppointmentsTable {
	return &AppointmentsTable{base{
		eng:  eng,
		kind: types.KindAppointments,
		tbl:  "appointments",
		cols: map[string]patchCol{
			"patientId":      {"patient_id", asInt},
			"practitionerId": {"practitioner_id", asInt},
			"start":          {"start_at", asTimestamp},
			"durationMin":    {"duration_min", asInt},
			"reason":         {"reason", asText},
			"status":         {"status", asText},
		},
	}}
}

func scanAppointment(sc rowScanner) (*types.Appointment, error) {
	var a types.Appointment
	var reason sql.NullString
	var start, created, updated string
	err := sc.Scan(&a.ID, &a.PatientID, &a.PractitionerID, &start,
		&a.DurationMin, &reason, &a.Status, &created, &updated)
	if err != nil {
		return nil, err
	}
	a.Reason = reason.String
	if a.Start, err = parseTime(start); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &a, nil
}

func (t *AppointmentsTable) GetAll(ctx context.Context) ([]types.Record, error) {
	rows, err := t.eng.Query(ctx,
		selectActive(appointmentCols, t.tbl, "")+" ORDER BY updated_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (t *AppointmentsTable) GetByID(ctx context.Context, id int64) (types.Record, error) {
	row := t.eng.QueryRow(ctx, selectActive(appointmentCols, t.tbl, "id = ?"), id)
	if row == nil {
		return nil, types.ErrClosed
	}
	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (t *AppointmentsTable) Create(ctx context.Context, rec types.Record) (types.Record, error) {
	a, ok := rec.(*types.Appointment)
	if !ok {
		return nil, fmt.Errorf("%w: expected *Appointment, got %T", types.ErrInvalidData, rec)
	}
	if a.Status == "" {
		a.Status = types.AppointmentScheduled
	}
	if a.DurationMin == 0 {
		a.DurationMin = 45
	}
	now := newMeta(a)
	res, err := t.eng.Exec(ctx, `
		INSERT INTO appointments (patient_id, practitioner_id, start_at,
			duration_min, reason, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.PatientID, a.PractitionerID, formatTime(a.Start), a.DurationMin,
		nullText(a.Reason), a.Status, formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("inserting appointment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}

func (t *AppointmentsTable) Update(ctx context.Context, id int64, patch map[string]any) (types.Record, error) {
	if err := t.applyPatch(ctx, id, patch); err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}

// Conflicts returns the practitioner's non-cancelled appointments that
// overlap the [start, end) window, excluding excludeID. Used before
// booking to refuse double scheduling.
func (t *AppointmentsTable) Conflicts(ctx context.Context, practitionerID int64, start, end time.Time, excludeID int64) ([]*types.Appointment, error) {
	rows, err := t.eng.Query(ctx,
		selectActive(appointmentCols, t.tbl,
			"practitioner_id = ? AND id != ? AND status != ?"),
		practitionerID, excludeID, types.AppointmentCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates, err := collectAppointments(rows)
	if err != nil {
		return nil, err
	}
	var out []*types.Appointment
	for _, rec := range candidates {
		a := rec.(*types.Appointment)
		aEnd := a.Start.Add(time.Duration(a.DurationMin) * time.Minute)
		if a.Start.Before(end) && aEnd.After(start) {
			out = append(out, a)
		}
	}
	return out, nil
}

// InRange returns appointments starting within [from, to), soonest first.
func (t *AppointmentsTable) InRange(ctx context.Context, from, to time.Time) ([]*types.Appointment, error) {
	rows, err := t.eng.Query(ctx,
		selectActive(appointmentCols, t.tbl, "start_at >= ? AND start_at < ?")+
			" ORDER BY start_at",
		formatTime(from), formatTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs, err := collectAppointments(rows)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Appointment, len(recs))
	for i, rec := range recs {
		out[i] = rec.(*types.Appointment)
	}
	return out, nil
}

func collectAppointments(rows *sql.Rows) ([]types.Record, error) {
	var out []types.Record
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
