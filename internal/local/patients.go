package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/osteokit/cabinet/internal/engine"
	"github.com/osteokit/cabinet/pkg/types"
)

const patientCols = `id, first_name, last_name, email, phone, birth_date,
	address, is_smoker, notes, created_at, updated_at`

// PatientsTable stores patient files. Health data: local only.
type PatientsTable struct {
	base
}

func NewPatientsTable(eng *engine.Engine) *PatientsTable {
	return &PatientsTable{base{
		eng:  eng,
		kind: types.KindPatients,
		tbl:  "patients",
		cols: map[string]patchCol{
			"firstName": {"first_name", asText},
			"lastName":  {"last_name", asText},
			"email":     {"email", asText},
			"phone":     {"phone", asText},
			"birthDate": {"birth_date", asDate},
			"address":   {"address", asText},
			"isSmoker":  {"is_smoker", asBool},
			"notes":     {"notes", asText},
		},
	}}
}

func scanPatient(sc rowScanner) (*types.Patient, error) {
	var p types.Patient
	var email, phone, birth, address, notes sql.NullString
	var smoker int64
	var created, updated string
	err := sc.Scan(&p.ID, &p.FirstName, &p.LastName, &email, &phone, &birth,
		&address, &smoker, &notes, &created, &updated)
	if err != nil {
		return nil, err
	}
	p.Email = email.String
	p.Phone = phone.String
	p.Address = address.String
	p.Notes = notes.String
	p.IsSmoker = smoker != 0
	if p.BirthDate, err = scanNullableDate(birth); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *PatientsTable) GetAll(ctx context.Context) ([]types.Record, error) {
	rows, err := t.eng.Query(ctx,
		selectActive(patientCols, t.tbl, "")+" ORDER BY updated_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (t *PatientsTable) GetByID(ctx context.Context, id int64) (types.Record, error) {
	row := t.eng.QueryRow(ctx, selectActive(patientCols, t.tbl, "id = ?"), id)
	if row == nil {
		return nil, types.ErrClosed
	}
	p, err := scanPatient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (t *PatientsTable) Create(ctx context.Context, rec types.Record) (types.Record, error) {
	p, ok := rec.(*types.Patient)
	if !ok {
		return nil, fmt.Errorf("%w: expected *Patient, got %T", types.ErrInvalidData, rec)
	}
	now := newMeta(p)
	res, err := t.eng.Exec(ctx, `
		INSERT INTO patients (first_name, last_name, email, phone, birth_date,
			address, is_smoker, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.FirstName, p.LastName, nullText(p.Email), nullText(p.Phone),
		formatNullDate(p.BirthDate), nullText(p.Address), boolToInt(p.IsSmoker),
		nullText(p.Notes), formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("inserting patient: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}

func (t *PatientsTable) Update(ctx context.Context, id int64, patch map[string]any) (types.Record, error) {
	if err := t.applyPatch(ctx, id, patch); err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}

// Search matches patients by name or email, case-insensitive substring.
func (t *PatientsTable) Search(ctx context.Context, query string) ([]*types.Patient, error) {
	like := "%" + query + "%"
	rows, err := t.eng.Query(ctx,
		selectActive(patientCols, t.tbl, "(first_name LIKE ? OR last_name LIKE ? OR email LIKE ?)")+
			" ORDER BY last_name, first_name",
		like, like, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
