package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/osteokit/cabinet/internal/engine"
	"github.com/osteokit/cabinet/pkg/types"
)

const relationshipCols = `id, patient_id, related_patient_id, relation,
	created_at, updated_at`

// RelationshipsTable links patients to each other (family, referrals).
type RelationshipsTable struct {
	base
}

func NewRelationshipsTable(eng *engine.Engine) *RelationshipsTable {
	return &RelationshipsTable{base{
		eng:  eng,
		kind: types.KindRelationships,
		tbl:  "relationships",
		cols: map[string]patchCol{
			"patientId":        {"patient_id", asInt},
			"relatedPatientId": {"related_patient_id", asInt},
			"relation":         {"relation", asText},
		},
	}}
}

func scanRelationship(sc rowScanner) (*types.Relationship, error) {
	var r types.Relationship
	var created, updated string
	err := sc.Scan(&r.ID, &r.PatientID, &r.RelatedPatientID, &r.Relation,
		&created, &updated)
	if err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *RelationshipsTable) GetAll(ctx context.Context) ([]types.Record, error) {
	rows, err := t.eng.Query(ctx,
		selectActive(relationshipCols, t.tbl, "")+" ORDER BY updated_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t *RelationshipsTable) GetByID(ctx context.Context, id int64) (types.Record, error) {
	row := t.eng.QueryRow(ctx, selectActive(relationshipCols, t.tbl, "id = ?"), id)
	if row == nil {
		return nil, types.ErrClosed
	}
	r, err := scanRelationship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (t *RelationshipsTable) Create(ctx context.Context, rec types.Record) (types.Record, error) {
	r, ok := rec.(*types.Relationship)
	if !ok {
		return nil, fmt.Errorf("%w: expected *Relationship, got %T", types.ErrInvalidData, rec)
	}
	now := newMeta(r)
	res, err := t.eng.Exec(ctx, `
		INSERT INTO relationships (patient_id, related_patient_id, relation,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.PatientID, r.RelatedPatientID, r.Relation, formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("inserting relationship: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}

func (t *RelationshipsTable) Update(ctx context.Context, id int64, patch map[string]any) (types.Record, error) {
	if err := t.applyPatch(ctx, id, patch); err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}

// ForPatient returns all relationships where the patient appears on
// either side.
func (t *RelationshipsTable) ForPatient(ctx context.Context, patientID int64) ([]*types.Relationship, error) {
	rows, err := t.eng.Query(ctx,
		selectActive(relationshipCols, t.tbl, "(patient_id = ? OR related_patient_id = ?)")+
			" ORDER BY id",
		patientID, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.Relationship
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
