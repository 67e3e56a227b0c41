package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/osteokit/cabinet/internal/engine"
	"github.com/osteokit/cabinet/pkg/types"
)

const documentCols = `id, patient_id, name, mime_type, path, size,
	created_at, updated_at`

// DocumentsTable stores metadata for uploaded medical documents.
type DocumentsTable struct {
	base
}

func NewDocumentsTable(eng *engine.Engine) *DocumentsTable {
	return &DocumentsTable{base{
		eng:  eng,
		kind: types.KindDocuments,
		tbl:  "documents",
		cols: map[string]patchCol{
			"patientId": {"patient_id", asInt},
			"name":      {"name", asText},
			"mimeType":  {"mime_type", asText},
			"path":      {"path", asText},
			"size":      {"size", asInt},
		},
	}}
}

func scanDocument(sc rowScanner) (*types.Document, error) {
	var d types.Document
	var mime, path sql.NullString
	var size sql.NullInt64
	var created, updated string
	err := sc.Scan(&d.ID, &d.PatientID, &d.Name, &mime, &path, &size,
		&created, &updated)
	if err != nil {
		return nil, err
	}
	d.MimeType = mime.String
	d.Path = path.String
	d.Size = size.Int64
	if d.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &d, nil
}

func (t *DocumentsTable) GetAll(ctx context.Context) ([]types.Record, error) {
	rows, err := t.eng.Query(ctx,
		selectActive(documentCols, t.tbl, "")+" ORDER BY updated_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (t *DocumentsTable) GetByID(ctx context.Context, id int64) (types.Record, error) {
	row := t.eng.QueryRow(ctx, selectActive(documentCols, t.tbl, "id = ?"), id)
	if row == nil {
		return nil, types.ErrClosed
	}
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (t *DocumentsTable) Create(ctx context.Context, rec types.Record) (types.Record, error) {
	d, ok := rec.(*types.Document)
	if !ok {
		return nil, fmt.Errorf("%w: expected *Document, got %T", types.ErrInvalidData, rec)
	}
	now := newMeta(d)
	res, err := t.eng.Exec(ctx, `
		INSERT INTO documents (patient_id, name, mime_type, path, size,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.PatientID, d.Name, nullText(d.MimeType), nullText(d.Path), d.Size,
		formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}

func (t *DocumentsTable) Update(ctx context.Context, id int64, patch map[string]any) (types.Record, error) {
	if err := t.applyPatch(ctx, id, patch); err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}
