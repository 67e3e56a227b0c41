package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/osteokit/cabinet/internal/engine"
	"github.com/osteokit/cabinet/pkg/types"
)

const quoteCols = `id, patient_id, number, quote_date, amount_cents,
	accepted, created_at, updated_at`

// QuotesTable stores treatment-plan estimates.
type QuotesTable struct {
	base
}

func NewQuotesTable(eng *engine.Engine) *QuotesTable {
	return &QuotesTable{base{
		eng:  eng,
		kind: types.KindQuotes,
		tbl:  "quotes",
		cols: map[string]patchCol{
			"patientId":   {"patient_id", asInt},
			"number":      {"number", asText},
			"date":        {"quote_date", asDate},
			"amountCents": {"amount_cents", asInt},
			"accepted":    {"accepted", asBool},
		},
	}}
}

func scanQuote(sc rowScanner) (*types.Quote, error) {
	var q types.Quote
	var number, date sql.NullString
	var accepted int64
	var created, updated string
	err := sc.Scan(&q.ID, &q.PatientID, &number, &date, &q.AmountCents,
		&accepted, &created, &updated)
	if err != nil {
		return nil, err
	}
	q.Number = number.String
	q.Accepted = accepted != 0
	if q.Date, err = scanNullableDate(date); err != nil {
		return nil, err
	}
	if q.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if q.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &q, nil
}

func (t *QuotesTable) GetAll(ctx context.Context) ([]types.Record, error) {
	rows, err := t.eng.Query(ctx,
		selectActive(quoteCols, t.tbl, "")+" ORDER BY updated_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (t *QuotesTable) GetByID(ctx context.Context, id int64) (types.Record, error) {
	row := t.eng.QueryRow(ctx, selectActive(quoteCols, t.tbl, "id = ?"), id)
	if row == nil {
		return nil, types.ErrClosed
	}
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (t *QuotesTable) Create(ctx context.Context, rec types.Record) (types.Record, error) {
	q, ok := rec.(*types.Quote)
	if !ok {
		return nil, fmt.Errorf("%w: expected *Quote, got %T", types.ErrInvalidData, rec)
	}
	now := newMeta(q)
	res, err := t.eng.Exec(ctx, `
		INSERT INTO quotes (patient_id, number, quote_date, amount_cents,
			accepted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.PatientID, nullText(q.Number), formatNullDate(q.Date), q.AmountCents,
		boolToInt(q.Accepted), formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("inserting quote: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}

func (t *QuotesTable) Update(ctx context.Context, id int64, patch map[string]any) (types.Record, error) {
	if err := t.applyPatch(ctx, id, patch); err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}
