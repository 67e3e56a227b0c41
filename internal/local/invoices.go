package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/osteokit/cabinet/internal/engine"
	"github.com/osteokit/cabinet/pkg/types"
)

const invoiceCols = `id, patient_id, appointment_id, number, invoice_date,
	amount_cents, paid, paid_at, created_at, updated_at`

// InvoicesTable stores patient invoices.
type InvoicesTable struct {
	base
}

func NewInvoicesTable(eng *engine.Engine) *InvoicesTable {
	return &InvoicesTable{base{
		eng:  eng,
		kind: types.KindInvoices,
		tbl:  "invoices",
		cols: map[string]patchCol{
			"patientId":     {"patient_id", asInt},
			"appointmentId": {"appointment_id", asInt},
			"number":        {"number", asText},
			"date":          {"invoice_date", asDate},
			"amountCents":   {"amount_cents", asInt},
			"paid":          {"paid", asBool},
			"paidAt":        {"paid_at", asTimestamp},
		},
	}}
}

func scanInvoice(sc rowScanner) (*types.Invoice, error) {
	var inv types.Invoice
	var appointmentID sql.NullInt64
	var number, date, paidAt sql.NullString
	var paid int64
	var created, updated string
	err := sc.Scan(&inv.ID, &inv.PatientID, &appointmentID, &number, &date,
		&inv.AmountCents, &paid, &paidAt, &created, &updated)
	if err != nil {
		return nil, err
	}
	inv.AppointmentID = appointmentID.Int64
	inv.Number = number.String
	inv.Paid = paid != 0
	if inv.Date, err = scanNullableDate(date); err != nil {
		return nil, err
	}
	if inv.PaidAt, err = scanNullTime(paidAt); err != nil {
		return nil, err
	}
	if inv.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if inv.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (t *InvoicesTable) GetAll(ctx context.Context) ([]types.Record, error) {
	rows, err := t.eng.Query(ctx,
		selectActive(invoiceCols, t.tbl, "")+" ORDER BY updated_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvoices(rows)
}

func (t *InvoicesTable) GetByID(ctx context.Context, id int64) (types.Record, error) {
	row := t.eng.QueryRow(ctx, selectActive(invoiceCols, t.tbl, "id = ?"), id)
	if row == nil {
		return nil, types.ErrClosed
	}
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (t *InvoicesTable) Create(ctx context.Context, rec types.Record) (types.Record, error) {
	inv, ok := rec.(*types.Invoice)
	if !ok {
		return nil, fmt.Errorf("%w: expected *Invoice, got %T", types.ErrInvalidData, rec)
	}
	now := newMeta(inv)
	var appointmentID any
	if inv.AppointmentID != 0 {
		appointmentID = inv.AppointmentID
	}
	res, err := t.eng.Exec(ctx, `
		INSERT INTO invoices (patient_id, appointment_id, number, invoice_date,
			amount_cents, paid, paid_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.PatientID, appointmentID, nullText(inv.Number), formatNullDate(inv.Date),
		inv.AmountCents, boolToInt(inv.Paid), formatNullTime(inv.PaidAt),
		formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("inserting invoice: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}

func (t *InvoicesTable) Update(ctx context.Context, id int64, patch map[string]any) (types.Record, error) {
	if err := t.applyPatch(ctx, id, patch); err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}

// ForPeriod returns the invoices dated in the given month (month 0 means
// the whole year), oldest first.
func (t *InvoicesTable) ForPeriod(ctx context.Context, year, month int) ([]*types.Invoice, error) {
	prefix := fmt.Sprintf("%04d-", year)
	if month > 0 {
		prefix = fmt.Sprintf("%04d-%02d-", year, month)
	}
	rows, err := t.eng.Query(ctx,
		selectActive(invoiceCols, t.tbl, "invoice_date LIKE ?")+" ORDER BY invoice_date, id",
		prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs, err := collectInvoices(rows)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Invoice, len(recs))
	for i, rec := range recs {
		out[i] = rec.(*types.Invoice)
	}
	return out, nil
}

// PeriodSummary aggregates a billing period.
type PeriodSummary struct {
	Count      int   `json:"count"`
	TotalCents int64 `json:"totalCents"`
	PaidCents  int64 `json:"paidCents"`
}

// Totals aggregates the given period (month 0 means the whole year).
func (t *InvoicesTable) Totals(ctx context.Context, year, month int) (*PeriodSummary, error) {
	prefix := fmt.Sprintf("%04d-", year)
	if month > 0 {
		prefix = fmt.Sprintf("%04d-%02d-", year, month)
	}
	row := t.eng.QueryRow(ctx,
		selectActive(`COUNT(*), COALESCE(SUM(amount_cents), 0),
			COALESCE(SUM(CASE WHEN paid = 1 THEN amount_cents ELSE 0 END), 0)`,
			t.tbl, "invoice_date LIKE ?"),
		prefix+"%")
	if row == nil {
		return nil, types.ErrClosed
	}
	var s PeriodSummary
	if err := row.Scan(&s.Count, &s.TotalCents, &s.PaidCents); err != nil {
		return nil, err
	}
	return &s, nil
}

func collectInvoices(rows *sql.Rows) ([]types.Record, error) {
	var out []types.Record
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
