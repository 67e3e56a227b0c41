// Package local implements the entity table adapters over the embedded
// engine. One file per entity kind; shared soft-delete, patch, and type
// coercion plumbing lives here so the "exclude soft-deleted" predicate and
// the boolean/date conversions cannot drift between tables.
package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/osteokit/cabinet/internal/engine"
	"github.com/osteokit/cabinet/pkg/types"
)

// Storage formats. Timestamps keep a fixed-width nanosecond fraction so
// consecutive mutations always order, including lexicographically inside
// SQL comparisons; calendar dates carry no time component.
const (
	tsFormat   = "2006-01-02T15:04:05.000000000Z07:00"
	dateFormat = "2006-01-02"
)

// notDeleted is the single source of the soft-delete predicate.
const notDeleted = "deleted_at IS NULL"

// selectActive builds a SELECT over live rows only. Every read query in
// this package goes through it.
func selectActive(cols, table, extra string) string {
	q := "SELECT " + cols + " FROM " + table + " WHERE " + notDeleted
	if extra != "" {
		q += " AND " + extra
	}
	return q
}

func formatTime(t time.Time) string { return t.UTC().Format(tsFormat) }

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, dateFormat} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: bad timestamp %q", types.ErrInvalidData, s)
}

func formatDate(t time.Time) string { return t.UTC().Format(dateFormat) }

// formatNullTime renders an optional timestamp as a bindable value.
func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// formatNullDate renders an optional calendar date; the zero time maps to
// NULL so unset dates do not round-trip as year 1.
func formatNullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatDate(t)
}

func scanNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanNullableDate(ns sql.NullString) (time.Time, error) {
	if !ns.Valid {
		return time.Time{}, nil
	}
	return parseTime(ns.String)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// nullText maps the empty string to NULL so optional text fields do not
// clutter the table with empty values.
func nullText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// patchCol binds a JSON field name to its column and coercion rule.
type patchCol struct {
	col    string
	coerce func(v any) (any, error)
}

// Coercers for patch values, which arrive as JSON-decoded Go values.

func asText(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: expected string, got %T", types.ErrInvalidData, v)
	}
	return s, nil
}

func asBool(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return boolToInt(b), nil
	case float64:
		return boolToInt(b != 0), nil
	default:
		return nil, fmt.Errorf("%w: expected bool, got %T", types.ErrInvalidData, v)
	}
}

func asInt(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return nil, fmt.Errorf("%w: expected number, got %T", types.ErrInvalidData, v)
	}
}

func asFloat(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return nil, fmt.Errorf("%w: expected number, got %T", types.ErrInvalidData, v)
	}
}

func asTimestamp(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch ts := v.(type) {
	case string:
		t, err := parseTime(ts)
		if err != nil {
			return nil, err
		}
		return formatTime(t), nil
	case time.Time:
		return formatTime(ts), nil
	default:
		return nil, fmt.Errorf("%w: expected timestamp, got %T", types.ErrInvalidData, v)
	}
}

func asDate(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch d := v.(type) {
	case string:
		t, err := parseTime(d)
		if err != nil {
			return nil, err
		}
		return formatDate(t), nil
	case time.Time:
		return formatDate(d), nil
	default:
		return nil, fmt.Errorf("%w: expected date, got %T", types.ErrInvalidData, v)
	}
}

// base carries the behavior shared by every table adapter.
type base struct {
	eng  *engine.Engine
	kind types.Kind
	tbl  string
	cols map[string]patchCol
}

func (b *base) Kind() types.Kind { return b.kind }

// active reports whether a live (non-tombstoned) row exists.
func (b *base) active(ctx context.Context, id int64) (bool, error) {
	row := b.eng.QueryRow(ctx, selectActive("id", b.tbl, "id = ?"), id)
	if row == nil {
		return false, types.ErrClosed
	}
	var got int64
	err := row.Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// applyPatch validates the patch against the column map, coerces values,
// and updates the row in one statement, bumping updated_at.
func (b *base) applyPatch(ctx context.Context, id int64, patch map[string]any) error {
	live, err := b.active(ctx, id)
	if err != nil {
		return err
	}
	if !live {
		return fmt.Errorf("%w: %s %d", types.ErrNotFound, b.kind, id)
	}

	fields := make([]string, 0, len(patch))
	for k := range patch {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	var set []string
	var args []any
	for _, field := range fields {
		switch field {
		case "id", "createdAt", "updatedAt", "deletedAt":
			continue
		}
		pc, ok := b.cols[field]
		if !ok {
			return fmt.Errorf("%w: unknown field %q for %s", types.ErrInvalidData, field, b.kind)
		}
		val, err := pc.coerce(patch[field])
		if err != nil {
			return fmt.Errorf("field %q: %w", field, err)
		}
		set = append(set, pc.col+" = ?")
		args = append(args, val)
	}

	set = append(set, "updated_at = ?")
	args = append(args, formatTime(time.Now()), id)

	query := "UPDATE " + b.tbl + " SET " + strings.Join(set, ", ") +
		" WHERE id = ? AND " + notDeleted
	_, err = b.eng.Exec(ctx, query, args...)
	return err
}

// Delete soft-deletes the row. A second delete of the same id is a no-op
// reported as false.
func (b *base) Delete(ctx context.Context, id int64) (bool, error) {
	now := formatTime(time.Now())
	res, err := b.eng.Exec(ctx,
		"UPDATE "+b.tbl+" SET deleted_at = ?, updated_at = ? WHERE id = ? AND "+notDeleted,
		now, now, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Purge physically removes the row, tombstoned or not.
func (b *base) Purge(ctx context.Context, id int64) error {
	res, err := b.eng.Exec(ctx, "DELETE FROM "+b.tbl+" WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", types.ErrNotFound, b.kind, id)
	}
	return nil
}

// RawDeletedAt is a diagnostic read that sees through the soft-delete
// filter. It returns the tombstone timestamp (nil when live) and whether
// the row physically exists.
func (b *base) RawDeletedAt(ctx context.Context, id int64) (*time.Time, bool, error) {
	row := b.eng.QueryRow(ctx, "SELECT deleted_at FROM "+b.tbl+" WHERE id = ?", id)
	if row == nil {
		return nil, false, types.ErrClosed
	}
	var ns sql.NullString
	err := row.Scan(&ns)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	stamp, err := scanNullTime(ns)
	if err != nil {
		return nil, false, err
	}
	return stamp, true, nil
}

// newMeta stamps creation bookkeeping on a record and returns the shared
// timestamp used for both created_at and updated_at.
func newMeta(rec types.Record) time.Time {
	now := time.Now().UTC()
	meta := rec.RecordMeta()
	meta.ID = 0
	meta.CreatedAt = now
	meta.UpdatedAt = now
	meta.DeletedAt = nil
	return now
}
