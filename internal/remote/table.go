package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/osteokit/cabinet/pkg/types"
)

// Table adapts the hosted service to the uniform table contract for one
// entity kind.
type Table struct {
	client *Client
	kind   types.Kind
}

// NewTable returns the remote adapter for kind.
func NewTable(client *Client, kind types.Kind) *Table {
	return &Table{client: client, kind: kind}
}

func (t *Table) Kind() types.Kind { return t.kind }

func (t *Table) GetAll(ctx context.Context) ([]types.Record, error) {
	var raw json.RawMessage
	if err := t.client.do(ctx, http.MethodGet, kindPath(t.kind), nil, nil, &raw); err != nil {
		return nil, err
	}
	return types.DecodeRecords(t.kind, raw)
}

func (t *Table) GetByID(ctx context.Context, id int64) (types.Record, error) {
	var raw json.RawMessage
	err := t.client.do(ctx, http.MethodGet, recordPath(t.kind, id), nil, nil, &raw)
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return types.DecodeRecord(t.kind, raw)
}

func (t *Table) Create(ctx context.Context, rec types.Record) (types.Record, error) {
	var raw json.RawMessage
	if err := t.client.do(ctx, http.MethodPost, kindPath(t.kind), nil, rec, &raw); err != nil {
		return nil, err
	}
	return types.DecodeRecord(t.kind, raw)
}

func (t *Table) Update(ctx context.Context, id int64, patch map[string]any) (types.Record, error) {
	var raw json.RawMessage
	if err := t.client.do(ctx, http.MethodPatch, recordPath(t.kind, id), nil, patch, &raw); err != nil {
		return nil, err
	}
	return types.DecodeRecord(t.kind, raw)
}

func (t *Table) Delete(ctx context.Context, id int64) (bool, error) {
	err := t.client.do(ctx, http.MethodDelete, recordPath(t.kind, id), nil, nil, nil)
	if errors.Is(err, types.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Purge asks the service for a physical delete, used when erasing remote
// copies after a confirmed migration.
func (t *Table) Purge(ctx context.Context, id int64) error {
	query := url.Values{"hard": {"true"}}
	return t.client.do(ctx, http.MethodDelete, recordPath(t.kind, id), query, nil, nil)
}
