package types

import (
	"encoding/json"
	"fmt"
)

// NewRecord returns a zero record of the given kind.
// Returns ErrUnknownKind for kinds outside the enumerated set.
func NewRecord(k Kind) (Record, error) {
	switch k {
	case KindPatients:
		return &Patient{}, nil
	case KindAppointments:
		return &Appointment{}, nil
	case KindInvoices:
		return &Invoice{}, nil
	case KindConsultations:
		return &Consultation{}, nil
	case KindDocuments:
		return &Document{}, nil
	case KindQuotes:
		return &Quote{}, nil
	case KindTreatments:
		return &Treatment{}, nil
	case KindRelationships:
		return &Relationship{}, nil
	case KindPractitioners:
		return &Practitioner{}, nil
	case KindCabinets:
		return &Cabinet{}, nil
	case KindBillingProfiles:
		return &BillingProfile{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
}

// DecodeRecord unmarshals one JSON object into a typed record of kind k.
func DecodeRecord(k Kind, data []byte) (Record, error) {
	rec, err := NewRecord(k)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrInvalidData, k, err)
	}
	return rec, nil
}

// DecodeRecords unmarshals a JSON array into typed records of kind k.
func DecodeRecords(k Kind, data []byte) ([]Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding %s list: %v", ErrInvalidData, k, err)
	}
	out := make([]Record, 0, len(raw))
	for _, item := range raw {
		rec, err := DecodeRecord(k, item)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// RecordPatch converts a record into a patch map keyed by JSON field name,
// with the bookkeeping fields stripped. Used when an incoming record must
// overwrite an existing row while preserving the row's identity and
// creation time.
func RecordPatch(rec Record) (map[string]any, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	patch := map[string]any{}
	if err := json.Unmarshal(data, &patch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	delete(patch, "id")
	delete(patch, "createdAt")
	delete(patch, "updatedAt")
	delete(patch, "deletedAt")
	return patch, nil
}
