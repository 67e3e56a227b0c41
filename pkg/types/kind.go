package types

import "fmt"

// Kind identifies an entity kind managed by the storage core. The set is
// closed: every kind the application stores is enumerated here, and the
// router maps each one to its storage location at construction time.
type Kind string

// Entity kinds held on-device (health data).
const (
	KindPatients      Kind = "patients"
	KindAppointments  Kind = "appointments"
	KindInvoices      Kind = "invoices"
	KindConsultations Kind = "consultations"
	KindDocuments     Kind = "documents"
	KindQuotes        Kind = "quotes"
	KindTreatments    Kind = "treatments"
	KindRelationships Kind = "relationships"
)

// Entity kinds that may live in the hosted service (no patient data).
const (
	KindPractitioners   Kind = "practitioners"
	KindCabinets        Kind = "cabinets"
	KindBillingProfiles Kind = "billing_profiles"
)

// allKinds lists every known kind in a stable order.
var allKinds = []Kind{
	KindPatients,
	KindAppointments,
	KindInvoices,
	KindConsultations,
	KindDocuments,
	KindQuotes,
	KindTreatments,
	KindRelationships,
	KindPractitioners,
	KindCabinets,
	KindBillingProfiles,
}

// Kinds returns all known entity kinds.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Valid reports whether k is one of the enumerated kinds.
func (k Kind) Valid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) String() string { return string(k) }

// ParseKind converts a user-supplied name into a Kind.
// Returns ErrUnknownKind for names outside the enumerated set.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Location is the storage location an entity kind resolves to.
type Location int

const (
	// LocationLocal means the kind must be stored on-device only.
	LocationLocal Location = iota
	// LocationCloud means the kind may be stored in the hosted service.
	LocationCloud
)

func (l Location) String() string {
	switch l {
	case LocationLocal:
		return "local"
	case LocationCloud:
		return "cloud"
	default:
		return "unknown"
	}
}
