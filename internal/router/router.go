// Package router maps entity kinds to storage adapters according to the
// fixed sensitivity classification. It is the single enforcement point of
// the residency invariant: a local-classified kind is never served by a
// remote adapter, whatever the state of local storage. Other components
// trust the router's decision and do not re-check classification.
package router

import (
	"fmt"
	"log/slog"

	"github.com/osteokit/cabinet/pkg/types"
)

// classification is the static sensitivity table. Kinds carrying patient
// data are Local; everything else may live in the hosted service.
var classification = map[types.Kind]types.Location{
	types.KindPatients:      types.LocationLocal,
	types.KindAppointments:  types.LocationLocal,
	types.KindInvoices:      types.LocationLocal,
	types.KindConsultations: types.LocationLocal,
	types.KindDocuments:     types.LocationLocal,
	types.KindQuotes:        types.LocationLocal,
	types.KindTreatments:    types.LocationLocal,
	types.KindRelationships: types.LocationLocal,

	types.KindPractitioners:   types.LocationCloud,
	types.KindCabinets:        types.LocationCloud,
	types.KindBillingProfiles: types.LocationCloud,
}

// Resolve returns the storage location for a kind. Kinds absent from the
// classification default to Cloud: an unclassified kind carries no
// residency obligation.
func Resolve(kind types.Kind) types.Location {
	if loc, ok := classification[kind]; ok {
		return loc
	}
	return types.LocationCloud
}

// LocalKinds returns the kinds that must stay on-device.
func LocalKinds() []types.Kind {
	var out []types.Kind
	for _, k := range types.Kinds() {
		if Resolve(k) == types.LocationLocal {
			out = append(out, k)
		}
	}
	return out
}

// Router selects the adapter for each kind. Adapters are registered once
// during initialization; lookup is a pure map read afterwards.
type Router struct {
	local         map[types.Kind]types.Table
	remote        map[types.Kind]types.Table
	cloudFallback bool
	log           *slog.Logger
}

// New returns an empty router. cloudFallback permits serving a
// cloud-classified kind from the remote adapter when it has no local one.
func New(cloudFallback bool, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		local:         map[types.Kind]types.Table{},
		remote:        map[types.Kind]types.Table{},
		cloudFallback: cloudFallback,
		log:           log,
	}
}

// RegisterLocal registers a local adapter for its kind.
func (r *Router) RegisterLocal(t types.Table) {
	r.local[t.Kind()] = t
}

// RegisterRemote registers a remote adapter for its kind.
func (r *Router) RegisterRemote(t types.Table) {
	r.remote[t.Kind()] = t
}

// Adapter resolves the storage adapter for kind.
//
// Local-classified kinds must have a local adapter; a missing one is a
// fatal configuration error (ErrComplianceViolation), never an occasion
// to degrade to the remote adapter. Cloud-classified kinds prefer a local
// adapter when registered and fall back to the remote one only when
// cloud fallback is enabled.
func (r *Router) Adapter(kind types.Kind) (types.Table, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownKind, kind)
	}

	if t, ok := r.local[kind]; ok {
		return t, nil
	}

	if Resolve(kind) == types.LocationLocal {
		r.log.Error("local entity has no local adapter", "kind", kind)
		return nil, fmt.Errorf("%w: %s", types.ErrComplianceViolation, kind)
	}

	if t, ok := r.remote[kind]; ok && r.cloudFallback {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", types.ErrNoAdapter, kind)
}
