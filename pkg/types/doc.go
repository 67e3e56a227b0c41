// Package types defines the entity kinds, record types, table contract,
// configuration, and standard errors of the cabinet storage core.
//
// The storage core routes each entity kind to a storage location (local
// embedded database or the hosted cloud service) according to a fixed
// sensitivity classification. Types in this package are shared by the
// local adapters, the remote client, the router, and the hybrid manager.
package types
