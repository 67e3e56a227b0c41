// Package cabinet exposes build-level metadata for the cabinet storage core.
package cabinet

// Version is the semantic version of the cabinet module. Also recorded in
// export package metadata so imports can detect format drift.
const Version = "0.4.1"
