// Package catalog holds the album catalog domain model and its SQLite-backed
// persistence: catalog entries tagged with a single immutable provenance,
// the provenance/support validation rules enforced at write time, and the
// append-only publish run history consumed by operator reporting.
package catalog
