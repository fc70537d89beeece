// Package repositories implements SQLite persistence for locally tracked job state.
//
// The single repository here is [SnapshotRepository], a write-through
// store holding at most one in-flight job snapshot per project scope.
// Rows are upserted on every progress change while a job is non-terminal
// and deleted when it terminates or the record is invalidated on load.
// Validation (age, scope, terminal stage) is the tracker's concern; the
// repository only reads and writes.
package repositories
