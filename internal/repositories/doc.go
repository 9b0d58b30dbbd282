// Package repositories implements SQLite persistence for the upload journal.
//
// The journal is an audit trail of remote side effects: uploads, recoveries,
// playlist creations and splits, failed attaches and duplicate deletions.
// It is written after the remote call completes and is never read back to
// decide whether an asset exists.
//
// Key Implementations:
//   - [EventRepository] : event persistence with author, kind and track lookups
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
