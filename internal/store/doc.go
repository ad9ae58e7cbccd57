// Package store persists verification runs in SQLite.
//
// A run records the content hashes of its inputs, the report, the
// per-instance outcomes and the non-empty latency table cells:
//
//   - runs: one row per verification, identified by a UUIDv7
//   - report_lines: the report, in emission order
//   - outcomes: one row per release instance
//   - markers: latency table cells, tokens as canonical JSON
//
// Writes are idempotent: a run id that already exists is left untouched.
// Reads order runs by seq, then id under binary collation, so listings
// are identical across machines.
package store
