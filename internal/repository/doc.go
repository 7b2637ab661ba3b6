// Package repository defines the run catalog interface for suitcase.
//
// The catalog records every export and ingest the command performs: one run
// row per invocation and one artifact row per file written or read, with the
// file's size and BLAKE2b checksum. The actual implementation is in the
// sqlite subpackage.
//
// # Schema
//
//	runs(uid, direction, format, status, reason, started_at, finished_at)
//	artifacts(run_uid, path, kind, checksum, size)
//
// Timestamps are stored as float seconds since the Unix epoch, the same
// representation documents use.
//
// # Testing
//
// The sqlite repository is tested against in-memory databases for the
// happy paths and against go-sqlmock for driver failures.
package repository
