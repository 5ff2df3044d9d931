// Package repository defines the session journal used by bnshell.
//
// A journal records every import and evidence operation of a shell session so the
// session can be listed later and replayed against a fresh engine context.
//
// # SQLite Implementation
//
// The sqlite subpackage stores sessions and entries in SQLite with WAL mode. Entry
// values are stored as JSON. The schema is migrated automatically on open, adding new
// columns as needed while preserving existing data.
//
// # Testing
//
// The sqlite journal is tested with in-memory databases.
package repository
