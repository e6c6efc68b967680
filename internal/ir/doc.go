// Package ir defines the data model for declarative dispatch tables and
// journaled dispatches.
//
// This package contains type definitions and canonical serialization only.
// Every other internal package that handles tables as data imports ir; ir
// imports nothing internal.
//
// Key design constraints:
//   - NO float values in IR; float payloads are journaled as strings
//   - Canonical JSON (RFC 8785) is the only serialization used for hashing
//   - Table identity is content-addressed (TableHash)
//   - Journal ordering uses logical seq numbers, never wall-clock time
package ir
