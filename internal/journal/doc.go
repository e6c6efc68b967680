// Package journal records dispatches as they resolve.
//
// A Journal is a catch.Observer. It follows the events of a dispatch and,
// when the dispatch reaches a terminal state, writes one ir.DispatchRecord
// through its Writer. Records are ordered by a logical Clock, never by wall
// time, and identified by an IDGenerator (UUIDv7 in production, fixed
// sequences in tests).
//
// Journaling never changes dispatch behavior: write failures are logged and
// remembered (see Journal.Err) but never panic.
package journal
