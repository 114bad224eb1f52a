// Package library loads and indexes the track library.
//
// A [Snapshot] is an immutable value built once from a library file: readers
// within one generation run all see the same snapshot, and a reload swaps the
// whole value atomically via [Store] rather than mutating anything in place.
// Concurrent runs over the same snapshot therefore need no locking.
//
// The cortina pool, the style and origin indexes, and origin-name
// normalization all live here; the scan subcommand's tag extraction does too.
package library
