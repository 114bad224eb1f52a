// Package models defines domain entities for the milonga playlist assembly service.
//
// The package contains three categories of types:
//
// 1. Library entities: immutable views over the track library
//   - [Track] : song metadata with tempo, energy, harmonic key and style tags
//   - [Cortina] : short transition track drawn from a pool disjoint from the program
//
// 2. Planning entities: request-scoped values produced during a generation run
//   - [Slot] : one position of the program pattern (style, size, optional role)
//   - [Tanda] : a filled group of tracks for one slot, placeholder-padded to size
//   - [Plan] : the assembled sequence of tandas and cortinas with warnings
//   - [UsedSet] : normalization-tolerant set of identities consumed by a run
//   - [ReferenceEntry] : caller-supplied partial descriptor resolved against the library
//
// 3. Persistent entities: database-backed models with full lifecycle management
//   - [SavedPlan] : a completed plan persisted for later browsing and export
//
// Track identities are canonicalized once at ingestion via [NormalizeID] and
// [CandidateKeys]; no call site performs ad hoc path or encoding fixups.
// Persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
