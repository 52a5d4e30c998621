// Package state keeps many documents of one type apart by reference. Where a
// docstore.Engine owns exactly one file, a state.Store maps each Ref (a
// domain within a scope such as a plugin or a service) onto its own
// snapshot.
//
// Responsibilities:
//   - Store[T] loads and saves the snapshot of a single Ref.
//   - Resolver[T] walks refs in priority order and returns the first
//     snapshot found, falling back to defaults when asked.
//   - Mutate applies a change under an optional ETag check, validates the
//     result and saves it.
//
// Deterministic keys:
//
//	Ref.Identifier() renders `system/<domain>` or `<scope>/<id>/<domain>`.
//	FileStore uses it as the relative path of the snapshot file, so every
//	path segment must be a plain file name.
package state
