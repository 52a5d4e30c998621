// Package docstore persists one typed document per logical name.
//
// An Engine serializes a document to <name>.json, publishes new content
// through an atomic swap that rotates the previous primary into
// <name>.json.bak, and on load falls back from a corrupt or missing primary
// to the backup and finally to a default document. Corrupt primaries are
// preserved under timestamped names for diagnosis and never consulted again.
//
// Scoped binds an Engine to a well-known settings directory and swallows
// save failures, for preference documents whose writes must never take the
// host application down. Guard and Locked are the decorators it is built on.
package docstore
