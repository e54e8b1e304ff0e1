// Package session provides flat-file conversation history persistence.
//
// A session is an ordered transcript of turns keyed by an opaque string id.
// The whole mapping is read once at startup and rewritten in full on every
// persist; the on-disk format is a single human-readable JSON document
// mapping session id to an array of {role, content} objects.
//
// # Concurrency
//
// [Store] is safe for concurrent use. A store-level mutex serializes
// mutations, and [Store.Persist] uses atomic writes (temp file + rename)
// with file locking via [github.com/gofrs/flock] so two processes never
// interleave partial writes.
//
// # Lifecycle
//
// Sessions are created lazily by [Store.GetOrCreate] and seeded with a
// single system turn. Turns are append-only; nothing in this package
// mutates or removes an existing turn. Sessions are destroyed only by
// deleting the persisted file externally.
package session
