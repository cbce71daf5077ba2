// Package store provides SQLite-backed storage for audit results and
// transcripts.
//
// Results are append-only rows keyed by an integer id and carry the content
// hash of their result document. Transcripts are keyed by student id; reads
// go through an in-memory cache that a write to the same student invalidates.
//
// The database runs in WAL mode with synchronous=NORMAL and a 5 second busy
// timeout. PRAGMA user_version records SchemaVersion; Open refuses files
// from a newer version.
//
// Content hashes are computed by audit.ResultHash and audit.TranscriptHash
// using RFC 8785 canonical JSON and SHA-256 with domain separation.
package store
