// Package hmap implements an open-addressed, in-memory associative
// container mapping uint32 keys to int32 values.
//
// The table is a Robin Hood linear-probing hash table with no
// tombstones and backward-shift deletion, built on top of the Space
// type in the internal/space package. Growth and shrinkage are handled
// by an incremental, two-space migration engine: a resize never
// rehashes the whole table in one call. Instead it installs a fresh
// Space as current, keeps the old one around as previous, and drains it
// in small batches piggybacked on subsequent Put and Remove calls. This
// bounds the worst-case latency of any single operation at the cost of
// lookups consulting both Spaces, and Put and Remove doing one batch of
// migration work, while a migration is in flight.
//
// A Map is not safe for concurrent use; callers needing that must add
// their own locking.
package hmap
