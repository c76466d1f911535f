// Package session provides persistence for the signed-in check-in session: the
// [Record] model, its compact binary encoding, and the [Store] that keeps exactly one
// record under one logical key of a [KV] backend.
//
// # Binary encoding
//
// Records are stored as a versioned binary blob. Decoding is strict: an unknown
// version, a truncated field or trailing bytes yield [ErrRecordCorrupt] so callers can
// treat the data as absent.
//
// # Backends
//
// [MemoryKV] keeps values in process, [FileKV] keeps one file per key (the on-device
// store), and [RedisKV] keeps values in Redis through a go-redis UniversalClient.
//
// # What this package must NOT do
//
//   - Import goCheckin (no upward imports).
//   - Decide authentication state; it only loads, saves and erases records.
//   - Encrypt records (out of scope for the check-in client).
package session
