// Package session provides durable credential persistence and compact binary
// credential encoding for the realtime client.
//
// A [Credential] is the access/refresh token pair issued by the chat backend
// together with its issue and expiry timestamps. Exactly one live Credential
// exists per authenticated client; it is replaced atomically on renewal and
// deleted on logout or unrecoverable renewal failure.
//
// # Binary encoding
//
// Credentials are stored as a compact versioned binary format. The encoder is
// append-only: new schema versions add fields but never reinterpret old ones.
//
// # Store semantics
//
// [Store] implementations must make writes atomic from the caller's
// perspective: a concurrent Load never observes a half-written Credential.
// [RedisStore] achieves this with a single SET of the encoded blob under one
// key. [MemoryStore] serves embedders that carry no Redis and tests; it
// copies on both read and write.
//
// # What this package must NOT do
//
//   - Decide when a credential gets renewed (that is the coordinator's job).
//   - Interpret access token contents (that is the jwt package's job).
//   - Import goRealtime or jwt (no upward imports).
package session
