// Package goRealtime keeps a chat client connected and authenticated: it
// owns the persistent websocket to the chat backend, coordinates
// access-token renewal so concurrent requests never race on a refresh, and
// fans inbound realtime traffic out to typed subscribers.
//
// The package is designed for concurrent application workloads: Client
// methods are safe to call from multiple goroutines after initialization
// through [Builder.Build].
//
// # Architecture boundaries
//
// goRealtime is the public surface. It exposes [Client], [Builder],
// [Config], the [Transport] connection state machine, the [Bus] event
// fan-out, and the event types. Flow orchestration lives under internal/
// and is never exported; credential persistence lives in the session
// sub-package.
//
// # What this package must NOT do
//
//   - Render or interpret message content (payloads pass through typed but
//     uninspected).
//   - Expose Redis clients, store encodings, or wire envelope internals in
//     its public API.
//   - Hold process-wide singletons: every Client is an isolated instance.
//
// # Failure-mode contract
//
// Connection drops are retried with capped exponential backoff until the
// attempt budget is spent, then surfaced as [StateFailed]. A rejected
// renewal is never retried internally: the store is cleared, a
// [SessionInvalidEvent] is published, and every waiter receives
// [ErrSessionInvalid]. A request that fails authorization is replayed at
// most once with a renewed credential.
package goRealtime
