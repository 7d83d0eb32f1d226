// Package middleware exposes HTTP adapters built on top of the goRealtime
// request gateway.
//
// [NewRoundTripper] wraps a [goRealtime.Client] as an http.RoundTripper so
// generated API clients and other libraries that accept an *http.Client
// send every request through the gateway: Bearer attachment, pre-send
// renewal, and the single unauthorized replay.
//
// # Architecture boundaries
//
// This package translates http.RoundTripper semantics into Client calls. It
// does NOT implement auth logic itself — all decisions are delegated to
// Client.Do.
//
// # What this package must NOT do
//
//   - Touch the credential store directly.
//   - Retry beyond what the gateway already does.
package middleware
