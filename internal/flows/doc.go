// Package flows contains pure-function orchestrators for the client's
// credential operations.
//
// Each flow function (RunRenew, RunLogout) accepts a typed dependency struct
// and returns results without side-effects beyond those dependencies. This
// keeps the single-flight coordinator thin — it owns the concurrency, the
// flow owns the ordering of store writes against endpoint calls — and lets
// that ordering be unit-tested with plain function fakes.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goRealtime (to avoid import cycles).
//   - Perform I/O directly — all I/O is mediated through dependency funcs.
package flows
