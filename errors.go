package goRealtime

import "errors"

var (
	// ErrSessionInvalid is returned when the stored credential can no longer
	// be renewed. The client must re-authenticate from scratch.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrRenewalUnavailable is returned when the renewal endpoint could not
	// deliver a verdict (network failure, server error). The stored
	// credential is kept and a later attempt may succeed.
	ErrRenewalUnavailable = errors.New("renewal endpoint unavailable")
	// ErrAuthRejected is returned when a request still fails authorization
	// after its single replay with a renewed credential.
	ErrAuthRejected = errors.New("request rejected after credential renewal")
	// ErrNotConnected is returned by outbound control sends while the
	// transport is not in the Connected state. Sends are never queued.
	ErrNotConnected = errors.New("transport not connected")
	// ErrReconnectExhausted is returned when the automatic reconnect budget
	// is spent; only an explicit Connect leaves the Failed state.
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
	// ErrClientClosed is returned by operations on a closed client.
	ErrClientClosed = errors.New("client closed")
	// ErrClientNotReady is returned when a Client is used before Build.
	ErrClientNotReady = errors.New("client not initialized")
)
