// Package jwt inspects the access tokens issued by the chat backend.
//
// The client never signs tokens; it only needs to know when the token it
// holds is about to lapse (to renew before sending a doomed request) and,
// optionally, to verify server-issued tokens when the deployment distributes
// a verification key. [Inspector.Inspect] extracts claims without signature
// verification — sufficient for expiry scheduling, never for trust
// decisions. [Inspector.Verify] enforces the configured signing method and
// rejects algorithm confusion.
package jwt
