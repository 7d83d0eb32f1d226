package middleware

import (
	"net/http"

	goRealtime "github.com/MrEthical07/goRealtime"
)

// AuthRoundTripper routes requests through the client's gateway, so any
// code that takes an *http.Client gets token attachment, renew-on-expiry,
// and the single 401 replay for free.
type AuthRoundTripper struct {
	client *goRealtime.Client
}

// NewRoundTripper wraps a client as an http.RoundTripper.
func NewRoundTripper(client *goRealtime.Client) (*AuthRoundTripper, error) {
	if client == nil {
		return nil, goRealtime.ErrClientNotReady
	}
	return &AuthRoundTripper{client: client}, nil
}

// RoundTrip implements http.RoundTripper. The request is cloned by the
// gateway before headers are attached, per the RoundTripper contract.
func (rt *AuthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt.client.Do(req.Context(), req)
}

// HTTPClient returns an *http.Client whose transport is the gateway.
func HTTPClient(client *goRealtime.Client) (*http.Client, error) {
	rt, err := NewRoundTripper(client)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: rt}, nil
}
