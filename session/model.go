package session

import "time"

// Credential is the access/refresh token pair for one authenticated client,
// with issue and expiry timestamps in Unix seconds.
//
// Credential values are treated as immutable once written to a [Store]:
// renewal replaces the whole value, never individual fields.
type Credential struct {
	AccessToken  string
	RefreshToken string

	IssuedAt  int64
	ExpiresAt int64
}

// Expired reports whether the access token is past its expiry at the given
// instant, with leeway subtracted from the expiry so that a token about to
// lapse is treated as already invalid.
func (c *Credential) Expired(now time.Time, leeway time.Duration) bool {
	if c == nil {
		return true
	}
	if c.ExpiresAt == 0 {
		return false
	}
	return !now.Before(time.Unix(c.ExpiresAt, 0).Add(-leeway))
}

// Clone returns a copy of the credential. Stores hand out clones so a caller
// can never mutate persisted state through an aliased pointer.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}
