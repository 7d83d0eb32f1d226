package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goRealtime/session"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	LoadCredential  func(context.Context) (*session.Credential, error)
	CallLogout      func(context.Context, string) error
	ClearCredential func(context.Context) error
	Warn            func(string, ...any)
}

// RunLogout revokes the server-side session (best effort) and clears the
// local store. The local clear happens regardless of the endpoint outcome:
// the user asked to be signed out, and a dangling server session is the
// lesser failure.
func RunLogout(ctx context.Context, deps LogoutDeps) error {
	current, err := deps.LoadCredential(ctx)
	switch {
	case err == nil:
		if err := deps.CallLogout(ctx, current.RefreshToken); err != nil && deps.Warn != nil {
			deps.Warn("goRealtime: server-side logout failed")
		}
	case errors.Is(err, session.ErrNoCredential):
		// Nothing to revoke.
	case errors.Is(err, session.ErrCredentialCorrupt):
		// Unreadable refresh token; fall through to the clear.
	default:
		return err
	}

	return deps.ClearCredential(ctx)
}
