package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goRealtime/session"
)

// RenewFailureKind classifies renewal flow failures for root-level mapping.
type RenewFailureKind int

const (
	RenewFailureNone RenewFailureKind = iota
	// RenewFailureNoCredential: nothing usable in the store. Terminal — the
	// client has no refresh token to renew with.
	RenewFailureNoCredential
	// RenewFailureEndpoint: the renewal call failed without a verdict
	// (network error, 5xx). Transient — the stored credential is kept.
	RenewFailureEndpoint
	// RenewFailureRejected: the endpoint examined the refresh token and said
	// no. Terminal — the store is cleared.
	RenewFailureRejected
	// RenewFailurePersist: renewal succeeded but the new credential could
	// not be written to the store.
	RenewFailurePersist
)

// RenewResult carries either the renewed credential or failure metadata.
type RenewResult struct {
	Failure    RenewFailureKind
	Err        error
	Credential *session.Credential
}

// RenewDeps captures renewal flow dependencies.
type RenewDeps struct {
	LoadCredential  func(context.Context) (*session.Credential, error)
	CallRenewal     func(context.Context, string) (*session.Credential, error)
	SaveCredential  func(context.Context, *session.Credential) error
	ClearCredential func(context.Context) error
	Warn            func(string, ...any)

	// RejectedErr is the sentinel CallRenewal wraps when the endpoint
	// delivered a verdict against the refresh token, as opposed to failing
	// to deliver any verdict at all.
	RejectedErr error
}

// RunRenew executes one credential renewal against the store and the
// renewal endpoint. It never retries: classification of the failure is the
// caller's signal for whether a later attempt can succeed.
func RunRenew(ctx context.Context, deps RenewDeps) RenewResult {
	current, err := deps.LoadCredential(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoCredential) || errors.Is(err, session.ErrCredentialCorrupt) {
			// A corrupt blob is as unusable as an absent one. Drop it so the
			// next authentication starts clean.
			if clearErr := deps.ClearCredential(ctx); clearErr != nil && deps.Warn != nil {
				deps.Warn("goRealtime: credential clear failed after unusable load")
			}
			return RenewResult{Failure: RenewFailureNoCredential, Err: err}
		}
		return RenewResult{Failure: RenewFailureEndpoint, Err: err}
	}

	renewed, err := deps.CallRenewal(ctx, current.RefreshToken)
	if err != nil {
		if deps.RejectedErr != nil && errors.Is(err, deps.RejectedErr) {
			if clearErr := deps.ClearCredential(ctx); clearErr != nil && deps.Warn != nil {
				deps.Warn("goRealtime: credential clear failed after renewal rejection")
			}
			return RenewResult{Failure: RenewFailureRejected, Err: err}
		}
		return RenewResult{Failure: RenewFailureEndpoint, Err: err}
	}

	if err := deps.SaveCredential(ctx, renewed); err != nil {
		// The renewed tokens exist only in memory now. Surfacing the persist
		// failure keeps the store authoritative for every other reader.
		return RenewResult{Failure: RenewFailurePersist, Err: err}
	}

	return RenewResult{Credential: renewed}
}
