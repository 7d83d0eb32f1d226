package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod names the algorithms the inspector will verify against.
type SigningMethod string

const (
	// MethodHS256 verifies with a shared secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 verifies with a distributed public key.
	MethodEd25519 SigningMethod = "ed25519"
)

var (
	// ErrTokenMalformed is returned when the token cannot be parsed at all.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrTokenInvalid is returned when verification is configured and fails.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrVerifyNotConfigured is returned by Verify when no key is set.
	ErrVerifyNotConfigured = errors.New("no verification key configured")
)

// Config tunes an [Inspector]. All fields are optional: a zero Config yields
// an inspector that can Inspect but not Verify.
type Config struct {
	// Leeway widens expiry checks to absorb clock skew between the client
	// host and the backend.
	Leeway time.Duration

	// SigningMethod plus one of Secret/PublicKey enables Verify.
	SigningMethod SigningMethod
	Secret        []byte
	PublicKey     []byte
}

// AccessClaims mirrors the claim set the chat backend puts into access
// tokens.
type AccessClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenInfo is the inspector's view of one access token.
type TokenInfo struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Inspector parses and optionally verifies backend-issued access tokens.
type Inspector struct {
	config Config
	edKey  ed25519.PublicKey
}

// NewInspector validates the configuration and builds an [Inspector].
func NewInspector(cfg Config) (*Inspector, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	ins := &Inspector{config: cfg}

	switch cfg.SigningMethod {
	case "":
		if len(cfg.Secret) > 0 || len(cfg.PublicKey) > 0 {
			return nil, errors.New("verification key set without signing method")
		}
	case MethodHS256:
		if len(cfg.Secret) == 0 {
			return nil, errors.New("hs256 requires a shared secret")
		}
	case MethodEd25519:
		if len(cfg.PublicKey) != ed25519.PublicKeySize {
			return nil, errors.New("ed25519 requires a 32-byte public key")
		}
		ins.edKey = ed25519.PublicKey(cfg.PublicKey)
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}

	return ins, nil
}

// Inspect extracts claims without checking the signature. The result tells
// the client when to renew; it must never feed an authorization decision.
func (i *Inspector) Inspect(token string) (*TokenInfo, error) {
	claims := &AccessClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	return claims.info(), nil
}

// Verify parses the token and checks its signature and time claims against
// the configured key. Expiry honors the configured leeway.
func (i *Inspector) Verify(token string) (*TokenInfo, error) {
	if i.config.SigningMethod == "" {
		return nil, ErrVerifyNotConfigured
	}

	claims := &AccessClaims{}
	parser := jwt.NewParser(
		jwt.WithLeeway(i.config.Leeway),
		jwt.WithExpirationRequired(),
	)

	_, err := parser.ParseWithClaims(token, claims, i.keyFor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return claims.info(), nil
}

// keyFor pins the accepted algorithm to the configured method. Tokens that
// arrive signed with anything else are rejected before key material is used.
func (i *Inspector) keyFor(token *jwt.Token) (interface{}, error) {
	switch i.config.SigningMethod {
	case MethodHS256:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.config.Secret, nil
	case MethodEd25519:
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.edKey, nil
	default:
		return nil, ErrVerifyNotConfigured
	}
}

// ExpiresWithin reports whether the token's exp claim falls inside the next
// window. Malformed tokens and tokens without exp report true: the caller
// cannot prove freshness, so it should renew.
func (i *Inspector) ExpiresWithin(token string, window time.Duration) bool {
	info, err := i.Inspect(token)
	if err != nil {
		return true
	}
	if info.ExpiresAt.IsZero() {
		return true
	}
	return time.Now().Add(window + i.config.Leeway).After(info.ExpiresAt)
}

func (c *AccessClaims) info() *TokenInfo {
	info := &TokenInfo{
		UserID: c.UserID,
		Email:  c.Email,
	}
	if c.IssuedAt != nil {
		info.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		info.ExpiresAt = c.ExpiresAt.Time
	}
	return info
}
