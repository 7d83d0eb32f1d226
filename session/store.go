package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrNoCredential is returned by Load when no credential is stored.
var ErrNoCredential = errors.New("no credential stored")

// ErrStoreUnavailable is returned when the backing store cannot be reached.
var ErrStoreUnavailable = errors.New("credential store unavailable")

// Store is the durable holder of the single live [Credential].
//
// Writes are atomic replacements: a concurrent Load must return either the
// previous credential or the new one, never a mix. Load returns
// [ErrNoCredential] when nothing is stored and [ErrCredentialCorrupt] when
// the stored blob cannot be decoded.
type Store interface {
	Load(ctx context.Context) (*Credential, error)
	Save(ctx context.Context, cred *Credential) error
	Clear(ctx context.Context) error
}

// RedisStore persists the credential blob under a single prefixed key, so
// the state survives process restarts and is shared between processes using
// the same prefix.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a [RedisStore]. The prefix namespaces the key so
// multiple clients can share one Redis instance.
func NewRedisStore(redisClient redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "rt"
	}
	return &RedisStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *RedisStore) key() string {
	return s.prefix + ":credential"
}

// Load reads and decodes the stored credential.
func (s *RedisStore) Load(ctx context.Context) (*Credential, error) {
	data, err := s.redis.Get(ctx, s.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	cred, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// Save encodes the credential and replaces the stored blob with one SET.
// The write carries no TTL: expiry is a property of the credential, not of
// the storage key, and an expired blob is still needed for its refresh token.
func (s *RedisStore) Save(ctx context.Context, cred *Credential) error {
	data, err := Encode(cred)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Clear deletes the stored credential. Clearing an empty store succeeds.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
