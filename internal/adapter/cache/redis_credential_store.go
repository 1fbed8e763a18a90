package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/guildgate/guildgate-auth/internal/domain"
	"github.com/guildgate/guildgate-auth/internal/repository"
)

const credentialKeyPrefix = "credential:"

// RedisCredentialStore implements CredentialStore backed by Redis. Entries
// carry no TTL: staleness belongs to the Credential value, not the store.
type RedisCredentialStore struct {
	client redis.UniversalClient
}

var _ repository.CredentialStore = (*RedisCredentialStore)(nil)

// NewRedisCredentialStore constructs a Redis-backed credential store.
func NewRedisCredentialStore(client redis.UniversalClient) *RedisCredentialStore {
	return &RedisCredentialStore{client: client}
}

// Put stores the encoded credential under key as one atomic SET.
func (s *RedisCredentialStore) Put(ctx context.Context, key string, cred domain.Credential) error {
	payload, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	if err := s.client.Set(ctx, credentialKeyPrefix+key, payload, 0).Err(); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	return nil
}

// Get loads and decodes the credential, returning nil when absent.
func (s *RedisCredentialStore) Get(ctx context.Context, key string) (*domain.Credential, error) {
	bytes, err := s.client.Get(ctx, credentialKeyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("load credential: %w", err)
	}
	var cred domain.Credential
	if err := json.Unmarshal(bytes, &cred); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	return &cred, nil
}
