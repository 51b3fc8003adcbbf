package resetflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const authorizationKeyPrefix = "rfa"

type redisAuthorizationStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisAuthorizationStore returns an authorization store backed by the
// given Redis client. Keys live under the "rfa" prefix, isolated from
// challenge keys.
func NewRedisAuthorizationStore(client *redis.Client) AuthorizationStore {
	return &redisAuthorizationStore{
		redis:  client,
		prefix: authorizationKeyPrefix,
	}
}

func (s *redisAuthorizationStore) key(email string) string {
	return s.prefix + ":" + email
}

func (s *redisAuthorizationStore) Put(ctx context.Context, authorization ResetAuthorization, ttl time.Duration) error {
	encoded, err := encodeResetRecord(authorization.Email, authorization.Token, authorization.ExpiresAt)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = time.Until(authorization.ExpiresAt)
	}
	if err := s.redis.Set(ctx, s.key(authorization.Email), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *redisAuthorizationStore) Get(ctx context.Context, email string) (ResetAuthorization, error) {
	data, err := s.redis.Get(ctx, s.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ResetAuthorization{}, ErrRecordNotFound
		}
		return ResetAuthorization{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	storedEmail, token, expiresAt, err := decodeResetRecord(data)
	if err != nil {
		return ResetAuthorization{}, err
	}
	return ResetAuthorization{Email: storedEmail, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *redisAuthorizationStore) Delete(ctx context.Context, email string) error {
	if err := s.redis.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
