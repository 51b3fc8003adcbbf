package resetflow

import (
	"context"
	"sync"
	"time"
)

// ResetAuthorization is a one-time password-change grant, issued only after
// a challenge was verified. Possession of a live token for an email is the
// sole authorization to change that email's password. The token is opaque
// and never user-visible; only the orchestrator passes it between steps.
type ResetAuthorization struct {
	Email     string
	Token     string
	ExpiresAt time.Time
}

// AuthorizationStore holds reset authorizations under the same contract as
// [ChallengeStore]: atomic single-key operations, [ErrRecordNotFound] on
// miss, no auto-eviction, silent replace, idempotent delete. It must not
// share a namespace with the challenge store; codes and tokens are
// semantically unrelated.
type AuthorizationStore interface {
	Put(ctx context.Context, authorization ResetAuthorization, ttl time.Duration) error
	Get(ctx context.Context, email string) (ResetAuthorization, error)
	Delete(ctx context.Context, email string) error
}

type memoryAuthorizationStore struct {
	mu      sync.Mutex
	entries map[string]ResetAuthorization
}

// NewMemoryAuthorizationStore returns the default process-local
// authorization store. Records are volatile and do not survive a restart.
func NewMemoryAuthorizationStore() AuthorizationStore {
	return &memoryAuthorizationStore{
		entries: make(map[string]ResetAuthorization),
	}
}

func (s *memoryAuthorizationStore) Put(_ context.Context, authorization ResetAuthorization, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[authorization.Email] = authorization
	return nil
}

func (s *memoryAuthorizationStore) Get(_ context.Context, email string) (ResetAuthorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	authorization, ok := s.entries[email]
	if !ok {
		return ResetAuthorization{}, ErrRecordNotFound
	}
	return authorization, nil
}

func (s *memoryAuthorizationStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, email)
	return nil
}
