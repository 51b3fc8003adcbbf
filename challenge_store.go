package resetflow

import (
	"context"
	"sync"
	"time"
)

// Challenge is a pending one-time code, keyed by normalized email. At most
// one challenge is live per email; issuing a new one replaces the old.
type Challenge struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// ChallengeStore holds pending challenges. Implementations must make every
// single-key operation atomic: a reader never observes a torn record (old
// code with new expiry or vice versa). Ordering of simultaneous writes for
// the same email is undefined; last write wins.
//
// Get returns [ErrRecordNotFound] on a miss and does not evict expired
// entries; the engine checks ExpiresAt itself and deletes what it finds
// expired. Put replaces silently. Delete is idempotent. The ttl passed to
// Put equals the record's remaining lifetime and is a hint for backing
// stores with native expiry.
type ChallengeStore interface {
	Put(ctx context.Context, challenge Challenge, ttl time.Duration) error
	Get(ctx context.Context, email string) (Challenge, error)
	Delete(ctx context.Context, email string) error
}

type memoryChallengeStore struct {
	mu      sync.Mutex
	entries map[string]Challenge
}

// NewMemoryChallengeStore returns the default process-local challenge store.
// Records are volatile and do not survive a restart.
func NewMemoryChallengeStore() ChallengeStore {
	return &memoryChallengeStore{
		entries: make(map[string]Challenge),
	}
}

func (s *memoryChallengeStore) Put(_ context.Context, challenge Challenge, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[challenge.Email] = challenge
	return nil
}

func (s *memoryChallengeStore) Get(_ context.Context, email string) (Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.entries[email]
	if !ok {
		return Challenge{}, ErrRecordNotFound
	}
	return challenge, nil
}

func (s *memoryChallengeStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, email)
	return nil
}
