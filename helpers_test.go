package resetflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

type mockAccounts struct {
	mu       sync.Mutex
	accounts map[string]AccountRecord
	pwByID   map[string]string

	findErr error
	setErr  error
}

func newMockAccounts(records ...AccountRecord) *mockAccounts {
	m := &mockAccounts{
		accounts: make(map[string]AccountRecord),
		pwByID:   make(map[string]string),
	}
	for _, r := range records {
		m.accounts[r.Email] = r
	}
	return m
}

func (m *mockAccounts) FindAccountByEmail(_ context.Context, email string) (AccountRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return AccountRecord{}, m.findErr
	}
	account, ok := m.accounts[email]
	if !ok {
		return AccountRecord{}, ErrAccountNotFound
	}
	return account, nil
}

func (m *mockAccounts) SetPassword(_ context.Context, accountID, newPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.setErr != nil {
		return m.setErr
	}
	m.pwByID[accountID] = newPassword
	return nil
}

func (m *mockAccounts) password(accountID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pwByID[accountID]
}

type mockMailer struct {
	mu       sync.Mutex
	sendErr  error
	sent     int
	lastTo   string
	lastBody string
}

func (m *mockMailer) Send(_ context.Context, email, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent++
	m.lastTo = email
	m.lastBody = message
	return nil
}

func (m *mockMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent
}

func (m *mockMailer) lastMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastBody
}

// testClock is a settable clock for pinning expiry boundaries.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestEngine(t *testing.T, accounts AccountProvider, mailer Mailer) (*Engine, *testClock) {
	t.Helper()

	clock := newTestClock()
	engine := &Engine{
		config:     defaultConfig(),
		challenges: NewMemoryChallengeStore(),
		grants:     NewMemoryAuthorizationStore(),
		accounts:   accounts,
		mailer:     mailer,
		metrics:    NewMetrics(MetricsConfig{Enabled: true}),
		now:        clock.Now,
	}
	return engine, clock
}

// storedCode pulls the challenge code out of the store directly; the
// engine itself never returns it.
func storedCode(t *testing.T, engine *Engine, email string) string {
	t.Helper()

	challenge, err := engine.challenges.Get(context.Background(), email)
	if err != nil {
		t.Fatalf("challenge lookup failed: %v", err)
	}
	return challenge.Code
}

var errBackendDown = errors.New("backend down")
