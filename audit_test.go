package resetflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditDispatcherDeliversAndDrains(t *testing.T) {
	sink := NewChannelSink(16)
	dispatcher := newAuditDispatcher(auditDispatcherConfig{
		Enabled:    true,
		BufferSize: 16,
		DropIfFull: false,
	}, sink)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		dispatcher.Emit(ctx, AuditEvent{EventID: "e", EventType: "reset_request"})
	}
	dispatcher.Close()

	received := 0
	timeout := time.After(2 * time.Second)
	for received < 5 {
		select {
		case <-sink.Events():
			received++
		case <-timeout:
			t.Fatalf("expected 5 events after close, got %d", received)
		}
	}

	// Emits after close are silently discarded.
	dispatcher.Emit(ctx, AuditEvent{EventType: "reset_request"})
	select {
	case <-sink.Events():
		t.Fatal("expected no delivery after close")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAuditDispatcherDropsWhenFull(t *testing.T) {
	// A sink that blocks forever forces the buffer to fill.
	blocked := make(chan struct{})
	sink := blockingSink{unblock: blocked}

	dispatcher := newAuditDispatcher(auditDispatcherConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		dispatcher.Emit(ctx, AuditEvent{EventType: "reset_request"})
	}

	if dispatcher.Dropped() == 0 {
		t.Fatal("expected dropped events with a full buffer")
	}

	close(blocked)
	dispatcher.Close()
}

type blockingSink struct {
	unblock chan struct{}
}

func (s blockingSink) Emit(context.Context, AuditEvent) {
	<-s.unblock
}

func TestAuditDispatcherDisabled(t *testing.T) {
	dispatcher := newAuditDispatcher(auditDispatcherConfig{Enabled: false}, NoOpSink{})
	if dispatcher != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}

	// Nil dispatcher methods are safe.
	dispatcher.Emit(context.Background(), AuditEvent{})
	dispatcher.Close()
	if dispatcher.Dropped() != 0 {
		t.Fatal("expected zero drops on nil dispatcher")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		EventID:   "evt-1",
		EventType: "reset_request",
		Email:     "alice@example.com",
		Success:   true,
	})

	line := strings.TrimSpace(buf.String())
	var decoded AuditEvent
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("expected valid JSON line, got %q: %v", line, err)
	}
	if decoded.EventID != "evt-1" || decoded.EventType != "reset_request" || !decoded.Success {
		t.Fatalf("decoded event mismatch: %+v", decoded)
	}
}

func TestZapSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewZapSink(zap.New(core))

	sink.Emit(context.Background(), AuditEvent{
		EventID:   "evt-1",
		EventType: "reset_verify",
		Email:     "alice@example.com",
		Success:   true,
	})
	sink.Emit(context.Background(), AuditEvent{
		EventID:   "evt-2",
		EventType: "reset_verify",
		Email:     "alice@example.com",
		Success:   false,
		Error:     string(auditErrChallengeMismatch),
	})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != zap.InfoLevel {
		t.Fatalf("expected info level for success, got %v", entries[0].Level)
	}
	if entries[1].Level != zap.WarnLevel {
		t.Fatalf("expected warn level for failure, got %v", entries[1].Level)
	}
	if entries[0].Message != "reset_verify" {
		t.Fatalf("expected event type as message, got %q", entries[0].Message)
	}
}

func TestEngineEmitsAuditEvents(t *testing.T) {
	ctx := WithClientIP(context.Background(), "203.0.113.7")
	accounts := newMockAccounts(AccountRecord{
		AccountID: "u1", Email: "alice@example.com", Confirmed: true,
	})
	sink := NewChannelSink(16)

	engine, err := New().
		WithAccounts(accounts).
		WithMailer(&mockMailer{}).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if err := engine.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	engine.Close()

	select {
	case event := <-sink.Events():
		if event.EventType != auditEventResetRequest {
			t.Fatalf("expected %q event, got %q", auditEventResetRequest, event.EventType)
		}
		if !event.Success {
			t.Fatal("expected success event")
		}
		if event.Email != "alice@example.com" {
			t.Fatalf("expected normalized email, got %q", event.Email)
		}
		if event.IP != "203.0.113.7" {
			t.Fatalf("expected client IP from context, got %q", event.IP)
		}
		if event.EventID == "" {
			t.Fatal("expected non-empty event ID")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected an audit event")
	}
}

func TestAuditEventNeverCarriesSecrets(t *testing.T) {
	ctx := context.Background()
	accounts := newMockAccounts(AccountRecord{
		AccountID: "u1", Email: "alice@example.com", Confirmed: true,
	})
	sink := NewChannelSink(16)

	engine, err := New().
		WithAccounts(accounts).
		WithMailer(&mockMailer{}).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if err := engine.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	code := storedCode(t, engine, "alice@example.com")
	token, err := engine.VerifyChallenge(ctx, "alice@example.com", code)
	if err != nil {
		t.Fatalf("VerifyChallenge failed: %v", err)
	}
	engine.Close()

	for {
		select {
		case event := <-sink.Events():
			if event.Error == code || event.Error == token {
				t.Fatalf("event error field carries a secret: %+v", event)
			}
			for key, value := range event.Metadata {
				if value == code || value == token {
					t.Fatalf("event metadata %q carries a secret: %+v", key, event)
				}
			}
		default:
			return
		}
	}
}

func TestAuditErrorCode(t *testing.T) {
	cases := map[error]AuditErrorCode{
		ErrAccountNotFound:        auditErrAccountNotFound,
		ErrAccountUnconfirmed:     auditErrAccountUnconfirmed,
		ErrDeliveryFailed:         auditErrDeliveryFailed,
		ErrChallengeNotFound:      auditErrChallengeNotFound,
		ErrChallengeExpired:       auditErrChallengeExpired,
		ErrChallengeMismatch:      auditErrChallengeMismatch,
		ErrAuthorizationInvalid:   auditErrAuthorizationInvalid,
		ErrAuthorizationExpired:   auditErrAuthorizationExpired,
		ErrCredentialUpdateFailed: auditErrCredentialUpdate,
		ErrPasswordPolicy:         auditErrPasswordPolicy,
		ErrAccountsUnavailable:    auditErrUnavailable,
		ErrStoreUnavailable:       auditErrUnavailable,
		errors.New("surprise"):    auditErrInternal,
	}
	for err, want := range cases {
		if got := auditErrorCode(err); got != want {
			t.Errorf("auditErrorCode(%v) = %q, want %q", err, got, want)
		}
	}
	if auditErrorCode(nil) != "" {
		t.Error("expected empty code for nil error")
	}
}
