package resetflow

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Engine is the password-reset orchestrator. It owns the challenge and
// authorization stores exclusively; no other component may read or mutate
// them. Construct with [Builder.Build]; the zero value is not usable.
type Engine struct {
	config     Config
	challenges ChallengeStore
	grants     AuthorizationStore
	accounts   AccountProvider
	mailer     Mailer
	audit      *auditDispatcher
	metrics    *Metrics

	// now is swapped in tests to pin expiry boundaries.
	now func() time.Time
}

// Close drains the audit dispatcher. Safe to call on a nil engine.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) clock() time.Time {
	if e != nil && e.now != nil {
		return e.now()
	}
	return time.Now()
}

// backendContext bounds an outbound collaborator call with the configured
// timeout. The returned cancel must always be called.
func (e *Engine) backendContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if e == nil || e.config.Backend.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.config.Backend.CallTimeout)
}

// FlowState reports the email's current position in the reset state machine,
// inferred from store contents. A live authorization wins over a live
// challenge; expired records read as idle and are left for the mutating
// paths to clean up.
func (e *Engine) FlowState(ctx context.Context, email string) (FlowState, error) {
	if e == nil || e.challenges == nil || e.grants == nil {
		return StateIdle, ErrEngineNotReady
	}
	email = normalizeEmail(email)
	now := e.clock()

	grant, err := e.grants.Get(ctx, email)
	switch {
	case err == nil:
		if now.Before(grant.ExpiresAt) || now.Equal(grant.ExpiresAt) {
			return StateAuthorized, nil
		}
	case !errors.Is(err, ErrRecordNotFound):
		return StateIdle, ErrStoreUnavailable
	}

	challenge, err := e.challenges.Get(ctx, email)
	switch {
	case err == nil:
		if now.Before(challenge.ExpiresAt) || now.Equal(challenge.ExpiresAt) {
			return StateChallengeIssued, nil
		}
	case !errors.Is(err, ErrRecordNotFound):
		return StateIdle, ErrStoreUnavailable
	}

	return StateIdle, nil
}

// normalizeEmail is the sole key derivation for both stores: lower-cased,
// whitespace-trimmed. Lookups always use the exact normalized key, so no
// cross-account leakage is possible.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
