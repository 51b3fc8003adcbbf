package resetflow

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/carbonwise/resetflow/internal"
)

// VerifyChallenge checks the submitted code against the pending challenge
// for email. On a match the challenge is consumed (single-use) and an opaque
// reset token valid for the configured authorization TTL is returned; the
// token is the sole input [Engine.CommitNewPassword] will accept.
//
// A wrong code returns [ErrChallengeMismatch] and leaves the challenge in
// place, so the user may retry until expiry. There is no attempt-count
// lockout in this layer; callers that need one should throttle upstream.
//
// An expired challenge is deleted on access before [ErrChallengeExpired] is
// reported, so a stale record never wedges the email's challenge slot.
func (e *Engine) VerifyChallenge(ctx context.Context, email, code string) (string, error) {
	if e == nil || e.challenges == nil || e.grants == nil {
		return "", ErrEngineNotReady
	}

	email = normalizeEmail(email)
	code = strings.TrimSpace(code)

	challenge, err := e.challenges.Get(ctx, email)
	if err != nil {
		mapped := ErrStoreUnavailable
		if errors.Is(err, ErrRecordNotFound) {
			mapped = ErrChallengeNotFound
		}
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventResetVerify, false, email, mapped, nil)
		return "", mapped
	}

	if e.clock().After(challenge.ExpiresAt) {
		if delErr := e.challenges.Delete(ctx, email); delErr != nil {
			e.metricInc(MetricVerifyFailure)
			e.emitAudit(ctx, auditEventResetVerify, false, email, ErrStoreUnavailable, nil)
			return "", ErrStoreUnavailable
		}
		e.metricInc(MetricVerifyFailure)
		e.metricInc(MetricChallengeExpired)
		e.emitAudit(ctx, auditEventResetVerify, false, email, ErrChallengeExpired, nil)
		return "", ErrChallengeExpired
	}

	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(code)) != 1 {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventResetVerify, false, email, ErrChallengeMismatch, nil)
		return "", ErrChallengeMismatch
	}

	// Consume before issuing: a verify that fails past this point must force
	// a new request rather than leave a replayable code behind.
	if err := e.challenges.Delete(ctx, email); err != nil {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventResetVerify, false, email, ErrStoreUnavailable, nil)
		return "", ErrStoreUnavailable
	}

	token, err := internal.NewResetToken()
	if err != nil {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventResetVerify, false, email, err, func() map[string]string {
			return map[string]string{"reason": "token_generation"}
		})
		return "", ErrStoreUnavailable
	}

	ttl := e.config.Authorization.TTL
	authorization := ResetAuthorization{
		Email:     email,
		Token:     token,
		ExpiresAt: e.clock().Add(ttl),
	}
	if err := e.grants.Put(ctx, authorization, ttl); err != nil {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventResetVerify, false, email, ErrStoreUnavailable, nil)
		return "", ErrStoreUnavailable
	}

	e.metricInc(MetricVerifySuccess)
	e.emitAudit(ctx, auditEventResetVerify, true, email, nil, nil)
	return token, nil
}
