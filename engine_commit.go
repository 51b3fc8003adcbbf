package resetflow

import (
	"context"
	"crypto/subtle"
	"errors"
)

// CommitNewPassword finishes the flow: it checks the reset token against the
// live authorization for email, enforces the password policy, re-resolves
// the account, and instructs the backend to set the new password. On success
// the authorization is consumed (single-use).
//
// The account is looked up again at commit time rather than reusing a
// reference from an earlier step; its state may have changed since the
// challenge was verified.
//
// When the backend rejects the update, [ErrCredentialUpdateFailed] is
// returned and the authorization is deliberately kept, so the caller can
// retry the commit with the same token instead of restarting the flow.
func (e *Engine) CommitNewPassword(ctx context.Context, email, token, newPassword string) error {
	if e == nil || e.accounts == nil || e.grants == nil {
		return ErrEngineNotReady
	}

	email = normalizeEmail(email)

	authorization, err := e.grants.Get(ctx, email)
	if err != nil {
		mapped := ErrStoreUnavailable
		if errors.Is(err, ErrRecordNotFound) {
			mapped = ErrAuthorizationInvalid
		}
		e.metricInc(MetricCommitFailure)
		e.emitAudit(ctx, auditEventResetCommit, false, email, mapped, nil)
		return mapped
	}

	if subtle.ConstantTimeCompare([]byte(authorization.Token), []byte(token)) != 1 {
		e.metricInc(MetricCommitFailure)
		e.emitAudit(ctx, auditEventResetCommit, false, email, ErrAuthorizationInvalid, nil)
		return ErrAuthorizationInvalid
	}

	if e.clock().After(authorization.ExpiresAt) {
		if delErr := e.grants.Delete(ctx, email); delErr != nil {
			e.metricInc(MetricCommitFailure)
			e.emitAudit(ctx, auditEventResetCommit, false, email, ErrStoreUnavailable, nil)
			return ErrStoreUnavailable
		}
		e.metricInc(MetricCommitFailure)
		e.metricInc(MetricAuthorizationExpired)
		e.emitAudit(ctx, auditEventResetCommit, false, email, ErrAuthorizationExpired, nil)
		return ErrAuthorizationExpired
	}

	if len(newPassword) < e.config.Password.MinLength {
		e.metricInc(MetricCommitFailure)
		e.emitAudit(ctx, auditEventResetCommit, false, email, ErrPasswordPolicy, nil)
		return ErrPasswordPolicy
	}

	account, err := e.findAccount(ctx, email)
	if err != nil {
		e.metricInc(MetricCommitFailure)
		e.emitAudit(ctx, auditEventResetCommit, false, email, err, func() map[string]string {
			return map[string]string{"reason": "commit_time_lookup"}
		})
		return err
	}

	if err := e.setPassword(ctx, account.AccountID, newPassword); err != nil {
		// Authorization kept: a transient backend failure should not force the
		// user back to a fresh code request.
		e.metricInc(MetricCommitFailure)
		e.emitAudit(ctx, auditEventResetCommit, false, email, ErrCredentialUpdateFailed, nil)
		return ErrCredentialUpdateFailed
	}

	if err := e.grants.Delete(ctx, email); err != nil {
		// The password is set but the token is still live; fail the call so
		// the caller retries and the delete gets another chance.
		e.metricInc(MetricCommitFailure)
		e.emitAudit(ctx, auditEventResetCommit, false, email, ErrStoreUnavailable, func() map[string]string {
			return map[string]string{"reason": "consume_failed"}
		})
		return ErrStoreUnavailable
	}

	e.metricInc(MetricCommitSuccess)
	e.emitAudit(ctx, auditEventResetCommit, true, email, nil, nil)
	return nil
}

func (e *Engine) setPassword(ctx context.Context, accountID, newPassword string) error {
	callCtx, cancel := e.backendContext(ctx)
	defer cancel()

	return e.accounts.SetPassword(callCtx, accountID, newPassword)
}
