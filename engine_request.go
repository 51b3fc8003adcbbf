package resetflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/carbonwise/resetflow/internal"
)

// RequestReset starts a password-reset flow for email: it resolves the
// account, issues a fresh one-time code with the configured TTL, and mails
// it. Any prior challenge for the same email is replaced, so requesting
// twice invalidates the first code.
//
// The code is never returned to the caller; the mailer is its only path to
// the user. When the mail send fails, the challenge just stored is rolled
// back and [ErrDeliveryFailed] is returned, so a code nobody received can
// never occupy the email's challenge slot.
func (e *Engine) RequestReset(ctx context.Context, email string) error {
	if e == nil || e.accounts == nil || e.mailer == nil || e.challenges == nil {
		return ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" {
		e.metricInc(MetricResetRequestFailure)
		e.emitAudit(ctx, auditEventResetRequest, false, email, ErrAccountNotFound, func() map[string]string {
			return map[string]string{"reason": "empty_email"}
		})
		return ErrAccountNotFound
	}

	account, err := e.findAccount(ctx, email)
	if err != nil {
		e.metricInc(MetricResetRequestFailure)
		e.emitAudit(ctx, auditEventResetRequest, false, email, err, nil)
		return err
	}
	if !account.Confirmed {
		e.metricInc(MetricResetRequestFailure)
		e.emitAudit(ctx, auditEventResetRequest, false, email, ErrAccountUnconfirmed, nil)
		return ErrAccountUnconfirmed
	}

	code, err := internal.NewOTP(e.config.Challenge.OTPDigits)
	if err != nil {
		e.metricInc(MetricResetRequestFailure)
		e.emitAudit(ctx, auditEventResetRequest, false, email, err, func() map[string]string {
			return map[string]string{"reason": "otp_generation"}
		})
		return ErrStoreUnavailable
	}

	ttl := e.config.Challenge.TTL
	challenge := Challenge{
		Email:     email,
		Code:      code,
		ExpiresAt: e.clock().Add(ttl),
	}
	if err := e.challenges.Put(ctx, challenge, ttl); err != nil {
		e.metricInc(MetricResetRequestFailure)
		e.emitAudit(ctx, auditEventResetRequest, false, email, ErrStoreUnavailable, nil)
		return ErrStoreUnavailable
	}

	if err := e.sendCode(ctx, email, code); err != nil {
		// A challenge the user never received must not linger: it would block
		// the single-challenge slot until expiry with a code nobody knows.
		if delErr := e.challenges.Delete(ctx, email); delErr != nil {
			log.Print("resetflow: challenge rollback failed after delivery error")
		}
		e.metricInc(MetricResetRequestFailure)
		e.metricInc(MetricDeliveryFailure)
		e.emitAudit(ctx, auditEventResetDelivery, false, email, ErrDeliveryFailed, nil)
		return ErrDeliveryFailed
	}

	e.metricInc(MetricResetRequestSuccess)
	e.emitAudit(ctx, auditEventResetRequest, true, email, nil, nil)
	return nil
}

// findAccount resolves email against the account backend under the
// configured call timeout. A backend failure or timeout surfaces as
// [ErrAccountsUnavailable]; only an explicit miss surfaces as
// [ErrAccountNotFound].
func (e *Engine) findAccount(ctx context.Context, email string) (AccountRecord, error) {
	callCtx, cancel := e.backendContext(ctx)
	defer cancel()

	account, err := e.accounts.FindAccountByEmail(callCtx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return AccountRecord{}, ErrAccountNotFound
		}
		return AccountRecord{}, ErrAccountsUnavailable
	}
	return account, nil
}

func (e *Engine) sendCode(ctx context.Context, email, code string) error {
	callCtx, cancel := e.backendContext(ctx)
	defer cancel()

	return e.mailer.Send(callCtx, email, resetCodeMessage(code, e.config.Challenge.TTL))
}

func resetCodeMessage(code string, ttl time.Duration) string {
	minutes := int(ttl.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf(
		"Your verification code for changing your password is: %s\n\n"+
			"This code will expire in %d minutes.\n\n"+
			"If you didn't request this password reset, please ignore this email.",
		code, minutes,
	)
}
