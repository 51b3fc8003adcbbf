package resetflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	auditEventResetRequest  = "reset_request"
	auditEventResetDelivery = "reset_delivery_failed"
	auditEventResetVerify   = "reset_verify"
	auditEventResetCommit   = "reset_commit"
)

// AuditErrorCode is the coarse error classification recorded on events.
// Codes are stable identifiers; raw backend error text is never recorded.
type AuditErrorCode string

const (
	auditErrAccountNotFound      AuditErrorCode = "account_not_found"
	auditErrAccountUnconfirmed   AuditErrorCode = "account_unconfirmed"
	auditErrDeliveryFailed       AuditErrorCode = "delivery_failed"
	auditErrChallengeNotFound    AuditErrorCode = "challenge_not_found"
	auditErrChallengeExpired     AuditErrorCode = "challenge_expired"
	auditErrChallengeMismatch    AuditErrorCode = "challenge_mismatch"
	auditErrAuthorizationInvalid AuditErrorCode = "authorization_invalid"
	auditErrAuthorizationExpired AuditErrorCode = "authorization_expired"
	auditErrCredentialUpdate     AuditErrorCode = "credential_update_failed"
	auditErrPasswordPolicy       AuditErrorCode = "password_policy"
	auditErrUnavailable          AuditErrorCode = "backend_unavailable"
	auditErrInternal             AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	email string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrAccountNotFound):
		return auditErrAccountNotFound
	case errors.Is(err, ErrAccountUnconfirmed):
		return auditErrAccountUnconfirmed
	case errors.Is(err, ErrDeliveryFailed):
		return auditErrDeliveryFailed
	case errors.Is(err, ErrChallengeNotFound):
		return auditErrChallengeNotFound
	case errors.Is(err, ErrChallengeExpired):
		return auditErrChallengeExpired
	case errors.Is(err, ErrChallengeMismatch):
		return auditErrChallengeMismatch
	case errors.Is(err, ErrAuthorizationInvalid):
		return auditErrAuthorizationInvalid
	case errors.Is(err, ErrAuthorizationExpired):
		return auditErrAuthorizationExpired
	case errors.Is(err, ErrCredentialUpdateFailed):
		return auditErrCredentialUpdate
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrAccountsUnavailable),
		errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
