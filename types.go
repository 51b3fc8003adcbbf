package resetflow

import "context"

// AccountProvider is the interface callers must implement to connect
// resetflow to their account directory. It covers the two operations the
// reset flow needs: credential lookup by email and the final password write.
//
// FindAccountByEmail must return [ErrAccountNotFound] when no account matches
// the (already normalized) email. Any other error is treated as a backend
// failure and surfaced as [ErrAccountsUnavailable].
type AccountProvider interface {
	FindAccountByEmail(ctx context.Context, email string) (AccountRecord, error)
	SetPassword(ctx context.Context, accountID, newPassword string) error
}

// AccountRecord is the minimal account view the reset flow operates on.
// Confirmed reports whether the account's email address has been verified;
// unconfirmed accounts may not start a reset.
type AccountRecord struct {
	AccountID string
	Email     string
	Confirmed bool
}

// Mailer delivers the one-time code to an email address. Delivery is
// fire-and-confirm: the engine only inspects the error of the Send call
// itself, never delivery receipts.
type Mailer interface {
	Send(ctx context.Context, email, message string) error
}

// FlowState is the per-email position in the reset state machine, inferred
// from store contents by [Engine.FlowState]. There is no stored state field;
// presence of a live challenge or authorization record is the state.
type FlowState uint8

const (
	// StateIdle means no live challenge or authorization exists for the email.
	StateIdle FlowState = iota
	// StateChallengeIssued means a code has been issued and not yet verified.
	StateChallengeIssued
	// StateAuthorized means a code was verified and a reset token is live.
	StateAuthorized
)

func (s FlowState) String() string {
	switch s {
	case StateChallengeIssued:
		return "challenge_issued"
	case StateAuthorized:
		return "authorized"
	default:
		return "idle"
	}
}
