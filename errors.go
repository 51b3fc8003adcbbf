package resetflow

import "errors"

var (
	// ErrAccountNotFound is returned when no account matches the supplied email.
	// Reporting this verbatim discloses account existence; callers that need
	// enumeration safety must mask it at the edge.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountUnconfirmed is returned when the account exists but its email
	// address has never been confirmed.
	ErrAccountUnconfirmed = errors.New("account email unconfirmed")
	// ErrDeliveryFailed is returned when the mail channel rejects the code.
	// The challenge created for the request is rolled back first.
	ErrDeliveryFailed = errors.New("verification code delivery failed")
	// ErrChallengeNotFound is returned when no pending challenge exists for the
	// email, including after a successful verify consumed it.
	ErrChallengeNotFound = errors.New("challenge not found or expired")
	// ErrChallengeExpired is returned when the pending challenge outlived its TTL.
	ErrChallengeExpired = errors.New("challenge expired")
	// ErrChallengeMismatch is returned when the submitted code does not match.
	// The challenge is kept, so the caller may retry until expiry.
	ErrChallengeMismatch = errors.New("challenge code mismatch")
	// ErrAuthorizationInvalid is returned when no reset authorization exists for
	// the email or the supplied token does not match.
	ErrAuthorizationInvalid = errors.New("reset authorization invalid")
	// ErrAuthorizationExpired is returned when the reset authorization outlived
	// its TTL.
	ErrAuthorizationExpired = errors.New("reset authorization expired")
	// ErrCredentialUpdateFailed is returned when the account backend rejects the
	// password update. The authorization is kept so the commit can be retried.
	ErrCredentialUpdateFailed = errors.New("credential update failed")
	// ErrPasswordPolicy is returned when the new password violates the minimum
	// length policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrAccountsUnavailable is returned when the account backend cannot be
	// reached or times out.
	ErrAccountsUnavailable = errors.New("account backend unavailable")
	// ErrStoreUnavailable is returned when a challenge or authorization store
	// operation fails for reasons other than a missing record.
	ErrStoreUnavailable = errors.New("reset store unavailable")
	// ErrEngineNotReady is returned when the engine is missing a required
	// collaborator.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrRecordNotFound is the store-level miss sentinel returned by
	// ChallengeStore.Get and AuthorizationStore.Get.
	ErrRecordNotFound = errors.New("record not found")
)

// UserMessage maps an engine error to the single human-readable message
// suitable for end users. Internal detail (backend error text, store state)
// is never included. Unknown errors map to a generic retry message.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAccountNotFound):
		return "No account found with this email address. Please check your email or create a new account."
	case errors.Is(err, ErrAccountUnconfirmed):
		return "Please verify your email address first before resetting your password."
	case errors.Is(err, ErrDeliveryFailed):
		return "Failed to send verification code. Please try again."
	case errors.Is(err, ErrChallengeNotFound):
		return "Verification code not found or expired. Please request a new one."
	case errors.Is(err, ErrChallengeExpired):
		return "Verification code has expired. Please request a new one."
	case errors.Is(err, ErrChallengeMismatch):
		return "Invalid verification code. Please check and try again."
	case errors.Is(err, ErrAuthorizationInvalid):
		return "Invalid or expired reset session. Please start over."
	case errors.Is(err, ErrAuthorizationExpired):
		return "Reset session has expired. Please start over."
	case errors.Is(err, ErrCredentialUpdateFailed):
		return "Failed to update password. Please try again."
	case errors.Is(err, ErrPasswordPolicy):
		return "Password must be at least 6 characters long."
	default:
		return "Something went wrong. Please try again."
	}
}
