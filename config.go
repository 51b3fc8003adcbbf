package resetflow

import (
	"errors"
	"time"
)

// Config holds all engine tunables. Configure it before [Builder.Build];
// the engine clones it and treats its copy as immutable afterwards.
type Config struct {
	Challenge     ChallengeConfig
	Authorization AuthorizationConfig
	Password      PasswordPolicyConfig
	Backend       BackendConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

// ChallengeConfig controls the one-time code issued by RequestReset.
type ChallengeConfig struct {
	// TTL is how long an issued code stays verifiable.
	TTL time.Duration
	// OTPDigits is the code length; valid range is 6 to 10.
	OTPDigits int
}

// AuthorizationConfig controls the reset token issued by VerifyChallenge.
type AuthorizationConfig struct {
	// TTL is how long a verified flow may wait before committing.
	TTL time.Duration
}

// PasswordPolicyConfig is the local password policy enforced at commit time.
// Enforce the same minimum on every other entry point that accepts a
// password, or the reset flow becomes a policy bypass.
type PasswordPolicyConfig struct {
	MinLength int
}

// BackendConfig bounds outbound collaborator calls. Every AccountProvider and
// Mailer call runs under a context deadline of CallTimeout; a timeout is
// reported as a lookup or delivery failure, never as a hang.
type BackendConfig struct {
	CallTimeout time.Duration
}

// AuditConfig controls the async audit dispatcher buffering behavior.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the recommended configuration: 6-digit codes valid
// for 5 minutes, reset tokens valid for 10 minutes, minimum password length
// 6, 5 second backend call timeout, audit and metrics enabled.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Challenge: ChallengeConfig{
			TTL:       5 * time.Minute,
			OTPDigits: 6,
		},
		Authorization: AuthorizationConfig{
			TTL: 10 * time.Minute,
		},
		Password: PasswordPolicyConfig{
			MinLength: 6,
		},
		Backend: BackendConfig{
			CallTimeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a deep copy.
	return cfg
}

// Validate reports the first configuration error, or nil.
func (c Config) Validate() error {
	if c.Challenge.TTL <= 0 {
		return errors.New("Challenge.TTL must be positive")
	}
	if c.Challenge.OTPDigits < 6 || c.Challenge.OTPDigits > 10 {
		return errors.New("Challenge.OTPDigits must be between 6 and 10")
	}
	if c.Authorization.TTL <= 0 {
		return errors.New("Authorization.TTL must be positive")
	}
	if c.Password.MinLength < 6 {
		return errors.New("Password.MinLength must be at least 6")
	}
	if c.Backend.CallTimeout < 0 {
		return errors.New("Backend.CallTimeout must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("Audit.BufferSize must not be negative")
	}
	return nil
}
