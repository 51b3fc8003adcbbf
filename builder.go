package resetflow

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A builder is single-use: Build returns an
// error when called twice.
type Builder struct {
	config Config
	redis  *redis.Client

	accounts   AccountProvider
	mailer     Mailer
	auditSink  AuditSink
	challenges ChallengeStore
	grants     AuthorizationStore

	built bool
}

// New returns a builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis makes both stores Redis-backed. Explicit stores set via
// [Builder.WithChallengeStore] or [Builder.WithAuthorizationStore] take
// precedence.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithAccounts supplies the account directory. Required.
func (b *Builder) WithAccounts(provider AccountProvider) *Builder {
	b.accounts = provider
	return b
}

// WithMailer supplies the code delivery channel. Required.
func (b *Builder) WithMailer(mailer Mailer) *Builder {
	b.mailer = mailer
	return b
}

// WithAuditSink supplies the audit event receiver. Optional; events are
// discarded without a sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithChallengeStore overrides the challenge store implementation.
func (b *Builder) WithChallengeStore(store ChallengeStore) *Builder {
	b.challenges = store
	return b
}

// WithAuthorizationStore overrides the authorization store implementation.
func (b *Builder) WithAuthorizationStore(store AuthorizationStore) *Builder {
	b.grants = store
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires default stores, and returns the
// engine. Memory stores are used unless a Redis client or explicit stores
// were provided.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.accounts == nil {
		return nil, errors.New("account provider required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}

	challenges := b.challenges
	grants := b.grants
	if challenges == nil {
		if b.redis != nil {
			challenges = NewRedisChallengeStore(b.redis)
		} else {
			challenges = NewMemoryChallengeStore()
		}
	}
	if grants == nil {
		if b.redis != nil {
			grants = NewRedisAuthorizationStore(b.redis)
		} else {
			grants = NewMemoryAuthorizationStore()
		}
	}

	engine := &Engine{
		config:     cfg,
		challenges: challenges,
		grants:     grants,
		accounts:   b.accounts,
		mailer:     b.mailer,
		audit: newAuditDispatcher(auditDispatcherConfig{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	b.built = true
	return engine, nil
}
