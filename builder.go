package goCheckin

import (
	"errors"

	"github.com/MrEthical07/goCheckin/session"
	"go.uber.org/zap"
)

// Builder assembles an [Engine] from configuration and injected capabilities.
//
// Builder instances are intended to be configured during initialization and used for a
// single Build call.
type Builder struct {
	config Config
	kv     session.KV

	authClient   AuthClient
	verifyClient VerifyClient
	permissions  PermissionSource

	logger    *zap.Logger
	auditSink AuditSink
	observer  Observer

	built bool
}

// New describes the new operation and its observable behavior.
//
// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig replaces the whole configuration; the value is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithKV sets the key-value backend of the persisted session. Required.
func (b *Builder) WithKV(kv session.KV) *Builder {
	b.kv = kv
	return b
}

// WithAuthClient sets the remote auth endpoint. Required.
func (b *Builder) WithAuthClient(c AuthClient) *Builder {
	b.authClient = c
	return b
}

// WithVerifyClient sets the remote verification endpoint. Required.
func (b *Builder) WithVerifyClient(c VerifyClient) *Builder {
	b.verifyClient = c
	return b
}

// WithPermissionSource sets the camera permission capability. Required.
func (b *Builder) WithPermissionSource(p PermissionSource) *Builder {
	b.permissions = p
	return b
}

// WithLogger sets the structured logger. A nil logger discards all output.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// Setting a sink does not enable auditing; see [AuditConfig.Enabled].
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithObserver sets the state observer; nil keeps the default [NoOpObserver]. Callbacks
// run outside the engine's locks.
func (b *Builder) WithObserver(o Observer) *Builder {
	b.observer = o
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build validates the configuration and required capabilities and returns an engine
// whose session status is [StatusUnknown] until [SessionManager.Restore] runs.
// A Builder can be built once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.kv == nil {
		return nil, errors.New("session kv required")
	}
	if b.authClient == nil {
		return nil, errors.New("auth client required")
	}
	if b.verifyClient == nil {
		return nil, errors.New("verify client required")
	}
	if b.permissions == nil {
		return nil, errors.New("permission source required")
	}

	matcher, err := newPayloadMatcher(cfg.Scan)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := b.observer
	if observer == nil {
		observer = NoOpObserver{}
	}

	engine := &Engine{
		config:   cloneConfig(cfg),
		store:    session.NewStore(b.kv, cfg.Session.KeyPrefix, cfg.Session.KeyName),
		logger:   logger,
		observer: observer,
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink, logger.Named("audit"))
	engine.metrics = NewMetrics(cfg.Metrics)

	engine.sessions = newSessionManager(engine, b.authClient)
	engine.scanner = newScanVerifier(engine, engine.sessions, b.verifyClient, b.permissions, matcher)

	b.built = true

	return engine, nil
}
