package authcore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskvault/authcore/audit"
	"github.com/taskvault/authcore/blacklist"
	"github.com/taskvault/authcore/cache"
	"github.com/taskvault/authcore/jwt"
	"github.com/taskvault/authcore/metrics"
	"github.com/taskvault/authcore/refresh"
)

// Dependencies are the external collaborators the engine is wired with.
// Redis, RefreshStore and Directory are required; the rest default to
// inert implementations.
type Dependencies struct {
	// Redis backs the cache coordinator and the revocation registry.
	Redis redis.UniversalClient

	// RefreshStore holds the durable per-principal refresh tokens.
	RefreshStore refresh.Store

	// Directory answers credential and role questions.
	Directory Directory

	// AuditSink receives security events when auditing is enabled.
	AuditSink audit.Sink

	// Metrics receives operation counters. Nil disables them.
	Metrics *metrics.Metrics

	// Logger for operational messages. Nil discards.
	Logger *slog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Engine is the session core: it issues, refreshes, revokes and verifies
// access/refresh token pairs. Construct with New, dispose with Close.
// Safe for concurrent use.
type Engine struct {
	cfg       Config
	tokens    *jwt.Manager
	cache     *cache.Service
	blacklist *blacklist.Registry
	refresh   refresh.Store
	directory Directory
	audit     *audit.Dispatcher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// New validates cfg, applies defaults and wires the engine.
func New(cfg Config, deps Dependencies) (*Engine, error) {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Redis == nil {
		return nil, fmt.Errorf("%w: redis client is required", ErrEngineNotReady)
	}
	if deps.RefreshStore == nil {
		return nil, fmt.Errorf("%w: refresh store is required", ErrEngineNotReady)
	}
	if deps.Directory == nil {
		return nil, fmt.Errorf("%w: directory is required", ErrEngineNotReady)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	tokens, err := jwt.NewManager(jwt.Config{
		Secret:    cfg.JWT.Secret,
		AccessTTL: cfg.AccessTTL(),
		Issuer:    cfg.JWT.Issuer,
		Audience:  cfg.JWT.Audience,
		Leeway:    cfg.JWT.Leeway,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}

	cacheSvc := cache.New(deps.Redis, cache.Config{
		Namespace:  cfg.Cache.Namespace,
		DefaultTTL: cfg.Cache.DefaultTTL,
	}, logger)

	return &Engine{
		cfg:       cfg,
		tokens:    tokens,
		cache:     cacheSvc,
		blacklist: blacklist.New(cacheSvc, logger, now),
		refresh:   deps.RefreshStore,
		directory: deps.Directory,
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, deps.AuditSink),
		metrics: deps.Metrics,
		logger:  logger,
		now:     now,
	}, nil
}

// Close flushes the audit dispatcher. The Redis client and refresh store are
// owned by the caller and stay open.
func (e *Engine) Close() {
	e.audit.Close()
}

// Cache exposes the engine's cache coordinator so the embedding application
// can share it for derived views (see cache.TaskKey and friends).
func (e *Engine) Cache() *cache.Service {
	return e.cache
}

// AuditDropped reports audit events discarded under backpressure.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

func (e *Engine) emitAudit(ctx context.Context, event audit.Event) {
	e.audit.Emit(ctx, event)
}
