package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrRequestInProgress is returned when an Idempotency-Key is still held by
// an unfinished request.
var ErrRequestInProgress = shared.NewDomainError("REQUEST_IN_PROGRESS", "A request with this idempotency key is still in progress")

// Option configures the optional collaborators of a stock service
type Option func(*support)

// WithClock overrides the time source used for posting and write-off timestamps
func WithClock(now func() time.Time) Option {
	return func(s *support) {
		s.now = now
	}
}

// WithEventPublisher publishes domain events after commit
func WithEventPublisher(p shared.EventPublisher) Option {
	return func(s *support) {
		s.events = p
	}
}

// WithMetrics sets the business metrics recorder
func WithMetrics(m MetricsRecorder) Option {
	return func(s *support) {
		s.metrics = m
	}
}

// WithIdempotency enables Idempotency-Key handling for document creation
func WithIdempotency(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) Option {
	return func(s *support) {
		s.idem = store
		s.idemCfg = cfg
	}
}

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *support) {
		s.logger = logger
	}
}

// support carries what every stock service shares besides its repositories
type support struct {
	now     func() time.Time
	events  shared.EventPublisher
	metrics MetricsRecorder
	idem    shared.IdempotencyStore
	idemCfg shared.IdempotencyConfig
	logger  *zap.Logger
}

func newSupport(opts []Option) support {
	s := support{
		now:     func() time.Time { return time.Now().UTC() },
		metrics: NoopMetricsRecorder(),
		idemCfg: shared.DefaultIdempotencyConfig(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// publish sends events after commit. Failures are logged, never returned:
// the documents are already durable at this point.
func (s *support) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish stock events", zap.Error(err))
	}
}

// publishPending drains the events an aggregate recorded inside the
// committed transaction
func (s *support) publishPending(ctx context.Context, agg shared.AggregateRoot) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	s.publish(ctx, events...)
}

// idempotent runs create at most once per key. A completed key replays the
// stored document through load; a key that is still reserved yields
// ErrRequestInProgress. Store outages degrade to running create directly.
func idempotent[T any](
	ctx context.Context,
	s *support,
	scope, key string,
	load func(ctx context.Context, id uuid.UUID) (T, error),
	create func() (T, uuid.UUID, error),
) (T, error) {
	var zero T
	if s.idem == nil || !s.idemCfg.Enabled || key == "" {
		v, _, err := create()
		return v, err
	}

	fullKey := scope + ":" + key
	reserved, err := s.idem.Reserve(ctx, fullKey, s.idemCfg.TTL)
	if err != nil {
		s.logger.Warn("idempotency store unavailable, processing request without it",
			zap.String("key", fullKey), zap.Error(err))
		v, _, err := create()
		return v, err
	}

	if !reserved {
		result, found, err := s.idem.Lookup(ctx, fullKey)
		if err != nil {
			return zero, err
		}
		if !found || result == "" {
			return zero, ErrRequestInProgress
		}
		id, err := uuid.Parse(result)
		if err != nil {
			return zero, err
		}
		return load(ctx, id)
	}

	v, id, err := create()
	if err != nil {
		if relErr := s.idem.Release(ctx, fullKey); relErr != nil {
			s.logger.Warn("failed to release idempotency key", zap.String("key", fullKey), zap.Error(relErr))
		}
		return zero, err
	}
	if err := s.idem.Complete(ctx, fullKey, id.String(), s.idemCfg.TTL); err != nil {
		s.logger.Warn("failed to record idempotency result", zap.String("key", fullKey), zap.Error(err))
	}
	return v, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
