package core

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shubh1021/AgriTrace/internal/blob"
	"github.com/shubh1021/AgriTrace/internal/identity"
	"github.com/shubh1021/AgriTrace/pkg/domain"
)

// DefaultBaseURL prefixes batch reference URLs when no base URL is configured.
const DefaultBaseURL = "http://localhost:3000/trace"

// Service is the batch registry. It validates actor and lifecycle
// preconditions, fingerprints every recorded fact and commits each mutation
// inside a per-batch transaction of the underlying store.
type Service struct {
	store     PersistentStore
	directory identity.Directory
	namer     NameGenerator
	newID     func(time.Time) string
	baseURL   string
	archive   blob.Store
	logger    Logger
	audit     AuditRecorder
	metrics   MetricsRecorder
	tracer    Tracer
	now       func() time.Time
}

// Option customises a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	clock     Clock
	logger    Logger
	audit     AuditRecorder
	metrics   MetricsRecorder
	tracer    Tracer
	directory identity.Directory
	namer     NameGenerator
	newID     func(time.Time) string
	baseURL   string
	archive   blob.Store
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		logger:    noopLogger{},
		audit:     noopAuditRecorder{},
		metrics:   noopMetricsRecorder{},
		tracer:    noopTracer{},
		directory: identity.Default(),
		namer:     TemplateNameGenerator(),
		newID:     NewBatchID,
		baseURL:   DefaultBaseURL,
	}
}

// WithClock overrides the time source used for recorded timestamps.
func WithClock(clock Clock) Option {
	return func(o *serviceOptions) { o.clock = clock }
}

// WithLogger sets the structured logger.
func WithLogger(logger Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAuditRecorder sets the audit sink for mutating operations.
func WithAuditRecorder(rec AuditRecorder) Option {
	return func(o *serviceOptions) {
		if rec != nil {
			o.audit = rec
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(o *serviceOptions) {
		if rec != nil {
			o.metrics = rec
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer Tracer) Option {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithDirectory replaces the seeded actor directory.
func WithDirectory(dir identity.Directory) Option {
	return func(o *serviceOptions) {
		if dir != nil {
			o.directory = dir
		}
	}
}

// WithNameGenerator sets the descriptive batch name generator.
func WithNameGenerator(gen NameGenerator) Option {
	return func(o *serviceOptions) {
		if gen != nil {
			o.namer = gen
		}
	}
}

// WithIDGenerator overrides batch id assignment.
func WithIDGenerator(fn func(time.Time) string) Option {
	return func(o *serviceOptions) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithBaseURL sets the prefix of batch reference URLs.
func WithBaseURL(base string) Option {
	return func(o *serviceOptions) {
		if base = strings.TrimSpace(base); base != "" {
			o.baseURL = base
		}
	}
}

// WithArchive enables ArchiveProvenance against the given store.
func WithArchive(store blob.Store) Option {
	return func(o *serviceOptions) { o.archive = store }
}

// NewService constructs a service backed by store.
func NewService(store PersistentStore, opts ...Option) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		store:     store,
		directory: o.directory,
		namer:     o.namer,
		newID:     o.newID,
		baseURL:   o.baseURL,
		archive:   o.archive,
		logger:    o.logger,
		audit:     o.audit,
		metrics:   o.metrics,
		tracer:    o.tracer,
		now:       selectNowFunc(store, o.clock),
	}
}

// NewInMemoryService creates a service over a fresh in-memory store. A nil
// engine disables rule evaluation.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	return NewService(NewMemoryStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// Directory returns the actor directory consulted for preconditions.
func (s *Service) Directory() identity.Directory { return s.directory }

// RulesEngine returns the store's engine, or nil when the store exposes none.
func (s *Service) RulesEngine() *RulesEngine { return extractRulesEngine(s.store) }

// NewBatchID returns batch_<unix millis>_<8 hex>.
func NewBatchID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "batch_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}

type rulesEngineProvider interface {
	RulesEngine() *domain.RulesEngine
}

type nowFuncProvider interface {
	NowFunc() func() time.Time
}

func extractRulesEngine(store PersistentStore) *RulesEngine {
	if p, ok := store.(rulesEngineProvider); ok {
		return p.RulesEngine()
	}
	return nil
}

// selectNowFunc prefers an explicit clock, then the store's time source.
func selectNowFunc(store PersistentStore, clock Clock) func() time.Time {
	if clock != nil {
		return func() time.Time { return clock.Now().UTC() }
	}
	if p, ok := store.(nowFuncProvider); ok {
		if fn := p.NowFunc(); fn != nil {
			return func() time.Time { return fn().UTC() }
		}
	}
	return func() time.Time { return time.Now().UTC() }
}

// run wraps an operation with tracing, metrics, audit and logging. fn returns
// the id of the entity it touched.
func (s *Service) run(ctx context.Context, op string, fn func(context.Context) (string, Result, error)) (Result, error) {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	entityID, res, err := fn(ctx)
	elapsed := time.Since(start)

	s.metrics.Observe(ctx, op, err == nil, elapsed)
	s.recordAudit(ctx, op, entityID, elapsed, err)
	span.End(err)

	for _, v := range res.Violations {
		if v.Severity != SeverityBlock {
			s.logger.Warn("rule violation", "operation", op, "rule", v.Rule, "severity", string(v.Severity), "entity_id", v.EntityID, "message", v.Message)
		}
	}
	switch {
	case err == nil:
		s.logger.Debug("operation completed", "operation", op, "entity_id", entityID, "duration", elapsed)
	case domain.IsBusinessError(err):
		s.logger.Warn("operation rejected", "operation", op, "entity_id", entityID, "error", err)
	default:
		s.logger.Error("operation failed", "operation", op, "entity_id", entityID, "error", err)
	}
	return res, err
}
