// Package dashboard computes the front-desk Command Center and the Owner
// Dashboard from the salon's operational tables. Every collector of one
// aggregation sees the same reference instant.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidScope = errors.New("tenant and branch are required")

const DefaultAttentionCandidateLimit = 50

type Config struct {
	Location                *time.Location
	AttentionCandidateLimit int
	SlowThreshold           time.Duration
}

// Cache returns the stored bytes for key, or runs compute and stores its result.
// Implementations must return compute's error unchanged and treat their own
// failures as a miss.
type Cache interface {
	Load(ctx context.Context, key string, compute func(context.Context) ([]byte, error)) ([]byte, error)
}

type Option func(*Service)

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

type Service struct {
	store  Store
	clock  Clock
	cache  Cache
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer
}

func NewService(store Store, logger *slog.Logger, cfg Config, opts ...Option) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.AttentionCandidateLimit <= 0 {
		cfg.AttentionCandidateLimit = DefaultAttentionCandidateLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:  store,
		clock:  SystemClock{},
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("dashboard"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Location() *time.Location { return s.cfg.Location }

// CommandCenter aggregates one branch for day, or for today when day is zero.
// Time-relative fields are computed against the clock's current instant.
func (s *Service) CommandCenter(ctx context.Context, scope Scope, day time.Time) (*CommandCenter, error) {
	if scope.TenantID == "" || scope.BranchID == "" {
		return nil, ErrInvalidScope
	}
	m := newMoment(s.clock.Now(), day, s.cfg.Location)
	return loadCached(ctx, s.cache, CommandCenterKey(scope, m.Day), func(ctx context.Context) (*CommandCenter, error) {
		return s.commandCenter(ctx, scope, m)
	})
}

// OwnerDashboard aggregates today's business summary. An empty scope.BranchID
// covers the whole tenant.
func (s *Service) OwnerDashboard(ctx context.Context, scope Scope) (*OwnerDashboard, error) {
	if scope.TenantID == "" {
		return nil, ErrInvalidScope
	}
	m := newMoment(s.clock.Now(), time.Time{}, s.cfg.Location)
	return loadCached(ctx, s.cache, OwnerKey(scope, m.Day), func(ctx context.Context) (*OwnerDashboard, error) {
		var out *OwnerDashboard
		err := s.observe(ctx, "owner", scope, m, func(ctx context.Context) error {
			var err error
			out, err = s.ownerSummary(ctx, scope, m)
			return err
		})
		return out, err
	})
}

func (s *Service) commandCenter(ctx context.Context, scope Scope, m Moment) (*CommandCenter, error) {
	out := &CommandCenter{
		BranchID:    scope.BranchID,
		Date:        m.Day.Format(time.DateOnly),
		GeneratedAt: m.Now,
	}
	err := s.observe(ctx, "command_center", scope, m, func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			out.QuickStats, err = collect(gctx, s.tracer, "quick_stats", func(ctx context.Context) (QuickStats, error) {
				return s.quickStats(ctx, scope, m)
			})
			return err
		})
		g.Go(func() (err error) {
			out.Stations, err = collect(gctx, s.tracer, "stations", func(ctx context.Context) ([]Station, error) {
				return s.stations(ctx, scope, m)
			})
			return err
		})
		g.Go(func() (err error) {
			out.NextUp, err = collect(gctx, s.tracer, "next_up", func(ctx context.Context) (NextUp, error) {
				return s.nextUp(ctx, scope, m)
			})
			return err
		})
		g.Go(func() (err error) {
			out.Attention, err = collect(gctx, s.tracer, "attention_items", func(ctx context.Context) ([]AttentionItem, error) {
				return s.attentionItems(ctx, scope, m)
			})
			return err
		})
		g.Go(func() (err error) {
			out.Timeline, err = collect(gctx, s.tracer, "timeline", func(ctx context.Context) (Timeline, error) {
				return s.timeline(ctx, scope, m)
			})
			return err
		})
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// observe runs one aggregation under a span and warns when it is slow.
func (s *Service) observe(ctx context.Context, name string, scope Scope, m Moment, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "dashboard."+name, trace.WithAttributes(
		attribute.String("tenant.id", scope.TenantID),
		attribute.String("branch.id", scope.BranchID),
		attribute.String("dashboard.date", m.Day.Format(time.DateOnly)),
	))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if s.cfg.SlowThreshold > 0 && elapsed > s.cfg.SlowThreshold {
		s.logger.Warn("slow dashboard aggregation",
			"dashboard", name,
			"tenant_id", scope.TenantID,
			"branch_id", scope.BranchID,
			"date", m.Day.Format(time.DateOnly),
			"duration_ms", elapsed.Milliseconds(),
		)
	}
	return nil
}

func collect[T any](ctx context.Context, tracer trace.Tracer, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, "dashboard.collect."+name)
	defer span.End()
	v, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return v, err
}

func loadCached[T any](ctx context.Context, cache Cache, key string, compute func(context.Context) (*T, error)) (*T, error) {
	if cache == nil {
		return compute(ctx)
	}
	var computed *T
	raw, err := cache.Load(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		computed = v
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	if computed != nil {
		return computed, nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		// Stale layout from an older release; recompute.
		return compute(ctx)
	}
	return &out, nil
}

const keyPrefix = "dashboard:"

func CommandCenterKey(scope Scope, day time.Time) string {
	return cacheKey("command-center", scope, day)
}

func OwnerKey(scope Scope, day time.Time) string {
	return cacheKey("owner", scope, day)
}

func cacheKey(kind string, scope Scope, day time.Time) string {
	branch := scope.BranchID
	if branch == "" {
		branch = "all"
	}
	return keyPrefix + kind + ":" + scope.TenantID + ":" + branch + ":" + day.Format(time.DateOnly)
}
