// Package cache is the optional Redis read-through cache for dashboard
// responses.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	lockPrefix         = "lock:"
	defaultLockTTL     = 5 * time.Second
	defaultLockWait    = 2 * time.Second
	defaultFillTimeout = 30 * time.Second
)

// Loader fills missing keys at most once per process (singleflight) and, with a
// Redis lock, at most once across instances while the lock is held.
type Loader struct {
	rdb      redis.UniversalClient
	locker   *redislock.Client
	flight   singleflight.Group
	ttl      time.Duration
	lockTTL  time.Duration
	lockWait time.Duration
	// fillTimeout bounds one shared computation.
	fillTimeout time.Duration
	logger      *slog.Logger
}

func New(rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		rdb:         rdb,
		locker:      redislock.New(rdb),
		ttl:         ttl,
		lockTTL:     defaultLockTTL,
		lockWait:    defaultLockWait,
		fillTimeout: defaultFillTimeout,
		logger:      logger,
	}
}

// Load returns the cached value for key or computes, stores and returns it.
// Concurrent callers for one key share a single computation, which runs on a
// context detached from any one caller's cancellation.
// Redis failures are logged and treated as a miss; compute errors are returned
// unchanged and never cached.
func (l *Loader) Load(ctx context.Context, key string, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	if raw, ok := l.get(ctx, key); ok {
		return raw, nil
	}
	// The shared fill outlives any single caller; each caller stops waiting
	// when its own context ends.
	ch := l.flight.DoChan(key, func() (any, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.fillTimeout)
		defer cancel()
		return l.fill(fillCtx, key, compute)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader) fill(ctx context.Context, key string, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	lockCtx, cancel := context.WithTimeout(ctx, l.lockWait)
	lock, err := l.locker.Obtain(lockCtx, lockPrefix+key, l.lockTTL, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(50 * time.Millisecond),
	})
	cancel()
	switch {
	case err == nil:
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				l.logger.Warn("cache lock release failed", "key", key, "err", err)
			}
		}()
		if raw, ok := l.get(ctx, key); ok {
			return raw, nil
		}
	case errors.Is(err, redislock.ErrNotObtained):
		l.logger.Debug("cache lock busy; computing anyway", "key", key)
	default:
		l.logger.Warn("cache lock failed; computing anyway", "key", key, "err", err)
	}

	raw, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := l.rdb.Set(ctx, key, raw, l.ttl).Err(); err != nil {
		l.logger.Warn("cache write failed", "key", key, "err", err)
	}
	return raw, nil
}

func (l *Loader) get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := l.rdb.Get(ctx, key).Bytes()
	if err == nil {
		return raw, true
	}
	if !errors.Is(err, redis.Nil) {
		l.logger.Warn("cache read failed", "key", key, "err", err)
	}
	return nil, false
}

// Invalidate deletes keys. Missing keys are not an error.
func (l *Loader) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return l.rdb.Del(ctx, keys...).Err()
}
