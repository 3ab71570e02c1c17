package bruteforce

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sl "socialnet/internal/lib/logger"
)

const keyPrefix = "brute_force:"

// LockedError reports an identifier under lockout and how long the caller
// should wait before retrying.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry after %s", e.RetryAfter)
}

// CounterStore is the expiring counter surface the guard needs. Every method
// may report the store as unavailable; the guard then skips protection
// rather than failing the login path.
type CounterStore interface {
	Count(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	SetWithTTL(ctx context.Context, key string, value int64, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Guard counts failed login attempts per "{ip}:{email}" identifier and locks
// the identifier out once the threshold is reached.
type Guard struct {
	log             *slog.Logger
	store           CounterStore
	maxAttempts     int64
	attemptWindow   time.Duration
	lockoutDuration time.Duration
}

func New(log *slog.Logger, store CounterStore, maxAttempts int, attemptWindow, lockoutDuration time.Duration) *Guard {
	return &Guard{
		log:             log,
		store:           store,
		maxAttempts:     int64(maxAttempts),
		attemptWindow:   attemptWindow,
		lockoutDuration: lockoutDuration,
	}
}

// CheckAllowed returns a *LockedError when the identifier has exhausted its
// attempts and the lockout has not yet expired. Store failures allow the
// attempt (fail-open): availability wins over strict protection here.
func (g *Guard) CheckAllowed(ctx context.Context, identifier string) error {
	const op = "bruteforce.CheckAllowed"

	key := keyPrefix + identifier

	count, err := g.store.Count(ctx, key)
	if err != nil {
		g.log.Warn("counter store unavailable, skipping brute-force check", slog.String("op", op), sl.Err(err))
		return nil
	}

	if count < g.maxAttempts {
		return nil
	}

	ttl, err := g.store.TTL(ctx, key)
	if err != nil {
		g.log.Warn("counter store unavailable, skipping brute-force check", slog.String("op", op), sl.Err(err))
		return nil
	}

	if ttl > 0 {
		return &LockedError{RetryAfter: ttl}
	}

	return nil
}

// RecordFailure counts a failed attempt and reports whether the identifier
// is now locked out. The increment and the lockout escalation happen in one
// call so there is no window for a concurrent attempt to slip between a
// threshold check and the lock.
func (g *Guard) RecordFailure(ctx context.Context, identifier string) bool {
	const op = "bruteforce.RecordFailure"

	key := keyPrefix + identifier

	count, err := g.store.Incr(ctx, key, g.attemptWindow)
	if err != nil {
		g.log.Warn("counter store unavailable, failure not recorded", slog.String("op", op), sl.Err(err))
		return false
	}

	if count < g.maxAttempts {
		return false
	}

	if err := g.store.SetWithTTL(ctx, key, g.maxAttempts, g.lockoutDuration); err != nil {
		g.log.Warn("counter store unavailable, lockout not extended", slog.String("op", op), sl.Err(err))
	}

	return true
}

// RecordSuccess clears the failure history for the identifier.
func (g *Guard) RecordSuccess(ctx context.Context, identifier string) {
	const op = "bruteforce.RecordSuccess"

	if err := g.store.Delete(ctx, keyPrefix+identifier); err != nil {
		g.log.Warn("counter store unavailable, failure history not cleared", slog.String("op", op), sl.Err(err))
	}
}
