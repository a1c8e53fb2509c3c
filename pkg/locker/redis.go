package locker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultRetryDelay = 100 * time.Millisecond

// RedisLocker implements DistributedLocker and LeaseStore using the Redsync library.
// Redsync implements the Redlock algorithm for distributed mutual exclusion:
// https://redis.io/docs/latest/develop/use/patterns/distributed-locks/
type RedisLocker struct {
	rs      *redsync.Redsync
	logger  *zap.Logger
	mutexes map[string]*redsync.Mutex
	mu      sync.Mutex
}

// NewRedisLocker creates a new Redis-based distributed locker using Redsync.
// The client is owned by the caller and is not closed by the locker.
func NewRedisLocker(client *redis.Client, logger *zap.Logger) *RedisLocker {
	pool := goredis.NewPool(client)
	rs := redsync.New(pool)

	return &RedisLocker{
		rs:      rs,
		logger:  logger,
		mutexes: make(map[string]*redsync.Mutex),
	}
}

// Acquire attempts to acquire a distributed lock without waiting.
// Returns false (not an error) when the lock is already held.
func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	mutex := r.rs.NewMutex(
		key,
		redsync.WithExpiry(ttl),
		redsync.WithTries(1),
	)

	err := mutex.LockContext(ctx)
	if err != nil {
		if isTaken(err) {
			r.logger.Debug("lock already held by another instance",
				zap.String("key", key),
			)
			return false, nil
		}
		// Real errors (Redis connection issues, context cancellation, etc.)
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}

	r.mu.Lock()
	r.mutexes[key] = mutex
	r.mu.Unlock()

	r.logger.Debug("lock acquired",
		zap.String("key", key),
		zap.Duration("ttl", ttl),
	)

	return true, nil
}

// Release releases the lock if and only if this instance owns it.
func (r *RedisLocker) Release(ctx context.Context, key string) error {
	r.mu.Lock()
	mutex, exists := r.mutexes[key]
	if exists {
		delete(r.mutexes, key)
	}
	r.mu.Unlock()

	if !exists {
		r.logger.Debug("no mutex found for key, lock not owned by this instance",
			zap.String("key", key),
		)
		return nil
	}

	ok, err := mutex.UnlockContext(ctx)
	if err != nil && !isExpired(err) && !isTaken(err) {
		return fmt.Errorf("release lock %s: %w", key, err)
	}

	if ok {
		r.logger.Debug("lock released", zap.String("key", key))
	} else {
		r.logger.Debug("lock not owned by this instance or already expired",
			zap.String("key", key),
		)
	}

	return nil
}

// AcquireLease takes the named lock, retrying every opts.RetryDelay for at
// most opts.Wait. The returned lease carries the Redsync token.
func (r *RedisLocker) AcquireLease(ctx context.Context, name string, opts LeaseOptions) (*Lease, error) {
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	tries := 1
	if opts.Wait > 0 {
		tries = int(opts.Wait/delay) + 1
	}

	mutex := r.rs.NewMutex(
		name,
		redsync.WithExpiry(opts.Lease),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(delay),
	)

	waitCtx := ctx
	if opts.Wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, opts.Wait)
		defer cancel()
	}

	err := mutex.LockContext(waitCtx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("acquire lease %s: %w", name, ctxErr)
		}
		if isTaken(err) || waitCtx.Err() != nil {
			r.logger.Debug("lease busy",
				zap.String("name", name),
				zap.Duration("wait", opts.Wait),
			)
			return nil, fmt.Errorf("acquire lease %s: %w", name, ErrLockBusy)
		}
		return nil, fmt.Errorf("acquire lease %s: %w", name, err)
	}

	r.logger.Debug("lease acquired",
		zap.String("name", name),
		zap.Duration("lease", opts.Lease),
	)

	return &Lease{
		Name:    name,
		Token:   mutex.Value(),
		Until:   mutex.Until(),
		release: mutex.UnlockContext,
	}, nil
}

// ReleaseLease unlocks the lease's name if its token still owns it.
func (r *RedisLocker) ReleaseLease(ctx context.Context, lease *Lease) error {
	if lease == nil || lease.release == nil {
		return nil
	}

	ok, err := lease.release(ctx)
	if err != nil && !isExpired(err) && !isTaken(err) {
		return fmt.Errorf("release lease %s: %w", lease.Name, err)
	}

	if ok {
		r.logger.Debug("lease released", zap.String("name", lease.Name))
	} else {
		r.logger.Debug("lease already expired or taken over", zap.String("name", lease.Name))
	}

	return nil
}

// isTaken matches the ways Redsync reports contention:
// redsync.ErrFailed, *redsync.ErrTaken, or wrapped "lock already taken" errors.
func isTaken(err error) bool {
	var taken *redsync.ErrTaken
	if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
		return true
	}

	return strings.Contains(err.Error(), "lock already taken")
}

func isExpired(err error) bool {
	return errors.Is(err, redsync.ErrLockAlreadyExpired) || strings.Contains(err.Error(), "already expired")
}
