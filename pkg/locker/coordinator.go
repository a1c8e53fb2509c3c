package locker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
)

// CoordinatorConfig holds the timing of multi-name critical sections.
type CoordinatorConfig struct {
	// KeyPrefix namespaces every lock name, e.g. "reservation:lock".
	KeyPrefix string
	// WaitTimeout bounds how long each name is waited for.
	WaitTimeout time.Duration
	// LeaseDuration must exceed the longest expected critical section.
	LeaseDuration time.Duration
	// RetryDelay spaces acquisition retries.
	RetryDelay time.Duration
	// ReleaseTimeout bounds release calls, which run even after cancellation.
	ReleaseTimeout time.Duration
}

// Coordinator runs a function while holding every lock of a name set.
type Coordinator struct {
	store  LeaseStore
	cfg    CoordinatorConfig
	logger *zap.Logger
}

// NewCoordinator creates a Coordinator on top of a lease store.
func NewCoordinator(store LeaseStore, cfg CoordinatorConfig, logger *zap.Logger) *Coordinator {
	if cfg.ReleaseTimeout <= 0 {
		cfg.ReleaseTimeout = 5 * time.Second
	}

	return &Coordinator{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// WithLocks acquires all names in ascending order, runs fn, and releases
// everything it acquired on every exit path, panics included.
//
// Acquisition is all-or-nothing: if any name is not obtained within the
// wait, the leases taken so far are released and an error wrapping
// ErrLockAcquire and ErrLockBusy is returned without calling fn. An empty
// name set runs fn without locking. Release failures are logged only and
// never replace fn's result.
func (c *Coordinator) WithLocks(ctx context.Context, names []string, fn func(ctx context.Context) error) error {
	if len(names) == 0 {
		return fn(ctx)
	}

	keys, err := c.orderedKeys(names)
	if err != nil {
		return err
	}

	held := make([]*Lease, 0, len(keys))
	defer func() {
		c.releaseAll(ctx, held)
	}()

	opts := LeaseOptions{
		Wait:       c.cfg.WaitTimeout,
		Lease:      c.cfg.LeaseDuration,
		RetryDelay: c.cfg.RetryDelay,
	}

	for _, key := range keys {
		lease, err := c.store.AcquireLease(ctx, key, opts)
		if err != nil {
			if errors.Is(err, ErrLockBusy) {
				c.logger.Debug("lock set not acquired",
					zap.String("busy", key),
					zap.Int("held", len(held)),
					zap.Int("requested", len(keys)),
				)
				return fmt.Errorf("%w: %w", ErrLockAcquire, err)
			}

			return fmt.Errorf("acquiring %s: %w", key, err)
		}
		held = append(held, lease)
	}

	return fn(ctx)
}

// orderedKeys prefixes and sorts names, rejecting duplicates.
func (c *Coordinator) orderedKeys(names []string) ([]string, error) {
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = c.key(n)
	}
	slices.Sort(keys)

	for i := 1; i < len(keys); i++ {
		if keys[i] == keys[i-1] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, keys[i])
		}
	}

	return keys, nil
}

func (c *Coordinator) key(name string) string {
	if c.cfg.KeyPrefix == "" {
		return name
	}

	return c.cfg.KeyPrefix + ":" + name
}

// releaseAll releases leases in reverse order on a context detached from the
// caller's cancellation.
func (c *Coordinator) releaseAll(ctx context.Context, held []*Lease) {
	if len(held) == 0 {
		return
	}

	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.ReleaseTimeout)
	defer cancel()

	for i := len(held) - 1; i >= 0; i-- {
		if err := c.store.ReleaseLease(relCtx, held[i]); err != nil {
			c.logger.Warn("lease release failed, relying on expiry",
				zap.String("name", held[i].Name),
				zap.Duration("lease", c.cfg.LeaseDuration),
				zap.Error(err),
			)
		}
	}
}
