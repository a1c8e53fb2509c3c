// Package locker provides distributed locking capabilities for coordinating
// operations across multiple service instances.
package locker

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrLockBusy is returned when a lease could not be obtained within the
	// bounded wait because another holder owns it.
	ErrLockBusy = errors.New("lock busy")

	// ErrLockAcquire is returned by Coordinator.WithLocks when any name of
	// the set could not be acquired. It wraps ErrLockBusy.
	ErrLockAcquire = errors.New("could not acquire all locks")

	// ErrDuplicateName is returned when one call names the same lock twice.
	ErrDuplicateName = errors.New("duplicate lock name")
)

// DistributedLocker provides distributed lock capabilities across multiple instances.
// Implementations must be safe for concurrent use.
//
// Typical usage:
//
//	acquired, err := locker.Acquire(ctx, "my-lock", 5*time.Minute)
//	if err != nil {
//	    return err
//	}
//	if !acquired {
//	    // Another instance holds the lock
//	    return nil
//	}
//	defer locker.Release(ctx, "my-lock")
type DistributedLocker interface {
	// Acquire attempts to acquire a distributed lock with the given key without waiting.
	// Returns true if the lock was acquired, false if another instance holds it.
	// The lock will automatically expire after ttl if not released.
	//
	// The ttl should be set based on the operation's purpose:
	// - For mutual exclusion: use operation timeout
	// - For cooldown/rate limiting: use the desired cooldown period
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release releases the lock identified by key.
	// Safe to call even if this instance doesn't own the lock (no-op).
	Release(ctx context.Context, key string) error
}

// LeaseOptions bound a single lease acquisition.
type LeaseOptions struct {
	// Wait is the longest time to keep retrying while the name is held elsewhere.
	Wait time.Duration
	// Lease is how long the lock lives if never released.
	Lease time.Duration
	// RetryDelay spaces retries inside Wait.
	RetryDelay time.Duration
}

// Lease is proof of holding one named lock. It is valid for a single
// critical section and must be released exactly once.
type Lease struct {
	Name  string
	Token string
	Until time.Time

	release func(ctx context.Context) (bool, error)
}

// LeaseStore hands out expiring, token-guarded leases on named locks.
// Implementations must be safe for concurrent use.
type LeaseStore interface {
	// AcquireLease blocks up to opts.Wait for the name. It returns ErrLockBusy
	// when the wait elapses and a wrapped error on store failures.
	AcquireLease(ctx context.Context, name string, opts LeaseOptions) (*Lease, error)

	// ReleaseLease gives the lease back. Releasing a lease that already
	// expired or was taken over is not an error.
	ReleaseLease(ctx context.Context, lease *Lease) error
}
