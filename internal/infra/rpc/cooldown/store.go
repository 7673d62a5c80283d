// Package cooldown records when an endpoint last failed so the resilient
// client can skip it for a while.
//
// Entries are never expired eagerly. Whether an endpoint is cooling down is
// decided at read time against the caller's window, so a store shared by
// several clients with different windows stays consistent.
package cooldown

import (
	"context"
	"time"
)

// Store keeps the last failure time per endpoint URL.
type Store interface {
	// MarkFailed records a failure of endpoint at the given time.
	MarkFailed(ctx context.Context, endpoint string, at time.Time) error

	// LastFailure returns the last recorded failure time, if any.
	LastFailure(ctx context.Context, endpoint string) (time.Time, bool, error)
}

// Active reports whether a failure at failedAt still blocks the endpoint at now.
func Active(failedAt, now time.Time, window time.Duration) bool {
	if failedAt.IsZero() || window <= 0 {
		return false
	}
	return now.Sub(failedAt) < window
}

// InCooldown looks endpoint up in store. Store errors count as "not cooling"
// so a broken shared store never takes every endpoint out of rotation.
func InCooldown(ctx context.Context, store Store, endpoint string, now time.Time, window time.Duration) bool {
	if store == nil {
		return false
	}
	at, ok, err := store.LastFailure(ctx, endpoint)
	if err != nil || !ok {
		return false
	}
	return Active(at, now, window)
}
