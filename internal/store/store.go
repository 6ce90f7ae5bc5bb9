// Package store defines the polymorphic persistence contract ([Backend])
// shared by every storage implementation, and [Current], the atomically
// swappable handle to whichever backend is live.
package store

import (
	"context"

	"github.com/janm-dev/links-go/internal/linkid"
	"github.com/janm-dev/links-go/internal/normalized"
	"github.com/janm-dev/links-go/internal/statistic"
)

// StatEntry pairs a statistic key with its current counter value, as
// returned by GetStatistics and RemStatistics.
type StatEntry struct {
	Statistic statistic.Statistic
	Value     statistic.Value
}

// Backend is the polymorphic persistence contract over redirects, vanity
// paths, and statistics. Implementations must be safe for concurrent use.
//
// Storage guarantee: if an operation returns a nil error, the observable
// state reflects it for all subsequent reads. If it returns an error, the
// state is unchanged to the extent the backend can determine. No
// cross-key atomicity is required or provided.
type Backend interface {
	// Name returns the driver name this backend was constructed from.
	Name() string

	// Init prepares the backend for use (connecting, creating tables,
	// warming caches, etc).
	Init(ctx context.Context) error

	// Close releases any resources held by the backend.
	Close() error

	// GetRedirect looks up the destination for id.
	GetRedirect(ctx context.Context, id linkid.Id) (normalized.Link, bool, error)

	// SetRedirect sets the destination for id, returning the previous
	// value if one existed.
	SetRedirect(ctx context.Context, id linkid.Id, link normalized.Link) (normalized.Link, bool, error)

	// RemRedirect removes the destination for id, returning the removed
	// value if one existed.
	RemRedirect(ctx context.Context, id linkid.Id) (normalized.Link, bool, error)

	// GetVanity looks up the Id a vanity path resolves to.
	GetVanity(ctx context.Context, vanity normalized.Normalized) (linkid.Id, bool, error)

	// SetVanity sets the Id a vanity path resolves to, returning the
	// previous value if one existed.
	SetVanity(ctx context.Context, vanity normalized.Normalized, id linkid.Id) (linkid.Id, bool, error)

	// RemVanity removes a vanity path, returning the removed value if one
	// existed.
	RemVanity(ctx context.Context, vanity normalized.Normalized) (linkid.Id, bool, error)

	// GetStatistics returns every statistic matching desc.
	GetStatistics(ctx context.Context, desc statistic.Description) ([]StatEntry, error)

	// IncrStatistic increments stat's counter by one (inserting it at 1 if
	// absent), returning the post-increment value if the backend can
	// report it cheaply.
	IncrStatistic(ctx context.Context, stat statistic.Statistic) (statistic.Value, error)

	// RemStatistics removes every statistic matching desc, returning the
	// entries that were removed.
	RemStatistics(ctx context.Context, desc statistic.Description) ([]StatEntry, error)
}
