// Package memstore implements an in-process [store.Backend] backed by
// plain Go maps under a single RWMutex. Nothing is persisted; restarting
// the process empties it. It's grounded on the map-plus-mutex driver
// shape, not the on-disk half, of the JSON file store it replaces.
package memstore

import (
	"context"
	"sync"

	"github.com/janm-dev/links-go/internal/linkid"
	"github.com/janm-dev/links-go/internal/normalized"
	"github.com/janm-dev/links-go/internal/statistic"
	"github.com/janm-dev/links-go/internal/store"
)

func init() {
	store.RegisterDriver("memory", NewBackend)
}

// Backend is the in-memory store.Backend.
type Backend struct {
	mu     sync.RWMutex
	closed bool

	redirects  map[linkid.Id]normalized.Link
	vanities   map[normalized.Normalized]linkid.Id
	statistics map[statistic.Statistic]statistic.Value
}

// NewBackend constructs an in-memory backend. Config is accepted for
// symmetry with other drivers but ignored.
func NewBackend(config map[string]any) (store.Backend, error) {
	return &Backend{
		redirects:  make(map[linkid.Id]normalized.Link),
		vanities:   make(map[normalized.Normalized]linkid.Id),
		statistics: make(map[statistic.Statistic]statistic.Value),
	}, nil
}

// Name returns "memory".
func (b *Backend) Name() string { return "memory" }

// Init is a no-op; the backend is ready on construction.
func (b *Backend) Init(ctx context.Context) error { return nil }

// Close marks the backend closed. Subsequent operations return
// [store.ErrClosed].
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *Backend) GetRedirect(ctx context.Context, id linkid.Id) (normalized.Link, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return normalized.Link{}, false, store.ErrClosed
	}
	link, ok := b.redirects[id]
	return link, ok, nil
}

func (b *Backend) SetRedirect(ctx context.Context, id linkid.Id, link normalized.Link) (normalized.Link, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return normalized.Link{}, false, store.ErrClosed
	}
	old, had := b.redirects[id]
	b.redirects[id] = link
	return old, had, nil
}

func (b *Backend) RemRedirect(ctx context.Context, id linkid.Id) (normalized.Link, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return normalized.Link{}, false, store.ErrClosed
	}
	old, had := b.redirects[id]
	delete(b.redirects, id)
	return old, had, nil
}

func (b *Backend) GetVanity(ctx context.Context, vanity normalized.Normalized) (linkid.Id, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return linkid.Id{}, false, store.ErrClosed
	}
	id, ok := b.vanities[vanity]
	return id, ok, nil
}

func (b *Backend) SetVanity(ctx context.Context, vanity normalized.Normalized, id linkid.Id) (linkid.Id, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return linkid.Id{}, false, store.ErrClosed
	}
	old, had := b.vanities[vanity]
	b.vanities[vanity] = id
	return old, had, nil
}

func (b *Backend) RemVanity(ctx context.Context, vanity normalized.Normalized) (linkid.Id, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return linkid.Id{}, false, store.ErrClosed
	}
	old, had := b.vanities[vanity]
	delete(b.vanities, vanity)
	return old, had, nil
}

func (b *Backend) GetStatistics(ctx context.Context, desc statistic.Description) ([]store.StatEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, store.ErrClosed
	}
	var out []store.StatEntry
	for s, v := range b.statistics {
		if desc.Matches(s) {
			out = append(out, store.StatEntry{Statistic: s, Value: v})
		}
	}
	return out, nil
}

func (b *Backend) IncrStatistic(ctx context.Context, stat statistic.Statistic) (statistic.Value, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, store.ErrClosed
	}
	next := b.statistics[stat].Increment()
	b.statistics[stat] = next
	return next, nil
}

func (b *Backend) RemStatistics(ctx context.Context, desc statistic.Description) ([]store.StatEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, store.ErrClosed
	}
	var out []store.StatEntry
	for s, v := range b.statistics {
		if desc.Matches(s) {
			out = append(out, store.StatEntry{Statistic: s, Value: v})
			delete(b.statistics, s)
		}
	}
	return out, nil
}

var _ store.Backend = (*Backend)(nil)
