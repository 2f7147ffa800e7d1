package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/dockerdns/pkg/docker"
	"github.com/cuemby/dockerdns/pkg/log"
	"github.com/cuemby/dockerdns/pkg/metrics"
	"github.com/cuemby/dockerdns/pkg/types"
)

// Resolver answers name lookups against the container inventory.
type Resolver interface {
	// Resolve returns the response for a name, or false when the name is not
	// in the inventory. The name is normalized before lookup. Resolve may
	// block while an inventory refresh runs.
	Resolve(ctx context.Context, name string) (*types.Response, bool)
}

// Config holds the cache staleness policy.
type Config struct {
	// HitTimeout is the maximum cache age before any query forces a refresh.
	HitTimeout time.Duration
	// MissTimeout is the maximum cache age before a query for a missing name
	// forces a refresh. Must not exceed HitTimeout.
	MissTimeout time.Duration
	// RefreshTimeout bounds a single inventory fetch.
	RefreshTimeout time.Duration
}

// Normalize lower-cases a name and strips one trailing dot. Idempotent.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, "."))
}

// Cache is a process-wide caching Resolver over a docker.Provider. The name
// mapping is rebuilt wholesale on refresh and swapped in under the write
// lock; entries are never mutated in place, so readers observe either the
// pre- or post-refresh generation, never a mix.
type Cache struct {
	provider docker.Provider
	cfg      Config
	logger   zerolog.Logger

	// refreshMu serializes refreshes so at most one inventory fetch is in
	// flight; mu only guards the snapshot and is held for the swap, keeping
	// reader paths cheap while a refresh runs.
	refreshMu sync.Mutex

	mu          sync.RWMutex
	entries     map[string]*types.Response
	lastRefresh time.Time // zero until the first successful refresh
}

// NewCache creates an empty cache. The first query populates it.
func NewCache(provider docker.Provider, cfg Config) *Cache {
	return &Cache{
		provider: provider,
		cfg:      cfg,
		logger:   log.WithComponent("resolver"),
		entries:  make(map[string]*types.Response),
	}
}

// Resolve implements Resolver.
//
// The cache is classified along two axes against its last refresh time: a
// present entry may be at most HitTimeout old, an absent one at most
// MissTimeout old. Anything staler triggers a refresh before the (possibly
// unchanged) mapping is consulted again. Refresh failures are swallowed
// here: the caller gets whatever the surviving generation contains.
func (c *Cache) Resolve(ctx context.Context, name string) (*types.Response, bool) {
	name = Normalize(name)

	c.mu.RLock()
	resp, found := c.entries[name]
	last := c.lastRefresh
	c.mu.RUnlock()

	now := time.Now()
	hitStale := last.IsZero() || now.Sub(last) > c.cfg.HitTimeout
	missStale := last.IsZero() || now.Sub(last) > c.cfg.MissTimeout

	if found && !hitStale {
		return resp, true
	}
	if !found && !missStale {
		return nil, false
	}

	c.refresh(ctx)

	c.mu.RLock()
	resp, found = c.entries[name]
	c.mu.RUnlock()
	return resp, found
}

// refresh replaces the cache's mapping with a fresh inventory snapshot.
// Callers serialize on the refresh lock, so at most one fetch is in flight;
// whoever queued behind it re-checks the timestamp and skips. The new
// mapping is built outside the snapshot lock and swapped in under it.
func (c *Cache) refresh(ctx context.Context) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.mu.RLock()
	last := c.lastRefresh
	c.mu.RUnlock()

	if !last.IsZero() && time.Since(last) < c.cfg.MissTimeout {
		return
	}

	refreshID := uuid.NewString()[:8]
	timer := metrics.NewTimer()

	records, err := c.fetch(ctx)
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("error").Inc()
		metrics.UpdateComponent("docker", false, err.Error())
		c.logger.Warn().
			Err(err).
			Str("refresh_id", refreshID).
			Msg("inventory refresh failed, keeping previous cache")
		return
	}

	entries, containers := buildIndex(records)

	c.mu.Lock()
	c.entries = entries
	c.lastRefresh = time.Now()
	c.mu.Unlock()

	timer.ObserveDuration(metrics.RefreshDuration)
	metrics.RefreshesTotal.WithLabelValues("success").Inc()
	metrics.CachedNames.Set(float64(len(entries)))
	metrics.CachedContainers.Set(float64(containers))
	metrics.UpdateComponent("docker", true, "")

	c.logger.Debug().
		Str("refresh_id", refreshID).
		Int("containers", containers).
		Int("names", len(entries)).
		Dur("took", timer.Duration()).
		Msg("inventory refreshed")
}

// fetch invokes the provider under the RefreshTimeout wall-clock bound. The
// fetch runs in its own goroutine so a provider that ignores its context
// cannot hold the cache past the bound.
func (c *Cache) fetch(ctx context.Context) ([]types.ContainerNetwork, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RefreshTimeout)
	defer cancel()

	type fetchResult struct {
		records []types.ContainerNetwork
		err     error
	}

	ch := make(chan fetchResult, 1)
	go func() {
		records, err := c.provider.ListInventory(ctx)
		ch <- fetchResult{records: records, err: err}
	}()

	select {
	case res := <-ch:
		return res.records, res.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("inventory refresh timed out after %s", c.cfg.RefreshTimeout)
		}
		return nil, ctx.Err()
	}
}

// buildIndex turns an inventory into the name mapping. All names of one
// container share a single Response. Later names win on key collision, so
// two containers whose names differ only in case shadow each other; the one
// listed last by the runtime is the survivor.
func buildIndex(records []types.ContainerNetwork) (map[string]*types.Response, int) {
	entries := make(map[string]*types.Response, len(records))
	containers := 0

	for _, record := range records {
		if !record.HasAddresses() || len(record.Names) == 0 {
			continue
		}

		resp := &types.Response{IPv4: record.IPv4, IPv6: record.IPv6}
		containers++

		for _, name := range record.Names {
			key := Normalize(name)
			if key == "" {
				continue
			}
			entries[key] = resp
		}
	}

	return entries, containers
}
