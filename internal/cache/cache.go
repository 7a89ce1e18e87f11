// Package cache provides the process-wide trending repository cache with
// TTL-based expiration and single-flight refresh.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/briangreenhill/trendscope/internal/models"
)

// DefaultTTL is used when no positive TTL is configured
const DefaultTTL = 10 * time.Minute

// the cache holds a single global key
const refreshKey = "trends"

// Entry represents the cached payload with the time it was fetched.
// Payload is always the complete result of one successful fetch.
type Entry struct {
	Payload   []models.RepositorySummary
	FetchedAt time.Time
}

// Fetcher loads a fresh payload from the search provider
type Fetcher interface {
	// Fetch returns the complete trending list as of now, or an error.
	// A partial result must never be returned with a nil error.
	Fetch(ctx context.Context, now time.Time) ([]models.RepositorySummary, error)
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, now time.Time) ([]models.RepositorySummary, error)

func (f FetcherFunc) Fetch(ctx context.Context, now time.Time) ([]models.RepositorySummary, error) {
	return f(ctx, now)
}

// Result is what GetOrRefresh hands back to callers
type Result struct {
	Repos     []models.RepositorySummary
	Cached    bool
	Age       time.Duration // set when Cached
	FetchedAt time.Time
}

// AgeSeconds returns the whole seconds since the payload was fetched
func (r Result) AgeSeconds() int64 {
	return int64(r.Age / time.Second)
}

// Stats is a snapshot of cache activity
type Stats struct {
	Hits          uint64    `json:"hits"`
	Misses        uint64    `json:"misses"`
	Refreshes     uint64    `json:"refreshes"`
	Failures      uint64    `json:"failures"`
	LastRefreshAt time.Time `json:"lastRefreshAt,omitzero"`
	Entries       int       `json:"entries"`
}

// TrendCache keeps the last successful fetch for ttl.
// Concurrent callers that find it expired share one upstream fetch.
type TrendCache struct {
	fetcher Fetcher
	ttl     time.Duration

	mu    sync.RWMutex
	entry *Entry // nil until the first successful fetch

	sf singleflight.Group

	hits, misses, refreshes, failures atomic.Uint64
}

// New creates a cache in front of fetcher
func New(fetcher Fetcher, ttl time.Duration) *TrendCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TrendCache{fetcher: fetcher, ttl: ttl}
}

// TTL returns the validity window
func (c *TrendCache) TTL() time.Duration { return c.ttl }

// GetOrRefresh returns the cached payload when it is younger than the TTL at now,
// and otherwise fetches, stores, and returns a fresh one. On failure the
// previous entry is kept as is.
func (c *TrendCache) GetOrRefresh(ctx context.Context, now time.Time) (Result, error) {
	if e, ok := c.fresh(now); ok {
		c.hits.Add(1)
		res := cachedResult(e, now)
		zerolog.Ctx(ctx).Debug().Dur("age", res.Age).Msg("returning cached trends")
		return res, nil
	}
	c.misses.Add(1)

	// the fetch is shared, so one caller going away must not cancel it for the rest
	fetchCtx := context.WithoutCancel(ctx)
	v, err, shared := c.sf.Do(refreshKey, func() (any, error) {
		// a flight that finished after our first look may already have refreshed
		if e, ok := c.fresh(now); ok {
			return flight{entry: e, hit: true}, nil
		}
		e, err := c.refresh(fetchCtx, now)
		if err != nil {
			return nil, err
		}
		return flight{entry: e}, nil
	})
	if err != nil {
		return Result{}, err
	}
	f := v.(flight)
	if shared {
		zerolog.Ctx(ctx).Debug().Msg("joined in-flight trends refresh")
	}
	if f.hit {
		return cachedResult(f.entry, now), nil
	}
	return Result{Repos: f.entry.Payload, Cached: false, FetchedAt: f.entry.FetchedAt}, nil
}

type flight struct {
	entry *Entry
	hit   bool
}

func cachedResult(e *Entry, now time.Time) Result {
	age := now.Sub(e.FetchedAt)
	if age < 0 {
		age = 0
	}
	return Result{Repos: e.Payload, Cached: true, Age: age, FetchedAt: e.FetchedAt}
}

func (c *TrendCache) fresh(now time.Time) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil || now.Sub(c.entry.FetchedAt) >= c.ttl {
		return nil, false
	}
	return c.entry, true
}

func (c *TrendCache) refresh(ctx context.Context, now time.Time) (*Entry, error) {
	payload, err := c.fetcher.Fetch(ctx, now)
	if err != nil {
		c.failures.Add(1)
		zerolog.Ctx(ctx).Error().Err(err).Msg("trends refresh failed, keeping previous entry")
		return nil, err
	}
	if payload == nil {
		payload = []models.RepositorySummary{}
	}

	e := &Entry{Payload: payload, FetchedAt: now}
	c.mu.Lock()
	c.entry = e
	c.mu.Unlock()

	c.refreshes.Add(1)
	zerolog.Ctx(ctx).Info().Int("count", len(payload)).Msg("fetched trending repositories")
	return e, nil
}

// Peek returns the current entry without refreshing it
func (c *TrendCache) Peek() (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return Entry{}, false
	}
	return *c.entry, true
}

// Invalidate drops the current entry so the next call refetches
func (c *TrendCache) Invalidate() {
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()
}

// Stats returns a snapshot of the counters
func (c *TrendCache) Stats() Stats {
	s := Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Refreshes: c.refreshes.Load(),
		Failures:  c.failures.Load(),
	}
	if e, ok := c.Peek(); ok {
		s.LastRefreshAt = e.FetchedAt
		s.Entries = len(e.Payload)
	}
	return s
}
