// Package cache implements the caching decorator described in the
// cache+refresher design: an in-process, size- and TTL-bounded LRU in
// front of the backing source, an optional Redis L2 tier behind it, and
// singleflight collapsing of concurrent builds for the same coordinates
// so a cache stampede never reaches the source more than once.
package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/cburgosro9303/vortex-config/internal/log"
	"github.com/cburgosro9303/vortex-config/internal/source"
)

// Options configures a CachedSource.
type Options struct {
	// Size bounds the in-process LRU; 0 or a negative value means the
	// default of 4096 entries.
	Size int

	// TTL bounds how long an entry survives in the in-process LRU
	// regardless of eviction pressure. 0 disables expiry.
	TTL time.Duration

	// L2, if set, is consulted on an in-process miss and populated after
	// every successful upstream build, giving cached results a second,
	// shared tier.
	L2 *Redis

	Metrics *Metrics
	Logger  log.Logger
}

// CachedSource decorates a source.Source with the caching behavior. It
// implements source.Source itself, so it composes transparently with
// anything else built against that interface (the refresher, in
// particular, invalidates through this layer).
type CachedSource struct {
	upstream source.Source
	lru      *lru.LRU[Key, source.ConfigResult]
	sf       singleflight.Group
	l2       *Redis
	metrics  *Metrics
	logger   log.Logger
}

// New wraps upstream with the caching behavior described by opts.
func New(upstream source.Source, opts Options) *CachedSource {
	size := opts.Size
	if size <= 0 {
		size = 4096
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Nop{}
	}

	return &CachedSource{
		upstream: upstream,
		lru:      lru.NewLRU[Key, source.ConfigResult](size, nil, opts.TTL),
		l2:       opts.L2,
		metrics:  metrics,
		logger:   logger,
	}
}

func (c *CachedSource) DefaultLabel() string { return c.upstream.DefaultLabel() }

// Fetch serves from the in-process LRU, then the L2 tier, then the
// upstream source, in that order. Exactly one goroutine per distinct Key
// ever reaches the upstream at a time; errors are never cached, so a
// failing build is retried on the very next request.
func (c *CachedSource) Fetch(ctx context.Context, query source.ConfigQuery) (source.ConfigResult, error) {
	label := query.Label
	if label == "" {
		label = c.upstream.DefaultLabel()
	}

	key := NewKey(query.Application, query.Profiles, label)

	if result, ok := c.lru.Get(key); ok {
		c.metrics.Hits.Inc()
		return result, nil
	}

	if c.l2 != nil {
		if result, ok := c.l2.Get(ctx, key); ok {
			c.metrics.Hits.Inc()
			c.lru.Add(key, result)

			return result, nil
		}
	}

	c.metrics.Misses.Inc()

	v, err, _ := c.sf.Do(key.String(), func() (any, error) {
		return c.upstream.Fetch(ctx, query)
	})
	if err != nil {
		return source.ConfigResult{}, err
	}

	result := v.(source.ConfigResult)

	c.lru.Add(key, result)

	if c.l2 != nil {
		c.l2.Set(ctx, key, result)
	}

	return result, nil
}

// Invalidate drops every in-process and L2 entry matching sel, then
// forwards to the upstream source so any state it holds (none, for the
// Git source) is invalidated too.
func (c *CachedSource) Invalidate(sel source.InvalidateSelector) {
	for _, k := range c.lru.Keys() {
		if sel.Matches(k.Application, k.ProfileList(), k.Label) {
			c.lru.Remove(k)
			c.metrics.Evictions.Inc()
		}
	}

	if c.l2 != nil {
		c.l2.Invalidate(context.Background(), sel)
	}

	c.upstream.Invalidate(sel)
}

// Labels returns the distinct labels currently present among the
// in-process LRU's entries — the set of labels "appearing in cache
// fingerprints" the refresher design calls for watching, discovered from
// actual traffic rather than an operator-maintained list. The L2 tier is
// not consulted: it is always a superset of, or mirrors, what passed
// through this process's LRU, so the in-process view is representative.
func (c *CachedSource) Labels() []string {
	seen := make(map[string]bool)

	var labels []string

	for _, k := range c.lru.Keys() {
		if !seen[k.Label] {
			seen[k.Label] = true

			labels = append(labels, k.Label)
		}
	}

	return labels
}

// InvalidateLabel drops every entry cached under label, regardless of
// application or profile. InvalidateSelector cannot express this directly
// — its triple is hierarchical, app before profile before label — so the
// Refresher, which only ever learns that one label's commit changed,
// goes through this narrower sweep instead.
func (c *CachedSource) InvalidateLabel(label string) {
	for _, k := range c.lru.Keys() {
		if k.Label == label {
			c.lru.Remove(k)
			c.metrics.Evictions.Inc()
		}
	}

	if c.l2 != nil {
		c.l2.InvalidateLabel(context.Background(), label)
	}
}

var _ source.Source = (*CachedSource)(nil)
