// Package refresher runs the background polling loop that keeps the
// cache honest: on a fixed interval it re-resolves each watched label
// against the backing source and, when the resolved commit changes,
// selectively invalidates the cache entries for that label so the next
// request rebuilds from the new commit instead of serving stale data
// until TTL expiry.
package refresher

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/cburgosro9303/vortex-config/internal/cache"
	"github.com/cburgosro9303/vortex-config/internal/log"
	"github.com/cburgosro9303/vortex-config/internal/source"
)

// Invalidator is the narrow slice of *cache.CachedSource the refresher
// depends on, so tests can swap in a fake without a real LRU/Redis stack.
type Invalidator interface {
	InvalidateLabel(label string)

	// Labels reports the distinct labels currently present in the cache,
	// so the refresher watches "each label that has any cached result"
	// per the design, rather than a static operator-maintained list.
	Labels() []string
}

// Bus broadcasts a refresh event once a label's commit has changed. It
// is optional; a nil Bus means the enrichment is disabled.
type Bus interface {
	PublishRefresh(ctx context.Context, label, commit string) error
}

// Config configures a Refresher.
type Config struct {
	// SeedLabels are always watched from the first tick on, regardless of
	// whether anything has been cached for them yet — typically just the
	// default label, so the refresher also doubles as a liveness probe
	// against the upstream source. Every other label discovered via
	// Invalidator.Labels() each tick is watched in addition to these.
	SeedLabels []string

	// Interval is how often every watched label is re-resolved, and the
	// starting value of a label's exponential backoff once it starts
	// failing (spec: "current_backoff, which starts at interval").
	Interval time.Duration

	// MaxFailures is how many consecutive resolution failures a label
	// tolerates, retried every Interval, before the refresher starts
	// deferring its ticks with exponential backoff.
	MaxFailures int

	// BackoffMultiplier scales the backoff on each consecutive failure
	// past MaxFailures.
	BackoffMultiplier float64

	// MaxBackoff caps the exponential backoff applied to a label after
	// consecutive resolution failures.
	MaxBackoff time.Duration
}

func (c Config) interval() time.Duration {
	if c.Interval > 0 {
		return c.Interval
	}

	return time.Minute
}

func (c Config) maxFailures() int {
	if c.MaxFailures > 0 {
		return c.MaxFailures
	}

	return 3
}

func (c Config) backoffMultiplier() float64 {
	if c.BackoffMultiplier > 0 {
		return c.BackoffMultiplier
	}

	return 2.0
}

func (c Config) maxBackoff() time.Duration {
	if c.MaxBackoff > 0 {
		return c.MaxBackoff
	}

	return 5 * time.Minute
}

type labelState struct {
	lastCommit  string
	seen        bool
	failures    int
	backoff     *backoff.ExponentialBackOff
	nextAttempt time.Time
}

// Refresher polls upstream on an interval and invalidates cache on the
// watcher's behalf. Upstream should be the raw, uncached source.Source —
// polling through the cache would only ever read what it just wrote.
type Refresher struct {
	upstream source.Source
	cache    Invalidator
	bus      Bus
	cfg      Config
	logger   log.Logger

	mu     sync.Mutex
	states map[string]*labelState

	stop chan struct{}
	done chan struct{}
}

// New builds a Refresher. bus may be nil.
func New(upstream source.Source, c Invalidator, bus Bus, cfg Config, logger log.Logger) *Refresher {
	if logger == nil {
		logger = log.Nop{}
	}

	states := make(map[string]*labelState, len(cfg.SeedLabels))
	for _, label := range cfg.SeedLabels {
		states[label] = newLabelState(cfg)
	}

	return &Refresher{
		upstream: upstream,
		cache:    c,
		bus:      bus,
		cfg:      cfg,
		logger:   logger,
		states:   states,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// newLabelState builds the per-label backoff, seeded so the first deferred
// tick (once MaxFailures is reached) lands at Interval and every
// subsequent consecutive failure multiplies it by BackoffMultiplier, capped
// at MaxBackoff, per the design's "current_backoff, which starts at
// interval" rule.
func newLabelState(cfg Config) *labelState {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.interval()
	b.RandomizationFactor = 0 // deterministic: Interval, Interval*Multiplier, ...
	b.Multiplier = cfg.backoffMultiplier()
	b.MaxInterval = cfg.maxBackoff()
	b.MaxElapsedTime = 0 // never give up on a label, just keep backing off
	b.Reset()

	return &labelState{backoff: b}
}

// Run blocks, polling on cfg.Interval until ctx is cancelled or Stop is
// called. Callers typically invoke it in its own goroutine.
func (r *Refresher) Run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.cfg.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// Stop requests Run to return and waits for it to do so. Call it once:
// a second call panics, since the stop channel is already closed.
func (r *Refresher) Stop() {
	close(r.stop)
	<-r.done
}

// tick re-resolves every label worth watching this round: the configured
// seed labels plus, per the design note in §9 ("per distinct label
// appearing in cache fingerprints"), whatever labels the cache reports
// actually have entries right now — so a client resolving a fresh feature
// branch gets it watched and kept fresh without an operator listing it.
func (r *Refresher) tick(ctx context.Context) {
	now := time.Now()

	seen := make(map[string]bool)

	var labels []string

	for _, label := range append(append([]string{}, r.cfg.SeedLabels...), r.cache.Labels()...) {
		if !seen[label] {
			seen[label] = true

			labels = append(labels, label)
		}
	}

	r.mu.Lock()
	for _, label := range labels {
		if _, ok := r.states[label]; !ok {
			r.states[label] = newLabelState(r.cfg)
		}
	}
	r.mu.Unlock()

	for _, label := range labels {
		r.mu.Lock()
		st := r.states[label]
		due := st.nextAttempt.IsZero() || !now.Before(st.nextAttempt)
		r.mu.Unlock()

		if !due {
			continue
		}

		r.refreshLabel(ctx, label)
	}
}

func (r *Refresher) refreshLabel(ctx context.Context, label string) {
	res, err := r.upstream.Fetch(ctx, source.ConfigQuery{Application: "application", Label: label})

	r.mu.Lock()
	st := r.states[label]
	r.mu.Unlock()

	if err != nil {
		r.mu.Lock()
		st.failures++
		failures := st.failures
		r.mu.Unlock()

		if failures < r.cfg.maxFailures() {
			r.logger.Warnf("refresher: label %s: %v (failure %d/%d, retrying next tick)",
				label, err, failures, r.cfg.maxFailures())

			return
		}

		d := st.backoff.NextBackOff()

		r.mu.Lock()
		st.nextAttempt = time.Now().Add(d)
		r.mu.Unlock()

		r.logger.Warnf("refresher: label %s: %v (deferring %d/%d, retrying in %s)",
			label, err, failures, r.cfg.maxFailures(), d)

		return
	}

	st.backoff.Reset()

	r.mu.Lock()
	st.nextAttempt = time.Time{}
	st.failures = 0
	changed := st.seen && st.lastCommit != res.Version
	st.lastCommit = res.Version
	st.seen = true
	r.mu.Unlock()

	if !changed {
		return
	}

	r.logger.Infof("refresher: label %s moved to %s, invalidating cache", label, res.Version)

	r.cache.InvalidateLabel(label)

	if r.bus != nil {
		if err := r.bus.PublishRefresh(ctx, label, res.Version); err != nil {
			r.logger.Warnf("refresher: publish refresh event for %s: %v", label, err)
		}
	}
}

var _ Invalidator = (*cache.CachedSource)(nil)
