package refresher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cburgosro9303/vortex-config/internal/source"
)

type stubSource struct {
	mu        sync.Mutex
	versions  []string // popped front-to-back on each Fetch, last one sticks
	errs      []error
	callCount int
}

func (s *stubSource) Fetch(ctx context.Context, q source.ConfigQuery) (source.ConfigResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.callCount
	s.callCount++

	if idx < len(s.errs) && s.errs[idx] != nil {
		return source.ConfigResult{}, s.errs[idx]
	}

	v := s.versions[len(s.versions)-1]
	if idx < len(s.versions) {
		v = s.versions[idx]
	}

	return source.ConfigResult{Name: q.Application, Label: q.Label, Version: v}, nil
}

func (s *stubSource) DefaultLabel() string                     { return "main" }
func (s *stubSource) Invalidate(source.InvalidateSelector) {}

type recordingInvalidator struct {
	mu     sync.Mutex
	labels []string
}

func (r *recordingInvalidator) InvalidateLabel(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = append(r.labels, label)
}

// Labels reports no dynamically-discovered labels: these tests drive the
// refresher purely off Config.SeedLabels.
func (r *recordingInvalidator) Labels() []string { return nil }

func (r *recordingInvalidator) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.labels...)
}

type recordingBus struct {
	mu     sync.Mutex
	events []RefreshEvent
}

func (b *recordingBus) PublishRefresh(ctx context.Context, label, commit string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, RefreshEvent{Label: label, Commit: commit})

	return nil
}

func TestRefresherInvalidatesOnCommitChange(t *testing.T) {
	src := &stubSource{versions: []string{"commit-a", "commit-a", "commit-b"}}
	inv := &recordingInvalidator{}
	bus := &recordingBus{}

	r := New(src, inv, bus, Config{SeedLabels: []string{"main"}, Interval: 10 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go r.Run(ctx)
	defer r.Stop()

	require.Eventually(t, func() bool {
		return len(inv.snapshot()) >= 1
	}, time.Second, 5*time.Millisecond)

	assert.Contains(t, inv.snapshot(), "main")

	bus.mu.Lock()
	defer bus.mu.Unlock()
	require.Len(t, bus.events, 1)
	assert.Equal(t, "commit-b", bus.events[0].Commit)
}

func TestRefresherDoesNotInvalidateOnFirstResolution(t *testing.T) {
	src := &stubSource{versions: []string{"commit-a", "commit-a", "commit-a"}}
	inv := &recordingInvalidator{}

	r := New(src, inv, nil, Config{SeedLabels: []string{"main"}, Interval: 10 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go r.Run(ctx)

	time.Sleep(80 * time.Millisecond)
	r.Stop()

	assert.Empty(t, inv.snapshot())
}

func TestRefresherBacksOffAfterFailure(t *testing.T) {
	src := &stubSource{
		errs:     []error{errors.New("boom"), errors.New("boom"), errors.New("boom")},
		versions: []string{"commit-a"},
	}
	inv := &recordingInvalidator{}

	cfg := Config{
		SeedLabels:  []string{"main"},
		Interval:    5 * time.Millisecond,
		MaxFailures: 2,
		MaxBackoff:  time.Second,
	}
	r := New(src, inv, nil, cfg, nil)

	// First failure: below MaxFailures, no deferral yet — the tick stays
	// due every interval.
	r.tick(context.Background())
	r.mu.Lock()
	st := r.states["main"]
	stillDue := st.nextAttempt.IsZero()
	r.mu.Unlock()

	assert.True(t, stillDue, "should not defer before reaching MaxFailures")

	// Second consecutive failure reaches MaxFailures: the next tick is
	// deferred by the backoff, which starts at cfg.Interval.
	r.tick(context.Background())
	r.mu.Lock()
	st = r.states["main"]
	r.mu.Unlock()

	assert.False(t, st.nextAttempt.IsZero())
	assert.True(t, st.nextAttempt.After(time.Now()))
}
