package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSourceFetcher fails the ordinals listed in failing and tracks
// peak concurrency.
type fakeSourceFetcher struct {
	failing map[int]bool
	delay   time.Duration

	mu      sync.Mutex
	active  int32
	peak    int32
	fetched []int
}

func (f *fakeSourceFetcher) Fetch(ctx context.Context, ref MediaReference, dir string) (*Artifact, error) {
	cur := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		old := atomic.LoadInt32(&f.peak)
		if cur <= old || atomic.CompareAndSwapInt32(&f.peak, old, cur) {
			break
		}
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.fetched = append(f.fetched, ref.Ordinal)
	f.mu.Unlock()

	if f.failing[ref.Ordinal] {
		return nil, fmt.Errorf("fetch %s: %w", ref.URL, ErrFetchPermanent)
	}
	return &Artifact{Ordinal: ref.Ordinal, Title: ref.Title, Path: dir, Duration: 30}, nil
}

func makeRefs(n int) []MediaReference {
	refs := make([]MediaReference, n)
	for i := range refs {
		refs[i] = MediaReference{Ordinal: i + 1, Title: fmt.Sprintf("video %d", i+1), URL: fmt.Sprintf("u%d", i+1)}
	}
	return refs
}

func TestFetchAllCollectsOnlySuccesses(t *testing.T) {
	fetcher := &fakeSourceFetcher{failing: map[int]bool{2: true, 5: true}}
	c := NewCoordinator(fetcher, 3)

	artifacts := c.FetchAll(context.Background(), makeRefs(6), t.TempDir(), nil)

	require.Len(t, artifacts, 4)
	seen := map[int]bool{}
	for _, a := range artifacts {
		seen[a.Ordinal] = true
	}
	assert.False(t, seen[2])
	assert.False(t, seen[5])
}

func TestFetchAllEverySourceSettles(t *testing.T) {
	fetcher := &fakeSourceFetcher{delay: 5 * time.Millisecond}
	c := NewCoordinator(fetcher, 3)

	var progress []int
	var mu sync.Mutex
	c.FetchAll(context.Background(), makeRefs(10), t.TempDir(), func(done, total int, title string) {
		mu.Lock()
		progress = append(progress, done)
		mu.Unlock()
		assert.Equal(t, 10, total)
	})

	assert.Len(t, fetcher.fetched, 10)
	assert.Len(t, progress, 10)
}

func TestFetchAllBoundsConcurrency(t *testing.T) {
	fetcher := &fakeSourceFetcher{delay: 10 * time.Millisecond}
	c := NewCoordinator(fetcher, 2)

	c.FetchAll(context.Background(), makeRefs(8), t.TempDir(), nil)

	assert.LessOrEqual(t, fetcher.peak, int32(2))
}

func TestFetchAllAllFailuresYieldEmptyNotError(t *testing.T) {
	failing := map[int]bool{}
	for i := 1; i <= 5; i++ {
		failing[i] = true
	}
	fetcher := &fakeSourceFetcher{failing: failing}
	c := NewCoordinator(fetcher, 4)

	artifacts := c.FetchAll(context.Background(), makeRefs(5), t.TempDir(), nil)

	assert.Empty(t, artifacts)
}

func TestFetchAllNoRefs(t *testing.T) {
	c := NewCoordinator(&fakeSourceFetcher{}, 4)
	assert.Empty(t, c.FetchAll(context.Background(), nil, t.TempDir(), nil))
}

func TestNewCoordinatorCapsWorkers(t *testing.T) {
	c := NewCoordinator(&fakeSourceFetcher{}, 64)
	assert.Equal(t, maxFetchWorkers, c.workers)

	c = NewCoordinator(&fakeSourceFetcher{}, 0)
	assert.LessOrEqual(t, c.workers, maxFetchWorkers)
	assert.Greater(t, c.workers, 0)
}
