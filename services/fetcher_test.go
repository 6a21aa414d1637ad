package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner scripts yt-dlp invocations.
type fakeRunner struct {
	calls int
	fn    func(call int) ([]byte, error)
}

func (r *fakeRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.calls++
	return r.fn(r.calls)
}

// fakeProber reports fixed stream parameters.
type fakeProber struct {
	duration float64
	err      error
}

func (p *fakeProber) Probe(ctx context.Context, path string) (int, int, float64, error) {
	return 44100, 2, p.duration, p.err
}

func newTestFetcher(runner *fakeRunner, prober Prober, delays *[]time.Duration) *Fetcher {
	return &Fetcher{
		ytdlpPath: "yt-dlp",
		runner:    runner,
		prober:    prober,
		policy:    RetryPolicy{MaxAttempts: 5, BaseDelay: 10 * time.Millisecond, JitterRange: time.Millisecond},
		sleep: func(ctx context.Context, d time.Duration) error {
			if delays != nil {
				*delays = append(*delays, d)
			}
			return nil
		},
	}
}

func TestFetchRetriesTransientFailuresWithMonotonicBackoff(t *testing.T) {
	runner := &fakeRunner{fn: func(int) ([]byte, error) {
		return []byte("HTTP Error 429: Too Many Requests"), errors.New("exit status 1")
	}}

	var delays []time.Duration
	f := newTestFetcher(runner, &fakeProber{duration: 30}, &delays)

	_, err := f.Fetch(context.Background(), MediaReference{Ordinal: 1, URL: "https://example.test/v"}, t.TempDir())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchTransient)
	assert.Equal(t, 5, runner.calls)

	require.Len(t, delays, 4)
	for i := 1; i < len(delays); i++ {
		assert.Greater(t, delays[i], delays[i-1], "backoff must grow between attempts")
	}
}

func TestFetchPermanentFailureDoesNotRetry(t *testing.T) {
	runner := &fakeRunner{fn: func(int) ([]byte, error) {
		return []byte("ERROR: Video unavailable"), errors.New("exit status 1")
	}}

	f := newTestFetcher(runner, &fakeProber{duration: 30}, nil)

	_, err := f.Fetch(context.Background(), MediaReference{Ordinal: 1, URL: "https://example.test/v"}, t.TempDir())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchPermanent)
	assert.Equal(t, 1, runner.calls)
}

func TestFetchSuccessReturnsArtifactAndCleansIntermediates(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "song_3.mp3")

	runner := &fakeRunner{fn: func(int) ([]byte, error) {
		// yt-dlp leaves the extracted mp3 plus a container leftover
		require.NoError(t, os.WriteFile(final, []byte("mp3-bytes"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "song_3.webm"), []byte("container"), 0o644))
		return []byte("ok"), nil
	}}

	f := newTestFetcher(runner, &fakeProber{duration: 212.4}, nil)

	art, err := f.Fetch(context.Background(), MediaReference{Ordinal: 3, Title: "Some Song", URL: "u"}, dir)

	require.NoError(t, err)
	assert.Equal(t, 3, art.Ordinal)
	assert.Equal(t, final, art.Path)
	assert.Equal(t, "Some Song", art.Title) // not a real mp3, so tag falls back
	assert.InDelta(t, 212.4, art.Duration, 1e-9)

	_, statErr := os.Stat(filepath.Join(dir, "song_3.webm"))
	assert.True(t, os.IsNotExist(statErr), "intermediate container must be removed")
}

func TestFetchZeroDurationDecodeIsFailure(t *testing.T) {
	dir := t.TempDir()

	runner := &fakeRunner{fn: func(int) ([]byte, error) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "song_1.mp3"), []byte("x"), 0o644))
		return nil, nil
	}}

	f := newTestFetcher(runner, &fakeProber{duration: 0}, nil)

	_, err := f.Fetch(context.Background(), MediaReference{Ordinal: 1, URL: "u"}, dir)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)

	_, statErr := os.Stat(filepath.Join(dir, "song_1.mp3"))
	assert.True(t, os.IsNotExist(statErr), "unusable decode must not survive")
}

func TestFetchEmptyOutputIsFailure(t *testing.T) {
	dir := t.TempDir()

	runner := &fakeRunner{fn: func(int) ([]byte, error) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "song_1.mp3"), nil, 0o644))
		return nil, nil
	}}

	f := newTestFetcher(runner, &fakeProber{duration: 10}, nil)

	_, err := f.Fetch(context.Background(), MediaReference{Ordinal: 1, URL: "u"}, dir)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestRetryPolicyDelayDoubles(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: 5 * time.Second}

	for i := 0; i < 4; i++ {
		expected := 5 * time.Second << uint(i)
		assert.Equal(t, expected, p.Delay(i), fmt.Sprintf("attempt %d", i))
	}
}
