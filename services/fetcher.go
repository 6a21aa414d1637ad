package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
)

// Failure classes for a single source. Transient failures are retried;
// permanent and decode failures are not.
var (
	ErrFetchTransient = errors.New("transient fetch failure")
	ErrFetchPermanent = errors.New("source unusable")
	ErrDecode         = errors.New("audio extraction failed")
)

// MediaReference is one resolved source: its URL plus the 1-based
// position in the resolved list, used for file naming and for the
// final concatenation order.
type MediaReference struct {
	Ordinal int
	Title   string
	URL     string
}

// Artifact is a fetched, decoded audio file owned by the caller once
// Fetch returns.
type Artifact struct {
	Ordinal  int
	Title    string
	Path     string
	Duration float64 // seconds, as probed after extraction
}

// RetryPolicy controls how transient fetch failures are retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	JitterRange time.Duration
}

// DefaultRetryPolicy retries up to 5 times with 5s, 10s, 20s, 40s
// backoff plus up to a second of jitter so concurrent workers don't
// hammer the remote host in lockstep.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	BaseDelay:   5 * time.Second,
	JitterRange: time.Second,
}

// Delay returns the backoff before retry number attempt (0-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if p.JitterRange > 0 {
		d += time.Duration(rand.Int63n(int64(p.JitterRange)))
	}
	return d
}

// commandRunner abstracts subprocess execution so tests can fake yt-dlp.
type commandRunner interface {
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Prober reports stream parameters of a decoded file. Satisfied by
// audio.FFmpeg.
type Prober interface {
	Probe(ctx context.Context, path string) (rate, channels int, duration float64, err error)
}

// Fetcher downloads the best available audio of one reference and
// extracts it to a canonical MP3 under the run's scratch directory.
type Fetcher struct {
	ytdlpPath string
	runner    commandRunner
	prober    Prober
	policy    RetryPolicy
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a Fetcher that shells out to yt-dlp.
func NewFetcher(ytdlpPath string, prober Prober, policy RetryPolicy) *Fetcher {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	return &Fetcher{
		ytdlpPath: ytdlpPath,
		runner:    execRunner{},
		prober:    prober,
		policy:    policy,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// permanentMarkers are yt-dlp output fragments that mean retrying
// cannot help.
var permanentMarkers = []string{
	"Video unavailable",
	"Private video",
	"This video is not available",
	"has been removed",
	"Requested format is not available",
	"no suitable format",
	"Sign in to confirm your age",
}

func isPermanent(output string) bool {
	for _, marker := range permanentMarkers {
		if strings.Contains(output, marker) {
			return true
		}
	}
	return false
}

// Fetch retrieves one reference into dir as song_<ordinal>.mp3.
// Intermediate container files are removed on every path; on success
// the MP3 is the only surviving file.
func (f *Fetcher) Fetch(ctx context.Context, ref MediaReference, dir string) (*Artifact, error) {
	final := filepath.Join(dir, fmt.Sprintf("song_%d.mp3", ref.Ordinal))
	outTmpl := filepath.Join(dir, fmt.Sprintf("song_%d.%%(ext)s", ref.Ordinal))

	args := []string{
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"--no-playlist",
		"--no-warnings",
		"--no-progress",
		"-o", outTmpl,
		ref.URL,
	}

	var lastErr error
	for attempt := 0; attempt < f.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := f.policy.Delay(attempt - 1)
			log.Printf("Retrying %s in %s (attempt %d/%d)", ref.URL, delay, attempt+1, f.policy.MaxAttempts)
			if err := f.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		out, err := f.runner.CombinedOutput(ctx, f.ytdlpPath, args...)
		f.removeIntermediates(dir, ref.Ordinal)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isPermanent(string(out)) {
				return nil, fmt.Errorf("fetch %s: %w: %v", ref.URL, ErrFetchPermanent, err)
			}
			lastErr = err
			log.Printf("Fetch attempt %d/%d failed for %s: %v", attempt+1, f.policy.MaxAttempts, ref.URL, err)
			continue
		}

		return f.verify(ctx, ref, final)
	}

	return nil, fmt.Errorf("fetch %s after %d attempts: %w: %v",
		ref.URL, f.policy.MaxAttempts, ErrFetchTransient, lastErr)
}

// verify confirms the extracted file is a usable, non-empty audio
// artifact. A zero-length or unreadable decode is a failure, not a
// success.
func (f *Fetcher) verify(ctx context.Context, ref MediaReference, path string) (*Artifact, error) {
	fi, err := os.Stat(path)
	if err != nil || fi.Size() == 0 {
		os.Remove(path)
		return nil, fmt.Errorf("fetch %s: %w: missing or empty output", ref.URL, ErrDecode)
	}

	_, _, duration, err := f.prober.Probe(ctx, path)
	if err != nil || duration <= 0 {
		os.Remove(path)
		return nil, fmt.Errorf("fetch %s: %w: zero duration decode", ref.URL, ErrDecode)
	}

	return &Artifact{
		Ordinal:  ref.Ordinal,
		Title:    f.readTitle(path, ref.Title),
		Path:     path,
		Duration: duration,
	}, nil
}

// removeIntermediates deletes leftover container downloads
// (song_N.webm, song_N.m4a.part, ...) so only the extracted MP3 can
// survive.
func (f *Fetcher) removeIntermediates(dir string, ordinal int) {
	matches, err := filepath.Glob(filepath.Join(dir, fmt.Sprintf("song_%d.*", ordinal)))
	if err != nil {
		return
	}
	for _, m := range matches {
		if strings.HasSuffix(m, ".mp3") {
			continue
		}
		os.Remove(m)
	}
}

// readTitle pulls the embedded ID3 title if yt-dlp wrote one, falling
// back to the resolver's title.
func (f *Fetcher) readTitle(path, fallback string) string {
	file, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil || meta.Title() == "" {
		return fallback
	}
	return meta.Title()
}
