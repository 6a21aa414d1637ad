package services

import (
	"context"
	"log"
	"runtime"
	"sync"
)

// SourceFetcher is what the coordinator fans out to; satisfied by
// *Fetcher.
type SourceFetcher interface {
	Fetch(ctx context.Context, ref MediaReference, dir string) (*Artifact, error)
}

// Coordinator fans a batch of references out to a bounded worker pool
// and collects whatever fetches succeed. A single exhausted source
// never aborts its siblings.
type Coordinator struct {
	fetcher SourceFetcher
	workers int
}

// maxFetchWorkers caps pool width: more concurrency against a single
// remote host mostly buys rate limiting.
const maxFetchWorkers = 4

// NewCoordinator creates a coordinator with the given pool width.
// Non-positive widths default to min(NumCPU, 4).
func NewCoordinator(fetcher SourceFetcher, workers int) *Coordinator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > maxFetchWorkers {
		workers = maxFetchWorkers
	}
	return &Coordinator{fetcher: fetcher, workers: workers}
}

// FetchAll dispatches one fetch per reference, waits for every worker
// to settle, and returns the successes in no guaranteed order. Each
// artifact carries its originating ordinal so the assembler can
// restore request order. onProgress, if non-nil, is called after each
// reference settles regardless of outcome.
func (c *Coordinator) FetchAll(ctx context.Context, refs []MediaReference, dir string, onProgress func(done, total int, title string)) []*Artifact {
	if len(refs) == 0 {
		return nil
	}

	jobs := make(chan MediaReference)

	var mu sync.Mutex
	var artifacts []*Artifact
	done := 0

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range jobs {
				artifact, err := c.fetcher.Fetch(ctx, ref, dir)

				mu.Lock()
				done++
				settled := done
				if err != nil {
					log.Printf("Skipping source %d (%s): %v", ref.Ordinal, ref.URL, err)
				} else {
					artifacts = append(artifacts, artifact)
				}
				mu.Unlock()

				if onProgress != nil {
					onProgress(settled, len(refs), ref.Title)
				}
			}
		}()
	}

	for _, ref := range refs {
		jobs <- ref
	}
	close(jobs)
	wg.Wait()

	return artifacts
}
