package services

import (
	"log"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives pipeline progress. One reporter belongs to exactly
// one run, so concurrent jobs never cross-contaminate each other's
// streams.
type Reporter interface {
	// Status reports a coarse phase change ("searching", "mixing", ...).
	Status(message string)
	// Progress reports per-source completion within the fetch phase.
	Progress(done, total int, current string)
}

// NopReporter discards all progress.
type NopReporter struct{}

func (NopReporter) Status(string)             {}
func (NopReporter) Progress(int, int, string) {}

// BarReporter renders progress as a terminal bar in CLI mode.
type BarReporter struct {
	bar *progressbar.ProgressBar
}

func NewBarReporter() *BarReporter {
	return &BarReporter{}
}

func (r *BarReporter) Status(message string) {
	if r.bar != nil {
		r.bar.Clear()
	}
	log.Println(message)
}

func (r *BarReporter) Progress(done, total int, current string) {
	if r.bar == nil {
		r.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionShowCount(),
		)
	}
	r.bar.Set(done)
}
