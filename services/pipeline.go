package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"mashup/types"
)

// RunResult is the user-legible outcome of one pipeline invocation.
// It is always one of the fixed outcome set, never a raw fault.
type RunResult struct {
	Outcome  types.Outcome
	Message  string
	Duration float64  // realized mashup seconds, success paths only
	Tracks   []string // titles folded into the mashup
	Err      error
}

// Pipeline runs the whole mashup flow: resolve, fetch concurrently,
// assemble, zip, email. Everything happens inside one run-private
// scratch directory that is removed on success and failure alike.
type Pipeline struct {
	resolver    Resolver
	coordinator *Coordinator
	assembler   *Assembler
	mailer      Mailer
	scratchRoot string
}

// NewPipeline wires a pipeline from its collaborators.
func NewPipeline(resolver Resolver, coordinator *Coordinator, assembler *Assembler, mailer Mailer, scratchRoot string) *Pipeline {
	return &Pipeline{
		resolver:    resolver,
		coordinator: coordinator,
		assembler:   assembler,
		mailer:      mailer,
		scratchRoot: scratchRoot,
	}
}

// Run executes one mashup request end to end, reporting progress to
// the injected reporter.
func (p *Pipeline) Run(ctx context.Context, req types.MashupRequest, rep Reporter) *RunResult {
	if rep == nil {
		rep = NopReporter{}
	}

	rep.Status(fmt.Sprintf("Searching YouTube for %q", req.Query))
	videos, err := p.resolver.Resolve(ctx, req.Query, req.Count)
	if err != nil {
		return &RunResult{
			Outcome: types.OutcomeNoSourcesFound,
			Message: fmt.Sprintf("Search for %q failed. Please try again.", req.Query),
			Err:     err,
		}
	}
	if len(videos) == 0 {
		return &RunResult{
			Outcome: types.OutcomeNoSourcesFound,
			Message: fmt.Sprintf("No videos found for %q. Please try a different query.", req.Query),
		}
	}

	scratch, err := os.MkdirTemp(p.scratchRoot, "mashup-*")
	if err != nil {
		return &RunResult{
			Outcome: types.OutcomeAssemblyFailed,
			Message: "Could not allocate scratch storage.",
			Err:     err,
		}
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.Printf("Scratch cleanup failed for %s: %v", scratch, err)
		}
	}()

	refs := make([]MediaReference, len(videos))
	for i, v := range videos {
		refs[i] = MediaReference{Ordinal: i + 1, Title: v.Title, URL: v.URL}
	}

	rep.Status(fmt.Sprintf("Downloading audio for %d sources", len(refs)))
	artifacts := p.coordinator.FetchAll(ctx, refs, scratch, rep.Progress)
	if len(artifacts) == 0 {
		return &RunResult{
			Outcome: types.OutcomeNoSourcesDownloadable,
			Message: "Failed to download audio files. Please try again.",
		}
	}

	rep.Status(fmt.Sprintf("Mixing %d excerpts of %ds each", len(artifacts), req.Duration))
	mashupPath := filepath.Join(scratch, "mashup.mp3")
	result, err := p.assembler.Assemble(ctx, artifacts, req.Duration, mashupPath)
	if err != nil {
		return &RunResult{
			Outcome: types.OutcomeAssemblyFailed,
			Message: "Failed to create mashup. Please try again.",
			Err:     err,
		}
	}

	rep.Status("Packaging and emailing the mashup")
	zipPath := filepath.Join(scratch, "mashup.zip")
	if err := CreateZip(result.Path, zipPath); err != nil {
		return &RunResult{
			Outcome: types.OutcomeAssemblyFailed,
			Message: "Failed to package mashup. Please try again.",
			Err:     err,
		}
	}

	subject := fmt.Sprintf("Your %s YouTube Mashup", req.Query)
	body := mailBody(req.Query, result)
	if err := p.mailer.Send(req.Email, subject, body, zipPath); err != nil {
		// The mashup itself was produced; only delivery fell over.
		return &RunResult{
			Outcome:  types.OutcomeDeliveryFailed,
			Message:  "Mashup created but failed to send email. Please try again.",
			Duration: result.Duration,
			Tracks:   result.Titles,
			Err:      err,
		}
	}

	return &RunResult{
		Outcome:  types.OutcomeSuccess,
		Message:  "Mashup created and sent successfully! Check your email.",
		Duration: result.Duration,
		Tracks:   result.Titles,
	}
}

// mailBody summarizes the mashup for the delivery email.
func mailBody(query string, result *MashupResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please find attached your custom YouTube mashup of %s songs.\n", query)
	fmt.Fprintf(&b, "Duration: %.0f seconds across %d excerpts.\n\n", result.Duration, result.Sources)
	b.WriteString("Included tracks:\n")
	for i, title := range result.Titles {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, title)
	}
	return b.String()
}
