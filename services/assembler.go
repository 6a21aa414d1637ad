package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"

	"mashup/audio"
)

// Assembly failure classes.
var (
	// ErrNoArtifacts means the caller passed nothing in; an upstream
	// check was skipped.
	ErrNoArtifacts = errors.New("no artifacts to assemble")
	// ErrNothingAssembled means every artifact failed to decode at
	// this stage and zero samples were contributed.
	ErrNothingAssembled = errors.New("no audio could be assembled")
)

// Decoder loads an audio file into a raw PCM clip.
type Decoder interface {
	Decode(ctx context.Context, path string) (*audio.Clip, error)
}

// Encoder writes a PCM clip out as a compressed audio file.
type Encoder interface {
	Encode(ctx context.Context, clip *audio.Clip, outPath string) error
}

// MashupResult is the pipeline's sole durable output: the combined
// file and its realized duration, which may be shorter than
// excerpt × count when some sources ran short.
type MashupResult struct {
	Path     string
	Duration float64
	Sources  int
	Titles   []string
}

// Assembler folds fetched artifacts into one mashup file at the
// canonical profile (44100 Hz mono).
type Assembler struct {
	decoder Decoder
	encoder Encoder
}

// NewAssembler creates an assembler over the given codec boundary.
func NewAssembler(decoder Decoder, encoder Encoder) *Assembler {
	return &Assembler{decoder: decoder, encoder: encoder}
}

// Assemble trims each artifact to excerptSec seconds, concatenates
// them in ordinal order, applies edge fades, and writes the combined
// MP3 to outPath. Artifact files are deleted as they are folded in;
// the assembler is their last consumer.
func (a *Assembler) Assemble(ctx context.Context, artifacts []*Artifact, excerptSec int, outPath string) (*MashupResult, error) {
	if excerptSec <= 0 {
		return nil, fmt.Errorf("excerpt duration must be positive, got %d", excerptSec)
	}
	if len(artifacts) == 0 {
		return nil, ErrNoArtifacts
	}

	// Concatenation order follows the originally resolved ordinals,
	// never fetch completion order.
	ordered := make([]*Artifact, len(artifacts))
	copy(ordered, artifacts)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Ordinal < ordered[j].Ordinal })

	excerptFrames := excerptSec * audio.CanonicalRate

	var clips []*audio.Clip
	var titles []string
	for _, art := range ordered {
		clip, err := a.decoder.Decode(ctx, art.Path)
		os.Remove(art.Path)
		if err != nil {
			log.Printf("Skipping %s in mashup: %v", art.Path, err)
			continue
		}

		clip = clip.MonoFold().Resample(audio.CanonicalRate)
		if clip.Frames() < excerptFrames {
			log.Printf("Source %d is shorter than the %ds excerpt; using full length (%.1fs)",
				art.Ordinal, excerptSec, clip.Duration())
		}
		clips = append(clips, clip.TrimFrames(excerptFrames))
		titles = append(titles, art.Title)
	}

	if len(clips) == 0 {
		return nil, ErrNothingAssembled
	}

	combined := audio.Concat(clips)

	// Rounding during resample can overshoot by a few samples; clamp
	// to the expected total. A shortfall from short sources stands.
	expectedFrames := excerptFrames * len(clips)
	if combined.Frames() >= expectedFrames {
		combined = combined.TrimFrames(expectedFrames)
	}

	combined.ApplyEdgeFades(fadeFrames(excerptSec))

	if err := a.encoder.Encode(ctx, combined, outPath); err != nil {
		return nil, fmt.Errorf("encode mashup: %w", err)
	}

	return &MashupResult{
		Path:     outPath,
		Duration: combined.Duration(),
		Sources:  len(clips),
		Titles:   titles,
	}, nil
}

// fadeFrames bounds the edge fade to a tenth of the excerpt or one
// second, whichever is smaller.
func fadeFrames(excerptSec int) int {
	fadeSec := float64(excerptSec) / 10
	if fadeSec > 1 {
		fadeSec = 1
	}
	return int(fadeSec * audio.CanonicalRate)
}
