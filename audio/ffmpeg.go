package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpeg decodes compressed audio to raw PCM clips and encodes PCM
// back to MP3, both through the ffmpeg/ffprobe CLIs.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpeg creates an FFmpeg codec. Empty paths default to the
// binaries found in PATH.
func NewFFmpeg(ffmpegPath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	probe := "ffprobe"
	if ffmpegPath != "ffmpeg" {
		// Keep a custom install prefix consistent for both tools.
		probe = strings.TrimSuffix(ffmpegPath, "ffmpeg") + "ffprobe"
	}
	return &FFmpeg{ffmpegPath: ffmpegPath, ffprobePath: probe}
}

// Probe returns the sample rate, channel count and duration in seconds
// of the first audio stream in the file.
func (f *FFmpeg) Probe(ctx context.Context, path string) (rate, channels int, duration float64, err error) {
	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	// Two lines: "44100,2" then "213.42"
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) < 1 {
		return 0, 0, 0, fmt.Errorf("ffprobe %s: no audio stream", path)
	}

	fields := strings.Split(strings.TrimSpace(lines[0]), ",")
	if len(fields) < 2 {
		return 0, 0, 0, fmt.Errorf("ffprobe %s: unexpected output %q", path, lines[0])
	}
	rate, err = strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ffprobe %s: parse sample rate: %w", path, err)
	}
	channels, err = strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ffprobe %s: parse channels: %w", path, err)
	}

	if len(lines) > 1 {
		duration, _ = strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
	}

	return rate, channels, duration, nil
}

// Decode runs ffmpeg to decode an audio file to raw PCM int16 samples
// at the file's native sample rate and channel layout. Normalization
// to the canonical profile is the assembler's job.
func (f *FFmpeg) Decode(ctx context.Context, path string) (*Clip, error) {
	rate, channels, _, err := f.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	if rate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("decode %s: invalid stream (rate=%d channels=%d)", path, rate, channels)
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-loglevel", "error",
		"pipe:1",
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}

	// Ensure even byte count for int16 alignment
	if len(out)%2 != 0 {
		out = out[:len(out)-1]
	}

	samples := make([]int16, len(out)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(out[i*2 : i*2+2]))
	}

	return &Clip{Samples: samples, SampleRate: rate, Channels: channels}, nil
}

// Encode writes a clip to an MP3 file at 128 kbit/s by piping raw PCM
// into ffmpeg.
func (f *FFmpeg) Encode(ctx context.Context, clip *Clip, outPath string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-y",
		"-f", "s16le",
		"-ar", strconv.Itoa(clip.SampleRate),
		"-ac", strconv.Itoa(clip.Channels),
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", "128k",
		"-loglevel", "error",
		outPath,
	)

	cmd.Stdin = bytes.NewReader(samplesToBytes(clip.Samples))

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg encode %s: %w, stderr: %s", outPath, err, stderr.String())
	}
	return nil
}

// samplesToBytes converts int16 samples to little-endian bytes.
func samplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
