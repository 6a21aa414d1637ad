// Package audio holds the raw PCM sample handling for the mashup
// assembler: mono folding, resampling, trimming, edge fades and
// concatenation, plus the ffmpeg-backed decode/encode boundary.
package audio

// CanonicalRate is the sample rate every excerpt is normalized to
// before concatenation.
const CanonicalRate = 44100

// Clip is a decoded audio buffer. Samples are interleaved int16 PCM;
// for Channels == 1 they are plain mono samples.
type Clip struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames (samples per channel).
func (c *Clip) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration returns the clip length in seconds, derived from the
// current sample count. It is never cached; trimming or concatenation
// changes the result on the next call.
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.SampleRate)
}

// MonoFold averages all channels into one. Stereo separation is lost,
// which is fine for short thematic excerpts.
func (c *Clip) MonoFold() *Clip {
	if c.Channels <= 1 {
		return c
	}

	frames := c.Frames()
	mono := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < c.Channels; ch++ {
			sum += int(c.Samples[i*c.Channels+ch])
		}
		mono[i] = int16(sum / c.Channels)
	}

	return &Clip{Samples: mono, SampleRate: c.SampleRate, Channels: 1}
}

// Resample converts a mono clip to the target sample rate using linear
// interpolation between neighbouring source samples.
func (c *Clip) Resample(target int) *Clip {
	if c.SampleRate == target || len(c.Samples) == 0 {
		return &Clip{Samples: c.Samples, SampleRate: target, Channels: c.Channels}
	}

	srcLen := len(c.Samples)
	dstLen := int(int64(srcLen) * int64(target) / int64(c.SampleRate))
	if dstLen == 0 {
		dstLen = 1
	}

	out := make([]int16, dstLen)
	ratio := float64(c.SampleRate) / float64(target)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= srcLen-1 {
			out[i] = c.Samples[srcLen-1]
			continue
		}
		frac := pos - float64(j)
		a := float64(c.Samples[j])
		b := float64(c.Samples[j+1])
		out[i] = int16(a + (b-a)*frac)
	}

	return &Clip{Samples: out, SampleRate: target, Channels: 1}
}

// TrimFrames keeps at most n frames from the start of the clip.
func (c *Clip) TrimFrames(n int) *Clip {
	if n < 0 {
		n = 0
	}
	keep := n * c.Channels
	if keep >= len(c.Samples) {
		return c
	}
	return &Clip{Samples: c.Samples[:keep], SampleRate: c.SampleRate, Channels: c.Channels}
}

// Concat appends the samples of each clip in order. All clips must
// already share a sample rate and channel count.
func Concat(clips []*Clip) *Clip {
	if len(clips) == 0 {
		return nil
	}

	total := 0
	for _, c := range clips {
		total += len(c.Samples)
	}

	out := make([]int16, 0, total)
	for _, c := range clips {
		out = append(out, c.Samples...)
	}

	return &Clip{Samples: out, SampleRate: clips[0].SampleRate, Channels: clips[0].Channels}
}

// ApplyEdgeFades ramps the first and last n frames linearly to avoid a
// click at the mashup boundaries. The fade is applied in place over the
// whole buffer only, not per excerpt.
func (c *Clip) ApplyEdgeFades(n int) {
	frames := c.Frames()
	if n <= 0 || frames == 0 {
		return
	}
	if n > frames/2 {
		n = frames / 2
	}

	for i := 0; i < n; i++ {
		gain := float64(i) / float64(n)
		for ch := 0; ch < c.Channels; ch++ {
			idx := i*c.Channels + ch
			c.Samples[idx] = int16(float64(c.Samples[idx]) * gain)
		}
	}
	for i := 0; i < n; i++ {
		gain := float64(i) / float64(n)
		for ch := 0; ch < c.Channels; ch++ {
			idx := (frames-1-i)*c.Channels + ch
			c.Samples[idx] = int16(float64(c.Samples[idx]) * gain)
		}
	}
}
