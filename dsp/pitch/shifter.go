// Package pitch implements the granular pitch shifter feeding the shimmer
// path. A fractional read head advances across the shared ring at the pitch
// ratio while the write head advances at the sample rate; the rate mismatch
// replays the buffer faster or slower than it was recorded. Wraparound
// produces periodic discontinuities by design — there is no grain crossfade.
package pitch

import (
	"github.com/SolarLiner/nih-reverb/dsp/delay"
	"github.com/SolarLiner/nih-reverb/dsp/lane"
)

// Shifter reads a delay line with an independently advancing fractional
// position.
type Shifter struct {
	buffer *delay.Line
	pos    float64 // read head, ring slot units
	write  float64 // write head shadow, ring slot units
}

// NewShifter returns a shifter over a ring of the given capacity in samples.
// Capacity bounds the grain period: larger rings wrap (and click) less often
// but track the input less closely.
func NewShifter(capacity int) (*Shifter, error) {
	line, err := delay.New(capacity)
	if err != nil {
		return nil, err
	}
	return &Shifter{buffer: line}, nil
}

// Len returns the ring capacity in samples.
func (s *Shifter) Len() int {
	return s.buffer.Len()
}

// ProcessSample taps the ring at the read head, advances the head by ratio
// (wrapping modulo the ring length), and records the input. At ratio 1.0 the
// output is the input delayed by exactly one sample; other ratios replay at
// ratio times the recorded rate.
func (s *Shifter) ProcessSample(ratio float64, input lane.Vector) lane.Vector {
	size := float64(s.buffer.Len())

	// Distance from the write head back to the read head, in samples.
	tap := s.write - s.pos
	if tap < 0 {
		tap += size
	}
	out := s.buffer.Tap(tap)

	s.pos += ratio
	for s.pos >= size {
		s.pos -= size
	}
	for s.pos < 0 {
		s.pos += size
	}

	s.write++
	if s.write >= size {
		s.write -= size
	}
	s.buffer.Push(input)

	return out
}

// Reset clears the ring and rewinds both heads.
func (s *Shifter) Reset() {
	s.buffer.Reset()
	s.pos = 0
	s.write = 0
}
