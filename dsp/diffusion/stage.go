// Package diffusion implements the decorrelating delay stages that smear a
// sharp echo into a dense reverberant texture. Each stage owns a modulated
// multi-tap delay, a fixed lane shuffle and a Householder mix; a cascade
// chains stages with geometrically growing time bases.
package diffusion

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/SolarLiner/nih-reverb/dsp/delay"
	"github.com/SolarLiner/nih-reverb/dsp/lane"
	"github.com/SolarLiner/nih-reverb/dsp/mix"
)

const (
	// DefaultLFORateHz is the per-lane modulation rate.
	DefaultLFORateHz = 0.3
	// DefaultModAmpSeconds scales delay-time modulation. Historical source
	// snapshots used both 1e-3 and 3e-3; 3e-3 is the pinned value.
	DefaultModAmpSeconds = 3e-3
	// DefaultOffsetRangeSeconds bounds the static per-lane jitter.
	DefaultOffsetRangeSeconds = 10e-3
	// DefaultShuffleStride and DefaultShuffleOffset pick the lane permutation
	// (n*stride + offset) mod Width. Snapshots also used offset 288; 289 is
	// the pinned value.
	DefaultShuffleStride = 187
	// DefaultShuffleOffset is the additive permutation constant.
	DefaultShuffleOffset = 289

	defaultStageSeed = 0x5eed

	delayPadSamples = 4
)

// Config holds the tunable stage constants. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	LFORateHz          float64
	ModAmpSeconds      float64
	OffsetRangeSeconds float64
	ShuffleStride      int
	ShuffleOffset      int
}

// DefaultConfig returns the pinned stage constants.
func DefaultConfig() Config {
	return Config{
		LFORateHz:          DefaultLFORateHz,
		ModAmpSeconds:      DefaultModAmpSeconds,
		OffsetRangeSeconds: DefaultOffsetRangeSeconds,
		ShuffleStride:      DefaultShuffleStride,
		ShuffleOffset:      DefaultShuffleOffset,
	}
}

// Stage is one decorrelating diffusion unit. Per-lane jitter offsets and LFO
// start phases are sampled once at construction and never re-rolled; only the
// LFO phases advance afterwards.
type Stage struct {
	delay    *delay.Line
	polarity lane.Vector

	offsets    [lane.Width]float64 // samples, fixed
	phases     [lane.Width]float64 // wraps in [0,1)
	initPhases [lane.Width]float64

	spanSamples   float64
	modAmpSamples float64
	sampleRate    float64
	cfg           Config
}

// NewStage builds a stage whose lane delays span spanSeconds at full size.
// rng supplies the construction-time randomness; pass a seeded source for
// deterministic behavior, or nil for the default seed.
func NewStage(sampleRate, spanSeconds float64, rng *rand.Rand, cfg Config) (*Stage, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("diffusion sample rate must be > 0: %f", sampleRate)
	}
	if spanSeconds <= 0 || math.IsNaN(spanSeconds) || math.IsInf(spanSeconds, 0) {
		return nil, fmt.Errorf("diffusion span must be > 0: %f", spanSeconds)
	}
	if cfg.LFORateHz < 0 || cfg.ModAmpSeconds < 0 || cfg.OffsetRangeSeconds < 0 {
		return nil, fmt.Errorf("diffusion config must be non-negative: %+v", cfg)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(defaultStageSeed))
	}

	spanSamples := spanSeconds * sampleRate
	capacity := int(math.Ceil(spanSamples+(cfg.OffsetRangeSeconds+cfg.ModAmpSeconds)*sampleRate)) + delayPadSamples

	line, err := delay.New(capacity)
	if err != nil {
		return nil, err
	}

	s := &Stage{
		delay:         line,
		spanSamples:   spanSamples,
		modAmpSamples: cfg.ModAmpSeconds * sampleRate,
		sampleRate:    sampleRate,
		cfg:           cfg,
	}
	for i := range lane.Width {
		if i%2 == 0 {
			s.polarity[i] = -1
		} else {
			s.polarity[i] = 1
		}
		s.offsets[i] = (rng.Float64()*2 - 1) * cfg.OffsetRangeSeconds * sampleRate
		s.phases[i] = rng.Float64()
	}
	s.initPhases = s.phases

	return s, nil
}

// ProcessSample runs one diffusion step. size in [0,1] scales the lane delay
// spread; modDepth in [0,1] scales the delay-time modulation.
func (s *Stage) ProcessSample(size, modDepth float64, input lane.Vector) lane.Vector {
	var pos lane.Vector
	for i := range lane.Width {
		t := float64(i) / lane.Width
		pos[i] = s.spanSamples*t*size + s.offsets[i] +
			s.modAmpSamples*modDepth*math.Sin(2*math.Pi*s.phases[i])

		s.phases[i] += s.cfg.LFORateHz / s.sampleRate
		if s.phases[i] >= 1 {
			s.phases[i]--
		}
	}

	taps := s.shuffle(s.delay.Get(pos))
	s.delay.Push(input)

	return mix.Householder(s.polarity.Mul(taps))
}

// ProcessBlock applies ProcessSample across sample-aligned parameter arrays,
// overwriting buf. All three slices must have the same length.
func (s *Stage) ProcessBlock(size, modDepth []float64, buf []lane.Vector) {
	for i := range buf {
		buf[i] = s.ProcessSample(size[i], modDepth[i], buf[i])
	}
}

// Reset clears the delay buffer and rewinds the LFO phases to their
// construction-time values. Jitter offsets are untouched.
func (s *Stage) Reset() {
	s.delay.Reset()
	s.phases = s.initPhases
}

// Span returns the configured stage span in seconds.
func (s *Stage) Span() float64 {
	return s.spanSamples / s.sampleRate
}

func (s *Stage) shuffle(v lane.Vector) lane.Vector {
	var out lane.Vector
	for n := range lane.Width {
		idx := (n*s.cfg.ShuffleStride + s.cfg.ShuffleOffset) % lane.Width
		if idx < 0 {
			idx += lane.Width
		}
		if n%2 == 0 {
			out[n] = v[idx]
		} else {
			out[n] = -v[idx]
		}
	}
	return out
}
