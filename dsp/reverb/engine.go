// Package reverb implements the feedback-delay-network engine: one long
// modulated feedback delay, a series damping filter pair, the diffusion
// cascade and the pitch-shifted shimmer path, orchestrated per sample.
//
// The engine is a pure state-transition function driven from the host's
// real-time audio thread: no locks, no allocation and no error paths inside
// ProcessSample. Samples must arrive in strict order. Reconfiguration
// (SetSampleRate) must never overlap a processing call; sequencing that is
// the host's responsibility.
package reverb

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/SolarLiner/nih-reverb/dsp/delay"
	"github.com/SolarLiner/nih-reverb/dsp/diffusion"
	"github.com/SolarLiner/nih-reverb/dsp/filter/biquad"
	"github.com/SolarLiner/nih-reverb/dsp/lane"
	"github.com/SolarLiner/nih-reverb/dsp/pitch"
)

const (
	defaultFeedbackSeconds    = 2.0
	defaultMaxSpanSeconds     = 0.4
	defaultPitchBufferSeconds = 0.3
	defaultPitchRatio         = 2.0
	defaultModAmpSeconds      = 3e-3
	defaultSeed               = 0x5eed

	minNormCutoff = 1e-5
	maxNormCutoff = 0.49

	minFeedbackTapSamples = 1.0
	cubicGuardSamples     = 4
)

// Params is the per-sample parameter set. Values are supplied pre-smoothed
// by the host and treated as read-only for the duration of one call.
type Params struct {
	Size        float64 // diffusion spread, [0, 1]
	Feedback    float64 // feedback gain, [0, 1.25]
	DelayTime   float64 // feedback tap, seconds, [1e-3, 2]
	ModDepth    float64 // delay-time modulation depth, [0, 1]
	ModSpeed    float64 // modulation rate, Hz, [1e-3, 3]
	DampLowHz   float64 // low-damping highpass cutoff, [20, 20000]
	DampHighHz  float64 // high-damping lowpass cutoff, [20, 20000]
	PitchAmount float64 // shimmer blend, [0, 1]
}

// Clamp returns a copy of p with every field forced into its documented
// range. The engine itself does not clamp; hosts that cannot guarantee
// ranges should.
func (p Params) Clamp() Params {
	p.Size = clamp(p.Size, 0, 1)
	p.Feedback = clamp(p.Feedback, 0, 1.25)
	p.DelayTime = clamp(p.DelayTime, 1e-3, 2)
	p.ModDepth = clamp(p.ModDepth, 0, 1)
	p.ModSpeed = clamp(p.ModSpeed, 1e-3, 3)
	p.DampLowHz = clamp(p.DampLowHz, 20, 20000)
	p.DampHighHz = clamp(p.DampHighHz, 20, 20000)
	p.PitchAmount = clamp(p.PitchAmount, 0, 1)
	return p
}

// Config holds the construction-time tunables of the engine.
type Config struct {
	FeedbackSeconds    float64 // feedback delay capacity
	MaxSpanSeconds     float64 // diffusion cascade time base
	PitchBufferSeconds float64 // shimmer grain ring capacity
	PitchRatio         float64 // fixed shimmer ratio (2 = octave up)
	ModAmpSeconds      float64 // feedback-tap modulation amplitude
	Seed               int64   // construction-time randomness
	Diffusion          diffusion.Config
}

// DefaultConfig returns the canonical engine tuning.
func DefaultConfig() Config {
	return Config{
		FeedbackSeconds:    defaultFeedbackSeconds,
		MaxSpanSeconds:     defaultMaxSpanSeconds,
		PitchBufferSeconds: defaultPitchBufferSeconds,
		PitchRatio:         defaultPitchRatio,
		ModAmpSeconds:      defaultModAmpSeconds,
		Seed:               defaultSeed,
		Diffusion:          diffusion.DefaultConfig(),
	}
}

// Option mutates the engine configuration at construction.
type Option func(*Config)

// WithSeed fixes the construction-time randomness for deterministic tests.
func WithSeed(seed int64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithPitchRatio sets the fixed shimmer pitch ratio.
func WithPitchRatio(ratio float64) Option {
	return func(c *Config) { c.PitchRatio = ratio }
}

// WithMaxSpan sets the diffusion cascade time base in seconds.
func WithMaxSpan(seconds float64) Option {
	return func(c *Config) { c.MaxSpanSeconds = seconds }
}

// WithFeedbackSeconds sets the feedback delay capacity in seconds.
func WithFeedbackSeconds(seconds float64) Option {
	return func(c *Config) { c.FeedbackSeconds = seconds }
}

// WithDiffusionConfig overrides the diffusion stage constants.
func WithDiffusionConfig(cfg diffusion.Config) Option {
	return func(c *Config) { c.Diffusion = cfg }
}

// Engine is the reverb core. All owned state is sized from the sample rate
// at construction and rebuilt wholesale on SetSampleRate.
type Engine struct {
	sampleRate float64
	cfg        Config

	feedback *delay.Line
	dampLow  *biquad.Filter
	dampHigh *biquad.Filter
	cascade  *diffusion.Cascade
	shifter  *pitch.Shifter

	modPhase      float64
	modAmpSamples float64
}

// New builds an engine for the given sample rate.
func New(sampleRate float64, opts ...Option) (*Engine, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg}
	if err := e.rebuild(sampleRate); err != nil {
		return nil, err
	}
	return e, nil
}

// SampleRate returns the configured sample rate in Hz.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// Config returns the construction-time configuration.
func (e *Engine) Config() Config { return e.cfg }

// SetSampleRate rebuilds every owned delay line, filter and diffusion stage
// for the new rate. It must not overlap a ProcessSample call; the rebuild
// discards all signal state.
func (e *Engine) SetSampleRate(sampleRate float64) error {
	return e.rebuild(sampleRate)
}

// Reset clears all signal state without reallocating.
func (e *Engine) Reset() {
	e.feedback.Reset()
	e.dampLow.Reset()
	e.dampHigh.Reset()
	e.cascade.Reset()
	e.shifter.Reset()
	e.modPhase = 0
}

// ProcessSample advances the engine by one sample: feedback tap, damping,
// diffusion, shimmer blend, soft clip, feedback write. The input frame is
// expanded to lane width on entry and collapsed back to stereo on return.
func (e *Engine) ProcessSample(p Params, inLeft, inRight float64) (outLeft, outRight float64) {
	sr := e.sampleRate

	base := p.DelayTime * sr
	maxTap := float64(e.feedback.Len()-cubicGuardSamples) - e.modAmpSamples
	if base < minFeedbackTapSamples {
		base = minFeedbackTapSamples
	} else if base > maxTap {
		base = maxTap
	}
	tapPos := base + e.modAmpSamples*p.ModDepth*math.Sin(2*math.Pi*e.modPhase)

	e.modPhase += p.ModSpeed / sr
	if e.modPhase >= 1 {
		e.modPhase--
	}

	tapped := e.feedback.Tap(tapPos)
	fed := lane.FromStereo(inLeft, inRight).Add(tapped.Scale(p.Feedback))

	e.dampHigh.SetCoefficients(biquad.Lowpass1P(lane.Splat(normCutoff(p.DampHighHz, sr))))
	e.dampLow.SetCoefficients(biquad.Highpass1P(lane.Splat(normCutoff(p.DampLowHz, sr))))
	damped := e.dampLow.ProcessSample(e.dampHigh.ProcessSample(fed))

	diffused := e.cascade.ProcessSample(p.Size, p.ModDepth, damped)
	shifted := e.shifter.ProcessSample(e.cfg.PitchRatio, diffused)

	saturated := saturate(diffused.Lerp(shifted, p.PitchAmount))
	e.feedback.Push(saturated)

	return saturated.Stereo()
}

// ProcessBlock applies ProcessSample in place over stereo buffers with one
// parameter set held for the whole block. Both slices must have the same
// length.
func (e *Engine) ProcessBlock(p Params, left, right []float64) {
	for i := range left {
		left[i], right[i] = e.ProcessSample(p, left[i], right[i])
	}
}

func (e *Engine) rebuild(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("reverb sample rate must be > 0: %f", sampleRate)
	}

	rng := rand.New(rand.NewSource(e.cfg.Seed))

	feedback, err := delay.New(int(math.Ceil(e.cfg.FeedbackSeconds * sampleRate)))
	if err != nil {
		return err
	}

	cascade, err := diffusion.NewCascade(sampleRate, e.cfg.MaxSpanSeconds, rng, e.cfg.Diffusion)
	if err != nil {
		return err
	}

	shifter, err := pitch.NewShifter(int(math.Ceil(e.cfg.PitchBufferSeconds * sampleRate)))
	if err != nil {
		return err
	}

	e.sampleRate = sampleRate
	e.feedback = feedback
	e.cascade = cascade
	e.shifter = shifter
	e.dampLow = biquad.New(biquad.Identity())
	e.dampHigh = biquad.New(biquad.Identity())
	e.modPhase = 0
	e.modAmpSamples = e.cfg.ModAmpSeconds * sampleRate

	return nil
}

func validateConfig(cfg Config) error {
	if cfg.FeedbackSeconds <= 0 || math.IsNaN(cfg.FeedbackSeconds) || math.IsInf(cfg.FeedbackSeconds, 0) {
		return fmt.Errorf("reverb feedback capacity must be > 0: %f", cfg.FeedbackSeconds)
	}
	if cfg.MaxSpanSeconds <= 0 || math.IsNaN(cfg.MaxSpanSeconds) || math.IsInf(cfg.MaxSpanSeconds, 0) {
		return fmt.Errorf("reverb cascade span must be > 0: %f", cfg.MaxSpanSeconds)
	}
	if cfg.PitchBufferSeconds <= 0 || math.IsNaN(cfg.PitchBufferSeconds) || math.IsInf(cfg.PitchBufferSeconds, 0) {
		return fmt.Errorf("reverb pitch buffer must be > 0: %f", cfg.PitchBufferSeconds)
	}
	if cfg.PitchRatio < 0 || math.IsNaN(cfg.PitchRatio) || math.IsInf(cfg.PitchRatio, 0) {
		return fmt.Errorf("reverb pitch ratio must be >= 0: %f", cfg.PitchRatio)
	}
	if cfg.ModAmpSeconds < 0 || math.IsNaN(cfg.ModAmpSeconds) || math.IsInf(cfg.ModAmpSeconds, 0) {
		return fmt.Errorf("reverb mod amplitude must be >= 0: %f", cfg.ModAmpSeconds)
	}
	return nil
}

func normCutoff(hz, sampleRate float64) float64 {
	return clamp(hz/sampleRate, minNormCutoff, maxNormCutoff)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
