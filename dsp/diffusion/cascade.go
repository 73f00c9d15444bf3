package diffusion

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/SolarLiner/nih-reverb/dsp/lane"
)

// Cascade chains Width diffusion stages in series. Stage i is built with a
// span of maxSpan*(1 + (i/L)^2), so early stages are tight and later ones
// stretch out, converting a single reflection into a dense tail.
type Cascade struct {
	stages [lane.Width]*Stage
}

// NewCascade builds the stage chain. maxSpanSeconds is the time base of the
// first stage; spans grow toward 2*maxSpanSeconds for the last.
func NewCascade(sampleRate, maxSpanSeconds float64, rng *rand.Rand, cfg Config) (*Cascade, error) {
	if maxSpanSeconds <= 0 || math.IsNaN(maxSpanSeconds) || math.IsInf(maxSpanSeconds, 0) {
		return nil, fmt.Errorf("cascade span must be > 0: %f", maxSpanSeconds)
	}

	c := &Cascade{}
	for i := range lane.Width {
		t := float64(i) / lane.Width
		stage, err := NewStage(sampleRate, maxSpanSeconds*(1+t*t), rng, cfg)
		if err != nil {
			return nil, err
		}
		c.stages[i] = stage
	}
	return c, nil
}

// ProcessSample folds the input through all stages in sequence.
func (c *Cascade) ProcessSample(size, modDepth float64, input lane.Vector) lane.Vector {
	out := input
	for _, stage := range c.stages {
		out = stage.ProcessSample(size, modDepth, out)
	}
	return out
}

// ProcessBlock runs the chain over sample-aligned parameter arrays in place.
func (c *Cascade) ProcessBlock(size, modDepth []float64, buf []lane.Vector) {
	for _, stage := range c.stages {
		stage.ProcessBlock(size, modDepth, buf)
	}
}

// Reset clears every stage.
func (c *Cascade) Reset() {
	for _, stage := range c.stages {
		stage.Reset()
	}
}
