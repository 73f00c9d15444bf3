// Package allpass provides Schroeder-style feedback allpass sections over
// lane-vector delays. The serial Chain is an alternative input diffuser for
// hosts that want a static (unmodulated) early stage in front of the engine.
package allpass

import (
	"fmt"
	"math"

	"github.com/SolarLiner/nih-reverb/dsp/delay"
	"github.com/SolarLiner/nih-reverb/dsp/lane"
)

// Allpass is a single one-multiply Schroeder allpass section:
//
//	v   = in + tap*gain
//	out = tap - v*gain
//	push(v)
//
// which has unit magnitude response for |gain| < 1.
type Allpass struct {
	delay *delay.Line
}

// New returns an allpass section over a delay of the given capacity.
func New(capacity int) (*Allpass, error) {
	line, err := delay.New(capacity)
	if err != nil {
		return nil, err
	}
	return &Allpass{delay: line}, nil
}

// ProcessSample runs one step, reading the feedback tap at fractional
// position pos.
func (a *Allpass) ProcessSample(gain lane.Vector, pos float64, input lane.Vector) lane.Vector {
	fb := a.delay.Tap(pos)
	v := input.Add(fb.Mul(gain))
	a.delay.Push(v)
	return fb.Sub(v.Mul(gain))
}

// Reset clears the delay state.
func (a *Allpass) Reset() {
	a.delay.Reset()
}

// Chain is a series of allpass sections with fixed per-section delay times
// that scale together with a size control.
type Chain struct {
	sections []*Allpass
	delays   []float64
}

// NewChain builds one section per entry of delays (in samples). Each entry
// sets both the section capacity and its full-size tap position.
func NewChain(delays []float64) (*Chain, error) {
	if len(delays) == 0 {
		return nil, fmt.Errorf("allpass chain needs at least one delay")
	}

	c := &Chain{
		sections: make([]*Allpass, len(delays)),
		delays:   append([]float64(nil), delays...),
	}
	for i, d := range delays {
		if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, fmt.Errorf("allpass delay must be > 0: %f", d)
		}
		ap, err := New(int(math.Ceil(d)) + 4)
		if err != nil {
			return nil, err
		}
		c.sections[i] = ap
	}
	return c, nil
}

// ProcessSample folds the input through all sections. size in [0,1] scales
// each section's tap between offset (at 0) and its configured delay (at 1).
func (c *Chain) ProcessSample(size, offset float64, gain lane.Vector, input lane.Vector) lane.Vector {
	k := size
	if k < 0 {
		k = 0
	} else if k > 1 {
		k = 1
	}

	out := input
	for i, ap := range c.sections {
		out = ap.ProcessSample(gain, c.delays[i]*k+offset*(1-k), out)
	}
	return out
}

// Reset clears every section.
func (c *Chain) Reset() {
	for _, ap := range c.sections {
		ap.Reset()
	}
}
