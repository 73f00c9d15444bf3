// Package biquad implements the lane-vectorized recursive filter sections
// used for feedback damping. Coefficients and state are independent:
// coefficients may be swapped every sample while the state keeps running, and
// the state must be reset explicitly on discontinuous mode switches.
package biquad

import "github.com/SolarLiner/nih-reverb/dsp/lane"

// Coefficients holds per-lane transfer function coefficients for one
// second-order section. a0 is normalized to 1 and not stored.
//
// The sign convention follows Direct Form II Transposed:
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 lane.Vector // feedforward (numerator)
	A1, A2     lane.Vector // feedback (denominator)
}

// Identity returns pass-through coefficients.
func Identity() Coefficients {
	return Coefficients{B0: lane.Splat(1)}
}

// Filter is a single biquad section with coefficients and internal state,
// processed lane-wise in Direct Form II Transposed.
type Filter struct {
	Coefficients

	d0, d1 lane.Vector
}

// New returns a Filter initialized with the given coefficients and zero state.
func New(c Coefficients) *Filter {
	return &Filter{Coefficients: c}
}

// ProcessSample filters one lane-vector sample and returns the output.
func (f *Filter) ProcessSample(x lane.Vector) lane.Vector {
	var y lane.Vector
	for i := range lane.Width {
		yi := f.B0[i]*x[i] + f.d0[i]
		f.d0[i] = f.B1[i]*x[i] - f.A1[i]*yi + f.d1[i]
		f.d1[i] = f.B2[i]*x[i] - f.A2[i]*yi
		y[i] = yi
	}
	return y
}

// SetCoefficients swaps coefficients without touching filter state. Use this
// for smooth cutoff changes within the same mode; switch modes through Reset.
func (f *Filter) SetCoefficients(c Coefficients) {
	f.Coefficients = c
}

// Reset clears the filter state to zero.
func (f *Filter) Reset() {
	f.d0 = lane.Vector{}
	f.d1 = lane.Vector{}
}

// State returns the current state cells [d0, d1].
func (f *Filter) State() [2]lane.Vector {
	return [2]lane.Vector{f.d0, f.d1}
}
