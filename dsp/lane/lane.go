// Package lane provides the fixed-width vector sample type shared by every
// processing stage. All internal state of the reverb core is expressed as
// vectors of Width parallel lanes so that decorrelated signal paths are
// processed with a single set of operations.
package lane

import "math"

// Width is the number of parallel processing lanes.
//
// The diffusion network mixes lanes with butterfly transforms, so Width must
// stay a power of two.
const Width = 8

// Vector is one sample across all lanes. It is a value type; operations
// return new vectors and never allocate.
type Vector [Width]float64

// Splat returns a vector with every lane set to v.
func Splat(v float64) Vector {
	var out Vector
	for i := range Width {
		out[i] = v
	}
	return out
}

// FromStereo expands a stereo frame into lane width by alternating
// duplication: [l, r, l, r, ...].
func FromStereo(left, right float64) Vector {
	var out Vector
	for i := range Width {
		if i%2 == 0 {
			out[i] = left
		} else {
			out[i] = right
		}
	}
	return out
}

// Stereo collapses a vector back to a stereo frame by lane selection.
func (v Vector) Stereo() (left, right float64) {
	return v[0], v[1]
}

// Add returns v + w elementwise.
func (v Vector) Add(w Vector) Vector {
	for i := range Width {
		v[i] += w[i]
	}
	return v
}

// Sub returns v - w elementwise.
func (v Vector) Sub(w Vector) Vector {
	for i := range Width {
		v[i] -= w[i]
	}
	return v
}

// Mul returns the elementwise product of v and w.
func (v Vector) Mul(w Vector) Vector {
	for i := range Width {
		v[i] *= w[i]
	}
	return v
}

// Scale returns v with every lane multiplied by k.
func (v Vector) Scale(k float64) Vector {
	for i := range Width {
		v[i] *= k
	}
	return v
}

// Sum returns the sum of all lanes.
func (v Vector) Sum() float64 {
	s := 0.0
	for i := range Width {
		s += v[i]
	}
	return s
}

// Lerp returns v*(1-t) + w*t elementwise.
func (v Vector) Lerp(w Vector, t float64) Vector {
	for i := range Width {
		v[i] += t * (w[i] - v[i])
	}
	return v
}

// Map applies f to every lane.
func (v Vector) Map(f func(float64) float64) Vector {
	for i := range Width {
		v[i] = f(v[i])
	}
	return v
}

// IsFinite reports whether no lane holds a NaN or infinity.
func (v Vector) IsFinite() bool {
	for i := range Width {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}
