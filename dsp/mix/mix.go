// Package mix provides the stateless energy-preserving lane mixes that turn
// parallel delay taps into a dense feedback network.
package mix

import (
	"math"

	"github.com/SolarLiner/nih-reverb/dsp/lane"
)

// Householder reflects v about the all-ones direction:
//
//	v'[i] = v[i] + sum(v) * (-2/L)
//
// The reflection is orthogonal, spreading energy across all lanes without
// amplification.
func Householder(v lane.Vector) lane.Vector {
	s := v.Sum() * (-2.0 / lane.Width)
	for i := range lane.Width {
		v[i] += s
	}
	return v
}

// Hadamard applies the fast Walsh-Hadamard butterflies in place: pairwise
// sums and differences at doubling strides. The raw transform scales energy
// by the lane count; use HadamardOrtho for the energy-preserving form.
func Hadamard(v lane.Vector) lane.Vector {
	for h := 1; h < lane.Width; h *= 2 {
		for i := 0; i < lane.Width; i += h * 2 {
			for j := i; j < i+h; j++ {
				x, y := v[j], v[j+h]
				v[j] = x + y
				v[j+h] = x - y
			}
		}
	}
	return v
}

// HadamardOrtho is the orthonormal Walsh-Hadamard transform, scaled by
// 1/sqrt(L) so the sum of squares is preserved.
func HadamardOrtho(v lane.Vector) lane.Vector {
	return Hadamard(v).Scale(1 / math.Sqrt(lane.Width))
}
