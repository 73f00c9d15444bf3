//go:build !fastmath

package reverb

import (
	"math"

	"github.com/SolarLiner/nih-reverb/dsp/lane"
)

// saturate soft-clips every lane with tanh, bounding the energy circulating
// in the feedback loop.
func saturate(v lane.Vector) lane.Vector {
	for i := range lane.Width {
		v[i] = math.Tanh(v[i])
	}
	return v
}
