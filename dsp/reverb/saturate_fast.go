//go:build fastmath

package reverb

import (
	"github.com/meko-christian/algo-approx"

	"github.com/SolarLiner/nih-reverb/dsp/lane"
)

// saturate soft-clips every lane with an exp-based tanh approximation:
// tanh(x) = 1 - 2/(e^(2x) + 1). The approximation error stays well below
// audibility for the |x| < ~4 range the feedback loop produces.
func saturate(v lane.Vector) lane.Vector {
	for i := range lane.Width {
		t := approx.FastExp(2 * v[i])
		v[i] = (t - 1) / (t + 1)
	}
	return v
}
