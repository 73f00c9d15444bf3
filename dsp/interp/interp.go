// Package interp provides the fractional-position interpolation used by the
// delay lines. Delay times are continuously modulated, so the interpolator
// must be exact at integer positions and continuous in between.
package interp

import "github.com/SolarLiner/nih-reverb/dsp/lane"

// CatmullRom computes 4-point cubic interpolation between x0 and x1 at
// fraction t in [0, 1], using the neighbor points xm1 and x2:
//
//	x0 + 0.5*t*(x1-xm1 + t*(2*xm1-5*x0+4*x1-x2 + t*(3*(x0-x1)+x2-xm1)))
//
// At t=0 the result is exactly x0 and at t=1 exactly x1.
func CatmullRom(t, xm1, x0, x1, x2 float64) float64 {
	return x0 + 0.5*t*(x1-xm1+t*(2*xm1-5*x0+4*x1-x2+t*(3*(x0-x1)+x2-xm1)))
}

// CatmullRomVec is CatmullRom applied lane-wise to vector samples.
func CatmullRomVec(t float64, xm1, x0, x1, x2 lane.Vector) lane.Vector {
	var out lane.Vector
	for i := range lane.Width {
		out[i] = CatmullRom(t, xm1[i], x0[i], x1[i], x2[i])
	}
	return out
}

// Linear computes straight-line interpolation between x0 and x1.
func Linear(t, x0, x1 float64) float64 {
	return x0 + t*(x1-x0)
}
