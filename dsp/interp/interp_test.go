package interp

import (
	"math"
	"testing"

	"github.com/SolarLiner/nih-reverb/dsp/lane"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestCatmullRomExactAtEndpoints(t *testing.T) {
	xm1, x0, x1, x2 := 0.3, -1.7, 2.5, 0.9

	if got := CatmullRom(0, xm1, x0, x1, x2); got != x0 {
		t.Fatalf("t=0: got %v want %v", got, x0)
	}

	if got := CatmullRom(1, xm1, x0, x1, x2); !approxEqual(got, x1, 1e-12) {
		t.Fatalf("t=1: got %v want %v", got, x1)
	}
}

func TestCatmullRomLinearRamp(t *testing.T) {
	// On a linear ramp the cubic reduces to the ramp itself.
	got := CatmullRom(0.25, 1, 2, 3, 4)
	if !approxEqual(got, 2.25, 1e-12) {
		t.Fatalf("got %v want 2.25", got)
	}
}

func TestCatmullRomContinuity(t *testing.T) {
	// Values at the end of one span and the start of the next must meet.
	a := CatmullRom(1, 0, 1, 4, 9)
	b := CatmullRom(0, 1, 4, 9, 16)

	if !approxEqual(a, b, 1e-12) {
		t.Fatalf("span boundary: %v vs %v", a, b)
	}
}

func TestCatmullRomVecMatchesScalar(t *testing.T) {
	xm1 := lane.Splat(0.5)
	x0 := lane.Splat(1.5)
	x1 := lane.Splat(-0.5)
	x2 := lane.Splat(2.0)

	got := CatmullRomVec(0.37, xm1, x0, x1, x2)
	want := CatmullRom(0.37, 0.5, 1.5, -0.5, 2.0)

	for i := range lane.Width {
		if !approxEqual(got[i], want, 1e-12) {
			t.Fatalf("lane %d: got %v want %v", i, got[i], want)
		}
	}
}

func TestLinear(t *testing.T) {
	if got := Linear(0.5, 2, 4); got != 3 {
		t.Fatalf("got %v want 3", got)
	}
}
