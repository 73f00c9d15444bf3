package allpass

import (
	"math"
	"testing"

	"github.com/SolarLiner/nih-reverb/dsp/lane"
)

// --- single section ---

func TestZeroGainIsPureDelay(t *testing.T) {
	ap, err := New(16)
	if err != nil {
		t.Fatal(err)
	}

	var zero lane.Vector
	in := []float64{1, 2, 3, 4, 5}
	var got []float64
	for _, x := range in {
		got = append(got, ap.ProcessSample(zero, 3, lane.Splat(x))[0])
	}
	for i := 0; i < 10; i++ {
		got = append(got, ap.ProcessSample(zero, 3, lane.Vector{})[0])
	}

	// With gain 0 the section reduces to a 4-sample delay
	// (tap position 3 plus the one-sample push latency).
	for i, x := range in {
		if got[i+4] != x {
			t.Fatalf("sample %d: got %v want %v", i+4, got[i+4], x)
		}
	}
}

func TestSectionEnergyPreserved(t *testing.T) {
	ap, err := New(64)
	if err != nil {
		t.Fatal(err)
	}

	gain := lane.Splat(0.5)

	// An impulse through an allpass has unit total energy.
	total := 0.0
	out := ap.ProcessSample(gain, 17, lane.Splat(1))
	for i := 0; i < 20000; i++ {
		total += out[0] * out[0]
		out = ap.ProcessSample(gain, 17, lane.Vector{})
	}

	if math.Abs(total-1) > 1e-6 {
		t.Fatalf("impulse energy: got %v want 1", total)
	}
}

func TestSectionReset(t *testing.T) {
	ap, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	gain := lane.Splat(0.7)
	ap.ProcessSample(gain, 2, lane.Splat(1))
	ap.Reset()

	out := ap.ProcessSample(gain, 2, lane.Vector{})
	if out != (lane.Vector{}) {
		t.Fatalf("state after reset: %v", out[0])
	}
}

// --- chain ---

func TestNewChainValidation(t *testing.T) {
	if _, err := NewChain(nil); err == nil {
		t.Fatal("expected error for empty chain")
	}

	if _, err := NewChain([]float64{10, -1}); err == nil {
		t.Fatal("expected error for negative delay")
	}
}

func TestChainFiniteAndDecays(t *testing.T) {
	chain, err := NewChain([]float64{142, 107, 379, 277})
	if err != nil {
		t.Fatal(err)
	}

	gain := lane.Splat(0.6)
	out := chain.ProcessSample(1, 0, gain, lane.Splat(1))
	peak := 0.0
	for i := 0; i < 44100; i++ {
		if !out.IsFinite() {
			t.Fatalf("non-finite output at %d", i)
		}
		if a := math.Abs(out[0]); a > peak {
			peak = a
		}
		out = chain.ProcessSample(1, 0, gain, lane.Vector{})
	}

	if peak > 4 {
		t.Fatalf("chain peak too large: %v", peak)
	}

	if math.Abs(out[0]) > 1e-3 {
		t.Fatalf("chain did not decay: %v", out[0])
	}
}

func TestChainSizeClamped(t *testing.T) {
	chain, err := NewChain([]float64{50})
	if err != nil {
		t.Fatal(err)
	}

	// Out-of-range size values must not panic or produce non-finite output.
	gain := lane.Splat(0.4)
	for _, size := range []float64{-1, 0, 0.5, 1, 2} {
		out := chain.ProcessSample(size, 5, gain, lane.Splat(1))
		if !out.IsFinite() {
			t.Fatalf("size %v: non-finite output", size)
		}
	}
}
