package diffusion

import (
	"math"
	"math/rand"
	"testing"

	"github.com/SolarLiner/nih-reverb/dsp/lane"
)

// --- construction ---

func TestNewStageValidation(t *testing.T) {
	cfg := DefaultConfig()

	if _, err := NewStage(0, 0.1, nil, cfg); err == nil {
		t.Fatal("expected error for sample rate 0")
	}

	if _, err := NewStage(44100, 0, nil, cfg); err == nil {
		t.Fatal("expected error for span 0")
	}

	bad := cfg
	bad.ModAmpSeconds = -1
	if _, err := NewStage(44100, 0.1, nil, bad); err == nil {
		t.Fatal("expected error for negative mod amplitude")
	}
}

func TestStageSpan(t *testing.T) {
	s, err := NewStage(48000, 0.25, nil, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(s.Span()-0.25) > 1e-12 {
		t.Fatalf("Span: got %v want 0.25", s.Span())
	}
}

// --- determinism and decorrelation ---

func TestStageDeterministicWithSeed(t *testing.T) {
	cfg := DefaultConfig()
	a, err := NewStage(44100, 0.1, rand.New(rand.NewSource(5)), cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewStage(44100, 0.1, rand.New(rand.NewSource(5)), cfg)
	if err != nil {
		t.Fatal(err)
	}

	in := lane.Splat(1)
	for i := 0; i < 2000; i++ {
		va := a.ProcessSample(0.5, 0.5, in)
		vb := b.ProcessSample(0.5, 0.5, in)
		if va != vb {
			t.Fatalf("sample %d: %v vs %v", i, va, vb)
		}
		in = lane.Vector{}
	}
}

func TestStageDecorrelatesLanes(t *testing.T) {
	s, err := NewStage(44100, 0.1, rand.New(rand.NewSource(11)), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	// Feed an impulse and collect a short response; lanes must not all match.
	s.ProcessSample(1, 0, lane.Splat(1))

	distinct := false
	for i := 0; i < 5000 && !distinct; i++ {
		out := s.ProcessSample(1, 0, lane.Vector{})
		for k := 1; k < lane.Width; k++ {
			if out[k] != out[0] && out[k] != 0 {
				distinct = true
				break
			}
		}
	}

	if !distinct {
		t.Fatal("all lanes identical across impulse response")
	}
}

// --- energy behavior ---

func TestStageImpulseEnergyBounded(t *testing.T) {
	s, err := NewStage(44100, 0.1, rand.New(rand.NewSource(3)), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	total := 0.0
	out := s.ProcessSample(0.7, 0.3, lane.Splat(1))
	for i := 0; i < 44100; i++ {
		for k := range lane.Width {
			total += out[k] * out[k]
		}
		if !out.IsFinite() {
			t.Fatalf("non-finite output at sample %d", i)
		}
		out = s.ProcessSample(0.7, 0.3, lane.Vector{})
	}

	// One pass through a single feed-forward stage cannot amplify the
	// impulse energy (Width, from the splat) by more than the mix spread.
	if total > 4*lane.Width {
		t.Fatalf("impulse energy grew: %v", total)
	}
}

// --- block processing ---

func TestStageBlockMatchesPerSample(t *testing.T) {
	cfg := DefaultConfig()
	a, err := NewStage(44100, 0.05, rand.New(rand.NewSource(21)), cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewStage(44100, 0.05, rand.New(rand.NewSource(21)), cfg)
	if err != nil {
		t.Fatal(err)
	}

	const n = 512
	size := make([]float64, n)
	modDepth := make([]float64, n)
	buf := make([]lane.Vector, n)
	for i := range buf {
		size[i] = 0.5 + 0.4*math.Sin(0.01*float64(i))
		modDepth[i] = 0.2
		buf[i] = lane.Splat(math.Sin(0.05 * float64(i)))
	}

	want := make([]lane.Vector, n)
	for i := range want {
		want[i] = a.ProcessSample(size[i], modDepth[i], buf[i])
	}

	b.ProcessBlock(size, modDepth, buf)

	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("sample %d: %v vs %v", i, buf[i], want[i])
		}
	}
}

// --- reset ---

func TestStageResetReproduces(t *testing.T) {
	s, err := NewStage(44100, 0.05, rand.New(rand.NewSource(8)), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	first := make([]lane.Vector, 300)
	for i := range first {
		first[i] = s.ProcessSample(0.5, 0.5, lane.Splat(float64(i%7)))
	}

	s.Reset()

	for i := range first {
		got := s.ProcessSample(0.5, 0.5, lane.Splat(float64(i%7)))
		if got != first[i] {
			t.Fatalf("sample %d after reset: %v vs %v", i, got, first[i])
		}
	}
}

// --- cascade ---

func TestNewCascadeValidation(t *testing.T) {
	if _, err := NewCascade(44100, 0, nil, DefaultConfig()); err == nil {
		t.Fatal("expected error for span 0")
	}
}

func TestCascadeDensifies(t *testing.T) {
	c, err := NewCascade(44100, 0.2, rand.New(rand.NewSource(17)), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	// Count nonzero output samples over one second after an impulse; the
	// chained stages should fill in far more than a single stage's taps.
	c.ProcessSample(0.8, 0.2, lane.Splat(1))

	nonzero := 0
	for i := 0; i < 44100; i++ {
		out := c.ProcessSample(0.8, 0.2, lane.Vector{})
		if !out.IsFinite() {
			t.Fatalf("non-finite output at sample %d", i)
		}
		if math.Abs(out[0]) > 1e-9 {
			nonzero++
		}
	}

	if nonzero < 1000 {
		t.Fatalf("tail too sparse: %d nonzero samples", nonzero)
	}
}

func TestCascadeReset(t *testing.T) {
	c, err := NewCascade(44100, 0.1, rand.New(rand.NewSource(2)), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	first := make([]lane.Vector, 200)
	for i := range first {
		first[i] = c.ProcessSample(0.5, 0.1, lane.Splat(float64(i%5)))
	}

	c.Reset()

	for i := range first {
		got := c.ProcessSample(0.5, 0.1, lane.Splat(float64(i%5)))
		if got != first[i] {
			t.Fatalf("sample %d after reset: %v vs %v", i, got, first[i])
		}
	}
}

// --- benchmarks ---

func BenchmarkStageProcessSample(b *testing.B) {
	s, _ := NewStage(44100, 0.2, rand.New(rand.NewSource(1)), DefaultConfig())
	in := lane.Splat(0.5)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		in = s.ProcessSample(0.5, 0.5, in)
	}
}

func BenchmarkCascadeProcessSample(b *testing.B) {
	c, _ := NewCascade(44100, 0.2, rand.New(rand.NewSource(1)), DefaultConfig())
	in := lane.Splat(0.5)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		in = c.ProcessSample(0.5, 0.5, in)
	}
}
