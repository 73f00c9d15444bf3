// Command reverbir renders the reverb impulse response offline, prints its
// decay metrics, and optionally writes the response to a stereo WAV file.
//
// Usage:
//
//	reverbir [flags]
//
// Examples:
//
//	reverbir
//	reverbir -feedback 0.8 -size 0.7 -seconds 10
//	reverbir -pitch 0.5 -out shimmer.wav
//	reverbir -rate 48000 -damp-high 4000 -out dark.wav
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-vecmath"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/SolarLiner/nih-reverb/dsp/reverb"
	"github.com/SolarLiner/nih-reverb/measure/decay"
)

const normalizePeak = 0.891 // -1 dBFS

func main() {
	rate := flag.Float64("rate", 44100, "sample rate in Hz")
	seconds := flag.Float64("seconds", 5, "render length in seconds")
	out := flag.String("out", "", "write the response to this WAV file")
	bits := flag.Int("bits", 16, "WAV bit depth (16 or 24)")
	seed := flag.Int64("seed", 0x5eed, "engine construction seed")

	size := flag.Float64("size", 0.5, "diffusion spread [0..1]")
	feedback := flag.Float64("feedback", 0.5, "feedback gain [0..1.25]")
	delayTime := flag.Float64("delay", 0.2, "feedback delay in seconds")
	modDepth := flag.Float64("mod-depth", 0.1, "modulation depth [0..1]")
	modSpeed := flag.Float64("mod-speed", 0.3, "modulation rate in Hz")
	dampLow := flag.Float64("damp-low", 20, "low damping cutoff in Hz")
	dampHigh := flag.Float64("damp-high", 20000, "high damping cutoff in Hz")
	pitch := flag.Float64("pitch", 0, "shimmer blend [0..1]")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: reverbir [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Renders the reverb impulse response and prints decay metrics.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  reverbir -feedback 0.8 -seconds 10\n")
		fmt.Fprintf(os.Stderr, "  reverbir -pitch 0.5 -out shimmer.wav\n")
	}
	flag.Parse()

	p := reverb.Params{
		Size:        *size,
		Feedback:    *feedback,
		DelayTime:   *delayTime,
		ModDepth:    *modDepth,
		ModSpeed:    *modSpeed,
		DampLowHz:   *dampLow,
		DampHighHz:  *dampHigh,
		PitchAmount: *pitch,
	}.Clamp()

	if err := run(*rate, *seconds, *out, *bits, *seed, p); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(rate, seconds float64, out string, bits int, seed int64, p reverb.Params) error {
	if seconds <= 0 {
		return fmt.Errorf("render length must be > 0: %f", seconds)
	}

	if bits != 16 && bits != 24 {
		return fmt.Errorf("unsupported bit depth: %d", bits)
	}

	engine, err := reverb.New(rate, reverb.WithSeed(seed))
	if err != nil {
		return err
	}

	left, right := render(engine, p, int(seconds*rate))

	if err := printMetrics(rate, left); err != nil {
		return err
	}

	if out == "" {
		return nil
	}

	if err := writeWAV(out, int(rate), bits, left, right); err != nil {
		return err
	}

	fmt.Printf("\nwrote %s\n", out)

	return nil
}

// render feeds a unit impulse through the engine and captures the response.
func render(engine *reverb.Engine, p reverb.Params, n int) (left, right []float64) {
	left = make([]float64, n)
	right = make([]float64, n)

	left[0], right[0] = engine.ProcessSample(p, 1, 1)
	for i := 1; i < n; i++ {
		left[i], right[i] = engine.ProcessSample(p, 0, 0)
	}

	return left, right
}

func printMetrics(rate float64, response []float64) error {
	analyzer := decay.NewAnalyzer(rate)

	m, err := analyzer.Analyze(response)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "RT60\t%.3f s\n", m.RT60)
	fmt.Fprintf(tw, "EDT\t%.3f s\n", m.EDT)
	fmt.Fprintf(tw, "T20\t%.3f s\n", m.T20)
	fmt.Fprintf(tw, "T30\t%.3f s\n", m.T30)
	fmt.Fprintf(tw, "Peak\t%.4f\n", m.PeakAbs)
	fmt.Fprintf(tw, "Tail RMS\t%.2e\n", m.TailRMS)
	fmt.Fprintf(tw, "Spectral centroid\t%.1f Hz\n", m.SpectralCentroid)

	return tw.Flush()
}

// writeWAV normalizes both channels by the joint peak and writes an
// interleaved stereo PCM file.
func writeWAV(path string, rate, bits int, left, right []float64) error {
	peak := 0.0
	for i := range left {
		peak = math.Max(peak, math.Max(math.Abs(left[i]), math.Abs(right[i])))
	}

	normL := make([]float64, len(left))
	normR := make([]float64, len(right))

	if peak > 0 {
		vecmath.ScaleBlock(normL, left, normalizePeak/peak)
		vecmath.ScaleBlock(normR, right, normalizePeak/peak)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	fullScale := float64(int(1)<<(bits-1)) - 1

	data := make([]int, 2*len(normL))
	for i := range normL {
		data[2*i] = int(math.Round(normL[i] * fullScale))
		data[2*i+1] = int(math.Round(normR[i] * fullScale))
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: rate},
		Data:           data,
		SourceBitDepth: bits,
	}

	enc := wav.NewEncoder(f, rate, bits, 2, 1)
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()

		return err
	}

	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
