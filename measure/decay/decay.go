// Package decay analyzes rendered reverb tails: reverberation times from the
// Schroeder backward integral, residual tail level, and the spectral centroid
// of the response.
package decay

import (
	"errors"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/stat"
)

// Errors returned by decay analysis functions.
var (
	ErrEmptyResponse     = errors.New("decay: response is empty")
	ErrInvalidSampleRate = errors.New("decay: sample rate must be positive")
	ErrInvalidWindow     = errors.New("decay: window must be positive")
	ErrNoDecay           = errors.New("decay: insufficient decay for RT calculation")
	ErrNonFinite         = errors.New("decay: response contains NaN or Inf samples")
)

const dbFloor = -200.0

// Metrics holds the analysis results for one impulse response.
type Metrics struct {
	RT60             float64 // reverberation time in seconds (T30, falling back to T20)
	EDT              float64 // early decay time, 0 to -10 dB extrapolated
	T20              float64 // RT from the -5 to -25 dB slope
	T30              float64 // RT from the -5 to -35 dB slope
	PeakAbs          float64 // absolute maximum of the response
	PeakIndex        int     // sample index of the peak
	TailRMS          float64 // RMS of the final second (or the whole response if shorter)
	SpectralCentroid float64 // energy-weighted mean frequency in Hz
	NonFinite        int     // count of NaN or infinite samples
}

// Analyzer computes decay metrics from impulse response data.
type Analyzer struct {
	SampleRate float64
}

// NewAnalyzer creates an analyzer for responses rendered at the given rate.
func NewAnalyzer(sampleRate float64) *Analyzer {
	return &Analyzer{SampleRate: sampleRate}
}

// Analyze computes all metrics. The response should start near the direct
// sound arrival; decay slopes are measured from the peak onward.
func (a *Analyzer) Analyze(response []float64) (Metrics, error) {
	if len(response) == 0 {
		return Metrics{}, ErrEmptyResponse
	}

	if a.SampleRate <= 0 {
		return Metrics{}, ErrInvalidSampleRate
	}

	if nf := CountNonFinite(response); nf > 0 {
		return Metrics{NonFinite: nf}, ErrNonFinite
	}

	peakIdx, peakAbs := a.findPeak(response)
	tail := response[peakIdx:]
	curve := a.schroederCurve(tail)

	m := Metrics{
		PeakAbs:   peakAbs,
		PeakIndex: peakIdx,
		EDT:       a.reverbTime(curve, 0, -10),
		T20:       a.reverbTime(curve, -5, -25),
		T30:       a.reverbTime(curve, -5, -35),
	}

	if m.T30 > 0 {
		m.RT60 = m.T30
	} else {
		m.RT60 = m.T20
	}

	m.TailRMS = a.tailRMS(response, 1.0)

	centroid, err := a.SpectralCentroid(response)
	if err != nil {
		return Metrics{}, err
	}

	m.SpectralCentroid = centroid

	return m, nil
}

// SchroederCurve computes the backward integration of the squared response,
// normalized to the total energy and returned in dB:
//
//	S(t) = 10*log10( ∫_t^∞ h²(τ) dτ / ∫_0^∞ h²(τ) dτ )
func (a *Analyzer) SchroederCurve(response []float64) ([]float64, error) {
	if len(response) == 0 {
		return nil, ErrEmptyResponse
	}

	return a.schroederCurve(response), nil
}

func (a *Analyzer) schroederCurve(response []float64) []float64 {
	n := len(response)

	energy := make([]float64, n)
	vecmath.MulBlock(energy, response, response)

	result := make([]float64, n)

	var cumSum float64
	for i := n - 1; i >= 0; i-- {
		cumSum += energy[i]
		result[i] = cumSum
	}

	totalEnergy := result[0]
	if totalEnergy <= 0 {
		return result
	}

	for i := range result {
		ratio := result[i] / totalEnergy
		if ratio <= 0 {
			result[i] = dbFloor
		} else {
			result[i] = 10 * math.Log10(ratio)
		}
	}

	return result
}

// RT60 computes the reverberation time, preferring the T30 slope and falling
// back to T20 when the response does not reach -35 dB.
func (a *Analyzer) RT60(response []float64) (float64, error) {
	if len(response) == 0 {
		return 0, ErrEmptyResponse
	}

	if a.SampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}

	curve := a.schroederCurve(response)

	if rt := a.reverbTime(curve, -5, -35); rt > 0 {
		return rt, nil
	}

	if rt := a.reverbTime(curve, -5, -25); rt > 0 {
		return rt, nil
	}

	return 0, ErrNoDecay
}

// reverbTime fits a line to the Schroeder curve between startDB and endDB
// and extrapolates the slope to -60 dB.
func (a *Analyzer) reverbTime(curve []float64, startDB, endDB float64) float64 {
	startIdx, endIdx := -1, -1

	for i, v := range curve {
		if startIdx < 0 && v <= startDB {
			startIdx = i
		}

		if startIdx >= 0 && v <= endDB {
			endIdx = i
			break
		}
	}

	if startIdx < 0 || endIdx < 0 || endIdx-startIdx < 2 {
		return 0
	}

	xs := make([]float64, endIdx-startIdx+1)
	for i := range xs {
		xs[i] = float64(startIdx+i) / a.SampleRate
	}

	_, slope := stat.LinearRegression(xs, curve[startIdx:endIdx+1], nil, false)
	if slope >= 0 {
		return 0
	}

	rt := -60.0 / slope
	if rt < 0 {
		return 0
	}

	return rt
}

// TailRMS returns the RMS level of the last windowSeconds of the response.
// Shorter responses are measured in full.
func (a *Analyzer) TailRMS(response []float64, windowSeconds float64) (float64, error) {
	if len(response) == 0 {
		return 0, ErrEmptyResponse
	}

	if a.SampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}

	if windowSeconds <= 0 {
		return 0, ErrInvalidWindow
	}

	return a.tailRMS(response, windowSeconds), nil
}

func (a *Analyzer) tailRMS(response []float64, windowSeconds float64) float64 {
	window := int(math.Round(windowSeconds * a.SampleRate))
	if window <= 0 || window > len(response) {
		window = len(response)
	}

	tail := response[len(response)-window:]

	var sum float64
	for _, v := range tail {
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(tail)))
}

// SpectralCentroid returns the magnitude-weighted mean frequency of the
// response in Hz. The response is zero-padded to the next power of two.
func (a *Analyzer) SpectralCentroid(response []float64) (float64, error) {
	if len(response) == 0 {
		return 0, ErrEmptyResponse
	}

	if a.SampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}

	fftSize := nextPowerOf2(len(response))

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return 0, err
	}

	in := make([]complex128, fftSize)
	for i, v := range response {
		in[i] = complex(v, 0)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return 0, err
	}

	binCount := fftSize/2 + 1
	re := make([]float64, binCount)
	im := make([]float64, binCount)

	for i := range binCount {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}

	mag := make([]float64, binCount)
	vecmath.Magnitude(mag, re, im)

	binWidth := a.SampleRate / float64(fftSize)

	var weighted, total float64
	for i, m := range mag {
		weighted += float64(i) * binWidth * m
		total += m
	}

	if total <= 0 {
		return 0, nil
	}

	return weighted / total, nil
}

// CountNonFinite returns the number of NaN or infinite samples in the
// response. A stable render has zero.
func CountNonFinite(response []float64) int {
	count := 0

	for _, v := range response {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			count++
		}
	}

	return count
}

// findPeak returns the index and value of the absolute maximum.
func (a *Analyzer) findPeak(response []float64) (int, float64) {
	peakIdx := 0
	peakVal := 0.0

	for i, v := range response {
		av := math.Abs(v)
		if av > peakVal {
			peakVal = av
			peakIdx = i
		}
	}

	return peakIdx, peakVal
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
