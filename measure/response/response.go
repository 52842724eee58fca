package response

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-convolve/dsp/core"
)

// Errors returned by response analysis.
var (
	ErrEmptyTaps         = errors.New("response: no taps")
	ErrInvalidSampleRate = errors.New("response: sample rate must be positive")
)

// MinFFTSize is the smallest transform length used for analysis.
const MinFFTSize = 1024

// Metrics holds the response summary of an FIR filter.
type Metrics struct {
	Taps          int
	DCGain        float64 // sum of taps
	PeakGain      float64 // max |H(f)|
	PeakGainDB    float64
	PeakFrequency float64 // Hz
	PeakTapIndex  int     // index of the largest absolute tap
	FFTSize       int
}

// Analyzer computes FIR response metrics at a fixed sample rate.
type Analyzer struct {
	SampleRate float64
}

// NewAnalyzer creates an analyzer for sampleRate.
func NewAnalyzer(sampleRate float64) *Analyzer {
	return &Analyzer{SampleRate: sampleRate}
}

// Analyze computes the response metrics of taps.
func (a *Analyzer) Analyze(taps []float32) (Metrics, error) {
	if len(taps) == 0 {
		return Metrics{}, ErrEmptyTaps
	}
	if a.SampleRate <= 0 {
		return Metrics{}, ErrInvalidSampleRate
	}

	mag, err := Magnitude(taps, 0)
	if err != nil {
		return Metrics{}, err
	}
	fftSize := 2 * (len(mag) - 1)

	peakBin := floats.MaxIdx(mag)
	m := Metrics{
		Taps:          len(taps),
		PeakGain:      mag[peakBin],
		PeakGainDB:    core.LinearToDB(mag[peakBin]),
		PeakFrequency: float64(peakBin) * a.SampleRate / float64(fftSize),
		PeakTapIndex:  peakTap(taps),
		FFTSize:       fftSize,
	}
	for _, v := range taps {
		m.DCGain += float64(v)
	}
	return m, nil
}

// Magnitude returns |H(k)| for the n/2+1 bins of an n-point transform of taps.
// n is rounded up to a power of two no smaller than len(taps) and MinFFTSize;
// pass 0 to use the smallest such size.
func Magnitude(taps []float32, n int) ([]float64, error) {
	if len(taps) == 0 {
		return nil, ErrEmptyTaps
	}
	n = nextPowerOf2(max(n, len(taps), MinFFTSize))

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("response: failed to create FFT plan: %w", err)
	}

	padded := make([]complex128, n)
	for i, v := range taps {
		padded[i] = complex(float64(v), 0)
	}
	spec := make([]complex128, n)
	if err := plan.Forward(spec, padded); err != nil {
		return nil, fmt.Errorf("response: forward FFT failed: %w", err)
	}

	bins := n/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	for k := range bins {
		re[k] = real(spec[k])
		im[k] = imag(spec[k])
	}
	out := make([]float64, bins)
	vecmath.Magnitude(out, re, im)
	return out, nil
}

func peakTap(taps []float32) int {
	idx := 0
	peak := math.Abs(float64(taps[0]))
	for i, v := range taps {
		if a := math.Abs(float64(v)); a > peak {
			peak = a
			idx = i
		}
	}
	return idx
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
