// Package level computes level statistics of a float32 sample buffer relative to
// digital full scale (|x| = 1).
package level

import (
	"math"

	"github.com/cwbudde/algo-convolve/dsp/core"
)

// FullScale is the magnitude beyond which a sample clips when encoded.
const FullScale = 1.0

// Stats holds level statistics of a buffer.
type Stats struct {
	Length        int
	DC            float64 // mean
	RMS           float64
	RMSDB         float64
	Peak          float64 // max |x|
	PeakDB        float64
	PeakPos       int
	CrestFactorDB float64 // peak / RMS in dB, 0 for silence
	Clipped       int     // samples with |x| > FullScale
}

// Calculate computes all statistics in a single pass.
func Calculate(x []float32) Stats {
	n := len(x)
	if n == 0 {
		return Stats{
			RMSDB:  math.Inf(-1),
			PeakDB: math.Inf(-1),
		}
	}

	var (
		sum, c  float64 // Kahan-compensated sum
		sumSq   float64
		peak    float64
		peakPos int
		clipped int
	)
	for i, v := range x {
		f := float64(v)

		y := f - c
		t := sum + y
		c = (t - sum) - y
		sum = t

		sumSq += f * f

		a := math.Abs(f)
		if a > peak {
			peak = a
			peakPos = i
		}
		if a > FullScale {
			clipped++
		}
	}

	rms := math.Sqrt(sumSq / float64(n))
	s := Stats{
		Length:  n,
		DC:      sum / float64(n),
		RMS:     rms,
		RMSDB:   core.LinearToDB(rms),
		Peak:    peak,
		PeakDB:  core.LinearToDB(peak),
		PeakPos: peakPos,
		Clipped: clipped,
	}
	if rms > 0 {
		s.CrestFactorDB = core.LinearToDB(peak / rms)
	}
	return s
}
