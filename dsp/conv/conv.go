package conv

import (
	"errors"
)

// Errors returned by convolution functions.
var (
	ErrEmptyInput        = errors.New("conv: empty input")
	ErrEmptyKernel       = errors.New("conv: empty kernel")
	ErrLengthMismatch    = errors.New("conv: buffer length mismatch")
	ErrNotConvolved      = errors.New("conv: output not convolved")
	ErrAlreadyNormalized = errors.New("conv: output already normalized")
)

// OutputLen returns the full linear convolution length for inputs of length n and m,
// or 0 if either is empty.
func OutputLen(n, m int) int {
	if n <= 0 || m <= 0 {
		return 0
	}
	return n + m - 1
}

// Direct performs direct time-domain linear convolution of a and b.
// Returns a new slice of length len(a) + len(b) - 1.
func Direct(a, b []float32) ([]float32, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}

	result := make([]float32, OutputLen(len(a), len(b)))
	convolveRange(result, a, b, 0, len(result))
	return result, nil
}

// DirectTo performs direct convolution, writing to a pre-allocated destination.
// dst must have length OutputLen(len(a), len(b)).
func DirectTo(dst, a, b []float32) error {
	if len(dst) != OutputLen(len(a), len(b)) {
		return ErrLengthMismatch
	}

	convolveRange(dst, a, b, 0, len(dst))
	return nil
}

// convolveRange computes dst[lo:hi] of the full convolution of src and ir.
// Taps are accumulated in ascending j order starting from zero.
func convolveRange(dst, src, ir []float32, lo, hi int) {
	n := len(src)
	m := len(ir)

	for i := lo; i < hi; i++ {
		jMin := 0
		if i-n+1 > 0 {
			jMin = i - n + 1
		}
		jMax := m - 1
		if i < jMax {
			jMax = i
		}

		var acc float32
		for j := jMin; j <= jMax; j++ {
			acc += src[i-j] * ir[j]
		}
		dst[i] = acc
	}
}

// sumInOrder returns the sum of x accumulated left to right.
func sumInOrder(x []float32) float32 {
	var sum float32
	for _, v := range x {
		sum += v
	}
	return sum
}
