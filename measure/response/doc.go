// Package response summarizes the frequency response of an FIR filter.
//
// The taps are zero-padded to a power-of-two FFT length (at least
// [MinFFTSize]) and the magnitude of the one-sided spectrum is searched for its
// peak. The DC gain is reported as the plain sum of taps, which is the value a
// gain normalization divides by.
package response
