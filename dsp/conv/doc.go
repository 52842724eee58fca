// Package conv provides direct time-domain linear convolution of single-precision
// sample buffers.
//
// Two entry points are offered:
//
//   - [Direct] and [DirectTo]: stateless one-shot convolution.
//   - [Engine]: owns a source, an impulse and an output buffer, and recomputes the
//     output in place on every [Engine.Convolve] call. This is the form used for
//     benchmarking, since repeated calls neither allocate nor change the result.
//
// # Algorithm
//
// Every output sample is computed as a gather over the impulse taps:
//
//	y[i] = sum over j of x[i-j] * h[j],  for all j with 0 <= i-j < len(x)
//
// The valid tap range is derived once per output index, so the inner loop carries no
// bounds test. The cost is O(len(y) * len(h)). The output length is
// len(x) + len(h) - 1, or zero when either input is empty.
//
// # Gain normalization
//
// [Engine.NormalizeByGain] divides the output by the DC gain of the impulse (the sum
// of its taps). A zero gain skips normalization and reports [NormalizeSkipped].
// Each convolution result may be normalized once:
//
//	eng := conv.NewEngine()
//	eng.SetInputs(source, impulse)
//	eng.Convolve()
//	res, err := eng.NormalizeByGain()
//
// # Parallel convolution
//
// [WithWorkers] splits the output range into disjoint contiguous chunks. Each output
// sample goes through the same operations as in the serial path, so results are
// bit-identical regardless of the worker count.
package conv
