// Package bench measures the wall-clock cost of named operations.
//
// A [Harness] is created with a fixed, ordered set of operation names. Each
// iteration is bracketed by [Harness.Begin] and [Harness.End]; the elapsed time
// is appended to the operation's record. [Harness.IsComplete] decides when enough
// iterations have been collected according to a [Policy]:
//
//   - fixed count: every operation has MaxIterations samples, or
//   - stability: every operation has at least MinIterations samples and the
//     coefficient of variation of its last Window samples is at most Tolerance.
//
// MaxIterations is always finite, so a loop driven by IsComplete terminates.
//
//	h, _ := bench.New([]string{"convolve"})
//	for !h.IsComplete() {
//		h.Begin("convolve")
//		eng.Convolve()
//		h.End("convolve")
//	}
//	avg, _ := h.Average("convolve")
//
// Timestamps come from [time.Now], whose monotonic reading makes the measured
// durations immune to wall-clock adjustments. A Harness is not safe for
// concurrent use.
package bench
