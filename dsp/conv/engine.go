package conv

import (
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-convolve/dsp/core"
)

// Normalization reports what [Engine.NormalizeByGain] did to the output.
type Normalization int

const (
	// NormalizeApplied means the output was divided by the impulse gain.
	NormalizeApplied Normalization = iota

	// NormalizeSkipped means the impulse gain was exactly zero and the output
	// was left unchanged.
	NormalizeSkipped
)

// String returns a human-readable name for n.
func (n Normalization) String() string {
	switch n {
	case NormalizeApplied:
		return "applied"
	case NormalizeSkipped:
		return "skipped (zero gain)"
	default:
		return "unknown"
	}
}

type outputState int

const (
	outputStale outputState = iota
	outputConvolved
	outputNormalized
)

// minChunk is the smallest output range handed to a single worker.
const minChunk = 64

// Engine holds a source signal, an impulse response and the output buffer
// their convolution is written to.
//
// The output is allocated by [Engine.SetInputs] and overwritten in place by
// every [Engine.Convolve] call. An Engine is not safe for concurrent use.
type Engine struct {
	source  []float32
	impulse []float32
	output  []float32

	workers int
	state   outputState
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers splits each convolution across n goroutines. Values below 2
// keep the serial path.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEngine creates an Engine with no inputs.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{workers: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// SetInputs copies source and impulse into the engine and sizes the output to
// len(source)+len(impulse)-1. If either input is empty the output is empty and
// [Engine.Convolve] does nothing.
func (e *Engine) SetInputs(source, impulse []float32) {
	e.source = core.Clone(source)
	e.impulse = core.Clone(impulse)
	e.output = core.EnsureLen(e.output, OutputLen(len(e.source), len(e.impulse)))
	core.Zero(e.output)
	e.state = outputStale
}

// Convolve recomputes the output from the current inputs. It does not
// allocate when running serially and never touches the inputs.
func (e *Engine) Convolve() {
	n := len(e.output)
	if n > 0 {
		if e.workers > 1 && n >= 2*minChunk {
			e.convolveParallel()
		} else {
			convolveRange(e.output, e.source, e.impulse, 0, n)
		}
	}
	e.state = outputConvolved
}

func (e *Engine) convolveParallel() {
	n := len(e.output)
	chunk := (n + e.workers - 1) / e.workers
	if chunk < minChunk {
		chunk = minChunk
	}

	var g errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			convolveRange(e.output, e.source, e.impulse, lo, hi)
			return nil
		})
	}
	// Chunks cannot fail; Wait only joins them.
	_ = g.Wait()
}

// Gain returns the DC gain of the impulse: the sum of its taps in index order.
func (e *Engine) Gain() float32 {
	return sumInOrder(e.impulse)
}

// NormalizeByGain divides the output by [Engine.Gain].
//
// A zero gain leaves the output untouched and returns [NormalizeSkipped].
// It fails with [ErrNotConvolved] before the first Convolve after SetInputs,
// and with [ErrAlreadyNormalized] when the current result was normalized already.
func (e *Engine) NormalizeByGain() (Normalization, error) {
	switch e.state {
	case outputStale:
		return NormalizeSkipped, ErrNotConvolved
	case outputNormalized:
		return NormalizeSkipped, ErrAlreadyNormalized
	}

	gain := e.Gain()
	if gain == 0 {
		return NormalizeSkipped, nil
	}

	for i := range e.output {
		e.output[i] /= gain
	}
	e.state = outputNormalized
	return NormalizeApplied, nil
}

// Normalized reports whether the current output has been divided by the gain.
func (e *Engine) Normalized() bool {
	return e.state == outputNormalized
}

// Output returns the output buffer. It is owned by the engine and rewritten by
// the next Convolve.
func (e *Engine) Output() []float32 { return e.output }

// Source returns the source samples held by the engine.
func (e *Engine) Source() []float32 { return e.source }

// Impulse returns the impulse taps held by the engine.
func (e *Engine) Impulse() []float32 { return e.impulse }

// Len returns the output length.
func (e *Engine) Len() int { return len(e.output) }

// Workers returns the configured worker count.
func (e *Engine) Workers() int { return e.workers }
