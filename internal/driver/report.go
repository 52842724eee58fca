package driver

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-convolve/dsp/conv"
	"github.com/cwbudde/algo-convolve/dsp/core"
	"github.com/cwbudde/algo-convolve/measure/bench"
	"github.com/cwbudde/algo-convolve/measure/response"
	"github.com/cwbudde/algo-convolve/stats/level"
)

// Report summarizes a finished run.
type Report struct {
	Mode           Mode
	Block          core.BlockConfig
	SourceSamples  int
	ImpulseSamples int
	OutputSamples  int

	FIRDuration   time.Duration
	BlockDuration time.Duration

	Bench bench.Summary
	// DSPPercent is the average convolution time relative to BlockDuration.
	DSPPercent float64

	Gain          float32
	Normalization conv.Normalization

	// Response is nil for an empty impulse.
	Response *response.Metrics
	Level    level.Stats
}

// Report builds the run summary from the current state. Fields of stages not
// yet reached are zero.
func (d *Driver) Report() Report {
	blk := d.cfg.Block
	r := Report{
		Mode:           d.cfg.Mode,
		Block:          blk,
		SourceSamples:  len(d.engine.Source()),
		ImpulseSamples: len(d.engine.Impulse()),
		OutputSamples:  d.engine.Len(),
		FIRDuration:    blk.FIRDuration(),
		BlockDuration:  blk.BlockDuration(),
		Bench:          d.summary,
		Gain:           d.engine.Gain(),
		Normalization:  d.norm,
		Level:          level.Calculate(d.engine.Output()),
	}
	if r.BlockDuration > 0 {
		r.DSPPercent = float64(r.Bench.Average) / float64(r.BlockDuration) * 100
	}

	m, err := response.NewAnalyzer(blk.SampleRate).Analyze(d.engine.Impulse())
	switch {
	case err == nil:
		r.Response = &m
	case errors.Is(err, response.ErrEmptyTaps):
	default:
		d.log.Warn("impulse response analysis failed", zap.Error(err))
	}
	return r
}

// WriteTo prints r as an aligned table.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	tw := tabwriter.NewWriter(cw, 0, 0, 2, ' ', 0)

	row := func(label, format string, args ...any) {
		fmt.Fprintf(tw, "%s\t"+format+"\n", append([]any{label}, args...)...)
	}

	row("Mode", "%s", r.Mode)
	row("Sample rate", "%g Hz", r.Block.SampleRate)
	row("Source", "%d samples", r.SourceSamples)
	row("Impulse", "%d samples", r.ImpulseSamples)
	row("Output", "%d samples", r.OutputSamples)
	row("FIR duration", "%v", r.FIRDuration)
	row("Block duration", "%v", r.BlockDuration)
	row("Convolution avg", "%v (n=%d, sd=%v, min=%v, max=%v)",
		r.Bench.Average, r.Bench.Count, r.Bench.StdDev, r.Bench.Min, r.Bench.Max)
	row("DSP load", "%.2f %%", r.DSPPercent)
	row("Impulse gain", "%g", r.Gain)
	row("Normalization", "%s", r.Normalization)
	if r.Response != nil {
		row("Peak response", "%.2f dB at %.1f Hz", r.Response.PeakGainDB, r.Response.PeakFrequency)
	}
	row("Output peak", "%.2f dBFS (%d clipped)", r.Level.PeakDB, r.Level.Clipped)
	row("Output RMS", "%.2f dBFS", r.Level.RMSDB)

	if err := tw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, cw.err
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
