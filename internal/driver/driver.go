// Package driver runs one convolution benchmark: import the source and impulse,
// time repeated convolutions, normalize the result by the impulse gain and
// export it.
package driver

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-convolve/dsp/conv"
	"github.com/cwbudde/algo-convolve/dsp/core"
	"github.com/cwbudde/algo-convolve/measure/bench"
	"github.com/cwbudde/algo-convolve/wavio"
)

// Errors returned by the driver.
var (
	ErrNoSource   = errors.New("driver: no waveform source")
	ErrStageOrder = errors.New("driver: stage out of order")
	ErrMode       = errors.New("driver: unknown import mode")
)

// OpConvolve is the benchmark name of the timed convolution.
const OpConvolve = "convolve"

// Mode selects how much of each input file is used.
type Mode string

const (
	// ModeBlock truncates the source to BlockSize and the impulse to FIRSize.
	ModeBlock Mode = "block"
	// ModeFull uses the whole first channel of both files.
	ModeFull Mode = "full"
)

// Stage is the position of a Driver in its run.
type Stage int

const (
	StageUninitialized Stage = iota
	StageImported
	StageBenchmarked
	StageNormalized
	StageExported
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageUninitialized:
		return "uninitialized"
	case StageImported:
		return "imported"
	case StageBenchmarked:
		return "benchmarked"
	case StageNormalized:
		return "normalized"
	case StageExported:
		return "exported"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Config describes one run.
type Config struct {
	SourcePath  string
	ImpulsePath string
	OutputPath  string

	Mode    Mode
	Block   core.BlockConfig
	Policy  bench.Policy
	Workers int
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

// WithClock replaces time.Now for benchmark timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		d.clock = now
	}
}

// Driver owns all state of a single run. Stages must be executed in order:
// Import, Benchmark, Normalize, Export.
type Driver struct {
	cfg   Config
	src   wavio.Source
	log   *zap.Logger
	clock func() time.Time

	engine  *conv.Engine
	harness *bench.Harness
	stage   Stage

	summary bench.Summary
	norm    conv.Normalization
}

// New validates cfg and prepares a Driver reading and writing through src.
func New(cfg Config, src wavio.Source, opts ...Option) (*Driver, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeBlock
	}
	if cfg.Mode != ModeBlock && cfg.Mode != ModeFull {
		return nil, fmt.Errorf("%w: %q", ErrMode, cfg.Mode)
	}
	if err := cfg.Block.Validate(); err != nil {
		return nil, err
	}

	d := &Driver{
		cfg: cfg,
		src: src,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	benchOpts := []bench.Option{bench.WithPolicy(cfg.Policy)}
	if d.clock != nil {
		benchOpts = append(benchOpts, bench.WithClock(d.clock))
	}
	h, err := bench.New([]string{OpConvolve}, benchOpts...)
	if err != nil {
		return nil, err
	}

	d.harness = h
	d.engine = conv.NewEngine(conv.WithWorkers(cfg.Workers))
	return d, nil
}

// Stage returns the last completed stage.
func (d *Driver) Stage() Stage { return d.stage }

// Engine returns the convolution engine.
func (d *Driver) Engine() *conv.Engine { return d.engine }

func (d *Driver) expect(want Stage, op string) error {
	if d.stage != want {
		return fmt.Errorf("%w: %s requires stage %s, at %s", ErrStageOrder, op, want, d.stage)
	}
	return nil
}

func (d *Driver) advance(s Stage) {
	d.stage = s
	d.log.Debug("stage complete", zap.Stringer("stage", s))
}

// Import loads both inputs, truncates them in block mode and hands them to the
// engine. Nothing is written when a load fails.
func (d *Driver) Import() error {
	if err := d.expect(StageUninitialized, "import"); err != nil {
		return err
	}

	source, err := d.load("source", d.cfg.SourcePath)
	if err != nil {
		return err
	}
	impulse, err := d.load("impulse", d.cfg.ImpulsePath)
	if err != nil {
		return err
	}

	if d.cfg.Mode == ModeBlock {
		source = core.Prefix(source, d.cfg.Block.BlockSize)
		impulse = core.Prefix(impulse, d.cfg.Block.FIRSize)
	}

	d.engine.SetInputs(source, impulse)
	d.log.Info("inputs ready",
		zap.String("mode", string(d.cfg.Mode)),
		zap.Int("source_samples", len(source)),
		zap.Int("impulse_samples", len(impulse)),
		zap.Int("output_samples", d.engine.Len()),
	)
	d.advance(StageImported)
	return nil
}

func (d *Driver) load(label, path string) ([]float32, error) {
	var (
		samples []float32
		rate    int
		err     error
	)
	if cl, ok := d.src.(wavio.ClipLoader); ok {
		var clip wavio.Clip
		clip, err = cl.LoadClip(path)
		samples, rate = clip.Samples, clip.SampleRate
	} else {
		samples, err = d.src.Load(path)
	}
	if err != nil {
		d.log.Error("load failed", zap.String("input", label), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("load %s %q: %w", label, path, err)
	}

	fields := []zap.Field{zap.String("input", label), zap.String("path", path), zap.Int("samples", len(samples))}
	if rate > 0 {
		fields = append(fields, zap.Int("sample_rate", rate))
	}
	d.log.Info("loaded", fields...)

	if rate > 0 && float64(rate) != d.cfg.Block.SampleRate {
		d.log.Warn("sample rate mismatch, not resampling",
			zap.String("path", path),
			zap.Int("file_rate", rate),
			zap.Float64("config_rate", d.cfg.Block.SampleRate),
		)
	}
	return samples, nil
}

// Benchmark convolves repeatedly until the benchmark policy is satisfied.
// Only the convolution itself is timed.
func (d *Driver) Benchmark() error {
	if err := d.expect(StageImported, "benchmark"); err != nil {
		return err
	}

	s, err := d.harness.Run(OpConvolve, d.engine.Convolve)
	if err != nil {
		return fmt.Errorf("benchmark: %w", err)
	}
	d.summary = s
	d.log.Info("benchmark finished",
		zap.Int("iterations", s.Count),
		zap.Duration("average", s.Average),
		zap.Duration("stddev", s.StdDev),
	)
	d.advance(StageBenchmarked)
	return nil
}

// Normalize divides the output by the impulse gain once.
func (d *Driver) Normalize() error {
	if err := d.expect(StageBenchmarked, "normalize"); err != nil {
		return err
	}

	n, err := d.engine.NormalizeByGain()
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}
	d.norm = n
	if n == conv.NormalizeSkipped {
		d.log.Warn("impulse gain is zero, output left unnormalized")
	}
	d.advance(StageNormalized)
	return nil
}

// Export saves the output.
func (d *Driver) Export() error {
	if err := d.expect(StageNormalized, "export"); err != nil {
		return err
	}

	if err := d.src.Save(d.cfg.OutputPath, d.engine.Output()); err != nil {
		d.log.Error("save failed", zap.String("path", d.cfg.OutputPath), zap.Error(err))
		return fmt.Errorf("save output %q: %w", d.cfg.OutputPath, err)
	}
	d.log.Info("saved", zap.String("path", d.cfg.OutputPath), zap.Int("samples", d.engine.Len()))
	d.advance(StageExported)
	return nil
}

// Run executes every stage and returns the report.
func (d *Driver) Run() (Report, error) {
	for _, step := range []func() error{d.Import, d.Benchmark, d.Normalize, d.Export} {
		if err := step(); err != nil {
			return Report{}, err
		}
	}

	r := d.Report()
	d.advance(StageDone)
	return r, nil
}
