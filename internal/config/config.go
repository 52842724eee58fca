// Package config handles run configuration for the convolution benchmark.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// CONVBENCH_* environment variables. Command-line flags are applied last by the
// caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-convolve/dsp/core"
	"github.com/cwbudde/algo-convolve/internal/driver"
	"github.com/cwbudde/algo-convolve/internal/logging"
	"github.com/cwbudde/algo-convolve/measure/bench"
	"github.com/cwbudde/algo-convolve/wavio"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config holds all settings of one benchmark run.
type Config struct {
	Source  string `yaml:"source"`
	Impulse string `yaml:"impulse"`
	Output  string `yaml:"output"`
	// Mode is "block" or "full".
	Mode string `yaml:"mode"`

	SampleRate float64 `yaml:"sample_rate"`
	BlockSize  int     `yaml:"block_size"`
	// FIRSize of 0 means core.DefaultFIRBlocks * BlockSize.
	FIRSize int `yaml:"fir_size"`

	Workers  int `yaml:"workers"`
	BitDepth int `yaml:"bit_depth"`

	Bench BenchConfig `yaml:"bench"`
	Log   LogConfig   `yaml:"log"`
}

// BenchConfig holds the benchmark stopping rule.
type BenchConfig struct {
	// Iterations is the maximum (and, without Tolerance, exact) sample count.
	Iterations    int     `yaml:"iterations"`
	MinIterations int     `yaml:"min_iterations"`
	Window        int     `yaml:"window"`
	Tolerance     float64 `yaml:"tolerance"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	block := core.DefaultBlockConfig()
	return Config{
		Source:     "voice.wav",
		Impulse:    "noise.wav",
		Output:     "output.wav",
		Mode:       string(driver.ModeBlock),
		SampleRate: block.SampleRate,
		BlockSize:  block.BlockSize,
		Workers:    1,
		BitDepth:   wavio.DefaultBitDepth,
		Bench: BenchConfig{
			Iterations: bench.DefaultIterations,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatConsole,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped when
// path is empty) and the process environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from CONVBENCH_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"CONVBENCH_SOURCE":     &c.Source,
		"CONVBENCH_IMPULSE":    &c.Impulse,
		"CONVBENCH_OUTPUT":     &c.Output,
		"CONVBENCH_MODE":       &c.Mode,
		"CONVBENCH_LOG_LEVEL":  &c.Log.Level,
		"CONVBENCH_LOG_FORMAT": &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"CONVBENCH_BLOCK_SIZE": &c.BlockSize,
		"CONVBENCH_FIR_SIZE":   &c.FIRSize,
		"CONVBENCH_WORKERS":    &c.Workers,
		"CONVBENCH_BIT_DEPTH":  &c.BitDepth,
		"CONVBENCH_ITERATIONS": &c.Bench.Iterations,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalid, key, v)
		}
		*dst = n
	}

	if v, ok := lookup("CONVBENCH_SAMPLE_RATE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: CONVBENCH_SAMPLE_RATE=%q", ErrInvalid, v)
		}
		c.SampleRate = f
	}
	return nil
}

// Block returns the block configuration. A zero FIRSize follows the block size.
func (c Config) Block() core.BlockConfig {
	return core.ApplyBlockOptions(
		core.WithSampleRate(c.SampleRate),
		core.WithBlockSize(c.BlockSize),
		core.WithFIRSize(c.FIRSize),
	)
}

// Policy returns the benchmark stopping rule.
func (c Config) Policy() bench.Policy {
	b := c.Bench
	if b.Tolerance <= 0 {
		return bench.FixedPolicy(b.Iterations)
	}
	minIter := b.MinIterations
	if minIter <= 0 {
		minIter = b.Window
	}
	return bench.StablePolicy(minIter, b.Iterations, b.Window, b.Tolerance)
}

// Driver returns the driver configuration.
func (c Config) Driver() driver.Config {
	return driver.Config{
		SourcePath:  c.Source,
		ImpulsePath: c.Impulse,
		OutputPath:  c.Output,
		Mode:        driver.Mode(c.Mode),
		Block:       c.Block(),
		Policy:      c.Policy(),
		Workers:     c.Workers,
	}
}

// Validate checks every setting.
func (c Config) Validate() error {
	if c.Source == "" || c.Impulse == "" || c.Output == "" {
		return fmt.Errorf("%w: source, impulse and output paths are required", ErrInvalid)
	}
	if m := driver.Mode(c.Mode); m != driver.ModeBlock && m != driver.ModeFull {
		return fmt.Errorf("%w: mode %q", ErrInvalid, c.Mode)
	}
	// Block options ignore non-positive values, so check the raw fields first.
	if c.SampleRate <= 0 || c.BlockSize <= 0 || c.FIRSize < 0 {
		return fmt.Errorf("%w: sample rate %v, block size %d, FIR size %d",
			ErrInvalid, c.SampleRate, c.BlockSize, c.FIRSize)
	}
	if err := c.Block().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers %d", ErrInvalid, c.Workers)
	}
	if !wavio.SupportedBitDepth(c.BitDepth) {
		return fmt.Errorf("%w: bit depth %d", ErrInvalid, c.BitDepth)
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if f := c.Log.Format; f != logging.FormatConsole && f != logging.FormatJSON {
		return fmt.Errorf("%w: log format %q", ErrInvalid, f)
	}
	return nil
}
