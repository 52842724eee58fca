package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-convolve/dsp/core"
	"github.com/cwbudde/algo-convolve/internal/driver"
	"github.com/cwbudde/algo-convolve/measure/bench"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := cfg.Block(); got != core.DefaultBlockConfig() {
		t.Fatalf("Block() = %+v, want %+v", got, core.DefaultBlockConfig())
	}
	if got := cfg.Policy(); got != bench.DefaultPolicy() {
		t.Fatalf("Policy() = %+v, want %+v", got, bench.DefaultPolicy())
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte(`
source: in.wav
impulse: ir.wav
mode: full
block_size: 128
workers: 4
bench:
  iterations: 500
  window: 20
  tolerance: 0.05
log:
  level: debug
  format: json
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Source != "in.wav" || cfg.Impulse != "ir.wav" || cfg.Output != "output.wav" {
		t.Fatalf("paths = %q %q %q", cfg.Source, cfg.Impulse, cfg.Output)
	}
	if cfg.Mode != string(driver.ModeFull) || cfg.Workers != 4 || cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if b := cfg.Block(); b.BlockSize != 128 || b.FIRSize != 512 || b.SampleRate != 48000 {
		t.Fatalf("Block() = %+v", b)
	}
	want := bench.StablePolicy(20, 500, 20, 0.05)
	if got := cfg.Policy(); got != want {
		t.Fatalf("Policy() = %+v, want %+v", got, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	dc := cfg.Driver()
	if dc.SourcePath != "in.wav" || dc.Mode != driver.ModeFull || dc.Workers != 4 || dc.Policy != want {
		t.Fatalf("Driver() = %+v", dc)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("block_size: [1, 2"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CONVBENCH_SOURCE":      "env.wav",
		"CONVBENCH_BLOCK_SIZE":  "32",
		"CONVBENCH_FIR_SIZE":    "100",
		"CONVBENCH_SAMPLE_RATE": "44100",
		"CONVBENCH_ITERATIONS":  "10",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Source != "env.wav" || cfg.Impulse != "noise.wav" {
		t.Fatalf("paths = %q %q", cfg.Source, cfg.Impulse)
	}
	want := core.BlockConfig{SampleRate: 44100, BlockSize: 32, FIRSize: 100}
	if got := cfg.Block(); got != want {
		t.Fatalf("Block() = %+v, want %+v", got, want)
	}
	if cfg.Policy() != bench.FixedPolicy(10) {
		t.Fatalf("Policy() = %+v", cfg.Policy())
	}

	env["CONVBENCH_WORKERS"] = "many"
	if err := cfg.ApplyEnv(lookup); !errors.Is(err, ErrInvalid) {
		t.Fatalf("ApplyEnv error = %v, want ErrInvalid", err)
	}
}

func TestBlockMatchesOptions(t *testing.T) {
	cfg := Default()
	cfg.SampleRate = 96000
	cfg.BlockSize = 32

	want := core.ApplyBlockOptions(core.WithSampleRate(96000), core.WithBlockSize(32))
	if got := cfg.Block(); got != want {
		t.Fatalf("Block() = %+v, want %+v", got, want)
	}

	cfg.FIRSize = 1000
	want = core.ApplyBlockOptions(core.WithSampleRate(96000), core.WithBlockSize(32), core.WithFIRSize(1000))
	if got := cfg.Block(); got != want {
		t.Fatalf("Block() with FIR size = %+v, want %+v", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "no source", mutate: func(c *Config) { c.Source = "" }},
		{name: "bad mode", mutate: func(c *Config) { c.Mode = "stream" }},
		{name: "zero block", mutate: func(c *Config) { c.BlockSize = 0 }},
		{name: "negative rate", mutate: func(c *Config) { c.SampleRate = -1 }},
		{name: "negative fir", mutate: func(c *Config) { c.FIRSize = -1 }},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }},
		{name: "bit depth", mutate: func(c *Config) { c.BitDepth = 8 }},
		{name: "no iterations", mutate: func(c *Config) { c.Bench.Iterations = 0 }},
		{name: "log format", mutate: func(c *Config) { c.Log.Format = "xml" }},
		{name: "window too small", mutate: func(c *Config) { c.Bench.Tolerance = 0.1; c.Bench.Window = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}
