// Command convbench convolves a source recording with an impulse response,
// times the direct convolution kernel and writes the gain-normalized result.
//
// Usage:
//
//	convbench [flags]
//
// Settings are read from an optional YAML file (-config), then CONVBENCH_*
// environment variables, then flags.
//
// Examples:
//
//	convbench
//	convbench -source speech.wav -impulse room.wav -output wet.wav
//	convbench -mode full -workers 4
//	convbench -block-size 128 -iterations 5000
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-convolve/internal/config"
	"github.com/cwbudde/algo-convolve/internal/driver"
	"github.com/cwbudde/algo-convolve/internal/logging"
	"github.com/cwbudde/algo-convolve/wavio"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("convbench", flag.ContinueOnError)
	def := config.Default()

	configPath := fs.String("config", "", "YAML configuration file")
	source := fs.String("source", def.Source, "source WAV file")
	impulse := fs.String("impulse", def.Impulse, "impulse response WAV file")
	output := fs.String("output", def.Output, "output WAV file")
	mode := fs.String("mode", def.Mode, "import mode: block (truncate to block/FIR size) or full")
	sampleRate := fs.Float64("sample-rate", def.SampleRate, "sample rate in Hz")
	blockSize := fs.Int("block-size", def.BlockSize, "source block size in samples")
	firSize := fs.Int("fir-size", def.FIRSize, "impulse length in samples (0 = 4 x block size)")
	iterations := fs.Int("iterations", def.Bench.Iterations, "benchmark iterations")
	workers := fs.Int("workers", def.Workers, "goroutines per convolution")
	bitDepth := fs.Int("bit-depth", def.BitDepth, "output bit depth: 16, 24 or 32")
	logLevel := fs.String("log-level", def.Log.Level, "log level: debug, info, warn, error")
	logFormat := fs.String("log-format", def.Log.Format, "log format: console or json")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: convbench [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Convolves a source with an impulse response and benchmarks the kernel.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// Only flags given on the command line override file and environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source = *source
		case "impulse":
			cfg.Impulse = *impulse
		case "output":
			cfg.Output = *output
		case "mode":
			cfg.Mode = *mode
		case "sample-rate":
			cfg.SampleRate = *sampleRate
		case "block-size":
			cfg.BlockSize = *blockSize
		case "fir-size":
			cfg.FIRSize = *firSize
		case "iterations":
			cfg.Bench.Iterations = *iterations
		case "workers":
			cfg.Workers = *workers
		case "bit-depth":
			cfg.BitDepth = *bitDepth
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer logging.Sync(logger)

	files := wavio.NewFile(int(cfg.SampleRate), cfg.BitDepth)
	d, err := driver.New(cfg.Driver(), files, driver.WithLogger(logger))
	if err != nil {
		logger.Error("setup failed", zap.Error(err))
		return 1
	}

	report, err := d.Run()
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		return 1
	}

	if _, err := report.WriteTo(os.Stdout); err != nil {
		logger.Error("write report", zap.Error(err))
		return 1
	}
	return 0
}
