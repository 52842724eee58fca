package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidBlockConfig is returned by [BlockConfig.Validate].
var ErrInvalidBlockConfig = errors.New("core: invalid block config")

// DefaultFIRBlocks is the number of blocks covered by the default FIR length.
const DefaultFIRBlocks = 4

// BlockConfig defines the fixed sizes a block-based convolution run works with.
type BlockConfig struct {
	SampleRate float64
	BlockSize  int
	FIRSize    int
}

// BlockOption mutates a BlockConfig.
type BlockOption func(*BlockConfig)

// DefaultBlockConfig returns 48 kHz with 64-sample blocks and a 256-tap FIR.
func DefaultBlockConfig() BlockConfig {
	return BlockConfig{
		SampleRate: 48000,
		BlockSize:  64,
		FIRSize:    64 * DefaultFIRBlocks,
	}
}

// WithSampleRate sets the sample rate.
func WithSampleRate(sampleRate float64) BlockOption {
	return func(cfg *BlockConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the block size. The FIR size follows the block size
// unless it is set explicitly with [WithFIRSize] afterwards.
func WithBlockSize(blockSize int) BlockOption {
	return func(cfg *BlockConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
			cfg.FIRSize = blockSize * DefaultFIRBlocks
		}
	}
}

// WithFIRSize sets the impulse truncation length.
func WithFIRSize(firSize int) BlockOption {
	return func(cfg *BlockConfig) {
		if firSize > 0 {
			cfg.FIRSize = firSize
		}
	}
}

// ApplyBlockOptions applies zero or more options to the default config.
func ApplyBlockOptions(opts ...BlockOption) BlockConfig {
	cfg := DefaultBlockConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Validate reports whether all sizes and the sample rate are positive.
func (c BlockConfig) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %v", ErrInvalidBlockConfig, c.SampleRate)
	case c.BlockSize <= 0:
		return fmt.Errorf("%w: block size %d", ErrInvalidBlockConfig, c.BlockSize)
	case c.FIRSize <= 0:
		return fmt.Errorf("%w: FIR size %d", ErrInvalidBlockConfig, c.FIRSize)
	}
	return nil
}

// BlockDuration is the real-time length of one block.
func (c BlockConfig) BlockDuration() time.Duration {
	return SamplesToDuration(c.BlockSize, c.SampleRate)
}

// FIRDuration is the real-time length of a full-size impulse.
func (c BlockConfig) FIRDuration() time.Duration {
	return SamplesToDuration(c.FIRSize, c.SampleRate)
}

// SamplesToDuration converts a sample count to a duration at sampleRate.
// Returns 0 for a non-positive sample rate.
func SamplesToDuration(n int, sampleRate float64) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(n) / sampleRate * float64(time.Second))
}
