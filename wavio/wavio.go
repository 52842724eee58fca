package wavio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
)

// Errors returned by this package.
var (
	ErrInvalidFile       = errors.New("wavio: not a valid WAV file")
	ErrNoChannels        = errors.New("wavio: file has no channels")
	ErrUnsupportedFormat = errors.New("wavio: unsupported sample format")
	ErrNotFound          = errors.New("wavio: no such sequence")
)

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE

	// Offset of the subformat GUID in an extensible fmt chunk. Its first two
	// bytes hold the actual format tag.
	subFormatOffset = 24
)

// DefaultBitDepth is the bit depth [File] writes unless configured otherwise.
const DefaultBitDepth = 16

// Source loads and saves sample sequences.
type Source interface {
	Load(path string) ([]float32, error)
	Save(path string, samples []float32) error
}

// Clip is a decoded first channel together with its file format.
type Clip struct {
	Samples    []float32
	SampleRate int
	Channels   int
	BitDepth   int
}

// ClipLoader is implemented by sources that also report the stored format.
type ClipLoader interface {
	LoadClip(path string) (Clip, error)
}

// SupportedBitDepth reports whether bits can be read and written.
func SupportedBitDepth(bits int) bool {
	switch bits {
	case 16, 24, 32:
		return true
	}
	return false
}

// File reads and writes WAV files on disk.
type File struct {
	// SampleRate is written into saved files.
	SampleRate int
	// BitDepth of saved files; must satisfy SupportedBitDepth.
	BitDepth int
}

// NewFile returns a File that saves at sampleRate with bitDepth bits.
// A zero bitDepth selects DefaultBitDepth.
func NewFile(sampleRate, bitDepth int) *File {
	if bitDepth == 0 {
		bitDepth = DefaultBitDepth
	}
	return &File{SampleRate: sampleRate, BitDepth: bitDepth}
}

// LoadClip decodes channel 0 of the WAV file at path.
func (f *File) LoadClip(path string) (Clip, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Clip{}, err
	}
	defer fh.Close()

	return Decode(fh)
}

// Load returns channel 0 of the WAV file at path.
func (f *File) Load(path string) ([]float32, error) {
	clip, err := f.LoadClip(path)
	if err != nil {
		return nil, err
	}
	return clip.Samples, nil
}

// Save writes samples as a mono WAV file at path. A partially written file is
// removed on failure.
func (f *File) Save(path string, samples []float32) (err error) {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return Encode(fh, samples, f.SampleRate, f.BitDepth)
}

// Decode reads a WAV stream and returns its first channel. Extensible files are
// accepted only when their subformat is integer PCM.
func Decode(r io.ReadSeeker) (Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Clip{}, ErrInvalidFile
	}

	switch dec.WavAudioFormat {
	case formatPCM:
	case formatExtensible:
		sub, err := extensibleSubFormat(r)
		if err != nil {
			return Clip{}, err
		}
		if sub != formatPCM {
			return Clip{}, fmt.Errorf("%w: extensible subformat %#x", ErrUnsupportedFormat, sub)
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return Clip{}, err
		}
		dec = wav.NewDecoder(r)
		if !dec.IsValidFile() {
			return Clip{}, ErrInvalidFile
		}
	default:
		return Clip{}, fmt.Errorf("%w: format tag %#x", ErrUnsupportedFormat, dec.WavAudioFormat)
	}
	bits := int(dec.BitDepth)
	if !SupportedBitDepth(bits) {
		return Clip{}, fmt.Errorf("%w: %d bits", ErrUnsupportedFormat, bits)
	}
	channels := int(dec.NumChans)
	if channels == 0 {
		return Clip{}, ErrNoChannels
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	frames := len(buf.Data) / channels
	scale := 1 / float64(int64(1)<<(bits-1))
	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = float32(float64(buf.Data[i*channels]) * scale)
	}

	return Clip{
		Samples:    samples,
		SampleRate: int(dec.SampleRate),
		Channels:   channels,
		BitDepth:   bits,
	}, nil
}

// extensibleSubFormat rewinds r and returns the format tag stored in the
// subformat GUID of its fmt chunk.
func extensibleSubFormat(r io.ReadSeeker) (uint16, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, fmt.Errorf("%w: no fmt chunk", ErrInvalidFile)
		}
		if ch.ID != riff.FmtID {
			ch.Drain()
			continue
		}
		if ch.Size < subFormatOffset+2 {
			return 0, fmt.Errorf("%w: extensible fmt chunk of %d bytes", ErrInvalidFile, ch.Size)
		}
		body := make([]byte, subFormatOffset+2)
		if _, err := io.ReadFull(ch, body); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidFile, err)
		}
		return binary.LittleEndian.Uint16(body[subFormatOffset:]), nil
	}
}

// Encode writes samples as mono integer PCM. Samples are clipped to [-1, 1].
func Encode(w io.WriteSeeker, samples []float32, sampleRate, bitDepth int) error {
	if !SupportedBitDepth(bitDepth) {
		return fmt.Errorf("%w: %d bits", ErrUnsupportedFormat, bitDepth)
	}

	fullScale := float64(int64(1)<<(bitDepth-1) - 1)
	data := make([]int, len(samples))
	for i, v := range samples {
		x := math.Max(-1, math.Min(1, float64(v)))
		data[i] = int(math.Round(x * fullScale))
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, formatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
