package wavio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-convolve/internal/testutil"
)

func TestFileRoundTrip(t *testing.T) {
	for _, bits := range []int{16, 24, 32} {
		t.Run(fmt.Sprintf("%dbit", bits), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.wav")
			want := testutil.DeterministicSine(440, 48000, 0.5, 480)

			f := NewFile(48000, bits)
			if err := f.Save(path, want); err != nil {
				t.Fatalf("Save: %v", err)
			}

			clip, err := f.LoadClip(path)
			if err != nil {
				t.Fatalf("LoadClip: %v", err)
			}
			if clip.SampleRate != 48000 || clip.Channels != 1 || clip.BitDepth != bits {
				t.Fatalf("clip format = %d Hz, %d ch, %d bits", clip.SampleRate, clip.Channels, clip.BitDepth)
			}
			testutil.RequireSliceNearlyEqual(t, clip.Samples, want, 1e-4)
		})
	}
}

func TestSaveClipsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loud.wav")
	f := NewFile(48000, 0)
	if f.BitDepth != DefaultBitDepth {
		t.Fatalf("BitDepth = %d, want %d", f.BitDepth, DefaultBitDepth)
	}

	if err := f.Save(path, []float32{2, -3, 0.25}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := f.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, got, []float32{1, -1, 0.25}, 1e-4)
}

func TestLoadUsesFirstChannel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	enc := wav.NewEncoder(fh, 44100, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 44100},
		Data:           []int{16384, -16384, 8192, -8192, 0, 32767},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := fh.Close(); err != nil {
		t.Fatal(err)
	}

	clip, err := NewFile(48000, 16).LoadClip(path)
	if err != nil {
		t.Fatalf("LoadClip: %v", err)
	}
	if clip.Channels != 2 || clip.SampleRate != 44100 {
		t.Fatalf("clip format = %d ch, %d Hz", clip.Channels, clip.SampleRate)
	}
	testutil.RequireBitIdentical(t, clip.Samples, []float32{0.5, 0.25, 0})
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(garbage, []byte("definitely not RIFF data"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewFile(48000, 16)

	if _, err := f.Load(filepath.Join(dir, "missing.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file error = %v", err)
	}
	if _, err := f.Load(garbage); !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("corrupt file error = %v", err)
	}
}

func TestSaveRejectsBitDepth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	err := NewFile(48000, 12).Save(path, []float32{0})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Save error = %v, want ErrUnsupportedFormat", err)
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("failed save must not leave a file behind")
	}
}

func TestSaveToMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "out.wav")
	if err := NewFile(48000, 16).Save(path, []float32{0}); err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	src := []float32{1, 2, 3}
	m.Put("a", src)
	src[0] = 9

	got, err := m.Load("a")
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireBitIdentical(t, got, []float32{1, 2, 3})

	if _, err := m.Load("b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load missing = %v", err)
	}

	if err := m.Save("b", []float32{4}); err != nil || !m.Has("b") {
		t.Fatalf("Save: %v", err)
	}

	boom := errors.New("disk full")
	m.FailSaves(boom)
	if err := m.Save("c", nil); !errors.Is(err, boom) {
		t.Fatalf("Save error = %v, want %v", err, boom)
	}
	if m.Has("c") {
		t.Fatal("failed save must not store data")
	}
}

func TestSupportedBitDepth(t *testing.T) {
	for bits, want := range map[int]bool{8: false, 16: true, 24: true, 32: true, 64: false} {
		if got := SupportedBitDepth(bits); got != want {
			t.Errorf("SupportedBitDepth(%d) = %v, want %v", bits, got, want)
		}
	}
}

// extensibleWAV builds a mono 16-bit WAVE_FORMAT_EXTENSIBLE stream whose
// subformat GUID starts with subFormat.
func extensibleWAV(subFormat uint16, samples []int16) []byte {
	const rate = 48000

	var fmtChunk bytes.Buffer
	le := func(v any) { _ = binary.Write(&fmtChunk, binary.LittleEndian, v) }
	le(uint16(formatExtensible))
	le(uint16(1))        // channels
	le(uint32(rate))     // sample rate
	le(uint32(rate * 2)) // bytes per second
	le(uint16(2))        // block align
	le(uint16(16))       // bits per sample
	le(uint16(22))       // extension size
	le(uint16(16))       // valid bits
	le(uint32(4))        // channel mask
	le(subFormat)
	fmtChunk.Write([]byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71})

	var data bytes.Buffer
	_ = binary.Write(&data, binary.LittleEndian, samples)

	var out bytes.Buffer
	chunk := func(id string, body []byte) {
		out.WriteString(id)
		_ = binary.Write(&out, binary.LittleEndian, uint32(len(body)))
		out.Write(body)
	}
	out.WriteString("RIFF")
	_ = binary.Write(&out, binary.LittleEndian, uint32(4+8+fmtChunk.Len()+8+data.Len()))
	out.WriteString("WAVE")
	chunk("fmt ", fmtChunk.Bytes())
	chunk("data", data.Bytes())
	return out.Bytes()
}

func TestDecodeExtensible(t *testing.T) {
	samples := []int16{16384, -8192, 0, 32767}

	t.Run("pcm", func(t *testing.T) {
		clip, err := Decode(bytes.NewReader(extensibleWAV(formatPCM, samples)))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if clip.SampleRate != 48000 || clip.BitDepth != 16 || clip.Channels != 1 {
			t.Fatalf("format = %d Hz, %d bits, %d channels", clip.SampleRate, clip.BitDepth, clip.Channels)
		}
		testutil.RequireBitIdentical(t, clip.Samples, []float32{0.5, -0.25, 0, 32767.0 / 32768})
	})

	t.Run("float", func(t *testing.T) {
		const formatIEEEFloat = 3
		_, err := Decode(bytes.NewReader(extensibleWAV(formatIEEEFloat, samples)))
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("Decode error = %v, want ErrUnsupportedFormat", err)
		}
	})
}
