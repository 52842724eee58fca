// Package wavio loads and saves single-channel sample sequences as WAV files.
//
// The [Source] interface is all a consumer needs: Load returns channel 0 of a
// file as float32 samples in [-1, 1), Save writes a mono file. [File] implements
// it on top of github.com/go-audio/wav for integer PCM at 16, 24 or 32 bits.
// [Memory] keeps sequences in a map and is meant for tests and dry runs.
package wavio
