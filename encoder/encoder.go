// Package encoder compresses captured PCM before it is shipped to a
// transcription API. Capture is 16 kHz mono 16-bit throughout.
package encoder

import (
	"encoding/binary"
	"time"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	AddEncodeTime(d time.Duration)
	EncodeTime() time.Duration
}

// Samples converts little-endian 16-bit PCM bytes to samples. A trailing
// odd byte is dropped.
func Samples(pcm []byte) []int16 {
	samples := make([]int16, 0, len(pcm)/2)
	for i := 0; i+1 < len(pcm); i += 2 {
		samples = append(samples, int16(binary.LittleEndian.Uint16(pcm[i:])))
	}
	return samples
}
