// Package wavio encodes interleaved float buffers as canonical RIFF/WAVE
// files and decodes them back for inspection.
package wavio

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/himanishpuri/img2wav/pkg/logger"
)

// BitDepth selects the on-disk sample encoding.
type BitDepth int

const (
	Int16 BitDepth = iota
	Int24
	Float32
)

func (b BitDepth) String() string {
	switch b {
	case Int16:
		return "16-bit PCM"
	case Int24:
		return "24-bit PCM"
	case Float32:
		return "32-bit float"
	default:
		return "unknown"
	}
}

// Bits returns the number of bits per sample.
func (b BitDepth) Bits() int {
	switch b {
	case Int16:
		return 16
	case Int24:
		return 24
	default:
		return 32
	}
}

// formatTag returns the WAVE format tag: 1 for PCM, 3 for IEEE float.
func (b BitDepth) formatTag() int {
	if b == Float32 {
		return 3
	}
	return 1
}

// Write encodes interleaved samples into a WAV file at path. The file
// carries a single fmt chunk followed by a data chunk. PCM samples are
// scaled, rounded and clipped to the integer range; Float32 samples are
// written as IEEE-754 singles. A partially written file is removed on
// error.
func Write(path string, interleaved []float64, channels, sampleRate int, depth BitDepth) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavio: create %s: %w", path, err)
	}

	enc := wav.NewEncoder(f, sampleRate, depth.Bits(), channels, depth.formatTag())

	err = writeSamples(enc, interleaved, channels, sampleRate, depth)
	if err == nil {
		err = enc.Close()
	}
	if err == nil {
		err = f.Close()
	}
	if err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("wavio: write %s: %w", path, err)
	}

	logger.Debugf("wavio: wrote %s (%d frames, %d ch, %d Hz, %s)",
		path, len(interleaved)/channels, channels, sampleRate, depth)
	return nil
}

func writeSamples(enc *wav.Encoder, interleaved []float64, channels, sampleRate int, depth BitDepth) error {
	if depth == Float32 {
		// One WriteFrame call per multi-channel frame: the encoder sizes
		// the data chunk from the number of frames it was handed.
		frame := make([]float32, channels)
		for i := 0; i+channels <= len(interleaved); i += channels {
			for c := 0; c < channels; c++ {
				frame[c] = float32(interleaved[i+c])
			}
			if err := enc.WriteFrame(frame); err != nil {
				return err
			}
		}
		return nil
	}

	fullScale := 32767.0
	lo, hi := -32768, 32767
	if depth == Int24 {
		fullScale = 8388607.0
		lo, hi = -8388608, 8388607
	}

	data := make([]int, len(interleaved))
	for i, s := range interleaved {
		v := int(math.Round(s * fullScale))
		if v < lo {
			v = lo
		} else if v > hi {
			v = hi
		}
		data[i] = v
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: depth.Bits(),
	}
	return enc.Write(buf)
}
