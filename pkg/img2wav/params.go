package img2wav

import (
	"fmt"

	"github.com/himanishpuri/img2wav/internal/spectrogram"
	"github.com/himanishpuri/img2wav/internal/wavio"
)

// FrequencyScale and BitDepth are re-exported so callers only need this
// package to configure a render.
type (
	FrequencyScale = spectrogram.FrequencyScale
	BitDepth       = wavio.BitDepth
)

const (
	Linear      = spectrogram.Linear
	Logarithmic = spectrogram.Logarithmic

	Int16   = wavio.Int16
	Int24   = wavio.Int24
	Float32 = wavio.Float32
)

// RenderParams is the full parameter bundle for one image-to-audio
// render. Zero values are not usable; start from DefaultParams.
type RenderParams struct {
	FFTSize    int
	HopSize    int
	SampleRate int
	FreqScale  FrequencyScale
	MinFreqHz  float64
	MaxFreqHz  float64
	MinDb      float64
	Gamma      float64

	Iterations          int
	NormalizeTargetDbfs float64
	OutputGainDb        float64
	UseLimiter          bool
	Stereo              bool
	BitDepth            BitDepth

	// Seed fixes the Griffin-Lim phase initialization for reproducible
	// output. Zero draws from the clock instead.
	Seed int64
}

// DefaultParams mirrors the defaults of the desktop tool this pipeline
// came from.
func DefaultParams() RenderParams {
	return RenderParams{
		FFTSize:             2048,
		HopSize:             512,
		SampleRate:          44100,
		FreqScale:           Linear,
		MinFreqHz:           20,
		MaxFreqHz:           20000,
		MinDb:               -80,
		Gamma:               1.0,
		Iterations:          64,
		NormalizeTargetDbfs: -1,
		OutputGainDb:        0,
		UseLimiter:          true,
		Stereo:              false,
		BitDepth:            Int16,
	}
}

// Validate checks every field against its documented range and fails
// fast before any processing.
func (p RenderParams) Validate() error {
	switch p.FFTSize {
	case 1024, 2048, 4096:
	default:
		return fmt.Errorf("fftSize %d not in {1024, 2048, 4096}: %w", p.FFTSize, ErrInvalidParameter)
	}

	switch p.HopSize {
	case p.FFTSize / 2, p.FFTSize / 4, p.FFTSize / 8:
	default:
		return fmt.Errorf("hopSize %d not in {fftSize/2, fftSize/4, fftSize/8}: %w", p.HopSize, ErrInvalidParameter)
	}

	switch p.SampleRate {
	case 44100, 48000, 96000:
	default:
		return fmt.Errorf("sampleRate %d not in {44100, 48000, 96000}: %w", p.SampleRate, ErrInvalidParameter)
	}

	switch p.FreqScale {
	case Linear, Logarithmic:
	default:
		return fmt.Errorf("unknown frequency scale %d: %w", p.FreqScale, ErrInvalidParameter)
	}

	if !(p.MinFreqHz > 0 && p.MinFreqHz < p.MaxFreqHz && p.MaxFreqHz <= float64(p.SampleRate)/2) {
		return fmt.Errorf("frequency range [%g, %g] Hz invalid for %d Hz: %w",
			p.MinFreqHz, p.MaxFreqHz, p.SampleRate, ErrInvalidParameter)
	}

	if p.MinDb < -120 || p.MinDb > -20 {
		return fmt.Errorf("minDb %g outside [-120, -20]: %w", p.MinDb, ErrInvalidParameter)
	}
	if p.Gamma < 0.2 || p.Gamma > 4.0 {
		return fmt.Errorf("gamma %g outside [0.2, 4.0]: %w", p.Gamma, ErrInvalidParameter)
	}
	if p.Iterations < 16 || p.Iterations > 256 {
		return fmt.Errorf("iterations %d outside [16, 256]: %w", p.Iterations, ErrInvalidParameter)
	}
	if p.NormalizeTargetDbfs < -6 || p.NormalizeTargetDbfs > 0 {
		return fmt.Errorf("normalize target %g dBFS outside [-6, 0]: %w", p.NormalizeTargetDbfs, ErrInvalidParameter)
	}
	if p.OutputGainDb < -24 || p.OutputGainDb > 12 {
		return fmt.Errorf("output gain %g dB outside [-24, 12]: %w", p.OutputGainDb, ErrInvalidParameter)
	}

	switch p.BitDepth {
	case Int16, Int24, Float32:
	default:
		return fmt.Errorf("unknown bit depth %d: %w", p.BitDepth, ErrInvalidParameter)
	}

	return nil
}

// spectrogramParams extracts the subset the builder needs.
func (p RenderParams) spectrogramParams() spectrogram.Params {
	return spectrogram.Params{
		FFTSize:    p.FFTSize,
		HopSize:    p.HopSize,
		SampleRate: p.SampleRate,
		Scale:      p.FreqScale,
		MinFreqHz:  p.MinFreqHz,
		MaxFreqHz:  p.MaxFreqHz,
		MinDb:      p.MinDb,
		Gamma:      p.Gamma,
	}
}
