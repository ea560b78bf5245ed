// Package spectrogram maps grayscale images onto magnitude spectrograms.
// Each image column becomes one frame; rows map onto frequency bins on a
// linear or logarithmic axis, and pixel brightness encodes magnitude in
// decibels.
package spectrogram

import (
	"math"

	"github.com/himanishpuri/img2wav/pkg/logger"
)

// FrequencyScale selects how image rows are spread over frequency bins.
type FrequencyScale int

const (
	Linear FrequencyScale = iota
	Logarithmic
)

func (s FrequencyScale) String() string {
	if s == Logarithmic {
		return "logarithmic"
	}
	return "linear"
}

// Params configures the image-to-spectrogram mapping.
type Params struct {
	FFTSize    int
	HopSize    int
	SampleRate int
	Scale      FrequencyScale
	MinFreqHz  float64
	MaxFreqHz  float64
	MinDb      float64
	Gamma      float64
}

// Build converts a row-major grayscale buffer (width*height values in
// [0,1], first row at the top) into a frame-major magnitude spectrogram
// with width frames of fftSize/2+1 bins each.
func Build(pixels []float64, width, height int, p Params) [][]float64 {
	numBins := p.FFTSize/2 + 1
	numFrames := width

	logger.Debugf("spectrogram: %dx%d image -> %d frames x %d bins (%s, minDb=%.1f, gamma=%.2f)",
		width, height, numFrames, numBins, p.Scale, p.MinDb, p.Gamma)

	magnitude := make([][]float64, numFrames)
	for t := 0; t < numFrames; t++ {
		column := resampleColumn(pixels, width, height, t, numBins, p)
		magnitude[t] = make([]float64, numBins)
		for k := 0; k < numBins; k++ {
			magnitude[t][k] = mapPixelToMagnitude(column[k], p.MinDb, p.Gamma)
		}
	}

	return magnitude
}

// mapPixelToMagnitude converts a pixel in [0,1] to a linear magnitude.
// Gamma shapes contrast, then the value is spread over [minDb, 0] dB:
// black maps to minDb, white to full scale.
func mapPixelToMagnitude(pixel, minDb, gamma float64) float64 {
	p := math.Pow(pixel, gamma)
	magDb := minDb + p*(-minDb)
	return math.Pow(10, magDb/20)
}

// resampleColumn reads image column frameIndex into numBins values, one
// per frequency bin in ascending frequency order. Bin 0 (DC) reads the
// bottom of the image, the Nyquist bin the top.
func resampleColumn(pixels []float64, width, height, frameIndex, numBins int, p Params) []float64 {
	column := make([]float64, numBins)

	if frameIndex >= width {
		return column
	}

	if p.Scale == Linear {
		for k := 0; k < numBins; k++ {
			y := float64(height-1) * (1 - float64(k)/float64(numBins-1))
			column[k] = sampleRow(pixels, width, height, frameIndex, y)
		}
		return column
	}

	// Logarithmic scale. The DC bin has no defined log position and is
	// pinned to the bottom row; bins above it are spaced so that equal
	// image heights cover equal octave spans within [MinFreqHz, MaxFreqHz].
	column[0] = sampleRow(pixels, width, height, frameIndex, float64(height-1))
	logSpan := math.Log(p.MaxFreqHz / p.MinFreqHz)
	for k := 1; k < numBins; k++ {
		binFreq := float64(k) / float64(numBins-1) * float64(p.SampleRate) / 2
		binFreq = clamp(binFreq, p.MinFreqHz, p.MaxFreqHz)

		u := math.Log(binFreq/p.MinFreqHz) / logSpan
		u = clamp(u, 0, 1)

		y := float64(height-1) * (1 - u)
		column[k] = sampleRow(pixels, width, height, frameIndex, y)
	}

	return column
}

// sampleRow linearly interpolates the pixel value at fractional row y of
// integer column x. y is clamped to the image, so a single-row image
// degenerates to a constant column.
func sampleRow(pixels []float64, width, height, x int, y float64) float64 {
	y = clamp(y, 0, float64(height-1))

	y0 := int(math.Floor(y))
	y1 := y0 + 1
	if y1 > height-1 {
		y1 = height - 1
	}
	fy := y - float64(y0)

	v0 := pixels[y0*width+x]
	v1 := pixels[y1*width+x]
	return v0*(1-fy) + v1*fy
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
