// Package dsp implements the short-time Fourier transform and the
// Griffin-Lim phase reconstruction used by the render pipeline.
package dsp

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/himanishpuri/img2wav/pkg/logger"
	"github.com/mjibson/go-dsp/fft"
)

// windowSumFloor is the smallest overlapped window-squared sum that is
// still divided through during overlap-add; below it the accumulated
// sample is left as-is.
const windowSumFloor = 1e-8

// STFT performs windowed forward/inverse FFTs over overlapping frames.
// The Hann window is precomputed at construction and never mutated.
type STFT struct {
	fftSize int
	hopSize int
	numBins int
	window  []float64
}

// NewSTFT creates an STFT with the given FFT size (a power of two) and
// hop size (must divide the FFT size).
func NewSTFT(fftSize, hopSize int) (*STFT, error) {
	if fftSize <= 0 || fftSize&(fftSize-1) != 0 {
		return nil, errors.New("dsp: fft size must be a power of two")
	}
	if hopSize <= 0 || fftSize%hopSize != 0 {
		return nil, errors.New("dsp: hop size must divide the fft size")
	}

	s := &STFT{
		fftSize: fftSize,
		hopSize: hopSize,
		numBins: fftSize/2 + 1,
		window:  hannWindow(fftSize),
	}
	logger.Debugf("stft: initialized fftSize=%d hop=%d bins=%d", fftSize, hopSize, s.numBins)
	return s, nil
}

// hannWindow returns the periodic Hann window 0.5*(1-cos(2*pi*i/n)),
// which satisfies the constant-overlap-add condition for hops of n/2
// and smaller divisors.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}

func (s *STFT) FFTSize() int { return s.fftSize }
func (s *STFT) HopSize() int { return s.hopSize }

// NumBins returns the number of frequency bins per frame, fftSize/2+1.
func (s *STFT) NumBins() int { return s.numBins }

// NumFrames returns the number of frames Forward produces for a signal
// of the given length.
func (s *STFT) NumFrames(numSamples int) int {
	if numSamples < s.fftSize {
		return 0
	}
	return 1 + (numSamples-s.fftSize)/s.hopSize
}

// Forward computes the complex spectrogram of signal, frame-major.
// Frames past the end of the signal are zero-padded. Each frame holds
// fftSize/2+1 bins; a signal shorter than one frame yields no frames.
func (s *STFT) Forward(signal []float64) [][]complex128 {
	numFrames := s.NumFrames(len(signal))
	spectrogram := make([][]complex128, 0, numFrames)
	if numFrames == 0 {
		return spectrogram
	}

	frame := make([]float64, s.fftSize)
	for t := 0; t < numFrames; t++ {
		start := t * s.hopSize
		for i := 0; i < s.fftSize; i++ {
			if idx := start + i; idx < len(signal) {
				frame[i] = signal[idx] * s.window[i]
			} else {
				frame[i] = 0
			}
		}

		spectrum := fft.FFTReal(frame)
		bins := make([]complex128, s.numBins)
		copy(bins, spectrum[:s.numBins])
		spectrogram = append(spectrogram, bins)
	}

	return spectrogram
}

// Inverse reconstructs a time-domain signal from a complex spectrogram
// by weighted overlap-add: each frame is inverse-transformed, windowed
// and accumulated, then divided by the summed squared window. The
// division is exact where the Hann overlap-add condition holds and
// degrades gracefully at the boundaries where it does not.
func (s *STFT) Inverse(spectrogram [][]complex128) []float64 {
	if len(spectrogram) == 0 {
		logger.Warnf("stft: inverse of empty spectrogram")
		return nil
	}

	numFrames := len(spectrogram)
	outputLength := s.fftSize + (numFrames-1)*s.hopSize
	output := make([]float64, outputLength)
	windowSum := make([]float64, outputLength)

	full := make([]complex128, s.fftSize)
	for t := 0; t < numFrames; t++ {
		bins := spectrogram[t]

		// Rebuild the full Hermitian spectrum from the positive bins.
		n := len(bins)
		if n > s.numBins {
			n = s.numBins
		}
		for k := 0; k < s.fftSize; k++ {
			full[k] = 0
		}
		for k := 0; k < n; k++ {
			full[k] = bins[k]
		}
		for k := 1; k < s.fftSize/2; k++ {
			full[s.fftSize-k] = cmplx.Conj(full[k])
		}

		frame := fft.IFFT(full)

		start := t * s.hopSize
		for i := 0; i < s.fftSize; i++ {
			idx := start + i
			if idx >= outputLength {
				break
			}
			output[idx] += real(frame[i]) * s.window[i]
			windowSum[idx] += s.window[i] * s.window[i]
		}
	}

	for i := range output {
		if windowSum[i] > windowSumFloor {
			output[i] /= windowSum[i]
		}
	}

	return output
}
