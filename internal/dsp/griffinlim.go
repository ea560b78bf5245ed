package dsp

import (
	"context"
	"math"
	"math/cmplx"
	"math/rand"
	"time"

	"github.com/himanishpuri/img2wav/pkg/logger"
)

// ProgressFunc reports reconstruction progress. current increases
// monotonically between calls; total is constant within one run.
type ProgressFunc func(current, total int)

// GriffinLim reconstructs a time-domain signal whose STFT magnitude
// approximates a target magnitude spectrogram, by alternating inverse
// and forward transforms while re-imposing the target magnitudes.
type GriffinLim struct {
	rng *rand.Rand
}

// NewGriffinLim returns a reconstructor whose initial phase is drawn
// from a time-seeded source, so repeated runs produce different audio.
func NewGriffinLim() *GriffinLim {
	return &GriffinLim{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewGriffinLimSeeded returns a reconstructor with a deterministic
// phase source, for reproducible output.
func NewGriffinLimSeeded(seed int64) *GriffinLim {
	return &GriffinLim{rng: rand.New(rand.NewSource(seed))}
}

// Reconstruct runs the Griffin-Lim iteration against magnitude, using
// stft for the transforms. Cancellation is observed via ctx at
// iteration boundaries; on cancellation the audio from the iterations
// completed so far is returned. onProgress may be nil.
func (g *GriffinLim) Reconstruct(
	ctx context.Context,
	magnitude [][]float64,
	stft *STFT,
	iterations int,
	onProgress ProgressFunc,
) []float64 {
	if len(magnitude) == 0 {
		logger.Warnf("griffinlim: empty magnitude spectrogram")
		return nil
	}

	numFrames := len(magnitude)
	numBins := len(magnitude[0])
	logger.Debugf("griffinlim: %d frames x %d bins, %d iterations", numFrames, numBins, iterations)

	// Start from the target magnitudes with uniformly random phase.
	spec := make([][]complex128, numFrames)
	for t := 0; t < numFrames; t++ {
		spec[t] = make([]complex128, numBins)
		for k := 0; k < numBins; k++ {
			phase := g.rng.Float64() * 2 * math.Pi
			spec[t][k] = cmplx.Rect(magnitude[t][k], phase)
		}
	}

	for iter := 0; iter < iterations; iter++ {
		select {
		case <-ctx.Done():
			logger.Infof("griffinlim: cancelled at iteration %d", iter)
			return stft.Inverse(spec)
		default:
		}

		audio := stft.Inverse(spec)
		estimate := stft.Forward(audio)

		// Keep the target magnitude, adopt the estimated phase. Frames
		// or bins the re-analysis did not produce are left unchanged.
		for t := 0; t < numFrames && t < len(estimate); t++ {
			for k := 0; k < numBins && k < len(estimate[t]); k++ {
				spec[t][k] = cmplx.Rect(magnitude[t][k], cmplx.Phase(estimate[t][k]))
			}
		}

		if onProgress != nil {
			onProgress(iter+1, iterations)
		}
	}

	return stft.Inverse(spec)
}
