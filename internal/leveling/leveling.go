// Package leveling post-processes reconstructed audio: DC removal, peak
// normalization, gain, a soft-knee safety limiter and mono-to-stereo
// interleaving. All operations except MonoToStereo work in place.
package leveling

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultLimiterThreshold is the knee point of the safety limiter.
const DefaultLimiterThreshold = 0.99

// silenceFloor is the peak below which normalization is skipped.
const silenceFloor = 1e-8

// RemoveDCOffset subtracts the mean from every sample.
func RemoveDCOffset(audio []float64) {
	if len(audio) == 0 {
		return
	}
	mean := stat.Mean(audio, nil)
	floats.AddConst(-mean, audio)
}

// Normalize scales the buffer so its peak reaches targetDbfs. Silent
// buffers are left untouched.
func Normalize(audio []float64, targetDbfs float64) {
	if len(audio) == 0 {
		return
	}

	peak := floats.Norm(audio, math.Inf(1))
	if peak < silenceFloor {
		return
	}

	target := math.Pow(10, targetDbfs/20)
	floats.Scale(target/peak, audio)
}

// ApplyGain multiplies every sample by the linear equivalent of gainDb.
func ApplyGain(audio []float64, gainDb float64) {
	if len(audio) == 0 {
		return
	}
	floats.Scale(math.Pow(10, gainDb/20), audio)
}

// SoftClip passes samples within [-threshold, threshold] unchanged and
// compresses the excess through tanh, asymptoting at full scale.
func SoftClip(sample, threshold float64) float64 {
	if math.Abs(sample) <= threshold {
		return sample
	}

	sign := 1.0
	if sample < 0 {
		sign = -1.0
	}
	excess := math.Abs(sample) - threshold
	return sign * (threshold + (1-threshold)*math.Tanh(excess/(1-threshold)))
}

// ApplySafetyLimiter soft-clips every sample at the given threshold.
func ApplySafetyLimiter(audio []float64, threshold float64) {
	for i, s := range audio {
		audio[i] = SoftClip(s, threshold)
	}
}

// MonoToStereo duplicates a mono buffer into interleaved L/R pairs.
func MonoToStereo(mono []float64) []float64 {
	stereo := make([]float64, len(mono)*2)
	for i, s := range mono {
		stereo[i*2] = s
		stereo[i*2+1] = s
	}
	return stereo
}
