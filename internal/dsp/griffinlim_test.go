package dsp

import (
	"context"
	"math"
	"math/cmplx"
	"testing"
)

// testMagnitude derives a realizable magnitude spectrogram from an
// actual signal, so Griffin-Lim has something it can converge toward.
func testMagnitude(t *testing.T, st *STFT, numSamples int) [][]float64 {
	t.Helper()

	signal := make([]float64, numSamples)
	for i := range signal {
		signal[i] = math.Sin(2*math.Pi*220*float64(i)/44100) +
			0.3*math.Sin(2*math.Pi*3520*float64(i)/44100)
	}

	spec := st.Forward(signal)
	magnitude := make([][]float64, len(spec))
	for ti, frame := range spec {
		magnitude[ti] = make([]float64, len(frame))
		for k, c := range frame {
			magnitude[ti][k] = cmplx.Abs(c)
		}
	}
	return magnitude
}

// magnitudeError is the relative mean-squared distance between the
// STFT magnitude of audio and the target.
func magnitudeError(st *STFT, audio []float64, target [][]float64) float64 {
	spec := st.Forward(audio)

	var errSum, refSum float64
	for t := 0; t < len(target) && t < len(spec); t++ {
		for k := 0; k < len(target[t]) && k < len(spec[t]); k++ {
			d := cmplx.Abs(spec[t][k]) - target[t][k]
			errSum += d * d
			refSum += target[t][k] * target[t][k]
		}
	}
	return errSum / refSum
}

func TestReconstructEmpty(t *testing.T) {
	st, err := NewSTFT(1024, 256)
	if err != nil {
		t.Fatal(err)
	}

	gl := NewGriffinLimSeeded(1)
	if audio := gl.Reconstruct(context.Background(), nil, st, 32, nil); audio != nil {
		t.Errorf("expected nil audio for empty magnitude, got %d samples", len(audio))
	}
}

func TestReconstructLength(t *testing.T) {
	st, err := NewSTFT(1024, 256)
	if err != nil {
		t.Fatal(err)
	}

	magnitude := testMagnitude(t, st, 4096)
	gl := NewGriffinLimSeeded(7)
	audio := gl.Reconstruct(context.Background(), magnitude, st, 16, nil)

	want := 1024 + (len(magnitude)-1)*256
	if len(audio) != want {
		t.Errorf("expected %d samples, got %d", want, len(audio))
	}
}

func TestReconstructMatchesMagnitude(t *testing.T) {
	st, err := NewSTFT(1024, 256)
	if err != nil {
		t.Fatal(err)
	}

	magnitude := testMagnitude(t, st, 4096)
	gl := NewGriffinLimSeeded(42)
	audio := gl.Reconstruct(context.Background(), magnitude, st, 32, nil)

	if mse := magnitudeError(st, audio, magnitude); mse > 0.05 {
		t.Errorf("relative magnitude MSE %g exceeds 5%%", mse)
	}
}

// More iterations never move the result further from the target.
func TestReconstructNonDivergent(t *testing.T) {
	st, err := NewSTFT(1024, 256)
	if err != nil {
		t.Fatal(err)
	}

	magnitude := testMagnitude(t, st, 4096)

	shortRun := NewGriffinLimSeeded(5).Reconstruct(context.Background(), magnitude, st, 8, nil)
	longRun := NewGriffinLimSeeded(5).Reconstruct(context.Background(), magnitude, st, 64, nil)

	errShort := magnitudeError(st, shortRun, magnitude)
	errLong := magnitudeError(st, longRun, magnitude)

	if errLong > errShort+1e-6 {
		t.Errorf("error grew with iterations: %g after 8, %g after 64", errShort, errLong)
	}
}

func TestReconstructSeededDeterministic(t *testing.T) {
	st, err := NewSTFT(1024, 256)
	if err != nil {
		t.Fatal(err)
	}

	magnitude := testMagnitude(t, st, 2048)

	a := NewGriffinLimSeeded(99).Reconstruct(context.Background(), magnitude, st, 16, nil)
	b := NewGriffinLimSeeded(99).Reconstruct(context.Background(), magnitude, st, 16, nil)

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %g vs %g", i, a[i], b[i])
		}
	}
}

func TestReconstructProgress(t *testing.T) {
	st, err := NewSTFT(1024, 256)
	if err != nil {
		t.Fatal(err)
	}

	magnitude := testMagnitude(t, st, 2048)

	var calls []int
	NewGriffinLimSeeded(3).Reconstruct(context.Background(), magnitude, st, 16, func(current, total int) {
		if total != 16 {
			t.Errorf("total changed to %d", total)
		}
		calls = append(calls, current)
	})

	if len(calls) != 16 {
		t.Fatalf("expected 16 progress calls, got %d", len(calls))
	}
	for i, c := range calls {
		if c != i+1 {
			t.Fatalf("progress call %d reported %d", i, c)
		}
	}
}

// Cancelling after iteration N yields exactly the audio a run with N
// iterations would produce.
func TestReconstructCancellation(t *testing.T) {
	st, err := NewSTFT(1024, 256)
	if err != nil {
		t.Fatal(err)
	}

	magnitude := testMagnitude(t, st, 2048)

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := NewGriffinLimSeeded(11).Reconstruct(ctx, magnitude, st, 64, func(current, total int) {
		if current == 10 {
			cancel()
		}
	})

	reference := NewGriffinLimSeeded(11).Reconstruct(context.Background(), magnitude, st, 10, nil)

	if len(cancelled) == 0 {
		t.Fatal("cancelled run returned no audio")
	}
	if len(cancelled) != len(reference) {
		t.Fatalf("lengths differ: %d vs %d", len(cancelled), len(reference))
	}
	for i := range cancelled {
		if math.Abs(cancelled[i]-reference[i]) > 1e-12 {
			t.Fatalf("sample %d differs: %g vs %g", i, cancelled[i], reference[i])
		}
	}
}
