package img2wav

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/himanishpuri/img2wav/internal/wavio"
)

// fakeStore records saved jobs in memory.
type fakeStore struct {
	jobs []RenderJob
}

func (f *fakeStore) SaveJob(job *RenderJob) error {
	f.jobs = append(f.jobs, *job)
	return nil
}
func (f *fakeStore) ListJobs() ([]RenderJob, error) { return f.jobs, nil }

func (f *fakeStore) GetJob(id string) (*RenderJob, error) { return nil, errors.New("not found") }

func (f *fakeStore) DeleteJob(id string) error { return nil }

func (f *fakeStore) Close() error { return nil }

func testService(t *testing.T, opts ...Option) Service {
	t.Helper()
	svc, err := NewService(opts...)
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func blackPixelParams() RenderParams {
	params := DefaultParams()
	params.FFTSize = 1024
	params.HopSize = 256
	params.Iterations = 16
	params.Seed = 1
	params.BitDepth = Float32
	return params
}

func TestRenderBlackPixel(t *testing.T) {
	svc := testService(t)
	defer svc.Close()

	outPath := filepath.Join(t.TempDir(), "black.wav")
	result, err := svc.Render(context.Background(), []float64{0}, 1, 1, blackPixelParams(), outPath, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.Frames != 1 || result.Bins != 513 {
		t.Errorf("expected 1 frame x 513 bins, got %dx%d", result.Frames, result.Bins)
	}
	if result.Samples != 1024 || result.Channels != 1 {
		t.Errorf("expected 1024 mono samples, got %d x %d ch", result.Samples, result.Channels)
	}

	audio, err := wavio.Decode(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(audio.Samples) != 1024 {
		t.Fatalf("expected 1024 samples on disk, got %d", len(audio.Samples))
	}

	// Normalization to -1 dBFS puts the peak at 10^(-1/20).
	var peak float64
	for _, s := range audio.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	want := math.Pow(10, -1.0/20)
	if math.Abs(peak-want) > 1e-4 {
		t.Errorf("peak = %g, expected %g", peak, want)
	}
}

func TestRenderStereo(t *testing.T) {
	svc := testService(t)
	defer svc.Close()

	params := blackPixelParams()
	params.Stereo = true

	outPath := filepath.Join(t.TempDir(), "stereo.wav")
	result, err := svc.Render(context.Background(), []float64{1}, 1, 1, params, outPath, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.Channels != 2 || result.Samples != 2048 {
		t.Errorf("expected 2048 stereo samples, got %d x %d ch", result.Samples, result.Channels)
	}

	audio, err := wavio.Decode(outPath)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i+1 < len(audio.Samples); i += 2 {
		if audio.Samples[i] != audio.Samples[i+1] {
			t.Fatalf("frame %d: L and R differ", i/2)
		}
	}
}

func TestRenderProgressMonotone(t *testing.T) {
	svc := testService(t)
	defer svc.Close()

	var calls []int
	outPath := filepath.Join(t.TempDir(), "progress.wav")
	_, err := svc.Render(context.Background(), []float64{0.5, 0.7}, 2, 1, blackPixelParams(), outPath,
		func(current, total int) {
			if total != 100 {
				t.Errorf("total = %d, expected 100", total)
			}
			calls = append(calls, current)
		})
	if err != nil {
		t.Fatal(err)
	}

	if len(calls) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(calls); i++ {
		if calls[i] <= calls[i-1] {
			t.Fatalf("progress not strictly increasing: %v", calls)
		}
	}
	if calls[len(calls)-1] != 100 {
		t.Errorf("final progress = %d, expected 100", calls[len(calls)-1])
	}
}

func TestRenderEmptyImage(t *testing.T) {
	svc := testService(t)
	defer svc.Close()

	_, err := svc.Render(context.Background(), nil, 0, 0, blackPixelParams(),
		filepath.Join(t.TempDir(), "empty.wav"), nil)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestRenderBadPixelCount(t *testing.T) {
	svc := testService(t)
	defer svc.Close()

	_, err := svc.Render(context.Background(), []float64{0}, 2, 2, blackPixelParams(),
		filepath.Join(t.TempDir(), "bad.wav"), nil)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestRenderInvalidParams(t *testing.T) {
	svc := testService(t)
	defer svc.Close()

	params := blackPixelParams()
	params.Iterations = 0

	_, err := svc.Render(context.Background(), []float64{0}, 1, 1, params,
		filepath.Join(t.TempDir(), "invalid.wav"), nil)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestRenderCancelled(t *testing.T) {
	svc := testService(t)
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outPath := filepath.Join(t.TempDir(), "cancelled.wav")
	_, err := svc.Render(ctx, []float64{0}, 1, 1, blackPixelParams(), outPath, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if _, statErr := os.Stat(outPath); !os.IsNotExist(statErr) {
		t.Error("cancelled render left an output file")
	}
}

func TestRenderRecordsJob(t *testing.T) {
	store := &fakeStore{}
	svc := testService(t, WithStore(store))
	defer svc.Close()

	outPath := filepath.Join(t.TempDir(), "job.wav")
	if _, err := svc.Render(context.Background(), []float64{0}, 1, 1, blackPixelParams(), outPath, nil); err != nil {
		t.Fatal(err)
	}

	if len(store.jobs) != 1 {
		t.Fatalf("expected 1 recorded job, got %d", len(store.jobs))
	}
	job := store.jobs[0]
	if job.Status != JobStatusDone {
		t.Errorf("job status = %q, expected %q", job.Status, JobStatusDone)
	}
	if job.ID == "" || job.ParamsJSON == "" || job.OutputPath != outPath {
		t.Errorf("job incomplete: %+v", job)
	}
	if job.Frames != 1 || job.Samples != 1024 {
		t.Errorf("job stats wrong: %+v", job)
	}
}

func TestRenderRecordsFailedJob(t *testing.T) {
	store := &fakeStore{}
	svc := testService(t, WithStore(store))
	defer svc.Close()

	params := blackPixelParams()
	params.Gamma = 99

	svc.Render(context.Background(), []float64{0}, 1, 1, params,
		filepath.Join(t.TempDir(), "fail.wav"), nil)

	if len(store.jobs) != 1 || store.jobs[0].Status != JobStatusFailed {
		t.Fatalf("expected one failed job, got %+v", store.jobs)
	}
	if store.jobs[0].Error == "" {
		t.Error("failed job has no error message")
	}
}
