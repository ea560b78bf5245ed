// Package img2wav converts still images into audio whose spectrogram
// resembles the image, via Griffin-Lim phase reconstruction.
package img2wav

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/himanishpuri/img2wav/internal/dsp"
	"github.com/himanishpuri/img2wav/internal/imageio"
	"github.com/himanishpuri/img2wav/internal/leveling"
	"github.com/himanishpuri/img2wav/internal/spectrogram"
	"github.com/himanishpuri/img2wav/internal/wavio"
	"github.com/himanishpuri/img2wav/pkg/logger"
	"github.com/himanishpuri/img2wav/pkg/utils"
)

type renderService struct {
	store Store
	log   Logger
}

// NewService builds a Service from the given options.
func NewService(opts ...Option) (Service, error) {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	return &renderService{
		store: cfg.Store,
		log:   cfg.Logger,
	}, nil
}

// Progress milestones, as percentages of the whole render. Griffin-Lim
// dominates the runtime, so it owns nearly the entire range.
const (
	progressBuilt     = 5
	progressReconDone = 95
	progressTotal     = 100
)

// progressTracker keeps reported progress monotone.
type progressTracker struct {
	fn   ProgressFunc
	last int
}

func (p *progressTracker) report(current int) {
	if p.fn == nil || current <= p.last {
		return
	}
	p.last = current
	p.fn(current, progressTotal)
}

func (s *renderService) Render(
	ctx context.Context,
	pixels []float64,
	width, height int,
	params RenderParams,
	outPath string,
	onProgress ProgressFunc,
) (*RenderResult, error) {
	start := time.Now()

	result, err := s.render(ctx, pixels, width, height, params, outPath, onProgress)
	elapsed := time.Since(start)

	s.recordJob(width, height, params, outPath, result, elapsed, err)

	if err != nil {
		return nil, err
	}
	result.Elapsed = elapsed
	return result, nil
}

func (s *renderService) render(
	ctx context.Context,
	pixels []float64,
	width, height int,
	params RenderParams,
	outPath string,
	onProgress ProgressFunc,
) (*RenderResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image is %dx%d: %w", width, height, ErrEmptyInput)
	}
	if len(pixels) != width*height {
		return nil, fmt.Errorf("pixel buffer has %d values, want %d: %w",
			len(pixels), width*height, ErrInvalidParameter)
	}
	if outPath == "" {
		return nil, fmt.Errorf("output path is empty: %w", ErrInvalidParameter)
	}

	progress := &progressTracker{fn: onProgress}

	s.log.Infof("render: %dx%d image -> %s (fft=%d hop=%d rate=%d scale=%s iters=%d)",
		width, height, outPath, params.FFTSize, params.HopSize, params.SampleRate,
		params.FreqScale, params.Iterations)

	// Stage 1: image -> magnitude spectrogram.
	magnitude := spectrogram.Build(pixels, width, height, params.spectrogramParams())
	if len(magnitude) == 0 {
		return nil, fmt.Errorf("spectrogram has no frames: %w", ErrEmptyInput)
	}
	progress.report(progressBuilt)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: Griffin-Lim reconstruction.
	stft, err := dsp.NewSTFT(params.FFTSize, params.HopSize)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidParameter)
	}

	gl := dsp.NewGriffinLim()
	if params.Seed != 0 {
		gl = dsp.NewGriffinLimSeeded(params.Seed)
	}

	span := progressReconDone - progressBuilt
	audio := gl.Reconstruct(ctx, magnitude, stft, params.Iterations, func(iter, total int) {
		progress.report(progressBuilt + span*iter/total)
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("reconstruction produced no audio: %w", ErrBackendFailure)
	}

	// Stage 3: leveling.
	leveling.RemoveDCOffset(audio)
	leveling.Normalize(audio, params.NormalizeTargetDbfs)
	leveling.ApplyGain(audio, params.OutputGainDb)
	if params.UseLimiter {
		leveling.ApplySafetyLimiter(audio, leveling.DefaultLimiterThreshold)
	}

	channels := 1
	interleaved := audio
	if params.Stereo {
		interleaved = leveling.MonoToStereo(audio)
		channels = 2
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 4: encode. Write to a temp file first so a failed render
	// never leaves a truncated WAV at the destination.
	tmpPath := outPath + ".tmp"
	if err := wavio.Write(tmpPath, interleaved, channels, params.SampleRate, params.BitDepth); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrIOFailure)
	}
	if err := utils.MoveFile(tmpPath, outPath); err != nil {
		utils.DeleteFile(tmpPath)
		return nil, fmt.Errorf("%v: %w", err, ErrIOFailure)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrIOFailure)
	}
	progress.report(progressTotal)

	s.log.Infof("render: wrote %s (%d samples, %d ch, %s)",
		outPath, len(interleaved), channels, params.BitDepth)

	return &RenderResult{
		Frames:      len(magnitude),
		Bins:        len(magnitude[0]),
		Samples:     len(interleaved),
		Channels:    channels,
		OutputPath:  outPath,
		OutputBytes: info.Size(),
	}, nil
}

func (s *renderService) RenderFile(
	ctx context.Context,
	imagePath, outPath string,
	params RenderParams,
	onProgress ProgressFunc,
) (*RenderResult, error) {
	img, err := imageio.Load(imagePath)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrIOFailure)
	}
	return s.Render(ctx, img.Pixels, img.Width, img.Height, params, outPath, onProgress)
}

// recordJob writes a history entry if a store is configured. History is
// best-effort: a store failure is logged, never surfaced.
func (s *renderService) recordJob(
	width, height int,
	params RenderParams,
	outPath string,
	result *RenderResult,
	elapsed time.Duration,
	renderErr error,
) {
	if s.store == nil {
		return
	}

	job := &RenderJob{
		ID:          utils.NewID(),
		CreatedAt:   time.Now(),
		ImageWidth:  width,
		ImageHeight: height,
		OutputPath:  outPath,
		ElapsedMs:   elapsed.Milliseconds(),
		Status:      JobStatusDone,
	}
	if encoded, err := json.Marshal(params); err == nil {
		job.ParamsJSON = string(encoded)
	}

	switch {
	case renderErr == nil:
		job.Frames = result.Frames
		job.Samples = result.Samples
	case errors.Is(renderErr, context.Canceled), errors.Is(renderErr, context.DeadlineExceeded):
		job.Status = JobStatusCancelled
	default:
		job.Status = JobStatusFailed
		job.Error = renderErr.Error()
	}

	if err := s.store.SaveJob(job); err != nil {
		s.log.Warnf("render: failed to record job: %v", err)
	}
}

func (s *renderService) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
