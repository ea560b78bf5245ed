package img2wav

import (
	"context"
	"time"
)

// ProgressFunc receives normalized pipeline progress as a percentage:
// current grows monotonically from 0 to total, total is always 100.
type ProgressFunc func(current, total int)

// RenderResult summarizes one completed render.
type RenderResult struct {
	Frames      int
	Bins        int
	Samples     int
	Channels    int
	OutputPath  string
	OutputBytes int64
	Elapsed     time.Duration
}

// RenderJob is a persisted record of a render request.
type RenderJob struct {
	ID          string
	CreatedAt   time.Time
	ImageWidth  int
	ImageHeight int
	ParamsJSON  string
	OutputPath  string
	Frames      int
	Samples     int
	ElapsedMs   int64
	Status      string
	Error       string
}

// Job status values.
const (
	JobStatusDone      = "done"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// Service runs the image-to-audio pipeline.
type Service interface {
	// Render converts a row-major grayscale buffer (width*height values
	// in [0,1], top row first) into a WAV file at outPath. onProgress
	// may be nil. Cancellation via ctx aborts between stages and inside
	// the reconstruction loop; the error is then context.Canceled.
	Render(ctx context.Context, pixels []float64, width, height int,
		params RenderParams, outPath string, onProgress ProgressFunc) (*RenderResult, error)

	// RenderFile loads a PNG or JPEG image from imagePath and renders it.
	RenderFile(ctx context.Context, imagePath, outPath string,
		params RenderParams, onProgress ProgressFunc) (*RenderResult, error)

	// Close releases the job store, if any.
	Close() error
}

// Store persists render-job history. Implementations must be safe for
// concurrent use.
type Store interface {
	SaveJob(job *RenderJob) error
	ListJobs() ([]RenderJob, error)
	GetJob(id string) (*RenderJob, error)
	DeleteJob(id string) error
	Close() error
}

// Logger is the logging interface used by the service, satisfied by
// pkg/logger and by anything callers prefer to plug in.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
