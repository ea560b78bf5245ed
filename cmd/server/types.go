package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/himanishpuri/img2wav/pkg/img2wav"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// RenderResponse is returned by POST /api/render.
type RenderResponse struct {
	File        string `json:"file"`
	DownloadURL string `json:"download_url"`
	Frames      int    `json:"frames"`
	Bins        int    `json:"bins"`
	Samples     int    `json:"samples"`
	Channels    int    `json:"channels"`
	Bytes       int64  `json:"bytes"`
	ElapsedMs   int64  `json:"elapsed_ms"`
}

// JobResponse is the JSON shape of a persisted render job.
type JobResponse struct {
	ID          string `json:"id"`
	CreatedAt   string `json:"created_at"`
	ImageWidth  int    `json:"image_width"`
	ImageHeight int    `json:"image_height"`
	Params      string `json:"params"`
	OutputPath  string `json:"output_path"`
	Frames      int    `json:"frames"`
	Samples     int    `json:"samples"`
	ElapsedMs   int64  `json:"elapsed_ms"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

func toJobResponse(job *img2wav.RenderJob) JobResponse {
	return JobResponse{
		ID:          job.ID,
		CreatedAt:   job.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		ImageWidth:  job.ImageWidth,
		ImageHeight: job.ImageHeight,
		Params:      job.ParamsJSON,
		OutputPath:  job.OutputPath,
		Frames:      job.Frames,
		Samples:     job.Samples,
		ElapsedMs:   job.ElapsedMs,
		Status:      job.Status,
		Error:       job.Error,
	}
}

// parseRenderParams reads the render parameters from multipart form
// values, falling back to defaults for absent fields. Range validation
// happens in the service; this only parses.
func parseRenderParams(r *http.Request) (img2wav.RenderParams, error) {
	params := img2wav.DefaultParams()

	intField := func(name string, dst *int) error {
		if v := r.FormValue(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("field %s: %v", name, err)
			}
			*dst = n
		}
		return nil
	}
	floatField := func(name string, dst *float64) error {
		if v := r.FormValue(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("field %s: %v", name, err)
			}
			*dst = f
		}
		return nil
	}
	boolField := func(name string, dst *bool) error {
		if v := r.FormValue(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("field %s: %v", name, err)
			}
			*dst = b
		}
		return nil
	}

	for _, err := range []error{
		intField("fft_size", &params.FFTSize),
		intField("sample_rate", &params.SampleRate),
		intField("iterations", &params.Iterations),
		floatField("min_freq_hz", &params.MinFreqHz),
		floatField("max_freq_hz", &params.MaxFreqHz),
		floatField("min_db", &params.MinDb),
		floatField("gamma", &params.Gamma),
		floatField("normalize_target_dbfs", &params.NormalizeTargetDbfs),
		floatField("output_gain_db", &params.OutputGainDb),
		boolField("use_limiter", &params.UseLimiter),
		boolField("stereo", &params.Stereo),
	} {
		if err != nil {
			return params, err
		}
	}

	hopDiv := 4
	if err := intField("hop_div", &hopDiv); err != nil {
		return params, err
	}
	if hopDiv == 0 {
		return params, fmt.Errorf("field hop_div: must be 2, 4 or 8")
	}
	params.HopSize = params.FFTSize / hopDiv

	if v := r.FormValue("freq_scale"); v != "" {
		switch strings.ToLower(v) {
		case "linear":
			params.FreqScale = img2wav.Linear
		case "log", "logarithmic":
			params.FreqScale = img2wav.Logarithmic
		default:
			return params, fmt.Errorf("field freq_scale: unknown scale %q", v)
		}
	}

	if v := r.FormValue("bit_depth"); v != "" {
		switch v {
		case "16":
			params.BitDepth = img2wav.Int16
		case "24":
			params.BitDepth = img2wav.Int24
		case "32f", "32":
			params.BitDepth = img2wav.Float32
		default:
			return params, fmt.Errorf("field bit_depth: unknown depth %q", v)
		}
	}

	if v := r.FormValue("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return params, fmt.Errorf("field seed: %v", err)
		}
		params.Seed = seed
	}

	return params, nil
}
