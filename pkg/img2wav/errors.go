package img2wav

import "errors"

// Failure kinds surfaced by the render pipeline. Stage errors wrap one
// of these; match with errors.Is. Cancellation is reported as
// context.Canceled and is a distinct terminal outcome, not a failure.
var (
	// ErrInvalidParameter indicates a parameter outside its documented
	// range, or a violated derived invariant.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrEmptyInput indicates an image with zero width or height, or a
	// spectrogram with zero frames.
	ErrEmptyInput = errors.New("empty input")

	// ErrBackendFailure indicates the FFT backend failed to produce a
	// usable result.
	ErrBackendFailure = errors.New("backend failure")

	// ErrIOFailure indicates the output file could not be created or a
	// write came up short.
	ErrIOFailure = errors.New("i/o failure")
)
