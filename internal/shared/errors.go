package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrInvalidFlag   = fmt.Errorf("invalid flag combination")

	// Credential errors
	ErrInvalidToken = fmt.Errorf("account token rejected")

	// Environment errors
	ErrTranscoderMissing = fmt.Errorf("ffmpeg and/or ffprobe is not in PATH")

	// Resolution errors
	ErrUnknownReference = fmt.Errorf("reference could not be classified")
	ErrNotResolved      = fmt.Errorf("reference could not be resolved")
	ErrNoStreams        = fmt.Errorf("no usable streams")

	// API and subprocess errors
	ErrAPIRequest      = fmt.Errorf("API request failed")
	ErrTranscodeFailed = fmt.Errorf("transcoder exited with an error")
)
