// Package capture manages the camera-stream lifecycle and still-frame
// extraction. A Controller moves through Idle, Previewing, and Captured
// states and guarantees that an acquired stream is released exactly once on
// every path that leaves Previewing.
package capture

import (
	"context"
	"errors"
	"image"
)

// State is the capture lifecycle state.
type State int

const (
	StateIdle State = iota
	StatePreviewing
	StateCaptured
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreviewing:
		return "previewing"
	case StateCaptured:
		return "captured"
	default:
		return "unknown"
	}
}

var (
	// ErrNotPreviewing is returned when a capture is attempted without an
	// active preview stream.
	ErrNotPreviewing = errors.New("capture: no active preview stream")
	// ErrNotCaptured is returned when a retake is attempted without a
	// captured frame.
	ErrNotCaptured = errors.New("capture: no captured frame to retake")
	// ErrAlreadyPreviewing is returned when Start is called while a stream
	// is already live.
	ErrAlreadyPreviewing = errors.New("capture: preview already running")
)

// Camera opens a live media stream, the getUserMedia analogue.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is a live media stream handle. Frame returns the current video
// frame; Close stops every track and releases the device.
type Stream interface {
	Frame() (image.Image, error)
	Close() error
}

// Frame is an immutable encoded still frame. It is created only by a
// successful capture and replaced wholesale on retake.
type Frame struct {
	Data     string // base64-encoded image payload
	MIMEType string
	Width    int
	Height   int
}

// EncodeConfig controls how captured frames are encoded.
type EncodeConfig struct {
	Format   string // jpg|png|webp
	Quality  int    // JPEG/WebP quality (1-100)
	Lossless bool   // WebP lossless mode
	MaxEdge  int    // downscale frames whose long side exceeds this, 0=never
}

// DefaultEncodeConfig returns the encoding defaults used by the controller.
func DefaultEncodeConfig() EncodeConfig {
	return EncodeConfig{
		Format:  "jpg",
		Quality: 85,
		MaxEdge: 1536,
	}
}
