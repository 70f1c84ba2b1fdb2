// Package classify issues multimodal recyclability requests against an
// Ollama-compatible vision model and exposes the response as an ordered
// stream of text deltas.
package classify

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ecoscan/recyclelens/pkg/capture"
)

// Request is an immutable snapshot of one classification submission: the
// captured frame's decoded bytes plus the location string as it was at
// submit time. Later edits to the location do not affect an in-flight
// request.
type Request struct {
	ID        uuid.UUID
	ImageData []byte
	MIMEType  string
	Location  string
	CreatedAt time.Time
}

// NewRequest snapshots a captured frame and location into a Request.
func NewRequest(frame *capture.Frame, location string) (Request, error) {
	if frame == nil {
		return Request{}, fmt.Errorf("nil frame")
	}
	data, err := capture.DecodeFrameData(frame)
	if err != nil {
		return Request{}, err
	}
	return Request{
		ID:        uuid.New(),
		ImageData: data,
		MIMEType:  frame.MIMEType,
		Location:  location,
		CreatedAt: time.Now(),
	}, nil
}
