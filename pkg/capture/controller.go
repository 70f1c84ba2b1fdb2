package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/ecoscan/recyclelens/internal/logger"
)

// Controller owns at most one live stream handle at a time and drives the
// Idle -> Previewing -> Captured lifecycle. All methods are safe for
// concurrent use; transitions happen under one lock so capture-and-release
// is atomic from the caller's perspective.
type Controller struct {
	mu     sync.Mutex
	camera Camera
	cfg    EncodeConfig

	state  State
	stream Stream
	frame  *Frame
}

// NewController creates a Controller for the given camera.
func NewController(camera Camera, cfg EncodeConfig) *Controller {
	if cfg.Format == "" {
		cfg = DefaultEncodeConfig()
	}
	return &Controller{camera: camera, cfg: cfg, state: StateIdle}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Frame returns the captured frame, if any.
func (c *Controller) Frame() (*Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frame == nil {
		return nil, false
	}
	return c.frame, true
}

// Start opens the camera stream and enters Previewing. On failure the
// controller stays Idle and the error is returned for the caller to surface;
// Start may be retried.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked(ctx)
}

func (c *Controller) startLocked(ctx context.Context) error {
	if c.state == StatePreviewing {
		return ErrAlreadyPreviewing
	}

	stream, err := c.camera.Open(ctx)
	if err != nil {
		c.state = StateIdle
		logger.L().Error("camera open failed", "err", err)
		return fmt.Errorf("failed to open camera: %w", err)
	}

	c.stream = stream
	c.state = StatePreviewing
	return nil
}

// Capture grabs the current video frame, encodes it, and releases the stream
// as part of the same transition. On success the controller is Captured; on
// any failure the stream is still released and the controller returns to
// Idle.
func (c *Controller) Capture() (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePreviewing || c.stream == nil {
		return nil, ErrNotPreviewing
	}

	img, err := c.stream.Frame()
	if err != nil {
		c.releaseLocked()
		c.state = StateIdle
		logger.L().Error("frame grab failed", "err", err)
		return nil, fmt.Errorf("failed to grab frame: %w", err)
	}

	frame, err := encodeFrame(img, c.cfg)
	if err != nil {
		c.releaseLocked()
		c.state = StateIdle
		logger.L().Error("frame encode failed", "err", err)
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	c.releaseLocked()
	c.frame = frame
	c.state = StateCaptured
	return frame, nil
}

// Retake discards the captured frame and re-enters the preview state.
func (c *Controller) Retake(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCaptured {
		return ErrNotCaptured
	}

	c.frame = nil
	c.state = StateIdle
	return c.startLocked(ctx)
}

// Stop returns the controller to Idle, releasing the stream if one is held.
// Safe to call from any state and repeatedly; teardown paths rely on that.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked()
	c.state = StateIdle
}

// releaseLocked closes and clears the stream handle. Clearing before close
// means a second call is a no-op, so each acquisition is released once.
func (c *Controller) releaseLocked() {
	if c.stream == nil {
		return
	}
	stream := c.stream
	c.stream = nil
	if err := stream.Close(); err != nil {
		logger.L().Warn("stream close failed", "err", err)
	}
}
