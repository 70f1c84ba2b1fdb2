// Package recyclelens checks whether an object seen by a camera is
// recyclable under the rules of the user's location.
//
// A Session ties four components together: best-effort location resolution
// (pkg/geo), the camera capture lifecycle (pkg/capture), a streaming
// multimodal classifier (pkg/classify), and an incremental presenter that
// renders the streamed verdict and derives a tri-state signal (pkg/present).
//
// Basic usage:
//
//	classifier, err := classify.NewClassifier("http://localhost:11434", "llava", classify.DefaultOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	session := recyclelens.New(&capture.FileCamera{Path: "bottle.jpg"}, classifier)
//	session.Start(ctx) // kicks off async location resolution, if configured
//
//	if err := session.StartPreview(ctx); err != nil {
//		log.Fatal(err)
//	}
//	if _, err := session.Capture(); err != nil {
//		log.Fatal(err)
//	}
//	if err := session.Submit(ctx); err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(session.Output(), session.Signal())
//
// All mutable state (location string, captured frame, stream handle, stream
// buffer) lives on the Session or the component that owns it; there are no
// package-level globals.
package recyclelens

import (
	"context"
	"errors"
	"sync"

	"github.com/ecoscan/recyclelens/internal/logger"
	"github.com/ecoscan/recyclelens/pkg/capture"
	"github.com/ecoscan/recyclelens/pkg/classify"
	"github.com/ecoscan/recyclelens/pkg/geo"
	"github.com/ecoscan/recyclelens/pkg/markup"
	"github.com/ecoscan/recyclelens/pkg/present"
)

// ErrNoFrame is returned by Submit when no frame has been captured. No
// request is constructed and the classifier is not invoked.
var ErrNoFrame = errors.New("recyclelens: no captured frame; capture an image before submitting")

// StreamClassifier produces a delta stream for one request snapshot.
type StreamClassifier interface {
	Classify(ctx context.Context, req classify.Request) (*classify.ResultStream, error)
}

// SessionConfig wires a Session's collaborators. Camera and Classifier are
// required; the rest default sensibly.
type SessionConfig struct {
	Camera     capture.Camera
	Encode     capture.EncodeConfig
	Classifier StreamClassifier
	Resolver   *geo.Resolver // nil disables location resolution
	Renderer   *markup.Renderer

	// OnUpdate, when set, is invoked after every applied delta (and after a
	// terminal stream error) with the rendered markup and current signal.
	OnUpdate func(output string, signal present.Signal)
}

// Session is one user session: an editable location, a capture controller,
// and the presenter state for the most recent submission.
type Session struct {
	controller *capture.Controller
	classifier StreamClassifier
	resolver   *geo.Resolver
	presenter  *present.Presenter
	onUpdate   func(string, present.Signal)

	mu            sync.Mutex
	location      string
	userEdited    bool
	resolverWrote bool

	submitMu sync.Mutex // serializes submissions; one request in flight
}

// New creates a Session with default encoding and rendering.
func New(camera capture.Camera, classifier StreamClassifier) *Session {
	return NewWithConfig(SessionConfig{Camera: camera, Classifier: classifier})
}

// NewWithConfig creates a Session from explicit collaborators.
func NewWithConfig(cfg SessionConfig) *Session {
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = markup.New()
	}
	return &Session{
		controller: capture.NewController(cfg.Camera, cfg.Encode),
		classifier: cfg.Classifier,
		resolver:   cfg.Resolver,
		presenter:  present.NewPresenter(renderer),
		onUpdate:   cfg.OnUpdate,
	}
}

// Start launches the best-effort location resolution in the background. The
// resolver writes the location at most once, and only if the user has not
// edited it by the time the result arrives. Every resolution failure is
// logged and swallowed; Start never blocks the caller.
func (s *Session) Start(ctx context.Context) {
	if s.resolver == nil {
		return
	}
	go func() {
		place, err := s.resolver.Resolve(ctx)
		if err != nil {
			logger.L().Debug("location resolution abandoned", "err", err)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.userEdited || s.resolverWrote {
			return
		}
		s.location = place
		s.resolverWrote = true
	}()
}

// SetLocation records a user edit. User text always wins over resolver
// writes that arrive later.
func (s *Session) SetLocation(location string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = location
	s.userEdited = true
}

// Location returns the current location string.
func (s *Session) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// StartPreview opens the camera stream.
func (s *Session) StartPreview(ctx context.Context) error {
	return s.controller.Start(ctx)
}

// Capture grabs and encodes the current frame, releasing the stream.
func (s *Session) Capture() (*capture.Frame, error) {
	return s.controller.Capture()
}

// Retake discards the captured frame and restarts the preview.
func (s *Session) Retake(ctx context.Context) error {
	return s.controller.Retake(ctx)
}

// Stop tears the capture lifecycle down. Call it on unmount paths too; the
// stream is released even when no capture happened.
func (s *Session) Stop() {
	s.controller.Stop()
}

// CaptureState returns the capture lifecycle state.
func (s *Session) CaptureState() capture.State {
	return s.controller.State()
}

// Submit snapshots the captured frame and location into a request, streams
// the classification, and folds each delta into the presenter in arrival
// order. On a terminal stream error the partial output is preserved with
// the error description appended, and the error is returned; the session
// stays usable for another submit.
func (s *Session) Submit(ctx context.Context) error {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	frame, ok := s.controller.Frame()
	if !ok {
		return ErrNoFrame
	}

	req, err := classify.NewRequest(frame, s.Location())
	if err != nil {
		return err
	}

	// A new request discards the previous buffer. An earlier stream that is
	// somehow still draining is dropped and ignored, not cancelled.
	s.presenter.Begin(req.ID)

	stream, err := s.classifier.Classify(ctx, req)
	if err != nil {
		return err
	}

	for delta := range stream.Deltas() {
		s.presenter.Append(delta)
		s.notify()
	}

	if err := stream.Err(); err != nil {
		s.presenter.Fail(err)
		s.notify()
		return err
	}
	return nil
}

// Output returns the rendered markup for the most recent submission.
func (s *Session) Output() string {
	return s.presenter.Output()
}

// Text returns the raw accumulated text for the most recent submission.
func (s *Session) Text() string {
	return s.presenter.Text()
}

// Signal returns the classification signal for the most recent submission.
func (s *Session) Signal() present.Signal {
	return s.presenter.Signal()
}

func (s *Session) notify() {
	if s.onUpdate != nil {
		s.onUpdate(s.presenter.Output(), s.presenter.Signal())
	}
}
