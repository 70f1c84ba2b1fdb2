package recyclelens

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/ecoscan/recyclelens/pkg/capture"
	"github.com/ecoscan/recyclelens/pkg/classify"
	"github.com/ecoscan/recyclelens/pkg/geo"
	"github.com/ecoscan/recyclelens/pkg/present"
)

type testCamera struct{}

func (c *testCamera) Open(ctx context.Context) (capture.Stream, error) {
	return &testStream{}, nil
}

type testStream struct{}

func (s *testStream) Frame() (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 32), uint8(y * 32), 0, 255})
		}
	}
	return img, nil
}

func (s *testStream) Close() error { return nil }

// scriptedChat replays deltas through the classify package's client seam.
type scriptedChat struct {
	deltas []string
	err    error

	mu    sync.Mutex
	calls int
}

func (s *scriptedChat) Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	for _, d := range s.deltas {
		if err := fn(api.ChatResponse{Message: api.Message{Content: d}}); err != nil {
			return err
		}
	}
	return s.err
}

func (s *scriptedChat) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestSession(chat *scriptedChat) *Session {
	classifier := classify.NewClassifierWithClient(chat, "llava", classify.DefaultOptions())
	return New(&testCamera{}, classifier)
}

func captureFrame(t *testing.T, s *Session) {
	t.Helper()
	if err := s.StartPreview(context.Background()); err != nil {
		t.Fatalf("StartPreview failed: %v", err)
	}
	if _, err := s.Capture(); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
}

func TestSubmitStreamsVerdict(t *testing.T) {
	chat := &scriptedChat{deltas: []string{"This is a ", "plastic bottle. ", "Yes, this is recyclable!"}}
	s := newTestSession(chat)
	s.SetLocation("Springfield, Illinois, USA")
	captureFrame(t, s)

	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if s.Signal() != present.SignalAffirmative {
		t.Errorf("expected affirmative signal, got %s", s.Signal())
	}
	if s.Text() != "This is a plastic bottle. Yes, this is recyclable!" {
		t.Errorf("unexpected accumulated text: %q", s.Text())
	}
	for _, fragment := range []string{"This is a", "plastic bottle", "Yes, this is recyclable!"} {
		if !strings.Contains(s.Output(), fragment) {
			t.Errorf("rendered output missing %q: %q", fragment, s.Output())
		}
	}
}

func TestSubmitWithoutFrame(t *testing.T) {
	chat := &scriptedChat{deltas: []string{"should never be seen"}}
	s := newTestSession(chat)
	s.SetLocation("Springfield, Illinois, USA")

	if err := s.Submit(context.Background()); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("expected ErrNoFrame, got %v", err)
	}
	if chat.callCount() != 0 {
		t.Errorf("classifier must not be invoked without a frame, got %d calls", chat.callCount())
	}
}

func TestSubmitStreamErrorPreservesPartialOutput(t *testing.T) {
	chat := &scriptedChat{deltas: []string{"This is a glass jar. "}, err: errors.New("stream aborted")}
	s := newTestSession(chat)
	s.SetLocation("Lyon, Auvergne-Rhone-Alpes, France")
	captureFrame(t, s)

	err := s.Submit(context.Background())
	if err == nil {
		t.Fatal("expected Submit to surface the stream error")
	}

	if !strings.Contains(s.Output(), "This is a glass jar.") {
		t.Errorf("partial delta discarded: %q", s.Output())
	}
	if !strings.Contains(s.Output(), "<hr>") || !strings.Contains(s.Output(), "stream aborted") {
		t.Errorf("expected separator and error description in %q", s.Output())
	}

	// The session stays usable for a subsequent submit.
	chat.err = nil
	chat.deltas = []string{"No, this isnt recyclable"}
	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("second Submit failed: %v", err)
	}
	if s.Signal() != present.SignalNegative {
		t.Errorf("expected negative signal after resubmit, got %s", s.Signal())
	}
}

func TestUnknownLocationVerdict(t *testing.T) {
	sentence := "This location does not exist. Please enter a valid location."
	chat := &scriptedChat{deltas: []string{sentence}}
	s := newTestSession(chat)
	s.SetLocation("Zzyxylvania")
	captureFrame(t, s)

	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if s.Signal() != present.SignalUnknown {
		t.Errorf("expected unknown signal, got %s", s.Signal())
	}
	if !strings.Contains(s.Output(), sentence) {
		t.Errorf("output missing the location sentence: %q", s.Output())
	}
}

// blockingGeocoder lets the test decide when the resolver result arrives.
type blockingGeocoder struct {
	release chan struct{}
	rec     geo.PlaceRecord
}

func (g *blockingGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*geo.PlaceRecord, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	rec := g.rec
	return &rec, nil
}

func TestUserEditWinsOverLateResolverWrite(t *testing.T) {
	geocoder := &blockingGeocoder{
		release: make(chan struct{}),
		rec:     geo.PlaceRecord{City: "Springfield", State: "Illinois", Country: "United States"},
	}
	resolver := geo.NewResolver(geo.FixedPositionSource{Position: geo.Position{Latitude: 39.78, Longitude: -89.65}}, geocoder)

	chat := &scriptedChat{}
	s := NewWithConfig(SessionConfig{
		Camera:     &testCamera{},
		Classifier: classify.NewClassifierWithClient(chat, "llava", classify.DefaultOptions()),
		Resolver:   resolver,
	})

	s.Start(context.Background())

	// User edits before the resolver result arrives.
	s.SetLocation("Tokyo, Tokyo, Japan")
	close(geocoder.release)

	// Give the resolver goroutine time to attempt its write.
	time.Sleep(200 * time.Millisecond)

	if got := s.Location(); got != "Tokyo, Tokyo, Japan" {
		t.Errorf("resolver overwrote a user edit: %q", got)
	}
}

func TestResolverPopulatesUntouchedLocation(t *testing.T) {
	geocoder := &blockingGeocoder{
		release: make(chan struct{}),
		rec:     geo.PlaceRecord{City: "Springfield", State: "Illinois", Country: "United States"},
	}
	resolver := geo.NewResolver(geo.FixedPositionSource{Position: geo.Position{Latitude: 39.78, Longitude: -89.65}}, geocoder)

	s := NewWithConfig(SessionConfig{
		Camera:     &testCamera{},
		Classifier: classify.NewClassifierWithClient(&scriptedChat{}, "llava", classify.DefaultOptions()),
		Resolver:   resolver,
	})

	s.Start(context.Background())
	close(geocoder.release)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Location() != "" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if got := s.Location(); got != "Springfield, Illinois, United States" {
		t.Errorf("expected resolver to populate the location, got %q", got)
	}

	// A later user edit still takes precedence for subsequent reads.
	s.SetLocation("Osaka, Osaka, Japan")
	if got := s.Location(); got != "Osaka, Osaka, Japan" {
		t.Errorf("user edit not applied: %q", got)
	}
}

func TestOnUpdateFiresPerDelta(t *testing.T) {
	chat := &scriptedChat{deltas: []string{"a", "b", "c"}}
	var updates []present.Signal
	s := NewWithConfig(SessionConfig{
		Camera:     &testCamera{},
		Classifier: classify.NewClassifierWithClient(chat, "llava", classify.DefaultOptions()),
		OnUpdate: func(output string, signal present.Signal) {
			updates = append(updates, signal)
		},
	})
	s.SetLocation("Berlin, Berlin, Germany")
	captureFrame(t, s)

	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(updates) != 3 {
		t.Errorf("expected 3 updates, got %d", len(updates))
	}
}

func TestNewSubmitDiscardsPreviousBuffer(t *testing.T) {
	chat := &scriptedChat{deltas: []string{"Yes, this is recyclable!"}}
	s := newTestSession(chat)
	s.SetLocation("Springfield, Illinois, USA")
	captureFrame(t, s)

	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	if s.Signal() != present.SignalAffirmative {
		t.Fatalf("expected affirmative after first submit, got %s", s.Signal())
	}

	chat.deltas = []string{"This is a styrofoam cup. ", "No, this isnt recyclable"}
	if err := s.Retake(context.Background()); err != nil {
		t.Fatalf("Retake failed: %v", err)
	}
	if _, err := s.Capture(); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("second Submit failed: %v", err)
	}

	if strings.Contains(s.Text(), "Yes, this is recyclable!") {
		t.Errorf("previous buffer leaked into new request: %q", s.Text())
	}
	if s.Signal() != present.SignalNegative {
		t.Errorf("expected negative signal, got %s", s.Signal())
	}
}
