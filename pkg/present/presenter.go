// Package present accumulates streamed text deltas for one request, renders
// the growing buffer to markup, and derives a tri-state classification
// signal used for display styling.
package present

import (
	"html"
	"strings"

	"github.com/google/uuid"

	"github.com/ecoscan/recyclelens/internal/logger"
	"github.com/ecoscan/recyclelens/pkg/markup"
)

// Signal is the classification derived from the accumulated text.
type Signal int

const (
	SignalUnknown Signal = iota
	SignalAffirmative
	SignalNegative
)

// String returns a readable signal name.
func (s Signal) String() string {
	switch s {
	case SignalAffirmative:
		return "affirmative"
	case SignalNegative:
		return "negative"
	default:
		return "unknown"
	}
}

// Marker substrings inspected case-insensitively to derive the signal.
// Full answer-template phrases rather than bare yes/no, so wording like
// "does not exist" never trips the negative marker. The affirmative marker
// is checked first; with partial text echoing the instruction this is a
// heuristic, last-delta-wins signal, not a guaranteed classification.
const (
	affirmativeMarker = "yes, this is recyclable"
	negativeMarker    = "this isnt recyclable"
)

// Presenter owns the StreamBuffer for one in-flight request. It is not safe
// for concurrent use; the session applies deltas from a single goroutine.
type Presenter struct {
	renderer *markup.Renderer

	requestID uuid.UUID
	buffer    []string
	output    string
	signal    Signal
}

// NewPresenter creates a Presenter using the given renderer.
func NewPresenter(renderer *markup.Renderer) *Presenter {
	return &Presenter{renderer: renderer}
}

// Begin discards any previous buffer and starts a fresh one for a request.
func (p *Presenter) Begin(requestID uuid.UUID) {
	p.requestID = requestID
	p.buffer = nil
	p.output = ""
	p.signal = SignalUnknown
}

// Append folds one delta into the buffer, re-renders the full accumulated
// text from scratch, and recomputes the signal from the whole buffer.
// Rendering the whole buffer keeps the output a pure function of the
// concatenated deltas.
func (p *Presenter) Append(delta string) {
	p.buffer = append(p.buffer, delta)
	text := p.Text()

	rendered, err := p.renderer.Render(text)
	if err != nil {
		// Rendering is the only HTML source; on failure fall back to the
		// escaped raw text instead of dropping the buffer.
		logger.L().Warn("markup render failed", "request", p.requestID, "err", err)
		rendered = html.EscapeString(text)
	}
	p.output = rendered
	p.signal = classifyText(text)
}

// Fail appends a visible separator and the error's description after the
// rendered partial output, preserving whatever progress was streamed before
// the stream aborted.
func (p *Presenter) Fail(err error) {
	p.output += "<hr>" + html.EscapeString(err.Error())
}

// Text returns the raw concatenated buffer.
func (p *Presenter) Text() string {
	return strings.Join(p.buffer, "")
}

// Output returns the rendered markup for the current buffer.
func (p *Presenter) Output() string {
	return p.output
}

// Signal returns the classification derived from the current buffer.
func (p *Presenter) Signal() Signal {
	return p.signal
}

// classifyText inspects the accumulated text for the marker phrases,
// affirmative before negative.
func classifyText(text string) Signal {
	lower := strings.ToLower(text)
	if strings.Contains(lower, affirmativeMarker) {
		return SignalAffirmative
	}
	if strings.Contains(lower, negativeMarker) {
		return SignalNegative
	}
	return SignalUnknown
}
