// Package markup converts streamed markdown text into HTML. Rendering is a
// pure function of its input so callers can re-render a growing buffer from
// scratch on every update and always get the same markup for the same text.
package markup

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// Renderer renders markdown to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a Renderer with default goldmark settings.
func New() *Renderer {
	return &Renderer{md: goldmark.New()}
}

// Render converts markdown text to HTML. The output is trusted markup;
// downstream consumers inject it without further escaping, so this renderer
// must remain the only source of HTML in the pipeline.
func (r *Renderer) Render(text string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}
