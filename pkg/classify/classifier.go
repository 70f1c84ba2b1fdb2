package classify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/ecoscan/recyclelens/internal/logger"
)

// ChatStreamer is the slice of the Ollama API client the classifier needs.
// *api.Client satisfies it; tests substitute scripted implementations.
type ChatStreamer interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

// Options tunes model sampling and the request deadline.
type Options struct {
	Temperature float64
	TopP        float64
	MaxDuration time.Duration // injected when the caller's ctx has no deadline
}

// DefaultOptions returns sampling defaults suited to short verdict answers.
func DefaultOptions() Options {
	return Options{
		Temperature: 0.7,
		TopP:        0.9,
		MaxDuration: 300 * time.Second,
	}
}

// Classifier issues streaming multimodal chat requests.
type Classifier struct {
	client ChatStreamer
	model  string
	opts   Options
}

// NewClassifier creates a Classifier talking to an Ollama server.
func NewClassifier(ollamaURL, model string, opts Options) (*Classifier, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	// Base URL only; paths like /api/chat are added by the SDK.
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	client := api.NewClient(baseURL, http.DefaultClient)
	return &Classifier{client: client, model: model, opts: opts}, nil
}

// NewClassifierWithClient creates a Classifier around an existing client.
func NewClassifierWithClient(client ChatStreamer, model string, opts Options) *Classifier {
	return &Classifier{client: client, model: model, opts: opts}
}

// Classify issues one streaming request for the snapshot and returns its
// delta stream. Deltas arrive in model order; the stream is finite and
// cannot be restarted. Transport and provider failures terminate the stream
// and surface through ResultStream.Err, never as a delta.
func (c *Classifier) Classify(ctx context.Context, req Request) (*ResultStream, error) {
	if len(req.ImageData) == 0 {
		return nil, fmt.Errorf("request has no image payload")
	}

	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.opts.MaxDuration > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.opts.MaxDuration)
	}

	streamTrue := true
	chatReq := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: buildPrompt(req.Location),
				Images:  []api.ImageData{api.ImageData(req.ImageData)},
			},
		},
		Stream: &streamTrue,
		Options: map[string]any{
			"temperature": c.opts.Temperature,
			"top_p":       c.opts.TopP,
		},
	}

	logger.L().Info("classify request", "id", req.ID, "model", c.model, "location", req.Location, "image_bytes", len(req.ImageData))

	stream := newResultStream()
	go func() {
		if cancel != nil {
			defer cancel()
		}
		defer stream.finish()

		err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
			if resp.Message.Content == "" {
				return nil
			}
			select {
			case stream.ch <- resp.Message.Content:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			logger.L().Error("classify stream failed", "id", req.ID, "err", err)
			stream.err = fmt.Errorf("ollama chat error: %v", err)
		}
	}()

	return stream, nil
}
