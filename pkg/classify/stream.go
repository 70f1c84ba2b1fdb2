package classify

// ResultStream is a lazy, finite sequence of text deltas for one request.
// Deltas must be consumed in channel order; after the channel closes, Err
// reports whether the stream ended normally or was aborted.
type ResultStream struct {
	ch   chan string
	err  error
	done chan struct{}
}

func newResultStream() *ResultStream {
	return &ResultStream{
		ch:   make(chan string, 16),
		done: make(chan struct{}),
	}
}

// Deltas returns the delta channel. It is closed when the stream ends,
// normally or not.
func (s *ResultStream) Deltas() <-chan string {
	return s.ch
}

// Err blocks until the stream has ended and returns the terminal error, or
// nil if the stream completed normally. Call it after draining Deltas.
func (s *ResultStream) Err() error {
	<-s.done
	return s.err
}

// finish closes the stream. The delta channel closes before done so a
// consumer draining Deltas observes the close, then reads a settled Err.
func (s *ResultStream) finish() {
	close(s.ch)
	close(s.done)
}
