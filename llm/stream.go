package llm

import (
	"context"
	"strings"
)

// StreamAccumulator folds stream events into a complete Response.
type StreamAccumulator struct {
	text     strings.Builder
	response *Response
	err      error
	finished bool
}

// NewStreamAccumulator creates an empty accumulator.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{}
}

// Process ingests a single stream event.
func (sa *StreamAccumulator) Process(event StreamEvent) {
	switch event.Type {
	case TextDelta:
		sa.text.WriteString(event.Delta)
	case StreamFinish:
		sa.response = event.Response
		sa.finished = true
	case StreamError:
		sa.err = event.Err
	}
}

// Err returns the error carried by a StreamError event, if any.
func (sa *StreamAccumulator) Err() error {
	return sa.err
}

// Finished reports whether a StreamFinish event was seen.
func (sa *StreamAccumulator) Finished() bool {
	return sa.finished
}

// Response returns the finished response, or one assembled from the deltas
// seen so far when the finish event carried no response.
func (sa *StreamAccumulator) Response() *Response {
	if sa.response != nil {
		return sa.response
	}
	return &Response{
		StopReason: StopEndTurn,
		Content:    []Block{TextBlock(sa.text.String())},
	}
}

// Drain consumes events until the channel closes, passing each text delta to
// onDelta on the calling goroutine. A stream that closes without a finish
// event, or after ctx is done, is an error. A non-nil error from onDelta
// stops the drain; the producer still exits because it watches ctx.
func Drain(ctx context.Context, events <-chan StreamEvent, onDelta func(string) error) (*Response, error) {
	acc := NewStreamAccumulator()
	for {
		select {
		case <-ctx.Done():
			return nil, &AbortError{SDKError: SDKError{Message: "stream cancelled", Cause: ctx.Err()}}
		case event, ok := <-events:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil, &AbortError{SDKError: SDKError{Message: "stream cancelled", Cause: err}}
				}
				if err := acc.Err(); err != nil {
					return nil, err
				}
				if !acc.Finished() {
					return nil, ErrIncompleteStream
				}
				return acc.Response(), nil
			}
			acc.Process(event)
			if event.Type == TextDelta && onDelta != nil {
				if err := onDelta(event.Delta); err != nil {
					return nil, err
				}
			}
		}
	}
}
