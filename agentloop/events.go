package agentloop

import (
	"time"
)

// EventKind identifies the type of run event.
type EventKind string

const (
	EventRunStart      EventKind = "run_start"
	EventModelRequest  EventKind = "model_request"
	EventModelResponse EventKind = "model_response"
	EventToolCallStart EventKind = "tool_call_start"
	EventToolCallEnd   EventKind = "tool_call_end"
	EventLoopDetection EventKind = "loop_detection"
	EventRunEnd        EventKind = "run_end"
	EventError         EventKind = "error"
)

// Event is a typed event emitted by an Agent run.
type Event struct {
	Kind      EventKind      `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Iteration int            `json:"iteration,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// EventHandler receives events on the goroutine running the agent. A slow
// handler slows the run.
type EventHandler func(Event)

// eventEmitter fans events out to handlers in registration order.
type eventEmitter struct {
	runID    string
	handlers []EventHandler
}

func newEventEmitter(runID string, handlers []EventHandler) *eventEmitter {
	return &eventEmitter{runID: runID, handlers: handlers}
}

func (e *eventEmitter) emit(kind EventKind, iteration int, data map[string]any) {
	if len(e.handlers) == 0 {
		return
	}
	event := Event{
		Kind:      kind,
		Timestamp: time.Now(),
		RunID:     e.runID,
		Iteration: iteration,
		Data:      data,
	}
	for _, h := range e.handlers {
		h(event)
	}
}
