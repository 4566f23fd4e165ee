package agentloop

import (
	"context"
	"errors"
	"fmt"

	"github.com/martinemde/toolloop/llm"
)

// StreamGateway is a Gateway that can also stream. *llm.Client satisfies it.
type StreamGateway interface {
	Gateway
	Stream(ctx context.Context, req llm.Request) (<-chan llm.StreamEvent, error)
}

// Conversation is a multi-turn chat without tools. A failed exchange leaves
// the log as it was, so the caller can retry the same message.
type Conversation struct {
	gateway Gateway
	log     Log
	settings
}

// NewConversation starts an empty conversation. Only WithModel,
// WithSystemPrompt, WithMaxTokens and WithLogger apply.
func NewConversation(gateway Gateway, opts ...Option) *Conversation {
	c := &Conversation{gateway: gateway, settings: defaultSettings()}
	for _, opt := range opts {
		opt(&c.settings)
	}
	return c
}

// Log returns the conversation so far.
func (c *Conversation) Log() Log {
	return c.log
}

// Reset drops the history.
func (c *Conversation) Reset() {
	c.log = Log{}
}

func (c *Conversation) request(pending Log) llm.Request {
	return llm.Request{
		Model:     c.model,
		System:    c.system,
		Turns:     pending.Turns(),
		MaxTokens: c.maxTokens,
	}
}

// Send adds a user message and returns the assistant's reply text.
func (c *Conversation) Send(ctx context.Context, text string) (string, error) {
	pending := c.log.Append(llm.UserText(text))
	resp, err := c.gateway.Complete(ctx, c.request(pending))
	if err != nil {
		return "", fmt.Errorf("send: %w", err)
	}
	c.log = pending.Append(resp.Turn())
	c.logger.DebugContext(ctx, "chat reply", "turns", c.log.Len(), "stop_reason", resp.StopReason)
	return resp.Text(), nil
}

// Stream adds a user message and streams the reply, calling onDelta with
// each text fragment on the calling goroutine. An error from onDelta stops
// the stream and is returned.
func (c *Conversation) Stream(ctx context.Context, text string, onDelta func(string) error) (string, error) {
	sg, ok := c.gateway.(StreamGateway)
	if !ok {
		return "", errors.New("stream: gateway does not support streaming")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pending := c.log.Append(llm.UserText(text))
	events, err := sg.Stream(ctx, c.request(pending))
	if err != nil {
		return "", fmt.Errorf("stream: %w", err)
	}
	resp, err := llm.Drain(ctx, events, onDelta)
	if err != nil {
		return "", fmt.Errorf("stream: %w", err)
	}
	c.log = pending.Append(resp.Turn())
	return resp.Text(), nil
}
