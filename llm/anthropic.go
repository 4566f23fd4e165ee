package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	defaultMaxTokens      = 4096
)

// AnthropicAdapter talks to the Anthropic Messages API with native tool use.
type AnthropicAdapter struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// AnthropicOption configures an AnthropicAdapter.
type AnthropicOption func(*anthropicConfig)

type anthropicConfig struct {
	model     string
	maxTokens int
	reqOpts   []option.RequestOption
}

// WithAnthropicModel sets the model used when a request names none.
func WithAnthropicModel(model string) AnthropicOption {
	return func(c *anthropicConfig) {
		c.model = model
	}
}

// WithAnthropicMaxTokens sets the default output token cap.
func WithAnthropicMaxTokens(n int) AnthropicOption {
	return func(c *anthropicConfig) {
		c.maxTokens = n
	}
}

// WithRequestOptions passes raw SDK options (base URL, HTTP client, headers).
func WithRequestOptions(opts ...option.RequestOption) AnthropicOption {
	return func(c *anthropicConfig) {
		c.reqOpts = append(c.reqOpts, opts...)
	}
}

// NewAnthropicAdapter creates an adapter. An empty apiKey makes the SDK read
// ANTHROPIC_API_KEY from the environment. SDK-level retries are disabled;
// retries belong to RetryMiddleware.
func NewAnthropicAdapter(apiKey string, opts ...AnthropicOption) (*AnthropicAdapter, error) {
	cfg := &anthropicConfig{
		model:     defaultAnthropicModel,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.maxTokens <= 0 {
		return nil, &ConfigurationError{SDKError: SDKError{
			Message: fmt.Sprintf("max tokens must be positive, got %d", cfg.maxTokens),
		}}
	}

	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	}
	reqOpts = append(reqOpts, cfg.reqOpts...)

	return &AnthropicAdapter{
		client:    anthropic.NewClient(reqOpts...),
		model:     cfg.model,
		maxTokens: cfg.maxTokens,
	}, nil
}

// Name returns "anthropic".
func (a *AnthropicAdapter) Name() string {
	return "anthropic"
}

// DefaultModel is the model used when a request names none.
func (a *AnthropicAdapter) DefaultModel() string {
	return a.model
}

// Complete sends a Messages request and converts the reply.
func (a *AnthropicAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	params, err := a.buildParams(req)
	if err != nil {
		return nil, err
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, a.translateError(ctx, err)
	}
	return convertMessage(msg)
}

// Stream sends a streaming Messages request. Text deltas are forwarded as
// they arrive; the finish event carries the accumulated message.
func (a *AnthropicAdapter) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	params, err := a.buildParams(req)
	if err != nil {
		return nil, err
	}

	stream := a.client.Messages.NewStreaming(ctx, params)
	ch := make(chan StreamEvent, 64)

	send := func(ev StreamEvent) bool {
		select {
		case ch <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(ch)
		defer stream.Close()

		if !send(StreamEvent{Type: StreamStart}) {
			return
		}

		var message anthropic.Message
		for stream.Next() {
			event := stream.Current()
			if err := message.Accumulate(event); err != nil {
				send(StreamEvent{Type: StreamError, Err: fmt.Errorf("accumulate stream: %w", err)})
				return
			}
			switch ev := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				switch delta := ev.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if !send(StreamEvent{Type: TextDelta, Delta: delta.Text}) {
						return
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			send(StreamEvent{Type: StreamError, Err: a.translateError(ctx, err)})
			return
		}

		resp, err := convertMessage(&message)
		if err != nil {
			send(StreamEvent{Type: StreamError, Err: err})
			return
		}
		send(StreamEvent{Type: StreamFinish, Response: resp})
	}()

	return ch, nil
}

// buildParams translates a Request into SDK parameters.
func (a *AnthropicAdapter) buildParams(req Request) (anthropic.MessageNewParams, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.maxTokens
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Turns))
	for i, turn := range req.Turns {
		msg, err := toMessageParam(turn)
		if err != nil {
			return anthropic.MessageNewParams{}, &InvalidRequestError{ProviderError: ProviderError{
				SDKError: SDKError{Message: fmt.Sprintf("turn %d", i), Cause: err},
				Provider: a.Name(),
			}}
		}
		messages = append(messages, msg)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	for _, spec := range req.Tools {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        spec.Name,
				Description: anthropic.String(spec.Description),
				InputSchema: toInputSchema(spec.InputSchema),
			},
		})
	}
	return params, nil
}

func toMessageParam(turn Turn) (anthropic.MessageParam, error) {
	if err := turn.Validate(); err != nil {
		return anthropic.MessageParam{}, err
	}
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(turn.Content))
	for _, b := range turn.Content {
		switch b.Kind {
		case BlockText:
			blocks = append(blocks, anthropic.NewTextBlock(b.Text))
		case BlockToolUse:
			args := b.ToolUse.Arguments
			if args == nil {
				args = map[string]any{}
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(b.ToolUse.ID, args, b.ToolUse.Name))
		case BlockToolResult:
			blocks = append(blocks, anthropic.NewToolResultBlock(b.ToolResult.ToolUseID, b.ToolResult.Content, b.ToolResult.IsError))
		}
	}
	if turn.Role == RoleAssistant {
		return anthropic.NewAssistantMessage(blocks...), nil
	}
	return anthropic.NewUserMessage(blocks...), nil
}

// toInputSchema splits a JSON Schema object into the SDK's schema param.
func toInputSchema(schema map[string]any) anthropic.ToolInputSchemaParam {
	param := anthropic.ToolInputSchemaParam{}
	if schema == nil {
		return param
	}
	if props, ok := schema["properties"]; ok {
		param.Properties = props
	}
	// Keywords the SDK has no field for ride along as extra fields.
	for key, value := range schema {
		switch key {
		case "type", "properties", "required":
			continue
		}
		if param.ExtraFields == nil {
			param.ExtraFields = make(map[string]any)
		}
		param.ExtraFields[key] = value
	}
	switch req := schema["required"].(type) {
	case []string:
		param.Required = req
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				param.Required = append(param.Required, s)
			}
		}
	}
	return param
}

// convertMessage turns an SDK message into a Response.
func convertMessage(msg *anthropic.Message) (*Response, error) {
	content := make([]Block, 0, len(msg.Content))
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			content = append(content, TextBlock(block.Text))
		case "tool_use":
			var args map[string]any
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					return nil, fmt.Errorf("decode tool_use %s input: %w", block.ID, err)
				}
			}
			content = append(content, ToolUseBlock(block.ID, block.Name, args))
		}
	}

	in, out := int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
	return &Response{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Provider:   "anthropic",
		StopReason: StopReason(msg.StopReason),
		Content:    content,
		Usage:      Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out},
	}, nil
}

// translateError maps SDK errors into the gateway error hierarchy.
func (a *AnthropicAdapter) translateError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &AbortError{SDKError: SDKError{Message: "request cancelled", Cause: ctxErr}}
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		var wait time.Duration
		if apiErr.Response != nil {
			wait = parseRetryAfter(apiErr.Response.Header.Get("Retry-After"), time.Now())
		}
		return ErrorFromStatusCode(apiErr.StatusCode, apiErr.Error(), a.Name(), wait, err)
	}
	// Transport failures never reached the API; treat them as transient.
	return &ProviderError{
		SDKError:  SDKError{Message: "anthropic request failed", Cause: err},
		Provider:  a.Name(),
		Retryable: true,
	}
}

// parseRetryAfter reads a Retry-After header given either as delay seconds or
// as an HTTP date. Unparsable or past values yield zero.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(value); err == nil {
		return max(at.Sub(now), 0)
	}
	return 0
}
