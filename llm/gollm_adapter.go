package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/teilomillet/gollm"
)

// GollmAdapter wraps a gollm.LLM and implements Adapter for providers the
// Anthropic SDK does not cover (openai, ollama, groq, ...). gollm returns
// plain text, so tool calls are recovered from a JSON array of
// {"name": ..., "arguments": {...}} objects in the reply.
type GollmAdapter struct {
	provider string
	llm      gollm.LLM
	model    string
}

// GollmAdapterOption configures a GollmAdapter.
type GollmAdapterOption func(*gollmAdapterConfig)

type gollmAdapterConfig struct {
	model       string
	maxTokens   int
	temperature float64
	extraOpts   []gollm.ConfigOption
}

// WithGollmModel sets the default model for the adapter.
func WithGollmModel(model string) GollmAdapterOption {
	return func(c *gollmAdapterConfig) {
		c.model = model
	}
}

// WithGollmMaxTokens sets the default max tokens.
func WithGollmMaxTokens(n int) GollmAdapterOption {
	return func(c *gollmAdapterConfig) {
		c.maxTokens = n
	}
}

// WithGollmOptions adds extra gollm configuration options.
func WithGollmOptions(opts ...gollm.ConfigOption) GollmAdapterOption {
	return func(c *gollmAdapterConfig) {
		c.extraOpts = append(c.extraOpts, opts...)
	}
}

// NewGollmAdapter creates a GollmAdapter for provider. If apiKey is empty,
// gollm reads the provider's key from the environment.
func NewGollmAdapter(provider, apiKey string, opts ...GollmAdapterOption) (*GollmAdapter, error) {
	cfg := &gollmAdapterConfig{
		maxTokens:   defaultMaxTokens,
		temperature: 0.7,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	model := cfg.model
	if model == "" {
		if info := GetLatestModel(provider); info != nil {
			model = info.ID
		} else {
			model = "gpt-4o-mini"
		}
	}

	gollmOpts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(cfg.maxTokens),
		gollm.SetTemperature(cfg.temperature),
		gollm.SetMaxRetries(0), // RetryMiddleware owns retries.
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if apiKey != "" {
		gollmOpts = append(gollmOpts, gollm.SetAPIKey(apiKey))
	}
	gollmOpts = append(gollmOpts, cfg.extraOpts...)

	llm, err := gollm.NewLLM(gollmOpts...)
	if err != nil {
		return nil, &ConfigurationError{SDKError: SDKError{
			Message: fmt.Sprintf("create gollm LLM for provider %s", provider),
			Cause:   err,
		}}
	}

	return &GollmAdapter{provider: provider, llm: llm, model: model}, nil
}

// NewGollmAdapterFromLLM wraps an existing gollm.LLM instance.
func NewGollmAdapterFromLLM(provider string, llm gollm.LLM) *GollmAdapter {
	return &GollmAdapter{provider: provider, llm: llm}
}

// Name returns the provider identifier.
func (a *GollmAdapter) Name() string {
	return a.provider
}

// DefaultModel is the model used when a request names none.
func (a *GollmAdapter) DefaultModel() string {
	return a.model
}

// Complete sends a blocking request and returns the full response.
func (a *GollmAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	prompt := a.translateRequest(req)
	a.applyRequestOptions(req)

	text, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, a.translateError(err)
	}
	return a.buildResponse(req, text), nil
}

// Stream emits text deltas, falling back to a single delta when the
// provider cannot stream.
func (a *GollmAdapter) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	prompt := a.translateRequest(req)
	a.applyRequestOptions(req)

	ch := make(chan StreamEvent, 64)
	send := func(ev StreamEvent) bool {
		select {
		case ch <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !a.llm.SupportsStreaming() {
		go func() {
			defer close(ch)
			if !send(StreamEvent{Type: StreamStart}) {
				return
			}
			text, err := a.llm.Generate(ctx, prompt)
			if err != nil {
				send(StreamEvent{Type: StreamError, Err: a.translateError(err)})
				return
			}
			if !send(StreamEvent{Type: TextDelta, Delta: text}) {
				return
			}
			send(StreamEvent{Type: StreamFinish, Response: a.buildResponse(req, text)})
		}()
		return ch, nil
	}

	stream, err := a.llm.Stream(ctx, prompt)
	if err != nil {
		return nil, a.translateError(err)
	}

	go func() {
		defer close(ch)
		defer stream.Close()

		if !send(StreamEvent{Type: StreamStart}) {
			return
		}
		var full strings.Builder
		for {
			token, err := stream.Next(ctx)
			if err == io.EOF {
				break
			}
			if err != nil {
				send(StreamEvent{Type: StreamError, Err: a.translateError(err)})
				return
			}
			if token == nil {
				continue
			}
			if !send(StreamEvent{Type: TextDelta, Delta: token.Text}) {
				return
			}
			full.WriteString(token.Text)
		}
		send(StreamEvent{Type: StreamFinish, Response: a.buildResponse(req, full.String())})
	}()

	return ch, nil
}

// translateRequest flattens the turn sequence into a single gollm prompt.
func (a *GollmAdapter) translateRequest(req Request) *gollm.Prompt {
	var parts []string
	for _, turn := range req.Turns {
		for _, b := range turn.Content {
			switch b.Kind {
			case BlockText:
				if turn.Role == RoleAssistant {
					parts = append(parts, "[Assistant]: "+b.Text)
				} else {
					parts = append(parts, b.Text)
				}
			case BlockToolUse:
				args, _ := json.Marshal(b.ToolUse.Arguments)
				parts = append(parts, fmt.Sprintf("[Tool Call %s]: %s(%s)", b.ToolUse.ID, b.ToolUse.Name, args))
			case BlockToolResult:
				prefix := "[Tool Result " + b.ToolResult.ToolUseID + "]"
				if b.ToolResult.IsError {
					prefix = "[Tool Error " + b.ToolResult.ToolUseID + "]"
				}
				parts = append(parts, prefix+": "+b.ToolResult.Content)
			}
		}
	}

	promptText := strings.Join(parts, "\n")
	if promptText == "" {
		promptText = "Hello"
	}

	var promptOpts []gollm.PromptOption
	if req.System != "" {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(req.System, gollm.CacheTypeEphemeral))
	}
	if req.MaxTokens > 0 {
		promptOpts = append(promptOpts, gollm.WithMaxLength(req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		tools := make([]gollm.Tool, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, gollm.Tool{
				Type: "function",
				Function: gollm.Function{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.InputSchema,
				},
			})
		}
		promptOpts = append(promptOpts, gollm.WithTools(tools), gollm.WithToolChoice("auto"))
	}

	return gollm.NewPrompt(promptText, promptOpts...)
}

// applyRequestOptions applies request-level parameters to the gollm LLM.
func (a *GollmAdapter) applyRequestOptions(req Request) {
	if req.Model != "" {
		a.llm.SetOption("model", req.Model)
	}
	if req.Temperature != nil {
		a.llm.SetOption("temperature", *req.Temperature)
	}
	if req.MaxTokens > 0 {
		a.llm.SetOption("max_tokens", req.MaxTokens)
	}
}

// buildResponse constructs a Response from generated text.
func (a *GollmAdapter) buildResponse(req Request, text string) *Response {
	model := req.Model
	if model == "" {
		model = a.model
	}

	calls, rest := parseToolCalls(text)

	var content []Block
	if rest != "" {
		content = append(content, TextBlock(rest))
	}
	content = append(content, calls...)
	if len(content) == 0 {
		content = []Block{TextBlock(text)}
	}

	stop := StopEndTurn
	if len(calls) > 0 {
		stop = StopToolUse
	}

	in := estimateTokens(req)
	out := len(text) / 4
	return &Response{
		ID:         "resp_" + uuid.NewString()[:8],
		Model:      model,
		Provider:   a.provider,
		StopReason: stop,
		Content:    content,
		Usage:      Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out},
	}
}

// parseToolCalls extracts a trailing JSON array of tool calls from text and
// returns the tool_use blocks plus the text preceding the array.
func parseToolCalls(text string) ([]Block, string) {
	start := strings.Index(text, `[{"name"`)
	if start == -1 {
		return nil, text
	}

	var raw []struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text[start:])), &raw); err != nil {
		return nil, text
	}

	calls := make([]Block, 0, len(raw))
	for _, rc := range raw {
		if rc.Name == "" {
			continue
		}
		calls = append(calls, ToolUseBlock("call_"+uuid.NewString()[:8], rc.Name, rc.Arguments))
	}
	if len(calls) == 0 {
		return nil, text
	}
	return calls, strings.TrimSpace(text[:start])
}

// translateError classifies a gollm error by its message.
func (a *GollmAdapter) translateError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	lower := strings.ToLower(msg)

	status := 0
	switch {
	case strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key"):
		status = 401
	case strings.Contains(lower, "403") || strings.Contains(lower, "forbidden"):
		status = 403
	case strings.Contains(lower, "404") || strings.Contains(lower, "not found"):
		status = 404
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		status = 429
	case strings.Contains(lower, "context length") || strings.Contains(lower, "too many tokens"):
		status = 413
	case strings.Contains(lower, "500") || strings.Contains(lower, "internal server"):
		status = 500
	case strings.Contains(lower, "timeout"):
		status = 408
	}
	if status != 0 {
		return ErrorFromStatusCode(status, msg, a.provider, 0, err)
	}
	return &ProviderError{
		SDKError:  SDKError{Message: msg, Cause: err},
		Provider:  a.provider,
		Retryable: true,
	}
}

// estimateTokens gives a rough input token count (four bytes per token).
func estimateTokens(req Request) int {
	total := len(req.System) / 4
	for _, turn := range req.Turns {
		for _, b := range turn.Content {
			switch b.Kind {
			case BlockText:
				total += len(b.Text) / 4
			case BlockToolResult:
				total += len(b.ToolResult.Content) / 4
			}
		}
	}
	if total == 0 {
		total = 10
	}
	return total
}
