package llm

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGollmAdapterTranslateError(t *testing.T) {
	adapter := &GollmAdapter{provider: "openai"}

	tests := []struct {
		msg   string
		check func(error) bool
	}{
		{"401 Unauthorized", func(err error) bool { var e *AuthenticationError; return errors.As(err, &e) }},
		{"invalid api key", func(err error) bool { var e *AuthenticationError; return errors.As(err, &e) }},
		{"403 Forbidden", func(err error) bool { var e *AccessDeniedError; return errors.As(err, &e) }},
		{"404 not found", func(err error) bool { var e *NotFoundError; return errors.As(err, &e) }},
		{"429 rate limit exceeded", func(err error) bool { var e *RateLimitError; return errors.As(err, &e) }},
		{"context length exceeded", func(err error) bool { var e *ContextLengthError; return errors.As(err, &e) }},
		{"500 internal server error", func(err error) bool { var e *ServerError; return errors.As(err, &e) }},
		{"timeout waiting for response", func(err error) bool { var e *RequestTimeoutError; return errors.As(err, &e) }},
		{"something unknown", func(err error) bool { var e *ProviderError; return errors.As(err, &e) && e.Retryable }},
	}

	for _, tt := range tests {
		cause := errors.New(tt.msg)
		err := adapter.translateError(cause)
		require.Error(t, err, tt.msg)
		assert.True(t, tt.check(err), "%q: unexpected %T", tt.msg, err)
		assert.ErrorIs(t, err, cause)
	}
	assert.NoError(t, adapter.translateError(nil))
}

func TestParseToolCalls(t *testing.T) {
	calls, rest := parseToolCalls(`I'll look that up. [{"name": "search_web", "arguments": {"query": "go generics"}}]`)
	require.Len(t, calls, 1)
	assert.Equal(t, "I'll look that up.", rest)
	assert.Equal(t, "search_web", calls[0].ToolUse.Name)
	assert.Equal(t, map[string]any{"query": "go generics"}, calls[0].ToolUse.Arguments)
	assert.True(t, strings.HasPrefix(calls[0].ToolUse.ID, "call_"))

	calls, rest = parseToolCalls("plain answer")
	assert.Nil(t, calls)
	assert.Equal(t, "plain answer", rest)

	calls, rest = parseToolCalls(`broken [{"name": "x"`)
	assert.Nil(t, calls)
	assert.Equal(t, `broken [{"name": "x"`, rest)
}

func TestGollmBuildResponse(t *testing.T) {
	adapter := &GollmAdapter{provider: "openai", model: "gpt-4o-mini"}

	resp := adapter.buildResponse(Request{}, `[{"name": "calculate", "arguments": {"expression": "1+1"}}]`)
	assert.Equal(t, StopToolUse, resp.StopReason)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	require.Len(t, resp.ToolUses(), 1)
	assert.Equal(t, "calculate", resp.ToolUses()[0].Name)

	resp = adapter.buildResponse(Request{Model: "gpt-4o"}, "The answer is 2.")
	assert.Equal(t, StopEndTurn, resp.StopReason)
	assert.Equal(t, "gpt-4o", resp.Model)
	assert.Equal(t, "The answer is 2.", resp.Text())
	assert.True(t, strings.HasPrefix(resp.ID, "resp_"))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 10, estimateTokens(Request{}))

	req := Request{
		System: strings.Repeat("s", 40),
		Turns: []Turn{
			UserText(strings.Repeat("u", 80)),
			ToolResultsTurn([]Block{ToolResultBlock("t1", strings.Repeat("r", 40), false)}),
		},
	}
	assert.Equal(t, 40, estimateTokens(req))
}
