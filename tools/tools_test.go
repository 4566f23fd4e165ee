package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinemde/toolloop/agentloop"
)

func TestRegisterAll(t *testing.T) {
	reg := agentloop.NewRegistry()
	require.NoError(t, Register(reg))
	assert.Equal(t, Names(), reg.Names())

	for _, spec := range reg.Describe() {
		assert.NotEmpty(t, spec.Description, spec.Name)
		assert.Equal(t, "object", spec.InputSchema["type"], spec.Name)
		assert.Len(t, spec.InputSchema["required"], 1, spec.Name)
	}
}

func TestRegisterSubsetAndUnknown(t *testing.T) {
	reg := agentloop.NewRegistry()
	require.NoError(t, Register(reg, "search_web", "calculate"))
	assert.Equal(t, []string{"search_web", "calculate"}, reg.Names())

	assert.ErrorContains(t, Register(reg, "shell"), "unknown built-in tool")

	var dup *agentloop.DuplicateToolError
	assert.ErrorAs(t, Register(reg, "calculate"), &dup)
}

func invoke(t *testing.T, name string, args map[string]any) agentloop.ToolOutput {
	t.Helper()
	reg := agentloop.NewRegistry()
	require.NoError(t, Register(reg))
	out, err := reg.Invoke(context.Background(), name, args)
	require.NoError(t, err)
	return out
}

func TestCalculateTool(t *testing.T) {
	assert.Equal(t, agentloop.ToolOutput{Content: "4"}, invoke(t, "calculate", map[string]any{"expression": "2+2"}))
	assert.Equal(t, "33", invoke(t, "calculate", map[string]any{"expression": "2024 - 1991"}).Content)

	out := invoke(t, "calculate", map[string]any{"expression": "1/0"})
	assert.True(t, out.IsError)
	assert.Equal(t, "Error: division by zero", out.Content)

	out = invoke(t, "calculate", map[string]any{})
	assert.True(t, out.IsError)
}

func TestGetWeatherTool(t *testing.T) {
	assert.Equal(t, "Sunny, 72°F", invoke(t, "get_weather", map[string]any{"location": "San Francisco"}).Content)
	assert.Equal(t, "Rainy, 58°F", invoke(t, "get_weather", map[string]any{"location": " london "}).Content)

	out := invoke(t, "get_weather", map[string]any{"location": "Paris"})
	assert.False(t, out.IsError)
	assert.Equal(t, "Weather data not available for Paris", out.Content)
}

func TestSearchWebTool(t *testing.T) {
	assert.Equal(t,
		"Python 3.13 is the latest stable version released in 2024",
		invoke(t, "search_web", map[string]any{"query": "latest Python version"}).Content)
	assert.Equal(t,
		"Claude is an AI assistant created by Anthropic, launched in 2023",
		invoke(t, "search_web", map[string]any{"query": "information about Claude AI"}).Content)
	assert.Equal(t, "Current year is 2025", invoke(t, "search_web", map[string]any{"query": "latest news"}).Content)
	assert.Contains(t, invoke(t, "search_web", map[string]any{"query": "golang"}).Content, "no simulated results")
}
