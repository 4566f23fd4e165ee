package llm

import "slices"

// ModelInfo describes a known model.
type ModelInfo struct {
	ID            string   `json:"id"`
	Provider      string   `json:"provider"`
	DisplayName   string   `json:"display_name"`
	ContextWindow int      `json:"context_window"`
	MaxOutput     int      `json:"max_output"`
	SupportsTools bool     `json:"supports_tools"`
	Aliases       []string `json:"aliases,omitempty"`
}

// Models is the built-in catalog, newest first within each provider.
var Models = []ModelInfo{
	// Anthropic
	{
		ID: "claude-opus-4-1-20250805", Provider: "anthropic", DisplayName: "Claude Opus 4.1",
		ContextWindow: 200000, MaxOutput: 32000, SupportsTools: true,
		Aliases: []string{"opus", "claude-opus-4-1"},
	},
	{
		ID: "claude-sonnet-4-20250514", Provider: "anthropic", DisplayName: "Claude Sonnet 4",
		ContextWindow: 200000, MaxOutput: 64000, SupportsTools: true,
		Aliases: []string{"sonnet", "claude-sonnet-4-0"},
	},
	{
		ID: "claude-3-7-sonnet-20250219", Provider: "anthropic", DisplayName: "Claude Sonnet 3.7",
		ContextWindow: 200000, MaxOutput: 64000, SupportsTools: true,
		Aliases: []string{"claude-3-7-sonnet-latest"},
	},
	{
		ID: "claude-3-5-haiku-20241022", Provider: "anthropic", DisplayName: "Claude Haiku 3.5",
		ContextWindow: 200000, MaxOutput: 8192, SupportsTools: true,
		Aliases: []string{"haiku", "claude-3-5-haiku-latest"},
	},

	// OpenAI (served through the gollm adapter)
	{
		ID: "gpt-4o", Provider: "openai", DisplayName: "GPT-4o",
		ContextWindow: 128000, MaxOutput: 16384, SupportsTools: true,
	},
	{
		ID: "gpt-4o-mini", Provider: "openai", DisplayName: "GPT-4o mini",
		ContextWindow: 128000, MaxOutput: 16384, SupportsTools: true,
	},
}

// GetModelInfo returns the catalog entry for an id or alias, or nil.
func GetModelInfo(modelID string) *ModelInfo {
	for i := range Models {
		if Models[i].ID == modelID || slices.Contains(Models[i].Aliases, modelID) {
			return &Models[i]
		}
	}
	return nil
}

// ListModels returns known models, optionally filtered by provider.
func ListModels(provider string) []ModelInfo {
	var result []ModelInfo
	for _, m := range Models {
		if provider == "" || m.Provider == provider {
			result = append(result, m)
		}
	}
	return result
}

// GetLatestModel returns the first catalog entry for provider, or nil.
func GetLatestModel(provider string) *ModelInfo {
	for i := range Models {
		if Models[i].Provider == provider {
			return &Models[i]
		}
	}
	return nil
}
