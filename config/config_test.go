package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configVars = []string{
	"LLM_PROVIDER", "ANTHROPIC_API_KEY", "OPENAI_API_KEY", "LLM_API_KEY",
	"DEFAULT_MODEL", "MAX_TOKENS", "AGENT_MAX_ITERATIONS", "SYSTEM_PROMPT",
	"LOG_LEVEL", "LLM_MAX_RETRIES", "TOOL_OUTPUT_LIMIT",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configVars {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "sk-test", cfg.APIKey())
	assert.Empty(t, cfg.Model, "adapters choose their provider's default")
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Equal(t, 5, cfg.MaxIterations)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 20000, cfg.OutputLimit)
	assert.Empty(t, cfg.SystemPrompt)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("DEFAULT_MODEL", "gpt-4o")
	t.Setenv("MAX_TOKENS", "1024")
	t.Setenv("AGENT_MAX_ITERATIONS", "8")
	t.Setenv("SYSTEM_PROMPT", "Be brief.")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TOOL_OUTPUT_LIMIT", "0")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "sk-openai", cfg.APIKey())
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 1024, cfg.MaxTokens)
	assert.Equal(t, 8, cfg.MaxIterations)
	assert.Equal(t, "Be brief.", cfg.SystemPrompt)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, 0, cfg.OutputLimit)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEFAULT_MODEL", "from-environment")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"ANTHROPIC_API_KEY=sk-from-file\nDEFAULT_MODEL=from-file\nMAX_TOKENS=512\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-from-file", cfg.AnthropicAPIKey)
	assert.Equal(t, 512, cfg.MaxTokens)
	assert.Equal(t, "from-environment", cfg.Model, "environment wins over the file")
}

func TestLoadReportsEveryInvalidField(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_TOKENS", "0")
	t.Setenv("AGENT_MAX_ITERATIONS", "0")
	t.Setenv("LOG_LEVEL", "loud")

	_, err := Load(missingEnvFile(t))
	require.Error(t, err)

	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Len(t, cfgErr.Fields, 4)
	for _, name := range []string{"ANTHROPIC_API_KEY", "MAX_TOKENS", "AGENT_MAX_ITERATIONS", "LOG_LEVEL"} {
		assert.True(t, cfgErr.Has(name), name)
		assert.Contains(t, err.Error(), name)
	}
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY is required")
}

func TestLoadRejectsUnparsableNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("MAX_TOKENS", "lots")

	_, err := Load(missingEnvFile(t))
	assert.ErrorContains(t, err, "parse environment")
}

func TestValidateProviderKeys(t *testing.T) {
	cfg := Config{
		Provider: "ollama", Model: "llama3", MaxTokens: 1, MaxIterations: 1, LogLevel: "info",
	}
	require.NoError(t, cfg.Validate(), "ollama needs no key")
	assert.Empty(t, cfg.APIKey())

	cfg.Provider = "openai"
	var cfgErr *Error
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.True(t, cfgErr.Has("OPENAI_API_KEY"))
	assert.False(t, cfgErr.Has("ANTHROPIC_API_KEY"))

	cfg.Provider = "skynet"
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.True(t, cfgErr.Has("LLM_PROVIDER"))
}

func TestSlogLevelFallsBackToInfo(t *testing.T) {
	cfg := Config{LogLevel: "warn"}
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
	cfg.LogLevel = ""
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
