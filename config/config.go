// Package config loads toolloop settings from the environment.
//
// Values come from the process environment, optionally seeded from a .env
// file, and are validated before use. Variables already set in the
// environment win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is read by Load when no file is named.
const DefaultEnvFile = ".env"

// Config is the runtime configuration of the CLI and its agent.
type Config struct {
	Provider        string `env:"LLM_PROVIDER" envDefault:"anthropic" validate:"oneof=anthropic openai ollama groq mistral cohere deepseek openrouter"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY" validate:"required_if=Provider anthropic"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY" validate:"required_if=Provider openai"`
	// LLMAPIKey is the key for providers without a dedicated variable.
	LLMAPIKey string `env:"LLM_API_KEY"`
	// Model is empty unless set; each adapter then picks its provider's default.
	Model         string `env:"DEFAULT_MODEL"`
	MaxTokens     int    `env:"MAX_TOKENS" envDefault:"4096" validate:"gt=0"`
	MaxIterations int    `env:"AGENT_MAX_ITERATIONS" envDefault:"5" validate:"min=1"`
	SystemPrompt  string `env:"SYSTEM_PROMPT"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	MaxRetries    int    `env:"LLM_MAX_RETRIES" envDefault:"2" validate:"min=0"`
	// OutputLimit caps tool output characters; zero disables truncation.
	OutputLimit int `env:"TOOL_OUTPUT_LIMIT" envDefault:"20000" validate:"min=0"`
}

// FieldError describes one invalid setting.
type FieldError struct {
	Name  string // environment variable or YAML key
	Rule  string // failed validation tag
	Param string
	Value any
}

func (e FieldError) String() string {
	switch e.Rule {
	case "required", "required_if":
		return e.Name + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", e.Name, e.Param, e.Value)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", e.Name, e.Param, e.Value)
	case "min":
		return fmt.Sprintf("%s must be at least %s, got %v", e.Name, e.Param, e.Value)
	default:
		return fmt.Sprintf("%s failed %s", e.Name, e.Rule)
	}
}

// Error reports every invalid setting found by Validate.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.String()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Has reports whether the named setting is among the invalid fields.
func (e *Error) Has(name string) bool {
	for _, f := range e.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("env"), ",")
		if name == "" {
			name, _, _ = strings.Cut(f.Tag.Get("yaml"), ",")
		}
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads the given .env files (DefaultEnvFile when none are named),
// parses the environment and validates the result. Missing files are
// ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, path := range envFiles {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field and returns *Error listing all violations.
func (c *Config) Validate() error {
	return validationError(validate.Struct(c))
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Name:  fe.Field(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
			Value: fe.Value(),
		})
	}
	return out
}

// APIKey returns the key for the configured provider. Ollama needs none.
func (c *Config) APIKey() string {
	switch c.Provider {
	case "anthropic":
		return c.AnthropicAPIKey
	case "openai":
		return c.OpenAIAPIKey
	default:
		return c.LLMAPIKey
	}
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
