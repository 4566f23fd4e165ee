package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.uber.org/dig"

	"github.com/martinemde/toolloop/agentloop"
	"github.com/martinemde/toolloop/config"
	"github.com/martinemde/toolloop/llm"
	"github.com/martinemde/toolloop/tools"
)

// Container holds the resolved services shared by the subcommands.
// Callers use the typed getters and never touch dig directly.
type Container struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *llm.Client
	registry *agentloop.Registry
	options  agentOptions
}

// agentOptions is a named slice so dig can tell it from other []Option values.
type agentOptions []agentloop.Option

// logOutput is where the slog text handler writes.
type logOutput struct{ io.Writer }

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config { return c.cfg }

// Logger returns the shared structured logger.
func (c *Container) Logger() *slog.Logger { return c.logger }

// Client returns the gateway client holding the configured adapter.
func (c *Container) Client() *llm.Client { return c.client }

// Registry returns the built-in tool registry. Agents get their own clone.
func (c *Container) Registry() *agentloop.Registry { return c.registry }

// NewContainer wires config, logger, gateway adapter, client and tools.
// Decorators are applied with dig.Decorate after the providers, letting
// callers swap a service (for example the adapter) without rebuilding the
// graph.
func NewContainer(cfg *config.Config, decorators ...any) (*Container, error) {
	d := dig.New()

	providers := []any{
		func() *config.Config { return cfg },
		func() logOutput { return logOutput{os.Stderr} },
		newLogger,
		newAdapter,
		newClient,
		newRegistry,
		newAgentOptions,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}
	for _, dec := range decorators {
		if err := d.Decorate(dec); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		logger *slog.Logger,
		client *llm.Client,
		registry *agentloop.Registry,
		options agentOptions,
	) {
		result = &Container{
			cfg:      cfg,
			logger:   logger,
			client:   client,
			registry: registry,
			options:  options,
		}
	})
	if err != nil {
		return nil, dig.RootCause(err)
	}
	return result, nil
}

func newLogger(cfg *config.Config, out logOutput) *slog.Logger {
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// newAdapter uses the native Anthropic SDK for anthropic and gollm for
// every other provider.
// newAdapter builds the adapter for cfg.Provider. An unset model is left to
// the adapter, which falls back to its provider's default.
func newAdapter(cfg *config.Config) (llm.Adapter, error) {
	if cfg.Provider == "anthropic" {
		opts := []llm.AnthropicOption{llm.WithAnthropicMaxTokens(cfg.MaxTokens)}
		if cfg.Model != "" {
			opts = append(opts, llm.WithAnthropicModel(cfg.Model))
		}
		return llm.NewAnthropicAdapter(cfg.AnthropicAPIKey, opts...)
	}
	opts := []llm.GollmAdapterOption{llm.WithGollmMaxTokens(cfg.MaxTokens)}
	if cfg.Model != "" {
		opts = append(opts, llm.WithGollmModel(cfg.Model))
	}
	adapter, err := llm.NewGollmAdapter(cfg.Provider, cfg.APIKey(), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s adapter: %w", cfg.Provider, err)
	}
	return adapter, nil
}

func newClient(cfg *config.Config, adapter llm.Adapter, logger *slog.Logger) *llm.Client {
	policy := llm.DefaultRetryPolicy()
	policy.MaxRetries = cfg.MaxRetries
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		logger.Warn("retrying llm call", "attempt", attempt+1, "delay", delay, "error", err)
	}
	return llm.NewClient(
		llm.WithProvider(adapter),
		llm.WithMiddleware(llm.LoggingMiddleware(logger), llm.RetryMiddleware(policy)),
		llm.WithStreamMiddleware(llm.StreamLoggingMiddleware(logger)),
	)
}

func newRegistry() (*agentloop.Registry, error) {
	reg := agentloop.NewRegistry()
	if err := tools.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func newAgentOptions(cfg *config.Config, logger *slog.Logger) agentOptions {
	return agentOptions{
		agentloop.WithModel(cfg.Model),
		agentloop.WithMaxTokens(cfg.MaxTokens),
		agentloop.WithMaxIterations(cfg.MaxIterations),
		agentloop.WithSystemPrompt(cfg.SystemPrompt),
		agentloop.WithOutputLimit(cfg.OutputLimit),
		agentloop.WithLogger(logger),
	}
}

// Agent builds an agent over the full tool registry.
func (c *Container) Agent(extra ...agentloop.Option) *agentloop.Agent {
	return c.AgentWith(c.registry, extra...)
}

// AgentWith builds an agent over reg.
func (c *Container) AgentWith(reg *agentloop.Registry, extra ...agentloop.Option) *agentloop.Agent {
	opts := append(append([]agentloop.Option{}, c.options...), extra...)
	return agentloop.NewAgent(c.client, reg, opts...)
}

// Conversation starts an empty multi-turn chat without tools.
func (c *Container) Conversation() *agentloop.Conversation {
	return agentloop.NewConversation(c.client, c.options...)
}

// Close releases the gateway adapters.
func (c *Container) Close() error {
	return c.client.Close()
}
