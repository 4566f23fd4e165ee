// Package cmd implements the toolloop CLI using cobra.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/martinemde/toolloop/config"
)

const version = "0.1.0"

var (
	envFile       string
	modelOverride string
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "toolloop",
	Short: "Run a language model in a tool-use loop",
	Long: `toolloop sends a task to a language model, runs the tools it asks for,
feeds the results back and repeats until the model answers or the iteration
budget runs out.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits on error. SIGINT and SIGTERM
// cancel the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "Environment file loaded before the process environment")
	rootCmd.PersistentFlags().StringVar(&modelOverride, "model", "", "Model id, overriding DEFAULT_MODEL")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(modelsCmd)
}

// loadContainer reads the configuration and wires the services.
func loadContainer() (*Container, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if modelOverride != "" {
		cfg.Model = modelOverride
	}
	return NewContainer(cfg)
}
