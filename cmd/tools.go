package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/martinemde/toolloop/agentloop"
	"github.com/martinemde/toolloop/config"
	"github.com/martinemde/toolloop/tools"
)

const defaultToolsPrompt = "What's the weather in San Francisco? Also, what's 15 * 24?"

var toolsList bool

var toolsCmd = &cobra.Command{
	Use:   "tools [prompt]",
	Short: "Ask a question the model answers with the weather and calculator tools",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runToolsCmd,
}

func init() {
	toolsCmd.Flags().BoolVarP(&toolsList, "list", "l", false, "List the built-in tools and their input schemas, then exit")
}

func runToolsCmd(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	if toolsList {
		return listTools(w)
	}

	prompt := defaultToolsPrompt
	if len(args) == 1 {
		prompt = args[0]
	}

	c, err := loadContainer()
	if err != nil {
		return err
	}
	defer c.Close()

	reg := agentloop.NewRegistry()
	if err := tools.Register(reg, "get_weather", "calculate"); err != nil {
		return err
	}
	agent := c.AgentWith(reg, agentloop.OnEvent(progressPrinter(w)))
	return runTasks(cmd.Context(), w, agent, []config.Task{{Name: "tools", Prompt: prompt}})
}

// listTools prints each built-in tool with its input schema as indented JSON.
func listTools(w io.Writer) error {
	reg := agentloop.NewRegistry()
	if err := tools.Register(reg); err != nil {
		return err
	}
	for _, spec := range reg.Describe() {
		schema, err := json.MarshalIndent(spec.InputSchema, "  ", "  ")
		if err != nil {
			return fmt.Errorf("encode %s schema: %w", spec.Name, err)
		}
		fmt.Fprintf(w, "%s: %s\n  %s\n\n", spec.Name, spec.Description, schema)
	}
	return nil
}
