package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/martinemde/toolloop/agentloop"
	"github.com/martinemde/toolloop/config"
)

var (
	agentTasksFile string
	agentQuiet     bool
)

var agentCmd = &cobra.Command{
	Use:   "agent [task...]",
	Short: "Run tasks through the agent with every built-in tool",
	Long: `Runs each task through the tool-use loop. Tasks come from the arguments,
from a YAML file given with --tasks, or from the two built-in examples.`,
	RunE: runAgentCmd,
}

func init() {
	agentCmd.Flags().StringVarP(&agentTasksFile, "tasks", "t", "", "YAML file with a list of tasks")
	agentCmd.Flags().BoolVarP(&agentQuiet, "quiet", "q", false, "Print only final answers")
}

func runAgentCmd(cmd *cobra.Command, args []string) error {
	tasks, err := resolveTasks(agentTasksFile, args)
	if err != nil {
		return err
	}

	c, err := loadContainer()
	if err != nil {
		return err
	}
	defer c.Close()

	w := cmd.OutOrStdout()
	var opts []agentloop.Option
	if !agentQuiet {
		opts = append(opts, agentloop.OnEvent(progressPrinter(w)))
	}
	return runTasks(cmd.Context(), w, c.Agent(opts...), tasks)
}

func resolveTasks(path string, args []string) ([]config.Task, error) {
	switch {
	case path != "" && len(args) > 0:
		return nil, errors.New("give tasks as arguments or with --tasks, not both")
	case path != "":
		return config.LoadTasks(path)
	case len(args) > 0:
		tasks := make([]config.Task, len(args))
		for i, a := range args {
			tasks[i] = config.Task{Name: fmt.Sprintf("task-%d", i+1), Prompt: a}
		}
		return tasks, nil
	default:
		return config.DefaultTasks(), nil
	}
}

// runTasks runs every task even when one fails and returns the joined
// failures. Exhaustion is reported but is not a failure.
func runTasks(ctx context.Context, w io.Writer, agent *agentloop.Agent, tasks []config.Task) error {
	var errs []error
	for _, task := range tasks {
		fmt.Fprintf(w, "\nAgent task [%s]: %s\n%s\n", task.Name, task.Prompt, strings.Repeat("=", 60))
		res, err := agent.Run(ctx, task.Prompt)
		if err != nil {
			fmt.Fprintf(w, "\nFailed after %d iteration(s): %v\n", res.Iterations, err)
			errs = append(errs, fmt.Errorf("%s: %w", task.Name, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		printResult(w, agent, res)
	}
	return errors.Join(errs...)
}

func printResult(w io.Writer, agent *agentloop.Agent, res *agentloop.Result) {
	if answer, ok := res.Answer(); ok {
		fmt.Fprintf(w, "\nAgent complete after %d iteration(s).\nResult: %s\n", res.Iterations, answer)
	} else {
		fmt.Fprintf(w, "\nReached the limit of %d iteration(s) without a final answer.\n", agent.MaxIterations())
	}
	fmt.Fprintf(w, "Tokens: %d in, %d out\n", res.Usage.InputTokens, res.Usage.OutputTokens)
}

// progressPrinter renders run events as they happen.
func progressPrinter(w io.Writer) agentloop.EventHandler {
	return func(ev agentloop.Event) {
		switch ev.Kind {
		case agentloop.EventModelRequest:
			fmt.Fprintf(w, "\n--- Iteration %d ---\n", ev.Iteration)
		case agentloop.EventToolCallStart:
			args, err := json.Marshal(ev.Data["arguments"])
			if err != nil {
				args = []byte("?")
			}
			fmt.Fprintf(w, "Tool: %v\n   Input: %s\n", ev.Data["tool_name"], args)
		case agentloop.EventToolCallEnd:
			label := "Result"
			if isErr, _ := ev.Data["is_error"].(bool); isErr {
				label = "Error"
			}
			fmt.Fprintf(w, "   %s: %v\n", label, ev.Data["output"])
		case agentloop.EventLoopDetection:
			fmt.Fprintf(w, "Warning: %v\n", ev.Data["message"])
		}
	}
}
