package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/martinemde/toolloop/agentloop"
)

const defaultStreamPrompt = "Write a short story about an AI learning to understand human emotions."

var streamCmd = &cobra.Command{
	Use:   "stream [prompt]",
	Short: "Stream a reply as the model writes it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStreamCmd,
}

func runStreamCmd(cmd *cobra.Command, args []string) error {
	prompt := defaultStreamPrompt
	if len(args) == 1 {
		prompt = args[0]
	}

	c, err := loadContainer()
	if err != nil {
		return err
	}
	defer c.Close()

	return streamReply(cmd.Context(), cmd.OutOrStdout(), c.Conversation(), prompt)
}

func streamReply(ctx context.Context, w io.Writer, conv *agentloop.Conversation, prompt string) error {
	fmt.Fprintf(w, "User: %s\n\nAssistant (streaming):\n\n", prompt)
	_, err := conv.Stream(ctx, prompt, func(delta string) error {
		_, err := io.WriteString(w, delta)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}
