package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/martinemde/toolloop/agentloop"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message...]",
	Short: "Chat with the model without tools",
	Long: `Each argument is sent as one user message in the same conversation, so
later messages see the earlier replies. With no arguments chat reads
messages from stdin until EOF or "exit".`,
	RunE: runChat,
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

func runChat(cmd *cobra.Command, args []string) error {
	c, err := loadContainer()
	if err != nil {
		return err
	}
	defer c.Close()

	conv := c.Conversation()
	if len(args) > 0 {
		return chatScripted(cmd.Context(), cmd.OutOrStdout(), conv, args)
	}
	return chatInteractive(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), conv)
}

// chatScripted sends messages in order and prints each exchange.
func chatScripted(ctx context.Context, w io.Writer, conv *agentloop.Conversation, messages []string) error {
	for _, msg := range messages {
		printMessage(w, "user", msg)
		reply, err := conv.Send(ctx, msg)
		if err != nil {
			return err
		}
		printMessage(w, "assistant", reply)
	}
	return nil
}

// chatInteractive runs a REPL over r. A failed exchange is reported and the
// conversation continues.
func chatInteractive(ctx context.Context, r io.Reader, w io.Writer, conv *agentloop.Conversation) error {
	fmt.Fprintln(w, "Interactive chat (type 'exit' or Ctrl+D to quit)")
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, "\nYou: ")
		if !scanner.Scan() {
			fmt.Fprintln(w, "\nGoodbye!")
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if exitCommands[strings.ToLower(line)] {
			fmt.Fprintln(w, "Goodbye!")
			return nil
		}

		reply, err := conv.Send(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(w, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "\nAssistant: %s\n", reply)
	}
}

func printMessage(w io.Writer, role, content string) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintf(w, "\n%s\n%s\n%s\n%s\n", rule, strings.ToUpper(role), rule, content)
}
