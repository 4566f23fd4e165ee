package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/martinemde/toolloop/llm"
)

var (
	modelsProvider string
	modelsJSON     bool
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models in the built-in catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printModels(cmd.OutOrStdout(), llm.ListModels(modelsProvider), modelsJSON)
	},
}

func init() {
	modelsCmd.Flags().StringVarP(&modelsProvider, "provider", "p", "", "Only list models of this provider")
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "Print the catalog as JSON")
}

func printModels(w io.Writer, models []llm.ModelInfo, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROVIDER\tNAME\tCONTEXT\tTOOLS\tALIASES")
	for _, m := range models {
		tools := "no"
		if m.SupportsTools {
			tools = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			m.ID, m.Provider, m.DisplayName, m.ContextWindow, tools, strings.Join(m.Aliases, ","))
	}
	return tw.Flush()
}
