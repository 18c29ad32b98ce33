package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/asrsmcp/internal/incident"
	"github.com/Aman-CERP/asrsmcp/internal/query"
	"github.com/Aman-CERP/asrsmcp/internal/tools"
)

func newToolsCmd(_ *rootOptions) *cobra.Command {
	var (
		jsonOutput bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the server exposes",
		Long: `List every tool with its parameters. No corpus is loaded; this is the
same metadata list_available_tools returns.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Metadata only, so an empty corpus is enough
			registry := tools.NewRegistry(query.New(incident.NewStore(nil)))
			listing := registry.Listing()

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(listing)
			}
			return printToolListing(cmd, listing, verbose)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show parameter descriptions")

	return cmd
}

func printToolListing(cmd *cobra.Command, listing tools.ToolListing, verbose bool) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "TOOL\tPARAMETERS")
	for _, tool := range listing.Tools {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", tool.Name, paramSummary(tool.Parameters))
		if !verbose {
			continue
		}
		for _, p := range tool.Parameters {
			_, _ = fmt.Fprintf(w, "  %s\t%s\n", p.Name, p.Description)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%d tools\n", listing.Count)
	return nil
}

// paramSummary renders parameters as "id, max_results?" where ? marks
// optional ones.
func paramSummary(params []tools.Param) string {
	if len(params) == 0 {
		return "-"
	}
	names := make([]string, 0, len(params))
	for _, p := range params {
		if p.Required {
			names = append(names, p.Name)
		} else {
			names = append(names, p.Name+"?")
		}
	}
	return strings.Join(names, ", ")
}
