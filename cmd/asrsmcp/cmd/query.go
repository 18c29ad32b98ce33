package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/asrsmcp/internal/tools"
)

func newQueryCmd(opts *rootOptions) *cobra.Command {
	var (
		params   string
		dataPath string
	)

	cmd := &cobra.Command{
		Use:   "query <tool>",
		Short: "Call one tool and print its result",
		Long: `Call one tool against the corpus and print the rendered document, exactly
as an MCP client would receive it. Parameters are a JSON object; pass "-" to
read them from stdin.

The exit status is non-zero when the tool reports an error.`,
		Example: `  # Look up one incident
  asrsmcp query get_incident_details --params '{"id": 2184152}'

  # Keyword search with a limit
  asrsmcp query search_incidents_by_keyword --params '{"keyword": "bird strike", "max_results": 5}'

  # List the available tools
  asrsmcp query list_available_tools`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args[0], params, dataPath)
		},
	}

	cmd.Flags().StringVarP(&params, "params", "p", "{}", `Tool parameters as a JSON object, or "-" for stdin`)
	cmd.Flags().StringVar(&dataPath, "data", "", "Corpus JSON file (overrides data.path)")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *rootOptions, name, params, dataPath string) error {
	raw := []byte(params)
	if params == "-" {
		var err error
		raw, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read parameters from stdin: %w", err)
		}
	}

	args, err := tools.DecodeParams(raw)
	if err != nil {
		return err
	}

	engine, err := opts.loadEngine(dataPath)
	if err != nil {
		return err
	}

	dispatcher := tools.NewDispatcher(tools.NewRegistry(engine), tools.WithLogger(opts.logger()))
	resp := dispatcher.Dispatch(cmd.Context(), name, args)

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
	if resp.IsError {
		return errSilent
	}
	return nil
}
