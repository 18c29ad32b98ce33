package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/asrsmcp/internal/logging"
)

type logsOptions struct {
	follow    bool
	lines     int
	level     string
	tool      string
	requestID string
	filter    string
	noColor   bool
	logFile   string
}

func newLogsCmd() *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View asrsmcp server logs",
		Long: `View and tail the server log (~/.asrsmcp/logs/server.log).

By default, shows the last 50 lines. Use -f to follow new entries in
real-time (like 'tail -f').`,
		Example: `  asrsmcp logs                          # Show last 50 lines
  asrsmcp logs -n 100                   # Show last 100 lines
  asrsmcp logs -f                       # Follow logs in real-time
  asrsmcp logs --level error            # Show only errors
  asrsmcp logs --tool find_similar_incidents
  asrsmcp logs --request-id 3f9a1c2e    # One call, start to finish
  asrsmcp logs --filter "not found"     # Filter by pattern`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&opts.level, "level", "", "Filter by log level (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.tool, "tool", "", "Filter by tool name")
	cmd.Flags().StringVar(&opts.requestID, "request-id", "", "Filter by request id")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Filter by keyword/pattern (regex)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&opts.logFile, "file", "", "Path to log file")

	return cmd
}

func runLogs(cmd *cobra.Command, opts logsOptions) error {
	path, err := logging.FindLogFile(opts.logFile)
	if err != nil {
		return err
	}

	var pattern *regexp.Regexp
	if opts.filter != "" {
		pattern, err = regexp.Compile(opts.filter)
		if err != nil {
			return fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	stdout := cmd.OutOrStdout()
	noColor := opts.noColor
	if f, ok := stdout.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		noColor = true
	}

	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:     opts.level,
		Tool:      opts.tool,
		RequestID: opts.requestID,
		Pattern:   pattern,
		NoColor:   noColor,
	}, stdout)

	stderr := cmd.ErrOrStderr()
	_, _ = fmt.Fprintf(stderr, "Log file: %s\n", path)
	if opts.follow {
		_, _ = fmt.Fprintln(stderr, "Following... (Ctrl+C to stop)")
	}
	_, _ = fmt.Fprintln(stderr, "---")

	if opts.follow {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runFollow(ctx, cmd, viewer, path)
	}

	entries, err := viewer.Tail(path, opts.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)
	return nil
}

func runFollow(ctx context.Context, cmd *cobra.Command, viewer *logging.Viewer, path string) error {
	entries := make(chan logging.LogEntry, 100)
	errCh := make(chan error, 1)

	go func() {
		errCh <- viewer.Follow(ctx, path, entries)
	}()

	for {
		select {
		case entry := <-entries:
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), viewer.FormatEntry(entry))
		case err := <-errCh:
			return err
		case <-ctx.Done():
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "\n---")
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Stopped.")
			return nil
		}
	}
}
