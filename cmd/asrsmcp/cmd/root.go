// Package cmd provides the CLI commands for asrsmcp.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/asrsmcp/internal/config"
	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
	"github.com/Aman-CERP/asrsmcp/internal/incident"
	"github.com/Aman-CERP/asrsmcp/internal/logging"
	"github.com/Aman-CERP/asrsmcp/internal/profiling"
	"github.com/Aman-CERP/asrsmcp/internal/query"
	"github.com/Aman-CERP/asrsmcp/pkg/version"
)

// annotationOwnLogging marks commands that install their own logger.
const annotationOwnLogging = "asrsmcp/own-logging"

// errSilent is returned by commands that already reported their failure.
var errSilent = errors.New("command failed")

// rootOptions holds persistent flag values and per-run state shared by
// the subcommands.
type rootOptions struct {
	debug      bool
	configPath string
	profile    profiling.Options

	cfg      *config.Config
	profiler *profiling.Profiler
	cleanup  func()
}

// NewRootCmd creates the root command for asrsmcp CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "asrsmcp",
		Short: "MCP server for HFACS-classified ASRS incident reports",
		Long: `asrsmcp serves a corpus of aviation safety incident reports, each
classified with the Human Factors Analysis and Classification System (HFACS),
to MCP clients over stdio.

Run 'asrsmcp serve' from your MCP client configuration, or use
'asrsmcp query' to call a tool directly from the shell.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("asrsmcp version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging to ~/.asrsmcp/logs/")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: user config + .asrsmcp.yaml)")
	cmd.PersistentFlags().StringVar(&opts.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&opts.profile.Mem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&opts.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = opts.start
	cmd.PersistentPostRunE = opts.stop

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newQueryCmd(opts))
	cmd.AddCommand(newToolsCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newConvertCmd())
	cmd.AddCommand(newStatsCmd(opts))
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// start begins profiling and, with --debug, file logging mirrored to stderr.
func (o *rootOptions) start(cmd *cobra.Command, _ []string) error {
	if o.debug && cmd.Annotations[annotationOwnLogging] == "" {
		cfg := logging.DefaultConfig()
		cfg.Level = "debug"
		cfg.WriteToStderr = true

		logger, cleanup, err := logging.Setup(cfg)
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		o.cleanup = cleanup
		slog.SetDefault(logger)
		slog.Debug("Debug logging enabled",
			slog.String("log_file", cfg.FilePath),
			slog.String("command", cmd.CommandPath()))
	}

	if o.profile.Enabled() {
		p, err := profiling.Start(o.profile)
		if err != nil {
			return err
		}
		o.profiler = p
	}
	return nil
}

// stop finishes profiling and closes the debug log.
func (o *rootOptions) stop(_ *cobra.Command, _ []string) error {
	var err error
	if o.profiler != nil {
		err = o.profiler.Stop()
		o.profiler = nil
	}
	if o.cleanup != nil {
		o.cleanup()
		o.cleanup = nil
	}
	return err
}

// loadConfig loads the effective configuration once per run: the --config file
// when given, otherwise the user and project files for the working directory.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}

	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		var cwd string
		cwd, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		cfg, err = config.Load(cwd)
	}
	if err != nil {
		return nil, amerrors.ConfigError(fmt.Sprintf("failed to load configuration: %v", err), err).
			WithSuggestion("Check .asrsmcp.yaml and ASRSMCP_* environment variables.")
	}

	o.cfg = cfg
	return cfg, nil
}

// logger returns the debug logger under --debug and a silent one otherwise,
// so one-shot commands keep stderr for their own output.
func (o *rootOptions) logger() *slog.Logger {
	if o.debug {
		return slog.Default()
	}
	return slog.New(slog.DiscardHandler)
}

// loadEngine loads the corpus named by dataPath, or data.path from the
// configuration when dataPath is empty.
func (o *rootOptions) loadEngine(dataPath string) (*query.Engine, error) {
	if dataPath == "" {
		cfg, err := o.loadConfig()
		if err != nil {
			return nil, err
		}
		dataPath = cfg.Data.Path
	}

	store, err := incident.LoadFile(dataPath)
	if err != nil {
		return nil, err
	}
	slog.Debug("Corpus loaded",
		slog.String("path", dataPath),
		slog.Int("records", store.Len()))

	return query.New(store), nil
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil && !errors.Is(err, errSilent) {
		printError(root, err)
	}
	return err
}

func printError(cmd *cobra.Command, err error) {
	w := cmd.ErrOrStderr()
	if _, ok := amerrors.As(err); ok {
		_, _ = fmt.Fprint(w, amerrors.FormatForCLI(err))
		return
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
}
