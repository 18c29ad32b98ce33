package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/asrsmcp/internal/config"
	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
	"github.com/Aman-CERP/asrsmcp/internal/logging"
	"github.com/Aman-CERP/asrsmcp/internal/mcp"
	"github.com/Aman-CERP/asrsmcp/internal/query"
	"github.com/Aman-CERP/asrsmcp/internal/telemetry"
	"github.com/Aman-CERP/asrsmcp/internal/tools"
)

// metricsShutdownTimeout bounds the metrics listener's graceful stop.
const metricsShutdownTimeout = 5 * time.Second

type serveFlags struct {
	dataPath    string
	metricsAddr string
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the MCP server. The incident corpus is loaded once at startup and
stays in memory; every tool call is a read over it.

stdout carries MCP JSON-RPC only. Logs go to ~/.asrsmcp/logs/server.log;
use 'asrsmcp logs -f' to watch them.`,
		Example: `  # Serve the corpus named in .asrsmcp.yaml
  asrsmcp serve

  # Serve a specific corpus and expose Prometheus metrics
  asrsmcp serve --data ./asrs_hfacs.json --metrics-addr :9090`,
		Annotations: map[string]string{annotationOwnLogging: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts, flags)
		},
	}

	cmd.Flags().StringVar(&flags.dataPath, "data", "", "Corpus JSON file (overrides data.path)")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *rootOptions, flags serveFlags) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if flags.dataPath != "" {
		cfg.Data.Path = flags.dataPath
	}
	if flags.metricsAddr != "" {
		cfg.Server.MetricsAddr = flags.metricsAddr
	}

	// Launched by hand rather than by a client; warn but keep going
	if fd := os.Stdin.Fd(); isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(),
			"Warning: stdin is a terminal. 'asrsmcp serve' speaks MCP JSON-RPC on stdio and is meant to be started by an MCP client.")
	}

	level := cfg.Server.LogLevel
	if opts.debug {
		level = "debug"
	}
	logger, cleanup, err := logging.SetupMCPMode(level)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()

	engine, err := opts.loadEngine(cfg.Data.Path)
	if err != nil {
		logger.Error("Failed to load corpus", amerrors.LogAttr(err))
		return err
	}
	logger.Info("Corpus loaded",
		slog.String("path", cfg.Data.Path),
		slog.Int("records", engine.Store().Len()))

	stack, err := buildServer(cfg, engine, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Client disconnect ends the run, including the metrics listener
		defer cancel()
		return stack.server.Serve(gctx, strings.ToLower(cfg.Server.Transport))
	})

	if stack.prom != nil {
		srv := &http.Server{
			Addr:              cfg.Server.MetricsAddr,
			Handler:           stack.metricsHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Metrics endpoint listening", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancelShutdown()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// serverStack is a wired MCP server plus the telemetry it owns.
type serverStack struct {
	server  *mcp.Server
	metrics *telemetry.ToolMetrics
	prom    *telemetry.PromRecorder
	closers []func() error
}

// buildServer wires engine, dispatcher, telemetry and the MCP adapter.
// A telemetry database that cannot be opened degrades to in-memory metrics.
func buildServer(cfg *config.Config, engine *query.Engine, logger *slog.Logger) (*serverStack, error) {
	stack := &serverStack{}
	var recorders []telemetry.Recorder

	if cfg.Telemetry.IsEnabled() {
		var store telemetry.MetricsStore
		if cfg.Telemetry.DBPath != "" {
			s, err := telemetry.OpenSQLiteMetricsStore(cfg.Telemetry.DBPath)
			if err != nil {
				logger.Warn("Telemetry database unavailable, keeping metrics in memory",
					slog.String("path", cfg.Telemetry.DBPath),
					slog.String("error", err.Error()))
			} else {
				store = s
				stack.closers = append(stack.closers, s.Close)
			}
		}

		tcfg := telemetry.DefaultConfig()
		tcfg.FlushInterval = cfg.Telemetry.FlushInterval
		if cfg.Telemetry.TopTermsCapacity > 0 {
			tcfg.TopTermsCapacity = cfg.Telemetry.TopTermsCapacity
		}
		if cfg.Telemetry.ZeroResultsCapacity > 0 {
			tcfg.ZeroResultsCapacity = cfg.Telemetry.ZeroResultsCapacity
		}

		stack.metrics = telemetry.NewToolMetricsWithConfig(store, tcfg)
		stack.closers = append(stack.closers, stack.metrics.Close)
		recorders = append(recorders, stack.metrics)
	}

	if cfg.Server.MetricsAddr != "" {
		stack.prom = telemetry.NewPromRecorder()
		recorders = append(recorders, stack.prom)
	}

	dispatcher := tools.NewDispatcher(tools.NewRegistry(engine),
		tools.WithLogger(logger),
		tools.WithRecorder(telemetry.Multi(recorders...)))

	server, err := mcp.NewServer(dispatcher, mcp.WithServerLogger(logger))
	if err != nil {
		_ = stack.Close()
		return nil, err
	}
	if stack.metrics != nil {
		server.SetMetrics(stack.metrics)
	}
	stack.server = server

	return stack, nil
}

func (s *serverStack) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.prom.Handler())
	return mux
}

// Close flushes metrics, then closes the store they flush into.
func (s *serverStack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
