package logging

import (
	"log/slog"
)

// SetupMCPMode initializes logging for MCP server mode and installs the
// logger as the slog default.
//
// MCP requires stdout to be used exclusively for JSON-RPC, and clients
// often surface stderr as errors, so logs go ONLY to the rotating file.
// An empty level means debug.
func SetupMCPMode(level string) (*slog.Logger, func(), error) {
	if level == "" {
		level = "debug"
	}
	cfg := Config{
		Level:         level,
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, nil, err
	}

	slog.SetDefault(logger)

	logger.Info("MCP mode logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))

	return logger, cleanup, nil
}
