// Package logging provides file-based structured logging with rotation for
// asrsmcp. Logs are JSON lines written to ~/.asrsmcp/logs/server.log.
//
// In MCP mode stdout carries the JSON-RPC stream, so nothing is ever written
// to stdout or stderr; the file is the only sink.
package logging
