// Package configs provides embedded configuration templates for asrsmcp.
//
// Templates are embedded at build time so every distribution carries them.
// `asrsmcp config init` writes UserConfigTemplate to
// ~/.config/asrsmcp/config.yaml when no user config exists yet.
package configs

import _ "embed"

// UserConfigTemplate is the commented user/machine-level configuration.
// Its values match the hardcoded defaults in internal/config.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
