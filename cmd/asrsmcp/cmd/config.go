package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/asrsmcp/configs"
	"github.com/Aman-CERP/asrsmcp/internal/config"
	"github.com/Aman-CERP/asrsmcp/internal/output"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
		Long: `Manage the user/global configuration file.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/asrsmcp/config.yaml)
  3. Project config (.asrsmcp.yaml)
  4. Environment variables (ASRSMCP_*)`,
		Example: `  # Create user config with defaults
  asrsmcp config init

  # Show effective configuration (merged from all sources)
  asrsmcp config show

  # Print user config file path
  asrsmcp config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd(opts))
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create user configuration file",
		Long: `Create the user/global configuration file from a commented template.

The file is created at ~/.config/asrsmcp/config.yaml (or
$XDG_CONFIG_HOME/asrsmcp/config.yaml if XDG_CONFIG_HOME is set).

With --force an existing file is backed up, then rewritten with your
settings kept and any new options filled in with defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Rewrite an existing configuration (a backup is kept)")

	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := newOutput(cmd)
	configPath := config.GetUserConfigPath()

	if config.UserConfigExists() {
		if !force {
			out.Warning("User configuration already exists")
			out.Statusf("📁", "Location: %s", configPath)
			out.Newline()
			out.Status("💡", "Use --force to rewrite it with new defaults (preserves your settings)")
			return nil
		}
		return runConfigUpgrade(out, configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(configs.UserConfigTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Created user configuration")
	out.Statusf("📁", "Location: %s", configPath)
	out.Newline()
	out.Status("📋", "Next steps:")
	out.Status("", "  1. Set data.path to your corpus file")
	out.Status("", "  2. Run 'asrsmcp validate' to check it loads")
	return nil
}

// runConfigUpgrade backs up the existing file and rewrites it with its
// settings kept and missing options set to defaults.
func runConfigUpgrade(out *output.Writer, configPath string) error {
	existing, err := config.LoadUserConfig()
	if err != nil {
		return fmt.Errorf("failed to load existing config: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("config file disappeared during upgrade")
	}

	backupPath, err := config.WriteUserConfig(existing)
	if err != nil {
		return err
	}

	out.Success("Configuration rewritten")
	out.Statusf("📁", "Location: %s", configPath)
	out.Statusf("💾", "Backup: %s", backupPath)
	out.Newline()
	out.Status("💡", "Your existing settings have been preserved")
	return nil
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the configuration after merging all sources.

Sources:
  merged    defaults + user + project + env (default)
  user      defaults + user config file only
  defaults  hardcoded defaults`,
		Example: `  # Show merged configuration
  asrsmcp config show

  # Show as JSON
  asrsmcp config show --json

  # Show only user config
  asrsmcp config show --source user`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, opts, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, defaults")

	return cmd
}

func runConfigShow(cmd *cobra.Command, opts *rootOptions, jsonOutput bool, source string) error {
	var cfg *config.Config

	switch source {
	case "merged":
		loaded, err := opts.loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
	case "user":
		loaded, err := config.LoadUserConfig()
		if err != nil {
			return err
		}
		if loaded == nil {
			out := newOutput(cmd)
			out.Warning("No user configuration file found")
			out.Statusf("📁", "Expected at: %s", config.GetUserConfigPath())
			out.Status("💡", "Run 'asrsmcp config init' to create one")
			return nil
		}
		cfg = loaded
	case "defaults":
		cfg = config.NewConfig()
	default:
		return fmt.Errorf("unknown source %q (valid: merged, user, defaults)", source)
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		Long:  `Print the path to the user configuration file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return nil
		},
	}
}
