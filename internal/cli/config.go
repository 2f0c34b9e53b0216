package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/topology/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage topology configuration",
	Long: `Manage topology configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (TOPOLOGY_*, e.g. TOPOLOGY_ENGINE_SIMILARITY_THRESHOLD)
3. Config file (~/.topology/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the configuration resolved from defaults, config file and environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Configuration file: %s\n\n", configFile)
		} else {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(yamlData)
		return err
	},
}

var (
	initPath  string
	initForce bool
)

// configHeader precedes the YAML written by config init
const configHeader = `# Topology configuration
#
# Configuration hierarchy (highest to lowest priority):
#   1. CLI flags
#   2. Environment variables (TOPOLOGY_*, nested keys joined with _)
#   3. This config file
#   4. Built-in defaults
#
# API keys belong in the environment or a .env file:
#   OPENAI_API_KEY=sk-...
#   TOPOLOGY_EMBEDDING_API_KEY=sk-...

`

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long:  `Write the default configuration to ~/.topology/config.yaml, or to --path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := initPath
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("find home directory: %w", err)
			}
			path = filepath.Join(home, ".topology", "config.yaml")
		}

		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}

		body, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		if err := os.WriteFile(path, append([]byte(configHeader), body...), 0600); err != nil {
			return fmt.Errorf("write config: %w", err)
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created default configuration: %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&initPath, "path", "", "where to write the file (default: $HOME/.topology/config.yaml)")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
