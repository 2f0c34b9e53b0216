// Package cli wires the topology commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ppiankov/topology/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time with -ldflags "-X .../internal/cli.version=..."
var version = "v0.2.0"

var (
	cfgFile   string
	verbose   bool
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "topology",
	Short: "Topology - semantic landscape of a two-speaker dialogue",
	Long: `Topology embeds transcript chunks and extracted claims, assigns every
chunk to the claim it most resembles, and projects chunks and claims into
one shared 3-D frame for the landscape viewer.

The layout is a view of semantic similarity under one embedding model.
It does not say who is right.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd.ErrOrStderr())
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "topology %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.topology/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("output.log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and TOPOLOGY_* variables
func initConfig() {
	// A missing .env is normal
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".topology"))
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("TOPOLOGY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(model.DefaultConfig())

	// A missing config file leaves defaults and environment
	_ = viper.ReadInConfig()
}

// setDefaults registers every config key so that environment variables
// reach viper.Unmarshal
func setDefaults(cfg *model.Config) {
	viper.SetDefault("engine.similarity_threshold", cfg.Engine.SimilarityThreshold)
	viper.SetDefault("engine.max_related_claims", cfg.Engine.MaxRelatedClaims)
	viper.SetDefault("engine.projection.neighbors", cfg.Engine.Projection.Neighbors)
	viper.SetDefault("engine.projection.min_dist", cfg.Engine.Projection.MinDist)
	viper.SetDefault("engine.projection.spread", cfg.Engine.Projection.Spread)
	viper.SetDefault("engine.projection.random_seed", cfg.Engine.Projection.Seed)
	viper.SetDefault("engine.projection.epochs", cfg.Engine.Projection.Epochs)

	viper.SetDefault("embedding.provider", cfg.Embedding.Provider)
	viper.SetDefault("embedding.model", cfg.Embedding.Model)
	viper.SetDefault("embedding.base_url", cfg.Embedding.BaseURL)
	viper.SetDefault("embedding.api_key", cfg.Embedding.APIKey)
	viper.SetDefault("embedding.dimensions", cfg.Embedding.Dimensions)
	viper.SetDefault("embedding.max_chars", cfg.Embedding.MaxChars)
	viper.SetDefault("embedding.timeout", cfg.Embedding.Timeout)
	viper.SetDefault("embedding.workers", cfg.Embedding.Workers)
	viper.SetDefault("embedding.requests_per_second", cfg.Embedding.RequestsPerSecond)
	viper.SetDefault("embedding.burst", cfg.Embedding.Burst)
	viper.SetDefault("embedding.strip_markup", cfg.Embedding.StripMarkup)
	viper.SetDefault("embedding.http_proxy", cfg.Embedding.HTTPProxy)
	viper.SetDefault("embedding.https_proxy", cfg.Embedding.HTTPSProxy)

	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.dir", cfg.Cache.Dir)
	viper.SetDefault("cache.memory_ttl", cfg.Cache.MemoryTTL)
	viper.SetDefault("cache.disk_ttl", cfg.Cache.DiskTTL)

	viper.SetDefault("output.path", cfg.Output.Path)
	viper.SetDefault("output.frontend_path", cfg.Output.FrontendPath)
	viper.SetDefault("output.verbose", cfg.Output.Verbose)
	viper.SetDefault("output.log_format", cfg.Output.LogFormat)

	viper.SetDefault("speakers", cfg.Speakers)
}

// loadConfig resolves the configuration from defaults, config file and
// environment. Command flags are applied by the caller.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Embedding.APIKey == "" && strings.EqualFold(cfg.Embedding.Provider, "openai") {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, nil
}

// setupLogging installs the default slog handler on w
func setupLogging(w io.Writer) {
	level := slog.LevelInfo
	if viper.GetBool("output.verbose") {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(viper.GetString("output.log_format"), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))

	if path := viper.ConfigFileUsed(); path != "" {
		slog.Debug("using config file", "path", path)
	}
}
