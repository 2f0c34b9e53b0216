package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/ppiankov/topology/internal/cache"
	"github.com/ppiankov/topology/internal/embed"
	"github.com/ppiankov/topology/internal/model"
	"github.com/ppiankov/topology/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	chunksPath    string
	claimsPath    string
	frontendPath  string
	runTimeout    time.Duration
	threshold     float64
	maxRelated    int
	neighbors     int
	minDist       float64
	seed          int64
	epochs        int
	embedProvider string
	embedModel    string
	baseURL       string
	workers       int
	noCache       bool
	httpProxy     string
	httpsProxy    string
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the claim-anchored landscape from chunks and claims",
	Long: `Build embeds every chunk and claim, assigns each chunk to the claim it
most resembles, projects chunks and claims into one shared 3-D frame and
writes the landscape document.

Example:
  topology build --chunks data/chunks.json --claims data/claims.json
  topology build --chunks chunks.json --claims claims.yaml --out processed/landscape.json \
      --frontend-out web/public/landscape.json
  topology build --chunks chunks.json --claims claims.json --provider openai --model text-embedding-3-small`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&chunksPath, "chunks", "", "chunk set JSON (path or http(s) URL)")
	buildCmd.Flags().StringVar(&claimsPath, "claims", "", "claim set JSON or YAML (path or http(s) URL)")
	buildCmd.Flags().String("out", "", "output landscape path (default from config)")
	buildCmd.Flags().StringVar(&frontendPath, "frontend-out", "", "optional compact copy for the viewer")
	buildCmd.Flags().Float64Var(&threshold, "threshold", 0, "minimum similarity for related claims")
	buildCmd.Flags().IntVar(&maxRelated, "max-related", 0, "maximum related claims per chunk")
	_ = buildCmd.MarkFlagRequired("chunks")
	_ = buildCmd.MarkFlagRequired("claims")

	addEngineFlags(buildCmd.Flags())
}

// addEngineFlags registers the projection and embedding flags shared by
// build and project
func addEngineFlags(fs *pflag.FlagSet) {
	fs.DurationVar(&runTimeout, "timeout", 30*time.Minute, "overall run timeout")
	fs.IntVar(&neighbors, "neighbors", 0, "projection neighborhood size")
	fs.Float64Var(&minDist, "min-dist", 0, "projection minimum distance")
	fs.Int64Var(&seed, "seed", 0, "projection random seed")
	fs.IntVar(&epochs, "epochs", 0, "projection optimisation epochs (0 picks by size)")
	fs.StringVar(&embedProvider, "provider", "", "embedding provider (ollama, openai)")
	fs.StringVar(&embedModel, "model", "", "embedding model name")
	fs.StringVar(&baseURL, "base-url", "", "embedding backend base URL")
	fs.IntVar(&workers, "workers", 0, "concurrent embedding requests")
	fs.BoolVar(&noCache, "no-cache", false, "disable the embedding cache")
	fs.StringVar(&httpProxy, "http-proxy", "", "HTTP proxy for the embedding backend")
	fs.StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy for the embedding backend")
}

// applyFlags overlays the flags the user set on cfg
func applyFlags(fs *pflag.FlagSet, cfg *model.Config) {
	changed := fs.Changed
	if changed("out") {
		cfg.Output.Path, _ = fs.GetString("out")
	}
	if changed("frontend-out") {
		cfg.Output.FrontendPath = frontendPath
	}
	if changed("threshold") {
		cfg.Engine.SimilarityThreshold = threshold
	}
	if changed("max-related") {
		cfg.Engine.MaxRelatedClaims = maxRelated
	}
	if changed("neighbors") {
		cfg.Engine.Projection.Neighbors = neighbors
	}
	if changed("min-dist") {
		cfg.Engine.Projection.MinDist = minDist
	}
	if changed("seed") {
		cfg.Engine.Projection.Seed = seed
	}
	if changed("epochs") {
		cfg.Engine.Projection.Epochs = epochs
	}
	if changed("provider") {
		cfg.Embedding.Provider = embedProvider
	}
	if changed("model") {
		cfg.Embedding.Model = embedModel
	}
	if changed("base-url") {
		cfg.Embedding.BaseURL = baseURL
	}
	if changed("workers") {
		cfg.Embedding.Workers = workers
	}
	if changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if changed("http-proxy") {
		cfg.Embedding.HTTPProxy = httpProxy
	}
	if changed("https-proxy") {
		cfg.Embedding.HTTPSProxy = httpsProxy
	}
}

// setup resolves the configuration for cmd and creates the provider and
// pipeline it runs
func setup(cmd *cobra.Command) (*model.Config, *pipeline.Pipeline, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	applyFlags(cmd.Flags(), cfg)

	provider, err := embed.NewProvider(embed.ConfigFromModel(cfg.Embedding))
	if err != nil {
		return nil, nil, fmt.Errorf("create embedding provider: %w", err)
	}
	provider = embed.NewCachedProvider(provider, cache.FromConfig(cfg.Cache))

	return cfg, pipeline.NewPipeline(cfg, provider, cmd.OutOrStdout()), nil
}

// preflight warns early when the embedding backend cannot serve the model.
// The run still proceeds; items that fail fall back to zero vectors.
func preflight(ctx context.Context, cfg *model.Config) {
	provider, err := embed.NewProvider(embed.ConfigFromModel(cfg.Embedding))
	if err != nil {
		return
	}
	if !provider.IsAvailable(ctx) {
		slog.Warn("embedding backend not ready", "provider", provider.Name(), "model", provider.Model())
	}
}

// runContext bounds a run by the timeout flag and interrupts
func runContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, p, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := runContext(cmd)
	defer cancel()
	preflight(ctx, cfg)

	loader := pipeline.NewLoader(cfg.Embedding.Timeout)
	chunks, err := loader.LoadChunks(ctx, chunksPath)
	if err != nil {
		return err
	}
	claims, err := loader.LoadClaims(ctx, claimsPath)
	if err != nil {
		return err
	}

	landscape, err := p.Build(ctx, chunks, claims)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if err := p.RenderLandscape(landscape, cfg.Output.Path, cfg.Output.FrontendPath); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}
