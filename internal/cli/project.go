package cli

import (
	"fmt"

	"github.com/ppiankov/topology/internal/pipeline"
	"github.com/spf13/cobra"
)

// projectCmd represents the project command
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project chunks alone into a speaker-grouped 3-D layout",
	Long: `Project embeds the chunks and lays them out without any claims. The
result groups points by speaker and traces each speaker's path through the
dialogue. Its frame is unrelated to any landscape written by build.

Example:
  topology project --chunks data/chunks.json --out processed/layout.json`,
	Args: cobra.NoArgs,
	RunE: runProject,
}

var (
	projectChunks string
	projectOut    string
)

func init() {
	rootCmd.AddCommand(projectCmd)

	projectCmd.Flags().StringVar(&projectChunks, "chunks", "", "chunk set JSON (path or http(s) URL)")
	projectCmd.Flags().StringVar(&projectOut, "out", "layout.json", "output layout path")
	_ = projectCmd.MarkFlagRequired("chunks")

	addEngineFlags(projectCmd.Flags())
}

func runProject(cmd *cobra.Command, args []string) error {
	cfg, p, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := runContext(cmd)
	defer cancel()
	preflight(ctx, cfg)

	chunks, err := pipeline.NewLoader(cfg.Embedding.Timeout).LoadChunks(ctx, projectChunks)
	if err != nil {
		return err
	}

	layout, err := p.Layout(ctx, chunks)
	if err != nil {
		return fmt.Errorf("layout failed: %w", err)
	}

	if err := p.RenderLayout(layout, projectOut); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}
