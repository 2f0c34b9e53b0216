// Package pipeline runs the stages that turn chunk and claim sets into a
// semantic landscape.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ppiankov/topology/internal/assign"
	"github.com/ppiankov/topology/internal/cluster"
	"github.com/ppiankov/topology/internal/embed"
	"github.com/ppiankov/topology/internal/landscape"
	"github.com/ppiankov/topology/internal/model"
	"github.com/ppiankov/topology/internal/project"
)

// Pipeline orchestrates a complete build
type Pipeline struct {
	provider  embed.Provider
	batcher   *embed.Batcher
	assigner  *assign.Assigner
	projector *project.Projector
	renderer  *Renderer
	config    *model.Config
}

// NewPipeline creates a pipeline that embeds through provider. Summaries
// are printed to out.
func NewPipeline(cfg *model.Config, provider embed.Provider, out io.Writer) *Pipeline {
	return &Pipeline{
		provider:  provider,
		batcher:   embed.NewBatcher(provider, cfg.Embedding),
		assigner:  assign.New(cfg.Engine.Assign()),
		projector: project.New(cfg.Engine.Projection),
		renderer:  NewRenderer(out),
		config:    cfg,
	}
}

// Build embeds chunks and claims, assigns every chunk to its closest claim,
// projects both sets into one normalized frame and assembles the landscape.
func (p *Pipeline) Build(ctx context.Context, chunks *model.ChunkSet, claims *model.ClaimSet) (*model.Landscape, error) {
	// 1. Embed chunks and claims in one batch so they share a dimension
	items := make([]embed.Item, 0, len(chunks.Chunks)+len(claims.Claims))
	chunkIDs := make([]int, len(chunks.Chunks))
	for i, c := range chunks.Chunks {
		chunkIDs[i] = c.ID
		items = append(items, embed.Item{Key: model.ChunkKey(c.ID), Text: c.Text})
	}
	for _, c := range claims.Claims {
		items = append(items, embed.Item{Key: model.ClaimKey(c.ID), Text: c.Text})
	}

	stage := time.Now()
	vecs, err := p.batcher.EmbedAll(ctx, items)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chunkVecs, claimVecs := vecs[:len(chunks.Chunks)], vecs[len(chunks.Chunks):]
	slog.Info("stage complete", "stage", "embed", "elapsed", time.Since(stage))

	// 2. Assign chunks to claims
	stage = time.Now()
	assignments, err := p.assigner.Assign(chunkIDs, chunkVecs, claimVecs, claims.Claims)
	if err != nil {
		return nil, fmt.Errorf("assign: %w", err)
	}

	// 3. Build claim-based clusters
	clusters := cluster.Build(assignments, claims.Claims)
	slog.Info("stage complete", "stage", "assign", "clusters", len(clusters), "elapsed", time.Since(stage))

	// 4. Project chunks and claims into one frame, normalized together
	stage = time.Now()
	sets, err := p.projector.ProjectJoint(chunkVecs, claimVecs)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	joint := make([]model.Coord, 0, len(sets[0])+len(sets[1]))
	joint = append(append(joint, sets[0]...), sets[1]...)
	normalized := project.Normalize(joint)
	chunkCoords, claimCoords := normalized[:len(chunkVecs)], normalized[len(chunkVecs):]
	slog.Info("stage complete", "stage", "project", "points", len(normalized), "elapsed", time.Since(stage))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 5. Assemble
	degraded, warnings := degradedKeys(vecs)
	for _, a := range assignments {
		if a.Degraded && !degraded[model.ChunkKey(a.ChunkID)] {
			warnings = append(warnings, fmt.Sprintf("%s assigned to claim %s, which has no embedding", model.ChunkKey(a.ChunkID), a.PrimaryClaim))
		}
	}

	return landscape.Assemble(landscape.Input{
		Chunks:         chunks.Chunks,
		Claims:         claims.Claims,
		Assignments:    assignments,
		Clusters:       clusters,
		ChunkCoords:    chunkCoords,
		ClaimCoords:    claimCoords,
		Degraded:       degraded,
		Speakers:       p.config.Speakers,
		Params:         p.umapParams(),
		EmbeddingModel: p.provider.Model(),
		Source:         chunks.Metadata,
		Warnings:       warnings,
		CreatedAt:      time.Now().UTC(),
	})
}

// Layout embeds and projects the chunks alone. Its frame is unrelated to
// any landscape built by Build.
func (p *Pipeline) Layout(ctx context.Context, chunks *model.ChunkSet) (*model.Layout, error) {
	items := make([]embed.Item, len(chunks.Chunks))
	for i, c := range chunks.Chunks {
		items[i] = embed.Item{Key: model.ChunkKey(c.ID), Text: c.Text}
	}

	vecs, err := p.batcher.EmbedAll(ctx, items)
	if err != nil {
		return nil, err
	}

	stage := time.Now()
	coords, err := p.projector.Project(vecs)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	coords = project.Normalize(coords)
	slog.Info("stage complete", "stage", "project", "points", len(coords), "elapsed", time.Since(stage))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	degraded, warnings := degradedKeys(vecs)
	return landscape.AssembleLayout(landscape.LayoutInput{
		Chunks:         chunks.Chunks,
		Coords:         coords,
		Degraded:       degraded,
		Speakers:       p.config.Speakers,
		Params:         p.umapParams(),
		EmbeddingModel: p.provider.Model(),
		Warnings:       warnings,
		CreatedAt:      time.Now().UTC(),
	})
}

// RenderLandscape writes the landscape to jsonPath (indented) and, when set,
// a compact copy to frontendPath, then prints the summary
func (p *Pipeline) RenderLandscape(l *model.Landscape, jsonPath, frontendPath string) error {
	if err := p.renderer.RenderJSON(l, jsonPath, true); err != nil {
		return fmt.Errorf("render JSON: %w", err)
	}
	slog.Info("wrote landscape", "path", jsonPath)

	if frontendPath != "" {
		if err := p.renderer.RenderJSON(l, frontendPath, false); err != nil {
			return fmt.Errorf("render frontend JSON: %w", err)
		}
		slog.Info("wrote landscape", "path", frontendPath)
	}

	p.renderer.RenderSummary(l)
	return nil
}

// RenderLayout writes the chunks-only layout and prints its summary
func (p *Pipeline) RenderLayout(l *model.Layout, jsonPath string) error {
	if err := p.renderer.RenderJSON(l, jsonPath, true); err != nil {
		return fmt.Errorf("render JSON: %w", err)
	}
	slog.Info("wrote layout", "path", jsonPath)

	p.renderer.RenderLayoutSummary(l)
	return nil
}

func (p *Pipeline) umapParams() model.UMAPParams {
	cfg := p.projector.Config()
	return model.UMAPParams{
		NNeighbors:  cfg.Neighbors,
		MinDist:     cfg.MinDist,
		RandomState: cfg.Seed,
	}
}

// degradedKeys collects the entities whose embedding fell back to the zero
// vector, with one warning line each
func degradedKeys(vecs []model.Embedding) (map[string]bool, []string) {
	degraded := make(map[string]bool)
	var warnings []string
	for _, v := range vecs {
		if v.Degraded {
			degraded[v.Key] = true
			warnings = append(warnings, fmt.Sprintf("%s embedding failed: %s", v.Key, v.Err))
		}
	}
	return degraded, warnings
}
