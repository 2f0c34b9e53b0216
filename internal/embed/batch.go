package embed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/topology/internal/model"
	"github.com/ppiankov/topology/internal/textclean"
	"github.com/ppiankov/topology/internal/worker"
)

// Item is one text to embed, tagged with its entity key
type Item = worker.Item

// Batcher embeds batches of texts concurrently and returns vectors in input
// order, substituting a flagged zero vector for every item that fails.
type Batcher struct {
	provider    Provider
	processor   *worker.BatchProcessor
	dimensions  int
	maxChars    int
	stripMarkup bool
}

// NewBatcher creates a Batcher for provider using the worker, rate and text
// settings in cfg
func NewBatcher(provider Provider, cfg model.EmbeddingConfig) *Batcher {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = provider.Name()
	}
	limiter := worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)

	return &Batcher{
		provider:    provider,
		processor:   worker.NewBatchProcessor(provider, cfg.Workers, limiter, endpoint),
		dimensions:  cfg.Dimensions,
		maxChars:    cfg.MaxChars,
		stripMarkup: cfg.StripMarkup,
	}
}

// Prepare applies markup stripping and the character budget to text
func (b *Batcher) Prepare(text string) string {
	if b.stripMarkup {
		text = textclean.Strip(text)
	}
	return Truncate(text, b.maxChars)
}

// EmbedAll returns one embedding per item, in item order. The vector
// dimension is the configured one, or else that of the first item to
// succeed; results of any other size count as failures. Failed items get
// the zero vector with Degraded set. An error is returned when no item
// succeeds or when ctx is done, since unfinished items are not failures.
func (b *Batcher) EmbedAll(ctx context.Context, items []Item) ([]model.Embedding, error) {
	if len(items) == 0 {
		return []model.Embedding{}, nil
	}

	prepared := make([]Item, len(items))
	for i, it := range items {
		prepared[i] = Item{Key: it.Key, Text: b.Prepare(it.Text)}
	}

	start := time.Now()
	results := b.processor.ProcessItems(ctx, prepared)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	dim := b.dimensions
	if dim <= 0 {
		for _, r := range results {
			if r.Error == nil && len(r.Vector) > 0 {
				dim = len(r.Vector)
				break
			}
		}
	}

	out := make([]model.Embedding, len(results))
	failed := 0
	for i, r := range results {
		err := r.Error
		if err == nil && len(r.Vector) != dim {
			err = fmt.Errorf("unexpected embedding dimension %d, want %d", len(r.Vector), dim)
		}
		if err == nil {
			out[i] = model.Embedding{Key: r.Key, Vector: r.Vector}
			continue
		}

		failed++
		slog.Warn("embedding failed, using zero vector", "key", r.Key, "error", err)
		out[i] = model.Embedding{
			Key:      r.Key,
			Vector:   make([]float32, dim),
			Degraded: true,
			Err:      err.Error(),
		}
	}

	if failed == len(items) {
		return nil, fmt.Errorf("embed: all %d items failed, last: %s: %w", len(items), out[len(out)-1].Err, model.ErrEmbeddingFailed)
	}

	slog.Info("embedded batch",
		"items", len(items),
		"failed", failed,
		"dimensions", dim,
		"model", b.provider.Model(),
		"elapsed", time.Since(start),
	)
	return out, nil
}
