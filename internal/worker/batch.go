package worker

import (
	"context"
	"fmt"
	"log/slog"
)

// progressEvery is how often the batch processor logs progress
const progressEvery = 10

// Embedder computes the embedding of one text
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Item is one text to embed, tagged with the key of its entity
type Item struct {
	Key  string
	Text string
}

// EmbedResult is the outcome for one item. Exactly one of Vector and Error
// is set.
type EmbedResult struct {
	Key    string
	Vector []float32
	Error  error
}

// BatchProcessor embeds many items concurrently
type BatchProcessor struct {
	embedder Embedder
	pool     *Pool[*EmbedResult]
	limiter  *Limiter
	endpoint string
}

// NewBatchProcessor creates a new batch processor. Requests are paced by
// limiter against endpoint; a nil limiter disables pacing.
func NewBatchProcessor(embedder Embedder, concurrency int, limiter *Limiter, endpoint string) *BatchProcessor {
	pool := NewPool[*EmbedResult](concurrency).OnProgress(progressEvery, func(done, total int) {
		slog.Info("embedding", "done", done, "total", total)
	})
	return &BatchProcessor{
		embedder: embedder,
		pool:     pool,
		limiter:  limiter,
		endpoint: endpoint,
	}
}

// ProcessItems embeds every item and returns one result per item in input
// order. Failures are reported per result, never for the whole batch.
func (b *BatchProcessor) ProcessItems(ctx context.Context, items []Item) []*EmbedResult {
	out := b.pool.Run(ctx, len(items), func(ctx context.Context, i int) *EmbedResult {
		return b.embed(ctx, items[i])
	})

	// Items never run because ctx ended
	for i, r := range out {
		if r != nil {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out[i] = &EmbedResult{Key: items[i].Key, Error: err}
	}
	return out
}

func (b *BatchProcessor) embed(ctx context.Context, item Item) *EmbedResult {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx, b.endpoint); err != nil {
			return &EmbedResult{Key: item.Key, Error: fmt.Errorf("rate limit: %w", err)}
		}
	}

	vec, err := b.embedder.Embed(ctx, item.Text)
	if err != nil {
		return &EmbedResult{Key: item.Key, Error: err}
	}
	return &EmbedResult{Key: item.Key, Vector: vec}
}
