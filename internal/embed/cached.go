package embed

import (
	"context"
	"log/slog"

	"github.com/ppiankov/topology/internal/cache"
)

// CachedProvider serves repeated texts from a cache instead of the backend
type CachedProvider struct {
	Provider
	cache cache.Cache
}

// NewCachedProvider wraps p with c. A nil cache returns p unchanged.
func NewCachedProvider(p Provider, c cache.Cache) Provider {
	if c == nil {
		return p
	}
	return &CachedProvider{Provider: p, cache: c}
}

// Embed returns the cached vector for text, computing and storing it on a miss
func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key(p.Model(), text)

	if vec, ok := p.cache.Vector(key); ok {
		return vec, nil
	}

	vec, err := p.Provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Put(key, vec); err != nil {
		slog.Warn("caching embedding failed", "error", err)
	}
	return vec, nil
}
