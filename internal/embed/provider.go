// Package embed turns chunk and claim texts into vectors through an external
// embedding backend.
package embed

import (
	"context"
	"time"

	"github.com/ppiankov/topology/internal/model"
)

// Provider defines the interface for embedding backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Model returns the embedding model identifier
	Model() string

	// Embed returns the embedding of one text
	Embed(ctx context.Context, text string) ([]float32, error)

	// IsAvailable checks if the backend is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// Config holds embedding provider configuration
type Config struct {
	// Provider name: "openai", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for one embedding request
	Timeout time.Duration

	// Dimensions requested from backends that can shorten vectors. 0 keeps
	// the model's native size.
	Dimensions int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// ConfigFromModel converts model.EmbeddingConfig to embed.Config
func ConfigFromModel(c model.EmbeddingConfig) Config {
	return Config{
		Provider:   c.Provider,
		Model:      c.Model,
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		Timeout:    c.Timeout,
		Dimensions: c.Dimensions,
		HTTPProxy:  c.HTTPProxy,
		HTTPSProxy: c.HTTPSProxy,
	}
}

// Truncate cuts text to at most maxChars characters, the input budget of the
// embedding backend. A non-positive maxChars leaves text unchanged.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= maxChars {
		return text
	}
	return string(r[:maxChars])
}
