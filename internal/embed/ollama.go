package embed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	ollamaDefaultURL   = "http://localhost:11434"
	ollamaDefaultModel = "nomic-embed-text"
)

// OllamaProvider embeds through a local Ollama server
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = ollamaDefaultURL
	}
	model := config.Model
	if model == "" {
		model = ollamaDefaultModel
	}

	return &OllamaProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		httpClient: newHTTPClient(config, 60*time.Second), // first call loads the model
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Model returns the embedding model identifier
func (p *OllamaProvider) Model() string {
	return p.model
}

// IsAvailable reports whether the server answers and has the model pulled
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	var tags ollamaTagsResponse
	if err := doJSON(ctx, p.httpClient, http.MethodGet, p.baseURL+"/api/tags", nil, &tags); err != nil {
		slog.Warn("Ollama availability check failed", "url", p.baseURL, "error", err)
		return false
	}

	for _, m := range tags.Models {
		if m.Name == p.model || m.Name == p.model+":latest" {
			return true
		}
	}
	slog.Warn("Ollama model not pulled", "model", p.model, "hint", "ollama pull "+p.model)
	return false
}

// Embed returns the embedding of text from the local model
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp ollamaEmbedResponse
	req := ollamaEmbedRequest{Model: p.model, Prompt: text}
	if err := doJSON(ctx, p.httpClient, http.MethodPost, p.baseURL+"/api/embeddings", req, &resp); err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}

	vec := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
