package model

import "time"

// Config is the complete topology configuration
type Config struct {
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Speakers  []string        `yaml:"speakers" mapstructure:"speakers"` // Speaker categories that always get a centroid
}

// EngineConfig holds every tunable of the assignment and projection engine.
// It is passed explicitly into each component.
type EngineConfig struct {
	SimilarityThreshold float64          `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	MaxRelatedClaims    int              `yaml:"max_related_claims" mapstructure:"max_related_claims"`
	Projection          ProjectionConfig `yaml:"projection" mapstructure:"projection"`
}

// AssignConfig is the part of EngineConfig used by the claim assigner
type AssignConfig struct {
	SimilarityThreshold float64
	MaxRelatedClaims    int
}

// Assign returns the assigner's view of the engine configuration
func (c EngineConfig) Assign() AssignConfig {
	return AssignConfig{
		SimilarityThreshold: c.SimilarityThreshold,
		MaxRelatedClaims:    c.MaxRelatedClaims,
	}
}

// ProjectionConfig configures the 3-D neighborhood-preserving projection
type ProjectionConfig struct {
	Neighbors int     `yaml:"neighbors" mapstructure:"neighbors"`     // Clamped to K-1 at run time
	MinDist   float64 `yaml:"min_dist" mapstructure:"min_dist"`       // Minimum separation of embedded points
	Spread    float64 `yaml:"spread" mapstructure:"spread"`           // Scale of embedded points
	Seed      int64   `yaml:"random_seed" mapstructure:"random_seed"` // Fixed for reproducible layouts
	Epochs    int     `yaml:"epochs" mapstructure:"epochs"`           // 0 picks a size-based default
}

// EmbeddingConfig configures the external embedding backend
type EmbeddingConfig struct {
	Provider          string        `yaml:"provider" mapstructure:"provider"` // openai, ollama
	Model             string        `yaml:"model" mapstructure:"model"`
	BaseURL           string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	APIKey            string        `yaml:"-" mapstructure:"api_key"`
	Dimensions        int           `yaml:"dimensions" mapstructure:"dimensions"` // 0 infers from the first successful call
	MaxChars          int           `yaml:"max_chars" mapstructure:"max_chars"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Workers           int           `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	StripMarkup       bool          `yaml:"strip_markup" mapstructure:"strip_markup"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig configures the embedding cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// OutputConfig configures where and how results are written
type OutputConfig struct {
	Path         string `yaml:"path" mapstructure:"path"`
	FrontendPath string `yaml:"frontend_path,omitempty" mapstructure:"frontend_path"`
	Verbose      bool   `yaml:"verbose" mapstructure:"verbose"`
	LogFormat    string `yaml:"log_format" mapstructure:"log_format"` // text, json
}

// DefaultConfig returns the configuration used when nothing overrides it
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			SimilarityThreshold: 0.35,
			MaxRelatedClaims:    4,
			Projection: ProjectionConfig{
				Neighbors: 15,
				MinDist:   0.1,
				Spread:    1.0,
				Seed:      42,
			},
		},
		Embedding: EmbeddingConfig{
			Provider:          "ollama",
			Model:             "nomic-embed-text",
			BaseURL:           "http://localhost:11434",
			Dimensions:        768,
			MaxChars:          8000,
			Timeout:           60 * time.Second,
			Workers:           4,
			RequestsPerSecond: 20,
			Burst:             5,
			StripMarkup:       true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".topology-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		Output: OutputConfig{
			Path:      "landscape.json",
			LogFormat: "text",
		},
		Speakers: []string{"marcus", "demartini"},
	}
}
