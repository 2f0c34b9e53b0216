package model

import (
	"encoding/json"
	"time"
)

// Landscape is the claim-anchored semantic map consumed by the front end.
// Field names and nesting are load-bearing.
type Landscape struct {
	Metadata         Metadata              `json:"metadata"`
	Points           []Point               `json:"points"`
	Clusters         []Cluster             `json:"clusters"`
	ClaimLandmarks   []Landmark            `json:"claim_landmarks"`
	SpeakerCentroids map[string][3]float64 `json:"speaker_centroids"`
}

// Metadata describes how the landscape was produced
type Metadata struct {
	Version        string          `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	NumPoints      int             `json:"num_points"`
	NumClusters    int             `json:"num_clusters"`
	NumClaims      int             `json:"num_claims"`
	UMAPParams     UMAPParams      `json:"umap_params"`
	EmbeddingModel string          `json:"embedding_model"`
	Chunking       json.RawMessage `json:"chunking,omitempty"`
	Statistics     json.RawMessage `json:"statistics,omitempty"`
	Warnings       []string        `json:"warnings,omitempty"` // Fallback events, one line each
}

// UMAPParams records the projection parameters
type UMAPParams struct {
	NNeighbors  int     `json:"n_neighbors"`
	MinDist     float64 `json:"min_dist"`
	RandomState int64   `json:"random_state"`
}

// Point is a projected chunk with its display payload
type Point struct {
	ID                int            `json:"id"`
	X                 float64        `json:"x"`
	Y                 float64        `json:"y"`
	Z                 float64        `json:"z"`
	Speaker           string         `json:"speaker"`
	Speakers          []string       `json:"speakers"`
	Text              string         `json:"text"`
	FullText          string         `json:"full_text"`
	Time              float64        `json:"time"`
	TimeLabel         string         `json:"time_label"`
	TimeRange         string         `json:"time_range"`
	Duration          float64        `json:"duration"`
	Tokens            int            `json:"tokens"`
	ClusterID         string         `json:"cluster_id"`
	ClusterSimilarity float64        `json:"cluster_similarity"`
	RelatedClaims     []RelatedClaim `json:"related_claims"`
	Degraded          bool           `json:"degraded,omitempty"` // Own or primary claim embedding fell back to the zero vector
}

// Landmark is a projected claim
type Landmark struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	ChunkCount int     `json:"chunk_count"`
	Degraded   bool    `json:"degraded,omitempty"` // Embedding fell back to the zero vector
}

// Pos returns the landmark coordinate
func (l Landmark) Pos() [3]float64 {
	return [3]float64{l.X, l.Y, l.Z}
}

// Layout is the chunks-only map produced by an independent projection
type Layout struct {
	Metadata     LayoutMetadata          `json:"metadata"`
	Points       []LayoutPoint           `json:"points"`
	Clusters     []SpeakerCluster        `json:"clusters"`
	Trajectories map[string][][3]float64 `json:"trajectories"`
}

// LayoutMetadata describes a chunks-only layout
type LayoutMetadata struct {
	CreatedAt      time.Time  `json:"created_at"`
	NumPoints      int        `json:"num_points"`
	UMAPParams     UMAPParams `json:"umap_params"`
	EmbeddingModel string     `json:"embedding_model"`
	Dimensions     int        `json:"dimensions"`
	Warnings       []string   `json:"warnings,omitempty"`
}

// LayoutPoint is a projected chunk without cluster assignment
type LayoutPoint struct {
	ID        int     `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Speaker   string  `json:"speaker"`
	Text      string  `json:"text"`
	FullText  string  `json:"full_text"`
	Time      float64 `json:"time"`
	TimeLabel string  `json:"time_label"`
	Tokens    int     `json:"tokens"`
	Degraded  bool    `json:"degraded,omitempty"`
}

// SpeakerCluster groups a layout's points by speaker
type SpeakerCluster struct {
	ID       int        `json:"id"`
	Label    string     `json:"label"`
	Centroid [3]float64 `json:"centroid"`
	Count    int        `json:"count"`
	Degraded bool       `json:"degraded,omitempty"`
}

// Truncate cuts s to max runes and appends "..." when it was longer
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
