package model

import "encoding/json"

// Chunk is a bounded span of transcript text produced by the segmentation stage
type Chunk struct {
	ID             int      `json:"id"`
	Text           string   `json:"text"`
	PrimarySpeaker string   `json:"primary_speaker"`
	Speakers       []string `json:"speakers"`
	StartTime      float64  `json:"start_time"`
	Duration       float64  `json:"duration"`
	TokenEstimate  int      `json:"token_estimate"`
	TimeLabel      string   `json:"time_label"`
	TimeRange      string   `json:"time_range"`
}

// ChunkSet is the chunk file as produced by the segmentation stage.
// Metadata sections are passed through to the landscape untouched.
type ChunkSet struct {
	Metadata ChunkSetMetadata `json:"metadata"`
	Chunks   []Chunk          `json:"chunks"`
}

// ChunkSetMetadata holds the upstream chunking parameters and statistics
type ChunkSetMetadata struct {
	ChunkingParams json.RawMessage `json:"chunking_params,omitempty"`
	Statistics     json.RawMessage `json:"statistics,omitempty"`
}
