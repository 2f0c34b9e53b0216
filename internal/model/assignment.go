package model

// Assignment binds one chunk to the claim it most resembles
type Assignment struct {
	ChunkID          int            `json:"chunk_id"`
	PrimaryClaim     string         `json:"primary_claim"`
	PrimaryClaimText string         `json:"primary_claim_text"`
	Similarity       float64        `json:"similarity"`
	RelatedClaims    []RelatedClaim `json:"related_claims"`
	Degraded         bool           `json:"degraded,omitempty"` // Scored against a zero vector somewhere
}

// RelatedClaim is a secondary claim above the similarity threshold
type RelatedClaim struct {
	ClaimID    string  `json:"claim_id"`
	Similarity float64 `json:"similarity"`
}

// Cluster is the set of chunks whose primary claim is the same
type Cluster struct {
	ID              string     `json:"id"`
	Label           string     `json:"label"`
	FullClaim       string     `json:"full_claim"`
	Speaker         string     `json:"speaker"`
	ClaimType       string     `json:"claim_type"`
	ChunkIDs        []int      `json:"chunk_ids"`
	ChunkCount      int        `json:"chunk_count"`
	AvgSimilarity   float64    `json:"avg_similarity"`
	RelatedConcepts []string   `json:"related_concepts"`
	Centroid        [3]float64 `json:"centroid"`

	// CentroidSource is empty when the centroid is the mean of member points,
	// otherwise "landmark" or "origin".
	CentroidSource string `json:"centroid_source,omitempty"`
}

// Centroid fallback sources
const (
	CentroidFromLandmark = "landmark"
	CentroidFromOrigin   = "origin"
)

// SpeakerCentroid is the mean position of one speaker's points
type SpeakerCentroid struct {
	Speaker  string
	Pos      [3]float64
	Count    int
	Degraded bool // No points: Pos is the zero-vector fallback
}
