// Package assign ranks reference claims for every chunk and picks the
// primary claim plus a bounded window of related claims.
package assign

import (
	"errors"
	"sort"

	"github.com/ppiankov/topology/internal/model"
	"github.com/ppiankov/topology/internal/similarity"
)

// DefaultMaxRelated is the related-claims window used when the configured
// value is negative. Zero disables related claims.
const DefaultMaxRelated = 4

// claimTextLimit is the excerpt length kept on each assignment
const claimTextLimit = 100

// Score is one claim's similarity to a chunk
type Score struct {
	Index      int // Position in the claim set, the tie-break
	Similarity float64
	Degenerate bool // One of the pair has zero magnitude; ranks below every real cosine
}

// Assigner assigns chunks to claims by cosine similarity
type Assigner struct {
	threshold  float64
	maxRelated int
}

// New creates an Assigner from the engine configuration
func New(cfg model.AssignConfig) *Assigner {
	maxRelated := cfg.MaxRelatedClaims
	if maxRelated < 0 {
		maxRelated = DefaultMaxRelated
	}
	return &Assigner{
		threshold:  cfg.SimilarityThreshold,
		maxRelated: maxRelated,
	}
}

// Assign produces one assignment per chunk, in chunk order.
//
// Vectors are checked against their records by key: chunkVecs[i] must carry
// model.ChunkKey(chunkIDs[i]) and claimVecs[j] model.ClaimKey(claims[j].ID).
func (a *Assigner) Assign(chunkIDs []int, chunkVecs, claimVecs []model.Embedding, claims []model.Claim) ([]model.Assignment, error) {
	if len(chunkIDs) != len(chunkVecs) {
		return nil, model.ShapeErrorf("assign", "%d chunk ids for %d chunk vectors", len(chunkIDs), len(chunkVecs))
	}
	if len(claimVecs) == 0 {
		return nil, model.ShapeErrorf("assign", "no claim vectors")
	}
	if len(claimVecs) != len(claims) {
		return nil, model.ShapeErrorf("assign", "%d claim vectors for %d claims", len(claimVecs), len(claims))
	}
	for j, c := range claims {
		if claimVecs[j].Key != model.ClaimKey(c.ID) {
			return nil, model.ShapeErrorf("assign", "claim vector %d has key %q, want %q", j, claimVecs[j].Key, model.ClaimKey(c.ID))
		}
	}

	assignments := make([]model.Assignment, 0, len(chunkVecs))
	for i, chunk := range chunkVecs {
		if chunk.Key != model.ChunkKey(chunkIDs[i]) {
			return nil, model.ShapeErrorf("assign", "chunk vector %d has key %q, want %q", i, chunk.Key, model.ChunkKey(chunkIDs[i]))
		}

		ranked, err := Rank(chunk.Vector, claimVecs)
		if err != nil {
			return nil, err
		}

		primary := ranked[0]
		claim := claims[primary.Index]
		assignments = append(assignments, model.Assignment{
			ChunkID:          chunkIDs[i],
			PrimaryClaim:     claim.ID,
			PrimaryClaimText: model.Truncate(claim.Text, claimTextLimit),
			Similarity:       primary.Similarity,
			RelatedClaims:    a.related(ranked, claims),
			Degraded:         chunk.Degraded || primary.Degenerate,
		})
	}

	return assignments, nil
}

// related takes the ranks after the primary, up to maxRelated of them, and
// keeps those at or above the threshold. The window is fixed before the
// threshold filter, so a low score inside the window is not replaced by a
// later one.
func (a *Assigner) related(ranked []Score, claims []model.Claim) []model.RelatedClaim {
	end := 1 + a.maxRelated
	if end > len(ranked) {
		end = len(ranked)
	}

	out := make([]model.RelatedClaim, 0, end-1)
	for _, s := range ranked[1:end] {
		if !s.Degenerate && s.Similarity >= a.threshold {
			out = append(out, model.RelatedClaim{
				ClaimID:    claims[s.Index].ID,
				Similarity: s.Similarity,
			})
		}
	}
	return out
}

// Rank scores vec against every claim vector and returns the scores sorted
// by descending similarity, exact ties ordered by lowest claim index.
// Degenerate pairs report similarity.DegenerateScore but sort after every
// real score, including a real -1.
func Rank(vec []float32, claimVecs []model.Embedding) ([]Score, error) {
	ranked := make([]Score, len(claimVecs))
	for j, c := range claimVecs {
		sim, err := similarity.Cosine(vec, c.Vector)
		degenerate := false
		if err != nil {
			if !errors.Is(err, model.ErrDegenerateVector) {
				return nil, err
			}
			degenerate = true
		}
		ranked[j] = Score{Index: j, Similarity: sim, Degenerate: degenerate}
	}

	sort.SliceStable(ranked, func(x, y int) bool {
		if ranked[x].Degenerate != ranked[y].Degenerate {
			return !ranked[x].Degenerate
		}
		return ranked[x].Similarity > ranked[y].Similarity
	})
	return ranked, nil
}
