package assign

import (
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/ppiankov/topology/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkBatch(vecs ...[]float32) ([]int, []model.Embedding) {
	ids := make([]int, len(vecs))
	out := make([]model.Embedding, len(vecs))
	for i, v := range vecs {
		ids[i] = i
		out[i] = model.Embedding{Key: model.ChunkKey(i), Vector: v}
	}
	return ids, out
}

func claimBatch(vecs ...[]float32) ([]model.Claim, []model.Embedding) {
	claims := make([]model.Claim, len(vecs))
	out := make([]model.Embedding, len(vecs))
	for j, v := range vecs {
		id := "claim_" + strconv.Itoa(j)
		claims[j] = model.Claim{ID: id, Text: "claim text " + id, Speaker: "marcus", Type: "ethical"}
		out[j] = model.Embedding{Key: model.ClaimKey(id), Vector: v}
	}
	return claims, out
}

// Five chunks against two claims in 4-D with threshold 0.3:
//
//	chunk  vector          sim(A)   sim(B)   primary  related
//	0      [1 0 0 0]       1        0        A        -
//	1      [0 1 0 0]       0        1        B        -
//	2      [1 1 0 0]       0.7071   0.7071   A (tie)  B
//	3      [3 1 0 0]       0.9487   0.3162   A        B
//	4      [.2 1 1 1]      0.1147   0.5735   B        - (A below t)
func TestAssign_HandComputedScenario(t *testing.T) {
	ids, chunks := chunkBatch(
		[]float32{1, 0, 0, 0},
		[]float32{0, 1, 0, 0},
		[]float32{1, 1, 0, 0},
		[]float32{3, 1, 0, 0},
		[]float32{0.2, 1, 1, 1},
	)
	claims, claimVecs := claimBatch(
		[]float32{1, 0, 0, 0},
		[]float32{0, 1, 0, 0},
	)

	a := New(model.AssignConfig{SimilarityThreshold: 0.3, MaxRelatedClaims: 4})
	got, err := a.Assign(ids, chunks, claimVecs, claims)
	require.NoError(t, err)
	require.Len(t, got, 5)

	want := []struct {
		primary string
		sim     float64
		related []model.RelatedClaim
	}{
		{"claim_0", 1, nil},
		{"claim_1", 1, nil},
		{"claim_0", 1 / math.Sqrt2, []model.RelatedClaim{{ClaimID: "claim_1", Similarity: 1 / math.Sqrt2}}},
		{"claim_0", 3 / math.Sqrt(10), []model.RelatedClaim{{ClaimID: "claim_1", Similarity: 1 / math.Sqrt(10)}}},
		{"claim_1", 1 / math.Sqrt(3.04), nil},
	}

	for i, w := range want {
		assert.Equal(t, i, got[i].ChunkID)
		assert.Equal(t, w.primary, got[i].PrimaryClaim, "chunk %d primary", i)
		assert.InDelta(t, w.sim, got[i].Similarity, 1e-6, "chunk %d similarity", i)
		require.Len(t, got[i].RelatedClaims, len(w.related), "chunk %d related", i)
		for k, r := range w.related {
			assert.Equal(t, r.ClaimID, got[i].RelatedClaims[k].ClaimID)
			assert.InDelta(t, r.Similarity, got[i].RelatedClaims[k].Similarity, 1e-6)
		}
		assert.NotNil(t, got[i].RelatedClaims, "related list must encode as []")
		assert.False(t, got[i].Degraded)
	}
}

func TestAssign_PrimaryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	randVec := func() []float32 {
		v := make([]float32, 8)
		for i := range v {
			v[i] = float32(rng.NormFloat64())
		}
		return v
	}

	var chunkVecs, claimVecs [][]float32
	for i := 0; i < 40; i++ {
		chunkVecs = append(chunkVecs, randVec())
	}
	for j := 0; j < 7; j++ {
		claimVecs = append(claimVecs, randVec())
	}
	// An exact duplicate claim forces ties on every chunk.
	claimVecs = append(claimVecs, claimVecs[2])

	ids, chunks := chunkBatch(chunkVecs...)
	claims, claimEmb := claimBatch(claimVecs...)

	got, err := New(model.AssignConfig{SimilarityThreshold: 0.1, MaxRelatedClaims: 4}).Assign(ids, chunks, claimEmb, claims)
	require.NoError(t, err)

	for i, c := range chunkVecs {
		best, bestSim := -1, math.Inf(-1)
		for j, cl := range claimVecs {
			sim := bruteCosine(c, cl)
			if sim > bestSim {
				best, bestSim = j, sim
			}
		}
		assert.Equal(t, claims[best].ID, got[i].PrimaryClaim, "chunk %d", i)
		assert.NotEqual(t, "claim_7", got[i].PrimaryClaim, "duplicate claim must lose the tie")

		assert.LessOrEqual(t, len(got[i].RelatedClaims), 4)
		prev := got[i].Similarity
		for _, r := range got[i].RelatedClaims {
			assert.NotEqual(t, got[i].PrimaryClaim, r.ClaimID)
			assert.GreaterOrEqual(t, r.Similarity, 0.1)
			assert.LessOrEqual(t, r.Similarity, prev)
			prev = r.Similarity
		}
	}
}

func TestAssign_RelatedWindowIsBounded(t *testing.T) {
	// Chunk along e0; claims close to e0 with decreasing similarity, all above t.
	ids, chunks := chunkBatch([]float32{1, 0, 0})
	claims, claimVecs := claimBatch(
		[]float32{1, 0, 0},
		[]float32{1, 0.1, 0},
		[]float32{1, 0.2, 0},
		[]float32{1, 0.3, 0},
		[]float32{1, 0.4, 0},
		[]float32{1, 0.5, 0},
	)

	got, err := New(model.AssignConfig{SimilarityThreshold: 0.3, MaxRelatedClaims: 4}).Assign(ids, chunks, claimVecs, claims)
	require.NoError(t, err)
	require.Len(t, got[0].RelatedClaims, 4)
	assert.Equal(t, "claim_1", got[0].RelatedClaims[0].ClaimID)
	assert.Equal(t, "claim_4", got[0].RelatedClaims[3].ClaimID)

	got, err = New(model.AssignConfig{SimilarityThreshold: 0.3, MaxRelatedClaims: 2}).Assign(ids, chunks, claimVecs, claims)
	require.NoError(t, err)
	assert.Len(t, got[0].RelatedClaims, 2)
}

func TestAssign_WindowIsNotRefilledBelowThreshold(t *testing.T) {
	// Ranks 1..2 are inside a window of 2 but rank 2 misses the threshold,
	// and rank 3 is outside the window.
	ids, chunks := chunkBatch([]float32{1, 0})
	claims, claimVecs := claimBatch(
		[]float32{1, 0},
		[]float32{1, 1},  // 0.7071
		[]float32{1, 4},  // 0.2425
		[]float32{-1, 1}, // -0.7071
	)
	got, err := New(model.AssignConfig{SimilarityThreshold: 0.3, MaxRelatedClaims: 2}).Assign(ids, chunks, claimVecs, claims)
	require.NoError(t, err)
	require.Len(t, got[0].RelatedClaims, 1)
	assert.Equal(t, "claim_1", got[0].RelatedClaims[0].ClaimID)
}

func TestAssign_SingleClaimHasNoRelated(t *testing.T) {
	ids, chunks := chunkBatch([]float32{1, 2}, []float32{2, 1})
	claims, claimVecs := claimBatch([]float32{1, 1})

	got, err := New(model.AssignConfig{SimilarityThreshold: 0, MaxRelatedClaims: 4}).Assign(ids, chunks, claimVecs, claims)
	require.NoError(t, err)
	for _, a := range got {
		assert.Equal(t, "claim_0", a.PrimaryClaim)
		assert.Empty(t, a.RelatedClaims)
	}
}

func TestAssign_ZeroChunkVectorStillAssigned(t *testing.T) {
	ids, chunks := chunkBatch([]float32{0, 0, 0}, []float32{0, 1, 0})
	chunks[0].Degraded = true
	claims, claimVecs := claimBatch([]float32{1, 0, 0}, []float32{0, 1, 0})

	got, err := New(model.AssignConfig{SimilarityThreshold: 0.3, MaxRelatedClaims: 4}).Assign(ids, chunks, claimVecs, claims)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "claim_0", got[0].PrimaryClaim, "all-degenerate scores tie, lowest index wins")
	assert.Equal(t, -1.0, got[0].Similarity)
	assert.Empty(t, got[0].RelatedClaims)
	assert.True(t, got[0].Degraded)

	assert.Equal(t, "claim_1", got[1].PrimaryClaim)
	assert.False(t, got[1].Degraded)
}

func TestAssign_ZeroClaimVectorRanksLast(t *testing.T) {
	ids, chunks := chunkBatch([]float32{-1, 0})
	claims, claimVecs := claimBatch([]float32{0, 0}, []float32{1, 0.01})

	got, err := New(model.AssignConfig{SimilarityThreshold: 0.3, MaxRelatedClaims: 4}).Assign(ids, chunks, claimVecs, claims)
	require.NoError(t, err)
	assert.Equal(t, "claim_1", got[0].PrimaryClaim)
	assert.False(t, got[0].Degraded, "a zero claim that is not the primary does not degrade the chunk")
}

func TestAssign_ZeroClaimLosesToExactOpposite(t *testing.T) {
	ids, chunks := chunkBatch([]float32{-1, 0})
	claims, claimVecs := claimBatch([]float32{0, 0}, []float32{1, 0})

	got, err := New(model.AssignConfig{SimilarityThreshold: -1, MaxRelatedClaims: 4}).Assign(ids, chunks, claimVecs, claims)
	require.NoError(t, err)
	assert.Equal(t, "claim_1", got[0].PrimaryClaim)
	assert.Equal(t, -1.0, got[0].Similarity)
	assert.False(t, got[0].Degraded)
	assert.Empty(t, got[0].RelatedClaims, "degenerate claims never appear as related")
}

func TestAssign_DegenerateOnlyClaimsDegradeThePrimary(t *testing.T) {
	ids, chunks := chunkBatch([]float32{1, 0})
	claims, claimVecs := claimBatch([]float32{0, 0}, []float32{0, 0})

	got, err := New(model.AssignConfig{SimilarityThreshold: 0.3, MaxRelatedClaims: 4}).Assign(ids, chunks, claimVecs, claims)
	require.NoError(t, err)
	assert.Equal(t, "claim_0", got[0].PrimaryClaim)
	assert.True(t, got[0].Degraded)
}

func TestRank_DegenerateSortsLast(t *testing.T) {
	_, claimVecs := claimBatch([]float32{0, 0}, []float32{1, 0}, []float32{0, 1})

	ranked, err := Rank([]float32{-1, 0}, claimVecs)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, []int{2, 1, 0}, []int{ranked[0].Index, ranked[1].Index, ranked[2].Index})
	assert.True(t, ranked[2].Degenerate)
	assert.Equal(t, -1.0, ranked[2].Similarity)
	assert.False(t, ranked[1].Degenerate)
}

func TestNew_RelatedWindowSetting(t *testing.T) {
	ids, chunks := chunkBatch([]float32{1, 0, 0})
	claims, claimVecs := claimBatch(
		[]float32{1, 0, 0},
		[]float32{1, 0.1, 0},
		[]float32{1, 0.2, 0},
		[]float32{1, 0.3, 0},
		[]float32{1, 0.4, 0},
		[]float32{1, 0.5, 0},
	)

	got, err := New(model.AssignConfig{SimilarityThreshold: 0.3, MaxRelatedClaims: 0}).Assign(ids, chunks, claimVecs, claims)
	require.NoError(t, err)
	assert.Empty(t, got[0].RelatedClaims, "zero disables related claims")
	assert.NotNil(t, got[0].RelatedClaims)

	got, err = New(model.AssignConfig{SimilarityThreshold: 0.3, MaxRelatedClaims: -1}).Assign(ids, chunks, claimVecs, claims)
	require.NoError(t, err)
	assert.Len(t, got[0].RelatedClaims, DefaultMaxRelated)
}

func TestAssign_ShapeErrors(t *testing.T) {
	a := New(model.AssignConfig{SimilarityThreshold: 0.3, MaxRelatedClaims: 4})

	ids, chunks := chunkBatch([]float32{1, 0, 0})
	claims, claimVecs := claimBatch([]float32{1, 0})
	_, err := a.Assign(ids, chunks, claimVecs, claims)
	assert.ErrorIs(t, err, model.ErrInputShape)

	_, err = a.Assign(ids, chunks, nil, nil)
	assert.ErrorIs(t, err, model.ErrInputShape)

	claims, claimVecs = claimBatch([]float32{1, 0, 0})
	claimVecs[0].Key = "claim:other"
	_, err = a.Assign(ids, chunks, claimVecs, claims)
	assert.ErrorIs(t, err, model.ErrInputShape)
}

func TestAssign_NoChunks(t *testing.T) {
	claims, claimVecs := claimBatch([]float32{1, 0})
	got, err := New(model.AssignConfig{}).Assign(nil, nil, claimVecs, claims)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func bruteCosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
