package cluster

import (
	"strings"
	"testing"

	"github.com/ppiankov/topology/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClaims() []model.Claim {
	return []model.Claim{
		{ID: "a", Text: "short claim", Speaker: "marcus", Type: "ethical"},
		{ID: "b", Text: strings.Repeat("x", 120), Speaker: "demartini", Type: "ontological", RelatedConcepts: []string{"balance"}},
		{ID: "c", Text: "never discussed", Speaker: "marcus", Type: "epistemological"},
		{ID: "d", Text: "tied with a", Speaker: "demartini", Type: "methodological"},
	}
}

func assigned(chunkID int, claim string, sim float64) model.Assignment {
	return model.Assignment{ChunkID: chunkID, PrimaryClaim: claim, Similarity: sim, RelatedClaims: []model.RelatedClaim{}}
}

func TestBuild_GroupsAndStats(t *testing.T) {
	assignments := []model.Assignment{
		assigned(0, "b", 0.5),
		assigned(1, "a", 0.9),
		assigned(2, "b", 0.7),
		assigned(3, "d", 0.4),
		assigned(4, "b", 0.6),
	}

	clusters := Build(assignments, testClaims())
	require.Len(t, clusters, 3)

	// b has 3 members; a and d tie at 1 and keep claim-set order.
	assert.Equal(t, "b", clusters[0].ID)
	assert.Equal(t, "a", clusters[1].ID)
	assert.Equal(t, "d", clusters[2].ID)

	b := clusters[0]
	assert.Equal(t, []int{0, 2, 4}, b.ChunkIDs)
	assert.Equal(t, 3, b.ChunkCount)
	assert.InDelta(t, 0.6, b.AvgSimilarity, 1e-12)
	assert.Equal(t, strings.Repeat("x", 80)+"...", b.Label)
	assert.Equal(t, strings.Repeat("x", 120), b.FullClaim)
	assert.Equal(t, "demartini", b.Speaker)
	assert.Equal(t, "ontological", b.ClaimType)
	assert.Equal(t, []string{"balance"}, b.RelatedConcepts)

	assert.Equal(t, "short claim", clusters[1].Label)
	assert.NotNil(t, clusters[1].RelatedConcepts)
}

func TestBuild_Invariants(t *testing.T) {
	claims := testClaims()
	var assignments []model.Assignment
	for i := 0; i < 23; i++ {
		assignments = append(assignments, assigned(i, claims[(i*7)%3].ID, 0.5))
	}

	clusters := Build(assignments, claims)
	assert.LessOrEqual(t, len(clusters), len(claims))

	total := 0
	for i, c := range clusters {
		assert.Positive(t, c.ChunkCount)
		assert.Len(t, c.ChunkIDs, c.ChunkCount)
		total += c.ChunkCount
		if i > 0 {
			assert.GreaterOrEqual(t, clusters[i-1].ChunkCount, c.ChunkCount)
		}
	}
	assert.Equal(t, len(assignments), total)
}

func TestBuild_UnassignedClaimIsAbsent(t *testing.T) {
	clusters := Build([]model.Assignment{assigned(0, "a", 1)}, testClaims())
	counts := Counts(clusters)
	_, ok := counts["c"]
	assert.False(t, ok)
	assert.Equal(t, 1, counts["a"])
}

func TestBuild_Empty(t *testing.T) {
	clusters := Build(nil, testClaims())
	assert.NotNil(t, clusters)
	assert.Empty(t, clusters)
}
