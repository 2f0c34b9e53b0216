package landscape

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/topology/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func testInput() Input {
	chunks := []model.Chunk{
		{ID: 4, Text: strings.Repeat("a", 350), PrimarySpeaker: "marcus", Speakers: []string{"marcus"}, StartTime: 10, TimeLabel: "00:10", TimeRange: "00:10-00:40", Duration: 30, TokenEstimate: 80},
		{ID: 7, Text: "short", PrimarySpeaker: "demartini", StartTime: 40, TokenEstimate: 2},
		{ID: 9, Text: "third", PrimarySpeaker: "marcus", StartTime: 70},
	}
	claims := []model.Claim{
		{ID: "c1", Text: "claim one", Speaker: "marcus", Type: "ethical"},
		{ID: "c2", Text: "claim two", Speaker: "demartini", Type: "ontological"},
		{ID: "c3", Text: "never discussed", Speaker: "marcus", Type: "epistemological"},
	}
	assignments := []model.Assignment{
		{ChunkID: 4, PrimaryClaim: "c1", Similarity: 0.8, RelatedClaims: []model.RelatedClaim{{ClaimID: "c2", Similarity: 0.5}}},
		{ChunkID: 7, PrimaryClaim: "c2", Similarity: 0.6},
		{ChunkID: 9, PrimaryClaim: "c1", Similarity: 0.7, RelatedClaims: []model.RelatedClaim{}},
	}
	clusters := []model.Cluster{
		{ID: "c1", ChunkIDs: []int{4, 9}, ChunkCount: 2, RelatedConcepts: []string{}},
		{ID: "c2", ChunkIDs: []int{7}, ChunkCount: 1, RelatedConcepts: []string{}},
	}
	// coordinates deliberately out of chunk order
	chunkCoords := []model.Coord{
		{Key: model.ChunkKey(9), Pos: [3]float64{1, 1, 1}},
		{Key: model.ChunkKey(4), Pos: [3]float64{-1, 0, 0}},
		{Key: model.ChunkKey(7), Pos: [3]float64{0, 0.5, -0.5}},
	}
	claimCoords := []model.Coord{
		{Key: model.ClaimKey("c3"), Pos: [3]float64{0.9, 0.9, 0.9}},
		{Key: model.ClaimKey("c1"), Pos: [3]float64{0, 0.5, 0.5}},
		{Key: model.ClaimKey("c2"), Pos: [3]float64{0.1, 0.2, -0.4}},
	}
	return Input{
		Chunks:         chunks,
		Claims:         claims,
		Assignments:    assignments,
		Clusters:       clusters,
		ChunkCoords:    chunkCoords,
		ClaimCoords:    claimCoords,
		Speakers:       []string{"marcus", "demartini"},
		Params:         model.UMAPParams{NNeighbors: 15, MinDist: 0.1, RandomState: 42},
		EmbeddingModel: "nomic-embed-text",
		Source:         model.ChunkSetMetadata{ChunkingParams: json.RawMessage(`{"target_tokens":300}`)},
		CreatedAt:      fixed,
	}
}

func TestAssemble_Points(t *testing.T) {
	out, err := Assemble(testInput())
	require.NoError(t, err)
	require.Len(t, out.Points, 3)

	p := out.Points[0]
	assert.Equal(t, 4, p.ID)
	assert.Equal(t, [3]float64{-1, 0, 0}, [3]float64{p.X, p.Y, p.Z})
	assert.Equal(t, strings.Repeat("a", 300)+"...", p.Text)
	assert.Len(t, p.FullText, 350)
	assert.Equal(t, "c1", p.ClusterID)
	assert.Equal(t, 0.8, p.ClusterSimilarity)
	assert.Equal(t, "00:10-00:40", p.TimeRange)
	assert.Equal(t, 80, p.Tokens)

	assert.Equal(t, "short", out.Points[1].Text)
	assert.NotNil(t, out.Points[1].Speakers)
	assert.NotNil(t, out.Points[1].RelatedClaims)
}

func TestAssemble_UnassignedClaimIsLandmarkOnly(t *testing.T) {
	out, err := Assemble(testInput())
	require.NoError(t, err)

	require.Len(t, out.ClaimLandmarks, 3)
	assert.Equal(t, "c3", out.ClaimLandmarks[2].ID)
	assert.Equal(t, 0, out.ClaimLandmarks[2].ChunkCount)
	assert.Equal(t, [3]float64{0.9, 0.9, 0.9}, out.ClaimLandmarks[2].Pos())
	assert.Equal(t, 2, out.ClaimLandmarks[0].ChunkCount)

	for _, c := range out.Clusters {
		assert.NotEqual(t, "c3", c.ID)
	}
	assert.Equal(t, 2, out.Metadata.NumClusters)
	assert.Equal(t, 3, out.Metadata.NumClaims)
}

func TestAssemble_Centroids(t *testing.T) {
	out, err := Assemble(testInput())
	require.NoError(t, err)

	assert.Equal(t, [3]float64{0, 0.5, 0.5}, out.Clusters[0].Centroid)
	assert.Empty(t, out.Clusters[0].CentroidSource)
	assert.Equal(t, [3]float64{0, 0.5, -0.5}, out.Clusters[1].Centroid)

	assert.Equal(t, [3]float64{0, 0.5, 0.5}, out.SpeakerCentroids["marcus"])
	assert.Equal(t, [3]float64{0, 0.5, -0.5}, out.SpeakerCentroids["demartini"])
	assert.Empty(t, out.Metadata.Warnings)
}

func TestAssemble_LandmarkFallbackIsWarned(t *testing.T) {
	in := testInput()
	in.Clusters = append(in.Clusters, model.Cluster{ID: "c3", ChunkIDs: []int{99}, ChunkCount: 1})

	out, err := Assemble(in)
	require.NoError(t, err)
	assert.Equal(t, [3]float64{0.9, 0.9, 0.9}, out.Clusters[2].Centroid)
	assert.Equal(t, model.CentroidFromLandmark, out.Clusters[2].CentroidSource)
	assert.Contains(t, out.Metadata.Warnings, "cluster c3 centroid from landmark")
}

func TestAssemble_Metadata(t *testing.T) {
	in := testInput()
	in.Warnings = []string{"chunk:7 embedding failed"}
	in.Degraded = map[string]bool{model.ChunkKey(7): true, model.ClaimKey("c3"): true}

	out, err := Assemble(in)
	require.NoError(t, err)

	m := out.Metadata
	assert.Equal(t, Version, m.Version)
	assert.Equal(t, fixed, m.CreatedAt)
	assert.Equal(t, 3, m.NumPoints)
	assert.Equal(t, 15, m.UMAPParams.NNeighbors)
	assert.Equal(t, "nomic-embed-text", m.EmbeddingModel)
	assert.JSONEq(t, `{"target_tokens":300}`, string(m.Chunking))
	assert.Equal(t, []string{"chunk:7 embedding failed"}, m.Warnings)
	assert.True(t, out.Points[1].Degraded)
	assert.False(t, out.Points[0].Degraded)
	assert.False(t, out.Points[2].Degraded)
	assert.False(t, out.ClaimLandmarks[0].Degraded)
	assert.True(t, out.ClaimLandmarks[2].Degraded)
	assert.Equal(t, 2, out.ClaimLandmarks[0].ChunkCount)
}

func TestAssemble_MissingCoordinate(t *testing.T) {
	in := testInput()
	in.ChunkCoords = in.ChunkCoords[1:]

	_, err := Assemble(in)
	assert.ErrorIs(t, err, model.ErrInputShape)
}

func TestAssemble_MissingAssignment(t *testing.T) {
	in := testInput()
	in.Assignments = in.Assignments[:2]

	_, err := Assemble(in)
	assert.ErrorIs(t, err, model.ErrInputShape)
}

func TestAssemble_JSONShape(t *testing.T) {
	out, err := Assemble(testInput())
	require.NoError(t, err)

	raw, err := json.Marshal(out)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.ElementsMatch(t, []string{"metadata", "points", "clusters", "claim_landmarks", "speaker_centroids"}, keys(doc))

	var points []map[string]any
	require.NoError(t, json.Unmarshal(doc["points"], &points))
	assert.ElementsMatch(t, []string{
		"id", "x", "y", "z", "speaker", "speakers", "text", "full_text", "time", "time_label",
		"time_range", "duration", "tokens", "cluster_id", "cluster_similarity", "related_claims",
	}, mapKeys(points[0]))

	var clusters []map[string]any
	require.NoError(t, json.Unmarshal(doc["clusters"], &clusters))
	assert.ElementsMatch(t, []string{
		"id", "label", "full_claim", "speaker", "claim_type", "chunk_ids", "chunk_count",
		"avg_similarity", "related_concepts", "centroid",
	}, mapKeys(clusters[0]))

	var centroids map[string][]float64
	require.NoError(t, json.Unmarshal(doc["speaker_centroids"], &centroids))
	assert.Len(t, centroids["marcus"], 3)
}

func TestAssembleLayout(t *testing.T) {
	in := testInput()
	layout, err := AssembleLayout(LayoutInput{
		Chunks:    in.Chunks,
		Coords:    in.ChunkCoords,
		Speakers:  []string{"marcus", "demartini", "guest"},
		Params:    in.Params,
		CreatedAt: fixed,
	})
	require.NoError(t, err)

	require.Len(t, layout.Points, 3)
	assert.Equal(t, strings.Repeat("a", 200)+"...", layout.Points[0].Text)
	assert.Equal(t, 3, layout.Metadata.Dimensions)

	require.Len(t, layout.Clusters, 3)
	assert.Equal(t, "Marcus", layout.Clusters[0].Label)
	assert.Equal(t, 2, layout.Clusters[0].Count)
	assert.Equal(t, [3]float64{0, 0.5, 0.5}, layout.Clusters[0].Centroid)
	assert.Equal(t, 1, layout.Clusters[1].ID)
	assert.True(t, layout.Clusters[2].Degraded)
	assert.Contains(t, layout.Metadata.Warnings, "speaker guest has no points")

	assert.Equal(t, [][3]float64{{-1, 0, 0}, {1, 1, 1}}, layout.Trajectories["marcus"])
	assert.Equal(t, [][3]float64{{0, 0.5, -0.5}}, layout.Trajectories["demartini"])
	assert.Empty(t, layout.Trajectories["guest"])
}

func TestTrajectory_SortedByTime(t *testing.T) {
	points := []model.LayoutPoint{
		{Speaker: "marcus", Time: 30, X: 3},
		{Speaker: "demartini", Time: 5, X: 9},
		{Speaker: "marcus", Time: 10, X: 1},
		{Speaker: "marcus", Time: 10, X: 2},
	}
	path := Trajectory(points, "marcus")
	require.Len(t, path, 3)
	assert.Equal(t, 1.0, path[0][0])
	assert.Equal(t, 2.0, path[1][0])
	assert.Equal(t, 3.0, path[2][0])
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Marcus", Title("marcus"))
	assert.Equal(t, "", Title(""))
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func mapKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
