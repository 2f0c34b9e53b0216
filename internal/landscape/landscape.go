// Package landscape composes assignments, clusters and coordinates into the
// documents consumed by the front end.
package landscape

import (
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/topology/internal/centroid"
	"github.com/ppiankov/topology/internal/cluster"
	"github.com/ppiankov/topology/internal/model"
)

// Version tags the claim-anchored landscape format
const Version = "v2"

const (
	pointTextLimit  = 300
	layoutTextLimit = 200
	dimensions      = 3
)

// Input is everything the claim-anchored landscape is built from. Coordinates
// must already be normalized in one shared frame.
type Input struct {
	Chunks      []model.Chunk
	Claims      []model.Claim
	Assignments []model.Assignment
	Clusters    []model.Cluster // Centroids are computed here
	ChunkCoords []model.Coord
	ClaimCoords []model.Coord
	Degraded    map[string]bool // Entity keys whose embedding fell back to the zero vector

	Speakers       []string
	Params         model.UMAPParams
	EmbeddingModel string
	Source         model.ChunkSetMetadata
	Warnings       []string
	CreatedAt      time.Time
}

// Assemble joins chunks, assignments and coordinates by entity key and
// attaches landmarks, centroids and run metadata.
func Assemble(in Input) (*model.Landscape, error) {
	coords := model.Keyed(in.ChunkCoords)
	claimCoords := model.Keyed(in.ClaimCoords)

	byChunk := make(map[int]model.Assignment, len(in.Assignments))
	for _, a := range in.Assignments {
		byChunk[a.ChunkID] = a
	}

	points := make([]model.Point, 0, len(in.Chunks))
	for _, c := range in.Chunks {
		key := model.ChunkKey(c.ID)
		pos, ok := coords[key]
		if !ok {
			return nil, model.ShapeErrorf("assemble", "no coordinate for %s", key)
		}
		a, ok := byChunk[c.ID]
		if !ok {
			return nil, model.ShapeErrorf("assemble", "no assignment for %s", key)
		}

		related := a.RelatedClaims
		if related == nil {
			related = []model.RelatedClaim{}
		}
		points = append(points, model.Point{
			ID:                c.ID,
			X:                 pos[0],
			Y:                 pos[1],
			Z:                 pos[2],
			Speaker:           c.PrimarySpeaker,
			Speakers:          nonNil(c.Speakers),
			Text:              model.Truncate(c.Text, pointTextLimit),
			FullText:          c.Text,
			Time:              c.StartTime,
			TimeLabel:         c.TimeLabel,
			TimeRange:         c.TimeRange,
			Duration:          c.Duration,
			Tokens:            c.TokenEstimate,
			ClusterID:         a.PrimaryClaim,
			ClusterSimilarity: a.Similarity,
			RelatedClaims:     related,
			Degraded:          in.Degraded[key] || a.Degraded,
		})
	}

	counts := cluster.Counts(in.Clusters)
	landmarks := make([]model.Landmark, 0, len(in.Claims))
	for _, c := range in.Claims {
		key := model.ClaimKey(c.ID)
		pos, ok := claimCoords[key]
		if !ok {
			return nil, model.ShapeErrorf("assemble", "no coordinate for %s", key)
		}
		landmarks = append(landmarks, model.Landmark{
			ID:         c.ID,
			X:          pos[0],
			Y:          pos[1],
			Z:          pos[2],
			Speaker:    c.Speaker,
			Text:       c.Text,
			Type:       c.Type,
			ChunkCount: counts[c.ID],
			Degraded:   in.Degraded[key],
		})
	}

	clusters := centroid.Clusters(in.Clusters, points, landmarks)
	warnings := append([]string(nil), in.Warnings...)
	for _, c := range clusters {
		if c.CentroidSource != "" {
			warnings = append(warnings, "cluster "+c.ID+" centroid from "+c.CentroidSource)
		}
	}
	speakers := centroid.Speakers(points, in.Speakers)
	for _, name := range centroid.Names(points, in.Speakers) {
		if speakers[name].Degraded {
			warnings = append(warnings, "speaker "+name+" has no points")
		}
	}

	return &model.Landscape{
		Metadata: model.Metadata{
			Version:        Version,
			CreatedAt:      createdAt(in.CreatedAt),
			NumPoints:      len(points),
			NumClusters:    len(clusters),
			NumClaims:      len(in.Claims),
			UMAPParams:     in.Params,
			EmbeddingModel: in.EmbeddingModel,
			Chunking:       in.Source.ChunkingParams,
			Statistics:     in.Source.Statistics,
			Warnings:       warnings,
		},
		Points:           points,
		Clusters:         clusters,
		ClaimLandmarks:   landmarks,
		SpeakerCentroids: centroid.Positions(speakers),
	}, nil
}

// LayoutInput is what the chunks-only layout is built from
type LayoutInput struct {
	Chunks   []model.Chunk
	Coords   []model.Coord
	Degraded map[string]bool

	Speakers       []string
	Params         model.UMAPParams
	EmbeddingModel string
	Warnings       []string
	CreatedAt      time.Time
}

// AssembleLayout builds the chunks-only layout: points without cluster
// fields, one cluster per speaker, and each speaker's path through the
// layout in start-time order.
func AssembleLayout(in LayoutInput) (*model.Layout, error) {
	coords := model.Keyed(in.Coords)

	points := make([]model.LayoutPoint, 0, len(in.Chunks))
	full := make([]model.Point, 0, len(in.Chunks))
	for _, c := range in.Chunks {
		key := model.ChunkKey(c.ID)
		pos, ok := coords[key]
		if !ok {
			return nil, model.ShapeErrorf("layout", "no coordinate for %s", key)
		}
		points = append(points, model.LayoutPoint{
			ID:        c.ID,
			X:         pos[0],
			Y:         pos[1],
			Z:         pos[2],
			Speaker:   c.PrimarySpeaker,
			Text:      model.Truncate(c.Text, layoutTextLimit),
			FullText:  c.Text,
			Time:      c.StartTime,
			TimeLabel: c.TimeLabel,
			Tokens:    c.TokenEstimate,
			Degraded:  in.Degraded[key],
		})
		full = append(full, model.Point{ID: c.ID, X: pos[0], Y: pos[1], Z: pos[2], Speaker: c.PrimarySpeaker})
	}

	warnings := append([]string(nil), in.Warnings...)
	speakers := centroid.Speakers(full, in.Speakers)
	names := centroid.Names(full, in.Speakers)

	clusters := make([]model.SpeakerCluster, 0, len(names))
	trajectories := make(map[string][][3]float64, len(names))
	for i, name := range names {
		c := speakers[name]
		if c.Degraded {
			warnings = append(warnings, "speaker "+name+" has no points")
		}
		clusters = append(clusters, model.SpeakerCluster{
			ID:       i,
			Label:    Title(name),
			Centroid: c.Pos,
			Count:    c.Count,
			Degraded: c.Degraded,
		})
		trajectories[name] = Trajectory(points, name)
	}

	return &model.Layout{
		Metadata: model.LayoutMetadata{
			CreatedAt:      createdAt(in.CreatedAt),
			NumPoints:      len(points),
			UMAPParams:     in.Params,
			EmbeddingModel: in.EmbeddingModel,
			Dimensions:     dimensions,
			Warnings:       warnings,
		},
		Points:       points,
		Clusters:     clusters,
		Trajectories: trajectories,
	}, nil
}

// Trajectory returns the positions of one speaker's points ordered by start
// time. Equal times keep input order.
func Trajectory(points []model.LayoutPoint, speaker string) [][3]float64 {
	var own []model.LayoutPoint
	for _, p := range points {
		if p.Speaker == speaker {
			own = append(own, p)
		}
	}
	sort.SliceStable(own, func(i, j int) bool {
		return own[i].Time < own[j].Time
	})

	path := make([][3]float64, len(own))
	for i, p := range own {
		path[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return path
}

// Title upper-cases the first letter of a speaker id for display
func Title(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
