// Package centroid computes cluster and speaker centers in the shared frame.
package centroid

import (
	"log/slog"
	"sort"

	"github.com/ppiankov/topology/internal/model"
	"gonum.org/v1/gonum/stat"
)

// Clusters returns a copy of clusters with Centroid set to the mean position
// of the member points. A cluster whose members cannot be found falls back
// to its claim landmark, and failing that to the origin; either fallback is
// logged and recorded in CentroidSource.
func Clusters(clusters []model.Cluster, points []model.Point, landmarks []model.Landmark) []model.Cluster {
	byID := make(map[int]model.Point, len(points))
	for _, p := range points {
		byID[p.ID] = p
	}
	marks := make(map[string]model.Landmark, len(landmarks))
	for _, l := range landmarks {
		marks[l.ID] = l
	}

	out := make([]model.Cluster, len(clusters))
	for i, c := range clusters {
		members := make([][3]float64, 0, len(c.ChunkIDs))
		for _, id := range c.ChunkIDs {
			if p, ok := byID[id]; ok {
				members = append(members, [3]float64{p.X, p.Y, p.Z})
			}
		}

		c.CentroidSource = ""
		if len(members) > 0 {
			c.Centroid = Mean(members)
			out[i] = c
			continue
		}

		if l, ok := marks[c.ID]; ok {
			c.Centroid = l.Pos()
			c.CentroidSource = model.CentroidFromLandmark
		} else {
			c.Centroid = [3]float64{}
			c.CentroidSource = model.CentroidFromOrigin
		}
		slog.Warn("cluster has no member points",
			"cluster", c.ID,
			"chunk_count", c.ChunkCount,
			"fallback", c.CentroidSource,
		)
		out[i] = c
	}
	return out
}

// Speakers returns the mean position of each speaker's points, keyed by
// speaker. Every speaker in speakers gets an entry, as does every primary
// speaker seen on points; speakers without points get the origin and are
// flagged Degraded.
func Speakers(points []model.Point, speakers []string) map[string]model.SpeakerCentroid {
	groups := make(map[string][][3]float64)
	for _, p := range points {
		groups[p.Speaker] = append(groups[p.Speaker], [3]float64{p.X, p.Y, p.Z})
	}

	out := make(map[string]model.SpeakerCentroid, len(groups)+len(speakers))
	for _, name := range Names(points, speakers) {
		pts := groups[name]
		if len(pts) == 0 {
			slog.Warn("speaker has no points, using origin", "speaker", name)
			out[name] = model.SpeakerCentroid{Speaker: name, Degraded: true}
			continue
		}
		out[name] = model.SpeakerCentroid{Speaker: name, Pos: Mean(pts), Count: len(pts)}
	}
	return out
}

// Names returns the configured speakers in order, followed by any other
// primary speaker seen on points in sorted order.
func Names(points []model.Point, speakers []string) []string {
	seen := make(map[string]bool, len(speakers))
	names := make([]string, 0, len(speakers))
	for _, s := range speakers {
		if !seen[s] {
			seen[s] = true
			names = append(names, s)
		}
	}

	var extra []string
	for _, p := range points {
		if !seen[p.Speaker] {
			seen[p.Speaker] = true
			extra = append(extra, p.Speaker)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Mean averages positions per axis. It returns the origin for no positions.
func Mean(positions [][3]float64) [3]float64 {
	var out [3]float64
	if len(positions) == 0 {
		return out
	}
	axis := make([]float64, len(positions))
	for d := 0; d < 3; d++ {
		for i, p := range positions {
			axis[i] = p[d]
		}
		out[d] = stat.Mean(axis, nil)
	}
	return out
}

// Positions flattens speaker centroids into the output map shape
func Positions(centroids map[string]model.SpeakerCentroid) map[string][3]float64 {
	out := make(map[string][3]float64, len(centroids))
	for name, c := range centroids {
		out[name] = c.Pos
	}
	return out
}
