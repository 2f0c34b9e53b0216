// Package cluster groups assignments into claim-anchored clusters.
package cluster

import (
	"sort"

	"github.com/ppiankov/topology/internal/model"
	"gonum.org/v1/gonum/stat"
)

// labelLimit is the display label length for a cluster
const labelLimit = 80

// Build groups assignments by primary claim. One cluster is produced per
// claim that received at least one chunk; clusters are ordered by
// descending chunk count, equal counts keeping claim-set order.
func Build(assignments []model.Assignment, claims []model.Claim) []model.Cluster {
	members := make(map[string][]model.Assignment)
	for _, a := range assignments {
		members[a.PrimaryClaim] = append(members[a.PrimaryClaim], a)
	}

	clusters := make([]model.Cluster, 0, len(members))
	for _, claim := range claims {
		group, ok := members[claim.ID]
		if !ok {
			continue
		}

		ids := make([]int, len(group))
		sims := make([]float64, len(group))
		for i, a := range group {
			ids[i] = a.ChunkID
			sims[i] = a.Similarity
		}

		concepts := claim.RelatedConcepts
		if concepts == nil {
			concepts = []string{}
		}

		clusters = append(clusters, model.Cluster{
			ID:              claim.ID,
			Label:           model.Truncate(claim.Text, labelLimit),
			FullClaim:       claim.Text,
			Speaker:         claim.Speaker,
			ClaimType:       claim.Type,
			ChunkIDs:        ids,
			ChunkCount:      len(group),
			AvgSimilarity:   stat.Mean(sims, nil),
			RelatedConcepts: concepts,
		})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].ChunkCount > clusters[j].ChunkCount
	})

	return clusters
}

// Counts maps claim ID to cluster chunk count
func Counts(clusters []model.Cluster) map[string]int {
	counts := make(map[string]int, len(clusters))
	for _, c := range clusters {
		counts[c.ID] = c.ChunkCount
	}
	return counts
}
