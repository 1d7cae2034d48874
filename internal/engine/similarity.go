package engine

import (
	"sort"

	"github.com/incidentstack/incident-resolve/internal/models"
)

// RankMatches applies the similarity policy to raw index candidates:
// candidates below threshold are discarded even when the index returned
// them, the survivors are ordered strictly descending by score (ties keep
// document order), and the result is capped at topK. An empty result is a
// legitimate outcome, not an error.
func RankMatches(candidates []models.SimilarIncidentMatch, threshold float64, topK int) []models.SimilarIncidentMatch {
	if topK <= 0 {
		topK = 5
	}

	ranked := make([]models.SimilarIncidentMatch, 0, len(candidates))
	for _, c := range candidates {
		if c.SimilarityScore >= threshold {
			ranked = append(ranked, c)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].SimilarityScore > ranked[j].SimilarityScore
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
