package engine

import (
	"testing"

	"github.com/incidentstack/incident-resolve/internal/models"
)

func TestRankMatchesFiltersBelowThreshold(t *testing.T) {
	candidates := []models.SimilarIncidentMatch{
		{IncidentID: "INC1", SimilarityScore: 0.92},
		{IncidentID: "INC2", SimilarityScore: 0.80},
		{IncidentID: "INC3", SimilarityScore: 0.60},
	}

	ranked := RankMatches(candidates, 0.75, 5)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(ranked))
	}
	if ranked[0].IncidentID != "INC1" || ranked[1].IncidentID != "INC2" {
		t.Fatalf("unexpected order: %s, %s", ranked[0].IncidentID, ranked[1].IncidentID)
	}
}

func TestRankMatchesExactThresholdIncluded(t *testing.T) {
	candidates := []models.SimilarIncidentMatch{
		{IncidentID: "INC1", SimilarityScore: 0.75},
	}

	ranked := RankMatches(candidates, 0.75, 5)
	if len(ranked) != 1 {
		t.Fatalf("score equal to threshold should be included")
	}
}

func TestRankMatchesOrdersDescending(t *testing.T) {
	candidates := []models.SimilarIncidentMatch{
		{IncidentID: "INC1", SimilarityScore: 0.78},
		{IncidentID: "INC2", SimilarityScore: 0.95},
		{IncidentID: "INC3", SimilarityScore: 0.81},
	}

	ranked := RankMatches(candidates, 0.75, 5)
	for i := 1; i < len(ranked); i++ {
		if ranked[i].SimilarityScore > ranked[i-1].SimilarityScore {
			t.Fatalf("matches not ordered descending: %+v", ranked)
		}
	}
}

func TestRankMatchesTiesKeepDocumentOrder(t *testing.T) {
	candidates := []models.SimilarIncidentMatch{
		{IncidentID: "INC1", SimilarityScore: 0.80},
		{IncidentID: "INC2", SimilarityScore: 0.80},
		{IncidentID: "INC3", SimilarityScore: 0.80},
	}

	ranked := RankMatches(candidates, 0.75, 5)
	if ranked[0].IncidentID != "INC1" || ranked[1].IncidentID != "INC2" || ranked[2].IncidentID != "INC3" {
		t.Fatalf("tie ordering not stable: %+v", ranked)
	}
}

func TestRankMatchesCapsAtTopK(t *testing.T) {
	candidates := make([]models.SimilarIncidentMatch, 8)
	for i := range candidates {
		candidates[i] = models.SimilarIncidentMatch{SimilarityScore: 0.90}
	}

	ranked := RankMatches(candidates, 0.75, 5)
	if len(ranked) != 5 {
		t.Fatalf("expected topK cap of 5, got %d", len(ranked))
	}
}

func TestRankMatchesEmptyInput(t *testing.T) {
	ranked := RankMatches(nil, 0.75, 5)
	if len(ranked) != 0 {
		t.Fatalf("expected empty result, got %d", len(ranked))
	}
}
