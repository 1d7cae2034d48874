package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/incidentstack/incident-resolve/internal/models"
	"github.com/incidentstack/incident-resolve/internal/utils"
)

// ErrNoSimilarIncidents reports that no historical incident cleared the
// similarity threshold. A legitimate business outcome, distinct from
// failure: the synthesizer refuses to fabricate a resolution from nothing.
var ErrNoSimilarIncidents = errors.New("no similar incidents found above threshold")

// Fallback values used when the synthesis response cannot be parsed.
const (
	fallbackRiskLevel  = models.RiskMedium
	fallbackConfidence = 0.7
)

// Synthesizer combines the incident analysis with the ranked similar
// incidents into the fixed four-section resolution report.
type Synthesizer struct {
	logger      *slog.Logger
	inference   InferenceClient
	model       string
	maxTokens   int
	temperature float32
}

// NewSynthesizer constructs a Synthesizer.
func NewSynthesizer(logger *slog.Logger, inference InferenceClient, model string, maxTokens int, temperature float32) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	if maxTokens <= 0 {
		maxTokens = 3000
	}
	return &Synthesizer{
		logger:      logger,
		inference:   inference,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// resolutionData is the tolerant shape the model response is parsed into.
type resolutionData struct {
	RootCauseAnalysis struct {
		PrimaryCause        string   `json:"primary_cause"`
		ContributingFactors []string `json:"contributing_factors"`
	} `json:"root_cause_analysis"`
	ResolutionSteps []models.ResolutionStep `json:"resolution_steps"`
	BestPractices   []string                `json:"best_practices"`
	RiskAssessment  struct {
		RiskLevel       string  `json:"risk_level"`
		ConfidenceScore float64 `json:"confidence_score"`
	} `json:"risk_assessment"`
	EstimatedResolutionTime string `json:"estimated_resolution_time"`
	FullText                string `json:"full_text,omitempty"`
}

// Synthesize produces a ResolutionReport from the analysis and matches.
// An empty match list returns ErrNoSimilarIncidents without invoking the
// inference collaborator. Malformed model output degrades to a structurally
// valid lower-confidence report; only transport failures return an error.
func (s *Synthesizer) Synthesize(ctx context.Context, analysis models.IncidentAnalysis, matches []models.SimilarIncidentMatch) (models.ResolutionReport, error) {
	if len(matches) == 0 {
		return models.ResolutionReport{}, ErrNoSimilarIncidents
	}

	analysisJSON, err := json.MarshalIndent(analysis.Analysis, "", "  ")
	if err != nil {
		return models.ResolutionReport{}, utils.NewAppError("engine.Synthesize", "marshal analysis", err)
	}

	prompt := buildResolutionPrompt(string(analysisJSON), matches)

	s.logger.Info("generating resolution plan",
		slog.String("incident_id", analysis.IncidentID),
		slog.Int("similar_incidents", len(matches)))

	raw, err := s.inference.Complete(ctx, prompt, s.maxTokens, s.temperature)
	if err != nil {
		return models.ResolutionReport{}, utils.NewAppError("engine.Synthesize", "resolution generation failed", err)
	}

	data := s.parseResolution(raw, analysis.IncidentID)
	return s.buildReport(analysis, matches, data), nil
}

func (s *Synthesizer) parseResolution(raw, incidentID string) resolutionData {
	var data resolutionData
	if err := json.Unmarshal([]byte(stripJSONFence(raw)), &data); err == nil {
		return data
	}

	s.logger.Warn("resolution response unparseable, using fallback",
		slog.String("incident_id", incidentID))

	data = resolutionData{
		ResolutionSteps: []models.ResolutionStep{
			{Step: 1, Description: "Review full resolution text"},
		},
		BestPractices:           []string{"Refer to full text"},
		EstimatedResolutionTime: "Unknown",
		FullText:                raw,
	}
	data.RootCauseAnalysis.PrimaryCause = "See full text"
	data.RootCauseAnalysis.ContributingFactors = []string{}
	data.RiskAssessment.RiskLevel = fallbackRiskLevel
	data.RiskAssessment.ConfidenceScore = fallbackConfidence
	return data
}

func (s *Synthesizer) buildReport(analysis models.IncidentAnalysis, matches []models.SimilarIncidentMatch, data resolutionData) models.ResolutionReport {
	summaries := make([]models.MatchSummary, 0, len(matches))
	for _, m := range matches {
		summaries = append(summaries, models.MatchSummary{
			IncidentID:            m.IncidentID,
			SimilarityScore:       m.SimilarityScore,
			Category:              m.Category,
			Priority:              m.Priority,
			Description:           truncate(m.Description, 200),
			ResolutionTimeMinutes: m.ResolutionTimeMinutes,
		})
	}

	primaryCause := data.RootCauseAnalysis.PrimaryCause
	if primaryCause == "" {
		primaryCause = "Unknown"
	}
	estimated := data.EstimatedResolutionTime
	if estimated == "" {
		estimated = "Unknown"
	}

	return models.ResolutionReport{
		ReportID:    uuid.NewString(),
		IncidentID:  analysis.IncidentID,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		SimilarIncidents: models.SimilarIncidentsSection{
			Title:     "Similar Past Incidents",
			Count:     len(matches),
			Incidents: summaries,
		},
		RootCause: models.RootCauseSection{
			Title:               "Root Cause Analysis",
			PrimaryCause:        primaryCause,
			ContributingFactors: emptyIfNil(data.RootCauseAnalysis.ContributingFactors),
			AnalysisDetails:     analysis.Analysis,
		},
		ResolutionSteps: models.ResolutionStepsSection{
			Title:         "Recommended Resolution Steps",
			Steps:         data.ResolutionSteps,
			BestPractices: emptyIfNil(data.BestPractices),
			EstimatedTime: estimated,
		},
		Metadata: models.MetadataSection{
			Title:                 "Confidence Score & Metadata",
			ConfidenceScore:       clampConfidence(data.RiskAssessment.ConfidenceScore),
			RiskLevel:             normalizeRiskLevel(data.RiskAssessment.RiskLevel),
			SimilarIncidentsCount: len(matches),
			ModelUsed:             s.model,
			ProcessingMetadata:    analysis.ProcessingMetadata,
			ManualReviewRequired:  true,
		},
	}
}

// clampConfidence bounds a model-reported confidence to [0, 1].
func clampConfidence(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// normalizeRiskLevel admits only the known risk levels, defaulting on
// violation rather than passing malformed values downstream.
func normalizeRiskLevel(level string) string {
	switch level {
	case models.RiskLow, models.RiskMedium, models.RiskHigh:
		return level
	default:
		return fallbackRiskLevel
	}
}

// truncate bounds text to limit characters, never splitting a rune.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
