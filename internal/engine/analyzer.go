package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/incidentstack/incident-resolve/internal/models"
	"github.com/incidentstack/incident-resolve/internal/utils"
)

// InferenceClient describes the inference collaborator used by the analyzer
// and synthesizer: prompt in, free text (possibly JSON-fenced) out.
type InferenceClient interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)
}

// Fixed confidence constants. These are stand-ins for learned scores and
// are named so a real scoring model can replace them without touching
// call sites.
const (
	ComponentConfidence      = 0.9
	TechnicalTermConfidence  = 0.8
	ClassificationConfidence = 0.85
)

// Analyzer extracts structured fields from the incident description and
// generates the embedding used for similarity retrieval.
type Analyzer struct {
	logger      *slog.Logger
	inference   InferenceClient
	embedder    Embedder
	model       string
	maxTokens   int
	temperature float32
}

// NewAnalyzer constructs an Analyzer.
func NewAnalyzer(logger *slog.Logger, inference InferenceClient, embedder Embedder, model string, maxTokens int, temperature float32) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if embedder == nil {
		embedder = NewDeterministicEmbedder(EmbeddingDimension)
	}
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &Analyzer{
		logger:      logger,
		inference:   inference,
		embedder:    embedder,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Analyze runs description parsing, entity extraction, classification, and
// embedding generation for the incident held by the context.
//
// Inference transport errors propagate to the caller. Malformed model
// output does not: it is recovered locally by rebuilding the analysis from
// the incident's own fields, so the pipeline always has a usable result.
func (a *Analyzer) Analyze(ctx context.Context, pctx models.ProcessingContext) (models.IncidentAnalysis, error) {
	start := time.Now()
	incident := pctx.Incident

	analysis, err := a.parseDescription(ctx, incident)
	if err != nil {
		return models.IncidentAnalysis{}, utils.NewAppError("engine.Analyze", "incident analysis failed", err)
	}

	entities := extractEntities(analysis)
	classification := classify(analysis)

	text := buildEmbeddingText(incident, analysis.PrimarySymptoms)
	embedding := a.embedder.Embed(text)

	a.logger.Debug("embedding generated",
		slog.String("incident_id", incident.IncidentID),
		slog.Int("dimension", len(embedding)))

	return models.IncidentAnalysis{
		IncidentID:         incident.IncidentID,
		Analysis:           analysis,
		Entities:           entities,
		Classification:     classification,
		Embedding:          embedding,
		EmbeddingDimension: len(embedding),
		ProcessingMetadata: models.ProcessingMetadata{
			TotalProcessingTime: roundSeconds(time.Since(start)),
			CompletedAt:         time.Now().UTC().Format(time.RFC3339),
			Step:                2,
			NextStep:            "similarity_query",
		},
	}, nil
}

func (a *Analyzer) parseDescription(ctx context.Context, incident models.Incident) (models.Analysis, error) {
	prompt := buildAnalysisPrompt(incident)

	a.logger.Info("analyzing incident", slog.String("incident_id", incident.IncidentID))

	callStart := time.Now()
	raw, err := a.inference.Complete(ctx, prompt, a.maxTokens, a.temperature)
	elapsed := time.Since(callStart)
	if err != nil {
		return models.Analysis{}, err
	}

	analysis, parsed := parseAnalysisJSON(raw)
	if !parsed {
		a.logger.Warn("analysis response unparseable, using fallback",
			slog.String("incident_id", incident.IncidentID))
		analysis = fallbackAnalysis(incident)
	}

	analysis.Metadata = models.AnalysisMetadata{
		AnalyzedAt:            time.Now().UTC().Format(time.RFC3339),
		ProcessingTimeSeconds: roundSeconds(elapsed),
		ModelUsed:             a.model,
	}
	return analysis, nil
}

func parseAnalysisJSON(raw string) (models.Analysis, bool) {
	var analysis models.Analysis
	if err := json.Unmarshal([]byte(stripJSONFence(raw)), &analysis); err != nil {
		return models.Analysis{}, false
	}
	if analysis.IncidentType == "" {
		return models.Analysis{}, false
	}
	return analysis, true
}

// fallbackAnalysis rebuilds the analysis deterministically from the
// incident's own fields. Every required field is populated.
func fallbackAnalysis(incident models.Incident) models.Analysis {
	timeCriticality := "Medium"
	if incident.Priority <= 2 {
		timeCriticality = "High"
	}
	return models.Analysis{
		IncidentType:       incident.Category,
		PrimarySymptoms:    []string{incident.Description},
		AffectedComponents: append([]string(nil), incident.AffectedSystems...),
		KeyTechnicalTerms:  []string{},
		SeverityAssessment: incident.Severity,
		TimeCriticality:    timeCriticality,
	}
}

func extractEntities(analysis models.Analysis) []models.Entity {
	entities := make([]models.Entity, 0, len(analysis.AffectedComponents)+len(analysis.KeyTechnicalTerms))
	for _, component := range analysis.AffectedComponents {
		entities = append(entities, models.Entity{
			Type:       "component",
			Value:      component,
			Confidence: ComponentConfidence,
		})
	}
	for _, term := range analysis.KeyTechnicalTerms {
		entities = append(entities, models.Entity{
			Type:       "technical_term",
			Value:      term,
			Confidence: TechnicalTermConfidence,
		})
	}
	return entities
}

func classify(analysis models.Analysis) models.Classification {
	primary := analysis.IncidentType
	if primary == "" {
		primary = "Unknown"
	}
	return models.Classification{
		PrimaryCategory: primary,
		SubCategories:   []string{},
		Confidence:      ClassificationConfidence,
	}
}

// stripJSONFence extracts the JSON payload from a markdown-fenced response.
// Text before or after the fence is discarded; unfenced input passes through.
func stripJSONFence(raw string) string {
	if idx := strings.Index(raw, "```json"); idx >= 0 {
		rest := raw[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(raw, "```"); idx >= 0 {
		rest := raw[idx+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(raw)
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Milliseconds()) / 1000
}
