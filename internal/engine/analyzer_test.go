package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/incidentstack/incident-resolve/internal/models"
)

type inferenceStub struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (s *inferenceStub) Complete(_ context.Context, prompt string, _ int, _ float32) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testContext() models.ProcessingContext {
	return models.ProcessingContext{
		Incident: models.Incident{
			IncidentID:      "INC0012345",
			Priority:        1,
			PriorityLabel:   "Critical",
			Category:        "Performance",
			Description:     "High CPU usage detected on web-prod-01",
			AffectedSystems: []string{"web-prod-01"},
			Severity:        "High",
			Timestamp:       "2026-08-30T10:00:00Z",
		},
	}
}

func TestAnalyzeParsesFencedJSON(t *testing.T) {
	stub := &inferenceStub{response: "Here is the analysis:\n```json\n{\"incident_type\": \"Performance\", \"primary_symptoms\": [\"High CPU\"], \"affected_components\": [\"web-prod-01\"], \"key_technical_terms\": [\"CPU\"], \"severity_assessment\": \"High\", \"time_criticality\": \"High\"}\n```\nLet me know if you need more."}
	analyzer := NewAnalyzer(nil, stub, NewDeterministicEmbedder(64), "test-model", 2000, 0.7)

	result, err := analyzer.Analyze(context.Background(), testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Analysis.IncidentType != "Performance" {
		t.Fatalf("unexpected incident type: %s", result.Analysis.IncidentType)
	}
	if len(result.Analysis.PrimarySymptoms) != 1 || result.Analysis.PrimarySymptoms[0] != "High CPU" {
		t.Fatalf("unexpected symptoms: %v", result.Analysis.PrimarySymptoms)
	}
	if result.Analysis.Metadata.ModelUsed != "test-model" {
		t.Fatalf("unexpected model: %s", result.Analysis.Metadata.ModelUsed)
	}
	if len(result.Embedding) != 64 || result.EmbeddingDimension != 64 {
		t.Fatalf("unexpected embedding dimension: %d", result.EmbeddingDimension)
	}
	if result.ProcessingMetadata.Step != 2 || result.ProcessingMetadata.NextStep != "similarity_query" {
		t.Fatalf("unexpected processing metadata: %+v", result.ProcessingMetadata)
	}
}

func TestAnalyzeFallsBackOnGarbageOutput(t *testing.T) {
	stub := &inferenceStub{response: "I cannot produce structured output right now."}
	analyzer := NewAnalyzer(nil, stub, NewDeterministicEmbedder(64), "test-model", 2000, 0.7)

	result, err := analyzer.Analyze(context.Background(), testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	analysis := result.Analysis
	if analysis.IncidentType != "Performance" {
		t.Fatalf("fallback should use the incident category, got %s", analysis.IncidentType)
	}
	if len(analysis.PrimarySymptoms) != 1 || analysis.PrimarySymptoms[0] != "High CPU usage detected on web-prod-01" {
		t.Fatalf("fallback symptoms should be the description, got %v", analysis.PrimarySymptoms)
	}
	if analysis.SeverityAssessment != "High" {
		t.Fatalf("fallback severity should mirror the incident, got %s", analysis.SeverityAssessment)
	}
	if analysis.TimeCriticality != "High" {
		t.Fatalf("priority 1 incident should be time-critical, got %s", analysis.TimeCriticality)
	}
	if analysis.KeyTechnicalTerms == nil || len(analysis.KeyTechnicalTerms) != 0 {
		t.Fatalf("fallback technical terms should be empty, got %v", analysis.KeyTechnicalTerms)
	}
}

func TestAnalyzeFallbackTimeCriticalityLowPriority(t *testing.T) {
	stub := &inferenceStub{response: "not json"}
	analyzer := NewAnalyzer(nil, stub, NewDeterministicEmbedder(64), "test-model", 2000, 0.7)

	pctx := testContext()
	pctx.Incident.Priority = 3

	result, err := analyzer.Analyze(context.Background(), pctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Analysis.TimeCriticality != "Medium" {
		t.Fatalf("priority 3 incident should be Medium criticality, got %s", result.Analysis.TimeCriticality)
	}
}

func TestAnalyzeEntityConfidences(t *testing.T) {
	stub := &inferenceStub{response: `{"incident_type": "Performance", "primary_symptoms": ["slow"], "affected_components": ["web-prod-01", "db-primary"], "key_technical_terms": ["CPU", "latency"], "severity_assessment": "High", "time_criticality": "High"}`}
	analyzer := NewAnalyzer(nil, stub, NewDeterministicEmbedder(64), "test-model", 2000, 0.7)

	result, err := analyzer.Analyze(context.Background(), testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entities) != 4 {
		t.Fatalf("expected 4 entities, got %d", len(result.Entities))
	}
	for _, entity := range result.Entities {
		switch entity.Type {
		case "component":
			if entity.Confidence != ComponentConfidence {
				t.Fatalf("component confidence %v, want %v", entity.Confidence, ComponentConfidence)
			}
		case "technical_term":
			if entity.Confidence != TechnicalTermConfidence {
				t.Fatalf("term confidence %v, want %v", entity.Confidence, TechnicalTermConfidence)
			}
		default:
			t.Fatalf("unexpected entity type %s", entity.Type)
		}
	}

	if result.Classification.PrimaryCategory != "Performance" {
		t.Fatalf("unexpected classification: %+v", result.Classification)
	}
	if result.Classification.Confidence != ClassificationConfidence {
		t.Fatalf("classification confidence %v, want %v", result.Classification.Confidence, ClassificationConfidence)
	}
}

func TestAnalyzeInferenceErrorPropagates(t *testing.T) {
	stub := &inferenceStub{err: errors.New("connection refused")}
	analyzer := NewAnalyzer(nil, stub, NewDeterministicEmbedder(64), "test-model", 2000, 0.7)

	_, err := analyzer.Analyze(context.Background(), testContext())
	if err == nil {
		t.Fatalf("expected inference error to propagate")
	}
}

func TestAnalyzeEmbeddingDeterministicAcrossRuns(t *testing.T) {
	stub := &inferenceStub{response: `{"incident_type": "Performance", "primary_symptoms": ["High CPU"], "severity_assessment": "High", "time_criticality": "High"}`}
	analyzer := NewAnalyzer(nil, stub, NewDeterministicEmbedder(64), "test-model", 2000, 0.7)

	first, err := analyzer.Analyze(context.Background(), testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := analyzer.Analyze(context.Background(), testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range first.Embedding {
		if first.Embedding[i] != second.Embedding[i] {
			t.Fatalf("embedding differs at index %d", i)
		}
	}
}

func TestStripJSONFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"json fence with prose", "Sure, here it is:\n```json\n{\"a\": 1}\n```\nHope that helps.", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"no fence", "  {\"a\": 1}  ", `{"a": 1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripJSONFence(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
