package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/incidentstack/incident-resolve/internal/models"
)

func testAnalysis() models.IncidentAnalysis {
	return models.IncidentAnalysis{
		IncidentID: "INC0012345",
		Analysis: models.Analysis{
			IncidentType:       "Performance",
			PrimarySymptoms:    []string{"High CPU"},
			SeverityAssessment: "High",
			TimeCriticality:    "High",
		},
		Classification: models.Classification{PrimaryCategory: "Performance", Confidence: ClassificationConfidence},
	}
}

func testMatches() []models.SimilarIncidentMatch {
	return []models.SimilarIncidentMatch{
		{
			IncidentID:            "INC0010001",
			SimilarityScore:       0.91,
			Category:              "Performance",
			Priority:              2,
			Description:           "High CPU usage (95%) detected on web-prod-01.",
			Resolution:            "Restarted service and cleared cache.",
			RootCause:             "Runaway worker process",
			ResolutionTimeMinutes: 45,
		},
		{
			IncidentID:      "INC0010002",
			SimilarityScore: 0.82,
			Category:        "Performance",
			Priority:        3,
			Description:     "Database query performance degradation.",
		},
	}
}

const wellFormedResolution = `{
	"root_cause_analysis": {
		"primary_cause": "CPU saturation from a runaway worker",
		"contributing_factors": ["Missing CPU limits"]
	},
	"resolution_steps": [
		{"step": 1, "description": "Identify the process", "command": "top -o %CPU"},
		{"step": 2, "description": "Restart the service"}
	],
	"best_practices": ["Set CPU limits"],
	"risk_assessment": {"risk_level": "Low", "confidence_score": 0.88},
	"estimated_resolution_time": "30 minutes"
}`

func TestSynthesizeEmptyMatchesReturnsSentinel(t *testing.T) {
	stub := &inferenceStub{response: wellFormedResolution}
	synthesizer := NewSynthesizer(nil, stub, "test-model", 3000, 0.7)

	_, err := synthesizer.Synthesize(context.Background(), testAnalysis(), nil)
	if !errors.Is(err, ErrNoSimilarIncidents) {
		t.Fatalf("expected ErrNoSimilarIncidents, got %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("no inference call expected for empty matches, got %d", stub.calls)
	}
}

func TestSynthesizeBuildsFourSectionReport(t *testing.T) {
	stub := &inferenceStub{response: wellFormedResolution}
	synthesizer := NewSynthesizer(nil, stub, "test-model", 3000, 0.7)

	report, err := synthesizer.Synthesize(context.Background(), testAnalysis(), testMatches())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.ReportID == "" || report.GeneratedAt == "" {
		t.Fatalf("report identity not populated: %+v", report)
	}
	if report.IncidentID != "INC0012345" {
		t.Fatalf("unexpected incident id: %s", report.IncidentID)
	}

	if report.SimilarIncidents.Title != "Similar Past Incidents" || report.SimilarIncidents.Count != 2 {
		t.Fatalf("unexpected section 1: %+v", report.SimilarIncidents)
	}
	if report.RootCause.Title != "Root Cause Analysis" || report.RootCause.PrimaryCause != "CPU saturation from a runaway worker" {
		t.Fatalf("unexpected section 2: %+v", report.RootCause)
	}
	if report.ResolutionSteps.Title != "Recommended Resolution Steps" || len(report.ResolutionSteps.Steps) != 2 {
		t.Fatalf("unexpected section 3: %+v", report.ResolutionSteps)
	}
	if report.ResolutionSteps.EstimatedTime != "30 minutes" {
		t.Fatalf("unexpected estimated time: %s", report.ResolutionSteps.EstimatedTime)
	}
	if report.Metadata.Title != "Confidence Score & Metadata" {
		t.Fatalf("unexpected section 4 title: %s", report.Metadata.Title)
	}
	if report.Metadata.ConfidenceScore != 0.88 || report.Metadata.RiskLevel != models.RiskLow {
		t.Fatalf("unexpected metadata: %+v", report.Metadata)
	}
	if report.Metadata.SimilarIncidentsCount != 2 || report.Metadata.ModelUsed != "test-model" {
		t.Fatalf("unexpected metadata: %+v", report.Metadata)
	}
	if !report.Metadata.ManualReviewRequired {
		t.Fatalf("manual review flag should always be set")
	}
}

func TestSynthesizeFallbackOnUnparseableOutput(t *testing.T) {
	stub := &inferenceStub{response: "To fix this, first restart the service, then check the logs."}
	synthesizer := NewSynthesizer(nil, stub, "test-model", 3000, 0.7)

	report, err := synthesizer.Synthesize(context.Background(), testAnalysis(), testMatches())
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}

	if report.Metadata.ConfidenceScore != 0.7 || report.Metadata.RiskLevel != models.RiskMedium {
		t.Fatalf("fallback confidence/risk wrong: %+v", report.Metadata)
	}
	if len(report.ResolutionSteps.Steps) != 1 || report.ResolutionSteps.Steps[0].Description != "Review full resolution text" {
		t.Fatalf("fallback steps wrong: %+v", report.ResolutionSteps.Steps)
	}
	if report.RootCause.PrimaryCause != "See full text" {
		t.Fatalf("fallback root cause wrong: %s", report.RootCause.PrimaryCause)
	}
}

func TestSynthesizeInferenceErrorPropagates(t *testing.T) {
	stub := &inferenceStub{err: errors.New("timeout")}
	synthesizer := NewSynthesizer(nil, stub, "test-model", 3000, 0.7)

	_, err := synthesizer.Synthesize(context.Background(), testAnalysis(), testMatches())
	if err == nil {
		t.Fatalf("expected transport error to propagate")
	}
}

func TestSynthesizeClampsConfidence(t *testing.T) {
	stub := &inferenceStub{response: `{"root_cause_analysis": {"primary_cause": "x"}, "risk_assessment": {"risk_level": "High", "confidence_score": 1.7}}`}
	synthesizer := NewSynthesizer(nil, stub, "test-model", 3000, 0.7)

	report, err := synthesizer.Synthesize(context.Background(), testAnalysis(), testMatches())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Metadata.ConfidenceScore != 1.0 {
		t.Fatalf("confidence not clamped: %v", report.Metadata.ConfidenceScore)
	}
}

func TestSynthesizeNormalizesUnknownRiskLevel(t *testing.T) {
	stub := &inferenceStub{response: `{"root_cause_analysis": {"primary_cause": "x"}, "risk_assessment": {"risk_level": "Extreme", "confidence_score": 0.5}}`}
	synthesizer := NewSynthesizer(nil, stub, "test-model", 3000, 0.7)

	report, err := synthesizer.Synthesize(context.Background(), testAnalysis(), testMatches())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Metadata.RiskLevel != models.RiskMedium {
		t.Fatalf("unknown risk level should default to Medium, got %s", report.Metadata.RiskLevel)
	}
}

func TestSynthesizeTruncatesLongDescriptions(t *testing.T) {
	stub := &inferenceStub{response: wellFormedResolution}
	synthesizer := NewSynthesizer(nil, stub, "test-model", 3000, 0.7)

	matches := testMatches()
	matches[0].Description = strings.Repeat("a", 250)

	report, err := synthesizer.Synthesize(context.Background(), testAnalysis(), matches)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := report.SimilarIncidents.Incidents[0].Description
	if len(got) != 203 || !strings.HasSuffix(got, "...") {
		t.Fatalf("description not truncated to 200 chars plus ellipsis, len=%d", len(got))
	}
}

func TestSynthesizeTruncationKeepsRunesIntact(t *testing.T) {
	stub := &inferenceStub{response: wellFormedResolution}
	synthesizer := NewSynthesizer(nil, stub, "test-model", 3000, 0.7)

	matches := testMatches()
	matches[0].Description = strings.Repeat("データベース接続障害", 30)

	report, err := synthesizer.Synthesize(context.Background(), testAnalysis(), matches)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := report.SimilarIncidents.Incidents[0].Description
	if !utf8.ValidString(got) {
		t.Fatalf("truncated description is not valid UTF-8")
	}
	if strings.ContainsRune(got, utf8.RuneError) {
		t.Fatalf("truncation split a rune: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 203 {
		t.Fatalf("expected 200 characters plus ellipsis, got %d", n)
	}
}

func TestSynthesizePromptIncludesMatches(t *testing.T) {
	stub := &inferenceStub{response: wellFormedResolution}
	synthesizer := NewSynthesizer(nil, stub, "test-model", 3000, 0.7)

	_, err := synthesizer.Synthesize(context.Background(), testAnalysis(), testMatches())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("expected exactly one inference call, got %d", stub.calls)
	}
	prompt := stub.prompts[0]
	if !strings.Contains(prompt, "INC0010001") || !strings.Contains(prompt, "Runaway worker process") {
		t.Fatalf("prompt missing match details")
	}
	if !strings.Contains(prompt, "Not available") {
		t.Fatalf("missing root cause should render as Not available")
	}
}
