package models

// Analysis holds the structured fields extracted from the incident
// description, either parsed from model output or rebuilt by fallback.
type Analysis struct {
	IncidentType       string           `json:"incident_type"`
	PrimarySymptoms    []string         `json:"primary_symptoms"`
	AffectedComponents []string         `json:"affected_components"`
	KeyTechnicalTerms  []string         `json:"key_technical_terms"`
	SeverityAssessment string           `json:"severity_assessment"`
	TimeCriticality    string           `json:"time_criticality"`
	Metadata           AnalysisMetadata `json:"analysis_metadata"`
}

// AnalysisMetadata records how the analysis itself was produced.
type AnalysisMetadata struct {
	AnalyzedAt            string  `json:"analyzed_at"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	ModelUsed             string  `json:"model_used"`
}

// Entity is a single extracted entity with its assigned confidence.
type Entity struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Classification wraps the incident type with a constant confidence.
// Not a trained classifier; the confidence is a named configuration value.
type Classification struct {
	PrimaryCategory string   `json:"primary_category"`
	SubCategories   []string `json:"sub_categories"`
	Confidence      float64  `json:"confidence"`
}

// ProcessingMetadata summarises a completed analysis pass.
type ProcessingMetadata struct {
	TotalProcessingTime float64 `json:"total_processing_time"`
	CompletedAt         string  `json:"completed_at"`
	Step                int     `json:"step"`
	NextStep            string  `json:"next_step"`
}

// IncidentAnalysis is the complete analyzer output: structured analysis,
// derived entities, classification, and the embedding vector.
type IncidentAnalysis struct {
	IncidentID         string             `json:"incident_id"`
	Analysis           Analysis           `json:"analysis"`
	Entities           []Entity           `json:"entities"`
	Classification     Classification     `json:"classification"`
	Embedding          []float32          `json:"-"`
	EmbeddingDimension int                `json:"embedding_dimension"`
	ProcessingMetadata ProcessingMetadata `json:"processing_metadata"`
}
