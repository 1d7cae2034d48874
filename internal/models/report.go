package models

// Risk levels a resolution report may carry.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// SimilarIncidentMatch is a historical incident returned by the similarity
// index with its similarity score attached. Read-only and ephemeral.
type SimilarIncidentMatch struct {
	IncidentID            string   `json:"incident_id"`
	SimilarityScore       float64  `json:"similarity_score"`
	Description           string   `json:"description"`
	Resolution            string   `json:"resolution"`
	RootCause             string   `json:"root_cause"`
	Category              string   `json:"category"`
	Priority              int      `json:"priority"`
	Severity              string   `json:"severity"`
	AffectedSystems       []string `json:"affected_systems"`
	Timestamp             string   `json:"timestamp"`
	ResolvedAt            string   `json:"resolved_at"`
	ResolutionTimeMinutes float64  `json:"resolution_time_minutes"`
}

// ResolutionStep is one ordered remediation step.
type ResolutionStep struct {
	Step            int    `json:"step"`
	Description     string `json:"description"`
	Command         string `json:"command,omitempty"`
	ExpectedOutcome string `json:"expected_outcome,omitempty"`
	Verification    string `json:"verification,omitempty"`
	Rollback        string `json:"rollback,omitempty"`
}

// MatchSummary is the trimmed view of a match embedded in section 1.
type MatchSummary struct {
	IncidentID            string  `json:"incident_id"`
	SimilarityScore       float64 `json:"similarity_score"`
	Category              string  `json:"category"`
	Priority              int     `json:"priority"`
	Description           string  `json:"description"`
	ResolutionTimeMinutes float64 `json:"resolution_time_minutes"`
}

// SimilarIncidentsSection lists the ranked matches the plan is based on.
type SimilarIncidentsSection struct {
	Title     string         `json:"title"`
	Count     int            `json:"count"`
	Incidents []MatchSummary `json:"incidents"`
}

// RootCauseSection carries the synthesized causal narrative.
type RootCauseSection struct {
	Title               string   `json:"title"`
	PrimaryCause        string   `json:"primary_cause"`
	ContributingFactors []string `json:"contributing_factors"`
	AnalysisDetails     Analysis `json:"analysis_details"`
}

// ResolutionStepsSection holds the ordered remediation plan.
type ResolutionStepsSection struct {
	Title         string           `json:"title"`
	Steps         []ResolutionStep `json:"steps"`
	BestPractices []string         `json:"best_practices"`
	EstimatedTime string           `json:"estimated_time"`
}

// MetadataSection reports confidence, risk, and generation details.
type MetadataSection struct {
	Title                 string             `json:"title"`
	ConfidenceScore       float64            `json:"confidence_score"`
	RiskLevel             string             `json:"risk_level"`
	SimilarIncidentsCount int                `json:"similar_incidents_count"`
	ModelUsed             string             `json:"model_used"`
	ProcessingMetadata    ProcessingMetadata `json:"processing_metadata"`
	ManualReviewRequired  bool               `json:"manual_review_required"`
}

// ResolutionReport is the fixed four-section output of the synthesizer.
// All four sections are present even when contributing data is empty.
type ResolutionReport struct {
	ReportID         string                  `json:"report_id"`
	IncidentID       string                  `json:"incident_id"`
	GeneratedAt      string                  `json:"generated_at"`
	SimilarIncidents SimilarIncidentsSection `json:"section_1_similar_incidents"`
	RootCause        RootCauseSection        `json:"section_2_root_cause"`
	ResolutionSteps  ResolutionStepsSection  `json:"section_3_resolution_steps"`
	Metadata         MetadataSection         `json:"section_4_metadata"`
}

// Envelope is the pipeline response contract: an HTTP-style status code
// plus a JSON-serialisable body.
type Envelope struct {
	StatusCode int `json:"statusCode"`
	Body       any `json:"body"`
}

// ErrorBody is the body shape for 4xx/5xx envelopes. IncidentID is always
// populated, "unknown" when the id could not be established.
type ErrorBody struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	IncidentID string `json:"incident_id"`
}

// SuccessBody is the 200 envelope body: enriched context plus the report.
type SuccessBody struct {
	Message               string            `json:"message"`
	IncidentID            string            `json:"incident_id"`
	ProcessingTimeSeconds float64           `json:"processing_time_seconds"`
	Context               ProcessingContext `json:"context"`
	Report                ResolutionReport  `json:"report"`
}
