package models

// Incident categories accepted at ingress.
const (
	CategoryPerformance  = "Performance"
	CategoryAvailability = "Availability"
	CategoryNetwork      = "Network"
	CategorySecurity     = "Security"
)

// Severity labels, shared by incidents and analysis output.
const (
	SeverityCritical = "Critical"
	SeverityHigh     = "High"
	SeverityMedium   = "Medium"
	SeverityLow      = "Low"
)

// PriorityLabels maps the numeric priority onto its display label.
var PriorityLabels = map[int]string{
	1: SeverityCritical,
	2: SeverityHigh,
	3: SeverityMedium,
	4: SeverityLow,
}

// Incident is a validated, enriched incident report. Immutable once built.
type Incident struct {
	IncidentID      string   `json:"incident_id"`
	Priority        int      `json:"priority"`
	PriorityLabel   string   `json:"priority_label"`
	Category        string   `json:"category"`
	Description     string   `json:"description"`
	AffectedSystems []string `json:"affected_systems"`
	Severity        string   `json:"severity"`
	Source          string   `json:"source"`
	Timestamp       string   `json:"timestamp"`
	ReceivedAt      string   `json:"received_at"`
}

// Workflow tracks pipeline progress for a single incident.
type Workflow struct {
	Step      int    `json:"step"`
	Stage     string `json:"stage"`
	NextStep  string `json:"next_step"`
	StartedAt string `json:"started_at"`
}

// ConfigSnapshot freezes tunables at context-creation time so later
// stages are unaffected by config drift.
type ConfigSnapshot struct {
	SimilarityThreshold float64 `json:"similarity_threshold"`
	TopKSimilar         int     `json:"top_k_similar"`
	MaxTokens           int     `json:"max_tokens"`
	ModelID             string  `json:"model_id"`
}

// ProcessingContext carries one incident through the pipeline. Owned by a
// single invocation and discarded once the response is produced.
type ProcessingContext struct {
	Incident      Incident       `json:"incident_metadata"`
	Workflow      Workflow       `json:"workflow"`
	Configuration ConfigSnapshot `json:"configuration"`
}
