package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/incidentstack/incident-resolve/internal/metrics"
	"github.com/incidentstack/incident-resolve/internal/models"
	"github.com/incidentstack/incident-resolve/internal/validate"
)

// SimilarityIndex describes the vector index operations the pipeline needs.
type SimilarityIndex interface {
	QuerySimilar(ctx context.Context, vector []float32, category string, topK int) ([]models.SimilarIncidentMatch, error)
}

// Stage names used in telemetry.
const (
	StageValidation = "validation"
	StageAnalysis   = "analysis"
	StageQuery      = "similarity_query"
	StageSynthesis  = "resolution_synthesis"
)

// Pipeline sequences validation, enrichment, analysis, similarity retrieval,
// and resolution synthesis for one incident, mapping internal outcomes onto
// the {statusCode, body} response contract.
type Pipeline struct {
	logger      *slog.Logger
	validator   *validate.Validator
	analyzer    *Analyzer
	synthesizer *Synthesizer
	index       SimilarityIndex
	snapshot    models.ConfigSnapshot
}

// NewPipeline constructs a resolution pipeline. The snapshot records the
// similarity and model tunables frozen into each processing context.
func NewPipeline(
	logger *slog.Logger,
	validator *validate.Validator,
	analyzer *Analyzer,
	synthesizer *Synthesizer,
	index SimilarityIndex,
	snapshot models.ConfigSnapshot,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = validate.New()
	}
	if snapshot.TopKSimilar <= 0 {
		snapshot.TopKSimilar = 5
	}
	if snapshot.SimilarityThreshold <= 0 {
		snapshot.SimilarityThreshold = 0.75
	}
	return &Pipeline{
		logger:      logger,
		validator:   validator,
		analyzer:    analyzer,
		synthesizer: synthesizer,
		index:       index,
		snapshot:    snapshot,
	}
}

// Process runs one raw incident payload through the full pipeline. It never
// returns an error: every outcome is expressed as a response envelope.
func (p *Pipeline) Process(ctx context.Context, raw []byte) models.Envelope {
	start := time.Now()

	payload := extractPayload(raw)
	incidentID := peekIncidentID(payload)

	stageStart := time.Now()
	incident, err := p.validator.Validate(payload)
	p.observeStage(StageValidation, incidentID, stageStart, err == nil)
	if err != nil {
		var verr *validate.Error
		details := err.Error()
		if errors.As(err, &verr) {
			details = verr.Field + " " + verr.Reason
		}
		return models.Envelope{
			StatusCode: 400,
			Body: models.ErrorBody{
				Error:      "Invalid incident data format",
				Details:    details,
				IncidentID: incidentID,
			},
		}
	}
	incidentID = incident.IncidentID

	incident = enrich(incident)
	pctx := p.buildContext(incident)

	stageStart = time.Now()
	analysis, err := p.analyzer.Analyze(ctx, pctx)
	p.observeStage(StageAnalysis, incidentID, stageStart, err == nil)
	if err != nil {
		p.logger.Error("analysis stage failed", slog.String("incident_id", incidentID), slog.Any("error", err))
		return serverError("Incident analysis failed", err, incidentID)
	}

	stageStart = time.Now()
	candidates, err := p.index.QuerySimilar(ctx, analysis.Embedding, analysis.Classification.PrimaryCategory, p.snapshot.TopKSimilar)
	p.observeStage(StageQuery, incidentID, stageStart, err == nil)
	if err != nil {
		p.logger.Error("similarity query failed", slog.String("incident_id", incidentID), slog.Any("error", err))
		return serverError("Similarity query failed", err, incidentID)
	}
	matches := RankMatches(candidates, p.snapshot.SimilarityThreshold, p.snapshot.TopKSimilar)

	stageStart = time.Now()
	report, err := p.synthesizer.Synthesize(ctx, analysis, matches)
	if errors.Is(err, ErrNoSimilarIncidents) {
		p.observeStage(StageSynthesis, incidentID, stageStart, true)
		return models.Envelope{
			StatusCode: 404,
			Body: models.ErrorBody{
				Error:      "No similar incidents found in vector database",
				IncidentID: incidentID,
			},
		}
	}
	p.observeStage(StageSynthesis, incidentID, stageStart, err == nil)
	if err != nil {
		p.logger.Error("synthesis stage failed", slog.String("incident_id", incidentID), slog.Any("error", err))
		return serverError("Resolution generation failed", err, incidentID)
	}

	metrics.ObserveConfidence(report.Metadata.ConfidenceScore)

	elapsed := time.Since(start)
	p.logger.Info("resolution plan generated",
		slog.String("incident_id", incidentID),
		slog.Float64("confidence", report.Metadata.ConfidenceScore),
		slog.Duration("duration", elapsed))

	return models.Envelope{
		StatusCode: 200,
		Body: models.SuccessBody{
			Message:               "Resolution plan generated successfully",
			IncidentID:            incidentID,
			ProcessingTimeSeconds: roundSeconds(elapsed),
			Context:               pctx,
			Report:                report,
		},
	}
}

func (p *Pipeline) observeStage(stage, incidentID string, start time.Time, success bool) {
	elapsed := time.Since(start)
	metrics.ObserveStage(stage, elapsed)
	p.logger.Debug("stage completed",
		slog.String("incident_id", incidentID),
		slog.String("stage", stage),
		slog.Duration("duration", elapsed),
		slog.Bool("success", success))
}

func (p *Pipeline) buildContext(incident models.Incident) models.ProcessingContext {
	return models.ProcessingContext{
		Incident: incident,
		Workflow: models.Workflow{
			Step:      1,
			Stage:     "orchestration",
			NextStep:  "analysis",
			StartedAt: time.Now().UTC().Format(time.RFC3339),
		},
		Configuration: p.snapshot,
	}
}

// enrich applies the fixed priority→label map and fills defaults for the
// optional fields.
func enrich(incident models.Incident) models.Incident {
	incident.PriorityLabel = models.PriorityLabels[incident.Priority]
	if incident.Severity == "" {
		incident.Severity = models.SeverityMedium
	}
	if incident.Source == "" {
		incident.Source = "Unknown"
	}
	if incident.AffectedSystems == nil {
		incident.AffectedSystems = []string{}
	}
	incident.ReceivedAt = time.Now().UTC().Format(time.RFC3339)
	return incident
}

// extractPayload unwraps the invocation envelope: a "body" member (object
// or JSON-encoded string) takes precedence, otherwise the payload is the
// incident object itself.
func extractPayload(raw []byte) []byte {
	var envelope struct {
		Body json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Body) == 0 {
		return raw
	}

	body := envelope.Body
	if body[0] == '"' {
		var inner string
		if err := json.Unmarshal(body, &inner); err == nil {
			return []byte(inner)
		}
	}
	return body
}

func peekIncidentID(payload []byte) string {
	var probe struct {
		IncidentID string `json:"incident_id"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil || probe.IncidentID == "" {
		return "unknown"
	}
	return probe.IncidentID
}

func serverError(message string, err error, incidentID string) models.Envelope {
	return models.Envelope{
		StatusCode: 500,
		Body: models.ErrorBody{
			Error:      message,
			Details:    err.Error(),
			IncidentID: incidentID,
		},
	}
}
