package services

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/incidentstack/incident-resolve/internal/engine"
	"github.com/incidentstack/incident-resolve/internal/metrics"
	"github.com/incidentstack/incident-resolve/internal/models"
	"github.com/incidentstack/incident-resolve/internal/utils"
)

// ResolveService fronts the pipeline: it owns request timing, outcome
// metrics, and the rolling latency view against the 3-second target.
type ResolveService struct {
	logger    *slog.Logger
	pipeline  *engine.Pipeline
	latencies *utils.LatencyTracker
}

// NewResolveService constructs the service facade.
func NewResolveService(logger *slog.Logger, pipeline *engine.Pipeline) *ResolveService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolveService{
		logger:    logger,
		pipeline:  pipeline,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Resolve processes one raw incident payload and returns the response
// envelope. Concurrent calls are independent; the pipeline holds no
// per-incident state.
func (s *ResolveService) Resolve(ctx context.Context, raw []byte) models.Envelope {
	if s.pipeline == nil {
		return models.Envelope{
			StatusCode: http.StatusInternalServerError,
			Body: models.ErrorBody{
				Error:      "Internal processing error",
				Details:    "pipeline not configured",
				IncidentID: "unknown",
			},
		}
	}

	start := time.Now()
	envelope := s.pipeline.Process(ctx, raw)
	duration := time.Since(start)

	metrics.ObserveResolution(duration, outcomeLabel(envelope.StatusCode))

	if envelope.StatusCode == http.StatusOK {
		s.latencies.Observe(duration)
		if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
			p95 := s.latencies.Percentile(95)
			s.logger.Info("resolution latency", slog.Duration("p95", p95), slog.Int("samples", count))
		}
	}

	return envelope
}

// LatencyP95 returns the current p95 resolution latency.
func (s *ResolveService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}

func outcomeLabel(statusCode int) string {
	switch statusCode {
	case http.StatusOK:
		return metrics.OutcomeSuccess
	case http.StatusBadRequest:
		return metrics.OutcomeInvalid
	case http.StatusNotFound:
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
