package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels incidents that produced a resolution report.
	OutcomeSuccess = "success"
	// OutcomeInvalid labels incidents rejected by schema validation.
	OutcomeInvalid = "invalid"
	// OutcomeNotFound labels incidents with no similar history above threshold.
	OutcomeNotFound = "not_found"
	// OutcomeError labels pipeline or collaborator failures.
	OutcomeError = "error"
)

var (
	resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incident_resolve",
			Name:      "resolutions_total",
			Help:      "Total incidents processed, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	resolutionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "incident_resolve",
			Name:      "resolution_seconds",
			Help:      "End-to-end pipeline latency in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 1.5, 2, 2.5, 3, 4, 5, 8},
		},
	)

	stageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "incident_resolve",
			Name:      "stage_seconds",
			Help:      "Per-stage pipeline latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 1.5, 2, 3},
		},
		[]string{"stage"},
	)

	confidenceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "incident_resolve",
			Name:      "confidence_score",
			Help:      "Confidence scores of synthesized resolution reports.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
)

// Register attaches the resolution-engine collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		resolutionsTotal,
		resolutionDurationSeconds,
		stageDurationSeconds,
		confidenceScore,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveResolution records an end-to-end duration and outcome label.
func ObserveResolution(duration time.Duration, outcome string) {
	switch outcome {
	case OutcomeSuccess, OutcomeInvalid, OutcomeNotFound, OutcomeError:
	default:
		outcome = OutcomeError
	}
	resolutionsTotal.WithLabelValues(outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	resolutionDurationSeconds.Observe(duration.Seconds())
}

// ObserveStage records the duration of a single pipeline stage.
func ObserveStage(stage string, duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	stageDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveConfidence records a report confidence score.
func ObserveConfidence(score float64) {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	confidenceScore.Observe(score)
}
