package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/incidentstack/incident-resolve/internal/config"
	"github.com/incidentstack/incident-resolve/internal/engine"
	"github.com/incidentstack/incident-resolve/internal/repo"
	"github.com/incidentstack/incident-resolve/internal/utils"
)

// seed-history creates the Weaviate class and imports resolved incidents,
// either from a JSON file or generated sample data.
func main() {
	var (
		configPath string
		filePath   string
		count      int
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&filePath, "file", "", "JSON file of historical incidents to import")
	flag.IntVar(&count, "count", 1000, "Number of sample incidents to generate when no file is given")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)

	index, err := repo.NewIncidentIndex(
		cfg.Weaviate.Endpoint,
		cfg.Weaviate.APIKey,
		cfg.Weaviate.Class,
		cfg.Weaviate.Dimension,
	)
	if err != nil {
		logger.Error("failed to create weaviate client", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := index.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("schema ready", slog.String("class", cfg.Weaviate.Class))

	var incidents []repo.HistoricalIncident
	if filePath != "" {
		incidents, err = loadIncidentsFile(filePath)
		if err != nil {
			logger.Error("failed to load incidents file", slog.String("file", filePath), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("loaded incidents from file", slog.String("file", filePath), slog.Int("count", len(incidents)))
	} else {
		incidents = generateSampleIncidents(count)
		logger.Info("generated sample incidents", slog.Int("count", len(incidents)))
	}

	embedder := engine.NewDeterministicEmbedder(cfg.Weaviate.Dimension)
	vectors := make([][]float32, len(incidents))
	for i, incident := range incidents {
		vectors[i] = embedder.Embed(incident.Description)
	}

	start := time.Now()
	indexed, err := index.IndexIncidents(ctx, incidents, vectors)
	if err != nil {
		logger.Error("import failed",
			slog.Int("indexed", indexed),
			slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("import completed",
		slog.Int("total", len(incidents)),
		slog.Int("indexed", indexed),
		slog.Int("failed", len(incidents)-indexed),
		slog.Duration("duration", time.Since(start)))
}

func loadIncidentsFile(path string) ([]repo.HistoricalIncident, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var incidents []repo.HistoricalIncident
	if err := json.Unmarshal(data, &incidents); err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}
	for i := range incidents {
		if incidents[i].Symptoms == "" {
			incidents[i].Symptoms = incidents[i].Description
		}
		if incidents[i].ResolutionTimeMinutes == 0 && incidents[i].Timestamp != "" && incidents[i].ResolvedAt != "" {
			opened, errOpen := utils.ParseRFC3339(incidents[i].Timestamp)
			resolved, errResolved := utils.ParseRFC3339(incidents[i].ResolvedAt)
			if errOpen == nil && errResolved == nil {
				incidents[i].ResolutionTimeMinutes = utils.ResolutionMinutes(opened, resolved)
			}
		}
	}
	return incidents, nil
}

var (
	sampleCategories = []string{"Performance", "Availability", "Network", "Security"}
	sampleSeverities = []string{"Critical", "High", "Medium", "Low"}

	sampleSystems = []string{
		"web-prod-01", "app-server-01", "db-primary", "cache-cluster",
		"api-gateway", "worker-node-03", "message-queue", "auth-service",
	}

	performanceTemplates = []string{
		"High CPU usage (%d%%) detected on %s. Response time degraded from %dms to %dms.",
		"Memory leak detected on %s. Memory usage increased from %d%% to %d%% over %d hours.",
		"Database query performance degradation. Average query time increased from %dms to %dms.",
		"Application thread pool exhausted on %s. %d pending requests in queue.",
		"Disk I/O bottleneck on %s. Read/write latency increased to %dms.",
	}

	availabilityTemplates = []string{
		"%s service down. Last successful health check %d minutes ago.",
		"Database connection pool exhausted. Max connections (%d) reached.",
		"Load balancer health check failing for %s. %d failed checks in last %d minutes.",
		"Kubernetes pod %s in CrashLoopBackOff state. Restart count: %d.",
		"Service %s returning HTTP 503 errors. Error rate: %d%%.",
	}

	resolutionTemplates = []string{
		"Restarted service and cleared cache. Issue resolved.",
		"Increased resource limits. CPU threshold adjusted to prevent false alarms.",
		"Fixed memory leak in application code. Deployed patch.",
		"Scaled up instance count. Added 2 additional nodes.",
		"Database index optimization. Query performance restored.",
	}
)

// generateSampleIncidents builds plausible resolved incidents for pilot
// environments where no real history exists.
func generateSampleIncidents(count int) []repo.HistoricalIncident {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	incidents := make([]repo.HistoricalIncident, 0, count)

	for i := 0; i < count; i++ {
		category := sampleCategories[rng.Intn(len(sampleCategories))]
		priority := 1 + rng.Intn(4)
		system := sampleSystems[rng.Intn(len(sampleSystems))]
		description := sampleDescription(rng, category, system)

		resolutionMinutes := 10 + rng.Intn(231)
		opened := time.Now().UTC().AddDate(0, 0, -(1 + rng.Intn(90)))
		resolved := opened.Add(time.Duration(resolutionMinutes) * time.Minute)

		incidents = append(incidents, repo.HistoricalIncident{
			IncidentID:            fmt.Sprintf("INC%07d", i+10000),
			Description:           description,
			Resolution:            resolutionTemplates[rng.Intn(len(resolutionTemplates))],
			RootCause:             fmt.Sprintf("%s issue due to resource constraints or configuration", category),
			Category:              category,
			Priority:              priority,
			Severity:              sampleSeverities[priority-1],
			AffectedSystems:       []string{system},
			Timestamp:             opened.Format(time.RFC3339),
			ResolvedAt:            resolved.Format(time.RFC3339),
			ResolutionTimeMinutes: float64(resolutionMinutes),
			Symptoms:              description,
		})
	}

	return incidents
}

func sampleDescription(rng *rand.Rand, category, system string) string {
	switch category {
	case "Performance":
		switch rng.Intn(len(performanceTemplates)) {
		case 0:
			return fmt.Sprintf(performanceTemplates[0], 85+rng.Intn(15), system, 100+rng.Intn(401), 1000+rng.Intn(4001))
		case 1:
			return fmt.Sprintf(performanceTemplates[1], system, 60+rng.Intn(16), 85+rng.Intn(15), 2+rng.Intn(11))
		case 2:
			return fmt.Sprintf(performanceTemplates[2], 100+rng.Intn(401), 1000+rng.Intn(4001))
		case 3:
			return fmt.Sprintf(performanceTemplates[3], system, 50+rng.Intn(451))
		default:
			return fmt.Sprintf(performanceTemplates[4], system, 500+rng.Intn(1501))
		}
	case "Availability":
		switch rng.Intn(len(availabilityTemplates)) {
		case 0:
			return fmt.Sprintf(availabilityTemplates[0], system, 5+rng.Intn(26))
		case 1:
			return fmt.Sprintf(availabilityTemplates[1], 10+rng.Intn(91))
		case 2:
			return fmt.Sprintf(availabilityTemplates[2], system, 10+rng.Intn(91), 5+rng.Intn(26))
		case 3:
			return fmt.Sprintf(availabilityTemplates[3], system, 10+rng.Intn(91))
		default:
			return fmt.Sprintf(availabilityTemplates[4], system, 50+rng.Intn(46))
		}
	default:
		return fmt.Sprintf("%s issue detected on %s", category, system)
	}
}
