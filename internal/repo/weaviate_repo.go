package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	wmodels "github.com/weaviate/weaviate/entities/models"

	"github.com/incidentstack/incident-resolve/internal/models"
)

// BatchSize is the number of incidents imported per batch call.
const BatchSize = 100

// HistoricalIncident is a resolved incident as stored in the index,
// written by the seeding path and read back by similarity queries.
type HistoricalIncident struct {
	IncidentID            string   `json:"incident_id"`
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
	Symptoms              string   `json:"symptoms"`
}

// IncidentIndex provides vector access to historical incidents in Weaviate.
type IncidentIndex struct {
	client    *weaviate.Client
	class     string
	dimension int
}

// NewIncidentIndex constructs an index client for the given endpoint.
// The scheme is taken from the endpoint prefix, defaulting to http.
func NewIncidentIndex(endpoint, apiKey, class string, dimension int) (*IncidentIndex, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("weaviate endpoint not configured")
	}
	if class == "" {
		class = "HistoricalIncident"
	}
	if dimension <= 0 {
		dimension = 1536
	}

	scheme := "http"
	host := endpoint
	if strings.HasPrefix(endpoint, "https://") {
		scheme = "https"
		host = strings.TrimPrefix(endpoint, "https://")
	} else if strings.HasPrefix(endpoint, "http://") {
		host = strings.TrimPrefix(endpoint, "http://")
	}
	host = strings.TrimRight(host, "/")

	cfg := weaviate.Config{Host: host, Scheme: scheme}
	if apiKey != "" {
		cfg.Headers = map[string]string{"Authorization": "Bearer " + apiKey}
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	return &IncidentIndex{client: client, class: class, dimension: dimension}, nil
}

// EnsureSchema creates the incident class if it does not exist. Idempotent.
func (x *IncidentIndex) EnsureSchema(ctx context.Context) error {
	_, err := x.client.Schema().ClassGetter().WithClassName(x.class).Do(ctx)
	if err == nil {
		return nil
	}

	if err := x.client.Schema().ClassCreator().WithClass(x.classSchema()).Do(ctx); err != nil {
		return fmt.Errorf("creating %s schema: %w", x.class, err)
	}
	return nil
}

func (x *IncidentIndex) classSchema() *wmodels.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &wmodels.Class{
		Class:       x.class,
		Description: "Resolved historical incidents with their embeddings",
		Vectorizer:  "none",
		VectorIndexConfig: map[string]interface{}{
			"distance": "cosine",
		},
		Properties: []*wmodels.Property{
			{
				Name:            "incidentId",
				DataType:        []string{"text"},
				Description:     "Unique incident identifier",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:         "description",
				DataType:     []string{"text"},
				Description:  "Free-text incident description",
				Tokenization: "word",
			},
			{
				Name:         "resolution",
				DataType:     []string{"text"},
				Description:  "Narrative of how the incident was resolved",
				Tokenization: "word",
			},
			{
				Name:         "rootCause",
				DataType:     []string{"text"},
				Description:  "Identified root cause",
				Tokenization: "word",
			},
			{
				Name:            "category",
				DataType:        []string{"text"},
				Description:     "Incident category used for hard filtering",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:        "priority",
				DataType:    []string{"int"},
				Description: "Numeric priority, 1 is most severe",
			},
			{
				Name:            "severity",
				DataType:        []string{"text"},
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:     "affectedSystems",
				DataType: []string{"text[]"},
			},
			{
				Name:         "timestamp",
				DataType:     []string{"text"},
				Tokenization: "field",
			},
			{
				Name:         "resolvedAt",
				DataType:     []string{"text"},
				Tokenization: "field",
			},
			{
				Name:     "resolutionTimeMinutes",
				DataType: []string{"number"},
			},
			{
				Name:         "symptoms",
				DataType:     []string{"text"},
				Tokenization: "word",
			},
		},
	}
}

// IndexIncidents batch imports historical incidents with their vectors.
// vectors[i] belongs to incidents[i] and must match the index dimension.
func (x *IncidentIndex) IndexIncidents(ctx context.Context, incidents []HistoricalIncident, vectors [][]float32) (int, error) {
	if len(incidents) != len(vectors) {
		return 0, fmt.Errorf("incident/vector count mismatch: %d vs %d", len(incidents), len(vectors))
	}
	if len(incidents) == 0 {
		return 0, nil
	}

	indexed := 0
	for i := 0; i < len(incidents); i += BatchSize {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}

		end := i + BatchSize
		if end > len(incidents) {
			end = len(incidents)
		}

		objects := make([]*wmodels.Object, 0, end-i)
		for j := i; j < end; j++ {
			if len(vectors[j]) != x.dimension {
				return indexed, fmt.Errorf("vector %d has dimension %d, want %d", j, len(vectors[j]), x.dimension)
			}
			objects = append(objects, &wmodels.Object{
				Class:  x.class,
				Vector: wmodels.C11yVector(vectors[j]),
				Properties: map[string]interface{}{
					"incidentId":            incidents[j].IncidentID,
					"description":           incidents[j].Description,
					"resolution":            incidents[j].Resolution,
					"rootCause":             incidents[j].RootCause,
					"category":              incidents[j].Category,
					"priority":              incidents[j].Priority,
					"severity":              incidents[j].Severity,
					"affectedSystems":       incidents[j].AffectedSystems,
					"timestamp":             incidents[j].Timestamp,
					"resolvedAt":            incidents[j].ResolvedAt,
					"resolutionTimeMinutes": incidents[j].ResolutionTimeMinutes,
					"symptoms":              incidents[j].Symptoms,
				},
			})
		}

		result, err := x.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
		if err != nil {
			return indexed, fmt.Errorf("batch import failed: %w", err)
		}
		for _, obj := range result {
			if obj.Result != nil && obj.Result.Errors == nil {
				indexed++
			}
		}
	}

	return indexed, nil
}

// QuerySimilar runs a nearVector k-NN search and returns candidates with
// their certainty attached as the similarity score. Certainty is already
// normalised to [0, 1]; threshold filtering is the caller's concern.
func (x *IncidentIndex) QuerySimilar(ctx context.Context, vector []float32, category string, topK int) ([]models.SimilarIncidentMatch, error) {
	if x == nil || x.client == nil {
		return nil, fmt.Errorf("incident index not initialised")
	}
	if len(vector) != x.dimension {
		return nil, fmt.Errorf("query vector has dimension %d, want %d", len(vector), x.dimension)
	}
	if topK <= 0 {
		topK = 5
	}

	fields := []graphql.Field{
		{Name: "incidentId"},
		{Name: "description"},
		{Name: "resolution"},
		{Name: "rootCause"},
		{Name: "category"},
		{Name: "priority"},
		{Name: "severity"},
		{Name: "affectedSystems"},
		{Name: "timestamp"},
		{Name: "resolvedAt"},
		{Name: "resolutionTimeMinutes"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}

	nearVector := x.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	getBuilder := x.client.GraphQL().Get().
		WithClassName(x.class).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(topK)

	if category != "" {
		getBuilder = getBuilder.WithWhere(
			filters.Where().
				WithPath([]string{"category"}).
				WithOperator(filters.Equal).
				WithValueString(category))
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("similarity query error: %s", result.Errors[0].Message)
	}

	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return []models.SimilarIncidentMatch{}, nil
	}
	objects, ok := data[x.class].([]interface{})
	if !ok {
		return []models.SimilarIncidentMatch{}, nil
	}

	matches := make([]models.SimilarIncidentMatch, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}
		matches = append(matches, parseMatch(m))
	}
	return matches, nil
}

func parseMatch(m map[string]interface{}) models.SimilarIncidentMatch {
	match := models.SimilarIncidentMatch{
		IncidentID:            getString(m, "incidentId"),
		Description:           getString(m, "description"),
		Resolution:            getString(m, "resolution"),
		RootCause:             getString(m, "rootCause"),
		Category:              getString(m, "category"),
		Priority:              int(getNumber(m, "priority")),
		Severity:              getString(m, "severity"),
		AffectedSystems:       getStrings(m, "affectedSystems"),
		Timestamp:             getString(m, "timestamp"),
		ResolvedAt:            getString(m, "resolvedAt"),
		ResolutionTimeMinutes: getNumber(m, "resolutionTimeMinutes"),
	}
	if additional, ok := m["_additional"].(map[string]interface{}); ok {
		match.SimilarityScore = getNumber(additional, "certainty")
	}
	return match
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getNumber(m map[string]interface{}, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}

func getStrings(m map[string]interface{}, key string) []string {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			values = append(values, s)
		}
	}
	return values
}
