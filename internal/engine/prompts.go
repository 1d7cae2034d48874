package engine

import (
	"fmt"
	"strings"

	"github.com/incidentstack/incident-resolve/internal/models"
)

const analysisPromptTemplate = `Analyze this incident and extract key information:

Incident ID: %s
Priority: %s
Category: %s
Description: %s
Affected Systems: %s
Timestamp: %s

Please extract and provide:
1. **Incident Type**: Classify as Performance, Availability, Network, or Security
2. **Primary Symptoms**: List the main observable issues
3. **Affected Components**: Identify servers, applications, or services involved
4. **Key Technical Terms**: Extract relevant technical keywords and error codes
5. **Severity Assessment**: Evaluate the impact level (Critical/High/Medium/Low)
6. **Time Criticality**: Assess if immediate action is required

Provide the analysis in JSON format with keys: incident_type, primary_symptoms,
affected_components, key_technical_terms, severity_assessment, time_criticality.`

const resolutionPromptTemplate = `Based on the incident analysis and similar past cases, generate a comprehensive resolution plan:

**Current Incident Analysis:**
%s

**Similar Past Incidents (Top %d matches):**
%s

Please provide a detailed resolution plan with:

1. **Root Cause Analysis**:
   - Primary cause of the incident
   - Contributing factors
   - Why this incident occurred

2. **Resolution Steps** (numbered, detailed):
   - Step-by-step instructions
   - Specific commands to execute (with explanations)
   - Expected outcomes for each step
   - Verification steps
   - Rollback procedures if needed

3. **Best Practices**:
   - Prevention measures for future
   - Monitoring recommendations
   - Documentation to update

4. **Risk Assessment**:
   - Risk Level: Low/Medium/High
   - Confidence Score: 0.0 to 1.0 (how confident in this resolution)

5. **Estimated Resolution Time**: Provide time estimate

Provide the response as a JSON object with keys: root_cause_analysis
{primary_cause, contributing_factors}, resolution_steps, best_practices,
risk_assessment {risk_level, confidence_score}, estimated_resolution_time.`

func buildAnalysisPrompt(incident models.Incident) string {
	return fmt.Sprintf(analysisPromptTemplate,
		incident.IncidentID,
		incident.PriorityLabel,
		incident.Category,
		incident.Description,
		strings.Join(incident.AffectedSystems, ", "),
		incident.Timestamp,
	)
}

func buildResolutionPrompt(analysisJSON string, matches []models.SimilarIncidentMatch) string {
	return fmt.Sprintf(resolutionPromptTemplate, analysisJSON, len(matches), formatSimilarIncidents(matches))
}

func formatSimilarIncidents(matches []models.SimilarIncidentMatch) string {
	var sb strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&sb, "Incident %d:\n", i+1)
		fmt.Fprintf(&sb, "- ID: %s\n", m.IncidentID)
		fmt.Fprintf(&sb, "- Similarity Score: %.2f\n", m.SimilarityScore)
		fmt.Fprintf(&sb, "- Category: %s\n", m.Category)
		fmt.Fprintf(&sb, "- Priority: %d\n", m.Priority)
		fmt.Fprintf(&sb, "- Description: %s\n", m.Description)
		fmt.Fprintf(&sb, "- Root Cause: %s\n", orNotAvailable(m.RootCause))
		fmt.Fprintf(&sb, "- Resolution: %s\n", orNotAvailable(m.Resolution))
		fmt.Fprintf(&sb, "- Resolution Time: %s minutes\n\n", formatMinutes(m.ResolutionTimeMinutes))
	}
	return sb.String()
}

// buildEmbeddingText concatenates the fields that define an incident's
// semantic identity. The exact layout matters: the embedding is seeded
// from this text, so any change re-keys the whole index.
func buildEmbeddingText(incident models.Incident, symptoms []string) string {
	return fmt.Sprintf("Incident: %s\nCategory: %s\nPriority: %s\nSymptoms: %s\nAffected Systems: %s\n",
		incident.Description,
		incident.Category,
		incident.PriorityLabel,
		strings.Join(symptoms, ", "),
		strings.Join(incident.AffectedSystems, ", "),
	)
}

func orNotAvailable(value string) string {
	if value == "" {
		return "Not available"
	}
	return value
}

func formatMinutes(minutes float64) string {
	if minutes <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.0f", minutes)
}
