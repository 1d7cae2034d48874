package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// mock-inference serves canned OpenAI-style chat completions so the
// resolution engine can run locally without a real model endpoint. It
// inspects the prompt to decide whether an analysis or a resolution
// response is expected.

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

const analysisResponse = `{
  "incident_type": "Performance",
  "primary_symptoms": ["High CPU usage", "Degraded response time"],
  "affected_components": ["web-prod-01"],
  "key_technical_terms": ["CPU", "response time", "threshold"],
  "severity_assessment": "High",
  "time_criticality": "High"
}`

const resolutionResponse = `{
  "root_cause_analysis": {
    "primary_cause": "Runaway worker process saturating CPU on the affected host",
    "contributing_factors": ["Missing CPU limits", "Stale autoscaling policy"]
  },
  "resolution_steps": [
    {
      "step": 1,
      "description": "Identify the process consuming CPU",
      "command": "top -o %CPU",
      "expected_outcome": "Offending process visible at the top of the list",
      "verification": "CPU attribution confirmed",
      "rollback": "None required"
    },
    {
      "step": 2,
      "description": "Restart the affected service",
      "command": "systemctl restart web-prod",
      "expected_outcome": "CPU usage returns below 70%",
      "verification": "Monitor CPU for 10 minutes",
      "rollback": "Revert to previous deployment"
    }
  ],
  "best_practices": ["Set CPU limits on all production workloads"],
  "risk_assessment": {
    "risk_level": "Medium",
    "confidence_score": 0.85
  },
  "estimated_resolution_time": "30 minutes"
}`

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var req chatRequest
		if err := json.Unmarshal(body, &req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		content := analysisResponse
		if isResolutionPrompt(req) {
			content = resolutionResponse
		}

		writeJSON(w, map[string]any{
			"id":      "chatcmpl-mock",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   req.Model,
			"choices": []map[string]any{
				{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     250,
				"completion_tokens": 400,
				"total_tokens":      650,
			},
		})
	})

	logger := log.New(log.Writer(), "inference-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":8090",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :8090")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func isResolutionPrompt(req chatRequest) bool {
	for _, msg := range req.Messages {
		if strings.Contains(msg.Content, "resolution plan") || strings.Contains(msg.Content, "Similar Past Incidents") {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
