package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the resolution engine.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Inference InferenceConfig `yaml:"inference"`
	Weaviate  WeaviateConfig  `yaml:"weaviate"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// InferenceConfig configures the OpenAI-compatible inference endpoint.
type InferenceConfig struct {
	Endpoint          string        `yaml:"endpoint"`
	APIKey            string        `yaml:"apiKey"`
	Model             string        `yaml:"model"`
	MaxTokens         int           `yaml:"maxTokens"`
	AnalysisMaxTokens int           `yaml:"analysisMaxTokens"`
	Temperature       float32       `yaml:"temperature"`
	Timeout           time.Duration `yaml:"timeout"`
}

// WeaviateConfig configures the similarity index cluster.
type WeaviateConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	APIKey    string        `yaml:"apiKey"`
	Class     string        `yaml:"class"`
	Dimension int           `yaml:"dimension"`
	Timeout   time.Duration `yaml:"timeout"`
}

// PipelineConfig holds the similarity and latency tunables snapshotted
// into each processing context.
type PipelineConfig struct {
	SimilarityThreshold float64       `yaml:"similarityThreshold"`
	TopKSimilar         int           `yaml:"topKSimilar"`
	RequestTimeout      time.Duration `yaml:"requestTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("RESOLVE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Inference: InferenceConfig{
			Model:             "gpt-4o",
			MaxTokens:         3000,
			AnalysisMaxTokens: 2000,
			Temperature:       0.7,
			Timeout:           3 * time.Second,
		},
		Weaviate: WeaviateConfig{
			Class:     "HistoricalIncident",
			Dimension: 1536,
			Timeout:   3 * time.Second,
		},
		Pipeline: PipelineConfig{
			SimilarityThreshold: 0.75,
			TopKSimilar:         5,
			RequestTimeout:      3 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RESOLVE_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("RESOLVE_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("RESOLVE_INFERENCE_ENDPOINT"); v != "" {
		cfg.Inference.Endpoint = v
	}
	if v := os.Getenv("RESOLVE_INFERENCE_API_KEY"); v != "" {
		cfg.Inference.APIKey = v
	}
	if v := os.Getenv("RESOLVE_INFERENCE_MODEL"); v != "" {
		cfg.Inference.Model = v
	}
	if v := os.Getenv("RESOLVE_INFERENCE_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Inference.MaxTokens = n
		}
	}
	if v := os.Getenv("RESOLVE_INFERENCE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Inference.Timeout = d
		}
	}
	if v := os.Getenv("RESOLVE_WEAVIATE_URL"); v != "" {
		cfg.Weaviate.Endpoint = v
	}
	if v := os.Getenv("RESOLVE_WEAVIATE_API_KEY"); v != "" {
		cfg.Weaviate.APIKey = v
	}
	if v := os.Getenv("RESOLVE_WEAVIATE_CLASS"); v != "" {
		cfg.Weaviate.Class = v
	}
	if v := os.Getenv("RESOLVE_SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			cfg.Pipeline.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("RESOLVE_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Pipeline.TopKSimilar = n
		}
	}
	if v := os.Getenv("RESOLVE_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Pipeline.RequestTimeout = d
		}
	}
	if v := os.Getenv("RESOLVE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RESOLVE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
}
