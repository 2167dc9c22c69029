package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Extraction providers accepted in LLM_PROVIDER.
const (
	ProviderHTTP   = "http"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds all application configuration
type Config struct {
	OCR      OCRConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Storage  StorageConfig
	Server   ServerConfig
	Jobs     JobsConfig
	Log      LogConfig
}

type OCRConfig struct {
	APIKey            string
	Endpoint          string
	Language          string
	Engine            string
	Timeout           time.Duration
	RequestsPerMinute int
}

type LLMConfig struct {
	Provider     string
	Endpoint     string
	Model        string
	Timeout      time.Duration
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
}

type PipelineConfig struct {
	IsolatePageFailures bool
}

type StorageConfig struct {
	Bucket          string
	BigQueryProject string
	BigQueryDataset string
}

type ServerConfig struct {
	Port string
}

type JobsConfig struct {
	Workers    int
	MaxRetries int
	Timeout    time.Duration
}

type LogConfig struct {
	Level string
	JSON  bool
}

// Load reads configuration from environment variables, after loading a .env file
// from the working directory when one exists.
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		OCR: OCRConfig{
			APIKey:            getEnv("OCR_SPACE_API_KEY", ""),
			Endpoint:          getEnv("OCR_ENDPOINT", "https://api.ocr.space/parse/image"),
			Language:          getEnv("OCR_LANGUAGE", "eng"),
			Engine:            getEnv("OCR_ENGINE", "2"),
			Timeout:           getEnvAsDuration("OCR_TIMEOUT", 60*time.Second),
			RequestsPerMinute: getEnvAsInt("OCR_REQUESTS_PER_MINUTE", 0),
		},
		LLM: LLMConfig{
			Provider:     strings.ToLower(getEnv("LLM_PROVIDER", ProviderHTTP)),
			Endpoint:     getEnv("LLM_ENDPOINT", "http://localhost:11434/api/generate"),
			Model:        getEnv("LLM_MODEL", "llama3"),
			Timeout:      getEnvAsDuration("LLM_TIMEOUT", 2*time.Minute),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-5-mini"),
		},
		Pipeline: PipelineConfig{
			IsolatePageFailures: getEnvAsBool("PIPELINE_ISOLATE_PAGE_FAILURES", false),
		},
		Storage: StorageConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			BigQueryProject: getEnv("BIGQUERY_PROJECT", ""),
			BigQueryDataset: getEnv("BIGQUERY_DATASET", "statements"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Jobs: JobsConfig{
			Workers:    getEnvAsInt("JOB_WORKERS", 2),
			MaxRetries: getEnvAsInt("JOB_MAX_RETRIES", 0),
			Timeout:    getEnvAsDuration("JOB_TIMEOUT", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			JSON:  strings.EqualFold(getEnv("LOG_FORMAT", "console"), "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDotEnv loads a .env file from the working directory into the process
// environment. A missing file is not an error; variables already set win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("config: loading .env: %w", err)
	}
	return nil
}

// Validate checks the credentials and endpoints the pipeline needs at start-up.
func (c *Config) Validate() error {
	if c.OCR.APIKey == "" {
		return errors.New("OCR_SPACE_API_KEY is required")
	}

	switch c.LLM.Provider {
	case ProviderHTTP:
		if c.LLM.Endpoint == "" {
			return errors.New("LLM_ENDPOINT is required when LLM_PROVIDER=http")
		}
	case ProviderGemini:
		if c.LLM.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	case ProviderOpenAI:
		if c.LLM.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (expected http, gemini or openai)", c.LLM.Provider)
	}

	if c.Jobs.Workers < 1 {
		return fmt.Errorf("JOB_WORKERS must be at least 1, got %d", c.Jobs.Workers)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
