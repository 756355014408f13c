package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Extract  ExtractConfig `yaml:"extract"`
	LLM      LLMConfig     `yaml:"llm"`
	Session  SessionConfig `yaml:"session"`
	Journal  JournalConfig `yaml:"journal"`
	Queue    QueueConfig   `yaml:"queue"`
	LogLevel string        `yaml:"log_level"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
	// IngestRoot confines the paths remote callers may ingest.
	IngestRoot string `yaml:"ingest_root"`
}

// ExtractConfig selects and tunes the text extractors.
type ExtractConfig struct {
	PDFBackend string `yaml:"pdf_backend"` // "native" | "pdftotext"
	Pdftotext  string `yaml:"pdftotext"`   // binary name or absolute path

	// OCRFallback runs pdftoppm + tesseract on PDFs that yield no text.
	OCRFallback bool   `yaml:"ocr_fallback"`
	Pdftoppm    string `yaml:"pdftoppm"`
	Tesseract   string `yaml:"tesseract"`
	OCRLang     string `yaml:"ocr_lang"`
	OCRMaxPages int    `yaml:"ocr_max_pages"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // "ollama" | "openai"
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Temperature *float32      `yaml:"temperature"` // nil = provider default
	Timeout     time.Duration `yaml:"timeout"` // 0 = no per-call deadline
}

// SessionConfig bounds the per-client session registry.
type SessionConfig struct {
	Capacity int `yaml:"capacity"`
}

// JournalConfig selects where ingestion attempts are recorded.
type JournalConfig struct {
	Driver string `yaml:"driver"` // "memory" | "sqlite" | "postgres"
	DSN    string `yaml:"dsn"`
}

// QueueConfig sizes the background ingestion queue used by async Ingest calls.
type QueueConfig struct {
	Workers        int           `yaml:"workers"`
	Size           int           `yaml:"size"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Server:  ServerConfig{GRPCAddr: ":8080", IngestRoot: "."},
		Extract: ExtractConfig{
			PDFBackend: "native",
			Pdftotext:  "pdftotext",
			Pdftoppm:   "pdftoppm",
			Tesseract:  "tesseract",
			OCRLang:    "eng",
		},
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "mistral",
		},
		Session:  SessionConfig{Capacity: 256},
		Journal:  JournalConfig{Driver: "memory"},
		Queue:    QueueConfig{Workers: 4, Size: 256, ProcessTimeout: 3 * time.Minute},
		LogLevel: "info",
	}
}

// LoadConfig loads configuration: defaults, then the YAML file named by
// DOCPARSER_CONFIG (if any), then environment variables.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv("DOCPARSER_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.IngestRoot = getEnv("INGEST_ROOT", c.Server.IngestRoot)

	c.Extract.PDFBackend = strings.ToLower(getEnv("PDF_BACKEND", c.Extract.PDFBackend))
	c.Extract.Pdftotext = getEnv("PDFTOTEXT_BIN", c.Extract.Pdftotext)
	c.Extract.OCRFallback = getEnvAsBool("PDF_OCR_FALLBACK", c.Extract.OCRFallback)
	c.Extract.Pdftoppm = getEnv("PDFTOPPM_BIN", c.Extract.Pdftoppm)
	c.Extract.Tesseract = getEnv("TESSERACT_BIN", c.Extract.Tesseract)
	c.Extract.OCRLang = getEnv("OCR_LANG", c.Extract.OCRLang)
	c.Extract.OCRMaxPages = getEnvAsInt("OCR_MAX_PAGES", c.Extract.OCRMaxPages)

	c.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", c.LLM.Provider))
	c.LLM.BaseURL = getEnv("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.APIKey = getEnv("LLM_API_KEY", getEnv("OPENAI_API_KEY", c.LLM.APIKey))
	c.LLM.Temperature = getEnvAsFloat32Ptr("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("LLM_TIMEOUT", c.LLM.Timeout)

	c.Session.Capacity = getEnvAsInt("SESSION_CAPACITY", c.Session.Capacity)

	c.Journal.Driver = strings.ToLower(getEnv("JOURNAL_DRIVER", c.Journal.Driver))
	c.Journal.DSN = getEnv("JOURNAL_DSN", c.Journal.DSN)

	c.Queue.Workers = getEnvAsInt("INGEST_WORKERS", c.Queue.Workers)
	c.Queue.Size = getEnvAsInt("INGEST_QUEUE_SIZE", c.Queue.Size)
	c.Queue.ProcessTimeout = getEnvAsDuration("INGEST_TIMEOUT", c.Queue.ProcessTimeout)

	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsFloat32Ptr keeps "unset" distinct from an explicit 0.
func getEnvAsFloat32Ptr(key string, defaultValue *float32) *float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			v := float32(floatVal)
			return &v
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "ollama":
	case "openai":
		if c.LLM.APIKey == "" {
			return NewAppError(KindConfig, "LLM_API_KEY (or OPENAI_API_KEY) is required for the openai provider", ErrInvalidInput)
		}
	default:
		return NewAppError(KindConfig, fmt.Sprintf("unknown LLM_PROVIDER %q", c.LLM.Provider), ErrInvalidInput)
	}
	switch c.Extract.PDFBackend {
	case "native", "pdftotext":
	default:
		return NewAppError(KindConfig, fmt.Sprintf("unknown PDF_BACKEND %q", c.Extract.PDFBackend), ErrInvalidInput)
	}
	switch c.Journal.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Journal.DSN == "" {
			return NewAppError(KindConfig, "JOURNAL_DSN is required for the "+c.Journal.Driver+" journal", ErrInvalidInput)
		}
	default:
		return NewAppError(KindConfig, fmt.Sprintf("unknown JOURNAL_DRIVER %q", c.Journal.Driver), ErrInvalidInput)
	}
	if c.Session.Capacity <= 0 {
		return NewAppError(KindConfig, "SESSION_CAPACITY must be positive", ErrInvalidInput)
	}
	if c.Queue.Workers <= 0 || c.Queue.Size <= 0 {
		return NewAppError(KindConfig, "INGEST_WORKERS and INGEST_QUEUE_SIZE must be positive", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError(KindConfig, "GRPC_ADDR is required", ErrInvalidInput)
	}
	return nil
}
