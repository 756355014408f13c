package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key LoadConfig reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DOCPARSER_CONFIG", "GRPC_ADDR", "PDF_BACKEND", "PDFTOTEXT_BIN",
		"LLM_PROVIDER", "LLM_BASE_URL", "LLM_MODEL", "LLM_API_KEY", "OPENAI_API_KEY",
		"LLM_TEMPERATURE", "LLM_TIMEOUT", "INGEST_ROOT", "SESSION_CAPACITY", "JOURNAL_DRIVER",
		"JOURNAL_DSN", "PDF_OCR_FALLBACK", "PDFTOPPM_BIN", "TESSERACT_BIN", "OCR_LANG", "OCR_MAX_PAGES", "INGEST_WORKERS", "INGEST_QUEUE_SIZE", "INGEST_TIMEOUT", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "mistral", cfg.LLM.Model)
	assert.Zero(t, cfg.LLM.Timeout)
	assert.Nil(t, cfg.LLM.Temperature)
	assert.Equal(t, ".", cfg.Server.IngestRoot)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_ZeroTemperatureIsExplicit(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_TEMPERATURE", "0")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg.LLM.Temperature)
	assert.Zero(t, *cfg.LLM.Temperature)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_MODEL", "gpt-4o-mini")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("LLM_TIMEOUT", "45s")
	t.Setenv("SESSION_CAPACITY", "8")
	t.Setenv("JOURNAL_DRIVER", "sqlite")
	t.Setenv("JOURNAL_DSN", "file:jobs.db")
	t.Setenv("PDF_BACKEND", "pdftotext")
	t.Setenv("INGEST_WORKERS", "2")
	t.Setenv("PDF_OCR_FALLBACK", "true")
	t.Setenv("OCR_LANG", "deu")
	t.Setenv("INGEST_ROOT", "/srv/docs")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	require.NotNil(t, cfg.LLM.Temperature)
	assert.InDelta(t, 0.2, *cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 8, cfg.Session.Capacity)
	assert.Equal(t, "sqlite", cfg.Journal.Driver)
	assert.Equal(t, "pdftotext", cfg.Extract.PDFBackend)
	assert.Equal(t, 2, cfg.Queue.Workers)
	assert.True(t, cfg.Extract.OCRFallback)
	assert.Equal(t, "deu", cfg.Extract.OCRLang)
	assert.Equal(t, "/srv/docs", cfg.Server.IngestRoot)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_LLMAPIKeyWinsOverOpenAIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "fallback")
	t.Setenv("LLM_API_KEY", "primary")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.LLM.APIKey)
}

func TestLoadConfig_BadNumbersKeepDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_CAPACITY", "lots")
	t.Setenv("LLM_TIMEOUT", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Session.Capacity)
	assert.Zero(t, cfg.LLM.Timeout)
}

func TestLoadConfig_YAMLFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "docparser.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  grpc_addr: ":9090"
  ingest_root: /data/inbox
llm:
  model: llama3
  temperature: 0
  timeout: 30s
journal:
  driver: postgres
  dsn: postgres://localhost/docparser
queue:
  workers: 3
`), 0o600))
	t.Setenv("DOCPARSER_CONFIG", path)
	t.Setenv("LLM_MODEL", "mistral-nemo")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.GRPCAddr)
	assert.Equal(t, "/data/inbox", cfg.Server.IngestRoot)
	assert.Equal(t, "mistral-nemo", cfg.LLM.Model, "env wins over file")
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "postgres", cfg.Journal.Driver)
	assert.Equal(t, 3, cfg.Queue.Workers)
	assert.Equal(t, 256, cfg.Queue.Size, "unset file keys keep defaults")
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	require.NotNil(t, cfg.LLM.Temperature, "explicit 0 in file is kept")
	assert.Zero(t, *cfg.LLM.Temperature)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOCPARSER_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"openai without key", func(c *Config) { c.LLM.Provider = "openai" }, "LLM_API_KEY"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "bard" }, `unknown LLM_PROVIDER "bard"`},
		{"unknown pdf backend", func(c *Config) { c.Extract.PDFBackend = "ocr" }, "PDF_BACKEND"},
		{"sqlite without dsn", func(c *Config) { c.Journal.Driver = "sqlite" }, "JOURNAL_DSN"},
		{"unknown journal", func(c *Config) { c.Journal.Driver = "mongo" }, "JOURNAL_DRIVER"},
		{"zero capacity", func(c *Config) { c.Session.Capacity = 0 }, "SESSION_CAPACITY"},
		{"zero workers", func(c *Config) { c.Queue.Workers = 0 }, "INGEST_WORKERS"},
		{"empty addr", func(c *Config) { c.Server.GRPCAddr = "" }, "GRPC_ADDR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, KindConfig, KindOf(err))
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}
