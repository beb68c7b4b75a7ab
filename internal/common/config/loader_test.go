package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: maintenance
    user: copilot
  elasticsearch:
    addresses:
      - http://localhost:9200
  redis:
    address: localhost:6379
llm:
  provider: groq
  groq:
    api_key: ${TEST_GROQ_KEY}
  gemini:
    api_key: gemini-key
workers:
  maintenance-copilot-chat:
    enabled: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// ==========================
// Loading
// ==========================

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	t.Setenv("TEST_GROQ_KEY", "groq-key")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "groq-key", cfg.LLM.Groq.APIKey)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.LLM.Groq.BaseURL)
	assert.Equal(t, "openai/gpt-oss-120b", cfg.LLM.Groq.Model)
	assert.InDelta(t, 0.5, cfg.LLM.Groq.Temperature, 0.0001)
	assert.Equal(t, 8192, cfg.LLM.Groq.MaxTokens)
	assert.Equal(t, 2, cfg.LLM.Groq.MaxRetries)

	assert.Equal(t, "gemini-2.5-flash-lite", cfg.LLM.Gemini.Model)
	assert.InDelta(t, 0.7, cfg.LLM.Gemini.Temperature, 0.0001)
	assert.Equal(t, "text-embedding-004", cfg.LLM.Embedding.Model)
	assert.Equal(t, "gemini-key", cfg.LLM.Embedding.APIKey)

	assert.Equal(t, "knowledge-chunks", cfg.Knowledge.Index)
	assert.Equal(t, 768, cfg.Knowledge.Dimensions)
	assert.Equal(t, 30000, cfg.Workflow.NodeTimeout)
	assert.Equal(t, 100, cfg.Workflow.SensorWindow)
	assert.Equal(t, "HIGH", cfg.Notifications.MinRiskLevel)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.URL)

	wcfg := cfg.Workers["maintenance-copilot-chat"]
	assert.Equal(t, 5, wcfg.MaxJobsActive)
	assert.Equal(t, 30000, wcfg.Timeout)
	assert.Equal(t, 3, wcfg.MaxRetries)
}

func TestLoadFromFile_ProviderValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "unknown provider",
			content: `
camunda: {broker_address: "localhost:26500"}
database:
  postgres: {host: localhost, database: m, user: u}
  elasticsearch: {url: "http://localhost:9200"}
  redis: {address: "localhost:6379"}
llm:
  provider: openai
  gemini: {api_key: k}
`,
			wantErr: "llm.provider must be one of groq, gemini",
		},
		{
			name: "gemini without key",
			content: `
camunda: {broker_address: "localhost:26500"}
database:
  postgres: {host: localhost, database: m, user: u}
  elasticsearch: {url: "http://localhost:9200"}
  redis: {address: "localhost:6379"}
llm:
  provider: gemini
  embedding: {api_key: k}
`,
			wantErr: "llm.gemini.api_key is required",
		},
		{
			name: "missing broker",
			content: `
database:
  postgres: {host: localhost, database: m, user: u}
`,
			wantErr: "camunda.broker_address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEY", "")
			t.Setenv("GROQ_API_KEY", "")
			t.Setenv("LLM_PROVIDER", "")

			_, err := LoadFromFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_EnvOverridesEmptySecrets(t *testing.T) {
	t.Setenv("TEST_GROQ_KEY", "")
	t.Setenv("GROQ_API_KEY", "from-env")
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLM.Groq.APIKey)
	assert.Equal(t, "secret", cfg.Database.Postgres.Password)
}

// ==========================
// Helpers
// ==========================

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"notify-maintenance-alert": {Enabled: false, MaxJobsActive: 2},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "notify-maintenance-alert"))
	assert.True(t, IsWorkerEnabled(cfg, "unknown"))

	def := GetWorkerConfig(cfg, "unknown")
	assert.Equal(t, 5, def.MaxJobsActive)
	assert.Equal(t, 3, def.MaxRetries)
}
