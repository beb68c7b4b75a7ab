// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// ENV override like LLM_GROQ_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // environment overlay is optional

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

func setIfEmpty(field *string, envKey string) {
	if *field != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

// overrideEmptyConfig fills secrets that are commonly provided as bare env vars.
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.LLM.Provider, "LLM_PROVIDER")
	setIfEmpty(&cfg.LLM.Groq.APIKey, "GROQ_API_KEY")
	setIfEmpty(&cfg.LLM.Gemini.APIKey, "GEMINI_API_KEY")
	setIfEmpty(&cfg.LLM.Embedding.APIKey, "GEMINI_API_KEY")

	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")

	setIfEmpty(&cfg.Notifications.AWS.Region, "AWS_REGION")
	setIfEmpty(&cfg.Notifications.SNS.TopicARN, "MAINTENANCE_ALERT_TOPIC_ARN")
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "maintenance-copilot"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.Cache.MachineTTL == 0 {
		cfg.Cache.MachineTTL = 300000
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	applyLLMDefaults(&cfg.LLM)

	if cfg.Knowledge.Index == "" {
		cfg.Knowledge.Index = "knowledge-chunks"
	}
	if cfg.Knowledge.Dimensions == 0 {
		cfg.Knowledge.Dimensions = 768
	}

	if cfg.Workflow.NodeTimeout == 0 {
		cfg.Workflow.NodeTimeout = 30000
	}
	if cfg.Workflow.SensorWindow == 0 {
		cfg.Workflow.SensorWindow = 100
	}
	if cfg.Workflow.MaxMachines == 0 {
		cfg.Workflow.MaxMachines = 20
	}

	if cfg.Notifications.MinRiskLevel == "" {
		cfg.Notifications.MinRiskLevel = "HIGH"
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 100
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 5
	}
	if cfg.Logging.MaxAgeDays == 0 {
		cfg.Logging.MaxAgeDays = 30
	}
}

func applyLLMDefaults(l *LLMConfig) {
	if l.Provider == "" {
		l.Provider = ProviderGroq
	}
	l.Provider = strings.ToLower(l.Provider)

	if l.Groq.BaseURL == "" {
		l.Groq.BaseURL = "https://api.groq.com/openai/v1"
	}
	if l.Groq.Model == "" {
		l.Groq.Model = "openai/gpt-oss-120b"
	}
	if l.Groq.Temperature == 0 {
		l.Groq.Temperature = 0.5
	}
	if l.Groq.MaxTokens == 0 {
		l.Groq.MaxTokens = 8192
	}
	if l.Groq.MaxRetries == 0 {
		l.Groq.MaxRetries = 2
	}
	if l.Groq.RequestsPerMinute == 0 {
		l.Groq.RequestsPerMinute = 30
	}
	if l.Groq.Timeout == 0 {
		l.Groq.Timeout = 60000
	}

	if l.Gemini.BaseURL == "" {
		l.Gemini.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if l.Gemini.APIVersion == "" {
		l.Gemini.APIVersion = "v1beta"
	}
	if l.Gemini.Model == "" {
		l.Gemini.Model = "gemini-2.5-flash-lite"
	}
	if l.Gemini.Temperature == 0 {
		l.Gemini.Temperature = 0.7
	}
	if l.Gemini.MaxTokens == 0 {
		l.Gemini.MaxTokens = 8192
	}
	if l.Gemini.MaxRetries == 0 {
		l.Gemini.MaxRetries = 2
	}
	if l.Gemini.RequestsPerMinute == 0 {
		l.Gemini.RequestsPerMinute = 30
	}
	if l.Gemini.Timeout == 0 {
		l.Gemini.Timeout = 60000
	}

	if l.Embedding.BaseURL == "" {
		l.Embedding.BaseURL = l.Gemini.BaseURL
	}
	if l.Embedding.Model == "" {
		l.Embedding.Model = "text-embedding-004"
	}
	if l.Embedding.CacheTTL == 0 {
		l.Embedding.CacheTTL = 86400000
	}
	if l.Embedding.Timeout == 0 {
		l.Embedding.Timeout = 30000
	}
	if l.Embedding.APIKey == "" {
		l.Embedding.APIKey = l.Gemini.APIKey
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Database.Elasticsearch.GetURL() == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	switch cfg.LLM.Provider {
	case ProviderGroq:
		if cfg.LLM.Groq.APIKey == "" {
			return fmt.Errorf("llm.groq.api_key is required when llm.provider is groq")
		}
	case ProviderGemini:
		if cfg.LLM.Gemini.APIKey == "" {
			return fmt.Errorf("llm.gemini.api_key is required when llm.provider is gemini")
		}
	default:
		return fmt.Errorf("llm.provider must be one of groq, gemini; got %q", cfg.LLM.Provider)
	}

	if cfg.LLM.Embedding.APIKey == "" {
		return fmt.Errorf("llm.embedding.api_key is required")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
