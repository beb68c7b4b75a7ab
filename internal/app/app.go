// Package app wires configuration, storage, model backends and workflow nodes together.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"maintenance-copilot/internal/common/config"
	"maintenance-copilot/internal/common/database"
	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/llm"
	"maintenance-copilot/internal/repository"
	analyzecondition "maintenance-copilot/internal/workers/maintenance/analyze-condition"
	analyzemachines "maintenance-copilot/internal/workers/maintenance/analyze-machines"
	fetchprediction "maintenance-copilot/internal/workers/maintenance/fetch-prediction"
	fetchsensor "maintenance-copilot/internal/workers/maintenance/fetch-sensor"
	generateanswer "maintenance-copilot/internal/workers/maintenance/generate-answer"
	identifymachine "maintenance-copilot/internal/workers/maintenance/identify-machine"
	retrieveknowledge "maintenance-copilot/internal/workers/maintenance/retrieve-knowledge"
	"maintenance-copilot/internal/workflow"
	"maintenance-copilot/pkg/registry"
)

// NewLogger builds the process logger from the logging section.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, logger.Logger) {
	zapLog := logger.NewWithOptions(logger.Options{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
	})
	return zapLog, logger.NewZapAdapter(zapLog)
}

// Infra holds the shared storage clients.
type Infra struct {
	Postgres      *database.PostgresClient
	Elasticsearch *database.ElasticsearchClient
	Redis         *database.RedisClient
}

// Connect opens Postgres, Elasticsearch and Redis, retrying each until it answers a ping.
func Connect(ctx context.Context, cfg *config.Config, log logger.Logger) (*Infra, error) {
	infra := &Infra{}

	err := retryWithBackoff(ctx, func() error {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			_ = pg.Close()
			return err
		}
		infra.Postgres = pg
		return nil
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected", nil)

	err = retryWithBackoff(ctx, func() error {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		if err := es.Ping(ctx); err != nil {
			return err
		}
		infra.Elasticsearch = es
		return nil
	}, 15, 2*time.Second, log, "Elasticsearch connection")
	if err != nil {
		infra.Close()
		return nil, err
	}
	log.Info("Elasticsearch connected", nil)

	err = retryWithBackoff(ctx, func() error {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		if err := rdb.Ping(ctx); err != nil {
			_ = rdb.Close()
			return err
		}
		infra.Redis = rdb
		return nil
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		infra.Close()
		return nil, err
	}
	log.Info("Redis connected", nil)

	return infra, nil
}

// Ping checks every connected backend.
func (i *Infra) Ping(ctx context.Context) error {
	if err := i.Postgres.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := i.Elasticsearch.Ping(ctx); err != nil {
		return fmt.Errorf("elasticsearch: %w", err)
	}
	if err := i.Redis.Ping(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

func (i *Infra) Close() {
	if i.Postgres != nil {
		_ = i.Postgres.Close()
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
}

// Copilot is the assembled workflow plus the pieces other entry points reuse.
type Copilot struct {
	Orchestrator *workflow.Orchestrator
	Nodes        workflow.Nodes
	Knowledge    *repository.KnowledgeStore
}

// BuildCopilot constructs stores, caches, model backends and the seven workflow nodes.
func BuildCopilot(cfg *config.Config, infra *Infra, log logger.Logger) (*Copilot, error) {
	db := infra.Postgres.DB

	var machines repository.MachineDirectory = repository.NewMachineStore(db, log)
	if cfg.Cache.Enabled {
		machines = repository.NewCachedMachineDirectory(machines, infra.Redis.Client, config.GetDuration(cfg.Cache.MachineTTL), log)
	}
	sensors := repository.NewSensorStore(db, cfg.Workflow.SensorWindow, log)
	predictions := repository.NewPredictionStore(db, log)
	knowledge := repository.NewKnowledgeStore(infra.Elasticsearch.Client, cfg.Knowledge.Index, cfg.Knowledge.Dimensions, log)

	provider, err := llm.NewProvider(cfg.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("completion provider: %w", err)
	}
	embedder, err := llm.NewGeminiEmbedder(cfg.LLM.Embedding, cfg.LLM.Gemini.APIVersion, infra.Redis.Client, log)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	nodes := buildNodes(cfg, collaborators{
		machines:    machines,
		sensors:     sensors,
		predictions: predictions,
		knowledge:   knowledge,
		provider:    provider,
		embedder:    embedder,
	}, log)

	orch, err := workflow.New(workflow.Config{
		NodeTimeout: config.GetDuration(cfg.Workflow.NodeTimeout),
	}, nodes, log)
	if err != nil {
		return nil, err
	}

	log.Info("copilot assembled", map[string]interface{}{
		"provider":       provider.Name(),
		"knowledgeIndex": knowledge.Index(),
		"machineCache":   cfg.Cache.Enabled,
	})
	return &Copilot{Orchestrator: orch, Nodes: nodes, Knowledge: knowledge}, nil
}

type collaborators struct {
	machines    repository.MachineDirectory
	sensors     repository.SensorRepository
	predictions repository.PredictionRepository
	knowledge   repository.KnowledgeIndex
	provider    llm.CompletionProvider
	embedder    llm.Embedder
}

func buildNodes(cfg *config.Config, c collaborators, log logger.Logger) workflow.Nodes {
	conditionCfg := analyzecondition.LoadConfig()
	conditionCfg.JitterSeed = cfg.Workflow.JitterSeed

	machinesCfg := analyzemachines.LoadConfig()
	if cfg.Workflow.MaxMachines > 0 {
		machinesCfg.MaxMachines = cfg.Workflow.MaxMachines
	}

	return workflow.Nodes{
		IdentifyMachine:   identifymachine.NewHandler(identifymachine.LoadConfig(), c.provider, c.machines, log),
		FetchSensor:       fetchsensor.NewHandler(fetchsensor.LoadConfig(), c.sensors, log),
		FetchPrediction:   fetchprediction.NewHandler(fetchprediction.LoadConfig(), c.predictions, log),
		AnalyzeMachines:   analyzemachines.NewHandler(machinesCfg, c.machines, c.predictions, c.sensors, log),
		AnalyzeCondition:  analyzecondition.NewHandler(conditionCfg, log),
		RetrieveKnowledge: retrieveknowledge.NewHandler(retrieveknowledge.LoadConfig(), c.embedder, c.knowledge, log),
		GenerateAnswer:    generateanswer.NewHandler(generateanswer.LoadConfig(), c.provider, log),
	}
}

// Describe returns the workflow graph without connecting to any backend. The nodes it
// builds have no collaborators and must not be executed.
func Describe(cfg *config.Config, log logger.Logger) (*registry.Graph, error) {
	orch, err := workflow.New(workflow.Config{
		NodeTimeout: config.GetDuration(cfg.Workflow.NodeTimeout),
	}, buildNodes(cfg, collaborators{}, log), log)
	if err != nil {
		return nil, err
	}
	return orch.Structure(), nil
}
