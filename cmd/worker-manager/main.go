// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"maintenance-copilot/internal/app"
	"maintenance-copilot/internal/common/aws"
	"maintenance-copilot/internal/common/camunda"
	"maintenance-copilot/internal/common/config"
	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/common/observability"
	"maintenance-copilot/internal/models"
	copilotchat "maintenance-copilot/internal/workers/maintenance/copilot-chat"
	notifyalert "maintenance-copilot/internal/workers/maintenance/notify-alert"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog, log := app.NewLogger(cfg.Logging)
	defer zapLog.Sync()

	log.Info("starting worker manager", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zeebe, err := camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
	if err != nil {
		zapLog.Fatal("zeebe client failed", zap.Error(err))
	}
	log.Info("Zeebe client connected", map[string]interface{}{"gateway": cfg.Camunda.BrokerAddress})

	infra, err := app.Connect(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("storage connection failed", zap.Error(err))
	}
	defer infra.Close()

	copilot, err := app.BuildCopilot(cfg, infra, log)
	if err != nil {
		zapLog.Fatal("copilot assembly failed", zap.Error(err))
	}
	copilot.Orchestrator.WithRecorder(obs)

	workers := registerWorkers(ctx, cfg, zeebe, copilot, obs, log)

	graph := copilot.Orchestrator.Structure()
	server := &http.Server{
		Addr: cfg.Server.Address,
		Handler: app.NewOpsRouter(graph, map[string]app.ReadinessCheck{
			"zeebe":   zeebe.HealthCheck,
			"storage": infra.Ping,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("ops server listening", map[string]interface{}{"address": cfg.Server.Address})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	camunda.CloseAll(workers)
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("ops server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	if err := zeebe.Close(); err != nil {
		log.Error("error closing Zeebe client", map[string]interface{}{"error": err.Error()})
	}

	log.Info("worker manager stopped", nil)
}

func registerWorkers(
	ctx context.Context,
	cfg *config.Config,
	zeebe *camunda.Client,
	copilot *app.Copilot,
	obs *observability.Observability,
	log logger.Logger,
) []*camunda.JobWorker {
	client := zeebe.GetClient()
	var workers []*camunda.JobWorker
	add := func(w *camunda.JobWorker) {
		if w != nil {
			workers = append(workers, w)
		}
	}

	chatCfg := copilotchat.LoadConfig()
	chatCfg.AlertRiskLevel = models.RiskLevel(cfg.Notifications.MinRiskLevel)
	chatWorker := config.GetWorkerConfig(cfg, copilotchat.TaskType)
	if chatWorker.Timeout > 0 {
		chatCfg.Timeout = config.GetDuration(chatWorker.Timeout)
	}
	chat := copilotchat.NewHandler(chatCfg, copilot.Orchestrator, log).WithJobRecorder(obs)
	add(camunda.StartWorker(client, copilotchat.TaskType, chatWorker, chat, log))

	// each node is also exposed as its own task so a BPMN process can sequence them
	graph := copilot.Orchestrator.Structure()
	n := copilot.Nodes
	for _, node := range []camunda.Node{
		n.IdentifyMachine, n.FetchSensor, n.FetchPrediction, n.AnalyzeMachines,
		n.AnalyzeCondition, n.RetrieveKnowledge, n.GenerateAnswer,
	} {
		activity, ok := graph.Activity(node.Name())
		if !ok {
			continue
		}
		handler := camunda.NewNodeJobHandler(node, config.GetDuration(cfg.Workflow.NodeTimeout), log)
		add(camunda.StartWorker(client, activity.TaskType, config.GetWorkerConfig(cfg, activity.TaskType), handler, log))
	}

	alertCfg := notifyalert.LoadConfig()
	alertCfg.SNSEnabled = cfg.Notifications.SNS.Enabled
	alertCfg.SESEnabled = cfg.Notifications.SES.Enabled
	alertCfg.Recipients = cfg.Notifications.SES.Recipients
	alertCfg.MinRiskLevel = models.RiskLevel(cfg.Notifications.MinRiskLevel)

	var publisher notifyalert.Publisher
	var mailer notifyalert.Mailer
	region := cfg.Notifications.AWS.Region
	if alertCfg.SNSEnabled {
		if c, err := aws.NewSNSClient(ctx, region, cfg.Notifications.SNS.TopicARN); err != nil {
			log.Error("sns client unavailable, alerts will skip sns", map[string]interface{}{"error": err.Error()})
		} else {
			publisher = c
		}
	}
	if alertCfg.SESEnabled {
		if c, err := aws.NewSESClient(ctx, region, cfg.Notifications.SES.FromEmail); err != nil {
			log.Error("ses client unavailable, alerts will skip email", map[string]interface{}{"error": err.Error()})
		} else {
			mailer = c
		}
	}
	alerts := notifyalert.NewHandler(alertCfg, publisher, mailer, log)
	add(camunda.StartWorker(client, notifyalert.TaskType, config.GetWorkerConfig(cfg, notifyalert.TaskType), alerts, log))

	log.Info("workers registered", map[string]interface{}{"count": len(workers)})
	return workers
}
