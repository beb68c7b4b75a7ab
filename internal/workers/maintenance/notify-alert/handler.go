package notifyalert

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"maintenance-copilot/internal/common/camunda"
	"maintenance-copilot/internal/common/errors"
	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/common/metrics"
	"maintenance-copilot/internal/common/validation"
	"maintenance-copilot/internal/models"
)

const TaskType = "notify-maintenance-alert"

// Publisher fans an alert out to a topic.
type Publisher interface {
	PublishAlert(ctx context.Context, subject, message string, attributes map[string]string) (string, error)
}

// Mailer sends a plain-text email.
type Mailer interface {
	SendText(ctx context.Context, to []string, subject, body string) (string, error)
}

type Handler struct {
	config    *Config
	publisher Publisher
	mailer    Mailer
	errors    *errors.ErrorHandler
	logger    logger.Logger
	newID     func() string
	now       func() time.Time
}

// NewHandler builds the alert worker. A nil publisher or mailer disables that channel.
func NewHandler(config *Config, publisher Publisher, mailer Mailer, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		publisher: publisher,
		mailer:    mailer,
		errors:    errors.NewErrorHandler(log),
		logger:    log,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, []byte(job.Variables))
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Handler) execute(ctx context.Context, variables []byte) (*Output, error) {
	if err := validation.AlertInputSchema.ValidateJSON(variables).Err(); err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}

	var input Input
	if err := json.Unmarshal(variables, &input); err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}

	if input.RiskLevel.Rank() < h.config.MinRiskLevel.Rank() {
		h.logger.Info("risk below alert threshold", map[string]interface{}{
			"riskLevel": input.RiskLevel,
			"productId": input.Machine.ProductID,
		})
		return &Output{Status: StatusSkipped, Notifications: []models.Notification{}}, nil
	}

	alert := models.MaintenanceAlert{
		ID:             h.newID(),
		RequestID:      input.RequestID,
		MachineID:      input.Machine.MachineID,
		ProductID:      input.Machine.ProductID,
		MachineName:    input.Machine.Name,
		Location:       input.Machine.Location,
		RiskLevel:      input.RiskLevel,
		RiskScore:      input.RiskScore,
		FailureType:    input.FailureType,
		EstimatedDays:  input.EstimatedDays,
		Alerts:         input.Alerts,
		Recommendation: input.Recommendation,
	}
	subject := alertSubject(alert)
	body := alertBody(alert)

	notifications := []models.Notification{}
	attempted, delivered := 0, 0
	var lastErr error

	send := func(channel string, enabled bool, deliver func() (string, error)) {
		n := models.Notification{ID: h.newID(), AlertID: alert.ID, Channel: channel, Status: StatusDisabled}
		if enabled {
			attempted++
			id, err := deliver()
			if err != nil {
				lastErr = err
				n.Status = StatusFailed
				h.logger.Error("alert delivery failed", map[string]interface{}{
					"channel": channel,
					"alertId": alert.ID,
					"error":   err.Error(),
				})
			} else {
				delivered++
				n.Status = StatusSent
				n.MessageID = id
				n.SentAt = h.now().UTC().Format(time.RFC3339)
			}
		}
		metrics.AlertsSent.WithLabelValues(channel, n.Status).Inc()
		notifications = append(notifications, n)
	}

	send(ChannelSNS, h.config.SNSEnabled && h.publisher != nil, func() (string, error) {
		return h.publisher.PublishAlert(ctx, subject, body, map[string]string{
			"riskLevel": string(alert.RiskLevel),
			"productId": alert.ProductID,
		})
	})
	send(ChannelEmail, h.config.SESEnabled && h.mailer != nil && len(h.config.Recipients) > 0, func() (string, error) {
		return h.mailer.SendText(ctx, h.config.Recipients, subject, body)
	})

	if attempted > 0 && delivered == 0 {
		return nil, errors.NewNotificationSendFailedError("all", lastErr)
	}

	status := StatusDisabled
	if delivered > 0 {
		status = StatusSent
	}

	h.logger.Info("alert processed", map[string]interface{}{
		"alertId":   alert.ID,
		"productId": alert.ProductID,
		"status":    status,
		"delivered": delivered,
	})
	return &Output{AlertID: alert.ID, Status: status, Notifications: notifications}, nil
}

func alertSubject(a models.MaintenanceAlert) string {
	subject := fmt.Sprintf("[%s] Peringatan perawatan mesin %s", a.RiskLevel, a.ProductID)
	if a.FailureType != "" {
		subject += ": " + a.FailureType
	}
	return subject
}

func alertBody(a models.MaintenanceAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mesin: %s", a.ProductID)
	if a.MachineName != "" {
		fmt.Fprintf(&b, " (%s)", a.MachineName)
	}
	b.WriteString("\n")
	if a.Location != "" {
		fmt.Fprintf(&b, "Lokasi: %s\n", a.Location)
	}
	fmt.Fprintf(&b, "Tingkat risiko: %s (%.0f%%)\n", a.RiskLevel, a.RiskScore*100)
	if a.FailureType != "" {
		fmt.Fprintf(&b, "Prediksi kegagalan: %s\n", a.FailureType)
	}
	if a.EstimatedDays > 0 {
		fmt.Fprintf(&b, "Estimasi waktu menuju kegagalan: %d hari\n", a.EstimatedDays)
	}
	if len(a.Alerts) > 0 {
		b.WriteString("\nPeringatan:\n")
		for _, alert := range a.Alerts {
			fmt.Fprintf(&b, "- %s\n", alert)
		}
	}
	if a.Recommendation != "" {
		fmt.Fprintf(&b, "\nRekomendasi: %s\n", a.Recommendation)
	}
	if a.RequestID != "" {
		fmt.Fprintf(&b, "\nRequest ID: %s\n", a.RequestID)
	}
	return b.String()
}
