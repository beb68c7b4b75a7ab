package notifyalert

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "maintenance-copilot/internal/common/errors"
	"maintenance-copilot/internal/common/logger"
	"maintenance-copilot/internal/models"
)

// ==========================
// Fakes
// ==========================

type fakePublisher struct {
	err     error
	subject string
	message string
	attrs   map[string]string
	calls   int
}

func (f *fakePublisher) PublishAlert(_ context.Context, subject, message string, attrs map[string]string) (string, error) {
	f.calls++
	f.subject, f.message, f.attrs = subject, message, attrs
	if f.err != nil {
		return "", f.err
	}
	return "sns-msg-1", nil
}

type fakeMailer struct {
	err   error
	to    []string
	calls int
}

func (f *fakeMailer) SendText(_ context.Context, to []string, _, _ string) (string, error) {
	f.calls++
	f.to = to
	if f.err != nil {
		return "", f.err
	}
	return "ses-msg-1", nil
}

func newTestHandler(t *testing.T, cfg *Config, p Publisher, m Mailer) *Handler {
	h := NewHandler(cfg, p, m, logger.NewTestLogger(t))
	seq := 0
	h.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	h.now = func() time.Time { return time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC) }
	return h
}

func testConfig() *Config {
	cfg := LoadConfig()
	cfg.Recipients = []string{"ops@plant.example"}
	return cfg
}

const highRiskVars = `{
  "requestId": "req-9",
  "riskLevel": "HIGH",
  "riskScore": 0.82,
  "failureType": "Heat Dissipation Failure",
  "estimatedDays": 2,
  "alerts": ["⚠️ Process temperature: 315.0K (abnormal)"],
  "recommendation": "Periksa sistem pendingin",
  "machine": {"machineId": "m-47182", "productId": "L47182", "name": "Mesin Bubut A", "location": "Lantai 2"},
  "response": "ignored by this worker"
}`

// ==========================
// Delivery
// ==========================

func TestExecute_DeliversOnBothChannels(t *testing.T) {
	p, m := &fakePublisher{}, &fakeMailer{}
	h := newTestHandler(t, testConfig(), p, m)

	out, err := h.execute(context.Background(), []byte(highRiskVars))
	require.NoError(t, err)

	assert.Equal(t, "id-1", out.AlertID)
	assert.Equal(t, StatusSent, out.Status)
	require.Len(t, out.Notifications, 2)
	assert.Equal(t, models.Notification{
		ID: "id-2", AlertID: "id-1", Channel: ChannelSNS, Status: StatusSent,
		MessageID: "sns-msg-1", SentAt: "2025-03-14T08:00:00Z",
	}, out.Notifications[0])
	assert.Equal(t, ChannelEmail, out.Notifications[1].Channel)
	assert.Equal(t, "ses-msg-1", out.Notifications[1].MessageID)

	assert.Equal(t, "[HIGH] Peringatan perawatan mesin L47182: Heat Dissipation Failure", p.subject)
	assert.Contains(t, p.message, "Mesin: L47182 (Mesin Bubut A)")
	assert.Contains(t, p.message, "Tingkat risiko: HIGH (82%)")
	assert.Contains(t, p.message, "Estimasi waktu menuju kegagalan: 2 hari")
	assert.Contains(t, p.message, "- ⚠️ Process temperature: 315.0K (abnormal)")
	assert.Equal(t, map[string]string{"riskLevel": "HIGH", "productId": "L47182"}, p.attrs)
	assert.Equal(t, []string{"ops@plant.example"}, m.to)
}

func TestExecute_BelowThresholdIsSkipped(t *testing.T) {
	p, m := &fakePublisher{}, &fakeMailer{}
	h := newTestHandler(t, testConfig(), p, m)

	out, err := h.execute(context.Background(), []byte(`{"riskLevel":"MODERATE","machine":{"productId":"H29424"}}`))
	require.NoError(t, err)

	assert.Equal(t, StatusSkipped, out.Status)
	assert.Empty(t, out.Notifications)
	assert.Zero(t, p.calls)
	assert.Zero(t, m.calls)
}

func TestExecute_PartialFailureStillSent(t *testing.T) {
	p := &fakePublisher{err: errors.New("throttled")}
	m := &fakeMailer{}
	h := newTestHandler(t, testConfig(), p, m)

	out, err := h.execute(context.Background(), []byte(highRiskVars))
	require.NoError(t, err)

	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, StatusFailed, out.Notifications[0].Status)
	assert.Equal(t, StatusSent, out.Notifications[1].Status)
}

func TestExecute_AllChannelsFailed(t *testing.T) {
	h := newTestHandler(t, testConfig(), &fakePublisher{err: errors.New("throttled")}, &fakeMailer{err: errors.New("rejected")})

	_, err := h.execute(context.Background(), []byte(highRiskVars))
	require.Error(t, err)

	stdErr, ok := commonerrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeNotificationFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestExecute_ChannelsDisabled(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		p      Publisher
		m      Mailer
	}{
		{name: "flags off", mutate: func(c *Config) { c.SNSEnabled, c.SESEnabled = false, false }, p: &fakePublisher{}, m: &fakeMailer{}},
		{name: "no clients", mutate: func(*Config) {}},
		{name: "no recipients", mutate: func(c *Config) { c.SNSEnabled, c.Recipients = false, nil }, m: &fakeMailer{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			h := newTestHandler(t, cfg, tt.p, tt.m)

			out, err := h.execute(context.Background(), []byte(highRiskVars))
			require.NoError(t, err)
			assert.Equal(t, StatusDisabled, out.Status)
			for _, n := range out.Notifications {
				assert.Equal(t, StatusDisabled, n.Status)
			}
		})
	}
}

// ==========================
// Validation
// ==========================

func TestExecute_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		vars string
	}{
		{name: "missing machine", vars: `{"riskLevel":"HIGH"}`},
		{name: "unknown risk level", vars: `{"riskLevel":"SEVERE","machine":{"productId":"L47182"}}`},
		{name: "empty product id", vars: `{"riskLevel":"HIGH","machine":{"productId":""}}`},
		{name: "not json", vars: `risk=high`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, testConfig(), &fakePublisher{}, &fakeMailer{})

			_, err := h.execute(context.Background(), []byte(tt.vars))
			require.Error(t, err)
			stdErr, ok := commonerrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, commonerrors.ErrCodeInvalidInput, stdErr.Code)
		})
	}
}
