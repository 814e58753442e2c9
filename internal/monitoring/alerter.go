package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/config"
)

// minFinished is the number of finished runs below which rates are noise.
const minFinished = 5

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertRunFailureRate   AlertType = "run_failure_rate"
	AlertIdentityFailures AlertType = "identity_failures"
	AlertRatioCoverage    AlertType = "ratio_coverage"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	finished := snap.Finished()
	if finished >= minFinished && snap.FailRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertRunFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Run failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d finished in last %dh)",
				snap.FailRate*100, a.cfg.FailureRateThreshold*100,
				snap.Failed, finished, snap.LookbackHours,
			),
			Details: map[string]any{
				"failure_rate": snap.FailRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       snap.Failed,
				"finished":     finished,
			},
			Timestamp: now,
		})
	}

	if snap.Summarized < minFinished {
		return alerts
	}

	if a.cfg.IdentityFailureThreshold > 0 && snap.IdentityFailureRate > a.cfg.IdentityFailureThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertIdentityFailures,
			Severity: "medium",
			Message: fmt.Sprintf(
				"%.1f%% of complete runs failed an accounting identity (threshold %.1f%%, last %dh)",
				snap.IdentityFailureRate*100, a.cfg.IdentityFailureThreshold*100, snap.LookbackHours,
			),
			Details: map[string]any{
				"identity_failure_rate": snap.IdentityFailureRate,
				"threshold":             a.cfg.IdentityFailureThreshold,
				"summarized":            snap.Summarized,
			},
			Timestamp: now,
		})
	}

	if a.cfg.MinRatioCoverage > 0 && snap.RatioCoverage < a.cfg.MinRatioCoverage {
		alerts = append(alerts, Alert{
			Type:     AlertRatioCoverage,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Ratio coverage %.1f%% is below %.1f%% across %d complete runs",
				snap.RatioCoverage*100, a.cfg.MinRatioCoverage*100, snap.Summarized,
			),
			Details: map[string]any{
				"ratio_coverage": snap.RatioCoverage,
				"minimum":        a.cfg.MinRatioCoverage,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// Notification is the webhook payload: every alert raised by one check
// together with the snapshot that raised them.
type Notification struct {
	Alerts   []Alert          `json:"alerts"`
	Snapshot *MetricsSnapshot `json:"snapshot"`
}

// Notify posts the alerts to the configured webhook as one JSON document.
// It is a no-op without a webhook URL or alerts.
func (a *Alerter) Notify(ctx context.Context, snap *MetricsSnapshot, alerts []Alert) error {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return nil
	}

	body, err := json.Marshal(Notification{Alerts: alerts, Snapshot: snap})
	if err != nil {
		return eris.Wrap(err, "monitoring: encode notification")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "monitoring: build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: post webhook")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 300 {
		return eris.Errorf("monitoring: webhook status %d", resp.StatusCode)
	}
	zap.L().Info("monitoring: alerts delivered", zap.Int("alerts", len(alerts)))
	return nil
}
