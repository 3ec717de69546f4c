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

	"github.com/sells-group/landpermit-cli/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertFetchFailure        AlertType = "district_fetch_failure"
	AlertCacheFailure        AlertType = "address_cache_failure"
	AlertGeocodeFailureRate  AlertType = "geocode_failure_rate"
	AlertNotificationFailure AlertType = "notification_failure"
)

// minLookupsForRate is the number of uncached lookups below which the
// geocode failure rate is not evaluated.
const minLookupsForRate = 5

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	RunID     string         `json:"run_id"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a RunSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MetricsConfig
	client *http.Client
}

// NewAlerter creates a new Alerter. A nil client gets a 10 second timeout.
func NewAlerter(cfg config.MetricsConfig, client *http.Client) *Alerter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Alerter{cfg: cfg, client: client}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *RunSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if snap.FetchErrors > 0 {
		alerts = append(alerts, Alert{
			Type:     AlertFetchFailure,
			Severity: "high",
			Message: fmt.Sprintf("%d of %d district fetch(es) failed",
				snap.FetchErrors, snap.DistrictsTotal),
			RunID: snap.RunID,
			Details: map[string]any{
				"fetch_errors":    snap.FetchErrors,
				"districts_total": snap.DistrictsTotal,
			},
			Timestamp: now,
		})
	}

	if snap.EnrichErrors > 0 {
		alerts = append(alerts, Alert{
			Type:     AlertCacheFailure,
			Severity: "high",
			Message: fmt.Sprintf("%d of %d district(s) skipped: address cache unavailable",
				snap.EnrichErrors, snap.DistrictsTotal),
			RunID: snap.RunID,
			Details: map[string]any{
				"enrich_errors":   snap.EnrichErrors,
				"districts_total": snap.DistrictsTotal,
			},
			Timestamp: now,
		})
	}

	if snap.GeocodeLookups >= minLookupsForRate && snap.GeocodeFailRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertGeocodeFailureRate,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Geocode failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d lookups)",
				snap.GeocodeFailRate*100, a.cfg.FailureRateThreshold*100,
				snap.GeocodeFailures, snap.GeocodeLookups,
			),
			RunID: snap.RunID,
			Details: map[string]any{
				"failure_rate": snap.GeocodeFailRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       snap.GeocodeFailures,
				"lookups":      snap.GeocodeLookups,
			},
			Timestamp: now,
		})
	}

	if snap.MessagesFailed > 0 {
		alerts = append(alerts, Alert{
			Type:      AlertNotificationFailure,
			Severity:  "high",
			Message:   fmt.Sprintf("%d chat report(s) failed to send", snap.MessagesFailed),
			RunID:     snap.RunID,
			Details:   map[string]any{"failed": snap.MessagesFailed, "sent": snap.MessagesSent},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
