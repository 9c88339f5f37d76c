package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sentra/internal/domain"

	"go.uber.org/zap"
)

// AlertEmitter persists control-breach alerts and logs them for paging.
type AlertEmitter struct {
	Repo   AlertRepository
	Clock  Clock
	Logger *zap.Logger
}

func NewAlertEmitter(repo AlertRepository, clock Clock, logger *zap.Logger) *AlertEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertEmitter{
		Repo:   repo,
		Clock:  clock,
		Logger: logger,
	}
}

func (e *AlertEmitter) Emit(ctx context.Context, alert domain.Alert) (domain.Alert, error) {
	if e == nil || e.Repo == nil {
		return domain.Alert{}, errors.New("alert repository required")
	}
	if alert.TenantID == "" || alert.VendorID == "" || alert.ControlID == "" {
		return domain.Alert{}, errors.New("alert missing required fields")
	}
	if alert.RaisedAt.IsZero() {
		alert.RaisedAt = e.now().UTC()
	} else {
		alert.RaisedAt = alert.RaisedAt.UTC()
	}
	stored, err := e.Repo.Create(ctx, alert)
	if err != nil {
		return domain.Alert{}, err
	}
	e.Logger.Warn("compliance alert raised",
		zap.String("tenant_id", stored.TenantID),
		zap.String("vendor_id", stored.VendorID),
		zap.String("control_id", stored.ControlID),
		zap.String("severity", string(stored.Severity)),
		zap.Float64("observed", stored.Observed),
		zap.Float64("threshold", stored.Threshold))
	return stored, nil
}

// EmitFindings raises one alert per breached control on an accepted event.
func (e *AlertEmitter) EmitFindings(ctx context.Context, event domain.TelemetryEvent, findings []domain.ControlFinding) ([]domain.Alert, error) {
	alerts := make([]domain.Alert, 0, len(findings))
	for _, finding := range findings {
		alert, err := e.Emit(ctx, domain.Alert{
			TenantID:  event.TenantID,
			VendorID:  event.VendorID,
			EventID:   event.ID,
			ControlID: finding.ControlID,
			Severity:  finding.Severity,
			Observed:  finding.Observed,
			Threshold: finding.Threshold,
			Message:   findingMessage(finding),
		})
		if err != nil {
			return alerts, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func (e *AlertEmitter) now() time.Time {
	if e != nil && e.Clock != nil {
		return e.Clock()
	}
	return time.Now().UTC()
}

func findingMessage(finding domain.ControlFinding) string {
	if finding.Message != "" {
		return finding.Message
	}
	return fmt.Sprintf("%s: %s=%g breached threshold %g", finding.ControlID, finding.Metric, finding.Observed, finding.Threshold)
}
