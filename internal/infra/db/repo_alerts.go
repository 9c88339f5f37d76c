package db

import (
	"context"
	"time"

	"sentra/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(ctx context.Context, alert domain.Alert) (domain.Alert, error) {
	if r == nil || r.db == nil {
		return domain.Alert{}, errDBUnavailable
	}
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.RaisedAt.IsZero() {
		alert.RaisedAt = time.Now().UTC()
	} else {
		alert.RaisedAt = alert.RaisedAt.UTC()
	}
	model := AlertModel{
		ID:        alert.ID,
		TenantID:  alert.TenantID,
		VendorID:  alert.VendorID,
		EventID:   alert.EventID,
		ControlID: alert.ControlID,
		Severity:  string(alert.Severity),
		Observed:  alert.Observed,
		Threshold: alert.Threshold,
		Message:   alert.Message,
		RaisedAt:  alert.RaisedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Alert{}, err
	}
	return alert, nil
}

func (r *AlertRepository) ListByTenant(ctx context.Context, tenantID string, limit int) ([]domain.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errDBUnavailable
	}
	if limit <= 0 {
		limit = 100
	}
	var models []AlertModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("raised_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Alert, 0, len(models))
	for _, model := range models {
		out = append(out, domain.Alert{
			ID:        model.ID,
			TenantID:  model.TenantID,
			VendorID:  model.VendorID,
			EventID:   model.EventID,
			ControlID: model.ControlID,
			Severity:  domain.Severity(model.Severity),
			Observed:  model.Observed,
			Threshold: model.Threshold,
			Message:   model.Message,
			RaisedAt:  model.RaisedAt,
		})
	}
	return out, nil
}
