package db

import (
	"context"
	"encoding/json"
	"time"

	"sentra/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Append(ctx context.Context, event domain.TelemetryEvent) (domain.TelemetryEvent, error) {
	if r == nil || r.db == nil {
		return domain.TelemetryEvent{}, errDBUnavailable
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	} else {
		event.ReceivedAt = event.ReceivedAt.UTC()
	}

	var metricsJSON []byte
	if event.Metrics != nil {
		encoded, err := json.Marshal(event.Metrics)
		if err != nil {
			return domain.TelemetryEvent{}, err
		}
		metricsJSON = encoded
	}
	model := TelemetryEventModel{
		ID:         event.ID,
		TenantID:   event.TenantID,
		VendorID:   event.VendorID,
		ProviderID: event.ProviderID,
		EventType:  event.EventType,
		Metrics:    metricsJSON,
		Payload:    event.Payload,
		ReceivedAt: event.ReceivedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.TelemetryEvent{}, err
	}
	return event, nil
}

func (r *EventRepository) ListByTenant(ctx context.Context, tenantID string, limit int) ([]domain.TelemetryEvent, error) {
	if r == nil || r.db == nil {
		return nil, errDBUnavailable
	}
	if limit <= 0 {
		limit = 100
	}
	var models []TelemetryEventModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("received_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.TelemetryEvent, 0, len(models))
	for _, model := range models {
		event := domain.TelemetryEvent{
			ID:         model.ID,
			TenantID:   model.TenantID,
			VendorID:   model.VendorID,
			ProviderID: model.ProviderID,
			EventType:  model.EventType,
			Payload:    model.Payload,
			ReceivedAt: model.ReceivedAt,
		}
		if len(model.Metrics) > 0 {
			if err := json.Unmarshal(model.Metrics, &event.Metrics); err != nil {
				return nil, err
			}
		}
		out = append(out, event)
	}
	return out, nil
}
