// Package memstore backs the gateway's repositories with process memory,
// for no-db deployments and tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"sentra/internal/domain"

	"github.com/google/uuid"
)

type Store struct {
	mu      sync.RWMutex
	vendors map[string]domain.Vendor
	events  []domain.TelemetryEvent
	alerts  []domain.Alert
}

func New() *Store {
	return &Store{
		vendors: make(map[string]domain.Vendor),
	}
}

func (s *Store) Vendors() *VendorRepo { return &VendorRepo{store: s} }
func (s *Store) Events() *EventRepo   { return &EventRepo{store: s} }
func (s *Store) Alerts() *AlertRepo   { return &AlertRepo{store: s} }

type VendorRepo struct {
	store *Store
}

func (r *VendorRepo) Create(_ context.Context, vendor domain.Vendor) (domain.Vendor, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if vendor.ID == "" {
		vendor.ID = uuid.NewString()
	}
	if vendor.CreatedAt.IsZero() {
		vendor.CreatedAt = time.Now().UTC()
	}
	s.vendors[vendor.ID] = vendor
	return vendor, nil
}

func (r *VendorRepo) GetByID(_ context.Context, vendorID string) (*domain.Vendor, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	vendor, ok := s.vendors[vendorID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &vendor, nil
}

func (r *VendorRepo) ListByTenant(_ context.Context, tenantID string) ([]domain.Vendor, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Vendor
	for _, vendor := range s.vendors {
		if vendor.TenantID == tenantID {
			out = append(out, vendor)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type EventRepo struct {
	store *Store
}

func (r *EventRepo) Append(_ context.Context, event domain.TelemetryEvent) (domain.TelemetryEvent, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}
	s.events = append(s.events, event)
	return event, nil
}

func (r *EventRepo) ListByTenant(_ context.Context, tenantID string, limit int) ([]domain.TelemetryEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.TelemetryEvent
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if s.events[i].TenantID == tenantID {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}

type AlertRepo struct {
	store *Store
}

func (r *AlertRepo) Create(_ context.Context, alert domain.Alert) (domain.Alert, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.RaisedAt.IsZero() {
		alert.RaisedAt = time.Now().UTC()
	}
	s.alerts = append(s.alerts, alert)
	return alert, nil
}

func (r *AlertRepo) ListByTenant(_ context.Context, tenantID string, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Alert
	for i := len(s.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		if s.alerts[i].TenantID == tenantID {
			out = append(out, s.alerts[i])
		}
	}
	return out, nil
}
