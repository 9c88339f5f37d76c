package usecase

import (
	"context"
	"time"

	"sentra/internal/domain"
)

// Clock supplies the current time; tests inject a fixed one.
type Clock func() time.Time

type VendorRepository interface {
	Create(ctx context.Context, vendor domain.Vendor) (domain.Vendor, error)
	GetByID(ctx context.Context, vendorID string) (*domain.Vendor, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Vendor, error)
}

type EventRepository interface {
	Append(ctx context.Context, event domain.TelemetryEvent) (domain.TelemetryEvent, error)
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]domain.TelemetryEvent, error)
}

type AlertRepository interface {
	Create(ctx context.Context, alert domain.Alert) (domain.Alert, error)
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]domain.Alert, error)
}

// SignatureVerifier authenticates a raw webhook body against a provider's
// shared secret.
type SignatureVerifier interface {
	Verify(ctx context.Context, providerID string, rawBody []byte, signature, timestamp string) (domain.VerificationResult, error)
}
