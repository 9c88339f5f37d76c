package domain

import "time"

// Vendor is a registered third-party AI system that pushes telemetry.
// Vendors are the rate-limited tenants of the gateway.
type Vendor struct {
	ID         string
	TenantID   string
	Name       string
	ProviderID string
	CreatedAt  time.Time
}

// TelemetryEvent is one accepted webhook payload after verification.
type TelemetryEvent struct {
	ID         string
	TenantID   string
	VendorID   string
	ProviderID string
	EventType  string
	Metrics    map[string]float64
	Payload    []byte
	ReceivedAt time.Time
}
