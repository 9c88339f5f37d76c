package db

import "time"

type VendorModel struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	TenantID   string    `gorm:"type:uuid;index;not null"`
	Name       string    `gorm:"uniqueIndex:idx_vendor_tenant_name;not null"`
	ProviderID string    `gorm:"index;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (VendorModel) TableName() string {
	return "vendors"
}

type TelemetryEventModel struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	TenantID   string    `gorm:"type:uuid;index;not null"`
	VendorID   string    `gorm:"type:uuid;index;not null"`
	ProviderID string    `gorm:"not null"`
	EventType  string    `gorm:"not null"`
	Metrics    []byte    `gorm:"type:jsonb"`
	Payload    []byte    `gorm:"type:jsonb;not null"`
	ReceivedAt time.Time `gorm:"index;not null"`
}

func (TelemetryEventModel) TableName() string {
	return "telemetry_events"
}

type AlertModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	TenantID  string    `gorm:"type:uuid;index;not null"`
	VendorID  string    `gorm:"type:uuid;index;not null"`
	EventID   string    `gorm:"type:uuid;index;not null"`
	ControlID string    `gorm:"index;not null"`
	Severity  string    `gorm:"not null"`
	Observed  float64   `gorm:"not null"`
	Threshold float64   `gorm:"not null"`
	Message   string
	RaisedAt  time.Time `gorm:"index;not null"`
}

func (AlertModel) TableName() string {
	return "alerts"
}
