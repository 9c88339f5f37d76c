package domain

import (
	"context"
	"time"
)

type Comparison string

const (
	CompareGreaterThan Comparison = "gt"
	CompareLessThan    Comparison = "lt"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// ComplianceControl maps a governance requirement to a telemetry metric and
// a threshold. A metric that crosses the threshold breaches the control.
type ComplianceControl struct {
	ID          string     `json:"id"`
	Framework   string     `json:"framework"`
	Title       string     `json:"title"`
	Metric      string     `json:"metric"`
	Comparison  Comparison `json:"comparison"`
	Threshold   float64    `json:"threshold"`
	Severity    Severity   `json:"severity"`
	Description string     `json:"description,omitempty"`
}

// ControlInput is the document handed to the control evaluator (and, when
// configured, to the OPA bundle as its input).
type ControlInput struct {
	TenantID string              `json:"tenant_id"`
	VendorID string              `json:"vendor_id"`
	Metrics  map[string]float64  `json:"metrics"`
	Controls []ComplianceControl `json:"controls"`
}

// ControlFinding is one breached control.
type ControlFinding struct {
	ControlID string   `json:"control_id"`
	Metric    string   `json:"metric"`
	Observed  float64  `json:"observed"`
	Threshold float64  `json:"threshold"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message,omitempty"`
}

type ControlEvaluation struct {
	BundleID   string           `json:"bundle_id,omitempty"`
	BundleHash string           `json:"bundle_hash,omitempty"`
	Findings   []ControlFinding `json:"findings,omitempty"`
}

// ControlEvaluator turns telemetry metrics into control findings.
type ControlEvaluator interface {
	Evaluate(ctx context.Context, input ControlInput) (ControlEvaluation, error)
}

// Alert records a control breach for a tenant's dashboard and paging.
type Alert struct {
	ID        string
	TenantID  string
	VendorID  string
	EventID   string
	ControlID string
	Severity  Severity
	Observed  float64
	Threshold float64
	Message   string
	RaisedAt  time.Time
}
