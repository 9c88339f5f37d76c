package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sentra/internal/domain"

	"go.uber.org/zap"
)

var ErrVendorRequired = errors.New("vendor id required")

type IngestRequest struct {
	ProviderID string
	VendorID   string
	Body       []byte
	Signature  string
	Timestamp  string
}

type IngestResult struct {
	Event     domain.TelemetryEvent
	Findings  []domain.ControlFinding
	Alerts    []domain.Alert
	RateLimit domain.RateLimitDecision
}

// telemetryPayload is the accepted wire shape of a vendor webhook body.
// Unknown fields are kept in the stored raw payload but otherwise ignored.
type telemetryPayload struct {
	EventType string             `json:"event_type"`
	Metrics   map[string]float64 `json:"metrics"`
}

// IngestTelemetry runs the inbound pipeline for one webhook delivery:
// rate limit, signature verify, decode, persist, evaluate controls, raise
// alerts. The rate limiter runs first so an exhausted tenant costs no HMAC
// computation or secret lookup.
type IngestTelemetry struct {
	Limiter   domain.RateLimiter
	Verifier  SignatureVerifier
	Vendors   VendorRepository
	Events    EventRepository
	Evaluator domain.ControlEvaluator
	Controls  []domain.ComplianceControl
	Alerts    *AlertEmitter

	Limit  int
	Window time.Duration

	// FailClosed rejects requests when the limiter backend errors
	// (relevant for the redis backend; the in-memory limiter never errors).
	FailClosed bool

	Clock  Clock
	Logger *zap.Logger
}

func (uc *IngestTelemetry) Execute(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if req.VendorID == "" {
		return nil, ErrVendorRequired
	}
	result := &IngestResult{}

	if uc.Limiter != nil {
		decision, err := uc.Limiter.Allow(ctx, req.VendorID, uc.Limit, uc.Window)
		if err != nil {
			uc.logger().Error("rate limiter backend failed",
				zap.String("vendor_id", req.VendorID),
				zap.Error(err))
			if uc.FailClosed {
				return nil, err
			}
		} else {
			result.RateLimit = decision
			if !decision.Allowed {
				return result, fmt.Errorf("vendor %q: %w", req.VendorID, domain.ErrRateLimited)
			}
		}
	}

	verification, err := uc.Verifier.Verify(ctx, req.ProviderID, req.Body, req.Signature, req.Timestamp)
	if err != nil {
		return result, err
	}

	vendor, err := uc.Vendors.GetByID(ctx, req.VendorID)
	if err != nil {
		return result, fmt.Errorf("vendor %q: %w", req.VendorID, err)
	}
	if vendor.ProviderID != verification.ProviderID {
		return result, fmt.Errorf("vendor %q not registered for provider %q: %w",
			req.VendorID, verification.ProviderID, domain.ErrNotFound)
	}

	var payload telemetryPayload
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		return result, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if payload.EventType == "" {
		return result, fmt.Errorf("%w: event_type required", domain.ErrInvalidPayload)
	}

	event, err := uc.Events.Append(ctx, domain.TelemetryEvent{
		TenantID:   vendor.TenantID,
		VendorID:   vendor.ID,
		ProviderID: verification.ProviderID,
		EventType:  payload.EventType,
		Metrics:    payload.Metrics,
		Payload:    req.Body,
		ReceivedAt: uc.now().UTC(),
	})
	if err != nil {
		return result, err
	}
	result.Event = event

	if uc.Evaluator == nil || len(payload.Metrics) == 0 {
		return result, nil
	}
	evaluation, err := uc.Evaluator.Evaluate(ctx, domain.ControlInput{
		TenantID: vendor.TenantID,
		VendorID: vendor.ID,
		Metrics:  payload.Metrics,
		Controls: uc.Controls,
	})
	if err != nil {
		// The event is already accepted and stored; an evaluator failure
		// must not turn into a vendor-visible rejection.
		uc.logger().Error("control evaluation failed",
			zap.String("tenant_id", vendor.TenantID),
			zap.String("event_id", event.ID),
			zap.Error(err))
		return result, nil
	}
	result.Findings = evaluation.Findings

	if uc.Alerts != nil && len(evaluation.Findings) > 0 {
		alerts, err := uc.Alerts.EmitFindings(ctx, event, evaluation.Findings)
		result.Alerts = alerts
		if err != nil {
			uc.logger().Error("alert emission failed",
				zap.String("tenant_id", vendor.TenantID),
				zap.String("event_id", event.ID),
				zap.Error(err))
		}
	}
	return result, nil
}

func (uc *IngestTelemetry) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock()
	}
	return time.Now()
}

func (uc *IngestTelemetry) logger() *zap.Logger {
	if uc.Logger != nil {
		return uc.Logger
	}
	return zap.NewNop()
}
