package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"sentra/internal/domain"
	"sentra/internal/infra/memstore"
)

type fakeLimiter struct {
	decision domain.RateLimitDecision
	err      error
	calls    int
}

func (f *fakeLimiter) Allow(_ context.Context, _ string, _ int, _ time.Duration) (domain.RateLimitDecision, error) {
	f.calls++
	return f.decision, f.err
}

type fakeVerifier struct {
	result domain.VerificationResult
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(_ context.Context, _ string, _ []byte, _, _ string) (domain.VerificationResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeEvaluator struct {
	evaluation domain.ControlEvaluation
	err        error
	lastInput  domain.ControlInput
}

func (f *fakeEvaluator) Evaluate(_ context.Context, input domain.ControlInput) (domain.ControlEvaluation, error) {
	f.lastInput = input
	return f.evaluation, f.err
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func newIngestFixture(t *testing.T) (*IngestTelemetry, *memstore.Store, *fakeVerifier) {
	t.Helper()
	store := memstore.New()
	vendor, err := store.Vendors().Create(context.Background(), domain.Vendor{
		ID:         "vendor-1",
		TenantID:   "tenant-1",
		Name:       "Acme Scribe AI",
		ProviderID: "sentra",
	})
	if err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
	if vendor.ID != "vendor-1" {
		t.Fatalf("vendor id = %q", vendor.ID)
	}
	verifier := &fakeVerifier{result: domain.VerificationResult{ProviderID: "sentra", Timestamp: 1700000000000}}
	uc := &IngestTelemetry{
		Limiter:  &fakeLimiter{decision: domain.RateLimitDecision{Allowed: true, Limit: 1000, Remaining: 999}},
		Verifier: verifier,
		Vendors:  store.Vendors(),
		Events:   store.Events(),
		Limit:    1000,
		Window:   15 * time.Minute,
		Clock:    fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
	return uc, store, verifier
}

func TestIngestHappyPathPersistsAndAlerts(t *testing.T) {
	uc, store, _ := newIngestFixture(t)
	evaluator := &fakeEvaluator{evaluation: domain.ControlEvaluation{
		Findings: []domain.ControlFinding{{
			ControlID: "phi-exposure",
			Metric:    "phi_exposure_count",
			Observed:  3,
			Threshold: 0,
			Severity:  domain.SeverityCritical,
		}},
	}}
	uc.Evaluator = evaluator
	uc.Alerts = NewAlertEmitter(store.Alerts(), uc.Clock, nil)

	body := []byte(`{"event_type":"inference.batch","metrics":{"phi_exposure_count":3}}`)
	result, err := uc.Execute(context.Background(), IngestRequest{
		ProviderID: "sentra",
		VendorID:   "vendor-1",
		Body:       body,
		Signature:  "aa",
		Timestamp:  "1700000000000",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Event.ID == "" {
		t.Fatal("expected stored event id")
	}
	if result.Event.TenantID != "tenant-1" || result.Event.EventType != "inference.batch" {
		t.Fatalf("unexpected event: %+v", result.Event)
	}
	if got := result.Event.Metrics["phi_exposure_count"]; got != 3 {
		t.Fatalf("metrics not decoded, got %v", got)
	}
	if evaluator.lastInput.TenantID != "tenant-1" || evaluator.lastInput.VendorID != "vendor-1" {
		t.Fatalf("evaluator input = %+v", evaluator.lastInput)
	}
	if len(result.Alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(result.Alerts))
	}
	alert := result.Alerts[0]
	if alert.EventID != result.Event.ID || alert.ControlID != "phi-exposure" {
		t.Fatalf("alert not linked to event: %+v", alert)
	}
	if !alert.RaisedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("alert RaisedAt = %v", alert.RaisedAt)
	}
	stored, err := store.Alerts().ListByTenant(context.Background(), "tenant-1", 10)
	if err != nil {
		t.Fatalf("ListByTenant: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("persisted alerts = %d, want 1", len(stored))
	}
}

func TestIngestRateLimitedSkipsVerification(t *testing.T) {
	uc, _, verifier := newIngestFixture(t)
	uc.Limiter = &fakeLimiter{decision: domain.RateLimitDecision{
		Allowed:    false,
		Limit:      1000,
		Remaining:  0,
		RetryAfter: 42,
	}}

	result, err := uc.Execute(context.Background(), IngestRequest{
		ProviderID: "sentra",
		VendorID:   "vendor-1",
		Body:       []byte(`{"event_type":"x"}`),
		Signature:  "aa",
	})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if verifier.calls != 0 {
		t.Fatalf("verifier called %d times on a limited request", verifier.calls)
	}
	if result.RateLimit.RetryAfter != 42 {
		t.Fatalf("RetryAfter = %d, want 42", result.RateLimit.RetryAfter)
	}
}

func TestIngestRejectsInvalidSignature(t *testing.T) {
	uc, store, verifier := newIngestFixture(t)
	verifier.err = domain.ErrInvalidSignature

	_, err := uc.Execute(context.Background(), IngestRequest{
		ProviderID: "sentra",
		VendorID:   "vendor-1",
		Body:       []byte(`{"event_type":"x"}`),
		Signature:  "bad",
	})
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
	events, _ := store.Events().ListByTenant(context.Background(), "tenant-1", 10)
	if len(events) != 0 {
		t.Fatalf("rejected request stored %d events", len(events))
	}
}

func TestIngestUnknownVendor(t *testing.T) {
	uc, _, _ := newIngestFixture(t)
	_, err := uc.Execute(context.Background(), IngestRequest{
		ProviderID: "sentra",
		VendorID:   "nope",
		Body:       []byte(`{"event_type":"x"}`),
		Signature:  "aa",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestIngestVendorProviderMismatch(t *testing.T) {
	uc, store, _ := newIngestFixture(t)
	if _, err := store.Vendors().Create(context.Background(), domain.Vendor{
		ID:         "vendor-legacy",
		TenantID:   "tenant-1",
		Name:       "Legacy Bot",
		ProviderID: "legacy",
	}); err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
	_, err := uc.Execute(context.Background(), IngestRequest{
		ProviderID: "sentra",
		VendorID:   "vendor-legacy",
		Body:       []byte(`{"event_type":"x"}`),
		Signature:  "aa",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestIngestMalformedPayload(t *testing.T) {
	uc, store, _ := newIngestFixture(t)
	for name, body := range map[string]string{
		"not json":           `{"event_type":`,
		"missing event_type": `{"metrics":{"a":1}}`,
	} {
		_, err := uc.Execute(context.Background(), IngestRequest{
			ProviderID: "sentra",
			VendorID:   "vendor-1",
			Body:       []byte(body),
			Signature:  "aa",
		})
		if !errors.Is(err, domain.ErrInvalidPayload) {
			t.Fatalf("%s: err = %v, want ErrInvalidPayload", name, err)
		}
	}
	events, _ := store.Events().ListByTenant(context.Background(), "tenant-1", 10)
	if len(events) != 0 {
		t.Fatalf("malformed payloads stored %d events", len(events))
	}
}

func TestIngestMissingVendorID(t *testing.T) {
	uc, _, _ := newIngestFixture(t)
	_, err := uc.Execute(context.Background(), IngestRequest{
		ProviderID: "sentra",
		Body:       []byte(`{"event_type":"x"}`),
		Signature:  "aa",
	})
	if !errors.Is(err, ErrVendorRequired) {
		t.Fatalf("err = %v, want ErrVendorRequired", err)
	}
}

func TestIngestLimiterBackendFailure(t *testing.T) {
	uc, _, _ := newIngestFixture(t)
	limiter := &fakeLimiter{err: errors.New("redis down")}
	uc.Limiter = limiter

	// Fail-open by default: the request proceeds through verification.
	if _, err := uc.Execute(context.Background(), IngestRequest{
		ProviderID: "sentra",
		VendorID:   "vendor-1",
		Body:       []byte(`{"event_type":"x"}`),
		Signature:  "aa",
	}); err != nil {
		t.Fatalf("fail-open Execute: %v", err)
	}

	uc.FailClosed = true
	if _, err := uc.Execute(context.Background(), IngestRequest{
		ProviderID: "sentra",
		VendorID:   "vendor-1",
		Body:       []byte(`{"event_type":"x"}`),
		Signature:  "aa",
	}); err == nil {
		t.Fatal("fail-closed Execute accepted despite limiter error")
	}
}

func TestIngestEvaluatorFailureDoesNotReject(t *testing.T) {
	uc, store, _ := newIngestFixture(t)
	uc.Evaluator = &fakeEvaluator{err: errors.New("bundle compile failed")}
	uc.Alerts = NewAlertEmitter(store.Alerts(), uc.Clock, nil)

	result, err := uc.Execute(context.Background(), IngestRequest{
		ProviderID: "sentra",
		VendorID:   "vendor-1",
		Body:       []byte(`{"event_type":"x","metrics":{"a":1}}`),
		Signature:  "aa",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Event.ID == "" {
		t.Fatal("event not stored despite evaluator failure")
	}
	if len(result.Alerts) != 0 {
		t.Fatalf("alerts = %d, want 0", len(result.Alerts))
	}
}
