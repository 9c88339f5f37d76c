package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sentra/internal/config"
	"sentra/internal/controls"
	"sentra/internal/domain"
	"sentra/internal/infra/memstore"
	"sentra/internal/infra/ratelimit"
	"sentra/internal/infra/webhook"
	"sentra/internal/usecase"
	"sentra/pkg/signing"

	"github.com/gin-gonic/gin"
)

type staticSecrets map[string]string

func (s staticSecrets) Get(_ context.Context, name string) (string, error) {
	return s[name], nil
}

type serverFixture struct {
	srv    *Server
	store  *memstore.Store
	signer signing.Signer
	now    time.Time
}

func newServerFixture(t *testing.T, limit int) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	verifier, err := webhook.NewVerifier(webhook.VerifierConfig{
		Providers: webhook.DefaultProviders(),
		Secrets:   staticSecrets{"sentra": "s3cr3t", "legacy": "s3cr3t"},
		Now:       clock,
	})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	store := memstore.New()
	emitter := usecase.NewAlertEmitter(store.Alerts(), clock, nil)
	ingest := &usecase.IngestTelemetry{
		Limiter:   ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{Now: clock}),
		Verifier:  verifier,
		Vendors:   store.Vendors(),
		Events:    store.Events(),
		Evaluator: controls.NewThresholdEvaluator(),
		Controls:  controls.SeedControls(),
		Alerts:    emitter,
		Limit:     limit,
		Window:    15 * time.Minute,
		Clock:     clock,
	}

	cfg := config.Config{HTTPAddr: ":0", AdminAPIKey: "test-admin-key"}
	srv := NewServerWithDeps(cfg, ServerDeps{
		Ingest:   ingest,
		Vendors:  store.Vendors(),
		Events:   store.Events(),
		Alerts:   store.Alerts(),
		Provider: verifier.Provider,
	})
	return &serverFixture{
		srv:    srv,
		store:  store,
		signer: signing.Signer{Secret: "s3cr3t", Algorithm: domain.HashSHA256},
		now:    now,
	}
}

func (f *serverFixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func (f *serverFixture) createVendor(t *testing.T, tenantID, name, providerID string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"tenant_id":   tenantID,
		"name":        name,
		"provider_id": providerID,
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/vendors", bytes.NewReader(body))
	req.Header.Set("X-Admin-Key", "test-admin-key")
	w := f.do(t, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create vendor: status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode vendor response: %v", err)
	}
	return resp.ID
}

func (f *serverFixture) ingestRequest(t *testing.T, vendorID string, payload string) *http.Request {
	t.Helper()
	body := []byte(payload)
	signature, timestamp, err := f.signer.Sign(f.now, body)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/sentra", bytes.NewReader(body))
	req.Header.Set(VendorHeader, vendorID)
	req.Header.Set("X-Sentra-Signature", signature)
	req.Header.Set("X-Sentra-Timestamp", timestamp)
	return req
}

func TestIngestEndpointAcceptsSignedTelemetry(t *testing.T) {
	f := newServerFixture(t, 1000)
	vendorID := f.createVendor(t, "tenant-1", "Acme Scribe AI", "sentra")

	w := f.do(t, f.ingestRequest(t, vendorID,
		`{"event_type":"inference.batch","metrics":{"model_error_rate":0.01,"uptime_ratio":0.999}}`))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp ingestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.EventID == "" {
		t.Fatal("expected event id")
	}
	if resp.Findings != 0 {
		t.Fatalf("findings = %d, want 0", resp.Findings)
	}
	if got := w.Header().Get("RateLimit-Remaining"); got != "999" {
		t.Fatalf("RateLimit-Remaining = %q", got)
	}
}

func TestIngestEndpointRaisesAlerts(t *testing.T) {
	f := newServerFixture(t, 1000)
	vendorID := f.createVendor(t, "tenant-1", "Acme Scribe AI", "sentra")

	w := f.do(t, f.ingestRequest(t, vendorID,
		`{"event_type":"inference.batch","metrics":{"phi_exposure_count":2,"model_error_rate":0.2}}`))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp ingestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Findings != 2 || len(resp.Alerts) != 2 {
		t.Fatalf("findings = %d, alerts = %d, want 2 and 2", resp.Findings, len(resp.Alerts))
	}

	listReq := httptest.NewRequest(http.MethodGet, "/v1/alerts?tenant_id=tenant-1", nil)
	lw := f.do(t, listReq)
	if lw.Code != http.StatusOK {
		t.Fatalf("list alerts: status %d", lw.Code)
	}
	var list struct {
		Alerts []alertResponse `json:"alerts"`
	}
	if err := json.Unmarshal(lw.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Alerts) != 2 {
		t.Fatalf("stored alerts = %d, want 2", len(list.Alerts))
	}
	for _, alert := range list.Alerts {
		if alert.EventID != resp.EventID {
			t.Fatalf("alert %s not linked to event %s", alert.ID, resp.EventID)
		}
	}
}

func TestIngestEndpointRejectsTamperedBody(t *testing.T) {
	f := newServerFixture(t, 1000)
	vendorID := f.createVendor(t, "tenant-1", "Acme Scribe AI", "sentra")

	original := []byte(`{"event_type":"inference.batch","metrics":{"model_error_rate":0.01}}`)
	signature, timestamp, err := f.signer.Sign(f.now, original)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	tampered := []byte(`{"event_type":"inference.batch","metrics":{"model_error_rate":0.99}}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/sentra", bytes.NewReader(tampered))
	req.Header.Set(VendorHeader, vendorID)
	req.Header.Set("X-Sentra-Signature", signature)
	req.Header.Set("X-Sentra-Timestamp", timestamp)

	w := f.do(t, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "SIGNATURE_INVALID" {
		t.Fatalf("code = %q", resp.Code)
	}
	events, _ := f.store.Events().ListByTenant(context.Background(), "tenant-1", 10)
	if len(events) != 0 {
		t.Fatalf("tampered request stored %d events", len(events))
	}
}

func TestIngestEndpointRejectsStaleTimestamp(t *testing.T) {
	f := newServerFixture(t, 1000)
	vendorID := f.createVendor(t, "tenant-1", "Acme Scribe AI", "sentra")

	body := []byte(`{"event_type":"inference.batch","metrics":{"model_error_rate":0.01}}`)
	signature, timestamp, err := f.signer.Sign(f.now.Add(-6*time.Minute), body)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/sentra", bytes.NewReader(body))
	req.Header.Set(VendorHeader, vendorID)
	req.Header.Set("X-Sentra-Signature", signature)
	req.Header.Set("X-Sentra-Timestamp", timestamp)

	w := f.do(t, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	var resp errorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != "STALE_REQUEST" {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestIngestEndpointUnknownProviderIsServerError(t *testing.T) {
	f := newServerFixture(t, 1000)
	vendorID := f.createVendor(t, "tenant-1", "Acme Scribe AI", "sentra")

	body := []byte(`{"event_type":"x"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/ingest/ghost", bytes.NewReader(body))
	req.Header.Set(VendorHeader, vendorID)
	req.Header.Set("X-Sentra-Signature", "aa")

	w := f.do(t, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var resp errorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != "PROVIDER_NOT_CONFIGURED" {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestIngestEndpointRateLimits(t *testing.T) {
	f := newServerFixture(t, 2)
	vendorID := f.createVendor(t, "tenant-1", "Acme Scribe AI", "sentra")
	payload := `{"event_type":"inference.batch","metrics":{"model_error_rate":0.01}}`

	for i := 0; i < 2; i++ {
		w := f.do(t, f.ingestRequest(t, vendorID, payload))
		if w.Code != http.StatusAccepted {
			t.Fatalf("request %d: status %d: %s", i, w.Code, w.Body.String())
		}
	}
	w := f.do(t, f.ingestRequest(t, vendorID, payload))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
	if got := w.Header().Get("RateLimit-Remaining"); got != "0" {
		t.Fatalf("RateLimit-Remaining = %q, want 0", got)
	}

	// A second vendor is unaffected.
	otherID := f.createVendor(t, "tenant-2", "Other Bot", "sentra")
	if w := f.do(t, f.ingestRequest(t, otherID, payload)); w.Code != http.StatusAccepted {
		t.Fatalf("other vendor: status %d", w.Code)
	}
}

func TestCreateVendorRequiresAdminKey(t *testing.T) {
	f := newServerFixture(t, 1000)
	body, _ := json.Marshal(map[string]string{
		"tenant_id":   "tenant-1",
		"name":        "Acme",
		"provider_id": "sentra",
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/vendors", bytes.NewReader(body))
	if w := f.do(t, req); w.Code != http.StatusUnauthorized {
		t.Fatalf("no key: status %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/vendors", bytes.NewReader(body))
	req.Header.Set("X-Admin-Key", "wrong")
	if w := f.do(t, req); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: status %d, want 401", w.Code)
	}
}

func TestCreateVendorRejectsUnknownProvider(t *testing.T) {
	f := newServerFixture(t, 1000)
	body, _ := json.Marshal(map[string]string{
		"tenant_id":   "tenant-1",
		"name":        "Acme",
		"provider_id": "ghost",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/vendors", bytes.NewReader(body))
	req.Header.Set("X-Admin-Key", "test-admin-key")
	w := f.do(t, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestListEndpointsRequireTenant(t *testing.T) {
	f := newServerFixture(t, 1000)
	for _, path := range []string{"/v1/alerts", "/v1/events", "/v1/vendors"} {
		w := f.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d, want 400", path, w.Code)
		}
	}
}

func TestListEventsReturnsIngested(t *testing.T) {
	f := newServerFixture(t, 1000)
	vendorID := f.createVendor(t, "tenant-1", "Acme Scribe AI", "sentra")
	w := f.do(t, f.ingestRequest(t, vendorID,
		`{"event_type":"inference.batch","metrics":{"model_error_rate":0.01}}`))
	if w.Code != http.StatusAccepted {
		t.Fatalf("ingest: status %d", w.Code)
	}

	lw := f.do(t, httptest.NewRequest(http.MethodGet, "/v1/events?tenant_id=tenant-1", nil))
	if lw.Code != http.StatusOK {
		t.Fatalf("list: status %d", lw.Code)
	}
	var list struct {
		Events []eventResponse `json:"events"`
	}
	if err := json.Unmarshal(lw.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(list.Events))
	}
	if list.Events[0].EventType != "inference.batch" || list.Events[0].VendorID != vendorID {
		t.Fatalf("unexpected event: %+v", list.Events[0])
	}
}

func TestHealthzReportsNoDBMode(t *testing.T) {
	f := newServerFixture(t, 1000)
	w := f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["mode"] != "no-db" {
		t.Fatalf("mode = %q, want no-db", resp["mode"])
	}
}
