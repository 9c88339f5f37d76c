package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"sentra/internal/domain"
	"sentra/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VendorHeader carries the caller's vendor identity on ingest requests.
// It is resolved before any signature work so rate limiting stays cheap.
const VendorHeader = "X-Sentra-Vendor"

const (
	defaultSignatureHeader = "X-Sentra-Signature"
	defaultTimestampHeader = "X-Sentra-Timestamp"
)

type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ingestResponse struct {
	EventID    string          `json:"event_id"`
	ReceivedAt string          `json:"received_at"`
	Findings   int             `json:"findings"`
	Alerts     []alertResponse `json:"alerts,omitempty"`
}

type alertResponse struct {
	ID        string  `json:"id"`
	TenantID  string  `json:"tenant_id"`
	VendorID  string  `json:"vendor_id"`
	EventID   string  `json:"event_id"`
	ControlID string  `json:"control_id"`
	Severity  string  `json:"severity"`
	Observed  float64 `json:"observed"`
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message,omitempty"`
	RaisedAt  string  `json:"raised_at"`
}

type eventResponse struct {
	ID         string             `json:"id"`
	TenantID   string             `json:"tenant_id"`
	VendorID   string             `json:"vendor_id"`
	ProviderID string             `json:"provider_id"`
	EventType  string             `json:"event_type"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	ReceivedAt string             `json:"received_at"`
}

type vendorResponse struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	Name       string `json:"name"`
	ProviderID string `json:"provider_id"`
	CreatedAt  string `json:"created_at"`
}

type createVendorRequest struct {
	TenantID   string `json:"tenant_id"`
	Name       string `json:"name"`
	ProviderID string `json:"provider_id"`
}

func (s *Server) handleIngest(c *gin.Context) {
	if s.ingest == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "INGEST_UNAVAILABLE", "ingest pipeline not configured")
		return
	}
	providerID := c.Param("provider")
	vendorID := c.GetHeader(VendorHeader)

	body, err := c.GetRawData()
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_BODY", "unable to read request body")
		return
	}

	sigHeader, tsHeader := defaultSignatureHeader, defaultTimestampHeader
	if s.provider != nil {
		if p, ok := s.provider(providerID); ok {
			sigHeader = p.SignatureHeader
			if p.TimestampHeader != "" {
				tsHeader = p.TimestampHeader
			}
		}
	}

	result, err := s.ingest.Execute(c.Request.Context(), usecase.IngestRequest{
		ProviderID: providerID,
		VendorID:   vendorID,
		Body:       body,
		Signature:  c.GetHeader(sigHeader),
		Timestamp:  c.GetHeader(tsHeader),
	})
	if result != nil {
		writeRateLimitHeaders(c, result.RateLimit)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	out := ingestResponse{
		EventID:    result.Event.ID,
		ReceivedAt: result.Event.ReceivedAt.UTC().Format(time.RFC3339),
		Findings:   len(result.Findings),
	}
	for _, alert := range result.Alerts {
		out.Alerts = append(out.Alerts, buildAlertResponse(alert))
	}
	c.JSON(http.StatusAccepted, out)
}

func (s *Server) handleListAlerts(c *gin.Context) {
	if s.alerts == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "alert store not configured")
		return
	}
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		writeErrorCode(c, http.StatusBadRequest, "TENANT_REQUIRED", "tenant_id query parameter required")
		return
	}
	alerts, err := s.alerts.ListByTenant(c.Request.Context(), tenantID, queryLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]alertResponse, 0, len(alerts))
	for _, alert := range alerts {
		out = append(out, buildAlertResponse(alert))
	}
	c.JSON(http.StatusOK, gin.H{"alerts": out})
}

func (s *Server) handleListEvents(c *gin.Context) {
	if s.events == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "event store not configured")
		return
	}
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		writeErrorCode(c, http.StatusBadRequest, "TENANT_REQUIRED", "tenant_id query parameter required")
		return
	}
	events, err := s.events.ListByTenant(c.Request.Context(), tenantID, queryLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, eventResponse{
			ID:         event.ID,
			TenantID:   event.TenantID,
			VendorID:   event.VendorID,
			ProviderID: event.ProviderID,
			EventType:  event.EventType,
			Metrics:    event.Metrics,
			ReceivedAt: event.ReceivedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}

func (s *Server) handleListVendors(c *gin.Context) {
	if s.vendors == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "vendor store not configured")
		return
	}
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		writeErrorCode(c, http.StatusBadRequest, "TENANT_REQUIRED", "tenant_id query parameter required")
		return
	}
	vendors, err := s.vendors.ListByTenant(c.Request.Context(), tenantID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]vendorResponse, 0, len(vendors))
	for _, vendor := range vendors {
		out = append(out, buildVendorResponse(vendor))
	}
	c.JSON(http.StatusOK, gin.H{"vendors": out})
}

func (s *Server) handleCreateVendor(c *gin.Context) {
	if !s.requireAdminKey(c) {
		return
	}
	if s.vendors == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "vendor store not configured")
		return
	}
	var req createVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if req.TenantID == "" || req.Name == "" || req.ProviderID == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_VENDOR", "tenant_id, name and provider_id are required")
		return
	}
	if s.provider != nil {
		if _, ok := s.provider(req.ProviderID); !ok {
			writeErrorCode(c, http.StatusBadRequest, "UNKNOWN_PROVIDER", "provider is not configured")
			return
		}
	}
	vendor, err := s.vendors.Create(c.Request.Context(), domain.Vendor{
		TenantID:   req.TenantID,
		Name:       req.Name,
		ProviderID: req.ProviderID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	s.logger.Info("vendor registered",
		zap.String("vendor_id", vendor.ID),
		zap.String("tenant_id", vendor.TenantID),
		zap.String("provider_id", vendor.ProviderID))
	c.JSON(http.StatusCreated, buildVendorResponse(vendor))
}

func buildAlertResponse(alert domain.Alert) alertResponse {
	return alertResponse{
		ID:        alert.ID,
		TenantID:  alert.TenantID,
		VendorID:  alert.VendorID,
		EventID:   alert.EventID,
		ControlID: alert.ControlID,
		Severity:  string(alert.Severity),
		Observed:  alert.Observed,
		Threshold: alert.Threshold,
		Message:   alert.Message,
		RaisedAt:  alert.RaisedAt.UTC().Format(time.RFC3339),
	}
}

func buildVendorResponse(vendor domain.Vendor) vendorResponse {
	return vendorResponse{
		ID:         vendor.ID,
		TenantID:   vendor.TenantID,
		Name:       vendor.Name,
		ProviderID: vendor.ProviderID,
		CreatedAt:  vendor.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func queryLimit(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		status, code = http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, domain.ErrUnknownProvider):
		status, code = http.StatusInternalServerError, "PROVIDER_NOT_CONFIGURED"
	case errors.Is(err, domain.ErrSecretNotConfigured):
		status, code = http.StatusInternalServerError, "SECRET_NOT_CONFIGURED"
	case errors.Is(err, domain.ErrMissingBody):
		status, code = http.StatusUnauthorized, "MISSING_BODY"
	case errors.Is(err, domain.ErrMissingSignature):
		status, code = http.StatusUnauthorized, "MISSING_SIGNATURE"
	case errors.Is(err, domain.ErrMissingTimestamp):
		status, code = http.StatusUnauthorized, "MISSING_TIMESTAMP"
	case errors.Is(err, domain.ErrInvalidTimestamp):
		status, code = http.StatusUnauthorized, "INVALID_TIMESTAMP"
	case errors.Is(err, domain.ErrStaleRequest):
		status, code = http.StatusUnauthorized, "STALE_REQUEST"
	case errors.Is(err, domain.ErrInvalidSignature):
		status, code = http.StatusUnauthorized, "SIGNATURE_INVALID"
	case errors.Is(err, domain.ErrInvalidPayload):
		status, code = http.StatusBadRequest, "INVALID_PAYLOAD"
	case errors.Is(err, usecase.ErrVendorRequired):
		status, code = http.StatusBadRequest, "VENDOR_REQUIRED"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	}
	writeErrorCode(c, status, code, err.Error())
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
