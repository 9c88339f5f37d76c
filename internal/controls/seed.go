// Package controls maps governance requirements to telemetry thresholds and
// evaluates incoming metrics against them.
package controls

import "sentra/internal/domain"

// SeedControls is the built-in control catalogue. Deployments extend or
// replace it with an OPA bundle (CONTROL_BUNDLE_PATH).
func SeedControls() []domain.ComplianceControl {
	return []domain.ComplianceControl{
		{
			ID:          "phi-exposure",
			Framework:   "HIPAA",
			Title:       "PHI exposure events",
			Metric:      "phi_exposure_count",
			Comparison:  domain.CompareGreaterThan,
			Threshold:   0,
			Severity:    domain.SeverityCritical,
			Description: "Any protected-health-information exposure reported by the vendor model is a breach.",
		},
		{
			ID:         "model-error-rate",
			Framework:  "NIST-AI-RMF",
			Title:      "Model error rate",
			Metric:     "model_error_rate",
			Comparison: domain.CompareGreaterThan,
			Threshold:  0.05,
			Severity:   domain.SeverityHigh,
		},
		{
			ID:         "hallucination-rate",
			Framework:  "NIST-AI-RMF",
			Title:      "Hallucination rate",
			Metric:     "hallucination_rate",
			Comparison: domain.CompareGreaterThan,
			Threshold:  0.02,
			Severity:   domain.SeverityHigh,
		},
		{
			ID:         "drift-score",
			Framework:  "NIST-AI-RMF",
			Title:      "Distribution drift",
			Metric:     "drift_score",
			Comparison: domain.CompareGreaterThan,
			Threshold:  0.3,
			Severity:   domain.SeverityMedium,
		},
		{
			ID:         "inference-latency",
			Framework:  "internal",
			Title:      "p95 inference latency",
			Metric:     "p95_latency_ms",
			Comparison: domain.CompareGreaterThan,
			Threshold:  2000,
			Severity:   domain.SeverityLow,
		},
		{
			ID:         "availability",
			Framework:  "internal",
			Title:      "Reported availability",
			Metric:     "uptime_ratio",
			Comparison: domain.CompareLessThan,
			Threshold:  0.995,
			Severity:   domain.SeverityMedium,
		},
	}
}
