package domain

import "errors"

// Operator-class failures: a deployment defect, not an attacker signal.
// Surfaced as server errors and alerted on.
var (
	ErrUnknownProvider     = errors.New("unknown provider")
	ErrSecretNotConfigured = errors.New("webhook secret not configured")
)

// Caller-class failures: the request did not prove possession of the
// provider's secret. Surfaced as auth errors.
var (
	ErrMissingBody      = errors.New("missing body")
	ErrMissingSignature = errors.New("missing signature")
	ErrMissingTimestamp = errors.New("missing timestamp")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrStaleRequest     = errors.New("stale request")
	ErrInvalidSignature = errors.New("invalid signature")
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrInvalidPayload = errors.New("invalid telemetry payload")
)

// OperatorError reports whether err belongs to the operator class of
// verification failures (misconfiguration rather than a bad request).
func OperatorError(err error) bool {
	return errors.Is(err, ErrUnknownProvider) || errors.Is(err, ErrSecretNotConfigured)
}
