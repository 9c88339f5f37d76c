package domain

import "context"

// HashAlg identifies the HMAC hash used by a provider's signatures.
type HashAlg string

const (
	HashSHA256 HashAlg = "sha256"
	HashSHA1   HashAlg = "sha1"
	HashSHA512 HashAlg = "sha512"
)

func (a HashAlg) Valid() bool {
	switch a {
	case HashSHA256, HashSHA1, HashSHA512:
		return true
	}
	return false
}

// ProviderConfig describes one external webhook signer. Loaded once at
// startup and immutable thereafter; an unknown provider at runtime is an
// operator error, never an auth failure.
type ProviderConfig struct {
	ID               string  `json:"id"`
	SignatureHeader  string  `json:"signature_header"`
	TimestampHeader  string  `json:"timestamp_header,omitempty"`
	SecretName       string  `json:"secret_name"`
	Algorithm        HashAlg `json:"algorithm"`
	RequireTimestamp bool    `json:"require_timestamp"`
}

// VerificationResult is returned on a successful signature check.
type VerificationResult struct {
	ProviderID string
	Timestamp  int64 // epoch millis when the provider binds one, zero otherwise
}

// SecretStore resolves credential names to shared secrets. Implementations
// are read-only after startup and must never log secret values.
type SecretStore interface {
	Get(ctx context.Context, name string) (string, error)
}
