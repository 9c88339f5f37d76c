package webhook

import (
	"encoding/json"
	"fmt"
	"os"

	"sentra/internal/domain"
)

// DefaultProviders is the built-in provider table, used when no
// PROVIDERS_PATH override is supplied.
func DefaultProviders() []domain.ProviderConfig {
	return []domain.ProviderConfig{
		{
			ID:               "sentra",
			SignatureHeader:  "X-Sentra-Signature",
			TimestampHeader:  "X-Sentra-Timestamp",
			SecretName:       "sentra",
			Algorithm:        domain.HashSHA256,
			RequireTimestamp: true,
		},
		{
			// Older vendor integrations sign the bare body with SHA-1 and
			// send no timestamp. Kept until the last of them migrates.
			ID:              "legacy",
			SignatureHeader: "X-Webhook-Signature",
			SecretName:      "legacy",
			Algorithm:       domain.HashSHA1,
		},
	}
}

// LoadProviders reads a provider table from a JSON file.
func LoadProviders(path string) ([]domain.ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers: %w", err)
	}
	var providers []domain.ProviderConfig
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, fmt.Errorf("parse providers: %w", err)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("providers file %q is empty", path)
	}
	return providers, nil
}
