// Package secrets resolves provider credential names to shared secrets.
// Backends are selected once at startup; none of them logs secret values.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"sentra/internal/config"
	"sentra/internal/domain"
	"sentra/internal/infra/awsclient"
	"sentra/internal/infra/vaultclient"
)

// EnvPrefix is the environment variable prefix for the env backend:
// secret name "acme" resolves from SENTRA_SECRET_ACME.
const EnvPrefix = "SENTRA_SECRET_"

type EnvStore struct{}

func (EnvStore) Get(_ context.Context, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name is required")
	}
	v := os.Getenv(EnvPrefix + envKey(name))
	if v == "" {
		return "", fmt.Errorf("secret %q: %w", name, domain.ErrNotFound)
	}
	return v, nil
}

func envKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Static is a fixed name→secret map, used in tests and single-tenant
// deployments.
type Static map[string]string

func (s Static) Get(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok || v == "" {
		return "", fmt.Errorf("secret %q: %w", name, domain.ErrNotFound)
	}
	return v, nil
}

// FromConfig builds the store named by SECRETS_BACKEND.
func FromConfig(cfg config.Config) (domain.SecretStore, error) {
	switch cfg.SecretsBackend {
	case "", "env":
		return EnvStore{}, nil
	case "vault":
		if cfg.VaultAddr == "" || cfg.VaultToken == "" {
			return nil, fmt.Errorf("vault backend requires VAULT_ADDR and VAULT_TOKEN")
		}
		return NewVaultStore(vaultclient.New(cfg.VaultAddr, cfg.VaultToken)), nil
	case "aws":
		client, err := awsclient.NewFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		return NewAWSStore(client), nil
	default:
		return nil, fmt.Errorf("unknown secrets backend %q", cfg.SecretsBackend)
	}
}
