package secrets

import (
	"context"
	"errors"
	"fmt"

	"sentra/internal/domain"
	"sentra/internal/infra/vaultclient"
)

const vaultPathPrefix = "secret/data/sentra/webhooks/"

// VaultStore reads webhook secrets from Vault KV v2. Each secret lives at
// secret/data/sentra/webhooks/<name> under the key "value".
type VaultStore struct {
	client *vaultclient.Client
}

func NewVaultStore(client *vaultclient.Client) *VaultStore {
	return &VaultStore{client: client}
}

func (s *VaultStore) Get(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name is required")
	}
	var out struct {
		Value string `json:"value"`
	}
	err := s.client.ReadKV(ctx, vaultPathPrefix+name, &out)
	if err != nil {
		if errors.Is(err, vaultclient.ErrNotFound) {
			return "", fmt.Errorf("secret %q: %w", name, domain.ErrNotFound)
		}
		return "", fmt.Errorf("vault read %q: %w", name, err)
	}
	if out.Value == "" {
		return "", fmt.Errorf("secret %q: %w", name, domain.ErrNotFound)
	}
	return out.Value, nil
}
