package secrets

import (
	"context"
	"errors"
	"testing"

	"sentra/internal/config"
	"sentra/internal/domain"
)

func TestEnvStore(t *testing.T) {
	t.Setenv("SENTRA_SECRET_ACME_AI", "s3cr3t")

	store := EnvStore{}
	secret, err := store.Get(context.Background(), "acme-ai")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if secret != "s3cr3t" {
		t.Fatalf("secret = %q", secret)
	}

	if _, err := store.Get(context.Background(), "unset"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStatic(t *testing.T) {
	store := Static{"acme": "s"}
	if secret, err := store.Get(context.Background(), "acme"); err != nil || secret != "s" {
		t.Fatalf("get = %q, %v", secret, err)
	}
	if _, err := store.Get(context.Background(), "other"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFromConfig(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"default env", config.Config{}, false},
		{"explicit env", config.Config{SecretsBackend: "env"}, false},
		{"vault missing addr", config.Config{SecretsBackend: "vault"}, true},
		{"vault configured", config.Config{SecretsBackend: "vault", VaultAddr: "https://vault.example", VaultToken: "t"}, false},
		{"aws missing creds", config.Config{SecretsBackend: "aws"}, true},
		{"unknown backend", config.Config{SecretsBackend: "gcp"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := FromConfig(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("from config: %v", err)
			}
			if store == nil {
				t.Fatal("nil store")
			}
		})
	}
}
