package secrets

import (
	"context"
	"fmt"

	"sentra/internal/infra/awsclient"
)

const awsSecretPrefix = "sentra/webhooks/"

// AWSStore reads webhook secrets from AWS Secrets Manager under
// sentra/webhooks/<name>.
type AWSStore struct {
	client *awsclient.Client
}

func NewAWSStore(client *awsclient.Client) *AWSStore {
	return &AWSStore{client: client}
}

func (s *AWSStore) Get(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name is required")
	}
	secret, err := s.client.GetSecret(ctx, awsSecretPrefix+name)
	if err != nil {
		return "", fmt.Errorf("aws secret %q: %w", name, err)
	}
	return string(secret), nil
}
