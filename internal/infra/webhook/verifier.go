// Package webhook enforces the inbound trust boundary for vendor telemetry:
// HMAC signature verification over the raw request body, with optional
// timestamp binding to reject replays.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"
	"time"

	"sentra/internal/domain"

	"go.uber.org/zap"
)

// TimestampSeparator joins the timestamp string and the raw body to form the
// signed material. Wire contract: HMAC(secret, "<ts>.<body>").
const TimestampSeparator = "."

const defaultTolerance = 5 * time.Minute

type Verifier struct {
	providers map[string]domain.ProviderConfig
	secrets   domain.SecretStore
	tolerance time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

type VerifierConfig struct {
	Providers []domain.ProviderConfig
	Secrets   domain.SecretStore
	Tolerance time.Duration
	Now       func() time.Time
	Logger    *zap.Logger
}

func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	if cfg.Secrets == nil {
		return nil, fmt.Errorf("secret store is required")
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = defaultTolerance
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	providers := make(map[string]domain.ProviderConfig, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if p.ID == "" {
			return nil, fmt.Errorf("provider id is required")
		}
		if _, dup := providers[p.ID]; dup {
			return nil, fmt.Errorf("duplicate provider %q", p.ID)
		}
		if p.SignatureHeader == "" {
			return nil, fmt.Errorf("provider %q: signature header is required", p.ID)
		}
		if p.SecretName == "" {
			return nil, fmt.Errorf("provider %q: secret name is required", p.ID)
		}
		if p.Algorithm == "" {
			p.Algorithm = domain.HashSHA256
		}
		if !p.Algorithm.Valid() {
			return nil, fmt.Errorf("provider %q: unsupported algorithm %q", p.ID, p.Algorithm)
		}
		if p.RequireTimestamp && p.TimestampHeader == "" {
			return nil, fmt.Errorf("provider %q: timestamp header is required", p.ID)
		}
		providers[p.ID] = p
	}
	return &Verifier{
		providers: providers,
		secrets:   cfg.Secrets,
		tolerance: cfg.Tolerance,
		now:       cfg.Now,
		logger:    cfg.Logger,
	}, nil
}

// Provider returns the static config for a provider id.
func (v *Verifier) Provider(id string) (domain.ProviderConfig, bool) {
	p, ok := v.providers[id]
	return p, ok
}

// Verify decides whether rawBody was produced by the holder of the
// provider's shared secret and, where the provider requires a timestamp,
// that the request is fresh. rawBody must be the exact bytes received on the
// wire; any re-serialized form invalidates the signature.
func (v *Verifier) Verify(ctx context.Context, providerID string, rawBody []byte, signature, timestamp string) (domain.VerificationResult, error) {
	provider, ok := v.providers[providerID]
	if !ok {
		v.logger.Error("webhook provider not configured",
			zap.String("provider_id", providerID))
		return domain.VerificationResult{}, fmt.Errorf("provider %q: %w", providerID, domain.ErrUnknownProvider)
	}
	if len(rawBody) == 0 {
		return v.reject(provider, signature, timestamp, domain.ErrMissingBody)
	}
	if signature == "" {
		return v.reject(provider, signature, timestamp, domain.ErrMissingSignature)
	}

	secret, err := v.secrets.Get(ctx, provider.SecretName)
	if err != nil || secret == "" {
		v.logger.Error("webhook secret unresolved",
			zap.String("provider_id", provider.ID),
			zap.String("secret_name", provider.SecretName),
			zap.Error(err))
		return domain.VerificationResult{}, fmt.Errorf("secret %q: %w", provider.SecretName, domain.ErrSecretNotConfigured)
	}

	var tsMillis int64
	signed := rawBody
	if provider.RequireTimestamp {
		if timestamp == "" {
			return v.reject(provider, signature, timestamp, domain.ErrMissingTimestamp)
		}
		tsMillis, err = strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			return v.reject(provider, signature, timestamp, domain.ErrInvalidTimestamp)
		}
		age := v.now().UnixMilli() - tsMillis
		if age < 0 {
			age = -age
		}
		if time.Duration(age)*time.Millisecond > v.tolerance {
			return v.reject(provider, signature, timestamp, domain.ErrStaleRequest)
		}
		signed = make([]byte, 0, len(timestamp)+1+len(rawBody))
		signed = append(signed, timestamp...)
		signed = append(signed, TimestampSeparator...)
		signed = append(signed, rawBody...)
	}

	expected := computeHex(provider.Algorithm, secret, signed)
	// hmac.Equal is constant-time for equal lengths; the explicit length
	// check keeps a mismatch from being distinguishable beyond what the
	// encoding already reveals.
	if len(signature) != len(expected) || !hmac.Equal([]byte(signature), []byte(expected)) {
		return v.reject(provider, signature, timestamp, domain.ErrInvalidSignature)
	}

	v.logger.Debug("webhook signature verified",
		zap.String("provider_id", provider.ID))
	return domain.VerificationResult{ProviderID: provider.ID, Timestamp: tsMillis}, nil
}

func (v *Verifier) reject(provider domain.ProviderConfig, signature, timestamp string, err error) (domain.VerificationResult, error) {
	v.logger.Warn("webhook rejected",
		zap.String("provider_id", provider.ID),
		zap.String("signature", signature),
		zap.String("timestamp", timestamp),
		zap.String("reason", err.Error()))
	return domain.VerificationResult{}, fmt.Errorf("provider %q: %w", provider.ID, err)
}

func computeHex(alg domain.HashAlg, secret string, material []byte) string {
	var constructor func() hash.Hash
	switch alg {
	case domain.HashSHA1:
		constructor = sha1.New
	case domain.HashSHA512:
		constructor = sha512.New
	default:
		constructor = sha256.New
	}
	mac := hmac.New(constructor, []byte(secret))
	mac.Write(material)
	return hex.EncodeToString(mac.Sum(nil))
}
