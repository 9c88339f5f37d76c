package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"sentra/internal/domain"
	"sentra/internal/infra/secrets"
	"sentra/internal/infra/webhook"
)

type verifyOutput struct {
	Valid     bool   `json:"valid"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func runVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var secret string
	var inPath string
	var signature string
	var timestamp string
	var alg string
	var toleranceSeconds int

	fs.StringVar(&secret, "secret", "", "shared webhook secret")
	fs.StringVar(&inPath, "in", "", "payload path")
	fs.StringVar(&signature, "signature", "", "signature hex")
	fs.StringVar(&timestamp, "timestamp", "", "timestamp header value (epoch millis)")
	fs.StringVar(&alg, "alg", "sha256", "hmac hash algorithm")
	fs.IntVar(&toleranceSeconds, "tolerance-seconds", 300, "timestamp freshness tolerance")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if secret == "" || inPath == "" || signature == "" {
		fmt.Fprintln(os.Stderr, "verify requires --secret, --in and --signature")
		return 1
	}
	body, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read payload: %v\n", err)
		return 1
	}

	verifier, err := webhook.NewVerifier(webhook.VerifierConfig{
		Providers: []domain.ProviderConfig{{
			ID:               "cli",
			SignatureHeader:  "X-Sentra-Signature",
			TimestampHeader:  "X-Sentra-Timestamp",
			SecretName:       "cli",
			Algorithm:        domain.HashAlg(alg),
			RequireTimestamp: timestamp != "",
		}},
		Secrets:   secrets.Static{"cli": secret},
		Tolerance: time.Duration(toleranceSeconds) * time.Second,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify: %v\n", err)
		return 1
	}

	out := verifyOutput{Valid: true}
	result, err := verifier.Verify(context.Background(), "cli", body, signature, timestamp)
	if err != nil {
		out = verifyOutput{Valid: false, Reason: err.Error()}
	} else {
		out.Timestamp = result.Timestamp
	}

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		return 1
	}
	if err := writeOutput("", payload); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	if !out.Valid {
		return 2
	}
	return 0
}
