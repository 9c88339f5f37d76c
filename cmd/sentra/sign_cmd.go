package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"sentra/internal/domain"
	"sentra/pkg/signing"
)

type signOutput struct {
	Signature string `json:"signature"`
	Timestamp string `json:"timestamp,omitempty"`
	Algorithm string `json:"algorithm"`
}

func runSign(args []string) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var secret string
	var inPath string
	var alg string
	var noTimestamp bool
	var outPath string

	fs.StringVar(&secret, "secret", "", "shared webhook secret")
	fs.StringVar(&inPath, "in", "", "payload path")
	fs.StringVar(&alg, "alg", "sha256", "hmac hash algorithm")
	fs.BoolVar(&noTimestamp, "no-timestamp", false, "sign the bare body without timestamp binding")
	fs.StringVar(&outPath, "out", "", "output path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if secret == "" || inPath == "" {
		fmt.Fprintln(os.Stderr, "sign requires --secret and --in")
		return 1
	}
	body, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read payload: %v\n", err)
		return 1
	}

	signer := signing.Signer{Secret: secret, Algorithm: domain.HashAlg(alg)}
	out := signOutput{Algorithm: alg}
	if noTimestamp {
		out.Signature, err = signer.SignBody(body)
	} else {
		out.Signature, out.Timestamp, err = signer.Sign(time.Now(), body)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign: %v\n", err)
		return 1
	}

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		return 1
	}
	if err := writeOutput(outPath, payload); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}
