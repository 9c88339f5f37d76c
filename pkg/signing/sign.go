// Package signing produces webhook signatures a vendor attaches to
// telemetry deliveries. The gateway accepts a delivery when
// HMAC(secret, "<ts>.<body>") — or HMAC(secret, body) for providers
// without timestamp binding — matches the signature header.
package signing

import (
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
)

type Signer struct {
	Secret    string
	Algorithm domain.HashAlg
}

// SignBody signs the raw body alone, for providers that do not bind a
// timestamp into the signed material.
func (s Signer) SignBody(body []byte) (string, error) {
	return s.sign(body)
}

// Sign binds ts into the signed material and returns the signature together
// with the timestamp header value (epoch milliseconds, decimal).
func (s Signer) Sign(ts time.Time, body []byte) (signature, timestamp string, err error) {
	timestamp = strconv.FormatInt(ts.UnixMilli(), 10)
	material := make([]byte, 0, len(timestamp)+1+len(body))
	material = append(material, timestamp...)
	material = append(material, '.')
	material = append(material, body...)
	signature, err = s.sign(material)
	return signature, timestamp, err
}

func (s Signer) sign(material []byte) (string, error) {
	if s.Secret == "" {
		return "", fmt.Errorf("signing secret is required")
	}
	var constructor func() hash.Hash
	switch s.Algorithm {
	case domain.HashSHA1:
		constructor = sha1.New
	case domain.HashSHA512:
		constructor = sha512.New
	case domain.HashSHA256, "":
		constructor = sha256.New
	default:
		return "", fmt.Errorf("unsupported algorithm %q", s.Algorithm)
	}
	mac := hmac.New(constructor, []byte(s.Secret))
	mac.Write(material)
	return hex.EncodeToString(mac.Sum(nil)), nil
}
