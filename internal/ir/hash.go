package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the encoding to change without colliding.
const (
	DomainBundle = "socgen/bundle/v1"
	DomainConfig = "socgen/config/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// BundleHash computes the content hash of a bundle. ID and Hash fields do
// not participate, so rebuilding the same configuration yields the same hash.
func BundleHash(b *Bundle) (string, error) {
	canonical, err := MarshalCanonical(b.Value())
	if err != nil {
		return "", fmt.Errorf("BundleHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainBundle, canonical), nil
}

// ConfigHash computes the content hash of a compiled configuration.
func ConfigHash(c Config) (string, error) {
	canonical, err := MarshalCanonical(c.Value())
	if err != nil {
		return "", fmt.Errorf("ConfigHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainConfig, canonical), nil
}
