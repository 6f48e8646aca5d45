package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	pkghttp "github.com/talentbase/talentbase-auth/pkg/http"
)

// FingerprintLength is the length of the hex digest returned by Fingerprint
const FingerprintLength = 16

// Fingerprint derives a stable opaque client identifier from the request's
// source address and User-Agent. Deterministic: the same inputs always yield
// the same value, which is what keys the rate-limit table. Never fails.
func Fingerprint(r *http.Request, ipConfig *pkghttp.IPConfig) string {
	addr := pkghttp.ExtractClientIP(r, ipConfig)
	if addr == "" {
		addr = "unknown"
	}

	descriptor := r.Header.Get("User-Agent")
	if descriptor == "" {
		descriptor = "unknown"
	}

	sum := sha256.Sum256([]byte(addr + "-" + descriptor))
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}

// FingerprintValue hashes an already-extracted address and descriptor pair.
// Used where the raw request is not available (tests, background jobs).
func FingerprintValue(addr, descriptor string) string {
	if addr == "" {
		addr = "unknown"
	}
	if descriptor == "" {
		descriptor = "unknown"
	}
	sum := sha256.Sum256([]byte(addr + "-" + descriptor))
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}
