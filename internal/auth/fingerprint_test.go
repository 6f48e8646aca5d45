package auth_test

import (
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talentbase/talentbase-auth/internal/auth"
)

var hexRe = regexp.MustCompile(`^[0-9a-f]{16}$`)

func TestFingerprintIsDeterministic(t *testing.T) {
	r1 := httptest.NewRequest("GET", "/api/jobs", nil)
	r1.RemoteAddr = "203.0.113.7:51234"
	r1.Header.Set("User-Agent", "Mozilla/5.0")

	r2 := httptest.NewRequest("POST", "/auth/mfa/verify", nil)
	r2.RemoteAddr = "203.0.113.7:9999" // different port, same host
	r2.Header.Set("User-Agent", "Mozilla/5.0")

	fp1 := auth.Fingerprint(r1, nil)
	fp2 := auth.Fingerprint(r2, nil)

	assert.Equal(t, fp1, fp2)
	assert.Regexp(t, hexRe, fp1)
}

func TestFingerprintVariesWithInputs(t *testing.T) {
	base := httptest.NewRequest("GET", "/", nil)
	base.RemoteAddr = "203.0.113.7:1"
	base.Header.Set("User-Agent", "Mozilla/5.0")

	otherIP := httptest.NewRequest("GET", "/", nil)
	otherIP.RemoteAddr = "203.0.113.8:1"
	otherIP.Header.Set("User-Agent", "Mozilla/5.0")

	otherAgent := httptest.NewRequest("GET", "/", nil)
	otherAgent.RemoteAddr = "203.0.113.7:1"
	otherAgent.Header.Set("User-Agent", "curl/8.0")

	fp := auth.Fingerprint(base, nil)
	assert.NotEqual(t, fp, auth.Fingerprint(otherIP, nil))
	assert.NotEqual(t, fp, auth.Fingerprint(otherAgent, nil))
}

func TestFingerprintFallsBackToUnknown(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = ""
	r.Header.Del("User-Agent")

	fp := auth.Fingerprint(r, nil)
	assert.Regexp(t, hexRe, fp)
	assert.Equal(t, auth.FingerprintValue("unknown", "unknown"), fp)
}
