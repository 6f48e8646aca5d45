package auth_test

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentbase/talentbase-auth/internal/auth"
)

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestGenerateEnrollmentProducesSecretAndQR(t *testing.T) {
	tm := auth.NewTOTPManager("TalentBase", 32)

	enrollment, err := tm.GenerateEnrollment("candidate@example.com")
	require.NoError(t, err)

	assert.NotEmpty(t, enrollment.Secret)
	assert.Contains(t, enrollment.URL, "otpauth://totp/")
	assert.Contains(t, enrollment.URL, "TalentBase")
	assert.True(t, strings.HasPrefix(enrollment.QRCode, "data:image/png;base64,"))
}

func TestValidateAcceptsCodesWithinSkewWindow(t *testing.T) {
	tm := auth.NewTOTPManager("TalentBase", 32)
	enrollment, err := tm.GenerateEnrollment("candidate@example.com")
	require.NoError(t, err)

	now := time.Now()

	assert.True(t, tm.ValidateAt(enrollment.Secret, codeAt(t, enrollment.Secret, now), now))
	assert.True(t, tm.ValidateAt(enrollment.Secret, codeAt(t, enrollment.Secret, now.Add(-60*time.Second)), now))
	assert.True(t, tm.ValidateAt(enrollment.Secret, codeAt(t, enrollment.Secret, now.Add(60*time.Second)), now))
}

func TestValidateRejectsCodesOutsideSkewWindow(t *testing.T) {
	tm := auth.NewTOTPManager("TalentBase", 32)
	enrollment, err := tm.GenerateEnrollment("candidate@example.com")
	require.NoError(t, err)

	// Pin the check to a step boundary so 91s away is always ≥3 steps out
	now := time.Now().Truncate(30 * time.Second)

	assert.False(t, tm.ValidateAt(enrollment.Secret, codeAt(t, enrollment.Secret, now.Add(-91*time.Second)), now))
	assert.False(t, tm.ValidateAt(enrollment.Secret, codeAt(t, enrollment.Secret, now.Add(120*time.Second)), now))
	assert.False(t, tm.ValidateAt(enrollment.Secret, "000000", now))
}

func TestGenerateBackupCodesFormat(t *testing.T) {
	tm := auth.NewTOTPManager("TalentBase", 32)

	codes, err := tm.GenerateBackupCodes(10)
	require.NoError(t, err)
	require.Len(t, codes, 10)

	format := regexp.MustCompile(`^[0-9a-f]{4}-[0-9a-f]{4}$`)
	seen := make(map[string]bool)
	for _, code := range codes {
		assert.Regexp(t, format, code)
		seen[code] = true
	}
	// Collisions in 10 draws from 2^32 would indicate a broken generator
	assert.Len(t, seen, 10)
}
