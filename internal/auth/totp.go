package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	totpPeriod = 30 // seconds per time step

	// totpSkew accepts codes up to ±2 steps (±60s) from the check time
	totpSkew = 2
)

// TOTPManager handles TOTP enrollment material and code validation
type TOTPManager struct {
	issuer       string
	secretLength int
}

// NewTOTPManager creates a TOTP manager. issuer is the display name shown in
// authenticator apps; secretLength is the generated secret size in bytes.
func NewTOTPManager(issuer string, secretLength int) *TOTPManager {
	return &TOTPManager{
		issuer:       issuer,
		secretLength: secretLength,
	}
}

// Enrollment is the material returned to a user enrolling the totp method.
// The QR code is a PNG data URL of the provisioning URI.
type Enrollment struct {
	Secret string // base32, for manual entry
	URL    string // otpauth:// provisioning URI
	QRCode string // data:image/png;base64,...
}

// GenerateEnrollment creates a fresh TOTP secret plus its scannable QR code
func (tm *TOTPManager) GenerateEnrollment(accountEmail string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      tm.issuer,
		AccountName: accountEmail,
		SecretSize:  uint(tm.secretLength),
		Period:      totpPeriod,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	qr, err := qrcode.New(key.URL(), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}
	png, err := qr.PNG(200)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	return &Enrollment{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}, nil
}

// Validate checks a TOTP code against the stored secret at the current time
func (tm *TOTPManager) Validate(secret, code string) bool {
	return tm.ValidateAt(secret, code, time.Now())
}

// ValidateAt checks a TOTP code at an explicit time. Codes generated within
// ±60 seconds of at are accepted.
func (tm *TOTPManager) ValidateAt(secret, code string, at time.Time) bool {
	valid, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return valid
}

// GenerateBackupCodes generates count single-use recovery codes. Format:
// 4 random bytes hex-encoded as two 4-character groups, e.g. "a3f9-0c21".
// Callers persist only hashes; the plaintext is returned exactly once.
func (tm *TOTPManager) GenerateBackupCodes(count int) ([]string, error) {
	codes := make([]string, count)
	for i := range codes {
		buf := make([]byte, 4)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		h := hex.EncodeToString(buf)
		codes[i] = h[:4] + "-" + h[4:]
	}
	return codes, nil
}
