package models

import (
	"time"
)

// MFAMethod identifies a second-factor delivery mechanism
type MFAMethod string

const (
	MFAMethodTOTP  MFAMethod = "totp"
	MFAMethodSMS   MFAMethod = "sms"
	MFAMethodEmail MFAMethod = "email"
)

const (
	// MaxTrustedDevices caps the trusted-device list; oldest entries are
	// evicted first when the cap is exceeded
	MaxTrustedDevices = 5

	// MaxFailedAttempts is the number of failed verifications before lockout
	MaxFailedAttempts = 5

	// LockoutDuration is how long an account stays locked after too many failures
	LockoutDuration = 15 * time.Minute
)

// IsValid reports whether m is a recognized MFA method
func (m MFAMethod) IsValid() bool {
	switch m {
	case MFAMethodTOTP, MFAMethodSMS, MFAMethodEmail:
		return true
	}
	return false
}

// MFASettings holds per-account MFA state (1:1 with Account)
type MFASettings struct {
	AccountID        string
	Enabled          bool
	Methods          []MFAMethod
	TOTPSecret       string // base32 shared secret, empty unless totp enrolled
	PhoneNumber      string // contact override for sms delivery
	Email            string // contact override for email delivery
	BackupCodeHashes []string
	TrustedDevices   []string // device fingerprints, oldest first
	FailedAttempts   int
	LockedUntil      *time.Time
	LastUsedAt       *time.Time
	UpdatedAt        time.Time
}

// DefaultMFASettings returns the disabled baseline record for an account.
// Disable resets to this shape rather than deleting the row.
func DefaultMFASettings(accountID string) *MFASettings {
	return &MFASettings{
		AccountID:        accountID,
		Enabled:          false,
		Methods:          []MFAMethod{},
		BackupCodeHashes: []string{},
		TrustedDevices:   []string{},
	}
}

// HasMethod reports whether the method is already enrolled
func (s *MFASettings) HasMethod(method MFAMethod) bool {
	for _, m := range s.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// IsLocked reports whether the account is in a lockout window at the given time
func (s *MFASettings) IsLocked(now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

// IsTrustedDevice reports whether the device fingerprint is remembered
func (s *MFASettings) IsTrustedDevice(fingerprint string) bool {
	if fingerprint == "" {
		return false
	}
	for _, d := range s.TrustedDevices {
		if d == fingerprint {
			return true
		}
	}
	return false
}

// legacyMethodNames maps method spellings found in older persisted records
// to the canonical enum. Stored shape is never trusted directly.
var legacyMethodNames = map[string]MFAMethod{
	"totp":          MFAMethodTOTP,
	"authenticator": MFAMethodTOTP,
	"app":           MFAMethodTOTP,
	"sms":           MFAMethodSMS,
	"text":          MFAMethodSMS,
	"phone":         MFAMethodSMS,
	"email":         MFAMethodEmail,
	"mail":          MFAMethodEmail,
}

// NormalizeMethod maps a raw persisted method value to the canonical enum.
// Returns false for unrecognized values, which are dropped on load.
func NormalizeMethod(raw string) (MFAMethod, bool) {
	m, ok := legacyMethodNames[raw]
	return m, ok
}

// Normalize repairs a loaded MFASettings record: legacy method names are
// mapped to the canonical enum, unrecognized methods dropped, nil slices
// replaced, and the enabled flag realigned with the method set
// (enabled is true iff at least one method is enrolled).
func (s *MFASettings) Normalize() {
	if s.Methods == nil {
		s.Methods = []MFAMethod{}
	}
	normalized := s.Methods[:0]
	for _, m := range s.Methods {
		if canonical, ok := NormalizeMethod(string(m)); ok {
			normalized = append(normalized, canonical)
		}
	}
	s.Methods = normalized

	if s.BackupCodeHashes == nil {
		s.BackupCodeHashes = []string{}
	}
	if s.TrustedDevices == nil {
		s.TrustedDevices = []string{}
	}

	s.Enabled = len(s.Methods) > 0
}

// MFAStatus is the read-model returned by the status endpoint
type MFAStatus struct {
	Enabled              bool        `json:"enabled"`
	Methods              []MFAMethod `json:"methods"`
	RemainingBackupCodes int         `json:"remaining_backup_codes"`
	DeviceTrusted        bool        `json:"device_trusted"`
	HasBackupCodes       bool        `json:"has_backup_codes"`
}
