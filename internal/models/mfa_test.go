package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMapsLegacyMethodNames(t *testing.T) {
	settings := &MFASettings{
		AccountID: "acct-1",
		Methods:   []MFAMethod{"authenticator", "text", "mail"},
	}

	settings.Normalize()

	assert.Equal(t, []MFAMethod{MFAMethodTOTP, MFAMethodSMS, MFAMethodEmail}, settings.Methods)
	assert.True(t, settings.Enabled)
}

func TestNormalizeDropsUnknownMethods(t *testing.T) {
	settings := &MFASettings{
		AccountID: "acct-1",
		Enabled:   true,
		Methods:   []MFAMethod{"totp", "push", "hardware-key"},
	}

	settings.Normalize()

	assert.Equal(t, []MFAMethod{MFAMethodTOTP}, settings.Methods)
}

func TestNormalizeRealignsEnabledFlag(t *testing.T) {
	enabledNoMethods := &MFASettings{AccountID: "acct-1", Enabled: true}
	enabledNoMethods.Normalize()
	assert.False(t, enabledNoMethods.Enabled)

	disabledWithMethods := &MFASettings{
		AccountID: "acct-2",
		Enabled:   false,
		Methods:   []MFAMethod{MFAMethodSMS},
	}
	disabledWithMethods.Normalize()
	assert.True(t, disabledWithMethods.Enabled)
}

func TestNormalizeReplacesNilSlices(t *testing.T) {
	settings := &MFASettings{AccountID: "acct-1"}

	settings.Normalize()

	assert.NotNil(t, settings.Methods)
	assert.NotNil(t, settings.BackupCodeHashes)
	assert.NotNil(t, settings.TrustedDevices)
}

func TestIsLocked(t *testing.T) {
	now := time.Now()

	unlocked := &MFASettings{AccountID: "acct-1"}
	assert.False(t, unlocked.IsLocked(now))

	until := now.Add(10 * time.Minute)
	locked := &MFASettings{AccountID: "acct-1", LockedUntil: &until}
	assert.True(t, locked.IsLocked(now))
	assert.False(t, locked.IsLocked(until.Add(time.Second)))
}

func TestMFAMethodIsValid(t *testing.T) {
	assert.True(t, MFAMethodTOTP.IsValid())
	assert.True(t, MFAMethodSMS.IsValid())
	assert.True(t, MFAMethodEmail.IsValid())
	assert.False(t, MFAMethod("push").IsValid())
	assert.False(t, MFAMethod("").IsValid())
}
