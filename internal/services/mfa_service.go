package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/talentbase/talentbase-auth/internal/auth"
	"github.com/talentbase/talentbase-auth/internal/models"
	"github.com/talentbase/talentbase-auth/internal/repositories"
	pkgauth "github.com/talentbase/talentbase-auth/pkg/auth"
	pkglogger "github.com/talentbase/talentbase-auth/pkg/logger"
)

// MFAConfig holds MFA engine configuration
type MFAConfig struct {
	Issuer           string // display name in authenticator apps
	TOTPSecretLength int
	BackupCodeCount  int
}

// DefaultMFAConfig returns the standard engine settings
func DefaultMFAConfig() MFAConfig {
	return MFAConfig{
		Issuer:           "TalentBase",
		TOTPSecretLength: 32,
		BackupCodeCount:  10,
	}
}

// MFASetupResult is returned by Enable. BackupCodes is populated only when
// this call enabled MFA for the first time; the plaintext codes are never
// retrievable again.
type MFASetupResult struct {
	Success     bool
	QRCode      string
	SecretKey   string
	BackupCodes []string
	Message     string
}

// MFAVerifyResult is returned by Verify
type MFAVerifyResult struct {
	Success       bool
	DeviceTrusted bool
}

// MFAService orchestrates enrollment, verification, lockout, trusted-device
// bypass, and backup-code recovery for the second authentication factor
type MFAService struct {
	settingsRepo  repositories.MFASettingsRepository
	accountRepo   repositories.AccountRepository
	challenges    *PendingChallengeStore
	totpMgr       *auth.TOTPManager
	emailNotifier EmailNotifier
	smsNotifier   SMSNotifier
	logger        *slog.Logger
	audit         *pkglogger.AuditLogger
	config        MFAConfig

	now func() time.Time
}

// NewMFAService creates a new MFA engine
func NewMFAService(
	settingsRepo repositories.MFASettingsRepository,
	accountRepo repositories.AccountRepository,
	challenges *PendingChallengeStore,
	totpMgr *auth.TOTPManager,
	emailNotifier EmailNotifier,
	smsNotifier SMSNotifier,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
	config MFAConfig,
) *MFAService {
	return &MFAService{
		settingsRepo:  settingsRepo,
		accountRepo:   accountRepo,
		challenges:    challenges,
		totpMgr:       totpMgr,
		emailNotifier: emailNotifier,
		smsNotifier:   smsNotifier,
		logger:        logger,
		audit:         audit,
		config:        config,
		now:           time.Now,
	}
}

// Enable enrolls a method for the account after re-verifying the password.
// The first method ever enabled also provisions a batch of backup codes,
// returned in plaintext exactly once. Adding further methods never
// regenerates them.
func (s *MFAService) Enable(ctx context.Context, accountID string, method models.MFAMethod, currentPassword, phoneNumber, email string) (*MFASetupResult, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, models.ErrUnauthorized
	}

	if err := pkgauth.ComparePassword(account.PasswordHash, currentPassword); err != nil {
		s.auditEvent("mfa_enable", accountID, string(method), false, "invalid_password")
		return nil, models.ErrUnauthorized
	}

	settings, err := s.loadOrDefault(ctx, accountID)
	if err != nil {
		return nil, err
	}
	wasEnabled := settings.Enabled

	result := &MFASetupResult{Success: true}

	switch method {
	case models.MFAMethodTOTP:
		enrollment, err := s.totpMgr.GenerateEnrollment(account.Email)
		if err != nil {
			s.logger.Error("failed to generate TOTP enrollment", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		settings.TOTPSecret = enrollment.Secret
		result.QRCode = enrollment.QRCode
		result.SecretKey = enrollment.Secret

	case models.MFAMethodSMS:
		if phoneNumber == "" {
			phoneNumber = account.PhoneNumber
		}
		if phoneNumber == "" {
			return nil, fmt.Errorf("%w: phone number is required for SMS MFA", models.ErrBadRequest)
		}
		settings.PhoneNumber = phoneNumber

	case models.MFAMethodEmail:
		if email == "" {
			email = account.Email
		}
		if email == "" {
			return nil, fmt.Errorf("%w: email address is required for email MFA", models.ErrBadRequest)
		}
		settings.Email = email

	default:
		return nil, fmt.Errorf("%w: unknown MFA method %q", models.ErrBadRequest, method)
	}

	if !settings.HasMethod(method) {
		settings.Methods = append(settings.Methods, method)
	}
	settings.Enabled = true

	if !wasEnabled {
		codes, hashes, err := s.generateBackupCodeBatch()
		if err != nil {
			return nil, models.ErrInternalServer
		}
		settings.BackupCodeHashes = hashes
		result.BackupCodes = codes
		result.Message = fmt.Sprintf("MFA enabled with method %s; store your backup codes in a safe place", method)
	} else {
		result.Message = fmt.Sprintf("MFA method %s added", method)
	}

	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		s.logger.Error("failed to persist MFA settings", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditEvent("mfa_enable", accountID, string(method), true, "")
	return result, nil
}

// Verify checks a second-factor code for the account. A trusted device
// bypasses the code check entirely. With no method given, every enrolled
// method is tried in enrollment order, then backup codes. Five consecutive
// failures lock the account for fifteen minutes.
func (s *MFAService) Verify(ctx context.Context, accountID, code string, method models.MFAMethod, deviceFingerprint string, rememberDevice bool) (*MFAVerifyResult, error) {
	settings, err := s.settingsRepo.GetByAccountID(ctx, accountID)
	if err != nil || !settings.Enabled {
		return nil, models.ErrMFANotEnabled
	}

	now := s.now()

	// Attempts during a lockout window do not touch state at all
	if settings.IsLocked(now) {
		remaining := int(math.Ceil(settings.LockedUntil.Sub(now).Minutes()))
		s.auditEvent("mfa_verify", accountID, string(method), false, "locked")
		return nil, fmt.Errorf("%w: try again in %d minutes", models.ErrMFAAccountLocked, remaining)
	}

	if settings.IsTrustedDevice(deviceFingerprint) {
		s.auditEvent("mfa_verify", accountID, "trusted_device", true, "")
		return &MFAVerifyResult{Success: true, DeviceTrusted: true}, nil
	}

	verified := s.verifyCode(accountID, settings, code, method)

	if !verified {
		// Backup codes are single-use substitutes for any method
		verified = s.consumeBackupCode(settings, code)
	}

	if !verified {
		settings.FailedAttempts++
		lockedNow := settings.FailedAttempts >= models.MaxFailedAttempts
		if lockedNow {
			lockedUntil := now.Add(models.LockoutDuration)
			settings.LockedUntil = &lockedUntil
		}
		if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
			s.logger.Error("failed to persist MFA failure state", slog.Any("error", err))
		}

		if lockedNow {
			s.auditEvent("mfa_verify", accountID, string(method), false, "lockout_triggered")
			minutes := int(models.LockoutDuration.Minutes())
			return nil, fmt.Errorf("%w: try again in %d minutes", models.ErrMFAAccountLocked, minutes)
		}
		s.auditEvent("mfa_verify", accountID, string(method), false, "invalid_code")
		return nil, models.ErrMFAInvalidCode
	}

	settings.FailedAttempts = 0
	settings.LockedUntil = nil
	settings.LastUsedAt = &now

	if rememberDevice && deviceFingerprint != "" && !settings.IsTrustedDevice(deviceFingerprint) {
		settings.TrustedDevices = append(settings.TrustedDevices, deviceFingerprint)
		if excess := len(settings.TrustedDevices) - models.MaxTrustedDevices; excess > 0 {
			settings.TrustedDevices = settings.TrustedDevices[excess:]
		}
	}

	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		s.logger.Error("failed to persist MFA success state", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditEvent("mfa_verify", accountID, string(method), true, "")
	return &MFAVerifyResult{Success: true, DeviceTrusted: false}, nil
}

// Disable turns MFA off for the account after re-verifying the password and
// a current MFA token. The settings record is hard-reset to the disabled
// default, not deleted and not partially rolled back.
func (s *MFAService) Disable(ctx context.Context, accountID, currentPassword, mfaToken string) error {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return models.ErrUnauthorized
	}
	if err := pkgauth.ComparePassword(account.PasswordHash, currentPassword); err != nil {
		s.auditEvent("mfa_disable", accountID, "", false, "invalid_password")
		return models.ErrUnauthorized
	}

	if _, err := s.Verify(ctx, accountID, mfaToken, "", "", false); err != nil {
		return err
	}

	if err := s.settingsRepo.Upsert(ctx, models.DefaultMFASettings(accountID)); err != nil {
		s.logger.Error("failed to persist disabled MFA settings", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditEvent("mfa_disable", accountID, "", true, "")
	return nil
}

// GenerateNewBackupCodes replaces the stored backup-code batch after
// re-verifying the password and a current MFA token. Plaintext codes are
// returned once; only hashes persist.
func (s *MFAService) GenerateNewBackupCodes(ctx context.Context, accountID, currentPassword, mfaToken string) ([]string, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, models.ErrUnauthorized
	}
	if err := pkgauth.ComparePassword(account.PasswordHash, currentPassword); err != nil {
		s.auditEvent("mfa_backup_codes", accountID, "", false, "invalid_password")
		return nil, models.ErrUnauthorized
	}

	if _, err := s.Verify(ctx, accountID, mfaToken, "", "", false); err != nil {
		return nil, err
	}

	settings, err := s.settingsRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, models.ErrMFANotEnabled
	}

	codes, hashes, err := s.generateBackupCodeBatch()
	if err != nil {
		return nil, models.ErrInternalServer
	}
	settings.BackupCodeHashes = hashes

	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		s.logger.Error("failed to persist backup codes", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditEvent("mfa_backup_codes", accountID, "", true, "")
	return codes, nil
}

// SendToken issues a pending one-time code for the account and dispatches it
// via the method's notifier. TOTP has no transport: codes are derived, not
// sent, so requesting a totp token is invalid. A delivery failure is
// surfaced to the caller but leaves the stored challenge intact.
func (s *MFAService) SendToken(ctx context.Context, accountID string, method models.MFAMethod) error {
	if method == models.MFAMethodTOTP {
		return fmt.Errorf("%w: totp codes are generated by the authenticator app, not sent", models.ErrMFAInvalidMethod)
	}
	if !method.IsValid() {
		return fmt.Errorf("%w: unknown MFA method %q", models.ErrBadRequest, method)
	}

	settings, err := s.settingsRepo.GetByAccountID(ctx, accountID)
	if err != nil || !settings.Enabled {
		return models.ErrMFANotEnabled
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return models.ErrNotFound
	}

	code, err := s.challenges.Issue(accountID)
	if err != nil {
		s.logger.Error("failed to issue pending challenge", slog.Any("error", err))
		return models.ErrInternalServer
	}

	switch method {
	case models.MFAMethodEmail:
		email := settings.Email
		if email == "" {
			email = account.Email
		}
		if email == "" {
			return fmt.Errorf("%w: no email address on file", models.ErrBadRequest)
		}
		if err := s.emailNotifier.SendMFACode(ctx, email, code); err != nil {
			return fmt.Errorf("%w via email", models.ErrMFADeliveryFailed)
		}

	case models.MFAMethodSMS:
		phone := settings.PhoneNumber
		if phone == "" {
			phone = account.PhoneNumber
		}
		if phone == "" {
			return fmt.Errorf("%w: no phone number on file", models.ErrBadRequest)
		}
		if err := s.smsNotifier.SendMFACode(ctx, phone, code); err != nil {
			return fmt.Errorf("%w via sms", models.ErrMFADeliveryFailed)
		}
	}

	s.auditEvent("mfa_send_token", accountID, string(method), true, "")
	return nil
}

// Status returns the MFA read-model for the account. An account without a
// settings record reads as disabled.
func (s *MFAService) Status(ctx context.Context, accountID, deviceFingerprint string) (*models.MFAStatus, error) {
	settings, err := s.loadOrDefault(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &models.MFAStatus{
		Enabled:              settings.Enabled,
		Methods:              settings.Methods,
		RemainingBackupCodes: len(settings.BackupCodeHashes),
		DeviceTrusted:        settings.IsTrustedDevice(deviceFingerprint),
		HasBackupCodes:       len(settings.BackupCodeHashes) > 0,
	}, nil
}

// ClearTrustedDevices forgets every remembered device for the account
func (s *MFAService) ClearTrustedDevices(ctx context.Context, accountID string) error {
	settings, err := s.settingsRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return models.ErrInternalServer
	}

	settings.TrustedDevices = []string{}
	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		s.logger.Error("failed to clear trusted devices", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditEvent("mfa_clear_trusted_devices", accountID, "", true, "")
	return nil
}

// verifyCode checks the code against the given method, or against every
// enrolled method in enrollment order when none is specified. SMS and email
// share the single pending-challenge slot, and the challenge is consumed on
// the first attempt against it whether or not the code matches.
func (s *MFAService) verifyCode(accountID string, settings *models.MFASettings, code string, method models.MFAMethod) bool {
	if code == "" {
		return false
	}

	methods := settings.Methods
	if method != "" {
		if !settings.HasMethod(method) {
			return false
		}
		methods = []models.MFAMethod{method}
	}

	challengeConsumed := false
	var challengeCode string
	var challengeOK bool

	for _, m := range methods {
		switch m {
		case models.MFAMethodTOTP:
			if settings.TOTPSecret != "" && s.totpMgr.ValidateAt(settings.TOTPSecret, code, s.now()) {
				return true
			}
		case models.MFAMethodSMS, models.MFAMethodEmail:
			if !challengeConsumed {
				challengeCode, challengeOK = s.challenges.Consume(accountID)
				challengeConsumed = true
			}
			if challengeOK && challengeCode == code {
				return true
			}
		}
	}
	return false
}

// consumeBackupCode checks the code against the stored backup-code hashes
// and removes the matching hash so each code works exactly once
func (s *MFAService) consumeBackupCode(settings *models.MFASettings, code string) bool {
	if code == "" {
		return false
	}
	for i, hash := range settings.BackupCodeHashes {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil {
			settings.BackupCodeHashes = append(settings.BackupCodeHashes[:i], settings.BackupCodeHashes[i+1:]...)
			return true
		}
	}
	return false
}

func (s *MFAService) generateBackupCodeBatch() ([]string, []string, error) {
	codes, err := s.totpMgr.GenerateBackupCodes(s.config.BackupCodeCount)
	if err != nil {
		s.logger.Error("failed to generate backup codes", slog.Any("error", err))
		return nil, nil, err
	}

	hashes := make([]string, len(codes))
	for i, code := range codes {
		hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error("failed to hash backup code", slog.Any("error", err))
			return nil, nil, err
		}
		hashes[i] = string(hash)
	}
	return codes, hashes, nil
}

func (s *MFAService) loadOrDefault(ctx context.Context, accountID string) (*models.MFASettings, error) {
	settings, err := s.settingsRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.DefaultMFASettings(accountID), nil
		}
		s.logger.Error("failed to load MFA settings", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return settings, nil
}

// auditEvent records a security event; audit failures never block the
// primary decision
func (s *MFAService) auditEvent(eventType, accountID, method string, success bool, reason string) {
	s.audit.Log(pkglogger.AuditEvent{
		EventType:     eventType,
		AccountID:     accountID,
		Method:        method,
		Success:       success,
		FailureReason: reason,
	})
}
