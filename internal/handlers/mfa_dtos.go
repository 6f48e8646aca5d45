package handlers

// EnableMFARequest is the request body for POST /auth/mfa/enable
type EnableMFARequest struct {
	Method          string `json:"method" validate:"required,oneof=totp sms email"`
	CurrentPassword string `json:"currentPassword" validate:"required"`
	PhoneNumber     string `json:"phoneNumber,omitempty" validate:"omitempty,e164"`
	Email           string `json:"email,omitempty" validate:"omitempty,email"`
}

// MFASetupResponse is returned after a successful enable call. BackupCodes
// is present only on the first-ever enable for the account.
type MFASetupResponse struct {
	Success     bool     `json:"success"`
	QRCode      string   `json:"qrCode,omitempty"`
	SecretKey   string   `json:"secretKey,omitempty"`
	BackupCodes []string `json:"backupCodes,omitempty"`
	Message     string   `json:"message"`
}

// VerifyMFARequest is the request body for POST /auth/mfa/verify
type VerifyMFARequest struct {
	Token          string `json:"token" validate:"required,max=20"`
	Method         string `json:"method,omitempty" validate:"omitempty,oneof=totp sms email"`
	RememberDevice bool   `json:"rememberDevice,omitempty"`
}

// VerifyMFAResponse is returned after a successful verification
type VerifyMFAResponse struct {
	Success       bool   `json:"success"`
	DeviceTrusted bool   `json:"deviceTrusted"`
	Message       string `json:"message"`
}

// DisableMFARequest is the request body for POST /auth/mfa/disable
type DisableMFARequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	MFAToken        string `json:"mfaToken" validate:"required"`
}

// GenerateBackupCodesRequest is the request body for
// POST /auth/mfa/backup-codes/generate
type GenerateBackupCodesRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	MFAToken        string `json:"mfaToken" validate:"required"`
}

// BackupCodesResponse carries a freshly generated backup-code batch.
// The plaintext codes are shown exactly once.
type BackupCodesResponse struct {
	Success     bool     `json:"success"`
	BackupCodes []string `json:"backupCodes"`
}

// SendTokenResponse is returned after a one-time code dispatch
type SendTokenResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
