package repositories

import (
	"context"
	"time"

	"github.com/talentbase/talentbase-auth/internal/database"
	"github.com/talentbase/talentbase-auth/internal/models"
)

// PostgresMFASettingsRepository is the pgx-backed MFASettingsRepository
type PostgresMFASettingsRepository struct {
	db *database.DB
}

// NewMFASettingsRepository creates a Postgres-backed MFA settings repository
func NewMFASettingsRepository(db *database.DB) *PostgresMFASettingsRepository {
	return &PostgresMFASettingsRepository{db: db}
}

// GetByAccountID loads and normalizes the MFA settings for an account.
// Returns models.ErrNotFound when the account has no settings row yet.
func (r *PostgresMFASettingsRepository) GetByAccountID(ctx context.Context, accountID string) (*models.MFASettings, error) {
	query := `
		SELECT account_id, enabled, methods, totp_secret, phone_number, email,
		       backup_code_hashes, trusted_devices, failed_attempts,
		       locked_until, last_used_at, updated_at
		FROM mfa_settings
		WHERE account_id = $1`

	settings := &models.MFASettings{}
	var rawMethods []string

	err := r.db.Pool.QueryRow(ctx, query, accountID).Scan(
		&settings.AccountID,
		&settings.Enabled,
		&rawMethods,
		&settings.TOTPSecret,
		&settings.PhoneNumber,
		&settings.Email,
		&settings.BackupCodeHashes,
		&settings.TrustedDevices,
		&settings.FailedAttempts,
		&settings.LockedUntil,
		&settings.LastUsedAt,
		&settings.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	// Older rows may carry legacy method spellings; normalize at the load
	// boundary rather than trusting stored shape.
	settings.Methods = make([]models.MFAMethod, 0, len(rawMethods))
	for _, m := range rawMethods {
		settings.Methods = append(settings.Methods, models.MFAMethod(m))
	}
	settings.Normalize()

	return settings, nil
}

// Upsert writes the full settings record for an account
func (r *PostgresMFASettingsRepository) Upsert(ctx context.Context, settings *models.MFASettings) error {
	query := `
		INSERT INTO mfa_settings (
			account_id, enabled, methods, totp_secret, phone_number, email,
			backup_code_hashes, trusted_devices, failed_attempts,
			locked_until, last_used_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (account_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			methods = EXCLUDED.methods,
			totp_secret = EXCLUDED.totp_secret,
			phone_number = EXCLUDED.phone_number,
			email = EXCLUDED.email,
			backup_code_hashes = EXCLUDED.backup_code_hashes,
			trusted_devices = EXCLUDED.trusted_devices,
			failed_attempts = EXCLUDED.failed_attempts,
			locked_until = EXCLUDED.locked_until,
			last_used_at = EXCLUDED.last_used_at,
			updated_at = EXCLUDED.updated_at`

	methods := make([]string, 0, len(settings.Methods))
	for _, m := range settings.Methods {
		methods = append(methods, string(m))
	}

	settings.UpdatedAt = time.Now()

	_, err := r.db.Pool.Exec(ctx, query,
		settings.AccountID,
		settings.Enabled,
		methods,
		settings.TOTPSecret,
		settings.PhoneNumber,
		settings.Email,
		settings.BackupCodeHashes,
		settings.TrustedDevices,
		settings.FailedAttempts,
		settings.LockedUntil,
		settings.LastUsedAt,
		settings.UpdatedAt,
	)
	return database.MapPostgresError(err)
}
