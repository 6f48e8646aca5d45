package repositories

import (
	"context"

	"github.com/talentbase/talentbase-auth/internal/models"
)

// MFASettingsRepository persists per-account MFA settings. Implementations
// must return models.ErrNotFound when no record exists for the account and
// must normalize loaded records before returning them — stored shape is
// never trusted directly.
type MFASettingsRepository interface {
	GetByAccountID(ctx context.Context, accountID string) (*models.MFASettings, error)
	Upsert(ctx context.Context, settings *models.MFASettings) error
}

// AccountRepository resolves accounts for the MFA engine. Account storage
// itself belongs to the account service; the auth core only reads.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
}
