package repositories

import (
	"context"

	"github.com/talentbase/talentbase-auth/internal/database"
	"github.com/talentbase/talentbase-auth/internal/models"
)

// PostgresAccountRepository is the pgx-backed AccountRepository
type PostgresAccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a Postgres-backed account repository
func NewAccountRepository(db *database.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// GetByID fetches an account by id. Returns models.ErrNotFound if absent.
func (r *PostgresAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `
		SELECT id, email, name, role, organization_id, phone_number,
		       password_hash, created_at, updated_at
		FROM accounts
		WHERE id = $1`

	account := &models.Account{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.Role,
		&account.OrganizationID,
		&account.PhoneNumber,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return account, nil
}

// Create inserts an account row. Used by fixtures and the bootstrap path;
// account lifecycle otherwise belongs to the account service.
func (r *PostgresAccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, email, name, role, organization_id,
		                      phone_number, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Pool.Exec(ctx, query,
		account.ID,
		account.Email,
		account.Name,
		account.Role,
		account.OrganizationID,
		account.PhoneNumber,
		account.PasswordHash,
	)
	return database.MapPostgresError(err)
}
