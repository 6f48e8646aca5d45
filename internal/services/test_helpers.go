package services

import (
	"context"
	"sync"

	"github.com/talentbase/talentbase-auth/internal/models"
)

// MockMFASettingsRepository is an in-memory MFASettingsRepository for tests
type MockMFASettingsRepository struct {
	mu       sync.Mutex
	records  map[string]*models.MFASettings
	failNext error
}

func NewMockMFASettingsRepository() *MockMFASettingsRepository {
	return &MockMFASettingsRepository{records: make(map[string]*models.MFASettings)}
}

func (m *MockMFASettingsRepository) GetByAccountID(ctx context.Context, accountID string) (*models.MFASettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return nil, err
	}

	settings, ok := m.records[accountID]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *settings
	copied.Methods = append([]models.MFAMethod(nil), settings.Methods...)
	copied.BackupCodeHashes = append([]string(nil), settings.BackupCodeHashes...)
	copied.TrustedDevices = append([]string(nil), settings.TrustedDevices...)
	copied.Normalize()
	return &copied, nil
}

func (m *MockMFASettingsRepository) Upsert(ctx context.Context, settings *models.MFASettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *settings
	m.records[settings.AccountID] = &copied
	return nil
}

// Seed installs a settings record directly, bypassing normalization
func (m *MockMFASettingsRepository) Seed(settings *models.MFASettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[settings.AccountID] = settings
}

// MockAccountRepository is an in-memory AccountRepository for tests
type MockAccountRepository struct {
	accounts map[string]*models.Account
}

func NewMockAccountRepository(accounts ...*models.Account) *MockAccountRepository {
	m := &MockAccountRepository{accounts: make(map[string]*models.Account)}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	account, ok := m.accounts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return account, nil
}

// RecordingNotifier captures dispatched codes and can be made to fail
type RecordingNotifier struct {
	mu           sync.Mutex
	Destinations []string
	Codes        []string
	Err          error
}

func (n *RecordingNotifier) SendMFACode(ctx context.Context, destination, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Destinations = append(n.Destinations, destination)
	n.Codes = append(n.Codes, code)
	return nil
}

// LastCode returns the most recently dispatched code
func (n *RecordingNotifier) LastCode() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Codes) == 0 {
		return ""
	}
	return n.Codes[len(n.Codes)-1]
}
