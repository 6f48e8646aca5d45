package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// ChallengeTTL is how long an issued SMS/email code stays valid
const ChallengeTTL = 5 * time.Minute

// pendingChallenge holds one issued code and its deletion timer
type pendingChallenge struct {
	code      string
	expiresAt time.Time
	timer     *time.Timer
}

// PendingChallengeStore maps an account to its single pending one-time code.
// Used only for SMS/email challenges; TOTP is derived from the shared secret
// and needs no server-side state. The store is pure in-memory and never
// blocks on I/O.
type PendingChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]*pendingChallenge
	ttl        time.Duration
	closed     bool

	now func() time.Time
}

// NewPendingChallengeStore creates an empty challenge store
func NewPendingChallengeStore() *PendingChallengeStore {
	return &PendingChallengeStore{
		challenges: make(map[string]*pendingChallenge),
		ttl:        ChallengeTTL,
		now:        time.Now,
	}
}

// Issue generates a 6-digit code for the account, replacing any prior
// pending challenge (newest wins), and schedules its deletion at expiry.
func (s *PendingChallengeStore) Issue(accountID string) (string, error) {
	code, err := generateNumericCode()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", fmt.Errorf("challenge store is closed")
	}

	if prior, ok := s.challenges[accountID]; ok {
		prior.timer.Stop()
	}

	challenge := &pendingChallenge{
		code:      code,
		expiresAt: s.now().Add(s.ttl),
	}
	challenge.timer = time.AfterFunc(s.ttl, func() {
		s.expire(accountID, challenge)
	})
	s.challenges[accountID] = challenge

	return code, nil
}

// Consume removes and returns the pending code for the account. The
// challenge is gone after the first call whether or not the subsequent
// comparison matches. An expired challenge reads as absent.
func (s *PendingChallengeStore) Consume(accountID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[accountID]
	if !ok {
		return "", false
	}

	challenge.timer.Stop()
	delete(s.challenges, accountID)

	if s.now().After(challenge.expiresAt) {
		return "", false
	}
	return challenge.code, true
}

// Len reports the number of pending challenges (introspection and tests)
func (s *PendingChallengeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.challenges)
}

// Close stops every outstanding deletion timer. Must be called on engine
// teardown so short-lived processes and tests do not leak timers.
func (s *PendingChallengeStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for accountID, challenge := range s.challenges {
		challenge.timer.Stop()
		delete(s.challenges, accountID)
	}
}

// expire is the timer callback; it only deletes the exact challenge it was
// scheduled for, so a newer code issued meanwhile is left alone
func (s *PendingChallengeStore) expire(accountID string, challenge *pendingChallenge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.challenges[accountID]; ok && current == challenge {
		delete(s.challenges, accountID)
	}
}

// generateNumericCode returns a random zero-padded 6-digit string
func generateNumericCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate one-time code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
