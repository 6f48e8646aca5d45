package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeStoreIssueAndConsume(t *testing.T) {
	store := NewPendingChallengeStore()
	defer store.Close()

	code, err := store.Issue("acct-1")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)

	got, ok := store.Consume("acct-1")
	assert.True(t, ok)
	assert.Equal(t, code, got)

	// Consumed on first attempt; a second read finds nothing
	_, ok = store.Consume("acct-1")
	assert.False(t, ok)
}

func TestChallengeStoreNewestOverwritesOldest(t *testing.T) {
	store := NewPendingChallengeStore()
	defer store.Close()

	_, err := store.Issue("acct-1")
	require.NoError(t, err)
	second, err := store.Issue("acct-1")
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())

	got, ok := store.Consume("acct-1")
	assert.True(t, ok)
	assert.Equal(t, second, got)
}

func TestChallengeStoreExpiredChallengeReadsAsAbsent(t *testing.T) {
	store := NewPendingChallengeStore()
	defer store.Close()

	_, err := store.Issue("acct-1")
	require.NoError(t, err)

	// Shift the store's clock past the TTL; the timer has not fired but the
	// challenge must already read as absent
	store.mu.Lock()
	store.now = func() time.Time { return time.Now().Add(ChallengeTTL + time.Second) }
	store.mu.Unlock()

	_, ok := store.Consume("acct-1")
	assert.False(t, ok)
}

func TestChallengeStoreTimerDeletesChallenge(t *testing.T) {
	store := NewPendingChallengeStore()
	defer store.Close()
	store.ttl = 20 * time.Millisecond

	_, err := store.Issue("acct-1")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return store.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestChallengeStoreAccountsAreIndependent(t *testing.T) {
	store := NewPendingChallengeStore()
	defer store.Close()

	codeA, err := store.Issue("acct-a")
	require.NoError(t, err)
	_, err = store.Issue("acct-b")
	require.NoError(t, err)

	got, ok := store.Consume("acct-a")
	assert.True(t, ok)
	assert.Equal(t, codeA, got)
	assert.Equal(t, 1, store.Len())
}

func TestChallengeStoreCloseStopsIssuing(t *testing.T) {
	store := NewPendingChallengeStore()

	_, err := store.Issue("acct-1")
	require.NoError(t, err)

	store.Close()
	assert.Equal(t, 0, store.Len())

	_, err = store.Issue("acct-1")
	assert.Error(t, err)
}
