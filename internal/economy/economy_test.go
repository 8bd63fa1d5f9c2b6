package economy

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wardenlabs/warden/internal/token"
)

func openTestStore(t *testing.T) (*Store, *token.Authority) {
	t.Helper()
	auth := token.New("test-secret")
	s, err := Open(filepath.Join(t.TempDir(), "economy.db"), auth, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, auth
}

func grantFor(auth *token.Authority, user string) token.Grant {
	return token.Issued{Token: auth.Issue(user)}
}

func TestNewWalletStartsAtCap(t *testing.T) {
	s, _ := openTestStore(t)

	bal, err := s.Balance(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, DailyCap, bal)
}

func TestSpendAndInsufficientFunds(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	ok, err := s.Spend(ctx, "u1", 30, "chat completion")
	require.NoError(t, err)
	require.True(t, ok)

	bal, err := s.Balance(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 70.0, bal)

	ok, err = s.Spend(ctx, "u1", 71, "expensive request")
	require.NoError(t, err)
	require.False(t, ok, "overdraft must be refused")

	bal, err = s.Balance(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 70.0, bal, "refused spend must not change the balance")
}

func TestDailyRefill(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	ok, err := s.Spend(ctx, "u1", 90, "usage")
	require.NoError(t, err)
	require.True(t, ok)

	// Within the window: no refill.
	s.now = func() time.Time { return time.Now().Add(23 * time.Hour) }
	bal, err := s.Balance(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 10.0, bal)

	// Past the window: refilled to the cap.
	s.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	bal, err = s.Balance(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, DailyCap, bal)
}

func TestAwardRequiresGrant(t *testing.T) {
	s, auth := openTestStore(t)
	ctx := context.Background()

	_, err := s.Award(ctx, nil, "u1", 10, "quest-1")
	require.ErrorIs(t, err, ErrNotAuthorized)

	forged := auth.Issue("u1")
	forged.Signature = "tampered"
	_, err = s.Award(ctx, token.Issued{Token: forged}, "u1", 10, "quest-1")
	require.ErrorIs(t, err, ErrNotAuthorized)

	ok, err := s.Award(ctx, grantFor(auth, "u1"), "u1", 10, "quest-1")
	require.NoError(t, err)
	require.True(t, ok)

	bal, err := s.Balance(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 110.0, bal)
}

func TestAwardInternalBypass(t *testing.T) {
	s, _ := openTestStore(t)

	ok, err := s.Award(context.Background(), token.InternalBypass{Origin: "course-engine"}, "u1", 5, "")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAwardIdempotentPerEvent(t *testing.T) {
	s, auth := openTestStore(t)
	ctx := context.Background()

	ok, err := s.Award(ctx, grantFor(auth, "u1"), "u1", 25, "boss-defeated")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Award(ctx, grantFor(auth, "u1"), "u1", 25, "boss-defeated")
	require.NoError(t, err)
	require.False(t, ok, "replayed event must not credit twice")

	bal, err := s.Balance(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 125.0, bal)
}

func TestAwardWithoutEventIDAlwaysCredits(t *testing.T) {
	s, auth := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := s.Award(ctx, grantFor(auth, "u1"), "u1", 1, "")
		require.NoError(t, err)
		require.True(t, ok)
	}

	bal, err := s.Balance(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 103.0, bal)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "economy.db")
	auth := token.New("test-secret")

	s, err := Open(path, auth, nil)
	require.NoError(t, err)
	ok, err := s.Spend(context.Background(), "u1", 40, "usage")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.Close())

	s2, err := Open(path, auth, nil)
	require.NoError(t, err)
	defer s2.Close()

	bal, err := s2.Balance(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 60.0, bal)
}

func TestEstimateCost(t *testing.T) {
	// 240k input chars = 60k tokens = 1 obol.
	require.Equal(t, 1.0, EstimateCost(240000, 0))
	// 60k output chars = 15k tokens = 1 obol.
	require.Equal(t, 1.0, EstimateCost(0, 60000))
	// Tiny requests are floored.
	require.Equal(t, minCost, EstimateCost(10, 10))
}
