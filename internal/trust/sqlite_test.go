package trust

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "trust.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteDefaults(t *testing.T) {
	s := openTestStore(t)
	p, err := s.Get(context.Background(), "fresh")
	require.NoError(t, err)
	require.Equal(t, 1000, p.Karma)
	require.Equal(t, 16, p.Age)
	require.False(t, p.IsMinor)
}

func TestSQLiteKarmaFloor(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	karma, err := s.AdjustKarma(ctx, "u", -1500)
	require.NoError(t, err)
	require.Equal(t, 0, karma)

	karma, err = s.AdjustKarma(ctx, "u", 250)
	require.NoError(t, err)
	require.Equal(t, 250, karma)
}

func TestSQLiteHarassmentMonotone(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	score, err := s.AddHarassment(ctx, "u", 10)
	require.NoError(t, err)
	require.Equal(t, 10, score)

	score, err = s.AddHarassment(ctx, "u", 10)
	require.NoError(t, err)
	require.Equal(t, 20, score)
}

func TestSQLiteConcurrentReports(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AdjustKarma(ctx, "cheater", -100)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := s.Get(ctx, "cheater")
	require.NoError(t, err)
	require.Equal(t, 800, p.Karma, "both deltas must land")
}

func TestSQLiteProfilePersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trust.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.SetProfile(ctx, "kid", Attrs{IsMinor: true, Age: 11}))
	_, err = s.AdjustKarma(ctx, "kid", -40)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	p, err := s2.Get(ctx, "kid")
	require.NoError(t, err)
	require.Equal(t, 960, p.Karma)
	require.True(t, p.IsMinor)
	require.Equal(t, 11, p.Age)
}
