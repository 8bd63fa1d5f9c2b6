package trust

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS trust_profiles (
	user_id                TEXT PRIMARY KEY,
	karma                  INTEGER NOT NULL DEFAULT 1000,
	harassment             INTEGER NOT NULL DEFAULT 0,
	is_minor               INTEGER NOT NULL DEFAULT 0,
	age                    INTEGER NOT NULL DEFAULT 16,
	institution_restricted INTEGER NOT NULL DEFAULT 0
);`

// SQLiteStore is the durable Store backend. Increments are single UPDATE
// statements so per-key atomicity comes from the engine, not from
// read-then-write at the caller.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the trust database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("trust: open database: %w", err)
	}
	// A single writer connection sidesteps SQLITE_BUSY under concurrent
	// scans; WAL keeps readers unblocked.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("trust: enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("trust: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, user string) (Profile, error) {
	if err := s.ensure(ctx, user); err != nil {
		return Profile{}, err
	}
	var p Profile
	var minor, restricted int
	err := s.db.QueryRowContext(ctx,
		`SELECT karma, harassment, is_minor, age, institution_restricted
		 FROM trust_profiles WHERE user_id = ?`, user).
		Scan(&p.Karma, &p.HarassmentScore, &minor, &p.Age, &restricted)
	if err != nil {
		return Profile{}, fmt.Errorf("trust: get %q: %w", user, err)
	}
	p.IsMinor = minor != 0
	p.InstitutionRestricted = restricted != 0
	return p, nil
}

func (s *SQLiteStore) AdjustKarma(ctx context.Context, user string, delta int) (int, error) {
	if err := s.ensure(ctx, user); err != nil {
		return 0, err
	}
	var karma int
	err := s.db.QueryRowContext(ctx,
		`UPDATE trust_profiles SET karma = MAX(0, karma + ?)
		 WHERE user_id = ? RETURNING karma`, delta, user).Scan(&karma)
	if err != nil {
		return 0, fmt.Errorf("trust: adjust karma %q: %w", user, err)
	}
	return karma, nil
}

func (s *SQLiteStore) AddHarassment(ctx context.Context, user string, delta int) (int, error) {
	if err := s.ensure(ctx, user); err != nil {
		return 0, err
	}
	var score int
	err := s.db.QueryRowContext(ctx,
		`UPDATE trust_profiles SET harassment = MAX(0, harassment + ?)
		 WHERE user_id = ? RETURNING harassment`, delta, user).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("trust: add harassment %q: %w", user, err)
	}
	return score, nil
}

func (s *SQLiteStore) SetProfile(ctx context.Context, user string, attrs Attrs) error {
	if err := s.ensure(ctx, user); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE trust_profiles SET is_minor = ?, age = ?, institution_restricted = ?
		 WHERE user_id = ?`,
		boolToInt(attrs.IsMinor), attrs.Age, boolToInt(attrs.InstitutionRestricted), user)
	if err != nil {
		return fmt.Errorf("trust: set profile %q: %w", user, err)
	}
	return nil
}

// ensure materializes the default row. Idempotent.
func (s *SQLiteStore) ensure(ctx context.Context, user string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trust_profiles (user_id) VALUES (?)
		 ON CONFLICT(user_id) DO NOTHING`, user)
	if err != nil {
		return fmt.Errorf("trust: ensure %q: %w", user, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
