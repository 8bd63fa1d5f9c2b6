// Package economy meters AI usage in obols, a prepaid per-user balance.
// Balances refill to the daily cap once per 24 hours; awards are idempotent
// per event and gated on an authorization grant so game clients cannot mint
// currency by replaying requests.
package economy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/wardenlabs/warden/internal/token"
)

// DailyCap is the refill target: 100 obols ≈ $0.50 of model usage.
const DailyCap = 100.0

// refillInterval is how long a wallet must age before the next refill.
const refillInterval = 24 * time.Hour

// Cost model. One obol buys a conservative token budget; estimation works
// from characters at ~4 chars per token.
const (
	tokensPerObolInput  = 60000
	tokensPerObolOutput = 15000
	charsPerToken       = 4
	minCost             = 0.01
)

// ErrNotAuthorized is returned when an award carries no valid grant.
var ErrNotAuthorized = errors.New("economy: award not authorized")

const schema = `
CREATE TABLE IF NOT EXISTS wallets (
    user_id     TEXT PRIMARY KEY,
    balance     REAL NOT NULL,
    last_refill REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS awarded_events (
    user_id  TEXT NOT NULL,
    event_id TEXT NOT NULL,
    PRIMARY KEY (user_id, event_id)
);
`

// Wallet is one user's balance snapshot.
type Wallet struct {
	Balance    float64 `json:"balance"`
	LastRefill float64 `json:"last_refill"`
}

// Store is the SQLite-backed obol ledger.
type Store struct {
	db   *sql.DB
	auth *token.Authority
	log  *zap.Logger
	now  func() time.Time
}

// Open creates (or opens) the economy store. The authority gates awards;
// the logger defaults to a no-op.
func Open(path string, auth *token.Authority, log *zap.Logger) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("economy: open database: %w", err)
	}
	// modernc sqlite serializes best with a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("economy: set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("economy: create schema: %w", err)
	}

	return &Store{db: db, auth: auth, log: log, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Balance returns the user's current balance, applying the daily refill
// first if one is due.
func (s *Store) Balance(ctx context.Context, user string) (float64, error) {
	w, err := s.state(ctx, user)
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// Spend deducts amount if the balance covers it. Returns false (without
// error) on insufficient funds.
func (s *Store) Spend(ctx context.Context, user string, amount float64, reason string) (bool, error) {
	if _, err := s.state(ctx, user); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE wallets SET balance = balance - ? WHERE user_id = ? AND balance >= ?`,
		amount, user, amount)
	if err != nil {
		return false, fmt.Errorf("economy: spend: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("economy: spend: %w", err)
	}
	if n == 0 {
		s.log.Info("insufficient funds",
			zap.String("user", user),
			zap.Float64("amount", amount),
			zap.String("reason", reason))
		return false, nil
	}

	s.log.Info("obols spent",
		zap.String("user", user),
		zap.Float64("amount", amount),
		zap.String("reason", reason))
	return true, nil
}

// Award credits amount, gated on a valid grant. A non-empty eventID makes
// the award idempotent: the same event credits at most once, signalled by a
// false return.
func (s *Store) Award(ctx context.Context, grant token.Grant, user string, amount float64, eventID string) (bool, error) {
	if s.auth != nil && !s.auth.Authorize(grant) {
		return false, ErrNotAuthorized
	}

	if _, err := s.state(ctx, user); err != nil {
		return false, err
	}

	if eventID != "" {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO awarded_events (user_id, event_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			user, eventID)
		if err != nil {
			return false, fmt.Errorf("economy: record event: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("economy: record event: %w", err)
		}
		if n == 0 {
			return false, nil // already claimed
		}
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE wallets SET balance = balance + ? WHERE user_id = ?`,
		amount, user); err != nil {
		return false, fmt.Errorf("economy: award: %w", err)
	}

	s.log.Info("obols awarded",
		zap.String("user", user),
		zap.Float64("amount", amount),
		zap.String("event", eventID))
	return true, nil
}

// EstimateCost converts request/response sizes into obols.
func EstimateCost(inputChars, outputChars int) float64 {
	inputTokens := float64(inputChars) / charsPerToken
	outputTokens := float64(outputChars) / charsPerToken

	cost := inputTokens/tokensPerObolInput + outputTokens/tokensPerObolOutput
	cost = math.Round(cost*100) / 100
	if cost < minCost {
		return minCost
	}
	return cost
}

// state loads the wallet, creating it at the cap on first access and
// applying the daily refill when due.
func (s *Store) state(ctx context.Context, user string) (Wallet, error) {
	now := float64(s.now().UnixNano()) / 1e9

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO wallets (user_id, balance, last_refill) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
		user, DailyCap, now); err != nil {
		return Wallet{}, fmt.Errorf("economy: ensure wallet: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE wallets SET balance = ?, last_refill = ? WHERE user_id = ? AND ? - last_refill > ?`,
		DailyCap, now, user, now, refillInterval.Seconds()); err != nil {
		return Wallet{}, fmt.Errorf("economy: refill: %w", err)
	}

	var w Wallet
	err := s.db.QueryRowContext(ctx,
		`SELECT balance, last_refill FROM wallets WHERE user_id = ?`, user).
		Scan(&w.Balance, &w.LastRefill)
	if err != nil {
		return Wallet{}, fmt.Errorf("economy: read wallet: %w", err)
	}
	return w, nil
}
