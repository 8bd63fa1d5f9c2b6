// Package ledger applies reputation consequences for reported incidents.
// It is the single write path for report-driven karma and harassment
// changes, so every mutation lands in the audit log exactly once.
package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/audit"
	"github.com/wardenlabs/warden/internal/model"
	"github.com/wardenlabs/warden/internal/trust"
)

// Reputation deltas per report kind. Abuse hits karma and raises the
// harassment score; cheating hits karma alone, hard.
const (
	abuseKarmaDelta      = -20
	abuseHarassmentDelta = 10
	cheatKarmaDelta      = -100
)

// Ledger records incident reports against trust profiles.
type Ledger struct {
	store trust.Store
	audit *audit.Log
	log   *zap.Logger
}

// New creates a Ledger. The audit log may be nil (reports still apply,
// they just leave no trail), the logger defaults to a no-op.
func New(store trust.Store, auditLog *audit.Log, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: store, audit: auditLog, log: log}
}

// Report applies the reputation consequence for one incident. The store
// update is atomic per user, so concurrent reports never lose a delta.
func (l *Ledger) Report(ctx context.Context, user string, kind model.ReportKind, details string) error {
	switch kind {
	case model.ReportAbuse:
		if _, err := l.store.AdjustKarma(ctx, user, abuseKarmaDelta); err != nil {
			return fmt.Errorf("ledger: adjust karma: %w", err)
		}
		if _, err := l.store.AddHarassment(ctx, user, abuseHarassmentDelta); err != nil {
			return fmt.Errorf("ledger: add harassment: %w", err)
		}
	case model.ReportCheating:
		if _, err := l.store.AdjustKarma(ctx, user, cheatKarmaDelta); err != nil {
			return fmt.Errorf("ledger: adjust karma: %w", err)
		}
	default:
		return fmt.Errorf("ledger: unknown report kind %q", kind)
	}

	l.log.Info("incident reported",
		zap.String("user", user),
		zap.String("kind", string(kind)),
		zap.String("details", details))

	if l.audit != nil {
		if err := l.audit.Record(audit.Entry{
			Event:    audit.EventReport,
			User:     user,
			Decision: "reject",
			Reason:   string(kind),
			Detail:   details,
		}); err != nil {
			// Reputation already applied; an audit write failure must not
			// undo it or hide the report.
			l.log.Error("audit record failed", zap.Error(err))
		}
	}
	return nil
}
