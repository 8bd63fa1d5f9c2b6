// Package pipeline runs the three-tier content scan. One Scan call is a
// single deterministic pass over the current trust state: lockout gates,
// then the reflex patterns, then the local classifier, then (only on
// escalation) the judge. Rejects never issue a token.
package pipeline

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/audit"
	"github.com/wardenlabs/warden/internal/classify"
	"github.com/wardenlabs/warden/internal/judge"
	"github.com/wardenlabs/warden/internal/model"
	"github.com/wardenlabs/warden/internal/reflex"
	"github.com/wardenlabs/warden/internal/token"
	"github.com/wardenlabs/warden/internal/trust"
)

// Lockout gates and flat tier penalties.
const (
	harassmentLockout = 90
	karmaLockout      = 50
	tier1Penalty      = 50
	tier2Penalty      = 50
)

// Result is the outcome of one scan. Token is set only when Allowed.
type Result struct {
	Allowed bool         `json:"allowed"`
	Reason  string       `json:"reason"`
	Tier    int          `json:"tier"`
	Token   *token.Token `json:"token,omitempty"`
}

// Pipeline wires the tiers together. Scorer and Judge are optional
// capabilities: a missing tier fails open with a distinguishing reason.
type Pipeline struct {
	store      trust.Store
	filterMu   sync.RWMutex
	filter     *reflex.Filter
	scorer     classify.Scorer
	judge      judge.Judge
	tokens     *token.Authority
	audit      *audit.Log
	configHash string
	log        *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithScorer sets the Tier 2 classifier.
func WithScorer(s classify.Scorer) Option {
	return func(p *Pipeline) { p.scorer = s }
}

// WithJudge sets the Tier 3 adjudicator.
func WithJudge(j judge.Judge) Option {
	return func(p *Pipeline) { p.judge = j }
}

// WithAudit sets the decision audit log and the config hash stamped into
// each entry.
func WithAudit(log *audit.Log, configHash string) Option {
	return func(p *Pipeline) {
		p.audit = log
		p.configHash = configHash
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// New creates a Pipeline over the given trust store, reflex filter and
// token authority.
func New(store trust.Store, filter *reflex.Filter, tokens *token.Authority, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:  store,
		filter: filter,
		tokens: tokens,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Scan evaluates one message for one user. It never returns an error:
// every path terminates in a well-formed verdict, with dependency failures
// degrading to fail-open passes.
//
// Evaluation order (fixed):
//  1. harassment lockout
//  2. karma lockout
//  3. Tier 1 reflex patterns
//  4. Tier 2 classifier (instant block / escalate / clean)
//  5. Tier 3 judge, only if escalated
func (p *Pipeline) Scan(ctx context.Context, user, text string) Result {
	profile, err := p.store.Get(ctx, user)
	if err != nil {
		// Verdicts beat durability: score against a default profile.
		p.log.Error("trust store read failed", zap.String("user", user), zap.Error(err))
		profile = trust.DefaultProfile()
	}

	if profile.HarassmentScore > harassmentLockout {
		return p.reject(ctx, user, model.ReasonDisengaged, 0, "")
	}
	if profile.Karma < karmaLockout {
		return p.reject(ctx, user, model.ReasonKarmaLocked, 0, "")
	}

	if matched, rule := p.currentFilter().Match(text); matched {
		p.penalize(ctx, user, tier1Penalty)
		return p.reject(ctx, user, model.ReasonTier1, 1, rule)
	}

	userType := trust.UserType(profile)

	if p.scorer == nil {
		p.log.Info("degraded pass", zap.String("mode", "fail_open"), zap.String("missing", "classifier"), zap.String("user", user))
		return p.allow(ctx, user, model.ReasonNoClassifier, 0)
	}

	scores, err := p.scorer.Score(ctx, text)
	if err != nil {
		p.log.Warn("degraded pass", zap.String("mode", "fail_open"), zap.String("missing", "classifier"), zap.String("user", user), zap.Error(err))
		return p.allow(ctx, user, model.ReasonNoClassifier, 0)
	}

	decision := classify.Evaluate(scores, profile.IsMinor)
	switch decision.Outcome {
	case classify.Block:
		p.penalize(ctx, user, tier2Penalty)
		return p.reject(ctx, user, model.ReasonSevereToxic, 2, decision.Label)
	case classify.Clean:
		return p.allow(ctx, user, model.ReasonSafe, 2)
	}

	return p.adjudicate(ctx, user, text, userType, decision.Label)
}

// adjudicate runs Tier 3. The trust store is not touched while the network
// call is in flight; the penalty write happens only after the ruling.
func (p *Pipeline) adjudicate(ctx context.Context, user, text string, userType model.UserType, label string) Result {
	if p.judge == nil {
		p.log.Info("degraded pass", zap.String("mode", "fail_open"), zap.String("missing", "judge"), zap.String("user", user))
		return p.allow(ctx, user, model.ReasonJudgeAbsent, 3)
	}

	ruling, err := p.judge.Judge(ctx, judge.Request{Text: text, UserType: userType, Context: label})
	if err != nil {
		reason := model.ReasonJudgeDegraded
		if errors.Is(err, judge.ErrUnavailable) {
			reason = model.ReasonJudgeAbsent
		}
		p.log.Warn("degraded pass", zap.String("mode", "fail_open"), zap.String("missing", "judge"), zap.String("user", user), zap.Error(err))
		return p.allow(ctx, user, reason, 3)
	}

	if !ruling.Safe {
		p.penalize(ctx, user, ruling.KarmaPenalty)
		return p.reject(ctx, user, ruling.Reason, 3, label)
	}
	return p.allow(ctx, user, model.ReasonCleared, 3)
}

func (p *Pipeline) penalize(ctx context.Context, user string, penalty int) {
	if penalty <= 0 {
		return
	}
	if _, err := p.store.AdjustKarma(ctx, user, -penalty); err != nil {
		p.log.Error("karma penalty failed", zap.String("user", user), zap.Int("penalty", penalty), zap.Error(err))
	}
}

func (p *Pipeline) allow(ctx context.Context, user, reason string, tier int) Result {
	tok := p.tokens.Issue(user)
	p.record(ctx, user, "allow", reason, tier, "")
	return Result{Allowed: true, Reason: reason, Tier: tier, Token: &tok}
}

func (p *Pipeline) reject(ctx context.Context, user, reason string, tier int, detail string) Result {
	p.record(ctx, user, "reject", reason, tier, detail)
	return Result{Allowed: false, Reason: reason, Tier: tier}
}

// SwapFilter replaces the Tier 1 rules. Used by hot reload; in-flight
// scans finish with the filter they started with.
func (p *Pipeline) SwapFilter(f *reflex.Filter) {
	p.filterMu.Lock()
	p.filter = f
	p.filterMu.Unlock()
}

func (p *Pipeline) currentFilter() *reflex.Filter {
	p.filterMu.RLock()
	defer p.filterMu.RUnlock()
	return p.filter
}

// record appends the verdict to the audit log, best-effort.
func (p *Pipeline) record(_ context.Context, user, decision, reason string, tier int, detail string) {
	if p.audit == nil {
		return
	}
	if err := p.audit.Record(audit.Entry{
		Event:      audit.EventScan,
		User:       user,
		Decision:   decision,
		Tier:       tier,
		Reason:     reason,
		Detail:     detail,
		ConfigHash: p.configHash,
	}); err != nil {
		p.log.Error("audit record failed", zap.Error(err))
	}
}
