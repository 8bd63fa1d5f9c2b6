package warden

import (
	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/classify"
	"github.com/wardenlabs/warden/internal/judge"
	"github.com/wardenlabs/warden/internal/trust"
)

// Option configures a Guard at creation time.
type Option func(*guardConfig)

type guardConfig struct {
	secret     string
	reflexPath string
	store      trust.Store
	scorer     classify.Scorer
	judge      judge.Judge
	log        *zap.Logger
}

// WithSecret sets the token signing secret. An empty secret means a random
// per-process one, which invalidates tokens across restarts.
func WithSecret(secret string) Option {
	return func(c *guardConfig) { c.secret = secret }
}

// WithReflexRules sets the path to a Tier 1 rule YAML file. Without it the
// built-in default patterns apply.
func WithReflexRules(path string) Option {
	return func(c *guardConfig) { c.reflexPath = path }
}

// WithStore sets the trust store. Defaults to an in-memory store whose
// state dies with the process.
func WithStore(s trust.Store) Option {
	return func(c *guardConfig) { c.store = s }
}

// WithScorer sets the Tier 2 classifier. Without it Tier 2 is skipped
// fail-open.
func WithScorer(s classify.Scorer) Option {
	return func(c *guardConfig) { c.scorer = s }
}

// WithJudge sets the Tier 3 adjudicator. Without it escalations pass
// fail-open.
func WithJudge(j judge.Judge) Option {
	return func(c *guardConfig) { c.judge = j }
}

// WithLogger sets the structured logger for degraded-path diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *guardConfig) { c.log = log }
}
