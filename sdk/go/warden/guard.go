package warden

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/pipeline"
	"github.com/wardenlabs/warden/internal/reflex"
	"github.com/wardenlabs/warden/internal/token"
	"github.com/wardenlabs/warden/internal/trust"
)

// Guard holds the scan pipeline for in-process enforcement.
// Safe for concurrent use.
type Guard struct {
	pipe   *pipeline.Pipeline
	tokens *token.Authority
	store  trust.Store
}

// New creates a Guard with the given options.
func New(opts ...Option) (*Guard, error) {
	cfg := guardConfig{log: zap.NewNop()}
	for _, o := range opts {
		o(&cfg)
	}

	filter, err := reflex.Load(cfg.reflexPath)
	if err != nil {
		return nil, fmt.Errorf("warden: failed to load reflex rules: %w", err)
	}

	store := cfg.store
	if store == nil {
		store = trust.NewMemStore()
	}
	auth := token.New(cfg.secret)

	popts := []pipeline.Option{pipeline.WithLogger(cfg.log)}
	if cfg.scorer != nil {
		popts = append(popts, pipeline.WithScorer(cfg.scorer))
	}
	if cfg.judge != nil {
		popts = append(popts, pipeline.WithJudge(cfg.judge))
	}

	return &Guard{
		pipe:   pipeline.New(store, filter, auth, popts...),
		tokens: auth,
		store:  store,
	}, nil
}

// Scan evaluates one message for one user and returns the verdict.
func (g *Guard) Scan(ctx context.Context, user, text string) Result {
	return toResult(g.pipe.Scan(ctx, user, text))
}

// VerifyToken reports whether a token was issued by this Guard and is still
// within its validity window.
func (g *Guard) VerifyToken(t *Token) bool {
	return g.tokens.Verify(t)
}

// ToolFunc is the function signature that Wrap guards.
type ToolFunc func(ctx context.Context, user, text string) (any, error)

// Wrap returns a ToolFunc that scans the input before calling fn.
// Rejected input returns a *BlockedError without calling fn.
func (g *Guard) Wrap(fn ToolFunc) ToolFunc {
	return func(ctx context.Context, user, text string) (any, error) {
		r := g.Scan(ctx, user, text)
		if !r.Allowed {
			return nil, &BlockedError{User: user, Reason: r.Reason, Tier: r.Tier}
		}
		return fn(ctx, user, text)
	}
}
