package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/audit"
	"github.com/wardenlabs/warden/internal/classify"
	"github.com/wardenlabs/warden/internal/config"
	"github.com/wardenlabs/warden/internal/economy"
	"github.com/wardenlabs/warden/internal/judge"
	"github.com/wardenlabs/warden/internal/ledger"
	"github.com/wardenlabs/warden/internal/pipeline"
	"github.com/wardenlabs/warden/internal/reflex"
	"github.com/wardenlabs/warden/internal/telemetry"
	"github.com/wardenlabs/warden/internal/token"
	"github.com/wardenlabs/warden/internal/trust"
)

// components holds everything a long-running command needs, wired once
// from the loaded config.
type components struct {
	cfg        *config.Config
	configHash string
	store      trust.Store
	tokens     *token.Authority
	pipe       *pipeline.Pipeline
	ledger     *ledger.Ledger
	analyzer   *telemetry.Analyzer
	economy    *economy.Store
	log        *zap.Logger

	closers []func() error
}

// buildComponents assembles the gateway from configuration. Optional
// dependencies (classifier, judge, audit, calibration, economy) are wired
// only when configured; the pipeline degrades around the rest.
func buildComponents(ctx context.Context) (*components, error) {
	cfg, hash, err := config.LoadConfigWithHash(configPath)
	if err != nil {
		return nil, err
	}

	log, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c := &components{cfg: cfg, configHash: hash, log: log}
	c.closers = append(c.closers, func() error { _ = log.Sync(); return nil })

	if cfg.Store.Path != "" {
		st, err := trust.OpenSQLite(cfg.Store.Path)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to open trust store: %w", err)
		}
		c.store = st
		c.closers = append(c.closers, st.Close)
	} else {
		c.store = trust.NewMemStore()
	}

	c.tokens = token.New(cfg.Secret, token.WithTTL(cfg.TokenTTL.Std()))

	filter, err := reflex.Load(cfg.ReflexPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to load reflex rules: %w", err)
	}

	popts := []pipeline.Option{pipeline.WithLogger(log)}

	if cfg.Classifier.URL != "" {
		scorer := classify.NewHTTPScorer(cfg.Classifier.URL, cfg.Classifier.Model, cfg.Classifier.APIKey, cfg.Classifier.Timeout.Std())
		popts = append(popts, pipeline.WithScorer(scorer))
	}

	if cfg.Judge.APIKey != "" {
		g, err := judge.NewGemini(ctx, cfg.Judge.APIKey, cfg.Judge.Model, cfg.Judge.Timeout.Std())
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create judge: %w", err)
		}
		popts = append(popts, pipeline.WithJudge(judge.NewBreaker(g)))
	}

	var auditLog *audit.Log
	if cfg.AuditPath != "" {
		auditLog, err = audit.Open(cfg.AuditPath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		c.closers = append(c.closers, auditLog.Close)
		popts = append(popts, pipeline.WithAudit(auditLog, hash))
	}

	c.pipe = pipeline.New(c.store, filter, c.tokens, popts...)
	c.ledger = ledger.New(c.store, auditLog, log)

	var calib *telemetry.Calibration
	if cfg.CalibrationPath != "" {
		calib, err = telemetry.OpenCalibration(cfg.CalibrationPath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to open calibration log: %w", err)
		}
		c.closers = append(c.closers, calib.Close)
	}
	c.analyzer = telemetry.NewAnalyzer(c.ledger, calib, log)

	if cfg.EconomyPath != "" {
		eco, err := economy.Open(cfg.EconomyPath, c.tokens, log)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to open economy store: %w", err)
		}
		c.economy = eco
		c.closers = append(c.closers, eco.Close)
	}

	return c, nil
}

// Close releases resources in reverse acquisition order.
func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			fmt.Fprintf(os.Stderr, "warning: close failed: %v\n", err)
		}
	}
	c.closers = nil
}

// shortTimeout bounds one-shot CLI operations.
const shortTimeout = 30 * time.Second
