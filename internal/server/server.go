// Package server exposes the gateway over HTTP. Handlers stay thin: every
// decision lives in the pipeline, ledger, analyzer and economy packages;
// this layer only translates JSON to calls and verdicts to status codes.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/audit"
	"github.com/wardenlabs/warden/internal/economy"
	"github.com/wardenlabs/warden/internal/ledger"
	"github.com/wardenlabs/warden/internal/model"
	"github.com/wardenlabs/warden/internal/pipeline"
	"github.com/wardenlabs/warden/internal/reflex"
	"github.com/wardenlabs/warden/internal/telemetry"
	"github.com/wardenlabs/warden/internal/token"
	"github.com/wardenlabs/warden/internal/trust"
)

// Server wires the gateway components behind a gin router.
type Server struct {
	pipe       *pipeline.Pipeline
	tokens     *token.Authority
	store      trust.Store
	ledger     *ledger.Ledger
	analyzer   *telemetry.Analyzer
	economy    *economy.Store
	auditPath  string
	reflexPath string
	log        *zap.Logger

	engine *gin.Engine
	http   *http.Server
}

// Deps carries the constructed components into the server.
type Deps struct {
	Pipeline   *pipeline.Pipeline
	Tokens     *token.Authority
	Store      trust.Store
	Ledger     *ledger.Ledger
	Analyzer   *telemetry.Analyzer
	Economy    *economy.Store
	AuditPath  string
	ReflexPath string
	Logger     *zap.Logger
}

// New builds the server and its routes.
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	s := &Server{
		pipe:       d.Pipeline,
		tokens:     d.Tokens,
		store:      d.Store,
		ledger:     d.Ledger,
		analyzer:   d.Analyzer,
		economy:    d.Economy,
		auditPath:  d.AuditPath,
		reflexPath: d.ReflexPath,
		log:        d.Logger,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)

	v1 := r.Group("/v1")
	{
		v1.POST("/scan", s.handleScan)
		v1.POST("/token/verify", s.handleVerifyToken)
		v1.POST("/report", s.handleReport)
		v1.POST("/telemetry", s.handleTelemetry)
		v1.GET("/avatar/:user", s.handleAvatar)
		v1.GET("/trust/:user", s.handleGetTrust)
		v1.PUT("/trust/:user", s.handleSetTrust)
		v1.GET("/audit/verify", s.handleAuditVerify)

		if s.economy != nil {
			v1.GET("/economy/:user/balance", s.handleBalance)
			v1.POST("/economy/:user/spend", s.handleSpend)
			v1.POST("/economy/:user/award", s.handleAward)
		}
	}

	s.engine = r
	return s
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until ctx is cancelled, then drains with a short grace period.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()
	s.log.Info("gateway listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutCtx)
	}
}

// ReloadRules re-reads the Tier 1 rule file and swaps it into the pipeline.
func (s *Server) ReloadRules() error {
	f, err := reflex.Load(s.reflexPath)
	if err != nil {
		return err
	}
	s.pipe.SwapFilter(f)
	s.log.Info("reflex rules reloaded", zap.String("path", s.reflexPath))
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Text has no required binding: an empty message still goes through the scan.
type scanRequest struct {
	User string `json:"user" binding:"required"`
	Text string `json:"text"`
}

func (s *Server) handleScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.pipe.Scan(c.Request.Context(), req.User, req.Text))
}

func (s *Server) handleVerifyToken(c *gin.Context) {
	var tok token.Token
	if err := c.ShouldBindJSON(&tok); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": s.tokens.Verify(&tok)})
}

type reportRequest struct {
	User    string `json:"user" binding:"required"`
	Kind    string `json:"kind" binding:"required"`
	Details string `json:"details"`
}

func (s *Server) handleReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, ok := model.ParseReportKind(req.Kind)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown report kind: " + req.Kind})
		return
	}
	if err := s.ledger.Report(c.Request.Context(), req.User, kind, req.Details); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

type telemetryRequest struct {
	User    string    `json:"user" binding:"required"`
	Samples []float64 `json:"samples" binding:"required"`
}

func (s *Server) handleTelemetry(c *gin.Context) {
	var req telemetryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.analyzer.Analyze(c.Request.Context(), req.User, req.Samples))
}

func (s *Server) handleAvatar(c *gin.Context) {
	p, err := s.store.Get(c.Request.Context(), c.Param("user"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trust.Avatar(p.HarassmentScore))
}

func (s *Server) handleGetTrust(c *gin.Context) {
	p, err := s.store.Get(c.Request.Context(), c.Param("user"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleSetTrust(c *gin.Context) {
	var attrs trust.Attrs
	if err := c.ShouldBindJSON(&attrs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.SetProfile(c.Request.Context(), c.Param("user"), attrs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (s *Server) handleAuditVerify(c *gin.Context) {
	if s.auditPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "audit log not configured"})
		return
	}
	c.JSON(http.StatusOK, audit.Verify(s.auditPath))
}

func (s *Server) handleBalance(c *gin.Context) {
	bal, err := s.economy.Balance(c.Request.Context(), c.Param("user"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": bal})
}

type spendRequest struct {
	Amount float64 `json:"amount" binding:"required"`
	Reason string  `json:"reason"`
}

func (s *Server) handleSpend(c *gin.Context) {
	var req spendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok, err := s.economy.Spend(c.Request.Context(), c.Param("user"), req.Amount, req.Reason)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient funds"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "spent"})
}

type awardRequest struct {
	Amount  float64      `json:"amount" binding:"required"`
	EventID string       `json:"event_id"`
	Token   *token.Token `json:"token" binding:"required"`
}

func (s *Server) handleAward(c *gin.Context) {
	var req awardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok, err := s.economy.Award(c.Request.Context(), token.Issued{Token: *req.Token}, c.Param("user"), req.Amount, req.EventID)
	if err != nil {
		if errors.Is(err, economy.ErrNotAuthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "event already claimed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "awarded"})
}
