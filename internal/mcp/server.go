// Package mcp exposes the gateway as Model Context Protocol tools so an
// agent host can gate its own content through the scan pipeline.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/wardenlabs/warden/internal/ledger"
	"github.com/wardenlabs/warden/internal/pipeline"
	"github.com/wardenlabs/warden/internal/telemetry"
	"github.com/wardenlabs/warden/internal/token"
	"github.com/wardenlabs/warden/internal/trust"
)

// Deps carries the constructed components into the MCP server.
type Deps struct {
	Pipeline *pipeline.Pipeline
	Tokens   *token.Authority
	Store    trust.Store
	Ledger   *ledger.Ledger
	Analyzer *telemetry.Analyzer
	Logger   *zap.Logger
}

// Server wraps the MCP SDK server around the scan pipeline.
type Server struct {
	mcpServer *mcpsdk.Server
	pipe      *pipeline.Pipeline
	tokens    *token.Authority
	store     trust.Store
	ledger    *ledger.Ledger
	analyzer  *telemetry.Analyzer
	log       *zap.Logger
}

// New creates an MCP server with the gateway tools registered.
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	s := &Server{
		pipe:     d.Pipeline,
		tokens:   d.Tokens,
		store:    d.Store,
		ledger:   d.Ledger,
		analyzer: d.Analyzer,
		log:      d.Logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "warden",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// registerTools adds all warden tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "warden_scan",
		Description: "Scan a message through the three-tier safety pipeline. Allowed messages return a signed capability token; rejected messages return the reason.",
	}, s.handleScan)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "warden_verify_token",
		Description: "Verify a capability token issued by warden_scan. Tampered or expired tokens verify as false.",
	}, s.handleVerifyToken)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "warden_report",
		Description: "Report an incident (abuse or cheat) against a user. Applies the reputation consequence immediately.",
	}, s.handleReport)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "warden_telemetry",
		Description: "Analyze a series of input timestamps (milliseconds, ascending) for automation. Anomalies are reported against the user's karma.",
	}, s.handleTelemetry)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "warden_avatar",
		Description: "Read a user's avatar state, a projection of their harassment score.",
	}, s.handleAvatar)
}
