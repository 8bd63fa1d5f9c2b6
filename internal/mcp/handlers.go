package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wardenlabs/warden/internal/model"
	"github.com/wardenlabs/warden/internal/token"
	"github.com/wardenlabs/warden/internal/trust"
)

// --- Input/Output types ---

// ScanInput defines parameters for the warden_scan tool.
type ScanInput struct {
	User string `json:"user" jsonschema:"user identifier the message belongs to"`
	Text string `json:"text" jsonschema:"message text to scan"`
}

// ScanOutput contains the scan verdict and, when allowed, the token.
type ScanOutput struct {
	Allowed bool         `json:"allowed"`
	Reason  string       `json:"reason"`
	Tier    int          `json:"tier"`
	Token   *token.Token `json:"token,omitempty"`
}

// VerifyTokenInput defines parameters for the warden_verify_token tool.
type VerifyTokenInput struct {
	ID        string  `json:"id" jsonschema:"token id"`
	IssuedAt  float64 `json:"issued_at" jsonschema:"issue time, unix seconds"`
	Subject   string  `json:"subject" jsonschema:"user the token was issued for"`
	Signature string  `json:"signature" jsonschema:"hex sha256 signature"`
}

// VerifyTokenOutput reports whether the token verifies.
type VerifyTokenOutput struct {
	Valid bool `json:"valid"`
}

// ReportInput defines parameters for the warden_report tool.
type ReportInput struct {
	User    string `json:"user" jsonschema:"user being reported"`
	Kind    string `json:"kind" jsonschema:"incident kind (abuse/cheat)"`
	Details string `json:"details,omitempty" jsonschema:"free-form incident details"`
}

// ReportOutput confirms the applied report.
type ReportOutput struct {
	User   string `json:"user"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
}

// TelemetryInput defines parameters for the warden_telemetry tool.
type TelemetryInput struct {
	User    string    `json:"user" jsonschema:"user the samples belong to"`
	Samples []float64 `json:"samples" jsonschema:"input timestamps in milliseconds, ascending"`
}

// TelemetryOutput contains the anomaly verdict.
type TelemetryOutput struct {
	IsAnomaly bool        `json:"is_anomaly"`
	Reason    string      `json:"reason"`
	Stats     model.Stats `json:"stats"`
}

// AvatarInput defines parameters for the warden_avatar tool.
type AvatarInput struct {
	User string `json:"user" jsonschema:"user identifier"`
}

// AvatarOutput is the avatar projection.
type AvatarOutput struct {
	State   string `json:"state"`
	Message string `json:"message"`
}

// --- Handlers ---

func (s *Server) handleScan(ctx context.Context, req *mcpsdk.CallToolRequest, input ScanInput) (*mcpsdk.CallToolResult, ScanOutput, error) {
	r := s.pipe.Scan(ctx, input.User, input.Text)
	out := ScanOutput{
		Allowed: r.Allowed,
		Reason:  r.Reason,
		Tier:    r.Tier,
		Token:   r.Token,
	}
	if !r.Allowed {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleVerifyToken(ctx context.Context, req *mcpsdk.CallToolRequest, input VerifyTokenInput) (*mcpsdk.CallToolResult, VerifyTokenOutput, error) {
	tok := token.Token{
		ID:        input.ID,
		IssuedAt:  input.IssuedAt,
		Subject:   input.Subject,
		Signature: input.Signature,
	}
	return nil, VerifyTokenOutput{Valid: s.tokens.Verify(&tok)}, nil
}

func (s *Server) handleReport(ctx context.Context, req *mcpsdk.CallToolRequest, input ReportInput) (*mcpsdk.CallToolResult, ReportOutput, error) {
	kind, ok := model.ParseReportKind(input.Kind)
	if !ok {
		return nil, ReportOutput{}, fmt.Errorf("unknown report kind %q", input.Kind)
	}
	if err := s.ledger.Report(ctx, input.User, kind, input.Details); err != nil {
		return nil, ReportOutput{}, err
	}
	return nil, ReportOutput{User: input.User, Kind: string(kind), Status: "recorded"}, nil
}

func (s *Server) handleTelemetry(ctx context.Context, req *mcpsdk.CallToolRequest, input TelemetryInput) (*mcpsdk.CallToolResult, TelemetryOutput, error) {
	v := s.analyzer.Analyze(ctx, input.User, input.Samples)
	return nil, TelemetryOutput{
		IsAnomaly: v.IsAnomaly,
		Reason:    string(v.Reason),
		Stats:     v.Stats,
	}, nil
}

func (s *Server) handleAvatar(ctx context.Context, req *mcpsdk.CallToolRequest, input AvatarInput) (*mcpsdk.CallToolResult, AvatarOutput, error) {
	p, err := s.store.Get(ctx, input.User)
	if err != nil {
		return nil, AvatarOutput{}, err
	}
	av := trust.Avatar(p.HarassmentScore)
	return nil, AvatarOutput{State: av.State, Message: av.Message}, nil
}
