package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	wardenmcp "github.com/wardenlabs/warden/internal/mcp"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long:  "Runs the gateway as an MCP (Model Context Protocol) server over stdio.\nExposes tools: scan, verify_token, report, telemetry, avatar.",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := buildComponents(ctx)
	if err != nil {
		return fmt.Errorf("failed to build gateway: %w", err)
	}
	defer c.Close()

	srv := wardenmcp.New(wardenmcp.Deps{
		Pipeline: c.pipe,
		Tokens:   c.tokens,
		Store:    c.store,
		Ledger:   c.ledger,
		Analyzer: c.analyzer,
		Logger:   c.log,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "warden MCP server running on stdio")
	fmt.Fprintln(os.Stderr)

	return srv.Run(ctx)
}
