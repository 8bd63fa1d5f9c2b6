package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wardenlabs/warden/internal/server"
)

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	Long:  "Runs the gateway as an HTTP server.\nExposes scan, token, report, telemetry, trust, avatar, audit and economy endpoints.\nSupports hot-reload of the Tier 1 rule file.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := buildComponents(ctx)
	if err != nil {
		return fmt.Errorf("failed to build gateway: %w", err)
	}
	defer c.Close()

	srv := server.New(server.Deps{
		Pipeline:   c.pipe,
		Tokens:     c.tokens,
		Store:      c.store,
		Ledger:     c.ledger,
		Analyzer:   c.analyzer,
		Economy:    c.economy,
		AuditPath:  c.cfg.AuditPath,
		ReflexPath: c.cfg.ReflexPath,
		Logger:     c.log,
	})

	reloader, err := server.NewReloader(srv, []string{c.cfg.ReflexPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: hot-reload disabled: %v\n", err)
	}
	if reloader != nil {
		go reloader.Run(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down gateway...")
		cancel()
	}()

	addr := serveAddr
	if addr == "" {
		addr = c.cfg.Server.Addr
	}
	fmt.Fprintf(os.Stderr, "warden gateway listening on %s\n", addr)
	if c.cfg.ReflexPath != "" {
		fmt.Fprintf(os.Stderr, "Reflex rules: %s (hot-reload enabled)\n", c.cfg.ReflexPath)
	}
	fmt.Fprintln(os.Stderr)

	return srv.Run(ctx, addr)
}
