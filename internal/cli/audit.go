package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wardenlabs/warden/internal/audit"
	"github.com/wardenlabs/warden/internal/config"
)

var (
	auditLogPath string
	auditFrom    string
	auditTo      string
	auditFormat  string
)

func init() {
	auditCmd.PersistentFlags().StringVarP(&auditLogPath, "log", "l", "", "Path to audit log (default from config)")

	auditShowCmd.Flags().StringVar(&auditFrom, "from", "", "Start time filter (RFC3339)")
	auditShowCmd.Flags().StringVar(&auditTo, "to", "", "End time filter (RFC3339)")
	auditShowCmd.Flags().StringVarP(&auditFormat, "format", "f", "text", "Output format (text|json)")

	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditShowCmd)
	rootCmd.AddCommand(auditCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the hash-chained decision log",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the audit log hash chain",
	Long:  "Walks the log line by line and validates that every entry references\nthe hash of its predecessor. Exit code 1 on a broken chain.",
	Args:  cobra.NoArgs,
	RunE:  runAuditVerify,
}

var auditShowCmd = &cobra.Command{
	Use:   "show <user>",
	Short: "Show a user's decision history",
	Long:  "Reads the audit log, filters by user and optional time range,\nand renders a decision timeline with summary.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditShow,
}

func resolveAuditPath() (string, error) {
	if auditLogPath != "" {
		return auditLogPath, nil
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return "", err
	}
	if cfg.AuditPath == "" {
		return "", fmt.Errorf("no audit log configured; set audit_path or pass --log")
	}
	return cfg.AuditPath, nil
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	path, err := resolveAuditPath()
	if err != nil {
		return err
	}

	result := audit.Verify(path)
	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if !result.Valid {
		os.Exit(1)
	}
	return nil
}

func runAuditShow(cmd *cobra.Command, args []string) error {
	path, err := resolveAuditPath()
	if err != nil {
		return err
	}

	filter := audit.ReplayFilter{User: args[0]}

	if auditFrom != "" {
		from, err := time.Parse(time.RFC3339, auditFrom)
		if err != nil {
			return fmt.Errorf("invalid --from time %q: %w", auditFrom, err)
		}
		filter.From = from
	}
	if auditTo != "" {
		to, err := time.Parse(time.RFC3339, auditTo)
		if err != nil {
			return fmt.Errorf("invalid --to time %q: %w", auditTo, err)
		}
		filter.To = to
	}

	result, err := audit.Replay(path, filter)
	if err != nil {
		return err
	}

	switch auditFormat {
	case "json":
		out, err := audit.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Println(out)
	default:
		fmt.Print(audit.FormatTimeline(result))
	}

	return nil
}
