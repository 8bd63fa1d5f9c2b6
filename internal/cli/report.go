package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wardenlabs/warden/internal/model"
)

var (
	reportKind    string
	reportDetails string
)

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportKind, "kind", "", "Incident kind: abuse or cheat (required)")
	reportCmd.Flags().StringVar(&reportDetails, "details", "", "Free-form incident details")
	reportCmd.MarkFlagRequired("kind")
}

var reportCmd = &cobra.Command{
	Use:   "report <user>",
	Short: "Report an incident against a user",
	Long:  "Applies the reputation consequence for a reported incident:\nabuse costs 20 karma and raises the harassment score by 10,\ncheat costs 100 karma.",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	user := args[0]

	kind, ok := model.ParseReportKind(reportKind)
	if !ok {
		return fmt.Errorf("unknown report kind %q (want abuse or cheat)", reportKind)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shortTimeout)
	defer cancel()

	c, err := buildComponents(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.ledger.Report(ctx, user, kind, reportDetails); err != nil {
		return err
	}

	p, err := c.store.Get(ctx, user)
	if err != nil {
		return err
	}
	out, _ := json.MarshalIndent(p, "", "  ")
	fmt.Println(string(out))
	return nil
}
