package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var telemetrySamples string

func init() {
	rootCmd.AddCommand(telemetryCmd)
	telemetryCmd.Flags().StringVar(&telemetrySamples, "samples", "", "Comma-separated input timestamps in milliseconds (required)")
	telemetryCmd.MarkFlagRequired("samples")
}

var telemetryCmd = &cobra.Command{
	Use:   "telemetry <user>",
	Short: "Analyze input timing for automation",
	Long:  "Runs the statistical anomaly checks over a series of input timestamps.\nAnomalies are reported against the user's karma. Exit code 1 on anomaly.",
	Args:  cobra.ExactArgs(1),
	RunE:  runTelemetry,
}

func runTelemetry(cmd *cobra.Command, args []string) error {
	user := args[0]

	samples, err := parseSamples(telemetrySamples)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), shortTimeout)
	defer cancel()

	c, err := buildComponents(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	verdict := c.analyzer.Analyze(ctx, user, samples)

	out, _ := json.MarshalIndent(verdict, "", "  ")
	fmt.Println(string(out))

	if verdict.IsAnomaly {
		os.Exit(1)
	}
	return nil
}

func parseSamples(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	samples := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sample %q: %w", p, err)
		}
		samples = append(samples, v)
	}
	return samples, nil
}
