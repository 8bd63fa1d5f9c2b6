package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan <user> <text...>",
	Short: "Scan a message through the safety pipeline",
	Long:  "Runs one message through the three-tier scan against the user's trust state\nand prints the verdict as JSON. Rejections exit 1.",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	user := args[0]
	text := strings.Join(args[1:], " ")

	ctx, cancel := context.WithTimeout(context.Background(), shortTimeout)
	defer cancel()

	c, err := buildComponents(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	result := c.pipe.Scan(ctx, user, text)

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if !result.Allowed {
		os.Exit(1)
	}
	return nil
}
