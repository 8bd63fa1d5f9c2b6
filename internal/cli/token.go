package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wardenlabs/warden/internal/token"
)

func init() {
	tokenCmd.AddCommand(tokenIssueCmd)
	tokenCmd.AddCommand(tokenVerifyCmd)
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue and verify capability tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <user>",
	Short: "Issue a signed capability token",
	Long:  "Issues a token directly, bypassing the scan pipeline.\nFor testing downstream consumers; production tokens come from scans.",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenIssue,
}

var tokenVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a token read from stdin",
	Long:  "Reads token JSON from stdin and verifies the signature and validity\nwindow. Exit code 0 if valid, 1 if not.",
	Args:  cobra.NoArgs,
	RunE:  runTokenVerify,
}

func runTokenIssue(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), shortTimeout)
	defer cancel()

	c, err := buildComponents(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	tok := c.tokens.Issue(args[0])
	out, _ := json.Marshal(tok)
	fmt.Println(string(out))
	return nil
}

func runTokenVerify(cmd *cobra.Command, args []string) error {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	var tok token.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return fmt.Errorf("invalid token JSON: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shortTimeout)
	defer cancel()

	c, err := buildComponents(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if !c.tokens.Verify(&tok) {
		fmt.Println("invalid")
		os.Exit(1)
	}
	fmt.Println("valid")
	return nil
}
