package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wardenlabs/warden/internal/trust"
)

func init() {
	rootCmd.AddCommand(avatarCmd)
}

var avatarCmd = &cobra.Command{
	Use:   "avatar <user>",
	Short: "Show a user's avatar state",
	Long:  "Prints the avatar projection of the user's harassment score:\nNORMAL, WARNING (> 30) or NIGHTMARE (> 60).",
	Args:  cobra.ExactArgs(1),
	RunE:  runAvatar,
}

func runAvatar(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), shortTimeout)
	defer cancel()

	c, err := buildComponents(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	p, err := c.store.Get(ctx, args[0])
	if err != nil {
		return err
	}

	out, _ := json.MarshalIndent(trust.Avatar(p.HarassmentScore), "", "  ")
	fmt.Println(string(out))
	return nil
}
