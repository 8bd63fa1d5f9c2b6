package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wardenlabs/warden/internal/config"
	"github.com/wardenlabs/warden/internal/reflex"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config files")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap warden configuration",
	Long: `Creates the config directory with a commented default config and the
built-in Tier 1 rule file.

Writes to ~/.warden/`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("cannot determine home directory: %w", err)
	}
	configDir := filepath.Join(home, ".warden")

	var created []string

	cfgPath := filepath.Join(configDir, "warden.yaml")
	if wrote, err := writeIfMissing(cfgPath, config.DefaultConfigYAML()); err != nil {
		return err
	} else if wrote {
		created = append(created, cfgPath)
	}

	reflexPath := filepath.Join(configDir, "reflex.yaml")
	reflexContent, err := defaultReflexYAML()
	if err != nil {
		return fmt.Errorf("generate default reflex rules: %w", err)
	}
	if wrote, err := writeIfMissing(reflexPath, reflexContent); err != nil {
		return err
	} else if wrote {
		created = append(created, reflexPath)
	}

	fmt.Println("warden init complete.")
	fmt.Println()
	if len(created) > 0 {
		fmt.Println("Created:")
		for _, path := range created {
			fmt.Printf("  %s\n", path)
		}
		fmt.Println()
	} else {
		fmt.Println("All files already exist (use --force to overwrite).")
		fmt.Println()
	}

	fmt.Println("Start the gateway:")
	fmt.Println("  warden serve")
	fmt.Println()
	fmt.Println("Scan a message:")
	fmt.Println("  warden scan <user> <text>")

	return nil
}

// writeIfMissing writes content to path if it doesn't exist or --force is set.
// Returns true if the file was written.
func writeIfMissing(path, content string) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// defaultReflexYAML generates a commented default reflex.yaml.
func defaultReflexYAML() (string, error) {
	data, err := yaml.Marshal(reflex.DefaultPatterns)
	if err != nil {
		return "", err
	}
	header := "# Warden Tier 1 reflex rules — zero-tolerance patterns.\n" +
		"# Matched case-insensitively against every message before any model runs.\n" +
		"# A match rejects immediately and costs 50 karma.\n" +
		"#\n" +
		"# Edit this file to customize; the gateway hot-reloads it.\n\n"
	return header + string(data), nil
}
