package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"auto-ai/router/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a configuration file without starting the server.

All problems are reported at once, one per line, so a broken config can
be fixed in a single pass.

Examples:
  # Validate the default config file
  airouter validate

  # Validate a specific file
  airouter validate --config /etc/airouter/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		var valErr *config.ValidationError
		if errors.As(err, &valErr) {
			fmt.Printf("✗ %s is invalid:\n", cfgFile)
			for _, fe := range valErr.Errors {
				fmt.Printf("  - %s: %s\n", fe.Field, fe.Message)
			}
			return fmt.Errorf("%d validation error(s)", len(valErr.Errors))
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Printf("✓ %s is valid\n", cfgFile)
	fmt.Printf("  credentials: %d\n", len(cfg.Credentials))
	fmt.Printf("  models:      %d\n", len(cfg.Models))
	fmt.Printf("  listen:      %s\n", cfg.Server.Listen)
	return nil
}
