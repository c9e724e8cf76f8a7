package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration, apply environment overrides, and validate it.

Validation checks field ranges (temperature, retry attempts, backoff
delays), provider names, endpoint URLs, and the transcript and telemetry
sections. All problems are reported together, not just the first.

Examples:
  # Validate the default config file
  vellum validate

  # Validate a specific file
  vellum validate --config /etc/vellum/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Println("✓ Configuration valid")

	keyed := 0
	keyless := 0
	for _, provider := range cfg.Providers {
		switch {
		case provider.APIKey != "" || cfg.Client.SharedAPIKey != "":
			keyed++
		case provider.AllowKeyless && !provider.CommercialUse:
			keyless++
		}
	}

	fmt.Printf("  Providers:     %d configured (%d keyed, %d keyless)\n",
		len(cfg.Providers), keyed, keyless)
	fmt.Printf("  Default model: %s\n", cfg.Generation.Model)
	fmt.Printf("  Retry:         %d attempts, %s base delay\n",
		cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay)
	if cfg.Transcript.Enabled {
		fmt.Printf("  Transcript:    %s backend\n", cfg.Transcript.Backend)
	}
	return nil
}
