package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scribe-hq/vellum/pkg/cli"
	"scribe-hq/vellum/pkg/providers"
)

var providersFlags struct {
	check  bool
	format string
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers",
	Long: `List the completion backends and, with --check, probe each one.

A probe resolves the provider's credential and issues a lightweight
request against its endpoint. Providers whose credentials cannot be
resolved (for example, a missing API key) are reported without any
network traffic.

Examples:
  # List the backends
  vellum providers

  # Probe reachability and report latency
  vellum providers --check

  # Machine-readable output
  vellum providers --check --format json`,
	RunE: runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)

	providersCmd.Flags().BoolVar(&providersFlags.check, "check", false, "probe each provider's endpoint")
	providersCmd.Flags().StringVar(&providersFlags.format, "format", "text", "output format: text, json")
}

// providerStatus is the JSON shape of one probe result.
type providerStatus struct {
	Provider  string `json:"provider"`
	Healthy   bool   `json:"healthy"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	router, cleanup, err := buildRouter(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if !providersFlags.check {
		names := router.Providers()
		if providersFlags.format == "json" {
			formatter := cli.NewFormatter(cli.FormatJSON)
			return formatter.FormatTo(os.Stdout, names)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	}

	ctx := cli.SetupSignalHandler()
	results := router.CheckProviders(ctx)

	if providersFlags.format == "json" {
		statuses := make([]providerStatus, 0, len(results))
		for _, r := range results {
			status := providerStatus{
				Provider:  r.Provider,
				Healthy:   r.Healthy,
				LatencyMS: r.Latency.Milliseconds(),
			}
			if r.Err != nil {
				status.Error = providers.FriendlyMessage(r.Err)
			}
			statuses = append(statuses, status)
		}
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(os.Stdout, statuses)
	}

	unhealthy := 0
	for _, r := range results {
		if r.Healthy {
			fmt.Printf("✓ %-10s %dms\n", r.Provider, r.Latency.Milliseconds())
			continue
		}
		unhealthy++
		fmt.Printf("✗ %-10s %s\n", r.Provider, providers.FriendlyMessage(r.Err))
	}

	if unhealthy > 0 {
		return cli.NewCommandError("providers",
			fmt.Errorf("%d of %d providers unhealthy", unhealthy, len(results)))
	}
	return nil
}
