package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"scribe-hq/vellum/pkg/cli"
	"scribe-hq/vellum/pkg/config"
	"scribe-hq/vellum/pkg/routing"
	"scribe-hq/vellum/pkg/telemetry/logging"
	"scribe-hq/vellum/pkg/telemetry/metrics"
	"scribe-hq/vellum/pkg/telemetry/tracing"
	"scribe-hq/vellum/pkg/transcript"
	"scribe-hq/vellum/pkg/transcript/recorder"
	"scribe-hq/vellum/pkg/transcript/retention"
	"scribe-hq/vellum/pkg/transcript/storage"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vellum",
	Short: "Vellum - resilient multi-provider completion client",
	Long: `Vellum is a completion client that talks to multiple AI providers
through a single surface.

It routes each request to a backend based on the model identifier:
  - Model-based routing (OpenAI, DeepSeek, Groq, Gemini, Ollama)
  - Streaming and one-shot completions
  - Vision analysis for chart and image understanding
  - Automatic retry with jittered exponential backoff
  - Keyless non-commercial access where providers offer it

For more information, visit: https://github.com/scribe-hq/vellum`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: vellum.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}

// defaultConfigFile is consulted when --config is not given.
const defaultConfigFile = "vellum.yaml"

// loadConfig resolves the configuration: .env first so key variables are
// visible, then the YAML file with VELLUM_* overrides, or environment-only
// when no file exists.
func loadConfig() (*config.Config, error) {
	// Missing .env is fine; an unreadable one is not.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, cli.NewConfigError(".env", err.Error())
	}

	path := cfgFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	if path == "" {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return nil, cli.NewConfigError("", err.Error())
		}
		return cfg, nil
	}

	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, cli.NewConfigError(path, err.Error())
	}
	return cfg, nil
}

// setupLogging installs the process logger from the telemetry section.
// --verbose forces debug level.
func setupLogging(cfg *config.Config) error {
	level := cfg.Telemetry.Logging.Level
	if verbose {
		level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:         level,
		Format:        cfg.Telemetry.Logging.Format,
		AddSource:     cfg.Telemetry.Logging.AddSource,
		RedactSecrets: cfg.Telemetry.Logging.RedactSecrets,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)
	return nil
}

// buildRouter assembles the completion router with whatever observability
// the configuration enables. The returned cleanup closes everything the
// router was given, in reverse order of construction.
func buildRouter(cfg *config.Config) (*routing.Router, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var opts []routing.Option

	if cfg.Telemetry.Metrics.Enabled {
		opts = append(opts, routing.WithMetrics(metrics.NewCollector(&cfg.Telemetry.Metrics, nil)))
	}

	if cfg.Telemetry.Tracing.Enabled {
		tracer, err := tracing.New(&cfg.Telemetry.Tracing)
		if err != nil {
			cleanup()
			return nil, nil, cli.NewConfigError("telemetry.tracing", err.Error())
		}
		cleanups = append(cleanups, func() {
			if err := tracer.Shutdown(context.Background()); err != nil {
				slog.Warn("tracer shutdown failed", "error", err)
			}
		})
		opts = append(opts, routing.WithTracer(tracer))
	}

	if cfg.Transcript.Enabled {
		store, err := buildTranscriptStorage(cfg)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() {
			if err := store.Close(); err != nil {
				slog.Warn("transcript storage close failed", "error", err)
			}
		})

		rec := recorder.NewRecorder(store, &recorder.Config{
			Enabled:      true,
			AsyncBuffer:  cfg.Transcript.Recorder.AsyncBuffer,
			WriteTimeout: cfg.Transcript.Recorder.WriteTimeout,
		})
		cleanups = append(cleanups, func() {
			if err := rec.Close(); err != nil {
				slog.Warn("transcript recorder close failed", "error", err)
			}
		})
		opts = append(opts, routing.WithRecorder(rec))

		if cfg.Transcript.Retention.PruneSchedule != "" {
			pruner := retention.NewPruner(store, &retention.Config{
				Days:          cfg.Transcript.Retention.Days,
				PruneSchedule: cfg.Transcript.Retention.PruneSchedule,
				MaxEntries:    cfg.Transcript.Retention.MaxEntries,
			})
			if err := pruner.Start(context.Background()); err != nil {
				slog.Warn("retention scheduler failed to start", "error", err)
			} else {
				cleanups = append(cleanups, pruner.Stop)
			}
		}
	}

	router, err := routing.New(routing.Static(cfg), opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, func() {
		if err := router.Close(); err != nil {
			slog.Warn("router close failed", "error", err)
		}
	})

	return router, cleanup, nil
}

// buildTranscriptStorage creates the journal backend named by the config.
func buildTranscriptStorage(cfg *config.Config) (transcript.Storage, error) {
	switch cfg.Transcript.Backend {
	case "sqlite":
		store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.Transcript.SQLite.Path,
			Driver:       cfg.Transcript.SQLite.Driver,
			MaxOpenConns: cfg.Transcript.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Transcript.SQLite.MaxIdleConns,
			WALMode:      cfg.Transcript.SQLite.WALMode,
			BusyTimeout:  cfg.Transcript.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, cli.NewConfigError("transcript.sqlite", err.Error())
		}
		return store, nil
	case "memory", "":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, cli.NewConfigError("transcript.backend",
			fmt.Sprintf("unsupported backend %q", cfg.Transcript.Backend))
	}
}
