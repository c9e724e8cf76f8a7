package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"scribe-hq/vellum/pkg/cli"
	"scribe-hq/vellum/pkg/transcript"
	"scribe-hq/vellum/pkg/transcript/export"
	"scribe-hq/vellum/pkg/transcript/query"
)

var transcriptFlags struct {
	provider  string
	model     string
	status    string
	requestID string
	since     time.Duration
	limit     int
	format    string
	output    string
	pretty    bool
}

var transcriptCmd = &cobra.Command{
	Use:   "transcript",
	Short: "List or export the call journal",
	Long: `List journal entries recorded by the transcript, newest first.

The journal stores call outcomes only (provider, model, status, attempts,
duration, token counts); prompt and response text is never recorded.

Examples:
  # Show the most recent calls
  vellum transcript

  # Failed calls against one backend in the last day
  vellum transcript --provider openai --status error --since 24h

  # Export everything matching a filter
  vellum transcript --status aborted --format csv -o aborted.csv
  vellum transcript --format json --pretty`,
	RunE: runTranscript,
}

func init() {
	rootCmd.AddCommand(transcriptCmd)

	transcriptCmd.Flags().StringVar(&transcriptFlags.provider, "provider", "", "filter by backend name")
	transcriptCmd.Flags().StringVar(&transcriptFlags.model, "model", "", "filter by model identifier")
	transcriptCmd.Flags().StringVar(&transcriptFlags.status, "status", "", "filter by status: ok, error, aborted")
	transcriptCmd.Flags().StringVar(&transcriptFlags.requestID, "request-id", "", "filter by request identifier")
	transcriptCmd.Flags().DurationVar(&transcriptFlags.since, "since", 0, "only calls newer than this (e.g. 30m, 24h)")
	transcriptCmd.Flags().IntVarP(&transcriptFlags.limit, "limit", "n", 0, "maximum entries to return")
	transcriptCmd.Flags().StringVar(&transcriptFlags.format, "format", "text", "output format: text, json, csv")
	transcriptCmd.Flags().StringVarP(&transcriptFlags.output, "output", "o", "", "write to file instead of stdout")
	transcriptCmd.Flags().BoolVar(&transcriptFlags.pretty, "pretty", false, "pretty-print JSON output")
}

// transcriptQuery maps the command flags onto a journal query, validated
// and defaulted.
func transcriptQuery() (*transcript.Query, error) {
	q := &transcript.Query{
		Provider:  transcriptFlags.provider,
		Model:     transcriptFlags.model,
		Status:    transcriptFlags.status,
		RequestID: transcriptFlags.requestID,
		Limit:     transcriptFlags.limit,
	}
	if transcriptFlags.since > 0 {
		start := time.Now().Add(-transcriptFlags.since)
		q.StartTime = &start
	}

	query.ApplyDefaults(q)
	if err := query.Validate(q); err != nil {
		return nil, err
	}
	return q, nil
}

func runTranscript(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	q, err := transcriptQuery()
	if err != nil {
		return cli.NewCommandError("transcript", err)
	}

	store, err := buildTranscriptStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cli.SetupSignalHandler()
	entries, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("transcript", err)
	}

	var out io.Writer = os.Stdout
	if transcriptFlags.output != "" {
		f, err := os.Create(transcriptFlags.output)
		if err != nil {
			return cli.NewCommandError("transcript", err)
		}
		defer f.Close()
		out = f
	}

	switch transcriptFlags.format {
	case "json":
		if err := export.NewJSONExporter(transcriptFlags.pretty).Export(ctx, entries, out); err != nil {
			return cli.NewCommandError("transcript", err)
		}
		fmt.Fprintln(out)
		return nil
	case "csv":
		if err := export.NewCSVExporter(true).Export(ctx, entries, out); err != nil {
			return cli.NewCommandError("transcript", err)
		}
		return nil
	case "text":
		printEntries(out, entries)
		return nil
	default:
		return cli.NewCommandError("transcript",
			fmt.Errorf("unsupported format %q", transcriptFlags.format))
	}
}

// printEntries renders the journal as a fixed-width listing.
func printEntries(out io.Writer, entries []*transcript.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "no journal entries match")
		return
	}

	fmt.Fprintf(out, "%-20s %-10s %-24s %-8s %8s %9s  %s\n",
		"START", "PROVIDER", "MODEL", "STATUS", "TOKENS", "DURATION", "REQUEST")
	for _, e := range entries {
		fmt.Fprintf(out, "%-20s %-10s %-24s %-8s %8d %9s  %s\n",
			e.StartTime.Format("2006-01-02 15:04:05"),
			e.Provider,
			e.Model,
			e.Status,
			e.TotalTokens,
			e.Duration.Round(time.Millisecond),
			e.RequestID,
		)
	}
	fmt.Fprintf(out, "%d entries\n", len(entries))
}
