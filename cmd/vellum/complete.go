package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"scribe-hq/vellum/pkg/cli"
	"scribe-hq/vellum/pkg/providers"
	"scribe-hq/vellum/pkg/routing"
)

var completeFlags struct {
	model       string
	stream      bool
	temperature float64
	maxTokens   int
	system      string
	promptFile  string
}

var completeCmd = &cobra.Command{
	Use:   "complete [prompt]",
	Short: "Generate a completion",
	Long: `Generate a completion for a prompt.

The prompt is taken from the command arguments, from a file with --file,
or from stdin when neither is given. The model identifier selects the
backend: "deepseek-chat" goes to DeepSeek, "groq/llama-3.3-70b-versatile"
to Groq, "ollama/phi3" to a local Ollama daemon, and everything else to
the default provider.

Examples:
  # One-shot completion with the configured default model
  vellum complete "Improve this paragraph: ..."

  # Stream tokens as they arrive
  vellum complete --stream --model deepseek-chat "Summarize the plot of Hamlet"

  # Read the prompt from a file
  vellum complete --file prompt.txt

  # Pipe the prompt in
  cat draft.md | vellum complete --system "You are an editor."`,
	Args: cobra.ArbitraryArgs,
	RunE: runComplete,
}

func init() {
	rootCmd.AddCommand(completeCmd)

	completeCmd.Flags().StringVarP(&completeFlags.model, "model", "m", "", "model identifier (also selects the provider)")
	completeCmd.Flags().BoolVar(&completeFlags.stream, "stream", false, "stream output as it is generated")
	completeCmd.Flags().Float64VarP(&completeFlags.temperature, "temperature", "t", 0, "sampling temperature")
	completeCmd.Flags().IntVar(&completeFlags.maxTokens, "max-tokens", 0, "completion length limit")
	completeCmd.Flags().StringVar(&completeFlags.system, "system", "", "system message prepended to the conversation")
	completeCmd.Flags().StringVarP(&completeFlags.promptFile, "file", "f", "", "read the prompt from a file")
}

func runComplete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	prompt, err := resolvePrompt(args)
	if err != nil {
		return err
	}

	router, cleanup, err := buildRouter(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := callOptions(cmd)

	// Ctrl+C cancels the in-flight call; a streaming call still returns
	// whatever text arrived before the cancel.
	ctx := cli.SetupSignalHandler()

	if completeFlags.stream {
		opts = append(opts, routing.WithStream(func(frame providers.StreamFrame) {
			fmt.Print(frame.Delta)
		}))
	}

	result, err := router.Complete(ctx, prompt, opts...)
	if err != nil {
		if completeFlags.stream && result.Content != "" {
			// Partial output is already on the terminal; end the line
			// before reporting what cut it short.
			fmt.Println()
		}
		fmt.Fprintln(os.Stderr, providers.FriendlyMessage(err))
		return cli.NewCommandError("complete", err)
	}

	if completeFlags.stream {
		fmt.Println()
	} else {
		fmt.Println(result.Content)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "provider=%s model=%s tokens=%d request_id=%s\n",
			result.Provider, result.Model, result.TotalTokens, result.RequestID)
	}
	return nil
}

// callOptions maps the set flags onto per-call options. Unset flags stay
// absent so the configured generation defaults apply.
func callOptions(cmd *cobra.Command) []routing.CallOption {
	var opts []routing.CallOption
	if completeFlags.model != "" {
		opts = append(opts, routing.WithModel(completeFlags.model))
	}
	if cmd.Flags().Changed("temperature") {
		opts = append(opts, routing.WithTemperature(completeFlags.temperature))
	}
	if cmd.Flags().Changed("max-tokens") {
		opts = append(opts, routing.WithMaxTokens(completeFlags.maxTokens))
	}
	if completeFlags.system != "" {
		opts = append(opts, routing.WithSystem(completeFlags.system))
	}
	return opts
}

// resolvePrompt picks the prompt source: arguments, --file, then stdin.
func resolvePrompt(args []string) (string, error) {
	if completeFlags.promptFile != "" {
		data, err := os.ReadFile(completeFlags.promptFile)
		if err != nil {
			return "", cli.NewCommandError("complete", fmt.Errorf("failed to read prompt file: %w", err))
		}
		return strings.TrimSpace(string(data)), nil
	}

	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	stat, err := os.Stdin.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", cli.NewCommandError("complete", fmt.Errorf("failed to read stdin: %w", err))
		}
		if prompt := strings.TrimSpace(string(data)); prompt != "" {
			return prompt, nil
		}
	}

	return "", cli.NewCommandError("complete", errors.New("no prompt given (pass arguments, --file, or pipe stdin)"))
}
