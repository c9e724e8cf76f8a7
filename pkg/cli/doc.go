/*
Package cli provides command-line interface utilities for Vellum.

The cli package includes output formatters, signal handling, and typed
errors used by the vellum command.

Output Formatting:

Command results can be rendered as plain text or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, results); err != nil {
		return err
	}

Signal Handling:

Interactive commands derive their context from the signal handler so
Ctrl+C cancels the in-flight provider call:

	ctx := cli.SetupSignalHandler()
	result, err := router.Complete(ctx, prompt, opts...)

Errors:

ConfigError marks problems resolving or validating configuration;
CommandError wraps a failure from a subcommand with its name.
*/
package cli
