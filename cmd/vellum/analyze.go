package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scribe-hq/vellum/pkg/cli"
	"scribe-hq/vellum/pkg/providers"
	"scribe-hq/vellum/pkg/routing"
)

var analyzeFlags struct {
	image  string
	prompt string
	model  string
	detail string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze an image with a vision-capable model",
	Long: `Send an image to a vision-capable model and print its analysis.

The image is embedded in the request as base64; PNG, JPEG, GIF, and WebP
are supported. The model selects the backend the same way completions do.

Examples:
  # Describe a chart
  vellum analyze --image chart.png

  # Ask a specific question about it
  vellum analyze --image chart.png --prompt "Which series grows fastest?"

  # Pick the model and detail level
  vellum analyze --image photo.jpg --model gpt-4o --detail high`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeFlags.image, "image", "i", "", "image file to analyze (required)")
	analyzeCmd.Flags().StringVarP(&analyzeFlags.prompt, "prompt", "p", "", "analysis instruction")
	analyzeCmd.Flags().StringVarP(&analyzeFlags.model, "model", "m", "", "vision-capable model identifier")
	analyzeCmd.Flags().StringVar(&analyzeFlags.detail, "detail", "", "analysis detail hint: low, high, auto")
	analyzeCmd.MarkFlagRequired("image")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	image, err := os.ReadFile(analyzeFlags.image)
	if err != nil {
		return cli.NewCommandError("analyze", fmt.Errorf("failed to read image: %w", err))
	}

	router, cleanup, err := buildRouter(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var opts []routing.CallOption
	if analyzeFlags.model != "" {
		opts = append(opts, routing.WithModel(analyzeFlags.model))
	}

	ctx := cli.SetupSignalHandler()

	result, err := router.AnalyzeImage(ctx, routing.VisionInput{
		Image:    image,
		MimeType: imageMimeType(analyzeFlags.image, image),
		Prompt:   analyzeFlags.prompt,
		Detail:   analyzeFlags.detail,
	}, opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, providers.FriendlyMessage(err))
		return cli.NewCommandError("analyze", err)
	}

	fmt.Println(result.Content)

	if verbose {
		fmt.Fprintf(os.Stderr, "provider=%s model=%s tokens=%d request_id=%s\n",
			result.Provider, result.Model, result.TotalTokens, result.RequestID)
	}
	return nil
}

// imageMimeType resolves the MIME type from the file extension, sniffing
// the content for unrecognized extensions.
func imageMimeType(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return http.DetectContentType(data)
	}
}
