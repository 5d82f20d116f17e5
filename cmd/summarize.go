package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/killallgit/vidsum/internal/services/processor"
	"github.com/killallgit/vidsum/internal/services/publish"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// summarizeCmd extracts and summarizes one video without recording it
var summarizeCmd = &cobra.Command{
	Use:   "summarize <url>",
	Short: "Summarize a video without recording it",
	Long: `Fetch the transcript of a YouTube or Bilibili video and print its summary.

The summary is also written to <output_dir>/summary_<unix time>_<url suffix>.md.
Neither Notion nor the local database is touched.

Example:
  vidsum summarize https://www.youtube.com/watch?v=dQw4w9WgXcQ`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	app, err := openApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	url := args[0]
	out := cmd.OutOrStdout()

	summary, err := app.processor.Summarize(ctx, url)
	if err != nil {
		if errors.Is(err, processor.ErrUnsupportedURL) {
			fmt.Fprintf(out, "Unsupported URL: %s\n", url)
		} else {
			fmt.Fprintf(out, "Failed to summarize %s: %v\n", url, err)
		}
		return nil
	}

	fmt.Fprintln(out, summary)

	path, err := publish.WriteQuickSummary(app.cfg.Storage.OutputDir, url, summary, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to save summary")
		return nil
	}
	fmt.Fprintf(out, "\nSummary saved to %s\n", path)
	return nil
}
