package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/killallgit/vidsum/internal/services/processor"
	"github.com/spf13/cobra"
)

// processCmd runs the full pipeline for one video
var processCmd = &cobra.Command{
	Use:   "process <url>",
	Short: "Summarize a video and record it",
	Long: `Run the full pipeline for one video: duplicate check, transcript
extraction, summarization, then the summary file, the Notion page and the
local database record.

Title and uploader are looked up on the video page unless given.

Example:
  vidsum process https://www.bilibili.com/video/BV1xx411c7mD
  vidsum process https://youtu.be/dQw4w9WgXcQ --uploader "Some Channel"`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().String("title", "", "video title (looked up when empty)")
	processCmd.Flags().String("uploader", "", "uploader name (looked up when empty)")
	processCmd.Flags().Bool("json", false, "print the outcome as JSON")
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	app, err := openApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	title, _ := cmd.Flags().GetString("title")
	uploader, _ := cmd.Flags().GetString("uploader")
	asJSON, _ := cmd.Flags().GetBool("json")

	outcome, err := app.processor.Process(ctx, processor.Request{
		URL:      args[0],
		Title:    title,
		Uploader: uploader,
	})
	if outcome == nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(outcome); encErr != nil {
			return encErr
		}
		return err
	}

	switch outcome.Status {
	case processor.StatusSkipped:
		fmt.Fprintf(out, "Skipped %s: already recorded (%s)\n", outcome.VideoID, outcome.SkippedBy)
	case processor.StatusProcessed:
		fmt.Fprintf(out, "Processed %s from %s\n", outcome.VideoID, outcome.TranscriptSource)
		fmt.Fprintf(out, "Summary: %s\n", outcome.SummaryPath)
		if !outcome.RemoteSynced {
			fmt.Fprintln(out, "Notion page not created; run 'vidsum reconcile' later")
		}
	default:
		fmt.Fprintf(out, "Failed %s: %s\n", outcome.VideoID, outcome.Error)
	}
	return err
}
