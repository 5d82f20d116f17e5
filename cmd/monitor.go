package cmd

import (
	"context"
	"time"

	"github.com/killallgit/vidsum/internal/services/workers"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// monitorCmd polls the configured channels for new videos
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Process new videos from the configured channels",
	Long: `Scan the configured Bilibili users and YouTube channels and process
every video published within the last day that is not recorded yet.

Without --interval the scan runs once. With --interval the scan runs
immediately and then on every tick until interrupted; stale audio leftovers
are swept before each scan.

Example:
  vidsum monitor
  vidsum monitor --interval 1h`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().Duration("interval", 0, "repeat the scan at this interval (overrides config)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	app, err := openApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	interval := app.cfg.Monitor.Interval
	if cmd.Flags().Changed("interval") {
		interval, _ = cmd.Flags().GetDuration("interval")
	}

	worker := workers.NewWorker("monitor", interval, func(ctx context.Context) error {
		summary, err := app.scheduler.Run(ctx)
		if err != nil {
			return err
		}
		total := summary.Total()
		zerolog.Ctx(ctx).Info().
			Int("processed", total.Processed).
			Int("skipped", total.Skipped).
			Int("failed", total.Failed).
			Dur("elapsed", summary.Duration.Round(time.Second)).
			Msg("monitor run complete")
		return nil
	})
	worker.Before(func(ctx context.Context) error {
		_, err := app.cleanup.Sweep(ctx)
		return err
	})

	return worker.Run(ctx)
}
