package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// reconcileCmd creates Notion pages for records whose page creation failed
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Create missing Notion pages for locally recorded videos",
	Long: `Find local records whose Notion page could not be created, check Notion
by URL, and create the page from the stored summary file when it is still
missing.`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	app, err := openApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	summary, err := app.reconciler.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Checked %d, created %d, repaired %d, already present %d, failed %d\n",
		summary.Checked, summary.Created, summary.Repaired, summary.AlreadyPresent, summary.Failed)
	return nil
}
