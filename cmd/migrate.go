package cmd

import (
	"fmt"
	"strings"

	"github.com/killallgit/vidsum/internal/database"
	"github.com/killallgit/vidsum/internal/models"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the local record database",
	Long: `Manage the sqlite database that records processed videos.

Available subcommands:
  up      - Create or update the record table
  status  - Show the record table state`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Create or update the record table",
	RunE:  runMigrateUp,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the record table state",
	RunE:  runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)

	migrateCmd.PersistentFlags().Bool("dry-run", false, "show what would be done without making changes")
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		fmt.Fprintf(out, "Dry run: would migrate %s\n", cfg.Database.Path)
		return nil
	}

	db, err := database.Open(cfg.Database.Path, cfg.Database.Verbose)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(out, "Database %s is up to date\n", cfg.Database.Path)
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.Initialize(cfg.Database.Path, cfg.Database.Verbose)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Database Status")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "Path:         %s\n", cfg.Database.Path)

	if !db.Migrator().HasTable(&models.VideoRecord{}) {
		fmt.Fprintln(out, "Table:        missing (run 'vidsum migrate up')")
		return nil
	}

	var total, unsynced int64
	if err := db.Model(&models.VideoRecord{}).Count(&total).Error; err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	if err := db.Model(&models.VideoRecord{}).Where("remote_synced = ?", false).Count(&unsynced).Error; err != nil {
		return fmt.Errorf("failed to count unsynced records: %w", err)
	}

	fmt.Fprintln(out, "Table:        present")
	fmt.Fprintf(out, "Records:      %d\n", total)
	fmt.Fprintf(out, "Unsynced:     %d\n", unsynced)
	return nil
}
