// evidencesync synchronizes a local evidence collection with NocoDB
// and imports parliament data from abgeordnetenwatch.de.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okfde/evidencesync/internal/config"
	"github.com/okfde/evidencesync/internal/db"
	"github.com/okfde/evidencesync/internal/logging"
	"github.com/okfde/evidencesync/internal/models"
	"github.com/okfde/evidencesync/internal/tasks"
)

var version = "dev"

type app struct {
	cfg      *config.Config
	database *db.DB
	repo     *db.Repository
	runner   *tasks.Runner
}

func (a *app) init(cfgFile string, permissive bool) error {
	// A missing .env file is fine; environment variables win anyway.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if permissive {
		cfg.Permissive = true
	}
	a.cfg = cfg

	logging.Init(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	a.database = database
	a.repo = db.NewRepository(database.DB)
	a.runner = tasks.NewRunner(a.repo, cfg)
	return nil
}

func (a *app) close() {
	if a.repo != nil {
		_ = a.repo.Close()
	}
	if a.database != nil {
		_ = a.database.Close()
	}
}

// printRun reports the finished run on stdout, including the per-model
// change statistics.
func printRun(run *models.ImportExportRun) {
	encoded, err := json.MarshalIndent(run.Changes, "", "  ")
	if err != nil {
		encoded = []byte("{}")
	}
	fmt.Printf("Run %d (%s %s -> %s) finished.\n", run.ID, run.Operation, run.Source, run.Target)
	fmt.Println(string(encoded))
}

func main() {
	a := &app{}
	var cfgFile string
	var permissive bool

	rootCmd := &cobra.Command{
		Use:     "evidencesync",
		Short:   "Synchronize the local evidence collection with its remote systems",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cfgFile, permissive)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&permissive, "permissive", false,
		"Downgrade recoverable import errors to logged skips")

	var full bool
	importNocoDBCmd := &cobra.Command{
		Use:   "import-nocodb",
		Short: "Import the remote NocoDB tables into the local database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := a.runner.ImportNocoDB(cmd.Context(), full)
			if err != nil {
				return err
			}
			printRun(run)
			return nil
		},
	}
	importNocoDBCmd.Flags().BoolVar(&full, "full", false,
		"Also import the role table instead of expecting roles to exist locally")

	exportNocoDBCmd := &cobra.Command{
		Use:   "export-nocodb",
		Short: "Push locally created and modified records to NocoDB",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := a.runner.ExportNocoDB(cmd.Context())
			if err != nil {
				return err
			}
			printRun(run)
			return nil
		},
	}

	var onlySetup bool
	importAwCmd := &cobra.Command{
		Use:   "import-aw",
		Short: "Import parliaments, politicians and their affiliations from abgeordnetenwatch.de",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := a.runner.ImportAbgeordnetenwatch(cmd.Context(), onlySetup)
			if err != nil {
				return err
			}
			printRun(run)
			return nil
		},
	}
	importAwCmd.Flags().BoolVar(&onlySetup, "only-setup", false,
		"Only import parliaments, elections and legislative periods")

	var limit int
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent import and export runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := a.repo.ListRuns(limit)
			if err != nil {
				return err
			}
			for _, run := range runs {
				status := "failed"
				if run.Success {
					status = "ok"
				}
				finished := "-"
				if s := models.TimeString(run.FinishedAt); s != nil {
					finished = *s
				} else {
					status = "running"
				}
				fmt.Printf("%d\t%s\t%s -> %s\t%s\t%s\t%s\t%s\n",
					run.ID, run.Operation, run.Source, run.Target,
					run.StartedAt.UTC().Format(time.RFC3339), finished, status, run.Notes)
			}
			return nil
		},
	}
	runsCmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	rootCmd.AddCommand(importNocoDBCmd, exportNocoDBCmd, importAwCmd, runsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
