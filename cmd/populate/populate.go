// Package populate implements the command that loads the DATASUS datasets
// into the establishment database.
package populate

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/suspsaude/susp-backend/internal/cnes"
	"github.com/suspsaude/susp-backend/internal/conf"
	"github.com/suspsaude/susp-backend/internal/datastore"
	"github.com/suspsaude/susp-backend/internal/ingest"
)

// options holds the flag values specific to the populate command.
type options struct {
	year  int
	month int
	csv   string
	clean bool
}

// Command creates the populate command.
func Command(settings *conf.Settings) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Populate the database from the DATASUS datasets",
		Long: "Download and parse the CNES specialized-service dataset, resolve establishment " +
			"details against the open-data registry and replace the database contents. " +
			"With no flags the current elasticnes export is used; --year and --month select " +
			"a monthly archive instead, and --csv ingests a local file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPopulate(settings, opts)
		},
	}

	if err := setupFlags(cmd, settings, opts); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the populate command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings, opts *options) error {
	cmd.Flags().IntVar(&opts.year, "year", 0, "Year of the monthly dataset archive to ingest")
	cmd.Flags().IntVar(&opts.month, "month", 0, "Month of the monthly dataset archive to ingest")
	cmd.Flags().StringVar(&opts.csv, "csv", "", "Path to a local dataset CSV to ingest")
	cmd.Flags().BoolVar(&opts.clean, "clean", false, "Remove downloaded artifacts after a successful run")
	cmd.Flags().IntVar(&settings.Ingest.Workers, "workers", viper.GetInt("ingest.workers"), "Concurrent establishment detail fetches")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}

// runPopulate validates the flag combination, wires the pipeline and runs it.
func runPopulate(settings *conf.Settings, opts *options) error {
	if opts.csv != "" && (opts.year != 0 || opts.month != 0) {
		return fmt.Errorf("--csv cannot be combined with --year or --month")
	}
	if (opts.year != 0) != (opts.month != 0) {
		return fmt.Errorf("--year and --month must be provided together")
	}

	// Initialize database access.
	dataStore := datastore.New(settings)
	if err := dataStore.Open(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeDataStore(dataStore)

	client, err := cnes.NewClient(cnes.ConfigFromSettings(settings))
	if err != nil {
		return fmt.Errorf("error creating open-data client: %w", err)
	}
	defer client.Close()

	svc := ingest.NewService(dataStore, client, settings)
	defer svc.Close()

	// Cancel the run on SIGINT or SIGTERM so a partial dataset is never saved.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, canceling ingestion...", sig)
		cancel()
	}()

	var summary *ingest.RunSummary
	switch {
	case opts.csv != "":
		summary, err = svc.RunFromCSV(ctx, opts.csv)
	case opts.year != 0:
		summary, err = svc.RunFromArchive(ctx, opts.year, opts.month)
	default:
		summary, err = svc.RunFromElasticnes(ctx)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Ingestion %s complete: %d establishments, %d services, %d records (%d skipped) in %s\n",
		summary.RunID, summary.Establishments, summary.Services, summary.Records, summary.Skipped,
		summary.Duration.Round(time.Millisecond))

	if opts.clean {
		if err := svc.CleanDataDir(); err != nil {
			return fmt.Errorf("error cleaning data directory: %w", err)
		}
	}

	return nil
}

// closeDataStore attempts to close the database connection and logs the result.
func closeDataStore(store datastore.Interface) {
	if err := store.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	} else {
		log.Println("Successfully closed database")
	}
}
