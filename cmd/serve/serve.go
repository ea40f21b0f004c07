// Package serve implements the command that runs the HTTP API server.
package serve

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

	"github.com/suspsaude/susp-backend/internal/conf"
	"github.com/suspsaude/susp-backend/internal/datastore"
	"github.com/suspsaude/susp-backend/internal/httpcontroller"
	"github.com/suspsaude/susp-backend/internal/observability"
)

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 30 * time.Second

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the establishment locator API",
		Long: "Start the HTTP server exposing the establishment locator endpoints " +
			"and, when enabled, Prometheus metrics on /metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port to listen on")
	cmd.Flags().BoolVar(&settings.Metrics.Enabled, "metrics", viper.GetBool("metrics.enabled"), "Expose Prometheus metrics on /metrics")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}

// runServer opens the datastore, starts the HTTP server and blocks until a
// termination signal arrives.
func runServer(settings *conf.Settings) error {
	// Initialize database access.
	dataStore := datastore.New(settings)
	if err := dataStore.Open(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeDataStore(dataStore)

	// Initialize the Prometheus metrics manager.
	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("error initializing metrics: %w", err)
	}

	server := httpcontroller.New(settings, dataStore, metrics)
	server.Start()

	// Block until SIGINT or SIGTERM.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
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
