package main

import (
	"fmt"
	"log"
	"os"

	"github.com/suspsaude/susp-backend/cmd"
	"github.com/suspsaude/susp-backend/internal/buildinfo"
	"github.com/suspsaude/susp-backend/internal/conf"
	"github.com/suspsaude/susp-backend/internal/logging"
)

// version and buildDate are overridden at build time via ldflags.
var (
	version   = "dev"
	buildDate string
)

func main() {
	// Initialize the structured logging system before anything logs.
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	build := buildinfo.NewContext(version, buildDate)
	settings.Version = build.GetVersion()
	settings.BuildDate = build.GetBuildDate()

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
