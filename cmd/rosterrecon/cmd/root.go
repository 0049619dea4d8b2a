// Package cmd implements the rosterrecon command line: the inbound receive
// pipeline and the outbound send pipeline, each run against one configured
// environment.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"roster-reconciliation-service/pkg/logger"
)

var (
	// Version information, set at build time.
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string
	runDate   string
)

var rootCmd = &cobra.Command{
	Use:   "rosterrecon",
	Short: "Missing-youth roster reconciliation pipelines",
	Long: `rosterrecon runs the quarterly missing-youth reconciliation:

  send     build and transmit the submission feed for the current period
  receive  ingest the returned results and produce the review reports

Both pipelines take a single environment argument (dev, prod, or qawh)
selecting a section of the config file.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml",
		"config file with per-environment sections")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format (text or json)")
	rootCmd.PersistentFlags().StringVar(&runDate, "run-date", "",
		"override the run date (YYYY-MM-DD) used to derive the reporting period")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"rosterrecon %s (commit %s, built %s)\n", Version, GitCommit, BuildDate))
}

// initLogging configures the process-wide logger from the global flags.
// Pipelines switch to a file-backed logger once the environment is known.
func initLogging() {
	cfg := logger.DefaultConfig()
	if verbose {
		cfg.Level = logger.DebugLevel
	}
	if logFormat == "json" {
		cfg.Format = logger.JSONFormat
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		os.Exit(1)
	}
	logger.SetGlobalLogger(log)
}
