package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"roster-reconciliation-service/cmd/rosterrecon/config"
	"roster-reconciliation-service/internal/fiscal"
	"roster-reconciliation-service/internal/models"
	"roster-reconciliation-service/internal/notify"
	"roster-reconciliation-service/internal/parsers"
	"roster-reconciliation-service/internal/reconciler"
	"roster-reconciliation-service/internal/reporter"
	"roster-reconciliation-service/internal/transfer"
	"roster-reconciliation-service/pkg/errors"
	"roster-reconciliation-service/pkg/logger"
)

var receiveCmd = &cobra.Command{
	Use:   "receive <environment>",
	Short: "Ingest returned results and produce the review reports",
	Long: `receive runs the inbound pipeline for the current reporting period:
fetch the returned results file, join it to the person reference table,
resolve one case per person, compare against the statewide roster, and
write the three review reports.`,
	Args:    environmentArg,
	PreRunE: validateConfigFile,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline("receive", args[0], runReceive)
	},
}

func init() {
	rootCmd.AddCommand(receiveCmd)
}

// environmentArg validates the single required environment argument.
func environmentArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	if !config.IsKnownEnvironment(args[0]) {
		return errors.ConfigurationError(errors.CodeUnknownEnvironment, "environment", args[0], nil)
	}
	return nil
}

// validateConfigFile checks the config file exists before any work starts.
func validateConfigFile(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgFile); err != nil {
		if os.IsNotExist(err) {
			return errors.FileError(errors.CodeFileNotFound, cfgFile, err).
				WithSuggestion("pass --config with the path to the config file")
		}
		return errors.FileError(errors.CodeFilePermission, cfgFile, err)
	}
	return nil
}

// resolveRunDate returns the date the reporting period derives from.
func resolveRunDate() (time.Time, error) {
	if runDate == "" {
		return time.Now().UTC(), nil
	}
	t, err := models.ParseDate(runDate)
	if err != nil || t.IsZero() {
		return time.Time{}, errors.ConfigurationError(errors.CodeInvalidConfig, "run-date", runDate, err)
	}
	return t, nil
}

// runPipeline wraps a pipeline body with the shared run scaffolding: config
// load, file logging, banner, and failure notification.
func runPipeline(name, envName string, body func(env *config.Environment, period fiscal.Period, log logger.Logger) error) error {
	env, err := config.Load(cfgFile, envName)
	if err != nil {
		return err
	}

	date, err := resolveRunDate()
	if err != nil {
		return err
	}
	period := fiscal.PeriodFor(date)

	logCfg := logger.RunLogConfig(env.LogDir, name)
	if verbose {
		logCfg.Level = logger.DebugLevel
	}
	log, err := logger.NewLogger(logCfg)
	if err != nil {
		// Fall back to the console logger rather than refusing to run.
		log = logger.GetGlobalLogger()
		log.WithError(err).Warn("File logging unavailable; using console")
	} else {
		logger.SetGlobalLogger(log)
	}

	runErr := body(env, period, log)
	if runErr != nil {
		log.WithError(runErr).Errorf("%s pipeline failed", name)
		notifyFailure(env, name, runErr)
	}
	return runErr
}

// notifyFailure sends the failure mail when notifications are configured.
// A notification problem is logged, never surfaced.
func notifyFailure(env *config.Environment, pipeline string, runErr error) {
	if !env.Mail.Enabled {
		return
	}
	mailer := newMailer(env)
	logPath := filepath.Join(env.LogDir, pipeline+".log")
	if err := mailer.NotifyFailure(pipeline, env.Name, runErr, logPath); err != nil {
		logger.WithError(err).Warn("Failure notification could not be sent")
	}
}

func newMailer(env *config.Environment) *notify.Mailer {
	return notify.NewMailer(&notify.Config{
		Host:       env.Mail.Host,
		Port:       env.Mail.Port,
		From:       env.Mail.From,
		Recipients: env.Mail.Recipients,
		Username:   env.Mail.Username,
		Password:   env.Mail.Password,
	}, nil)
}

func runReceive(env *config.Environment, period fiscal.Period, log logger.Logger) error {
	resultsPath, countsPath, err := fetchResults(env, period, log)
	if err != nil {
		return err
	}

	eventsParser := parsers.NewEventsParser(log)
	events, _, err := eventsParser.ParseFile(resultsPath)
	if err != nil {
		return err
	}

	personsParser := parsers.NewPersonsParser(log)
	persons, _, err := personsParser.ParseFile(env.Data.ReferenceFile)
	if err != nil {
		return err
	}

	inputs := &reconciler.Inputs{Events: events, Persons: persons}

	if env.Data.RosterFile != "" {
		rosterParser := parsers.NewRosterParser(log)
		inputs.Roster, _, err = rosterParser.ParseFile(env.Data.RosterFile)
		if err != nil {
			return err
		}
	}
	if env.Data.PersonCountyFile != "" && env.Data.CountyRegionFile != "" {
		regionsParser := parsers.NewRegionsParser(log)
		inputs.Regions, err = regionsParser.ParseFiles(env.Data.PersonCountyFile, env.Data.CountyRegionFile)
		if err != nil {
			return err
		}
	}

	pipeline := reconciler.NewPipeline(period, log)
	logger.RunBanner(log, "receive", pipeline.RunID())

	result, err := pipeline.Run(context.Background(), inputs)
	if err != nil {
		return err
	}

	rep, err := reporter.NewReporter(env.Data.OutputDir, period, log)
	if err != nil {
		return err
	}

	var written []string
	for _, table := range []*models.Table{
		result.AllEvents, result.EventsNotInRoster, result.RosterNotInEvents,
	} {
		path, err := rep.WriteSpreadsheet(table)
		if err != nil {
			return err
		}
		written = append(written, path)
	}
	reporter.WriteSummary(os.Stdout, period,
		result.AllEvents, result.EventsNotInRoster, result.RosterNotInEvents)

	// The two not-in reports go back out for review. Upload problems do
	// not invalidate the run; the reports are already on disk.
	if env.SFTP.Enabled {
		uploadReports(env, written[1:], log)
	}

	if env.Mail.Enabled {
		if err := newMailer(env).NotifySuccess("receive", env.Name, period.Label(), written); err != nil {
			log.WithError(err).Warn("Success notification could not be sent")
		}
	}

	// Everything consumed and everything produced moves into the archive
	// dirs so the next run starts from a clean exchange area.
	inbound := transfer.NewArchive(env.Archive.Inbound, log)
	for _, f := range []string{resultsPath, countsPath, env.Data.ReferenceFile} {
		if f == "" {
			continue
		}
		if _, err := inbound.Store(f, period.Label()); err != nil {
			log.WithError(err).Warnf("Could not archive %s", f)
		}
	}
	outbound := transfer.NewArchive(env.Archive.Outbound, log)
	for _, f := range written {
		if _, err := outbound.Store(f, period.Label()); err != nil {
			log.WithError(err).Warnf("Could not archive %s", f)
		}
	}

	return nil
}

// fetchResults pulls the returned files from the exchange server, or locates
// them in the inbound directory when transfer is disabled. The results file
// is required; the counts file is optional.
func fetchResults(env *config.Environment, period fiscal.Period, log logger.Logger) (string, string, error) {
	if env.SFTP.Enabled {
		client, err := transfer.Dial(sftpConfig(env), log)
		if err != nil {
			return "", "", err
		}
		defer client.Close()

		fetched, err := client.FetchResults(period.Label(), env.Data.InboundDir)
		if err != nil {
			return "", "", err
		}
		if fetched.Results == "" {
			return "", "", errors.FileError(errors.CodeFileNotFound,
				"Dfps-missing-person-results_"+period.Label(), nil).
				WithSuggestion("verify the results file was posted to the exchange inbox")
		}
		return fetched.Results, fetched.Counts, nil
	}

	results, counts := "", ""
	entries, err := os.ReadDir(env.Data.InboundDir)
	if err != nil {
		return "", "", errors.FileError(errors.CodeDirectoryError, env.Data.InboundDir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.Contains(name, "Dfps-missing-person-results"):
			results = filepath.Join(env.Data.InboundDir, name)
		case strings.Contains(name, "Dfps-missing-person-counts"):
			counts = filepath.Join(env.Data.InboundDir, name)
		}
	}
	if results == "" {
		return "", "", errors.FileError(errors.CodeFileNotFound,
			filepath.Join(env.Data.InboundDir, "Dfps-missing-person-results_*"), nil)
	}
	return results, counts, nil
}

func sftpConfig(env *config.Environment) *transfer.Config {
	return &transfer.Config{
		Host:            env.SFTP.Host,
		Port:            env.SFTP.Port,
		Username:        env.SFTP.Username,
		Password:        env.SFTP.Password,
		RemoteDirInbox:  env.SFTP.InboxDir,
		RemoteDirOutbox: env.SFTP.OutboxDir,
	}
}

func uploadReports(env *config.Environment, paths []string, log logger.Logger) {
	client, err := transfer.Dial(sftpConfig(env), log)
	if err != nil {
		log.WithError(err).Warn("Report upload skipped; reports remain local")
		notifyFailure(env, "receive upload", err)
		return
	}
	defer client.Close()

	for _, p := range paths {
		if _, err := client.Upload(p); err != nil {
			log.WithError(err).Warnf("Could not upload %s", p)
			notifyFailure(env, "receive upload", err)
		}
	}
}
