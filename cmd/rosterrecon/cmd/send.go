package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"roster-reconciliation-service/cmd/rosterrecon/config"
	"roster-reconciliation-service/internal/fiscal"
	"roster-reconciliation-service/internal/outbound"
	"roster-reconciliation-service/internal/parsers"
	"roster-reconciliation-service/internal/reporter"
	"roster-reconciliation-service/internal/transfer"
	"roster-reconciliation-service/pkg/logger"
)

var sendCmd = &cobra.Command{
	Use:   "send <environment>",
	Short: "Build and transmit the submission feed for the current period",
	Long: `send runs the outbound pipeline for the current reporting period:
filter the children-in-care extract to the period, reduce to one care
episode per child, expand every name variant, and write the reference
spreadsheet plus the fixed-width submission file.`,
	Args:    environmentArg,
	PreRunE: validateConfigFile,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline("send", args[0], runSend)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

func runSend(env *config.Environment, period fiscal.Period, log logger.Logger) error {
	logger.RunBanner(log, "send", period.Label())

	careParser := parsers.NewCareParser(log)
	records, _, err := careParser.ParseFile(env.Data.CareFile)
	if err != nil {
		return err
	}

	feed := outbound.NewFeed(period, log)
	out, err := feed.Build(records)
	if err != nil {
		return err
	}

	rep, err := reporter.NewReporter(env.Data.OutputDir, period, log)
	if err != nil {
		return err
	}

	referencePath, err := rep.WriteSpreadsheet(out.Reference)
	if err != nil {
		return err
	}

	submissionPath := filepath.Join(env.Data.OutputDir,
		fmt.Sprintf("Children_in_care_%s.txt", period.Label()))
	lines, err := reporter.WriteSubmissionFile(submissionPath, out.Submission, log)
	if err != nil {
		return err
	}
	log.WithFields(logger.Fields{
		"reference":  referencePath,
		"submission": submissionPath,
		"lines":      lines,
	}).Info("Outbound files written")

	fmt.Fprintf(os.Stdout, "Submission for %s: %d lines\n", period.Label(), lines)

	// Upload failure leaves the files local; the run still counts.
	uploaded := true
	if env.SFTP.Enabled {
		if err := uploadSubmission(env, submissionPath, log); err != nil {
			uploaded = false
			log.WithError(err).Warn("Submission upload failed; file remains local")
			notifyFailure(env, "send upload", err)
		}
	}

	if env.Mail.Enabled && uploaded {
		locations := []string{referencePath, submissionPath}
		if err := newMailer(env).NotifySuccess("send", env.Name, period.Label(), locations); err != nil {
			log.WithError(err).Warn("Success notification could not be sent")
		}
	}

	archive := transfer.NewArchive(env.Archive.Outbound, log)
	for _, f := range []string{referencePath, submissionPath} {
		if _, err := archive.Store(f, period.Label()); err != nil {
			log.WithError(err).Warnf("Could not archive %s", f)
		}
	}

	return nil
}

func uploadSubmission(env *config.Environment, path string, log logger.Logger) error {
	client, err := transfer.Dial(sftpConfig(env), log)
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = client.Upload(path)
	return err
}
