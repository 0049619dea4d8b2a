// Package notify sends operator email at the end of a run: a short success
// note with output locations, or a failure report with the error detail and
// a pointer to the run log.
package notify

import (
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"roster-reconciliation-service/pkg/errors"
	"roster-reconciliation-service/pkg/logger"
)

// Config holds the mail settings for a run.
type Config struct {
	Host       string
	Port       int
	From       string
	Recipients []string
	// Unauthenticated relay when empty.
	Username string
	Password string
}

// Mailer sends run notifications.
type Mailer struct {
	config *Config
	logger logger.Logger
}

// NewMailer creates a Mailer.
func NewMailer(config *Config, log logger.Logger) *Mailer {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Mailer{config: config, logger: log.WithComponent("notify")}
}

// NotifySuccess reports a completed run and where its outputs are.
func (m *Mailer) NotifySuccess(pipeline, env, queryPeriod string, locations []string) error {
	subject := fmt.Sprintf("[%s] %s completed for %s", env, pipeline, queryPeriod)

	var body strings.Builder
	fmt.Fprintf(&body, "%s completed for %s.\n\nOutputs:\n", pipeline, queryPeriod)
	for _, loc := range locations {
		fmt.Fprintf(&body, "  %s\n", loc)
	}

	return m.send(subject, body.String())
}

// NotifyFailure reports a failed run with the categorized error detail and
// the log file to look at.
func (m *Mailer) NotifyFailure(pipeline, env string, runErr error, logPath string) error {
	subject := fmt.Sprintf("[%s] %s FAILED", env, pipeline)

	var body strings.Builder
	fmt.Fprintf(&body, "%s failed.\n\n", pipeline)

	if re, ok := errors.AsRunError(runErr); ok {
		body.WriteString(re.FormatWithStack())
	} else if runErr != nil {
		fmt.Fprintf(&body, "error: %v\n", runErr)
	}

	if logPath != "" {
		fmt.Fprintf(&body, "\nRun log: %s\n", logPath)
	}

	return m.send(subject, body.String())
}

func (m *Mailer) send(subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.config.From); err != nil {
		return errors.TransferError(errors.CodeNotifyFailed, m.config.Host, err)
	}
	if err := msg.To(m.config.Recipients...); err != nil {
		return errors.TransferError(errors.CodeNotifyFailed, m.config.Host, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{mail.WithPort(m.config.Port)}
	if m.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.config.Username),
			mail.WithPassword(m.config.Password))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(m.config.Host, opts...)
	if err != nil {
		return errors.TransferError(errors.CodeNotifyFailed, m.config.Host, err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return errors.TransferError(errors.CodeNotifyFailed, m.config.Host, err)
	}

	m.logger.WithFields(logger.Fields{
		"subject":    subject,
		"recipients": len(m.config.Recipients),
	}).Info("Notification sent")

	return nil
}
