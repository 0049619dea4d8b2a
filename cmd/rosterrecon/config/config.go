// Package config loads the run configuration: one YAML file with shared
// settings plus a section per environment (dev, prod, qawh), selected by the
// environment argument at the command line.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"roster-reconciliation-service/pkg/errors"
)

// KnownEnvironments are the accepted environment names.
var KnownEnvironments = []string{"dev", "prod", "qawh"}

// DataConfig names the local data locations of one environment.
type DataConfig struct {
	InboundDir       string `mapstructure:"inbound_dir"`
	OutputDir        string `mapstructure:"output_dir"`
	ReferenceFile    string `mapstructure:"reference_file"`
	CareFile         string `mapstructure:"care_file"`
	RosterFile       string `mapstructure:"roster_file"`
	PersonCountyFile string `mapstructure:"person_county_file"`
	CountyRegionFile string `mapstructure:"county_region_file"`
}

// ArchiveConfig names the per-direction archive directories.
type ArchiveConfig struct {
	Inbound  string `mapstructure:"inbound"`
	Outbound string `mapstructure:"outbound"`
}

// SFTPConfig holds the exchange server settings.
type SFTPConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	InboxDir  string `mapstructure:"inbox_dir"`
	OutboxDir string `mapstructure:"outbox_dir"`
}

// MailConfig holds the notification settings.
type MailConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Host       string   `mapstructure:"host"`
	Port       int      `mapstructure:"port"`
	From       string   `mapstructure:"from"`
	Recipients []string `mapstructure:"recipients"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
}

// Environment is one environment's full configuration.
type Environment struct {
	Name    string
	Data    DataConfig    `mapstructure:"data"`
	Archive ArchiveConfig `mapstructure:"archive"`
	LogDir  string        `mapstructure:"log_dir"`
	SFTP    SFTPConfig    `mapstructure:"sftp"`
	Mail    MailConfig    `mapstructure:"mail"`
}

// IsKnownEnvironment checks an environment name against the accepted set.
func IsKnownEnvironment(name string) bool {
	for _, env := range KnownEnvironments {
		if name == env {
			return true
		}
	}
	return false
}

// Load reads the config file and extracts one environment's section.
func Load(path, envName string) (*Environment, error) {
	if !IsKnownEnvironment(envName) {
		return nil, errors.ConfigurationError(errors.CodeUnknownEnvironment, "environment", envName, nil).
			WithSuggestion(fmt.Sprintf("use one of: %s", strings.Join(KnownEnvironments, ", ")))
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "config_file", path, err)
	}

	key := "env." + envName
	if !v.IsSet(key) {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, key, path, nil).
			WithSuggestion(fmt.Sprintf("add an env.%s section to %s", envName, path))
	}

	env := &Environment{Name: envName}
	if err := v.UnmarshalKey(key, env); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, key, path, err)
	}

	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}

// Validate checks the settings every pipeline needs. Transfer and mail
// settings are only required when their features are enabled.
func (e *Environment) Validate() error {
	if e.Data.InboundDir == "" {
		return missing("data.inbound_dir")
	}
	if e.Data.OutputDir == "" {
		return missing("data.output_dir")
	}
	if e.LogDir == "" {
		return missing("log_dir")
	}

	if e.SFTP.Enabled {
		if e.SFTP.Host == "" {
			return missing("sftp.host")
		}
		if e.SFTP.Username == "" {
			return missing("sftp.username")
		}
	}

	if e.Mail.Enabled {
		if e.Mail.Host == "" {
			return missing("mail.host")
		}
		if e.Mail.From == "" {
			return missing("mail.from")
		}
		if len(e.Mail.Recipients) == 0 {
			return missing("mail.recipients")
		}
	}

	return nil
}

func missing(setting string) error {
	return errors.ConfigurationError(errors.CodeMissingConfig, setting, nil, nil)
}
