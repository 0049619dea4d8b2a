package config

import (
	"os"
	"path/filepath"
	"testing"

	"roster-reconciliation-service/pkg/errors"
)

const sampleConfig = `
env:
  dev:
    log_dir: /var/log/rosterrecon
    data:
      inbound_dir: /data/inbound
      output_dir: /data/output
      reference_file: /data/outbound/reference.xlsx
      care_file: /data/outbound/care.xlsx
      roster_file: /data/inbound/roster.xlsx
    archive:
      inbound: /data/archive/inbound
      outbound: /data/archive/outbound
    sftp:
      enabled: true
      host: exchange.example
      username: svc-roster
      password: secret
      inbox_dir: /from_agency
      outbox_dir: /to_agency
    mail:
      enabled: true
      host: relay.example
      port: 25
      from: pipeline@agency.example
      recipients:
        - ops@agency.example
  prod:
    log_dir: /var/log/rosterrecon
    data:
      inbound_dir: /prod/inbound
      output_dir: /prod/output
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	env, err := Load(path, "dev")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if env.Name != "dev" {
		t.Errorf("Name = %q, want dev", env.Name)
	}
	if env.Data.InboundDir != "/data/inbound" {
		t.Errorf("InboundDir = %q", env.Data.InboundDir)
	}
	if !env.SFTP.Enabled || env.SFTP.Host != "exchange.example" {
		t.Errorf("SFTP = %+v", env.SFTP)
	}
	if len(env.Mail.Recipients) != 1 {
		t.Errorf("Recipients = %v", env.Mail.Recipients)
	}
}

func TestLoadDisabledFeaturesNeedNoSettings(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	// prod has no sftp or mail sections; both default to disabled.
	env, err := Load(path, "prod")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if env.SFTP.Enabled || env.Mail.Enabled {
		t.Error("absent sections should leave features disabled")
	}
}

func TestLoadUnknownEnvironment(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	_, err := Load(path, "staging")
	if err == nil {
		t.Fatal("unknown environment should be rejected")
	}
	re, ok := errors.AsRunError(err)
	if !ok || re.Code != errors.CodeUnknownEnvironment {
		t.Errorf("error = %v, want unknown_environment", err)
	}
}

func TestLoadMissingSection(t *testing.T) {
	path := writeConfig(t, "env:\n  dev:\n    log_dir: /tmp\n")

	_, err := Load(path, "qawh")
	if err == nil {
		t.Fatal("environment without a section should be rejected")
	}
}

func TestValidateEnabledFeatureNeedsSettings(t *testing.T) {
	env := &Environment{
		Name:   "dev",
		LogDir: "/tmp",
		Data:   DataConfig{InboundDir: "/in", OutputDir: "/out"},
		SFTP:   SFTPConfig{Enabled: true}, // no host
	}

	if err := env.Validate(); err == nil {
		t.Fatal("enabled transfer without a host should fail validation")
	}
}

func TestIsKnownEnvironment(t *testing.T) {
	for _, name := range []string{"dev", "prod", "qawh"} {
		if !IsKnownEnvironment(name) {
			t.Errorf("%s should be known", name)
		}
	}
	if IsKnownEnvironment("production") {
		t.Error("production is not an accepted name")
	}
}
