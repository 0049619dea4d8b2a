package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"roster-reconciliation-service/cmd/rosterrecon/config"
	"roster-reconciliation-service/internal/fiscal"
	"roster-reconciliation-service/pkg/logger"
)

const testResultsFile = `CPS NAME        : CPS DOB    : LAST CONT  : STS
SMITHJOHN       : 2012-04-02 : 2025-04-10 : ACTV:
`

func createReceiveEnv(t *testing.T) *config.Environment {
	t.Helper()
	root := t.TempDir()

	env := &config.Environment{
		Name: "dev",
		Data: config.DataConfig{
			InboundDir:    filepath.Join(root, "inbound"),
			OutputDir:     filepath.Join(root, "output"),
			ReferenceFile: filepath.Join(root, "inbound", "reference.xlsx"),
		},
		Archive: config.ArchiveConfig{
			Inbound:  filepath.Join(root, "archive", "inbound"),
			Outbound: filepath.Join(root, "archive", "outbound"),
		},
		LogDir: root,
	}
	if err := os.MkdirAll(env.Data.InboundDir, 0o755); err != nil {
		t.Fatal(err)
	}

	results := filepath.Join(env.Data.InboundDir, "Dfps-missing-person-results_FY2025_Q3.txt")
	if err := os.WriteFile(results, []byte(testResultsFile), 0o644); err != nil {
		t.Fatal(err)
	}
	counts := filepath.Join(env.Data.InboundDir, "Dfps-missing-person-counts_FY2025_Q3.txt")
	if err := os.WriteFile(counts, []byte("1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"Person_ID", "Name", "Date_of_Birth", "Entered_Care", "Exited_Care"},
		{"1000001", "SMITH,JOHN", "2012-04-02", "2024-06-01", ""},
	}
	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", ref, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(env.Data.ReferenceFile); err != nil {
		t.Fatal(err)
	}

	return env
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunReceiveArchivesInputsAndReports(t *testing.T) {
	env := createReceiveEnv(t)
	period := fiscal.PeriodFor(time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC))

	if err := runReceive(env, period, logger.GetGlobalLogger()); err != nil {
		t.Fatalf("runReceive failed: %v", err)
	}

	inbound := listDir(t, env.Archive.Inbound)
	if len(inbound) != 3 {
		t.Fatalf("inbound archive holds %v, want results, counts, and reference", inbound)
	}
	for _, want := range []string{"results", "counts", "reference"} {
		found := false
		for _, name := range inbound {
			if strings.Contains(name, want) {
				found = true
			}
		}
		if !found {
			t.Errorf("inbound archive %v is missing the %s file", inbound, want)
		}
	}

	outbound := listDir(t, env.Archive.Outbound)
	if len(outbound) != 3 {
		t.Fatalf("outbound archive holds %v, want the three reports", outbound)
	}

	// The reports were moved, not copied.
	if leftovers := listDir(t, env.Data.OutputDir); len(leftovers) != 0 {
		t.Errorf("output dir should be empty after archiving, found %v", leftovers)
	}
}
