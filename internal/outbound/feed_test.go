package outbound

import (
	"testing"
	"time"

	"roster-reconciliation-service/internal/fiscal"
	"roster-reconciliation-service/internal/parsers"
	"roster-reconciliation-service/pkg/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FY2025 Q3.
func testPeriod() fiscal.Period {
	return fiscal.PeriodFor(date(2025, time.June, 16))
}

func createTestCareRecord(id, first, last string) *parsers.CareRecord {
	return &parsers.CareRecord{
		PersonID:    id,
		FirstName:   first,
		LastName:    last,
		DateOfBirth: date(2012, time.June, 1),
		EnteredCare: date(2023, time.January, 1),
		Gender:      "Female",
		FiscalYear:  2025,
		Quarter:     3,
	}
}

func TestFeedPeriodFilter(t *testing.T) {
	feed := NewFeed(testPeriod(), nil)

	otherQuarter := createTestCareRecord("2", "MARIA", "PENA")
	otherQuarter.Quarter = 1
	otherYear := createTestCareRecord("3", "JANE", "DOE")
	otherYear.FiscalYear = 2024

	out, err := feed.Build([]*parsers.CareRecord{
		createTestCareRecord("1", "JOHN", "SMITH"),
		otherQuarter,
		otherYear,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, row := range out.Reference.Rows {
		if row[0] != "1" {
			t.Errorf("row for person %s should have been filtered out", row[0])
		}
	}
}

func TestFeedFullYearIgnoresQuarter(t *testing.T) {
	// September 20 run: full FY2025.
	feed := NewFeed(fiscal.PeriodFor(date(2025, time.September, 20)), nil)

	q1 := createTestCareRecord("1", "JOHN", "SMITH")
	q1.Quarter = 1
	q3 := createTestCareRecord("2", "MARIA", "PENA")
	q3.Quarter = 3

	out, err := feed.Build([]*parsers.CareRecord{q1, q3})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ids := make(map[string]bool)
	for _, row := range out.Reference.Rows {
		ids[row[0]] = true
	}
	if !ids["1"] || !ids["2"] {
		t.Error("full-year run should keep every quarter's rows")
	}
}

func TestFeedEmptyPeriodFatal(t *testing.T) {
	feed := NewFeed(testPeriod(), nil)

	rec := createTestCareRecord("1", "JOHN", "SMITH")
	rec.FiscalYear = 2019

	_, err := feed.Build([]*parsers.CareRecord{rec})
	if err == nil {
		t.Fatal("no rows in period should be fatal")
	}
	re, ok := errors.AsRunError(err)
	if !ok || re.Code != errors.CodeEmptyDataset {
		t.Errorf("error = %v, want empty_dataset", err)
	}
}

func TestFeedEpisodePick(t *testing.T) {
	feed := NewFeed(testPeriod(), nil)

	// Same person and entry date reported with two exits; the earliest
	// exit wins, the open row loses.
	open := createTestCareRecord("1", "JOHN", "SMITH")
	closed := createTestCareRecord("1", "JOHN", "SMITH")
	closed.ExitedCare = date(2025, time.February, 1)

	out, err := feed.Build([]*parsers.CareRecord{open, closed})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(out.Reference.Rows) != 1 {
		t.Fatalf("rows = %d, want 1 (one variant, one episode)", len(out.Reference.Rows))
	}
	if got := out.Reference.Rows[0][8]; got != "2025-02-01" {
		t.Errorf("Exited_Care = %q, want 2025-02-01", got)
	}
}

func TestFeedNameExpansion(t *testing.T) {
	feed := NewFeed(testPeriod(), nil)

	rec := createTestCareRecord("1", "MARY-JANE", "SMITH-JONES")
	out, err := feed.Build([]*parsers.CareRecord{rec})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// 3 last variants x 3 first variants.
	if len(out.Reference.Rows) != 9 {
		t.Fatalf("rows = %d, want 9", len(out.Reference.Rows))
	}
	if len(out.Submission) != 9 {
		t.Fatalf("submission rows = %d, want 9", len(out.Submission))
	}

	if got := out.Reference.Rows[0][1]; got != "SMITHJONES,MARYJANE" {
		t.Errorf("first variant = %q, want SMITHJONES,MARYJANE", got)
	}
	if got := out.Submission[0].Sex; got != "F" {
		t.Errorf("sex = %q, want F", got)
	}
}

func TestFeedDropsUnusableRows(t *testing.T) {
	feed := NewFeed(testPeriod(), nil)

	noDOB := createTestCareRecord("2", "MARIA", "PENA")
	noDOB.DateOfBirth = time.Time{}
	noFirst := createTestCareRecord("3", "", "DOE")

	out, err := feed.Build([]*parsers.CareRecord{
		createTestCareRecord("1", "JOHN", "SMITH"),
		noDOB,
		noFirst,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, row := range out.Reference.Rows {
		if row[0] != "1" {
			t.Errorf("unusable row for person %s survived", row[0])
		}
	}
}
