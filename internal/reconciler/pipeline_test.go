package reconciler

import (
	"context"
	"testing"
	"time"

	"roster-reconciliation-service/internal/fiscal"
	"roster-reconciliation-service/internal/models"
	"roster-reconciliation-service/pkg/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FY2025 Q3: Mar 1 - May 31 2025.
func testPeriod() fiscal.Period {
	return fiscal.PeriodFor(date(2025, time.June, 16))
}

func createTestEvent(name string, dob time.Time, status models.StatusCode, lastContact time.Time) *models.EventRecord {
	return &models.EventRecord{
		MatchName:   name,
		FullName:    name,
		DateOfBirth: dob,
		LastContact: lastContact,
		Status:      status,
		Agency:      "METRO PD",
		County:      "TRAVIS",
	}
}

func createTestPerson(id, name string, dob time.Time) *models.PersonRecord {
	return &models.PersonRecord{
		PersonID:    id,
		Name:        name,
		DateOfBirth: dob,
		EnteredCare: date(2020, time.January, 1),
	}
}

func createTestRoster(entries ...*models.RosterEntry) *models.RosterTable {
	headers := []string{"CHILD_PID", "NM_PERSON_FULL", "DT_RECOVERED", "LEGAL_STATUS"}
	for _, e := range entries {
		e.Row = []string{e.ChildID, e.Name, models.FormatDate(e.Recovered), e.LegalStatus}
	}
	return &models.RosterTable{Headers: headers, Entries: entries}
}

func TestPipelineRun(t *testing.T) {
	dob := date(2012, time.June, 1)

	inputs := &Inputs{
		Events: []*models.EventRecord{
			// Duplicate contact reported under two statuses; active wins
			// over cleared, and the person resolves to one row.
			createTestEvent("MARYJANE SMITH", dob, models.StatusCleared, date(2025, time.April, 1)),
			createTestEvent("MARYJANE SMITH", dob, models.StatusActive, date(2025, time.April, 1)),
			// Unmatched event: no person reference row.
			createTestEvent("NOBODY KNOWN", dob, models.StatusActive, date(2025, time.April, 2)),
		},
		Persons: []*models.PersonRecord{
			createTestPerson("1000001", "MARYJANESMITH", dob),
		},
		Roster: createTestRoster(
			&models.RosterEntry{ChildID: "1000001", Name: "SMITH,MARY JANE", LegalStatus: "TMC"},
			&models.RosterEntry{ChildID: "1000009", Name: "DOE,JANE", LegalStatus: "TMC"},
		),
	}

	p := NewPipeline(testPeriod(), nil)
	result, err := p.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Cases) != 1 {
		t.Fatalf("resolved %d cases, want 1", len(result.Cases))
	}
	if result.Cases[0].StatusLabel != "2ACTV" {
		t.Errorf("status = %s, want 2ACTV", result.Cases[0].StatusLabel)
	}
	if result.JoinStats.Unmatched != 1 {
		t.Errorf("unmatched = %d, want 1", result.JoinStats.Unmatched)
	}

	if len(result.AllEvents.Rows) != 1 {
		t.Errorf("all-events rows = %d, want 1", len(result.AllEvents.Rows))
	}
	// The matched case is on the roster, so nothing is missing from it.
	if len(result.EventsNotInRoster.Rows) != 0 {
		t.Errorf("not-in-roster rows = %d, want 0", len(result.EventsNotInRoster.Rows))
	}
	// Child 1000009 is actively missing on the roster with no active case.
	if len(result.RosterNotInEvents.Rows) != 1 {
		t.Fatalf("not-in-results rows = %d, want 1", len(result.RosterNotInEvents.Rows))
	}
}

func TestPipelineEmptyEventsFatal(t *testing.T) {
	p := NewPipeline(testPeriod(), nil)

	_, err := p.Run(context.Background(), &Inputs{
		Persons: []*models.PersonRecord{createTestPerson("1", "X", time.Time{})},
	})
	if err == nil {
		t.Fatal("empty events should be fatal")
	}
	re, ok := errors.AsRunError(err)
	if !ok || re.Code != errors.CodeEmptyDataset {
		t.Errorf("error = %v, want empty_dataset", err)
	}
}

func TestEventsNotInRosterReport(t *testing.T) {
	dob := date(2012, time.June, 1)

	inputs := &Inputs{
		Events: []*models.EventRecord{
			createTestEvent("OFFROSTER KID", dob, models.StatusActive, date(2025, time.April, 1)),
		},
		Persons: []*models.PersonRecord{
			createTestPerson("2000002", "OFFROSTERKID", dob),
		},
		Roster: createTestRoster(),
	}

	p := NewPipeline(testPeriod(), nil)
	result, err := p.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	tbl := result.EventsNotInRoster
	if len(tbl.Rows) != 1 {
		t.Fatalf("not-in-roster rows = %d, want 1", len(tbl.Rows))
	}

	outcomeIdx := tbl.ColumnIndex("Outcome")
	if outcomeIdx == -1 {
		t.Fatal("report missing Outcome column")
	}
	if tbl.Rows[0][outcomeIdx] != "" {
		t.Errorf("Outcome must stay blank for manual review, got %q", tbl.Rows[0][outcomeIdx])
	}
	// No lookup tables supplied; region columns stay blank but the row
	// is kept.
	regionIdx := tbl.ColumnIndex("Legal_Region")
	if tbl.Rows[0][regionIdx] != "" {
		t.Errorf("Legal_Region should be blank without a lookup, got %q", tbl.Rows[0][regionIdx])
	}
}

func TestRosterNotInEventsFiltering(t *testing.T) {
	dob := date(2012, time.June, 1)

	inputs := &Inputs{
		Events: []*models.EventRecord{
			createTestEvent("ACTIVE KID", dob, models.StatusActive, date(2025, time.April, 1)),
		},
		Persons: []*models.PersonRecord{
			createTestPerson("3000001", "ACTIVEKID", dob),
		},
		Roster: createTestRoster(
			// Active case on both sides: excluded.
			&models.RosterEntry{ChildID: "3000001", LegalStatus: "TMC"},
			// Recovered: excluded.
			&models.RosterEntry{ChildID: "3000002", LegalStatus: "TMC", Recovered: date(2025, time.March, 1)},
			// Out of conservatorship: excluded.
			&models.RosterEntry{ChildID: "3000003", LegalStatus: "Adoption Consummated"},
			// Blank legal status counts as in scope: included.
			&models.RosterEntry{ChildID: "3000004", LegalStatus: ""},
		),
	}

	p := NewPipeline(testPeriod(), nil)
	result, err := p.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	tbl := result.RosterNotInEvents
	if len(tbl.Rows) != 1 {
		t.Fatalf("not-in-results rows = %d, want 1", len(tbl.Rows))
	}
	if tbl.Rows[0][0] != "3000004" {
		t.Errorf("surviving row = %q, want 3000004", tbl.Rows[0][0])
	}
}

func TestStripInternalColumns(t *testing.T) {
	wide := make([]string, 30)
	for i := range wide {
		wide[i] = string(rune('A' + i))
	}

	stripped := stripInternalColumns(wide)
	if len(stripped) != 19 {
		t.Fatalf("stripped width = %d, want 19", len(stripped))
	}

	narrow := []string{"a", "b", "c"}
	if got := stripInternalColumns(narrow); len(got) != 3 {
		t.Errorf("narrow rows must pass through, got %d columns", len(got))
	}
}
