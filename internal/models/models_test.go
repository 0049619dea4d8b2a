package models

import (
	"testing"
	"time"
)

func TestStatusPriority(t *testing.T) {
	tests := []struct {
		status   StatusCode
		priority int
	}{
		{StatusLocated, 1},
		{StatusActive, 2},
		{StatusCleared, 3},
		{StatusCancelled, 4},
		{StatusCode("XORD"), 9},
	}

	for _, tt := range tests {
		if got := tt.status.Priority(); got != tt.priority {
			t.Errorf("Priority(%s) = %d, want %d", tt.status, got, tt.priority)
		}
	}
}

func TestStatusRecoded(t *testing.T) {
	tests := []struct {
		status StatusCode
		want   string
	}{
		{StatusLocated, "1LOC"},
		{StatusActive, "2ACTV"},
		{StatusCleared, "3CLRD"},
		{StatusCancelled, "4CANC"},
		{StatusCode("XORD"), "XORD"}, // unknown codes pass through
	}

	for _, tt := range tests {
		if got := tt.status.Recoded(); got != tt.want {
			t.Errorf("Recoded(%s) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if got := ParseStatus("  loc "); got != StatusLocated {
		t.Errorf("ParseStatus trimmed/uppercased = %s, want LOC", got)
	}
	if got := ParseStatus("weird"); got.Known() {
		t.Errorf("ParseStatus(weird) should not be a known code")
	}
}

func TestPersonExitBound(t *testing.T) {
	open := &PersonRecord{PersonID: "1", EnteredCare: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if !open.Open() {
		t.Error("episode with zero exit should be open")
	}
	if got := open.ExitBound(); !got.Equal(OpenEpisodeSentinel()) {
		t.Errorf("open episode bound = %s, want sentinel", got)
	}

	exited := &PersonRecord{PersonID: "2", ExitedCare: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)}
	if exited.Open() {
		t.Error("episode with exit date should not be open")
	}
	if got := exited.ExitBound(); !got.Equal(exited.ExitedCare) {
		t.Errorf("closed episode bound = %s, want exit date", got)
	}
}

func TestLinkedRecordMatched(t *testing.T) {
	lr := &LinkedRecord{Event: &EventRecord{MatchName: "DOE JOHN"}}
	if lr.Matched() {
		t.Error("record without a person should not be matched")
	}
	lr.Person = &PersonRecord{PersonID: "42"}
	if !lr.Matched() {
		t.Error("record with a person should be matched")
	}
}

func TestCombinedDate(t *testing.T) {
	located := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	cleared := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)

	c := &CanonicalCase{Located: located, Cleared: cleared}
	if got := c.CombinedDate(); !got.Equal(located) {
		t.Errorf("CombinedDate should prefer locate date, got %s", got)
	}

	c = &CanonicalCase{Cleared: cleared}
	if got := c.CombinedDate(); !got.Equal(cleared) {
		t.Errorf("CombinedDate should fall back to clear date, got %s", got)
	}

	c = &CanonicalCase{}
	if !c.CombinedDate().IsZero() {
		t.Error("CombinedDate with neither date should be zero")
	}
}

func TestInConservatorship(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"TMC", true},
		{"PMC/ Rts Not Term", true},
		{"PMC/ Rts Term (All)", true},
		{"PMC/ Rts Term (Mother)", true},
		{"PMC/Rts Term (Father)", true},
		{"", true},
		{"   ", true},
		{"Adoption Consummated", false},
		{"FPS", false},
	}

	for _, tt := range tests {
		if got := InConservatorship(tt.status); got != tt.want {
			t.Errorf("InConservatorship(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestRosterActivelyMissing(t *testing.T) {
	missing := &RosterEntry{ChildID: "100", LegalStatus: "TMC"}
	if !missing.ActivelyMissing() {
		t.Error("unrecovered TMC entry should be actively missing")
	}

	recovered := &RosterEntry{ChildID: "101", LegalStatus: "TMC",
		Recovered: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)}
	if recovered.ActivelyMissing() {
		t.Error("recovered entry should not be actively missing")
	}

	outOfCare := &RosterEntry{ChildID: "102", LegalStatus: "Adoption Consummated"}
	if outOfCare.ActivelyMissing() {
		t.Error("non-conservatorship entry should not be actively missing")
	}
}

func TestParseSex(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Male", "M"},
		{"FEMALE", "F"},
		{" male ", "M"},
		{"Unknown", "U"},
		{"", "U"},
	}

	for _, tt := range tests {
		if got := ParseSex(tt.in); got != tt.want {
			t.Errorf("ParseSex(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2025-03-15", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"03/15/2025", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"2025-03-15 10:30:00", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"", time.Time{}, false},
		{"   ", time.Time{}, false},
		{"not-a-date", time.Time{}, true},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestEventValidate(t *testing.T) {
	blank := &EventRecord{}
	if err := blank.Validate(); err == nil {
		t.Error("blank event should fail validation")
	}

	named := &EventRecord{MatchName: "DOE JANE"}
	if err := named.Validate(); err != nil {
		t.Errorf("named event should validate: %v", err)
	}
}

func TestTableColumnIndex(t *testing.T) {
	tbl := &Table{Headers: []string{"A", "B", "C"}}
	if got := tbl.ColumnIndex("B"); got != 1 {
		t.Errorf("ColumnIndex(B) = %d, want 1", got)
	}
	if got := tbl.ColumnIndex("Z"); got != -1 {
		t.Errorf("ColumnIndex(Z) = %d, want -1", got)
	}
}
