package models

import (
	"fmt"
	"strings"
	"time"
)

// StatusCode represents the reported status of a missing-person event
type StatusCode string

const (
	// StatusLocated means the person was found
	StatusLocated StatusCode = "LOC"
	// StatusActive means the person is still missing
	StatusActive StatusCode = "ACTV"
	// StatusCleared means the report was cleared
	StatusCleared StatusCode = "CLRD"
	// StatusCancelled means the report was cancelled
	StatusCancelled StatusCode = "CANC"
)

// String returns the string representation of StatusCode
func (s StatusCode) String() string {
	return string(s)
}

// Known checks if the status code belongs to the closed vocabulary
func (s StatusCode) Known() bool {
	switch s {
	case StatusLocated, StatusActive, StatusCleared, StatusCancelled:
		return true
	default:
		return false
	}
}

// Priority returns the resolution priority of the status; lower wins.
// Located outranks active, active outranks cleared, cleared outranks
// cancelled. Unknown codes sort after every known one.
func (s StatusCode) Priority() int {
	switch s {
	case StatusLocated:
		return 1
	case StatusActive:
		return 2
	case StatusCleared:
		return 3
	case StatusCancelled:
		return 4
	default:
		return 9
	}
}

// Recoded returns the priority-prefixed presentation used in the reports
// (1LOC, 2ACTV, 3CLRD, 4CANC). Unknown codes pass through unchanged so they
// stay visible for manual review.
func (s StatusCode) Recoded() string {
	if !s.Known() {
		return string(s)
	}
	return fmt.Sprintf("%d%s", s.Priority(), string(s))
}

// ParseStatus parses a status code from a raw cell value. Unknown values are
// kept as-is rather than rejected; the resolver logs them.
func ParseStatus(s string) StatusCode {
	return StatusCode(strings.ToUpper(strings.TrimSpace(s)))
}

// openEpisodeSentinel is the concrete upper bound substituted for an open
// care episode when an interval comparison needs one.
var openEpisodeSentinel = time.Date(2200, time.January, 1, 0, 0, 0, 0, time.UTC)

// OpenEpisodeSentinel returns the far-future date standing in for "still in
// care" during interval comparisons.
func OpenEpisodeSentinel() time.Time {
	return openEpisodeSentinel
}

// Column is one named cell carried through the pipeline for columns outside
// the fixed report schema.
type Column struct {
	Name  string
	Value string
}

// Table is a fully materialized tabular result: ordered headers plus rows of
// string cells. Parsers produce them and report writers consume them.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// ColumnIndex returns the index of a header by exact name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// EventRecord is one reported contact/sighting event from the public-safety
// side. MatchName holds the name exactly as submitted for matching; it is
// normalized identically to the internal side before the join.
type EventRecord struct {
	MatchName   string
	FullName    string
	DateOfBirth time.Time
	LastContact time.Time
	Located     time.Time // zero when the person has not been located
	Cleared     time.Time // zero when the report was never cleared/cancelled
	Status      StatusCode
	Agency      string
	County      string
	AgencyPhone string
	CaseNumber  string
	Extra       []Column
}

// Validate performs basic validation on the EventRecord. An event with
// neither a name nor a date of birth can never match and is rejected at
// parse time.
func (e *EventRecord) Validate() error {
	if strings.TrimSpace(e.MatchName) == "" && e.DateOfBirth.IsZero() {
		return fmt.Errorf("event record has neither a match name nor a date of birth")
	}
	return nil
}

// String returns a string representation of the EventRecord
func (e *EventRecord) String() string {
	return fmt.Sprintf("EventRecord{Name: %s, DOB: %s, LastContact: %s, Status: %s}",
		e.MatchName, FormatDate(e.DateOfBirth), FormatDate(e.LastContact), e.Status)
}

// PersonRecord is one care episode for one person on the child-welfare side.
// A person with several episodes appears once per episode; the episode decides
// whether an event happened while the person was in care.
type PersonRecord struct {
	Name        string
	DateOfBirth time.Time
	PersonID    string
	EnteredCare time.Time
	ExitedCare  time.Time // zero when the episode is still open
}

// Open reports whether the care episode has no exit date.
func (p *PersonRecord) Open() bool {
	return p.ExitedCare.IsZero()
}

// ExitBound returns the episode's upper bound for interval comparisons,
// substituting the far-future sentinel for open episodes.
func (p *PersonRecord) ExitBound() time.Time {
	if p.Open() {
		return openEpisodeSentinel
	}
	return p.ExitedCare
}

// Validate performs basic validation on the PersonRecord
func (p *PersonRecord) Validate() error {
	if strings.TrimSpace(p.PersonID) == "" {
		return fmt.Errorf("person record is missing a person ID")
	}
	if strings.TrimSpace(p.Name) == "" && p.DateOfBirth.IsZero() {
		return fmt.Errorf("person record has neither a name nor a date of birth")
	}
	return nil
}

// String returns a string representation of the PersonRecord
func (p *PersonRecord) String() string {
	exit := "open"
	if !p.Open() {
		exit = FormatDate(p.ExitedCare)
	}
	return fmt.Sprintf("PersonRecord{ID: %s, Name: %s, DOB: %s, Episode: %s..%s}",
		p.PersonID, p.Name, FormatDate(p.DateOfBirth), FormatDate(p.EnteredCare), exit)
}

// LinkedRecord is one (event, person-episode) pair produced by the identity
// join. Person is nil for events with no match; the absence is an explicit,
// checkable state rather than dropped data.
type LinkedRecord struct {
	Event  *EventRecord
	Person *PersonRecord
}

// Matched reports whether the event linked to an internal person episode.
func (lr *LinkedRecord) Matched() bool {
	return lr.Person != nil
}

// CanonicalCase is the resolved record representing one person's single most
// relevant contact event within the reporting window.
type CanonicalCase struct {
	PersonID    string
	Status      StatusCode
	StatusLabel string // recoded presentation, e.g. "2ACTV"
	Name        string
	DateOfBirth time.Time
	LastContact time.Time
	Located     time.Time
	Cleared     time.Time
	Agency      string
	County      string
	AgencyPhone string
	CaseNumber  string
	EnteredCare time.Time
	ExitedCare  time.Time
	Extra       []Column
}

// CombinedDate returns the locate date if present, otherwise the clear date.
// Used as the final tie-breaker during status resolution.
func (c *CanonicalCase) CombinedDate() time.Time {
	if !c.Located.IsZero() {
		return c.Located
	}
	return c.Cleared
}

// Active reports whether the case is still actively missing.
func (c *CanonicalCase) Active() bool {
	return c.Status == StatusActive
}

// String returns a string representation of the CanonicalCase
func (c *CanonicalCase) String() string {
	return fmt.Sprintf("CanonicalCase{ID: %s, Status: %s, LastContact: %s}",
		c.PersonID, c.StatusLabel, FormatDate(c.LastContact))
}

// LegalStatuses that count as "in conservatorship" for the roster-side
// comparison. A blank status also qualifies.
var ConservatorshipStatuses = []string{
	"TMC",
	"PMC/ Rts Not Term",
	"PMC/ Rts Term (All)",
	"PMC/ Rts Term (Mother)",
	"PMC/Rts Term (Father)",
}

// InConservatorship checks a roster legal-custody status against the fixed
// vocabulary. Blank statuses qualify.
func InConservatorship(legalStatus string) bool {
	trimmed := strings.TrimSpace(legalStatus)
	if trimmed == "" {
		return true
	}
	for _, s := range ConservatorshipStatuses {
		if trimmed == s {
			return true
		}
	}
	return false
}

// RosterEntry is one row from the statewide case-index extract used for the
// not-in comparisons. Row preserves the full original cells in header order
// so reports can project columns without re-reading the file.
type RosterEntry struct {
	ChildID     string
	Name        string
	Recovered   time.Time // zero when the child has not been recovered
	LegalStatus string
	Row         []string
}

// ActivelyMissing reports whether the roster entry represents a child who is
// still missing while in conservatorship (or with a blank custody status).
func (r *RosterEntry) ActivelyMissing() bool {
	return r.Recovered.IsZero() && InConservatorship(r.LegalStatus)
}

// RosterTable pairs roster entries with the extract's header row.
type RosterTable struct {
	Headers []string
	Entries []*RosterEntry
}

// SubmissionRow is one line of the fixed-width outbound submission file.
type SubmissionRow struct {
	Name        string
	DateOfBirth time.Time
	Sex         string
}

// ParseSex maps a gender description to the single-character submission code.
// Anything outside Male/Female maps to U.
func ParseSex(gender string) string {
	switch strings.ToUpper(strings.TrimSpace(gender)) {
	case "MALE", "M":
		return "M"
	case "FEMALE", "F":
		return "F"
	default:
		return "U"
	}
}

// Utility functions for date handling

// dateFormats are the layouts accepted for date cells across the inbound and
// reference extracts.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/06",
	"2-Jan-06",
	"02-Jan-2006",
}

// ParseDate attempts to parse a date cell using the accepted layouts. An
// empty cell yields the zero time with no error; an unparseable cell yields
// the zero time and an error so callers can choose coerce-or-fail semantics.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	var lastErr error
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return DateOnly(t), nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// DateOnly truncates a timestamp to midnight UTC so date comparisons are not
// perturbed by time-of-day or zone components.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a date as ISO YYYY-MM-DD, or blank for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// TrimID coerces a person identifier to its canonical string form for set
// membership tests. Skipping this on either side is a documented source of
// false mismatches.
func TrimID(id string) string {
	return strings.TrimSpace(id)
}
