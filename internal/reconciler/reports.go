package reconciler

import (
	"roster-reconciliation-service/internal/models"
	"roster-reconciliation-service/internal/parsers"
)

// Report names, used for sheet titles and file naming.
const (
	ReportAllEvents         = "total_runaway_events"
	ReportEventsNotInRoster = "not_in_roster"
	ReportRosterNotInEvents = "not_in_results"
)

// Fixed column order on the all-events report. Columns the sender adds in a
// future format revision appear after these, in arrival order.
var allEventsColumns = []string{
	"Person_ID", "Name", "CPS_DOB", "LAST_CONT", "STS",
	"LOCATE_DT", "CLR_CAN_DT", "ORI_DESC", "COUNTY_NAME", "ORI_PHONE",
	"NIC", "Entered_Care", "Exited_Care", "CombDate",
}

// rosterStripFrom and rosterStripTo delimit the internal-process column block
// removed from the roster-side report before it goes out for review.
const (
	rosterStripFrom = 17
	rosterStripTo   = 28
)

func caseRow(c *models.CanonicalCase) []string {
	return []string{
		c.PersonID,
		c.Name,
		models.FormatDate(c.DateOfBirth),
		models.FormatDate(c.LastContact),
		c.StatusLabel,
		models.FormatDate(c.Located),
		models.FormatDate(c.Cleared),
		c.Agency,
		c.County,
		c.AgencyPhone,
		c.CaseNumber,
		models.FormatDate(c.EnteredCare),
		models.FormatDate(c.ExitedCare),
		models.FormatDate(c.CombinedDate()),
	}
}

// buildAllEvents renders every canonical case with the fixed column order,
// extra columns appended.
func buildAllEvents(cases []*models.CanonicalCase) *models.Table {
	headers := append([]string(nil), allEventsColumns...)
	if len(cases) > 0 {
		for _, col := range cases[0].Extra {
			headers = append(headers, col.Name)
		}
	}

	table := &models.Table{Name: ReportAllEvents, Headers: headers}
	for _, c := range cases {
		row := caseRow(c)
		for _, col := range c.Extra {
			row = append(row, col.Value)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// buildEventsNotInRoster lists canonical cases whose person ID does not
// appear in the roster, annotated with the person's legal county and region
// for routing. Lookup misses leave the columns blank; the row stays.
func buildEventsNotInRoster(cases []*models.CanonicalCase, roster *models.RosterTable, regions *parsers.RegionLookup) *models.Table {
	inRoster := make(map[string]bool, len(roster.Entries))
	for _, entry := range roster.Entries {
		inRoster[entry.ChildID] = true
	}

	headers := append([]string(nil), allEventsColumns...)
	if len(cases) > 0 {
		for _, col := range cases[0].Extra {
			headers = append(headers, col.Name)
		}
	}
	headers = append(headers, "Legal_County", "Legal_Region", "Person_Name", "Outcome")

	table := &models.Table{Name: ReportEventsNotInRoster, Headers: headers}
	for _, c := range cases {
		if inRoster[models.TrimID(c.PersonID)] {
			continue
		}

		row := caseRow(c)
		for _, col := range c.Extra {
			row = append(row, col.Value)
		}

		county := ""
		region := ""
		name := ""
		if regions != nil {
			county = regions.County(c.PersonID)
			region = regions.Region(county)
			name = regions.PersonName(c.PersonID)
		}
		// Outcome stays blank for manual review.
		row = append(row, county, region, name, "")
		table.Rows = append(table.Rows, row)
	}
	return table
}

// buildRosterNotInEvents lists roster entries that are actively missing but
// absent from the active canonical cases. The internal-process column block
// is stripped and a blank Outcome column appended.
func buildRosterNotInEvents(cases []*models.CanonicalCase, roster *models.RosterTable) *models.Table {
	activeIDs := make(map[string]bool)
	for _, c := range cases {
		if c.Active() {
			activeIDs[models.TrimID(c.PersonID)] = true
		}
	}

	headers := stripInternalColumns(roster.Headers)
	headers = append(headers, "Outcome")

	table := &models.Table{Name: ReportRosterNotInEvents, Headers: headers}
	for _, entry := range roster.Entries {
		if !entry.ActivelyMissing() {
			continue
		}
		if activeIDs[entry.ChildID] {
			continue
		}

		row := stripInternalColumns(entry.Row)
		row = append(row, "")
		table.Rows = append(table.Rows, row)
	}
	return table
}

// stripInternalColumns removes the internal-process block from a roster row.
// Extracts narrower than the block are passed through untouched.
func stripInternalColumns(row []string) []string {
	if len(row) <= rosterStripTo {
		return append([]string(nil), row...)
	}
	out := append([]string(nil), row[:rosterStripFrom]...)
	return append(out, row[rosterStripTo:]...)
}
