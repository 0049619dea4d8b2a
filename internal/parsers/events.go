package parsers

import (
	"bufio"
	"io"
	"strings"

	"roster-reconciliation-service/internal/models"
	"roster-reconciliation-service/pkg/errors"
	"roster-reconciliation-service/pkg/logger"
)

// Column names on the returned results file. Everything outside this fixed
// set rides along as extra columns.
const (
	colEventName       = "CPS NAME"
	colEventFullName   = "FULL NAME"
	colEventDOB        = "CPS DOB"
	colEventLastCont   = "LAST CONT"
	colEventStatus     = "STS"
	colEventAgency     = "ORI DESC"
	colEventCounty     = "COUNTY NAME"
	colEventPhone      = "ORI PHONE"
	colEventCaseNumber = "NIC #"
	colEventLocated    = "LOCATE DTE"
	colEventCleared    = "CLR/CAN DTE"
)

var eventTypedColumns = map[string]bool{
	colEventName: true, colEventFullName: true, colEventDOB: true,
	colEventLastCont: true, colEventStatus: true, colEventAgency: true,
	colEventCounty: true, colEventPhone: true, colEventCaseNumber: true,
	colEventLocated: true, colEventCleared: true,
}

// EventsParser reads the colon-delimited results file. The sender terminates
// every data row with a trailing colon but not the header row, so the parser
// repairs the header before splitting and drops the spurious empty column
// the trailing delimiter creates.
type EventsParser struct {
	logger logger.Logger
}

// NewEventsParser creates an EventsParser.
func NewEventsParser(log logger.Logger) *EventsParser {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &EventsParser{logger: log.WithComponent("events_parser")}
}

// ParseFile parses a results file from disk.
func (p *EventsParser) ParseFile(path string) ([]*models.EventRecord, *ParseStats, error) {
	file, err := openInput(path, p.logger)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	return p.Parse(file, path)
}

// Parse parses the results file content. The name argument only labels
// errors. An empty file or a missing required column is fatal.
func (p *EventsParser) Parse(r io.Reader, name string) ([]*models.EventRecord, *ParseStats, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.FileError(errors.CodeFileCorrupted, name, err)
	}
	if len(lines) == 0 {
		return nil, nil, errors.ParseError(errors.CodeEmptyFile, name, 0, "", nil)
	}

	headers := splitRow(lines[0] + ":")
	hm := headerMap(headers)
	if err := requireColumns(hm, name,
		colEventName, colEventDOB, colEventLastCont, colEventStatus); err != nil {
		return nil, nil, err
	}

	stats := &ParseStats{}
	var events []*models.EventRecord

	for i, line := range lines[1:] {
		lineNo := i + 2
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.TotalRows++

		row := splitRow(line)
		event := p.buildEvent(row, headers, hm, stats, lineNo)

		// Rows with neither a name nor a date of birth can never join
		// and are dropped up front.
		if err := event.Validate(); err != nil {
			stats.SkippedRows++
			p.logger.WithField("line", lineNo).Debug("Skipping unmatched-capable row: ", err)
			continue
		}

		events = append(events, event)
		stats.ParsedRows++
	}

	p.logger.WithFields(logger.Fields{
		"file":    name,
		"parsed":  stats.ParsedRows,
		"skipped": stats.SkippedRows,
	}).Info("Parsed results file")

	return events, stats, nil
}

// splitRow splits a colon-delimited row and trims every cell. The empty
// trailing cell most rows carry from the terminating colon is dropped; a
// row that ends without the terminator keeps its last cell.
func splitRow(line string) []string {
	parts := strings.Split(line, ":")
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func (p *EventsParser) buildEvent(row []string, headers []string, hm map[string]int, stats *ParseStats, lineNo int) *models.EventRecord {
	event := &models.EventRecord{
		MatchName:   cell(row, hm, colEventName),
		FullName:    cell(row, hm, colEventFullName),
		Status:      models.ParseStatus(cell(row, hm, colEventStatus)),
		Agency:      cell(row, hm, colEventAgency),
		County:      cell(row, hm, colEventCounty),
		AgencyPhone: cell(row, hm, colEventPhone),
		CaseNumber:  cell(row, hm, colEventCaseNumber),
	}

	event.DateOfBirth = coerceDate(row, hm, colEventDOB, stats, p.logger, lineNo)
	event.LastContact = coerceDate(row, hm, colEventLastCont, stats, p.logger, lineNo)
	event.Located = coerceDate(row, hm, colEventLocated, stats, p.logger, lineNo)
	event.Cleared = coerceDate(row, hm, colEventCleared, stats, p.logger, lineNo)

	// Columns outside the fixed schema ride along in header order.
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if eventTypedColumns[h] || h == "" {
			continue
		}
		value := ""
		if i < len(row) {
			value = strings.TrimSpace(row[i])
		}
		event.Extra = append(event.Extra, models.Column{Name: h, Value: value})
	}

	return event
}
