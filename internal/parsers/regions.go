package parsers

import (
	"encoding/csv"
	"io"
	"strings"

	"roster-reconciliation-service/internal/models"
	"roster-reconciliation-service/pkg/errors"
	"roster-reconciliation-service/pkg/logger"
)

// Column names on the two county lookup tables.
const (
	colLookupPersonID = "ID_SA_PERSON"
	colLookupCounty   = "CD_LEGAL_CNTY"
	colLookupDecode   = "DECODE"
	colLookupName     = "NM_PERSON_NAME"
	colLookupCntyName = "CNTY_NAME"
	colLookupRegion   = "REGION"
)

// RegionLookup resolves a person to a legal county and a county to a legal
// region for the events-not-in-roster report. Lookups that miss return blank
// values; the report keeps the row either way.
type RegionLookup struct {
	personCounty map[string]string
	personName   map[string]string
	countyRegion map[string]string
}

// County returns the legal county for a person ID, or "".
func (rl *RegionLookup) County(personID string) string {
	return rl.personCounty[models.TrimID(personID)]
}

// PersonName returns the internal name on file for a person ID, or "".
func (rl *RegionLookup) PersonName(personID string) string {
	return rl.personName[models.TrimID(personID)]
}

// Region returns the legal region for a county name, or "".
func (rl *RegionLookup) Region(county string) string {
	return rl.countyRegion[strings.TrimSpace(county)]
}

// RegionsParser reads the person-county and county-region lookup tables
// (CSV extracts of the corresponding reference data).
type RegionsParser struct {
	logger logger.Logger
}

// NewRegionsParser creates a RegionsParser.
func NewRegionsParser(log logger.Logger) *RegionsParser {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &RegionsParser{logger: log.WithComponent("regions_parser")}
}

// ParseFiles builds a RegionLookup from the two lookup CSVs.
func (p *RegionsParser) ParseFiles(personCountyPath, countyRegionPath string) (*RegionLookup, error) {
	lookup := &RegionLookup{
		personCounty: make(map[string]string),
		personName:   make(map[string]string),
		countyRegion: make(map[string]string),
	}

	if err := p.parsePersonCounty(personCountyPath, lookup); err != nil {
		return nil, err
	}
	if err := p.parseCountyRegion(countyRegionPath, lookup); err != nil {
		return nil, err
	}

	p.logger.WithFields(logger.Fields{
		"persons":  len(lookup.personCounty),
		"counties": len(lookup.countyRegion),
	}).Info("Loaded county lookup tables")

	return lookup, nil
}

func (p *RegionsParser) parsePersonCounty(path string, lookup *RegionLookup) error {
	file, err := openInput(path, p.logger)
	if err != nil {
		return err
	}
	defer file.Close()

	headers, rows, err := readCSV(file, path)
	if err != nil {
		return err
	}

	hm := headerMap(headers)
	if err := requireColumns(hm, path, colLookupPersonID, colLookupDecode); err != nil {
		return err
	}

	for _, row := range rows {
		id := models.TrimID(cell(row, hm, colLookupPersonID))
		if id == "" {
			continue
		}
		// DECODE carries the county name for the person's legal county code.
		lookup.personCounty[id] = cell(row, hm, colLookupDecode)
		lookup.personName[id] = cell(row, hm, colLookupName)
	}
	return nil
}

func (p *RegionsParser) parseCountyRegion(path string, lookup *RegionLookup) error {
	file, err := openInput(path, p.logger)
	if err != nil {
		return err
	}
	defer file.Close()

	headers, rows, err := readCSV(file, path)
	if err != nil {
		return err
	}

	hm := headerMap(headers)
	if err := requireColumns(hm, path, colLookupCntyName, colLookupRegion); err != nil {
		return err
	}

	for _, row := range rows {
		county := cell(row, hm, colLookupCntyName)
		if county == "" {
			continue
		}
		lookup.countyRegion[county] = cell(row, hm, colLookupRegion)
	}
	return nil
}

// readCSV reads a whole CSV into a header row plus data rows.
func readCSV(r io.Reader, name string) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.ParseError(errors.CodeInvalidFormat, name, 0, "", err)
	}
	if len(all) == 0 {
		return nil, nil, errors.ParseError(errors.CodeEmptyFile, name, 0, "", nil)
	}
	return all[0], all[1:], nil
}
