// Package outbound builds the submission feed: the children-in-care extract
// filtered to the reporting period, reduced to one episode per person, and
// expanded into every name variant the receiving side should match under.
package outbound

import (
	"sort"
	"strings"

	"roster-reconciliation-service/internal/fiscal"
	"roster-reconciliation-service/internal/models"
	"roster-reconciliation-service/internal/names"
	"roster-reconciliation-service/internal/parsers"
	"roster-reconciliation-service/pkg/errors"
	"roster-reconciliation-service/pkg/logger"
)

// Feed builds the outbound datasets for one reporting period.
type Feed struct {
	period fiscal.Period
	logger logger.Logger
}

// NewFeed creates a Feed.
func NewFeed(period fiscal.Period, log logger.Logger) *Feed {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Feed{period: period, logger: log.WithComponent("outbound")}
}

// Output is the pair of outbound datasets: the reference table that will be
// read back at reconciliation time, and the fixed-width submission rows.
type Output struct {
	Reference  *models.Table
	Submission []*models.SubmissionRow
}

// referenceColumns is the reference table layout, one row per expanded name
// variant per episode.
var referenceColumns = []string{
	"Person_ID", "Name", "Date_of_Birth", "Sex",
	"Last_Name", "First_Name", "Middle_Name",
	"Entered_Care", "Exited_Care",
}

// Build runs the outbound stages over the extract.
func (f *Feed) Build(records []*parsers.CareRecord) (*Output, error) {
	inPeriod := f.filterPeriod(records)
	if len(inPeriod) == 0 {
		return nil, errors.ValidationError(errors.CodeEmptyDataset, "care_extract", f.period.Label(), nil)
	}

	usable := f.filterUsable(inPeriod)
	picked := pickEpisodes(usable)
	f.logger.WithFields(logger.Fields{
		"in_period": len(inPeriod),
		"usable":    len(usable),
		"episodes":  len(picked),
	}).Info("Outbound feed prepared")

	return f.expand(picked), nil
}

// filterPeriod keeps extract rows tagged with the run's fiscal year, and for
// quarterly runs the run's quarter.
func (f *Feed) filterPeriod(records []*parsers.CareRecord) []*parsers.CareRecord {
	var out []*parsers.CareRecord
	for _, rec := range records {
		if rec.FiscalYear != f.period.FiscalYear {
			continue
		}
		if !f.period.FullYear() && rec.Quarter != f.period.Quarter {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// filterUsable drops rows that cannot be submitted: missing names, birth
// date, or care entry date.
func (f *Feed) filterUsable(records []*parsers.CareRecord) []*parsers.CareRecord {
	var out []*parsers.CareRecord
	dropped := 0
	for _, rec := range records {
		if strings.TrimSpace(rec.LastName) == "" || strings.TrimSpace(rec.FirstName) == "" ||
			rec.DateOfBirth.IsZero() || rec.EnteredCare.IsZero() {
			dropped++
			continue
		}
		out = append(out, rec)
	}
	if dropped > 0 {
		f.logger.Warnf("Dropped %d extract rows missing name, birth date, or entry date", dropped)
	}
	return out
}

type episodeKey struct {
	personID    string
	enteredCare string
}

// pickEpisodes keeps one row per (person, care entry): the earliest exit,
// with open episodes sorting last. Output order is deterministic.
func pickEpisodes(records []*parsers.CareRecord) []*parsers.CareRecord {
	best := make(map[episodeKey]*parsers.CareRecord)
	var order []episodeKey

	for _, rec := range records {
		key := episodeKey{rec.PersonID, models.FormatDate(rec.EnteredCare)}
		cur, ok := best[key]
		if !ok {
			best[key] = rec
			order = append(order, key)
			continue
		}
		if earlierExit(rec, cur) {
			best[key] = rec
		}
	}

	out := make([]*parsers.CareRecord, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PersonID != out[j].PersonID {
			return out[i].PersonID < out[j].PersonID
		}
		return out[i].EnteredCare.Before(out[j].EnteredCare)
	})
	return out
}

// earlierExit reports whether a's exit sorts before b's; an open episode
// sorts after any dated one.
func earlierExit(a, b *parsers.CareRecord) bool {
	switch {
	case a.ExitedCare.IsZero():
		return false
	case b.ExitedCare.IsZero():
		return true
	default:
		return a.ExitedCare.Before(b.ExitedCare)
	}
}

// expand builds the reference table and submission rows from the picked
// episodes. Middle names keep their spelling minus punctuation and spaces;
// they ride along for review but are not part of the match key.
func (f *Feed) expand(records []*parsers.CareRecord) *Output {
	out := &Output{
		Reference: &models.Table{
			Name:    "reference_data",
			Headers: append([]string(nil), referenceColumns...),
		},
	}

	for _, rec := range records {
		sex := models.ParseSex(rec.Gender)
		middle := cleanMiddleName(rec.MiddleName)

		for _, pair := range names.Expand(rec.LastName, rec.FirstName) {
			// Submission form: LAST,FIRST truncated downstream.
			name := pair.Last + "," + pair.First

			out.Reference.Rows = append(out.Reference.Rows, []string{
				rec.PersonID,
				name,
				models.FormatDate(rec.DateOfBirth),
				sex,
				pair.Last,
				pair.First,
				middle,
				models.FormatDate(rec.EnteredCare),
				models.FormatDate(rec.ExitedCare),
			})

			out.Submission = append(out.Submission, &models.SubmissionRow{
				Name:        name,
				DateOfBirth: rec.DateOfBirth,
				Sex:         sex,
			})
		}
	}

	f.logger.WithField("rows", len(out.Reference.Rows)).Info("Name expansion complete")
	return out
}

var middleNameCleaner = strings.NewReplacer(" ", "", "-", "", "'", "", ".", "", ",", "")

func cleanMiddleName(middle string) string {
	return strings.ToUpper(middleNameCleaner.Replace(names.FoldDiacritics(middle)))
}
