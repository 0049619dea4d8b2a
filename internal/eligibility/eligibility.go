// Package eligibility narrows linked records to cases that belong in the
// reporting window: the person was under 18 at last contact, the contact
// fell inside (or straddled into) the period, and the person was in care at
// the time.
package eligibility

import (
	"time"

	"roster-reconciliation-service/internal/fiscal"
	"roster-reconciliation-service/internal/models"
	"roster-reconciliation-service/pkg/logger"
)

// Filter applies the age and episode-window predicates for one period.
type Filter struct {
	period fiscal.Period
	logger logger.Logger
}

// NewFilter creates a Filter for a reporting period.
func NewFilter(period fiscal.Period, log logger.Logger) *Filter {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Filter{period: period, logger: log.WithComponent("eligibility")}
}

// TurnEighteen returns the 18th birthday for a date of birth. A February 29
// birth date is shifted to March 1 first, so the birthday lands on March 1
// in every year.
func TurnEighteen(dob time.Time) time.Time {
	if dob.Month() == time.February && dob.Day() == 29 {
		dob = time.Date(dob.Year(), time.March, 1, 0, 0, 0, 0, time.UTC)
	}
	return dob.AddDate(18, 0, 0)
}

// underEighteen is the age predicate: strictly under 18 at last contact.
// An unknown date of birth passes.
func underEighteen(rec *models.LinkedRecord) bool {
	dob := rec.Event.DateOfBirth
	if dob.IsZero() {
		return true
	}
	return TurnEighteen(dob).After(rec.Event.LastContact)
}

// inWindow is the episode-window predicate. The contact must fall inside the
// period, or have started before it and either remained unresolved or been
// resolved inside it, and in every case fall within the person's care
// episode. A record with no person link has no episode and fails.
func (f *Filter) inWindow(rec *models.LinkedRecord) bool {
	if !rec.Matched() {
		return false
	}

	lc := rec.Event.LastContact
	if lc.IsZero() {
		return false
	}

	start, end := f.period.Start, f.period.End
	located, cleared := rec.Event.Located, rec.Event.Cleared

	inPeriod := !lc.Before(start) ||
		(!lc.After(start) && located.IsZero() && cleared.IsZero()) ||
		(!lc.After(start) &&
			((!located.IsZero() && !located.Before(start)) ||
				(!cleared.IsZero() && !cleared.Before(start))))

	entered := rec.Person.EnteredCare
	if entered.IsZero() {
		return false
	}

	return inPeriod &&
		!lc.After(end) &&
		!lc.After(rec.Person.ExitBound()) &&
		!lc.Before(entered)
}

// Apply filters linked records down to eligible ones.
func (f *Filter) Apply(records []*models.LinkedRecord) []*models.LinkedRecord {
	var eligible []*models.LinkedRecord
	for _, rec := range records {
		if underEighteen(rec) && f.inWindow(rec) {
			eligible = append(eligible, rec)
		}
	}

	f.logger.WithFields(logger.Fields{
		"in":       len(records),
		"eligible": len(eligible),
		"period":   f.period.Label(),
	}).Info("Eligibility filter applied")

	return eligible
}
