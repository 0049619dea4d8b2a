// Package resolve collapses eligible linked records down to one canonical
// case per person: highest-priority status per contact date, then the most
// recent contact date per person.
package resolve

import (
	"sort"

	"roster-reconciliation-service/internal/models"
	"roster-reconciliation-service/pkg/logger"
)

// Resolver performs status recoding and two-phase deduplication.
type Resolver struct {
	logger logger.Logger
}

// NewResolver creates a Resolver.
func NewResolver(log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Resolver{logger: log.WithComponent("resolve")}
}

// Build converts eligible linked records to canonical cases, recoding each
// status to its priority-labeled form. Unknown status codes are kept as-is
// and logged once per code.
func (r *Resolver) Build(records []*models.LinkedRecord) []*models.CanonicalCase {
	unknown := make(map[models.StatusCode]int)
	cases := make([]*models.CanonicalCase, 0, len(records))

	for _, rec := range records {
		if !rec.Matched() {
			continue
		}
		e, p := rec.Event, rec.Person

		if !e.Status.Known() {
			unknown[e.Status]++
		}

		cases = append(cases, &models.CanonicalCase{
			PersonID:    p.PersonID,
			Status:      e.Status,
			StatusLabel: e.Status.Recoded(),
			Name:        e.FullName,
			DateOfBirth: e.DateOfBirth,
			LastContact: e.LastContact,
			Located:     e.Located,
			Cleared:     e.Cleared,
			Agency:      e.Agency,
			County:      e.County,
			AgencyPhone: e.AgencyPhone,
			CaseNumber:  e.CaseNumber,
			EnteredCare: p.EnteredCare,
			ExitedCare:  p.ExitedCare,
			Extra:       e.Extra,
		})
	}

	for code, n := range unknown {
		r.logger.Warnf("status code %q is outside the known vocabulary (%d rows); passing through", code, n)
	}

	return cases
}

// Resolve deduplicates canonical cases to exactly one row per person.
// Phase 1 keeps, per (person, last contact), the lowest-priority-number
// status, ties broken by the earliest combined locate/clear date. Phase 2
// keeps, per person, the most recent last contact. The operation is
// idempotent.
func (r *Resolver) Resolve(cases []*models.CanonicalCase) []*models.CanonicalCase {
	phase1 := r.bestStatusPerContact(cases)
	phase2 := r.latestContactPerPerson(phase1)

	r.logger.WithFields(logger.Fields{
		"in":      len(cases),
		"per_key": len(phase1),
		"out":     len(phase2),
	}).Info("Status resolution complete")

	return phase2
}

type contactKey struct {
	personID    string
	lastContact string
}

func (r *Resolver) bestStatusPerContact(cases []*models.CanonicalCase) []*models.CanonicalCase {
	best := make(map[contactKey]*models.CanonicalCase)
	var order []contactKey

	for _, c := range cases {
		key := contactKey{c.PersonID, models.FormatDate(c.LastContact)}
		cur, ok := best[key]
		if !ok {
			best[key] = c
			order = append(order, key)
			continue
		}
		if betterStatus(c, cur) {
			best[key] = c
		}
	}

	out := make([]*models.CanonicalCase, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}

// betterStatus reports whether a should replace b's slot: lower priority
// wins; unknown labels compare lexically after known ones; the earliest
// combined date breaks a remaining tie, with a missing date sorting last.
func betterStatus(a, b *models.CanonicalCase) bool {
	if a.Status.Priority() != b.Status.Priority() {
		return a.Status.Priority() < b.Status.Priority()
	}
	if a.StatusLabel != b.StatusLabel {
		return a.StatusLabel < b.StatusLabel
	}

	ad, bd := a.CombinedDate(), b.CombinedDate()
	switch {
	case ad.IsZero():
		return false
	case bd.IsZero():
		return true
	default:
		return ad.Before(bd)
	}
}

func (r *Resolver) latestContactPerPerson(cases []*models.CanonicalCase) []*models.CanonicalCase {
	latest := make(map[string]*models.CanonicalCase)
	var order []string

	for _, c := range cases {
		cur, ok := latest[c.PersonID]
		if !ok {
			latest[c.PersonID] = c
			order = append(order, c.PersonID)
			continue
		}
		if c.LastContact.After(cur.LastContact) {
			latest[c.PersonID] = c
		}
	}

	out := make([]*models.CanonicalCase, 0, len(order))
	for _, id := range order {
		out = append(out, latest[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PersonID < out[j].PersonID })
	return out
}
