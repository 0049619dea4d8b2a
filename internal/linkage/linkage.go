// Package linkage joins reported events to internal person episodes on the
// exact composite key of normalized name and date of birth.
package linkage

import (
	"roster-reconciliation-service/internal/models"
	"roster-reconciliation-service/internal/names"
	"roster-reconciliation-service/pkg/logger"
)

// PersonIndex holds person episodes keyed by match key for constant-time
// lookup during the join.
type PersonIndex struct {
	byKey map[string][]*models.PersonRecord
}

// NewPersonIndex builds an index over the reference table. A person with
// several episodes or name variants contributes one entry per row.
func NewPersonIndex(persons []*models.PersonRecord) *PersonIndex {
	idx := &PersonIndex{byKey: make(map[string][]*models.PersonRecord, len(persons))}
	for _, p := range persons {
		key := names.MatchKey(p.Name, p.DateOfBirth)
		idx.byKey[key] = append(idx.byKey[key], p)
	}
	return idx
}

// Lookup returns every person episode under a match key.
func (idx *PersonIndex) Lookup(key string) []*models.PersonRecord {
	return idx.byKey[key]
}

// Size returns the number of distinct match keys.
func (idx *PersonIndex) Size() int {
	return len(idx.byKey)
}

// JoinStats summarizes one join pass.
type JoinStats struct {
	Events    int
	Linked    int
	Unmatched int
	FanOut    int // extra rows produced by events matching several episodes
}

// Engine performs the left outer join from events to person episodes.
type Engine struct {
	index  *PersonIndex
	logger logger.Logger
}

// NewEngine creates a join engine over an index.
func NewEngine(index *PersonIndex, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Engine{index: index, logger: log.WithComponent("linkage")}
}

// Join links every event to its person episodes. Events with no match are
// retained with a nil person; an event matching k episodes yields k linked
// records. The output never has fewer rows than the input.
func (e *Engine) Join(events []*models.EventRecord) ([]*models.LinkedRecord, *JoinStats) {
	stats := &JoinStats{Events: len(events)}
	linked := make([]*models.LinkedRecord, 0, len(events))

	for _, event := range events {
		key := names.MatchKey(event.MatchName, event.DateOfBirth)
		matches := e.index.Lookup(key)

		if len(matches) == 0 {
			linked = append(linked, &models.LinkedRecord{Event: event})
			stats.Unmatched++
			continue
		}

		for _, person := range matches {
			linked = append(linked, &models.LinkedRecord{Event: event, Person: person})
		}
		stats.Linked++
		stats.FanOut += len(matches) - 1
	}

	if stats.Unmatched > 0 {
		e.logger.Warnf("%d events did not match any person episode", stats.Unmatched)
	}
	e.logger.WithFields(logger.Fields{
		"events":    stats.Events,
		"linked":    stats.Linked,
		"unmatched": stats.Unmatched,
		"fan_out":   stats.FanOut,
	}).Info("Identity join complete")

	return linked, stats
}
