// Package reconciler orchestrates one inbound reconciliation run: join the
// returned events to the person reference table, filter to the reporting
// window, resolve one case per person, and build the three review tables.
package reconciler

import (
	"context"

	"github.com/google/uuid"

	"roster-reconciliation-service/internal/eligibility"
	"roster-reconciliation-service/internal/fiscal"
	"roster-reconciliation-service/internal/linkage"
	"roster-reconciliation-service/internal/models"
	"roster-reconciliation-service/internal/parsers"
	"roster-reconciliation-service/internal/resolve"
	"roster-reconciliation-service/pkg/errors"
	"roster-reconciliation-service/pkg/logger"
)

// Inputs carries the parsed tables a run consumes.
type Inputs struct {
	Events  []*models.EventRecord
	Persons []*models.PersonRecord
	Roster  *models.RosterTable
	Regions *parsers.RegionLookup
}

// Result is the outcome of one reconciliation run.
type Result struct {
	RunID     string
	Period    fiscal.Period
	Cases     []*models.CanonicalCase
	JoinStats *linkage.JoinStats

	AllEvents         *models.Table
	EventsNotInRoster *models.Table
	RosterNotInEvents *models.Table
}

// Pipeline wires the run stages together for one reporting period.
type Pipeline struct {
	period fiscal.Period
	runID  string
	logger logger.Logger
}

// NewPipeline creates a Pipeline for a period. Every run gets a fresh run ID
// carried on all log lines.
func NewPipeline(period fiscal.Period, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	runID := uuid.New().String()
	return &Pipeline{
		period: period,
		runID:  runID,
		logger: log.WithFields(logger.Fields{"run_id": runID, "period": period.Label()}),
	}
}

// RunID returns the run's identifier.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run executes the reconciliation stages. Inputs must be non-empty on the
// event and person sides; an empty roster only empties the two not-in
// reports.
func (p *Pipeline) Run(ctx context.Context, inputs *Inputs) (*Result, error) {
	if err := p.validate(inputs); err != nil {
		return nil, err
	}

	result := &Result{RunID: p.runID, Period: p.period}

	stage := logger.NewStageLogger("identity_join", p.logger)
	index := linkage.NewPersonIndex(inputs.Persons)
	engine := linkage.NewEngine(index, p.logger)
	linked, joinStats := engine.Join(inputs.Events)
	result.JoinStats = joinStats
	stage.Rows("linked", joinStats.Linked)
	stage.Success("join complete")

	if err := ctx.Err(); err != nil {
		return nil, errors.ReconciliationError(errors.CodeLinkageFailed, "identity_join", err)
	}

	stage = logger.NewStageLogger("eligibility", p.logger)
	filter := eligibility.NewFilter(p.period, p.logger)
	eligible := filter.Apply(linked)
	stage.Rows("eligible", len(eligible))
	stage.Success("eligibility filter complete")

	stage = logger.NewStageLogger("resolve", p.logger)
	resolver := resolve.NewResolver(p.logger)
	result.Cases = resolver.Resolve(resolver.Build(eligible))
	stage.Rows("cases", len(result.Cases))
	stage.Success("status resolution complete")

	if err := ctx.Err(); err != nil {
		return nil, errors.ReconciliationError(errors.CodeResolutionFailed, "resolve", err)
	}

	stage = logger.NewStageLogger("reports", p.logger)
	result.AllEvents = buildAllEvents(result.Cases)
	result.EventsNotInRoster = buildEventsNotInRoster(result.Cases, inputs.Roster, inputs.Regions)
	result.RosterNotInEvents = buildRosterNotInEvents(result.Cases, inputs.Roster)
	stage.Rows("all_events", len(result.AllEvents.Rows))
	stage.Rows("not_in_roster", len(result.EventsNotInRoster.Rows))
	stage.Rows("not_in_results", len(result.RosterNotInEvents.Rows))
	stage.Success("report tables built")

	return result, nil
}

func (p *Pipeline) validate(inputs *Inputs) error {
	if inputs == nil {
		return errors.ValidationError(errors.CodeMissingField, "inputs", nil, nil)
	}
	if len(inputs.Events) == 0 {
		return errors.ValidationError(errors.CodeEmptyDataset, "events", 0, nil)
	}
	if len(inputs.Persons) == 0 {
		return errors.ValidationError(errors.CodeEmptyDataset, "persons", 0, nil)
	}
	if inputs.Roster == nil {
		inputs.Roster = &models.RosterTable{}
	}
	return nil
}
