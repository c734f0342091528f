package lgro

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Orchestrator drives resolution, creation and abolition over an Event.
// It is single-use and not safe for concurrent use.
type Orchestrator struct {
	store    Store
	event    *Event
	reporter Reporter
	logger   *slog.Logger
	metrics  *Metrics
	resolved bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithReporter sets where status messages go.
func WithReporter(r Reporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMetrics records step and run metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an Orchestrator for event over store.
func New(store Store, event *Event, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		event:    event,
		reporter: nopReporter{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Event returns the graph being processed.
func (o *Orchestrator) Event() *Event {
	return o.event
}

// Resolve looks up every county, new district and old district, filling in
// ids and recording failures on the entities concerned. It never writes.
// Calling it again is a no-op.
func (o *Orchestrator) Resolve(ctx context.Context) {
	if o.resolved {
		return
	}
	o.resolved = true

	for _, county := range o.event.Counties {
		o.resolveCounty(ctx, county)
	}
	o.plan()
}

func (o *Orchestrator) resolveCounty(ctx context.Context, county *County) {
	id, next, err := ResolveCounty(ctx, o.store, county.Name)
	if err != nil {
		county.Err = err
		o.reporter.Error(county.Name, 0, err.Error(),
			"Skipping every new and old district in this county.")
		for _, nd := range county.NewDistricts {
			nd.State = StateSkipped
			nd.Err = stepErr(ErrDependencyUnmet, "resolve new district", nd.Name, 0,
				fmt.Errorf("county %q was not resolved", county.Name))
			o.skipOldDistricts(nd, "county was not resolved")
		}
		return
	}
	county.ID = id
	county.NextDistrictID = next
	o.logger.Debug("resolved county", "county", county.Name, "county_id", id, "next_district_id", next)

	for _, nd := range county.NewDistricts {
		o.resolveNewDistrict(ctx, county, nd)
	}
}

func (o *Orchestrator) resolveNewDistrict(ctx context.Context, county *County, nd *NewDistrict) {
	nd.State = StateResolving

	id, storedType, err := ResolveNewDistrict(ctx, o.store, nd.Name, county.ID)
	if err == nil && id != 0 && storedType != nd.DistrictType {
		err = stepErr(ErrTypeMismatch, "resolve new district", nd.Name, id,
			fmt.Errorf("dataset declares type %d, gazetteer holds type %d", nd.DistrictType, storedType))
	}
	if err != nil {
		nd.State = StateResolutionFailed
		nd.Err = err
		o.reporter.Error(nd.Name, id, err.Error())
		o.skipOldDistricts(nd, "new district was not resolved")
		return
	}

	if id != 0 {
		nd.ID = id
		nd.State = StateExisting
	} else {
		nd.State = StateResolved
	}

	for _, od := range nd.OldDistricts {
		od.CountyID = county.ID
		odID, err := ResolveOldDistrict(ctx, o.store, od.Name, county.ID)
		if err != nil {
			od.State = StateResolutionFailed
			od.Err = err
			o.reporter.Error(od.Name, 0, err.Error())
			continue
		}
		od.ID = odID
	}
}

// plan projects the ids creation will allocate, county by county.
func (o *Orchestrator) plan() {
	for _, county := range o.event.Counties {
		if !county.Resolved() {
			continue
		}
		next := county.NextDistrictID
		for _, nd := range county.NewDistricts {
			if nd.State == StateResolved {
				nd.PlannedID = next
				next++
			}
		}
	}
}

// DryRun resolves the event and summarizes what a commit would do.
func (o *Orchestrator) DryRun(ctx context.Context) Summary {
	start := time.Now()
	o.Resolve(ctx)
	s := Summarize(o.event, true)
	o.metrics.ObserveSummary(s, time.Since(start))
	return s
}

// Commit resolves the event, then for each county in order creates each new
// district and abolishes its old districts once it is ready.
func (o *Orchestrator) Commit(ctx context.Context) Summary {
	start := time.Now()
	o.Resolve(ctx)

	creator := &Creator{
		store:       o.store,
		reporter:    o.reporter,
		logger:      o.logger,
		metrics:     o.metrics,
		inaugurated: o.event.InaugurationDate(),
	}
	abolisher := &Abolisher{
		store:     o.store,
		reporter:  o.reporter,
		logger:    o.logger,
		metrics:   o.metrics,
		abolished: o.event.AbolitionDate(),
	}

	for _, county := range o.event.Counties {
		if !county.Resolved() {
			continue
		}
		for _, nd := range county.NewDistricts {
			o.commitNewDistrict(ctx, creator, abolisher, county, nd)
		}
	}

	s := Summarize(o.event, false)
	o.metrics.ObserveSummary(s, time.Since(start))
	return s
}

func (o *Orchestrator) commitNewDistrict(ctx context.Context, creator *Creator, abolisher *Abolisher, county *County, nd *NewDistrict) {
	if nd.State == StateResolved {
		out := creator.Create(ctx, county, nd)
		nd.G3TownID = out.TownID
		nd.G3LocalityID = out.LocalityID
		if out.OK() {
			nd.State = StateCreated
		} else {
			nd.State = StateCreationFailed
			nd.Err = out.Err
		}
	}

	if !nd.Ready() {
		if nd.State == StateCreationFailed {
			o.reporter.Warn(nd.Name, nd.ID,
				"The process to abolish the predecessor districts has not been run.",
				"This is to help preserve the integrity of the gazetteer following earlier errors.")
		}
		o.skipOldDistricts(nd, fmt.Sprintf("new district %s is %s", nd.Name, nd.State))
		return
	}

	for _, od := range nd.OldDistricts {
		if od.State != StatePending {
			continue
		}
		out := abolisher.Abolish(ctx, od, nd)
		od.TownsMoved = out.Towns
		od.EntriesMoved = out.Entries
		if out.OK() {
			od.State = StateAbolished
		} else {
			od.State = StateAbolitionFailed
			od.Err = out.Err
		}
	}
}

// skipOldDistricts moves every still-pending old district of nd to SKIPPED.
func (o *Orchestrator) skipOldDistricts(nd *NewDistrict, reason string) {
	for _, od := range nd.OldDistricts {
		if od.State != StatePending {
			continue
		}
		od.State = StateSkipped
		od.Err = stepErr(ErrDependencyUnmet, "abolish district", od.Name, od.ID, fmt.Errorf("%s", reason))
		o.reporter.Warn(od.Name, od.ID, "Skipping abolition: "+reason)
	}
}
