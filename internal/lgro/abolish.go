package lgro

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/natashamoorfield/npm-npadb-admin/internal/gazetteer"
)

// AbolitionOutcome is the result of abolishing one old district.
type AbolitionOutcome struct {
	MarkedDefunct bool
	TownsMoved    bool
	EntriesMoved  bool
	Towns         int64
	Entries       int64
	Err           error
}

// OK reports whether all three abolition steps completed.
func (o AbolitionOutcome) OK() bool {
	return o.MarkedDefunct && o.TownsMoved && o.EntriesMoved && o.Err == nil
}

// Abolisher retires an old district into its successor.
type Abolisher struct {
	store     Store
	reporter  Reporter
	logger    *slog.Logger
	metrics   *Metrics
	abolished time.Time
}

// Abolish marks od defunct, moves its towns (except its own G3 town) to nd,
// then moves its abc_gazetteer entries to nd. A failed step ends processing
// of od. The caller must only pass a Ready new district.
func (a *Abolisher) Abolish(ctx context.Context, od *OldDistrict, nd *NewDistrict) AbolitionOutcome {
	var out AbolitionOutcome

	if !nd.Ready() {
		out.Err = stepErr(ErrDependencyUnmet, "abolish district", od.Name, od.ID,
			fmt.Errorf("successor %s is %s", nd.Name, nd.State))
		return out
	}

	a.logger.Debug("mark district defunct", "district_id", od.ID, "abolition_date", a.abolished.Format(time.DateOnly))
	err := a.store.MarkDistrictDefunct(ctx, od.ID, a.abolished)
	a.metrics.observeStep("mark_defunct", err)
	if err != nil {
		out.Err = stepErr(ErrPersistenceFailure, "mark defunct", od.Name, od.ID, err)
		a.reporter.Warn(od.Name, od.ID,
			fmt.Sprintf("An error occurred updating the district record for %s (%d).", od.Name, od.ID),
			err.Error(),
			"Skipping updates of the towns and abc_gazetteer tables.")
		return out
	}
	out.MarkedDefunct = true
	a.reporter.Info(od.Name, od.ID, fmt.Sprintf("Abolish %s (%d) on %s", od.Name, od.ID, a.abolished.Format(time.DateOnly)))

	towns, err := a.store.ReparentTowns(ctx, od.ID, nd.ID, gazetteer.G3TownType)
	a.metrics.observeStep("move_towns", err)
	if err != nil {
		out.Err = stepErr(ErrPersistenceFailure, "move towns", od.Name, od.ID, err)
		a.reporter.Warn(od.Name, od.ID,
			fmt.Sprintf("An error occurred updating the towns table for towns that were in %s (%d).", od.Name, od.ID),
			err.Error(),
			"Skipping updates of the abc_gazetteer table.")
		return out
	}
	out.TownsMoved = true
	out.Towns = towns
	a.reporter.Info(od.Name, od.ID, fmt.Sprintf("Move %d towns from %s (%d) to %s (%d)",
		towns, od.Name, od.ID, nd.Name, nd.ID))

	entries, err := a.store.ReparentGazetteerEntries(ctx, od.ID, nd.ID)
	a.metrics.observeStep("move_gazetteer_entries", err)
	if err != nil {
		out.Err = stepErr(ErrPersistenceFailure, "move abc_gazetteer entries", od.Name, od.ID, err)
		a.reporter.Warn(od.Name, od.ID,
			fmt.Sprintf("An error occurred updating the abc_gazetteer table for towns that were in %s (%d)", od.Name, od.ID),
			err.Error())
		return out
	}
	out.EntriesMoved = true
	out.Entries = entries
	a.reporter.Info(od.Name, od.ID, fmt.Sprintf("Move %d ABC Gazetteer entries from %s (%d) to %s (%d)",
		entries, od.Name, od.ID, nd.Name, nd.ID))

	return out
}
