// Package lgro applies a Local Government Reorganization to the gazetteer.
//
// A reorganization is described per year in a dataset file listing, for each
// county, the new districts being formed and the old districts each one
// absorbs. The Orchestrator resolves every named entity against the
// gazetteer, creates the new districts with their district-level (G3)
// generic town and locality, and then abolishes the old districts,
// re-parenting their towns and abc_gazetteer entries.
//
// # Ordering
//
// Abolition of an old district is gated on its new district having been
// created (or validated as pre-existing) together with its G3 locality.
// Failures are recorded on the entity that failed and on its dependants;
// siblings and other counties carry on.
//
// # Modes
//
//   - [Orchestrator.DryRun] resolves and plans but never writes.
//   - [Orchestrator.Commit] resolves, creates and abolishes.
package lgro

import "time"

// State is the processing state of a new or old district.
type State string

const (
	StatePending          State = "PENDING"
	StateResolving        State = "RESOLVING"
	StateResolved         State = "RESOLVED" // new district to be created
	StateExisting         State = "EXISTING" // new district already in the gazetteer
	StateResolutionFailed State = "RESOLUTION_FAILED"
	StateCreated          State = "CREATED"
	StateCreationFailed   State = "CREATION_FAILED"
	StateAbolished        State = "ABOLISHED"
	StateAbolitionFailed  State = "ABOLITION_FAILED"
	StateSkipped          State = "SKIPPED"
)

// Event is one year's reorganization. Reorganizations take effect on 1 April.
type Event struct {
	Year     int
	Counties []*County
}

// InaugurationDate is the first day of the new regime.
func (e *Event) InaugurationDate() time.Time {
	return time.Date(e.Year, time.April, 1, 0, 0, 0, 0, time.UTC)
}

// AbolitionDate is the last day of the old regime.
func (e *Event) AbolitionDate() time.Time {
	return e.InaugurationDate().AddDate(0, 0, -1)
}

// County groups the new districts formed within one county.
type County struct {
	Name string

	ID int

	// NextDistrictID is the id the next new district in this county receives.
	// It only moves forward after a district row has been inserted.
	NextDistrictID int

	NewDistricts []*NewDistrict

	Err error
}

// Resolved reports whether the county was found in the gazetteer.
func (c *County) Resolved() bool {
	return c.ID != 0 && c.Err == nil
}

// NewDistrict is a district formed by the reorganization.
type NewDistrict struct {
	Name         string
	DistrictType int

	// ID is 0 until the district is found in the gazetteer or created.
	ID int

	// PlannedID is the id a dry run expects creation to allocate.
	PlannedID int

	G3TownID     int
	G3LocalityID int

	State State
	Err   error

	OldDistricts []*OldDistrict
}

// Ready reports whether old districts may be abolished into this district.
func (nd *NewDistrict) Ready() bool {
	switch nd.State {
	case StateExisting:
		return nd.ID != 0
	case StateCreated:
		return nd.ID != 0 && nd.G3LocalityID != 0
	default:
		return false
	}
}

// OldDistrict is a district abolished by the reorganization.
type OldDistrict struct {
	Name     string
	ID       int
	CountyID int

	State State
	Err   error

	TownsMoved   int64
	EntriesMoved int64
}

// Walk calls fn for every new district and its county, in dataset order.
func (e *Event) Walk(fn func(c *County, nd *NewDistrict)) {
	for _, c := range e.Counties {
		for _, nd := range c.NewDistricts {
			fn(c, nd)
		}
	}
}
