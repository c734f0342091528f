package lgro

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natashamoorfield/npm-npadb-admin/internal/gazetteer"
)

func newTestOrchestrator(s Store, e *Event, opts ...Option) *Orchestrator {
	return New(s, e, append([]Option{WithLogger(discardLogger())}, opts...)...)
}

func TestCommit_Avon(t *testing.T) {
	s := avonStore()
	e := avonEvent(1996)

	summary := newTestOrchestrator(s, e).Commit(context.Background())

	county := e.Counties[0]
	nd := county.NewDistricts[0]
	assert.Equal(t, 10, county.ID)
	assert.Equal(t, 102, county.NextDistrictID)
	assert.Equal(t, StateCreated, nd.State)
	assert.Equal(t, 101, nd.ID)
	assert.NotZero(t, nd.G3TownID)
	assert.NotZero(t, nd.G3LocalityID)

	d, ok := s.district(101)
	require.True(t, ok)
	assert.True(t, d.AdminDistrict)
	assert.Equal(t, 1, d.DistrictType)
	assert.Equal(t, "North Somerset", d.IndexName)

	for _, od := range nd.OldDistricts {
		assert.Equal(t, StateAbolished, od.State, od.Name)
		old, _ := s.district(od.ID)
		assert.False(t, old.AdminDistrict, od.Name)
		assert.Equal(t, "1996-03-31", old.AbolitionDate.Time.Format("2006-01-02"))
		assert.Equal(t, 0, s.entriesIn(od.ID))
		assert.Equal(t, 1, s.townsIn(od.ID), "only the G3 town remains in %s", od.Name)
	}
	assert.EqualValues(t, 2, nd.OldDistricts[0].TownsMoved)
	assert.EqualValues(t, 1, nd.OldDistricts[1].TownsMoved)

	// two moved from Woodspring, one from Northavon, plus the new G3 town
	assert.Equal(t, 4, s.townsIn(101))
	assert.Equal(t, 3, s.entriesIn(101))

	assert.Len(t, summary.Created, 1)
	assert.Len(t, summary.Abolished, 2)
	assert.Zero(t, summary.Failures())
	assert.Equal(t, []string{
		"insert_district:101",
		"insert_town:101",
		"insert_locality:9001",
		"mark_defunct:55", "move_towns:55", "move_entries:55",
		"mark_defunct:56", "move_towns:56", "move_entries:56",
	}, s.writes)
}

func TestCommit_CreationFailureSkipsAbolition(t *testing.T) {
	s := avonStore()
	s.failOn("insert_district", "North Somerset", errBoom)
	e := avonEvent(1996)
	rep := &recordingReporter{}

	summary := newTestOrchestrator(s, e, WithReporter(rep)).Commit(context.Background())

	nd := e.Counties[0].NewDistricts[0]
	assert.Equal(t, StateCreationFailed, nd.State)
	require.ErrorIs(t, nd.Err, ErrPersistenceFailure)
	for _, od := range nd.OldDistricts {
		assert.Equal(t, StateSkipped, od.State)
		require.ErrorIs(t, od.Err, ErrDependencyUnmet)
	}
	assert.Empty(t, s.writes)
	assert.Equal(t, 101, e.Counties[0].NextDistrictID)
	assert.Len(t, summary.Failed, 1)
	assert.Len(t, summary.Skipped, 2)
	assert.Contains(t, strings.Join(rep.lines, "\n"),
		"The process to abolish the predecessor districts has not been run.")
}

func TestCommit_LocalityFailureBlocksAbolition(t *testing.T) {
	s := avonStore()
	s.failOn("insert_locality", "North Somerset", errBoom)
	e := avonEvent(1996)

	newTestOrchestrator(s, e).Commit(context.Background())

	nd := e.Counties[0].NewDistricts[0]
	assert.Equal(t, StateCreationFailed, nd.State)
	assert.Equal(t, 101, nd.ID)
	assert.Equal(t, 102, e.Counties[0].NextDistrictID, "district row exists so the counter moved")
	for _, od := range nd.OldDistricts {
		assert.Equal(t, StateSkipped, od.State)
	}
	for _, w := range s.writes {
		assert.NotContains(t, w, "mark_defunct")
	}
}

func TestCommit_AmbiguousOldDistrictDoesNotStopSiblings(t *testing.T) {
	s := avonStore()
	s.addDistrict(57, 10, "Woodspring", 2, true)
	e := avonEvent(1996)

	summary := newTestOrchestrator(s, e).Commit(context.Background())

	nd := e.Counties[0].NewDistricts[0]
	assert.Equal(t, StateCreated, nd.State)
	assert.Equal(t, StateResolutionFailed, nd.OldDistricts[0].State)
	require.ErrorIs(t, nd.OldDistricts[0].Err, ErrEntityAmbiguous)
	assert.Equal(t, StateAbolished, nd.OldDistricts[1].State)
	assert.Len(t, summary.Failed, 1)
	assert.Equal(t, "LGR004", MapError(summary.Failed[0].Err).Code)
}

func TestCommit_ExistingNewDistrict(t *testing.T) {
	s := avonStore()
	s.addDistrict(101, 10, "North Somerset", 1, true)
	e := avonEvent(1996)

	summary := newTestOrchestrator(s, e).Commit(context.Background())

	nd := e.Counties[0].NewDistricts[0]
	assert.Equal(t, StateExisting, nd.State)
	assert.Equal(t, 101, nd.ID)
	assert.Len(t, summary.Existing, 1)
	assert.Empty(t, summary.Created)
	for _, w := range s.writes {
		assert.False(t, strings.HasPrefix(w, "insert_"), w)
	}
	assert.Equal(t, StateAbolished, nd.OldDistricts[0].State)
}

func TestCommit_TypeMismatch(t *testing.T) {
	s := avonStore()
	s.addDistrict(101, 10, "North Somerset", 3, true)
	e := avonEvent(1996)

	newTestOrchestrator(s, e).Commit(context.Background())

	nd := e.Counties[0].NewDistricts[0]
	assert.Equal(t, StateResolutionFailed, nd.State)
	require.ErrorIs(t, nd.Err, ErrTypeMismatch)
	for _, od := range nd.OldDistricts {
		assert.Equal(t, StateSkipped, od.State)
	}
	assert.Empty(t, s.writes)
}

func TestCommit_UnknownCountySkipsDescendantsOnly(t *testing.T) {
	s := avonStore()
	s.addCounty(20, "Cleveland")
	s.addDistrict(2001, 20, "Langbaurgh", 2, true)

	e := avonEvent(1996)
	e.Counties = append([]*County{{
		Name: "Avalon",
		NewDistricts: []*NewDistrict{{
			Name: "Glastonbury", DistrictType: 1, State: StatePending,
			OldDistricts: []*OldDistrict{{Name: "Tor", State: StatePending}},
		}},
	}}, e.Counties...)
	e.Counties = append(e.Counties, &County{
		Name: "Cleveland",
		NewDistricts: []*NewDistrict{{
			Name: "Redcar and Cleveland", DistrictType: 1, State: StatePending,
			OldDistricts: []*OldDistrict{{Name: "Langbaurgh", State: StatePending}},
		}},
	})

	summary := newTestOrchestrator(s, e).Commit(context.Background())

	avalon := e.Counties[0]
	require.ErrorIs(t, avalon.Err, ErrEntityNotFound)
	assert.Equal(t, StateSkipped, avalon.NewDistricts[0].State)
	assert.Equal(t, StateSkipped, avalon.NewDistricts[0].OldDistricts[0].State)

	assert.Equal(t, StateCreated, e.Counties[1].NewDistricts[0].State)
	cleveland := e.Counties[2].NewDistricts[0]
	assert.Equal(t, StateCreated, cleveland.State)
	assert.Equal(t, 2002, cleveland.ID)
	assert.Equal(t, StateAbolished, cleveland.OldDistricts[0].State)

	assert.Len(t, summary.Created, 2)
	assert.Len(t, summary.Abolished, 3)
	assert.Len(t, summary.Failed, 1)
	assert.Len(t, summary.Skipped, 2)
}

func TestCommit_CountyWithoutDistrictsIsNotAllocated(t *testing.T) {
	s := avonStore()
	s.addCounty(1, "Newshire")

	e := avonEvent(1996)
	e.Counties = append(e.Counties, &County{
		Name: "Newshire",
		NewDistricts: []*NewDistrict{{
			Name: "Newshire Unitary", DistrictType: 1, State: StatePending,
		}},
	})

	summary := newTestOrchestrator(s, e).Commit(context.Background())

	newshire := e.Counties[1]
	require.ErrorIs(t, newshire.Err, ErrEntityNotFound)
	assert.Zero(t, newshire.NextDistrictID)
	assert.Equal(t, StateSkipped, newshire.NewDistricts[0].State)
	assert.Zero(t, newshire.NewDistricts[0].PlannedID)

	assert.Equal(t, 101, e.Counties[0].NewDistricts[0].ID)
	inserts := 0
	for _, w := range s.writes {
		if strings.HasPrefix(w, "insert_district:") {
			inserts++
		}
	}
	assert.Equal(t, 1, inserts)
	assert.Len(t, summary.Created, 1)
}

func TestCommit_CountersAdvanceByOne(t *testing.T) {
	s := avonStore()
	e := avonEvent(1996)
	e.Counties[0].NewDistricts = append(e.Counties[0].NewDistricts,
		&NewDistrict{Name: "Bath and North East Somerset", DistrictType: 1, State: StatePending},
		&NewDistrict{Name: "South Gloucestershire", DistrictType: 1, State: StatePending},
	)

	newTestOrchestrator(s, e).Commit(context.Background())

	ids := []int{}
	for _, nd := range e.Counties[0].NewDistricts {
		ids = append(ids, nd.ID)
	}
	assert.Equal(t, []int{101, 102, 103}, ids)
	assert.Equal(t, 104, e.Counties[0].NextDistrictID)
}

func TestCommit_OldDistrictListedTwice(t *testing.T) {
	s := avonStore()
	e := avonEvent(1996)
	e.Counties[0].NewDistricts = append(e.Counties[0].NewDistricts, &NewDistrict{
		Name: "South Gloucestershire", DistrictType: 1, State: StatePending,
		OldDistricts: []*OldDistrict{{Name: "Northavon", State: StatePending}},
	})

	newTestOrchestrator(s, e).Commit(context.Background())

	second := e.Counties[0].NewDistricts[1].OldDistricts[0]
	assert.Equal(t, StateAbolitionFailed, second.State)
	require.ErrorIs(t, second.Err, gazetteer.ErrNotActive)
	assert.Zero(t, second.TownsMoved)
	assert.Equal(t, 1, s.townsIn(102), "only its own G3 town")
}

func TestDryRun_WritesNothing(t *testing.T) {
	s := avonStore()
	e := avonEvent(1996)

	summary := newTestOrchestrator(s, e).DryRun(context.Background())

	assert.Empty(t, s.writes)
	assert.True(t, summary.DryRun)
	nd := e.Counties[0].NewDistricts[0]
	assert.Equal(t, StateResolved, nd.State)
	assert.Zero(t, nd.ID)
	assert.Equal(t, 101, nd.PlannedID)
	require.Len(t, summary.Created, 1)
	assert.Equal(t, 101, summary.Created[0].ID)
	require.Len(t, summary.Abolished, 2)
	assert.Equal(t, "into North Somerset (101)", summary.Abolished[0].Detail)
	for _, od := range nd.OldDistricts {
		assert.Equal(t, StatePending, od.State)
		assert.NotZero(t, od.ID)
	}
}

func TestDryRun_PlannedIDsMatchCommit(t *testing.T) {
	build := func() *Event {
		e := avonEvent(1996)
		e.Counties[0].NewDistricts = append(e.Counties[0].NewDistricts,
			&NewDistrict{Name: "Bath and North East Somerset", DistrictType: 1, State: StatePending},
		)
		return e
	}

	dry := build()
	newTestOrchestrator(avonStore(), dry).DryRun(context.Background())

	committed := build()
	newTestOrchestrator(avonStore(), committed).Commit(context.Background())

	for i, nd := range dry.Counties[0].NewDistricts {
		assert.Equal(t, committed.Counties[0].NewDistricts[i].ID, nd.PlannedID, nd.Name)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	s := avonStore()
	e := avonEvent(1996)
	o := newTestOrchestrator(s, e)

	o.Resolve(context.Background())
	s.failOn("lookup_county", "", errBoom)
	o.Resolve(context.Background())

	assert.True(t, e.Counties[0].Resolved())
}

func TestCommit_Metrics(t *testing.T) {
	s := avonStore()
	s.addDistrict(57, 10, "Woodspring", 2, true)
	m := NewMetrics()

	newTestOrchestrator(s, avonEvent(1996), WithMetrics(m)).Commit(context.Background())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.steps.WithLabelValues("insert_district", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.steps.WithLabelValues("mark_defunct", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.entities.WithLabelValues("1996", "commit", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.entities.WithLabelValues("1996", "commit", "abolished")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.entities.WithLabelValues("1996", "commit", "failed")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.observeStep("insert_district", nil)
	m.ObserveSummary(Summary{Year: 1996}, 0)
	assert.NoError(t, m.WriteTextfile("/nonexistent/metrics.prom"))
}
