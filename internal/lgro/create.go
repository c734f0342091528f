package lgro

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/natashamoorfield/npm-npadb-admin/internal/gazetteer"
)

// CreationOutcome is the result of creating one new district.
type CreationOutcome struct {
	DistrictCreated bool
	TownID          int
	LocalityID      int
	Err             error
}

// OK reports whether the district and both G3 placeholders were created.
func (o CreationOutcome) OK() bool {
	return o.DistrictCreated && o.TownID != 0 && o.LocalityID != 0 && o.Err == nil
}

// Creator inserts a new district with its G3 town and locality.
type Creator struct {
	store       Store
	reporter    Reporter
	logger      *slog.Logger
	metrics     *Metrics
	inaugurated time.Time
}

// Create allocates county.NextDistrictID to nd and inserts the district, then
// its G3 town, then its G3 locality. Each insert runs only if the previous one
// succeeded. The county counter advances once the district row exists.
func (c *Creator) Create(ctx context.Context, county *County, nd *NewDistrict) CreationOutcome {
	var out CreationOutcome

	id := county.NextDistrictID
	c.logger.Debug("insert district",
		"district_id", id, "county_id", county.ID, "name", nd.Name,
		"district_type", nd.DistrictType, "inauguration_date", c.inaugurated.Format(time.DateOnly))

	err := c.store.InsertDistrict(ctx, gazetteer.NewDistrict{
		ID:               id,
		CountyID:         county.ID,
		IndexName:        nd.Name,
		DisplayName:      nd.Name,
		DistrictType:     nd.DistrictType,
		InaugurationDate: c.inaugurated,
	})
	c.metrics.observeStep("insert_district", err)
	if err != nil {
		out.Err = stepErr(ErrPersistenceFailure, "insert district", nd.Name, id, err)
		c.reporter.Warn(nd.Name, id,
			fmt.Sprintf("An error occurred creating a district record for %s", nd.Name),
			err.Error(),
			"Skipping creation of district-level (G3) generic town.",
			"Skipping creation of district-level (G3) generic locality.")
		return out
	}
	out.DistrictCreated = true
	nd.ID = id
	county.NextDistrictID++
	c.reporter.Info(nd.Name, id, fmt.Sprintf("Create new district %s (%d) in %s: %s",
		nd.Name, id, county.Name, c.inaugurated.Format(time.DateOnly)))

	townID, err := c.store.InsertTown(ctx, gazetteer.NewTown{
		DistrictID:  id,
		IndexName:   nd.Name,
		DisplayName: nd.Name,
		TownType:    gazetteer.G3TownType,
	})
	c.metrics.observeStep("insert_g3_town", err)
	if err != nil {
		out.Err = stepErr(ErrPersistenceFailure, "insert G3 town", nd.Name, id, err)
		c.reporter.Warn(nd.Name, id,
			fmt.Sprintf("An error occurred inserting district-level (G3) generic town %s", nd.Name),
			err.Error(),
			"Skipping creation of district-level (G3) generic locality.")
		return out
	}
	out.TownID = townID
	c.reporter.Info(nd.Name, id, fmt.Sprintf("Create a new district-level (G3) generic town for %s", nd.Name))
	c.logger.Debug("inserted G3 town", "town_id", townID, "district_id", id)

	localityID, err := c.store.InsertLocality(ctx, gazetteer.NewLocality{
		TownID:       townID,
		LocalityType: gazetteer.G3LocalityType,
		IndexName:    nd.Name,
		DisplayName:  nd.Name,
	})
	c.metrics.observeStep("insert_g3_locality", err)
	if err != nil {
		out.Err = stepErr(ErrPersistenceFailure, "insert G3 locality", nd.Name, id, err)
		c.reporter.Warn(nd.Name, id,
			fmt.Sprintf("An error occurred inserting district-level (G3) generic locality for %s", nd.Name),
			err.Error())
		return out
	}
	out.LocalityID = localityID
	c.reporter.Info(nd.Name, id, fmt.Sprintf("Create a new district-level (G3) generic locality for %s in generic town #%d",
		nd.Name, townID))
	c.logger.Debug("inserted G3 locality", "locality_id", localityID, "town_id", townID)

	return out
}
