package lgro

import (
	"context"
	"fmt"
	"time"

	"github.com/natashamoorfield/npm-npadb-admin/internal/gazetteer"
)

// Lookup is the read side of the gazetteer used during resolution.
type Lookup interface {
	LookupCounties(ctx context.Context, name string) ([]gazetteer.County, error)
	LookupDistricts(ctx context.Context, name string, countyID int) ([]gazetteer.District, error)
}

// Store is everything the reorganization needs from the gazetteer.
// Satisfied by *gazetteer.Store.
type Store interface {
	Lookup
	InsertDistrict(ctx context.Context, d gazetteer.NewDistrict) error
	InsertTown(ctx context.Context, t gazetteer.NewTown) (int, error)
	InsertLocality(ctx context.Context, l gazetteer.NewLocality) (int, error)
	MarkDistrictDefunct(ctx context.Context, districtID int, abolished time.Time) error
	ReparentTowns(ctx context.Context, fromDistrict, toDistrict, excludeTownType int) (int64, error)
	ReparentGazetteerEntries(ctx context.Context, fromDistrict, toDistrict int) (int64, error)
}

// ResolveCounty returns the county's id and the next free district id in it.
// A county with no districts has no counter and is reported as not found.
func ResolveCounty(ctx context.Context, l Lookup, name string) (id, nextDistrictID int, err error) {
	counties, err := l.LookupCounties(ctx, name)
	if err != nil {
		return 0, 0, stepErr(ErrPersistenceFailure, "resolve county", name, 0, err)
	}

	switch n := len(counties); n {
	case 0:
		return 0, 0, stepErr(ErrEntityNotFound, "resolve county", name, 0, nil)
	case 1:
		c := counties[0]
		if c.MaxDistrictID == 0 {
			return 0, 0, stepErr(ErrEntityNotFound, "resolve county", name, 0,
				fmt.Errorf("county %q (%d) has no districts", name, c.ID))
		}
		return c.ID, c.MaxDistrictID + 1, nil
	default:
		return 0, 0, stepErr(ErrEntityAmbiguous, "resolve county", name, 0,
			fmt.Errorf("%d entries for county %q found", n, name))
	}
}

// ResolveNewDistrict looks for an active admin district of that name in the
// county. No match means the district must be created and returns (0, 0, nil).
func ResolveNewDistrict(ctx context.Context, l Lookup, name string, countyID int) (id, districtType int, err error) {
	districts, err := l.LookupDistricts(ctx, name, countyID)
	if err != nil {
		return 0, 0, stepErr(ErrPersistenceFailure, "resolve new district", name, 0, err)
	}

	active := activeOnly(districts)
	switch n := len(active); n {
	case 0:
		return 0, 0, nil
	case 1:
		return active[0].ID, active[0].DistrictType, nil
	default:
		return 0, 0, stepErr(ErrEntityAmbiguous, "resolve new district", name, 0,
			fmt.Errorf("%d entries for district %q found", n, name))
	}
}

// ResolveOldDistrict returns the id of the single active district of that
// name in the county.
func ResolveOldDistrict(ctx context.Context, l Lookup, name string, countyID int) (int, error) {
	districts, err := l.LookupDistricts(ctx, name, countyID)
	if err != nil {
		return 0, stepErr(ErrPersistenceFailure, "resolve old district", name, 0, err)
	}

	active := activeOnly(districts)
	switch n := len(active); n {
	case 0:
		var cause error
		if len(districts) > 0 {
			cause = fmt.Errorf("district %q (%d) is already defunct", name, districts[0].ID)
		}
		return 0, stepErr(ErrEntityNotFound, "resolve old district", name, 0, cause)
	case 1:
		return active[0].ID, nil
	default:
		return 0, stepErr(ErrEntityAmbiguous, "resolve old district", name, 0,
			fmt.Errorf("%d entries for district %q found", n, name))
	}
}

func activeOnly(districts []gazetteer.District) []gazetteer.District {
	var active []gazetteer.District
	for _, d := range districts {
		if d.AdminDistrict {
			active = append(active, d)
		}
	}
	return active
}
