package gazetteer

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Store runs gazetteer queries against a single database handle.
type Store struct {
	db DBTX
}

// New creates a Store over db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

const lookupCounties = `
SELECT c.county_id, c.index_name, MAX(d.district_id)
FROM counties AS c
JOIN districts AS d ON d.county_id = c.county_id
WHERE c.index_name = $1
GROUP BY c.county_id, c.index_name
ORDER BY c.county_id`

// LookupCounties returns every county whose index name is name.
func (s *Store) LookupCounties(ctx context.Context, name string) ([]County, error) {
	rows, err := s.db.Query(ctx, lookupCounties, name)
	if err != nil {
		return nil, fmt.Errorf("lookup county %q: %w", name, err)
	}
	defer rows.Close()

	var counties []County
	for rows.Next() {
		var c County
		if err := rows.Scan(&c.ID, &c.IndexName, &c.MaxDistrictID); err != nil {
			return nil, fmt.Errorf("scan county: %w", err)
		}
		counties = append(counties, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lookup county %q: %w", name, err)
	}
	return counties, nil
}

const districtColumns = `district_id, county_id, index_name, display_name, district_type_id,
	npm_admin_district, gss_admin_area_code, inauguration_date, abolition_date`

const lookupDistricts = `
SELECT ` + districtColumns + `
FROM districts
WHERE index_name = $1 AND county_id = $2
ORDER BY district_id`

// LookupDistricts returns every district called name in the county,
// active or defunct.
func (s *Store) LookupDistricts(ctx context.Context, name string, countyID int) ([]District, error) {
	rows, err := s.db.Query(ctx, lookupDistricts, name, countyID)
	if err != nil {
		return nil, fmt.Errorf("lookup district %q in county %d: %w", name, countyID, err)
	}
	return collectDistricts(rows)
}

const findDistrictsForGSS = `
SELECT ` + districtColumns + `
FROM districts
WHERE index_name = $1 AND district_type_id <> $2
ORDER BY district_id`

// FindDistrictsForGSS returns the districts an admin-area code row called
// name could apply to.
func (s *Store) FindDistrictsForGSS(ctx context.Context, name string) ([]District, error) {
	rows, err := s.db.Query(ctx, findDistrictsForGSS, name, GSSExcludedDistrictType)
	if err != nil {
		return nil, fmt.Errorf("find district %q: %w", name, err)
	}
	return collectDistricts(rows)
}

func collectDistricts(rows pgx.Rows) ([]District, error) {
	defer rows.Close()

	var districts []District
	for rows.Next() {
		var d District
		if err := rows.Scan(
			&d.ID,
			&d.CountyID,
			&d.IndexName,
			&d.DisplayName,
			&d.DistrictType,
			&d.AdminDistrict,
			&d.GSSCode,
			&d.InaugurationDate,
			&d.AbolitionDate,
		); err != nil {
			return nil, fmt.Errorf("scan district: %w", err)
		}
		districts = append(districts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read districts: %w", err)
	}
	return districts, nil
}

const insertDistrict = `
INSERT INTO districts (
	district_id, county_id, index_name, display_name, district_type_id,
	npm_admin_district, gss_admin_area_code, inauguration_date, abolition_date
) VALUES ($1, $2, $3, $4, $5, TRUE, NULL, $6, NULL)`

// InsertDistrict adds an active admin district with no abolition date and
// no GSS code.
func (s *Store) InsertDistrict(ctx context.Context, d NewDistrict) error {
	_, err := s.db.Exec(ctx, insertDistrict,
		d.ID,
		d.CountyID,
		d.IndexName,
		d.DisplayName,
		d.DistrictType,
		toPgDate(d.InaugurationDate),
	)
	if err != nil {
		return fmt.Errorf("insert district %d: %w", d.ID, err)
	}
	return nil
}

const insertTown = `
INSERT INTO towns (district_id, index_name, display_name, town_type_id)
VALUES ($1, $2, $3, $4)
RETURNING town_id`

// InsertTown adds a towns row and returns its town_id.
func (s *Store) InsertTown(ctx context.Context, t NewTown) (int, error) {
	var id int
	err := s.db.QueryRow(ctx, insertTown, t.DistrictID, t.IndexName, t.DisplayName, t.TownType).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert town %q: %w", t.IndexName, err)
	}
	return id, nil
}

const insertLocality = `
INSERT INTO localities (town_id, locality_type_id, index_name, display_name)
VALUES ($1, $2, $3, $4)
RETURNING locality_id`

// InsertLocality adds a localities row and returns its locality_id.
func (s *Store) InsertLocality(ctx context.Context, l NewLocality) (int, error) {
	var id int
	err := s.db.QueryRow(ctx, insertLocality, l.TownID, l.LocalityType, l.IndexName, l.DisplayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert locality %q: %w", l.IndexName, err)
	}
	return id, nil
}

const markDistrictDefunct = `
UPDATE districts
SET npm_admin_district = FALSE, abolition_date = $2
WHERE district_id = $1 AND npm_admin_district = TRUE`

// MarkDistrictDefunct clears the active flag and sets the abolition date.
// A district that is already defunct yields ErrNotActive.
func (s *Store) MarkDistrictDefunct(ctx context.Context, districtID int, abolished time.Time) error {
	tag, err := s.db.Exec(ctx, markDistrictDefunct, districtID, toPgDate(abolished))
	if err != nil {
		return fmt.Errorf("update district %d: %w", districtID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update district %d: %w", districtID, ErrNotActive)
	}
	return nil
}

const reparentTowns = `
UPDATE towns
SET district_id = $1
WHERE district_id = $2 AND town_type_id <> $3`

// ReparentTowns moves towns from one district to another, leaving towns
// of excludeTownType behind.
func (s *Store) ReparentTowns(ctx context.Context, fromDistrict, toDistrict, excludeTownType int) (int64, error) {
	tag, err := s.db.Exec(ctx, reparentTowns, toDistrict, fromDistrict, excludeTownType)
	if err != nil {
		return 0, fmt.Errorf("move towns from %d to %d: %w", fromDistrict, toDistrict, err)
	}
	return tag.RowsAffected(), nil
}

const reparentGazetteerEntries = `
UPDATE abc_gazetteer
SET district_id = $1
WHERE district_id = $2`

// ReparentGazetteerEntries moves abc_gazetteer entries from one district to another.
func (s *Store) ReparentGazetteerEntries(ctx context.Context, fromDistrict, toDistrict int) (int64, error) {
	tag, err := s.db.Exec(ctx, reparentGazetteerEntries, toDistrict, fromDistrict)
	if err != nil {
		return 0, fmt.Errorf("move abc_gazetteer entries from %d to %d: %w", fromDistrict, toDistrict, err)
	}
	return tag.RowsAffected(), nil
}

const setDistrictGSS = `
UPDATE districts
SET gss_admin_area_code = $2
WHERE district_id = $1`

// SetDistrictGSS stores a GSS admin-area code against a district.
func (s *Store) SetDistrictGSS(ctx context.Context, districtID int, code string) error {
	if _, err := s.db.Exec(ctx, setDistrictGSS, districtID, strings.ToUpper(code)); err != nil {
		return fmt.Errorf("set gss code on district %d: %w", districtID, err)
	}
	return nil
}

// CountRows returns the number of rows in one of the gazetteer Tables.
func (s *Store) CountRows(ctx context.Context, table string) (int64, error) {
	if !slices.Contains(Tables, table) {
		return 0, fmt.Errorf("unknown table: %s", table)
	}

	q := "SELECT COUNT(*) FROM " + pgx.Identifier{table}.Sanitize()
	var n int64
	if err := s.db.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// TableCounts returns the row count of every gazetteer table, in Tables order.
func (s *Store) TableCounts(ctx context.Context) ([]TableCount, error) {
	counts := make([]TableCount, 0, len(Tables))
	for _, table := range Tables {
		n, err := s.CountRows(ctx, table)
		if err != nil {
			return nil, err
		}
		counts = append(counts, TableCount{Table: table, Rows: n})
	}
	return counts, nil
}
