// Package gazetteer provides access to the NPADB gazetteer tables
// (counties, districts, towns, localities, abc_gazetteer) over pgx.
package gazetteer

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the interface for database operations.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const (
	// G3TownType is the town_type_id of a district-level generic town.
	G3TownType = 57472

	// G3LocalityType is the locality_type_id of a district-level generic locality.
	G3LocalityType = 5

	// GSSExcludedDistrictType is never matched when importing GSS admin-area codes.
	GSSExcludedDistrictType = 17
)

// ErrNotActive is returned when an update guarded on npm_admin_district
// touches no rows.
var ErrNotActive = errors.New("district is not an active admin district")

// County is a counties row together with the highest district id it holds.
type County struct {
	ID            int
	IndexName     string
	MaxDistrictID int // 0 when the county has no districts
}

// District is a districts row.
type District struct {
	ID               int
	CountyID         int
	IndexName        string
	DisplayName      string
	DistrictType     int
	AdminDistrict    bool // npm_admin_district: currently active
	GSSCode          pgtype.Text
	InaugurationDate pgtype.Date
	AbolitionDate    pgtype.Date
}

// NewDistrict holds the values for a districts insert.
type NewDistrict struct {
	ID               int
	CountyID         int
	IndexName        string
	DisplayName      string
	DistrictType     int
	InaugurationDate time.Time
}

// NewTown holds the values for a towns insert.
type NewTown struct {
	DistrictID  int
	IndexName   string
	DisplayName string
	TownType    int
}

// NewLocality holds the values for a localities insert.
type NewLocality struct {
	TownID       int
	LocalityType int
	IndexName    string
	DisplayName  string
}

// Tables lists the gazetteer tables in display order.
var Tables = []string{
	"nations",
	"counties",
	"district_types",
	"districts",
	"town_type_groups",
	"town_types",
	"towns",
	"locality_types",
	"localities",
	"abc_gazetteer",
}

// TableCount is the row count of one gazetteer table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// toPgDate converts a calendar date to pgtype.Date, dropping any time of day.
func toPgDate(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{Valid: false}
	}
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}
