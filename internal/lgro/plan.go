package lgro

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/natashamoorfield/npm-npadb-admin/internal/gazetteer"
)

// Planner loads a year's dataset and dry-runs it against the gazetteer.
type Planner struct {
	Lookup   Lookup
	DataRoot string
	Logger   *slog.Logger
	Metrics  *Metrics
}

// Plan returns the resolved event and its dry-run summary. Dataset errors
// are returned; entity failures are recorded in the event and summary.
func (p *Planner) Plan(ctx context.Context, year int) (*Event, Summary, error) {
	event, err := LoadEvent(p.DataRoot, year)
	if err != nil {
		return nil, Summary{}, err
	}

	opts := []Option{WithMetrics(p.Metrics)}
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	o := New(readOnly{p.Lookup}, event, opts...)
	return event, o.DryRun(ctx), nil
}

// readOnly satisfies Store for dry runs, which only ever resolve.
type readOnly struct {
	Lookup
}

func (readOnly) InsertDistrict(context.Context, gazetteer.NewDistrict) error {
	return errReadOnly
}

func (readOnly) InsertTown(context.Context, gazetteer.NewTown) (int, error) {
	return 0, errReadOnly
}

func (readOnly) InsertLocality(context.Context, gazetteer.NewLocality) (int, error) {
	return 0, errReadOnly
}

func (readOnly) MarkDistrictDefunct(context.Context, int, time.Time) error {
	return errReadOnly
}

func (readOnly) ReparentTowns(context.Context, int, int, int) (int64, error) {
	return 0, errReadOnly
}

func (readOnly) ReparentGazetteerEntries(context.Context, int, int) (int64, error) {
	return 0, errReadOnly
}

var errReadOnly = errors.New("gazetteer opened read-only")
