package lgro

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/natashamoorfield/npm-npadb-admin/internal/gazetteer"
)

type fakeTown struct {
	districtID int
	townType   int
}

// fakeStore is an in-memory gazetteer. Failures are injected per operation
// and entity name via fail.
type fakeStore struct {
	counties  []gazetteer.County
	districts []gazetteer.District
	towns     map[int]fakeTown
	entries   map[int]int // abc_gazetteer id -> district id

	localities map[int]int // locality id -> town id

	nextTownID     int
	nextLocalityID int

	fail   map[string]error // "op" or "op:name"
	writes []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		towns:          make(map[int]fakeTown),
		entries:        make(map[int]int),
		localities:     make(map[int]int),
		nextTownID:     9000,
		nextLocalityID: 7000,
		fail:           make(map[string]error),
	}
}

func (s *fakeStore) addCounty(id int, name string) {
	s.counties = append(s.counties, gazetteer.County{ID: id, IndexName: name})
}

func (s *fakeStore) addDistrict(id, countyID int, name string, districtType int, active bool) {
	s.districts = append(s.districts, gazetteer.District{
		ID:            id,
		CountyID:      countyID,
		IndexName:     name,
		DisplayName:   name,
		DistrictType:  districtType,
		AdminDistrict: active,
	})
}

func (s *fakeStore) addTown(id, districtID, townType int) {
	s.towns[id] = fakeTown{districtID: districtID, townType: townType}
}

func (s *fakeStore) addEntry(id, districtID int) {
	s.entries[id] = districtID
}

func (s *fakeStore) failOn(op, name string, err error) {
	key := op
	if name != "" {
		key += ":" + name
	}
	s.fail[key] = err
}

func (s *fakeStore) injected(op, name string) error {
	if err, ok := s.fail[op+":"+name]; ok {
		return err
	}
	return s.fail[op]
}

func (s *fakeStore) district(id int) (gazetteer.District, bool) {
	for _, d := range s.districts {
		if d.ID == id {
			return d, true
		}
	}
	return gazetteer.District{}, false
}

func (s *fakeStore) townsIn(districtID int) int {
	n := 0
	for _, t := range s.towns {
		if t.districtID == districtID {
			n++
		}
	}
	return n
}

func (s *fakeStore) entriesIn(districtID int) int {
	n := 0
	for _, d := range s.entries {
		if d == districtID {
			n++
		}
	}
	return n
}

func (s *fakeStore) LookupCounties(_ context.Context, name string) ([]gazetteer.County, error) {
	if err := s.injected("lookup_county", name); err != nil {
		return nil, err
	}
	var out []gazetteer.County
	for _, c := range s.counties {
		if c.IndexName != name {
			continue
		}
		for _, d := range s.districts {
			if d.CountyID == c.ID && d.ID > c.MaxDistrictID {
				c.MaxDistrictID = d.ID
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeStore) LookupDistricts(_ context.Context, name string, countyID int) ([]gazetteer.District, error) {
	if err := s.injected("lookup_district", name); err != nil {
		return nil, err
	}
	var out []gazetteer.District
	for _, d := range s.districts {
		if d.IndexName == name && d.CountyID == countyID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeStore) InsertDistrict(_ context.Context, d gazetteer.NewDistrict) error {
	if err := s.injected("insert_district", d.IndexName); err != nil {
		return err
	}
	if _, ok := s.district(d.ID); ok {
		return fmt.Errorf("duplicate key value violates unique constraint \"districts_pkey\"")
	}
	s.writes = append(s.writes, fmt.Sprintf("insert_district:%d", d.ID))
	s.districts = append(s.districts, gazetteer.District{
		ID:            d.ID,
		CountyID:      d.CountyID,
		IndexName:     d.IndexName,
		DisplayName:   d.DisplayName,
		DistrictType:  d.DistrictType,
		AdminDistrict: true,
	})
	return nil
}

func (s *fakeStore) InsertTown(_ context.Context, t gazetteer.NewTown) (int, error) {
	if err := s.injected("insert_town", t.IndexName); err != nil {
		return 0, err
	}
	s.nextTownID++
	id := s.nextTownID
	s.writes = append(s.writes, fmt.Sprintf("insert_town:%d", t.DistrictID))
	s.addTown(id, t.DistrictID, t.TownType)
	return id, nil
}

func (s *fakeStore) InsertLocality(_ context.Context, l gazetteer.NewLocality) (int, error) {
	if err := s.injected("insert_locality", l.IndexName); err != nil {
		return 0, err
	}
	s.nextLocalityID++
	id := s.nextLocalityID
	s.writes = append(s.writes, fmt.Sprintf("insert_locality:%d", l.TownID))
	s.localities[id] = l.TownID
	return id, nil
}

func (s *fakeStore) MarkDistrictDefunct(_ context.Context, districtID int, abolished time.Time) error {
	d, _ := s.district(districtID)
	if err := s.injected("mark_defunct", d.IndexName); err != nil {
		return err
	}
	for i := range s.districts {
		if s.districts[i].ID == districtID && s.districts[i].AdminDistrict {
			s.districts[i].AdminDistrict = false
			s.districts[i].AbolitionDate.Time = abolished
			s.districts[i].AbolitionDate.Valid = true
			s.writes = append(s.writes, fmt.Sprintf("mark_defunct:%d", districtID))
			return nil
		}
	}
	return fmt.Errorf("update district %d: %w", districtID, gazetteer.ErrNotActive)
}

func (s *fakeStore) ReparentTowns(_ context.Context, from, to, excludeType int) (int64, error) {
	d, _ := s.district(from)
	if err := s.injected("move_towns", d.IndexName); err != nil {
		return 0, err
	}
	var n int64
	for id, t := range s.towns {
		if t.districtID == from && t.townType != excludeType {
			t.districtID = to
			s.towns[id] = t
			n++
		}
	}
	s.writes = append(s.writes, fmt.Sprintf("move_towns:%d", from))
	return n, nil
}

func (s *fakeStore) ReparentGazetteerEntries(_ context.Context, from, to int) (int64, error) {
	d, _ := s.district(from)
	if err := s.injected("move_entries", d.IndexName); err != nil {
		return 0, err
	}
	var n int64
	for id, districtID := range s.entries {
		if districtID == from {
			s.entries[id] = to
			n++
		}
	}
	s.writes = append(s.writes, fmt.Sprintf("move_entries:%d", from))
	return n, nil
}

var errBoom = errors.New("boom: connection reset by peer")

// recordingReporter keeps every message it receives.
type recordingReporter struct {
	lines []string
}

func (r *recordingReporter) add(level, entity string, id int, lines []string) {
	for _, l := range lines {
		r.lines = append(r.lines, fmt.Sprintf("%s %s(%d): %s", level, entity, id, l))
	}
}

func (r *recordingReporter) Info(entity string, id int, lines ...string) {
	r.add("INFO", entity, id, lines)
}

func (r *recordingReporter) Warn(entity string, id int, lines ...string) {
	r.add("WARN", entity, id, lines)
}

func (r *recordingReporter) Error(entity string, id int, lines ...string) {
	r.add("ERROR", entity, id, lines)
}

// avonStore is county Avon (10) with Woodspring (55) and Northavon (56)
// active and a defunct Kingswood (100), so the next district id is 101.
func avonStore() *fakeStore {
	s := newFakeStore()
	s.addCounty(10, "Avon")
	s.addDistrict(55, 10, "Woodspring", 2, true)
	s.addDistrict(56, 10, "Northavon", 2, true)
	s.addDistrict(100, 10, "Kingswood", 2, false)

	s.addTown(501, 55, 1)
	s.addTown(502, 55, 1)
	s.addTown(503, 55, gazetteer.G3TownType)
	s.addTown(601, 56, 1)
	s.addTown(603, 56, gazetteer.G3TownType)

	s.addEntry(1, 55)
	s.addEntry(2, 55)
	s.addEntry(3, 56)
	return s
}

func avonEvent(year int) *Event {
	return &Event{
		Year: year,
		Counties: []*County{{
			Name: "Avon",
			NewDistricts: []*NewDistrict{{
				Name:         "North Somerset",
				DistrictType: 1,
				State:        StatePending,
				OldDistricts: []*OldDistrict{
					{Name: "Woodspring", State: StatePending},
					{Name: "Northavon", State: StatePending},
				},
			}},
		}},
	}
}
