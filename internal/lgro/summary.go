package lgro

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Entry is one line of a run summary.
type Entry struct {
	Kind   string `json:"kind"` // "county", "new district" or "old district"
	Name   string `json:"name"`
	ID     int    `json:"id,omitempty"`
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code,omitempty"` // message catalogue code of Err
	Err    error  `json:"-"`
}

func newEntry(kind, name string, id int, err error) Entry {
	e := Entry{Kind: kind, Name: name, ID: id, Err: err}
	if err != nil {
		e.Detail = err.Error()
		e.Code = MapError(err).Code
	}
	return e
}

// Summary lists what a run created, abolished and skipped.
type Summary struct {
	Year      int     `json:"year"`
	DryRun    bool    `json:"dryRun"`
	Created   []Entry `json:"created"`
	Existing  []Entry `json:"existing"`
	Abolished []Entry `json:"abolished"`
	Skipped   []Entry `json:"skipped"`
	Failed    []Entry `json:"failed"`
}

// Mode is "dry-run" or "commit".
func (s Summary) Mode() string {
	if s.DryRun {
		return "dry-run"
	}
	return "commit"
}

// Failures counts entities that were skipped or failed.
func (s Summary) Failures() int {
	return len(s.Skipped) + len(s.Failed)
}

// Summarize walks the event graph after a run.
func Summarize(e *Event, dryRun bool) Summary {
	s := Summary{Year: e.Year, DryRun: dryRun}

	for _, c := range e.Counties {
		if c.Err != nil {
			s.Failed = append(s.Failed, newEntry("county", c.Name, c.ID, c.Err))
		}
		for _, nd := range c.NewDistricts {
			s.addNewDistrict(nd, dryRun)
			for _, od := range nd.OldDistricts {
				s.addOldDistrict(od, nd, dryRun)
			}
		}
	}
	return s
}

func (s *Summary) addNewDistrict(nd *NewDistrict, dryRun bool) {
	entry := newEntry("new district", nd.Name, nd.ID, nd.Err)

	switch nd.State {
	case StateCreated:
		s.Created = append(s.Created, entry)
	case StateResolved:
		if dryRun {
			entry.ID = nd.PlannedID
			s.Created = append(s.Created, entry)
		}
	case StateExisting:
		s.Existing = append(s.Existing, entry)
	case StateSkipped:
		s.Skipped = append(s.Skipped, entry)
	case StateResolutionFailed, StateCreationFailed:
		s.Failed = append(s.Failed, entry)
	}
}

func (s *Summary) addOldDistrict(od *OldDistrict, nd *NewDistrict, dryRun bool) {
	entry := newEntry("old district", od.Name, od.ID, od.Err)

	switch od.State {
	case StateAbolished:
		entry.Detail = fmt.Sprintf("into %s (%d): %d towns, %d abc_gazetteer entries",
			nd.Name, nd.ID, od.TownsMoved, od.EntriesMoved)
		s.Abolished = append(s.Abolished, entry)
	case StatePending:
		if dryRun && od.ID != 0 {
			target := nd.ID
			if target == 0 {
				target = nd.PlannedID
			}
			entry.Detail = fmt.Sprintf("into %s (%d)", nd.Name, target)
			s.Abolished = append(s.Abolished, entry)
		}
	case StateSkipped:
		s.Skipped = append(s.Skipped, entry)
	case StateResolutionFailed, StateAbolitionFailed:
		s.Failed = append(s.Failed, entry)
	}
}

// WriteSummary renders s as plain text. Dry runs say what would happen,
// commits what did.
func WriteSummary(w io.Writer, s Summary) error {
	verb := func(did, would string) string {
		if s.DryRun {
			return would
		}
		return did
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Local Government Reorganization %d (%s)\n", s.Year, s.Mode())
	fmt.Fprintln(tw, strings.Repeat("=", 40))

	sections := []struct {
		title   string
		entries []Entry
	}{
		{verb("Created", "Would create"), s.Created},
		{"Already present", s.Existing},
		{verb("Abolished", "Would abolish"), s.Abolished},
		{"Skipped", s.Skipped},
		{"Failed", s.Failed},
	}
	for _, sec := range sections {
		if len(sec.entries) == 0 {
			continue
		}
		fmt.Fprintf(tw, "\n%s (%d):\n", sec.title, len(sec.entries))
		for _, e := range sec.entries {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", e.Kind, e.Name, idString(e.ID), e.Detail)
		}
	}

	fmt.Fprintf(tw, "\n%d skipped, %d failed.\n", len(s.Skipped), len(s.Failed))
	return tw.Flush()
}

// WritePlan renders the resolved graph: county, new districts, old districts.
func WritePlan(w io.Writer, e *Event) error {
	for _, c := range e.Counties {
		if _, err := fmt.Fprintf(w, "%s (%s %s)\n", c.Name, idString(c.ID), idString(c.NextDistrictID)); err != nil {
			return err
		}
		for _, nd := range c.NewDistricts {
			id := nd.ID
			if id == 0 {
				id = nd.PlannedID
			}
			fmt.Fprintf(w, "    %s (%s, %d) %s\n", nd.Name, idString(id), nd.DistrictType, nd.State)
			for _, od := range nd.OldDistricts {
				fmt.Fprintf(w, "        %s (%s) %s\n", od.Name, idString(od.ID), od.State)
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

func idString(id int) string {
	if id == 0 {
		return "-"
	}
	return fmt.Sprint(id)
}
