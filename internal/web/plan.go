package web

import (
	"net/http"
	"time"

	"github.com/natashamoorfield/npm-npadb-admin/internal/lgro"
	"github.com/natashamoorfield/npm-npadb-admin/internal/logging"
	"github.com/natashamoorfield/npm-npadb-admin/internal/web/templates"
)

// PlanResponse is the JSON body of GET /api/lgro/{year}.
type PlanResponse struct {
	Year         int          `json:"year"`
	Inauguration string       `json:"inauguration"`
	Abolition    string       `json:"abolition"`
	Counties     []CountyPlan `json:"counties"`
	Summary      lgro.Summary `json:"summary"`
}

type CountyPlan struct {
	Name           string            `json:"name"`
	ID             int               `json:"id,omitempty"`
	NextDistrictID int               `json:"nextDistrictId,omitempty"`
	Error          string            `json:"error,omitempty"`
	NewDistricts   []NewDistrictPlan `json:"newDistricts"`
}

type NewDistrictPlan struct {
	Name         string            `json:"name"`
	DistrictType int               `json:"districtType"`
	ID           int               `json:"id,omitempty"`
	PlannedID    int               `json:"plannedId,omitempty"`
	State        lgro.State        `json:"state"`
	Error        string            `json:"error,omitempty"`
	OldDistricts []OldDistrictPlan `json:"oldDistricts"`
}

type OldDistrictPlan struct {
	Name  string     `json:"name"`
	ID    int        `json:"id,omitempty"`
	State lgro.State `json:"state"`
	Error string     `json:"error,omitempty"`
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func newPlanResponse(e *lgro.Event, s lgro.Summary) PlanResponse {
	resp := PlanResponse{
		Year:         e.Year,
		Inauguration: e.InaugurationDate().Format(time.DateOnly),
		Abolition:    e.AbolitionDate().Format(time.DateOnly),
		Counties:     make([]CountyPlan, 0, len(e.Counties)),
		Summary:      s,
	}
	for _, c := range e.Counties {
		cp := CountyPlan{
			Name:           c.Name,
			ID:             c.ID,
			NextDistrictID: c.NextDistrictID,
			Error:          errText(c.Err),
			NewDistricts:   make([]NewDistrictPlan, 0, len(c.NewDistricts)),
		}
		for _, nd := range c.NewDistricts {
			np := NewDistrictPlan{
				Name:         nd.Name,
				DistrictType: nd.DistrictType,
				ID:           nd.ID,
				PlannedID:    nd.PlannedID,
				State:        nd.State,
				Error:        errText(nd.Err),
				OldDistricts: make([]OldDistrictPlan, 0, len(nd.OldDistricts)),
			}
			for _, od := range nd.OldDistricts {
				np.OldDistricts = append(np.OldDistricts, OldDistrictPlan{
					Name:  od.Name,
					ID:    od.ID,
					State: od.State,
					Error: errText(od.Err),
				})
			}
			cp.NewDistricts = append(cp.NewDistricts, np)
		}
		resp.Counties = append(resp.Counties, cp)
	}
	return resp
}

func (s *Server) plan(r *http.Request) (*lgro.Event, lgro.Summary, error) {
	year, err := yearParam(r)
	if err != nil {
		return nil, lgro.Summary{}, err
	}

	logging.WithFields(r.Context(), "year", year).Debug("planning reorganization")
	return s.deps.Planner.Plan(r.Context(), year)
}

func (s *Server) handlePlanJSON(w http.ResponseWriter, r *http.Request) {
	event, summary, err := s.plan(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, newPlanResponse(event, summary))
}

func (s *Server) handlePlanPage(w http.ResponseWriter, r *http.Request) {
	event, summary, err := s.plan(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.PlanPage(event, summary).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render plan page", "error", err)
	}
}
