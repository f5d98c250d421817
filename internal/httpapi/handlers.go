package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/veto-backend/internal/engine"
	"github.com/DoyleJ11/veto-backend/internal/types"
	"github.com/DoyleJ11/veto-backend/internal/veto"
)

type createSeriesRequest struct {
	TeamA string `json:"team_a" validate:"max=64"`
	TeamB string `json:"team_b" validate:"max=64"`
}

type assignRolesRequest struct {
	TeamA string `json:"team_a" validate:"required,max=64"`
	TeamB string `json:"team_b" validate:"required,max=64"`
}

type confirmFormatRequest struct {
	SeriesType string `json:"series_type" validate:"required"`
}

// Ban and pick bodies also accept the short "map" and "mode" keys, and
// "objective_mode_id", as aliases.
type comboRequest struct {
	Team   string `json:"team" validate:"required"`
	MapID  uint   `json:"map_id" validate:"required"`
	ModeID uint   `json:"mode_id" validate:"required"`

	Map             uint `json:"map"`
	Mode            uint `json:"mode"`
	ObjectiveModeID uint `json:"objective_mode_id"`
}

func (r *comboRequest) normalize() {
	if r.MapID == 0 {
		r.MapID = r.Map
	}
	if r.ModeID == 0 {
		r.ModeID = r.ObjectiveModeID
	}
	if r.ModeID == 0 {
		r.ModeID = r.Mode
	}
}

type slayerMapRequest struct {
	Team  string `json:"team" validate:"required"`
	MapID uint   `json:"map_id" validate:"required"`

	Map uint `json:"map"`
}

func (r *slayerMapRequest) normalize() {
	if r.MapID == 0 {
		r.MapID = r.Map
	}
}

type opResponse struct {
	Detail string           `json:"detail"`
	Series types.SeriesView `json:"series"`
}

func (a *api) createSeries(w http.ResponseWriter, r *http.Request) {
	var req createSeriesRequest
	if err := a.decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	out, err := a.veto.Create(r.Context(), req.TeamA, req.TeamB)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.NewSeriesView(out.Series, out.Catalog))
}

func (a *api) listSeries(w http.ResponseWriter, r *http.Request) {
	all, cat, err := a.veto.List(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	views := make([]types.SeriesView, 0, len(all))
	for _, s := range all {
		views = append(views, types.NewSeriesView(s, cat))
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *api) getSeries(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out, err := a.veto.Get(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewSeriesView(out.Series, out.Catalog))
}

func (a *api) getSeriesByCode(w http.ResponseWriter, r *http.Request) {
	out, err := a.veto.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewSeriesView(out.Series, out.Catalog))
}

func (a *api) seriesState(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	st, err := a.veto.State(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]engine.State{"state": st})
}

func (a *api) deleteSeries(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.veto.Delete(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// operation adapts a ceremony call to a handler answering {detail, series}.
func (a *api) operation(detail string, run func(w http.ResponseWriter, r *http.Request, id uint) (veto.Outcome, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		out, err := run(w, r, id)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, opResponse{Detail: detail, Series: types.NewSeriesView(out.Series, out.Catalog)})
	}
}

func (a *api) assignRoles() http.HandlerFunc {
	return a.operation("Roles assigned", func(w http.ResponseWriter, r *http.Request, id uint) (veto.Outcome, error) {
		var req assignRolesRequest
		if err := a.decode(w, r, &req); err != nil {
			return veto.Outcome{}, err
		}
		return a.veto.AssignRoles(r.Context(), id, req.TeamA, req.TeamB)
	})
}

func (a *api) confirmFormat() http.HandlerFunc {
	return a.operation("Format confirmed", func(w http.ResponseWriter, r *http.Request, id uint) (veto.Outcome, error) {
		var req confirmFormatRequest
		if err := a.decode(w, r, &req); err != nil {
			return veto.Outcome{}, err
		}
		return a.veto.ConfirmFormat(r.Context(), id, strings.TrimSpace(req.SeriesType))
	})
}

func (a *api) banObjectiveCombo() http.HandlerFunc {
	return a.operation("Objective combo banned", func(w http.ResponseWriter, r *http.Request, id uint) (veto.Outcome, error) {
		var req comboRequest
		if err := a.decode(w, r, &req); err != nil {
			return veto.Outcome{}, err
		}
		return a.veto.BanObjectiveCombo(r.Context(), id, req.Team, req.MapID, req.ModeID)
	})
}

func (a *api) banSlayerMap() http.HandlerFunc {
	return a.operation("Slayer map banned", func(w http.ResponseWriter, r *http.Request, id uint) (veto.Outcome, error) {
		var req slayerMapRequest
		if err := a.decode(w, r, &req); err != nil {
			return veto.Outcome{}, err
		}
		return a.veto.BanSlayerMap(r.Context(), id, req.Team, req.MapID)
	})
}

func (a *api) pickObjectiveCombo() http.HandlerFunc {
	return a.operation("Objective combo picked", func(w http.ResponseWriter, r *http.Request, id uint) (veto.Outcome, error) {
		var req comboRequest
		if err := a.decode(w, r, &req); err != nil {
			return veto.Outcome{}, err
		}
		return a.veto.PickObjectiveCombo(r.Context(), id, req.Team, req.MapID, req.ModeID)
	})
}

func (a *api) pickSlayerMap() http.HandlerFunc {
	return a.operation("Slayer map picked", func(w http.ResponseWriter, r *http.Request, id uint) (veto.Outcome, error) {
		var req slayerMapRequest
		if err := a.decode(w, r, &req); err != nil {
			return veto.Outcome{}, err
		}
		return a.veto.PickSlayerMap(r.Context(), id, req.Team, req.MapID)
	})
}

func (a *api) undo() http.HandlerFunc {
	return a.operation("Last step undone", func(_ http.ResponseWriter, r *http.Request, id uint) (veto.Outcome, error) {
		return a.veto.Undo(r.Context(), id)
	})
}

func (a *api) reset() http.HandlerFunc {
	return a.operation("Series reset", func(_ http.ResponseWriter, r *http.Request, id uint) (veto.Outcome, error) {
		return a.veto.Reset(r.Context(), id)
	})
}
