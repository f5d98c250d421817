package httpapi

import (
	"net/http"

	"github.com/DoyleJ11/veto-backend/internal/catalog"
	"github.com/DoyleJ11/veto-backend/internal/store"
)

type createModeRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	IsObjective *bool  `json:"is_objective"`
}

type patchModeRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=64"`
	IsObjective *bool   `json:"is_objective"`
}

type createMapRequest struct {
	Name    string `json:"name" validate:"required,max=64"`
	ModeIDs []uint `json:"mode_ids" validate:"dive,gt=0"`
}

type patchMapRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=64"`
	ModeIDs *[]uint `json:"mode_ids" validate:"omitempty,dive,gt=0"`
}

func (a *api) listModes(w http.ResponseWriter, r *http.Request) {
	modes, err := a.catalog.Modes(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, modes)
}

func (a *api) createMode(w http.ResponseWriter, r *http.Request) {
	var req createModeRequest
	if err := a.decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	isObjective := true
	if req.IsObjective != nil {
		isObjective = *req.IsObjective
	}
	mode, err := a.catalog.CreateMode(r.Context(), req.Name, isObjective)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mode)
}

func (a *api) patchMode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req patchModeRequest
	if err := a.decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	mode, err := a.catalog.UpdateMode(r.Context(), id, store.ModePatch{Name: req.Name, IsObjective: req.IsObjective})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mode)
}

func (a *api) deleteMode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.catalog.DeleteMode(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) listMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := a.catalog.Maps(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, maps)
}

func (a *api) getMap(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	m, err := a.catalog.Map(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *api) createMap(w http.ResponseWriter, r *http.Request) {
	var req createMapRequest
	if err := a.decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	m, err := a.catalog.CreateMap(r.Context(), req.Name, req.ModeIDs)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// patchMap changes only the fields present in the body.
func (a *api) patchMap(w http.ResponseWriter, r *http.Request) {
	var req patchMapRequest
	a.updateMap(w, r, &req, func() store.MapPatch {
		p := store.MapPatch{Name: req.Name}
		if req.ModeIDs != nil {
			p.ModeIDs = *req.ModeIDs
			if p.ModeIDs == nil {
				p.ModeIDs = []uint{}
			}
		}
		return p
	})
}

// putMap replaces the name and the full mode set.
func (a *api) putMap(w http.ResponseWriter, r *http.Request) {
	var req createMapRequest
	a.updateMap(w, r, &req, func() store.MapPatch {
		ids := req.ModeIDs
		if ids == nil {
			ids = []uint{}
		}
		return store.MapPatch{Name: &req.Name, ModeIDs: ids}
	})
}

func (a *api) updateMap(w http.ResponseWriter, r *http.Request, req any, patch func() store.MapPatch) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.decode(w, r, req); err != nil {
		a.writeError(w, r, err)
		return
	}
	m, err := a.catalog.UpdateMap(r.Context(), id, patch())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *api) deleteMap(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.catalog.DeleteMap(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func comboFilter(r *http.Request) catalog.ComboFilter {
	q := r.URL.Query()
	return catalog.ComboFilter{Mode: q.Get("mode"), Type: q.Get("type")}
}

func (a *api) listCombos(w http.ResponseWriter, r *http.Request) {
	combos, err := a.catalog.Combos(r.Context(), comboFilter(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, combos)
}

func (a *api) groupedCombos(w http.ResponseWriter, r *http.Request) {
	grouped, err := a.catalog.GroupedCombos(r.Context(), comboFilter(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grouped)
}
