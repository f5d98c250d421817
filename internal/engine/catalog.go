package engine

import "slices"

type Mode struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	IsObjective bool   `json:"is_objective"`
}

type Map struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	ModeIDs []uint `json:"mode_ids"`
}

// Catalog is a read-only snapshot of maps, modes and their legality relation.
// SlayerModeID names the one non-objective mode used by every Slayer operation.
type Catalog struct {
	Maps         map[uint]Map
	Modes        map[uint]Mode
	SlayerModeID uint
}

func NewCatalog(maps []Map, modes []Mode, slayerModeID uint) Catalog {
	c := Catalog{
		Maps:         make(map[uint]Map, len(maps)),
		Modes:        make(map[uint]Mode, len(modes)),
		SlayerModeID: slayerModeID,
	}
	for _, m := range maps {
		c.Maps[m.ID] = m
	}
	for _, m := range modes {
		c.Modes[m.ID] = m
	}
	return c
}

// Supports reports whether modeID is legal on mapID.
func (c Catalog) Supports(mapID, modeID uint) bool {
	m, ok := c.Maps[mapID]
	if !ok {
		return false
	}
	return slices.Contains(m.ModeIDs, modeID)
}

func (c Catalog) SlayerMode() (Mode, bool) {
	if c.SlayerModeID == 0 {
		return Mode{}, false
	}
	m, ok := c.Modes[c.SlayerModeID]
	if !ok || m.IsObjective {
		return Mode{}, false
	}
	return m, true
}

// ResolveSlayerMode picks the designated Slayer mode: the only non-objective
// mode, or the non-objective mode called preferred when there are several.
func ResolveSlayerMode(modes []Mode, preferred string) (uint, bool) {
	var candidates []Mode
	for _, m := range modes {
		if !m.IsObjective {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 1 {
		return candidates[0].ID, true
	}
	for _, m := range candidates {
		if m.Name == preferred {
			return m.ID, true
		}
	}
	return 0, false
}
