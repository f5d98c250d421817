package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// SeedMode lists a mode and the maps it is played on.
type SeedMode struct {
	Name string
	Maps []string
}

// HCSCatalog is the official HCS 2025 map pool.
var HCSCatalog = []SeedMode{
	{Name: "Slayer", Maps: []string{"Aquarius", "Live Fire", "Origin", "Recharge", "Solitude", "Streets"}},
	{Name: "Capture the Flag", Maps: []string{"Aquarius", "Forbidden", "Fortress", "Origin"}},
	{Name: "King of the Hill", Maps: []string{"Live Fire", "Recharge", "Lattice"}},
	{Name: "Oddball", Maps: []string{"Live Fire", "Recharge", "Lattice"}},
	{Name: "Strongholds", Maps: []string{"Live Fire", "Recharge", "Lattice"}},
	{Name: "Neutral Bomb", Maps: []string{"Aquarius"}},
}

type SeedResult struct {
	ModesCreated int
	MapsCreated  int
	ModesPruned  int
	MapsPruned   int
}

// Seed upserts the given modes and maps. Every seeded map ends up with exactly
// the modes listed for it; running it twice changes nothing. Modes named
// slayerMode are non-objective.
//
// Maps and modes outside the pool are deleted. Ones still referenced by a
// round or ban are kept for history but lose their map links, so they drop
// out of every legal combo.
func Seed(ctx context.Context, db *gorm.DB, pool []SeedMode, slayerMode string) (SeedResult, error) {
	var res SeedResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		mapModes := make(map[string][]Mode)
		var mapOrder []string

		for _, sm := range pool {
			mode, created, err := ensureMode(tx, sm.Name, sm.Name != slayerMode)
			if err != nil {
				return err
			}
			if created {
				res.ModesCreated++
			}
			for _, name := range sm.Maps {
				if _, seen := mapModes[name]; !seen {
					mapOrder = append(mapOrder, name)
				}
				mapModes[name] = append(mapModes[name], mode)
			}
		}

		modeNames := make([]string, 0, len(pool))
		for _, sm := range pool {
			modeNames = append(modeNames, sm.Name)
		}

		for _, name := range mapOrder {
			var m Map
			err := tx.Where("name = ?", name).First(&m).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				m = Map{Name: name}
				if err := tx.Omit("Modes").Create(&m).Error; err != nil {
					return fmt.Errorf("seed map %q: %w", name, err)
				}
				res.MapsCreated++
			case err != nil:
				return err
			}
			if err := tx.Model(&m).Association("Modes").Replace(mapModes[name]); err != nil {
				return fmt.Errorf("seed map %q modes: %w", name, err)
			}
		}

		var err error
		if res.MapsPruned, err = pruneMaps(tx, mapOrder); err != nil {
			return err
		}
		res.ModesPruned, err = pruneModes(tx, modeNames)
		return err
	})
	return res, err
}

func pruneMaps(tx *gorm.DB, keep []string) (int, error) {
	var stale []Map
	if err := tx.Where("name NOT IN ?", keep).Find(&stale).Error; err != nil {
		return 0, err
	}
	pruned := 0
	for _, m := range stale {
		if err := tx.Exec("DELETE FROM map_modes WHERE map_id = ?", m.ID).Error; err != nil {
			return 0, err
		}
		inUse, err := referenced(tx, "map_id = ?", "map_id = ?", m.ID)
		if err != nil {
			return 0, err
		}
		if inUse {
			continue
		}
		if err := tx.Delete(&m).Error; err != nil {
			return 0, fmt.Errorf("prune map %q: %w", m.Name, err)
		}
		pruned++
	}
	return pruned, nil
}

func pruneModes(tx *gorm.DB, keep []string) (int, error) {
	var stale []Mode
	if err := tx.Where("name NOT IN ?", keep).Find(&stale).Error; err != nil {
		return 0, err
	}
	pruned := 0
	for _, m := range stale {
		if err := tx.Exec("DELETE FROM map_modes WHERE mode_id = ?", m.ID).Error; err != nil {
			return 0, err
		}
		inUse, err := referenced(tx, "mode_id = ?", "objective_mode_id = ?", m.ID)
		if err != nil {
			return 0, err
		}
		if inUse {
			continue
		}
		if err := tx.Delete(&m).Error; err != nil {
			return 0, fmt.Errorf("prune mode %q: %w", m.Name, err)
		}
		pruned++
	}
	return pruned, nil
}

func ensureMode(tx *gorm.DB, name string, isObjective bool) (Mode, bool, error) {
	var m Mode
	err := tx.Where("name = ?", name).First(&m).Error
	if err == nil {
		if m.IsObjective != isObjective {
			if err := tx.Model(&m).Update("is_objective", isObjective).Error; err != nil {
				return Mode{}, false, err
			}
		}
		return m, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Mode{}, false, err
	}
	m = Mode{Name: name, IsObjective: isObjective}
	if err := tx.Create(&m).Error; err != nil {
		return Mode{}, false, fmt.Errorf("seed mode %q: %w", name, err)
	}
	return m, true, nil
}
