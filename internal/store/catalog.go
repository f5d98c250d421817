package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/DoyleJ11/veto-backend/internal/engine"
)

type CatalogStore struct {
	db *gorm.DB
}

func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// ModePatch holds optional mode changes. Nil fields are left alone.
type ModePatch struct {
	Name        *string
	IsObjective *bool
}

// MapPatch holds optional map changes. A nil ModeIDs keeps the current mode set.
type MapPatch struct {
	Name    *string
	ModeIDs []uint
}

type Counts struct {
	Maps   int64
	Modes  int64
	Series int64
	Rounds int64
	Bans   int64
}

func (c *CatalogStore) ListModes(ctx context.Context) ([]engine.Mode, error) {
	var rows []Mode
	if err := c.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list modes: %w", err)
	}
	out := make([]engine.Mode, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEngine())
	}
	return out, nil
}

func (c *CatalogStore) GetMode(ctx context.Context, id uint) (engine.Mode, error) {
	var row Mode
	if err := c.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return engine.Mode{}, notFound(err, ErrModeNotFound)
	}
	return row.toEngine(), nil
}

func (c *CatalogStore) CreateMode(ctx context.Context, name string, isObjective bool) (engine.Mode, error) {
	row := Mode{Name: strings.TrimSpace(name), IsObjective: isObjective}
	if err := c.db.WithContext(ctx).Create(&row).Error; err != nil {
		return engine.Mode{}, translateWrite(err)
	}
	return row.toEngine(), nil
}

func (c *CatalogStore) UpdateMode(ctx context.Context, id uint, patch ModePatch) (engine.Mode, error) {
	var out engine.Mode
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Mode
		if err := tx.First(&row, id).Error; err != nil {
			return notFound(err, ErrModeNotFound)
		}
		updates := map[string]any{"updated_at": time.Now()}
		if patch.Name != nil {
			updates["name"] = strings.TrimSpace(*patch.Name)
		}
		if patch.IsObjective != nil {
			updates["is_objective"] = *patch.IsObjective
		}
		if err := tx.Model(&row).Updates(updates).Error; err != nil {
			return translateWrite(err)
		}
		if err := tx.First(&row, id).Error; err != nil {
			return err
		}
		out = row.toEngine()
		return nil
	})
	return out, err
}

// DeleteMode removes a mode and its map links. Modes referenced by a round
// or ban are refused with ErrInUse.
func (c *CatalogStore) DeleteMode(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Mode
		if err := tx.First(&row, id).Error; err != nil {
			return notFound(err, ErrModeNotFound)
		}
		inUse, err := referenced(tx, "mode_id = ?", "objective_mode_id = ?", id)
		if err != nil {
			return err
		}
		if inUse {
			return ErrInUse
		}
		if err := tx.Exec("DELETE FROM map_modes WHERE mode_id = ?", id).Error; err != nil {
			return err
		}
		return translateWrite(tx.Delete(&row).Error)
	})
}

func (c *CatalogStore) ListMaps(ctx context.Context) ([]engine.Map, error) {
	var rows []Map
	if err := c.db.WithContext(ctx).Preload("Modes").Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	out := make([]engine.Map, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEngine())
	}
	return out, nil
}

func (c *CatalogStore) GetMap(ctx context.Context, id uint) (engine.Map, error) {
	var row Map
	if err := c.db.WithContext(ctx).Preload("Modes").First(&row, id).Error; err != nil {
		return engine.Map{}, notFound(err, ErrMapNotFound)
	}
	return row.toEngine(), nil
}

func (c *CatalogStore) CreateMap(ctx context.Context, name string, modeIDs []uint) (engine.Map, error) {
	var out engine.Map
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		modes, err := findModes(tx, modeIDs)
		if err != nil {
			return err
		}
		row := Map{Name: strings.TrimSpace(name), Modes: modes}
		if err := tx.Create(&row).Error; err != nil {
			return translateWrite(err)
		}
		out = row.toEngine()
		return nil
	})
	return out, err
}

func (c *CatalogStore) UpdateMap(ctx context.Context, id uint, patch MapPatch) (engine.Map, error) {
	var out engine.Map
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Map
		if err := tx.First(&row, id).Error; err != nil {
			return notFound(err, ErrMapNotFound)
		}
		if patch.Name != nil {
			err := tx.Model(&row).Updates(map[string]any{"name": strings.TrimSpace(*patch.Name), "updated_at": time.Now()}).Error
			if err != nil {
				return translateWrite(err)
			}
		}
		if patch.ModeIDs != nil {
			modes, err := findModes(tx, patch.ModeIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(&row).Association("Modes").Replace(modes); err != nil {
				return err
			}
		}
		if err := tx.Preload("Modes").First(&row, id).Error; err != nil {
			return err
		}
		out = row.toEngine()
		return nil
	})
	return out, err
}

// DeleteMap removes a map and its mode links. Maps referenced by a round or
// ban are refused with ErrInUse.
func (c *CatalogStore) DeleteMap(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Map
		if err := tx.First(&row, id).Error; err != nil {
			return notFound(err, ErrMapNotFound)
		}
		inUse, err := referenced(tx, "map_id = ?", "map_id = ?", id)
		if err != nil {
			return err
		}
		if inUse {
			return ErrInUse
		}
		if err := tx.Model(&row).Association("Modes").Clear(); err != nil {
			return err
		}
		return translateWrite(tx.Delete(&row).Error)
	})
}

func (c *CatalogStore) Counts(ctx context.Context) (Counts, error) {
	db := c.db.WithContext(ctx)
	var out Counts
	for _, q := range []struct {
		model any
		dst   *int64
	}{
		{&Map{}, &out.Maps},
		{&Mode{}, &out.Modes},
		{&Series{}, &out.Series},
		{&Round{}, &out.Rounds},
		{&Ban{}, &out.Bans},
	} {
		if err := db.Model(q.model).Count(q.dst).Error; err != nil {
			return Counts{}, fmt.Errorf("count: %w", err)
		}
	}
	return out, nil
}

func findModes(tx *gorm.DB, ids []uint) ([]Mode, error) {
	ids = slices.Compact(slices.Sorted(slices.Values(ids)))
	if len(ids) == 0 {
		return []Mode{}, nil
	}
	var modes []Mode
	if err := tx.Where("id IN ?", ids).Find(&modes).Error; err != nil {
		return nil, err
	}
	if len(modes) != len(ids) {
		return nil, ErrModeNotFound
	}
	return modes, nil
}

func referenced(tx *gorm.DB, roundCond, banCond string, id uint) (bool, error) {
	var n int64
	if err := tx.Model(&Round{}).Where(roundCond, id).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	if err := tx.Model(&Ban{}).Where(banCond, id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
