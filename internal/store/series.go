package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DoyleJ11/veto-backend/internal/engine"
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
	codeAttempts = 5

	DefaultTeamA = "Team A"
	DefaultTeamB = "Team B"
)

type SeriesStore struct {
	db         *gorm.DB
	slayerMode string
}

// NewSeriesStore returns a store resolving the designated Slayer mode by
// slayerMode when the catalog holds more than one non-objective mode.
func NewSeriesStore(db *gorm.DB, slayerMode string) *SeriesStore {
	if slayerMode == "" {
		slayerMode = engine.SlayerModeName
	}
	return &SeriesStore{db: db, slayerMode: slayerMode}
}

func (s *SeriesStore) Create(ctx context.Context, teamA, teamB string) (engine.Series, error) {
	teamA, teamB = strings.TrimSpace(teamA), strings.TrimSpace(teamB)
	if teamA == "" {
		teamA = DefaultTeamA
	}
	if teamB == "" {
		teamB = DefaultTeamB
	}

	for range codeAttempts {
		code, err := gonanoid.Generate(codeAlphabet, codeLength)
		if err != nil {
			return engine.Series{}, fmt.Errorf("generate code: %w", err)
		}
		row := Series{Code: code, TeamA: teamA, TeamB: teamB, State: string(engine.StateIdle)}
		err = s.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return engine.Series{}, fmt.Errorf("create series: %w", err)
		}
		return row.toEngine(), nil
	}
	return engine.Series{}, errors.New("create series: could not allocate a unique code")
}

func (s *SeriesStore) Get(ctx context.Context, id uint) (engine.Series, error) {
	var row Series
	err := preloadChildren(s.db.WithContext(ctx)).First(&row, id).Error
	if err != nil {
		return engine.Series{}, notFound(err, ErrSeriesNotFound)
	}
	return row.toEngine(), nil
}

func (s *SeriesStore) GetByCode(ctx context.Context, code string) (engine.Series, error) {
	var row Series
	err := preloadChildren(s.db.WithContext(ctx)).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&row).Error
	if err != nil {
		return engine.Series{}, notFound(err, ErrSeriesNotFound)
	}
	return row.toEngine(), nil
}

// List returns every series, newest first.
func (s *SeriesStore) List(ctx context.Context) ([]engine.Series, error) {
	var rows []Series
	if err := preloadChildren(s.db.WithContext(ctx)).Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	out := make([]engine.Series, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEngine())
	}
	return out, nil
}

func (s *SeriesStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSeries(tx, id); err != nil {
			return err
		}
		if err := tx.Where("series_id = ?", id).Delete(&Round{}).Error; err != nil {
			return err
		}
		if err := tx.Where("series_id = ?", id).Delete(&Ban{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Series{}, id).Error
	})
}

// Catalog loads a consistent snapshot of maps, modes and legality.
func (s *SeriesStore) Catalog(ctx context.Context) (engine.Catalog, error) {
	return loadCatalog(s.db.WithContext(ctx), s.slayerMode)
}

// Mutate runs fn against the locked series inside one transaction and
// commits the returned series. Nothing is written when fn fails.
func (s *SeriesStore) Mutate(ctx context.Context, id uint, fn func(engine.Series, engine.Catalog) (engine.Series, error)) (engine.Series, error) {
	var out engine.Series
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockSeries(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("series_id = ?", id).Find(&row.Rounds).Error; err != nil {
			return err
		}
		if err := tx.Where("series_id = ?", id).Find(&row.Bans).Error; err != nil {
			return err
		}

		cat, err := loadCatalog(tx, s.slayerMode)
		if err != nil {
			return err
		}

		next, err := fn(row.toEngine(), cat)
		if err != nil {
			return err
		}
		next.ID = id
		if err := saveSeries(tx, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return engine.Series{}, err
	}
	return out, nil
}

func lockSeries(tx *gorm.DB, id uint) (Series, error) {
	var row Series
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, id).Error
	if err != nil {
		return Series{}, notFound(err, ErrSeriesNotFound)
	}
	return row, nil
}

func preloadChildren(db *gorm.DB) *gorm.DB {
	return db.Preload("Rounds").Preload("Bans")
}

func saveSeries(tx *gorm.DB, s engine.Series) error {
	turn := engine.DeriveTurn(s)
	err := tx.Model(&Series{ID: s.ID}).Updates(map[string]any{
		"team_a":      s.TeamA,
		"team_b":      s.TeamB,
		"state":       string(s.State),
		"ruleset":     s.Ruleset,
		"series_type": string(s.SeriesType),
		"round_index": s.RoundIndex,
		"ban_index":   s.BanIndex,
		"turn_team":   string(turn.Team),
		"turn_action": string(turn.Action),
		"turn_kind":   string(turn.Kind),
	}).Error
	if err != nil {
		return fmt.Errorf("update series: %w", err)
	}

	if len(s.Rounds) > 0 {
		rounds := make([]Round, 0, len(s.Rounds))
		for _, r := range s.Rounds {
			rounds = append(rounds, roundRow(s.ID, r))
		}
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "series_id"}, {Name: "round_order"}},
			DoUpdates: clause.AssignmentColumns([]string{"slot_type", "mode_id", "picked_by", "map_id", "locked", "updated_at"}),
		}).Create(&rounds).Error
		if err != nil {
			return fmt.Errorf("save rounds: %w", err)
		}
	}
	if err := tx.Where("series_id = ? AND round_order >= ?", s.ID, len(s.Rounds)).Delete(&Round{}).Error; err != nil {
		return fmt.Errorf("trim rounds: %w", err)
	}

	if len(s.Bans) > 0 {
		bans := make([]Ban, 0, len(s.Bans))
		for _, b := range s.Bans {
			bans = append(bans, banRow(s.ID, b))
		}
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "series_id"}, {Name: "step_index"}},
			DoUpdates: clause.AssignmentColumns([]string{"by_team", "kind", "map_id", "objective_mode_id", "updated_at"}),
		}).Create(&bans).Error
		if err != nil {
			return fmt.Errorf("save bans: %w", err)
		}
	}
	if err := tx.Where("series_id = ? AND step_index >= ?", s.ID, len(s.Bans)).Delete(&Ban{}).Error; err != nil {
		return fmt.Errorf("trim bans: %w", err)
	}
	return nil
}

func loadCatalog(db *gorm.DB, slayerMode string) (engine.Catalog, error) {
	var modes []Mode
	if err := db.Order("id").Find(&modes).Error; err != nil {
		return engine.Catalog{}, fmt.Errorf("load modes: %w", err)
	}
	var maps []Map
	if err := db.Preload("Modes").Order("id").Find(&maps).Error; err != nil {
		return engine.Catalog{}, fmt.Errorf("load maps: %w", err)
	}

	em := make([]engine.Mode, 0, len(modes))
	for _, m := range modes {
		em = append(em, m.toEngine())
	}
	emaps := make([]engine.Map, 0, len(maps))
	for _, m := range maps {
		emaps = append(emaps, m.toEngine())
	}
	slayerID, _ := engine.ResolveSlayerMode(em, slayerMode)
	return engine.NewCatalog(emaps, em, slayerID), nil
}

func (m Mode) toEngine() engine.Mode {
	return engine.Mode{ID: m.ID, Name: m.Name, IsObjective: m.IsObjective}
}

func (m Map) toEngine() engine.Map {
	ids := make([]uint, 0, len(m.Modes))
	for _, mode := range m.Modes {
		ids = append(ids, mode.ID)
	}
	slices.Sort(ids)
	return engine.Map{ID: m.ID, Name: m.Name, ModeIDs: ids}
}

func (s Series) toEngine() engine.Series {
	out := engine.Series{
		ID:         s.ID,
		Code:       s.Code,
		TeamA:      s.TeamA,
		TeamB:      s.TeamB,
		State:      engine.State(s.State),
		Ruleset:    s.Ruleset,
		SeriesType: engine.SeriesType(s.SeriesType),
		RoundIndex: s.RoundIndex,
		BanIndex:   s.BanIndex,
		CreatedAt:  s.CreatedAt,
	}

	if len(s.Rounds) > 0 {
		rounds := slices.Clone(s.Rounds)
		slices.SortFunc(rounds, func(a, b Round) int { return a.Order - b.Order })
		out.Rounds = make([]engine.Round, 0, len(rounds))
		for _, r := range rounds {
			out.Rounds = append(out.Rounds, engine.Round{
				Order:    r.Order,
				SlotType: engine.SlotType(r.SlotType),
				ModeID:   deref(r.ModeID),
				PickedBy: engine.Team(r.PickedBy),
				MapID:    deref(r.MapID),
				Locked:   r.Locked,
			})
		}
	}

	if len(s.Bans) > 0 {
		bans := slices.Clone(s.Bans)
		slices.SortFunc(bans, func(a, b Ban) int { return a.StepIndex - b.StepIndex })
		out.Bans = make([]engine.Ban, 0, len(bans))
		for _, b := range bans {
			out.Bans = append(out.Bans, engine.Ban{
				StepIndex:       b.StepIndex,
				ByTeam:          engine.Team(b.ByTeam),
				Kind:            engine.Kind(b.Kind),
				MapID:           b.MapID,
				ObjectiveModeID: deref(b.ObjectiveModeID),
			})
		}
	}

	out.Turn = engine.DeriveTurn(out)
	return out
}

func roundRow(seriesID uint, r engine.Round) Round {
	return Round{
		SeriesID: seriesID,
		Order:    r.Order,
		SlotType: string(r.SlotType),
		ModeID:   ref(r.ModeID),
		PickedBy: string(r.PickedBy),
		MapID:    ref(r.MapID),
		Locked:   r.Locked,
	}
}

func banRow(seriesID uint, b engine.Ban) Ban {
	return Ban{
		SeriesID:        seriesID,
		StepIndex:       b.StepIndex,
		ByTeam:          string(b.ByTeam),
		Kind:            string(b.Kind),
		MapID:           b.MapID,
		ObjectiveModeID: ref(b.ObjectiveModeID),
	}
}

func ref(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

func deref(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
