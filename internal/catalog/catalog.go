package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/DoyleJ11/veto-backend/internal/engine"
	"github.com/DoyleJ11/veto-backend/internal/store"
)

var ErrInvalidName = errors.New("name must not be blank")

const (
	TypeObjective = "objective"
	TypeSlayer    = "slayer"
)

type Repository interface {
	ListModes(ctx context.Context) ([]engine.Mode, error)
	GetMode(ctx context.Context, id uint) (engine.Mode, error)
	CreateMode(ctx context.Context, name string, isObjective bool) (engine.Mode, error)
	UpdateMode(ctx context.Context, id uint, patch store.ModePatch) (engine.Mode, error)
	DeleteMode(ctx context.Context, id uint) error

	ListMaps(ctx context.Context) ([]engine.Map, error)
	GetMap(ctx context.Context, id uint) (engine.Map, error)
	CreateMap(ctx context.Context, name string, modeIDs []uint) (engine.Map, error)
	UpdateMap(ctx context.Context, id uint, patch store.MapPatch) (engine.Map, error)
	DeleteMap(ctx context.Context, id uint) error

	Counts(ctx context.Context) (store.Counts, error)
}

// MapView is a map together with the modes legal on it.
type MapView struct {
	ID    uint          `json:"id"`
	Name  string        `json:"name"`
	Modes []engine.Mode `json:"modes"`
}

type Combo struct {
	MapID       uint   `json:"map_id"`
	Map         string `json:"map"`
	ModeID      uint   `json:"mode_id"`
	Mode        string `json:"mode"`
	IsObjective bool   `json:"is_objective"`
	Slug        string `json:"slug"`
}

type MapCombo struct {
	MapID uint   `json:"map_id"`
	Map   string `json:"map"`
	Slug  string `json:"slug"`
}

type ModeGroup struct {
	ModeID      uint       `json:"mode_id"`
	Mode        string     `json:"mode"`
	IsObjective bool       `json:"is_objective"`
	Combos      []MapCombo `json:"combos"`
}

type Grouped struct {
	Objective []ModeGroup `json:"objective"`
	Slayer    []ModeGroup `json:"slayer"`
}

// ComboFilter narrows combo listings. Mode matches a mode name ignoring
// case; Type is TypeObjective, TypeSlayer or empty for both.
type ComboFilter struct {
	Mode string
	Type string
}

func (f ComboFilter) keep(m engine.Mode) bool {
	if f.Mode != "" && !strings.EqualFold(m.Name, f.Mode) {
		return false
	}
	if f.Type != "" && (strings.ToLower(f.Type) == TypeObjective) != m.IsObjective {
		return false
	}
	return true
}

type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log.Named("catalog")}
}

func (s *Service) Modes(ctx context.Context) ([]engine.Mode, error) {
	return s.repo.ListModes(ctx)
}

func (s *Service) CreateMode(ctx context.Context, name string, isObjective bool) (engine.Mode, error) {
	if strings.TrimSpace(name) == "" {
		return engine.Mode{}, ErrInvalidName
	}
	m, err := s.repo.CreateMode(ctx, name, isObjective)
	if err != nil {
		return engine.Mode{}, err
	}
	s.log.Info("mode created", zap.Uint("mode_id", m.ID), zap.String("name", m.Name), zap.Bool("objective", m.IsObjective))
	return m, nil
}

func (s *Service) UpdateMode(ctx context.Context, id uint, patch store.ModePatch) (engine.Mode, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return engine.Mode{}, ErrInvalidName
	}
	return s.repo.UpdateMode(ctx, id, patch)
}

func (s *Service) DeleteMode(ctx context.Context, id uint) error {
	if err := s.repo.DeleteMode(ctx, id); err != nil {
		return err
	}
	s.log.Info("mode deleted", zap.Uint("mode_id", id))
	return nil
}

func (s *Service) Maps(ctx context.Context) ([]MapView, error) {
	maps, modes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MapView, 0, len(maps))
	for _, m := range maps {
		out = append(out, mapView(m, modes))
	}
	return out, nil
}

func (s *Service) Map(ctx context.Context, id uint) (MapView, error) {
	m, err := s.repo.GetMap(ctx, id)
	if err != nil {
		return MapView{}, err
	}
	return s.view(ctx, m)
}

func (s *Service) CreateMap(ctx context.Context, name string, modeIDs []uint) (MapView, error) {
	if strings.TrimSpace(name) == "" {
		return MapView{}, ErrInvalidName
	}
	m, err := s.repo.CreateMap(ctx, name, modeIDs)
	if err != nil {
		return MapView{}, err
	}
	s.log.Info("map created", zap.Uint("map_id", m.ID), zap.String("name", m.Name), zap.Uints("mode_ids", m.ModeIDs))
	return s.view(ctx, m)
}

func (s *Service) UpdateMap(ctx context.Context, id uint, patch store.MapPatch) (MapView, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return MapView{}, ErrInvalidName
	}
	m, err := s.repo.UpdateMap(ctx, id, patch)
	if err != nil {
		return MapView{}, err
	}
	return s.view(ctx, m)
}

func (s *Service) DeleteMap(ctx context.Context, id uint) error {
	if err := s.repo.DeleteMap(ctx, id); err != nil {
		return err
	}
	s.log.Info("map deleted", zap.Uint("map_id", id))
	return nil
}

// Combos lists every legal map and mode pair, sorted by mode then map.
func (s *Service) Combos(ctx context.Context, f ComboFilter) ([]Combo, error) {
	maps, modes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	out := []Combo{}
	for _, m := range maps {
		for _, id := range m.ModeIDs {
			mode, ok := modes[id]
			if !ok || !f.keep(mode) {
				continue
			}
			out = append(out, Combo{
				MapID:       m.ID,
				Map:         m.Name,
				ModeID:      mode.ID,
				Mode:        mode.Name,
				IsObjective: mode.IsObjective,
				Slug:        ComboSlug(m.Name, mode.Name),
			})
		}
	}
	slices.SortFunc(out, func(a, b Combo) int {
		return cmp.Or(cmp.Compare(a.Mode, b.Mode), cmp.Compare(a.Map, b.Map))
	})
	return out, nil
}

// GroupedCombos buckets combos by mode and splits the buckets into objective
// and slayer lists, each sorted by mode name with maps sorted by name.
func (s *Service) GroupedCombos(ctx context.Context, f ComboFilter) (Grouped, error) {
	combos, err := s.Combos(ctx, f)
	if err != nil {
		return Grouped{}, err
	}

	out := Grouped{Objective: []ModeGroup{}, Slayer: []ModeGroup{}}
	index := map[uint]int{}
	for _, c := range combos {
		bucket := &out.Slayer
		if c.IsObjective {
			bucket = &out.Objective
		}
		i, ok := index[c.ModeID]
		if !ok {
			*bucket = append(*bucket, ModeGroup{ModeID: c.ModeID, Mode: c.Mode, IsObjective: c.IsObjective})
			i = len(*bucket) - 1
			index[c.ModeID] = i
		}
		(*bucket)[i].Combos = append((*bucket)[i].Combos, MapCombo{MapID: c.MapID, Map: c.Map, Slug: c.Slug})
	}
	return out, nil
}

func (s *Service) Counts(ctx context.Context) (store.Counts, error) {
	return s.repo.Counts(ctx)
}

func (s *Service) load(ctx context.Context) ([]engine.Map, map[uint]engine.Mode, error) {
	maps, err := s.repo.ListMaps(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog maps: %w", err)
	}
	list, err := s.repo.ListModes(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog modes: %w", err)
	}
	modes := make(map[uint]engine.Mode, len(list))
	for _, m := range list {
		modes[m.ID] = m
	}
	return maps, modes, nil
}

func (s *Service) view(ctx context.Context, m engine.Map) (MapView, error) {
	list, err := s.repo.ListModes(ctx)
	if err != nil {
		return MapView{}, fmt.Errorf("catalog modes: %w", err)
	}
	modes := make(map[uint]engine.Mode, len(list))
	for _, mode := range list {
		modes[mode.ID] = mode
	}
	return mapView(m, modes), nil
}

func mapView(m engine.Map, modes map[uint]engine.Mode) MapView {
	v := MapView{ID: m.ID, Name: m.Name, Modes: []engine.Mode{}}
	for _, id := range m.ModeIDs {
		if mode, ok := modes[id]; ok {
			v.Modes = append(v.Modes, mode)
		}
	}
	slices.SortFunc(v.Modes, func(a, b engine.Mode) int { return cmp.Compare(a.Name, b.Name) })
	return v
}
