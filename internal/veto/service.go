// Package veto runs ceremony operations against stored series. Every
// operation for one series goes through that series' lobby, so operations on
// the same series never overlap, and commits through Repository.Mutate.
package veto

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/veto-backend/internal/engine"
	"github.com/DoyleJ11/veto-backend/internal/hub"
	"github.com/DoyleJ11/veto-backend/internal/lobby"
	"github.com/DoyleJ11/veto-backend/internal/store"
)

var ErrUnavailable = errors.New("veto service is shutting down")

type Repository interface {
	Create(ctx context.Context, teamA, teamB string) (engine.Series, error)
	Get(ctx context.Context, id uint) (engine.Series, error)
	GetByCode(ctx context.Context, code string) (engine.Series, error)
	List(ctx context.Context) ([]engine.Series, error)
	Delete(ctx context.Context, id uint) error
	Catalog(ctx context.Context) (engine.Catalog, error)
	Mutate(ctx context.Context, id uint, fn func(engine.Series, engine.Catalog) (engine.Series, error)) (engine.Series, error)
}

// Outcome is a series together with the catalog needed to render it.
// Version counts committed operations since the series' lobby started.
type Outcome struct {
	Series  engine.Series
	Catalog engine.Catalog
	Version int
}

type Service struct {
	repo Repository
	hub  *hub.Hub
	log  *zap.Logger
}

func NewService(repo Repository, h *hub.Hub, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, hub: h, log: log.Named("veto")}
}

func (s *Service) Create(ctx context.Context, teamA, teamB string) (Outcome, error) {
	if err := engine.CheckTeamLabels(teamA, teamB); err != nil {
		return Outcome{}, err
	}
	series, err := s.repo.Create(ctx, teamA, teamB)
	if err != nil {
		return Outcome{}, err
	}
	s.log.Info("series created", zap.Uint("series_id", series.ID), zap.String("code", series.Code))
	return s.withCatalog(ctx, series)
}

func (s *Service) Get(ctx context.Context, id uint) (Outcome, error) {
	series, err := s.repo.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	return s.withCatalog(ctx, series)
}

func (s *Service) GetByCode(ctx context.Context, code string) (Outcome, error) {
	series, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return Outcome{}, err
	}
	return s.withCatalog(ctx, series)
}

func (s *Service) List(ctx context.Context) ([]engine.Series, engine.Catalog, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, engine.Catalog{}, err
	}
	cat, err := s.repo.Catalog(ctx)
	if err != nil {
		return nil, engine.Catalog{}, err
	}
	return all, cat, nil
}

// Catalog loads the current maps and modes.
func (s *Service) Catalog(ctx context.Context) (engine.Catalog, error) {
	return s.repo.Catalog(ctx)
}

func (s *Service) State(ctx context.Context, id uint) (engine.State, error) {
	series, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return series.State, nil
}

// Delete removes the series and stops its lobby, closing any live streams.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	select {
	case s.hub.Inbox() <- hub.RemoveLobby{SeriesID: id}:
	case <-s.hub.Done():
	}
	s.log.Info("series deleted", zap.Uint("series_id", id))
	return nil
}

func (s *Service) AssignRoles(ctx context.Context, id uint, teamA, teamB string) (Outcome, error) {
	return s.execute(ctx, id, "assign_roles", func(engine.Series) (engine.Command, error) {
		return engine.Command{Type: engine.CmdAssignRoles, TeamA: teamA, TeamB: teamB}, nil
	})
}

func (s *Service) ConfirmFormat(ctx context.Context, id uint, seriesType string) (Outcome, error) {
	return s.execute(ctx, id, "confirm_tsd", func(engine.Series) (engine.Command, error) {
		return engine.Command{Type: engine.CmdConfirmFormat, SeriesType: engine.SeriesType(seriesType)}, nil
	})
}

func (s *Service) BanObjectiveCombo(ctx context.Context, id uint, team string, mapID, modeID uint) (Outcome, error) {
	return s.execute(ctx, id, "ban_objective_combo", teamCommand(team, engine.Command{
		Type: engine.CmdBanObjectiveCombo, MapID: mapID, ModeID: modeID,
	}))
}

func (s *Service) BanSlayerMap(ctx context.Context, id uint, team string, mapID uint) (Outcome, error) {
	return s.execute(ctx, id, "ban_slayer_map", teamCommand(team, engine.Command{
		Type: engine.CmdBanSlayerMap, MapID: mapID,
	}))
}

func (s *Service) PickObjectiveCombo(ctx context.Context, id uint, team string, mapID, modeID uint) (Outcome, error) {
	return s.execute(ctx, id, "pick_objective_combo", teamCommand(team, engine.Command{
		Type: engine.CmdPickObjectiveCombo, MapID: mapID, ModeID: modeID,
	}))
}

func (s *Service) PickSlayerMap(ctx context.Context, id uint, team string, mapID uint) (Outcome, error) {
	return s.execute(ctx, id, "pick_slayer_map", teamCommand(team, engine.Command{
		Type: engine.CmdPickSlayerMap, MapID: mapID,
	}))
}

func (s *Service) Undo(ctx context.Context, id uint) (Outcome, error) {
	return s.execute(ctx, id, "undo", func(engine.Series) (engine.Command, error) {
		return engine.Command{Type: engine.CmdUndo}, nil
	})
}

func (s *Service) Reset(ctx context.Context, id uint) (Outcome, error) {
	return s.execute(ctx, id, "reset", func(engine.Series) (engine.Command, error) {
		return engine.Command{Type: engine.CmdReset}, nil
	})
}

// teamCommand resolves the caller's team label against the locked series, so
// a rename racing with the call cannot change which team acts.
func teamCommand(raw string, cmd engine.Command) func(engine.Series) (engine.Command, error) {
	return func(cur engine.Series) (engine.Command, error) {
		team, err := cur.ParseTeam(raw)
		if err != nil {
			return engine.Command{}, err
		}
		cmd.Team = team
		return cmd, nil
	}
}

func (s *Service) execute(ctx context.Context, id uint, op string, build func(engine.Series) (engine.Command, error)) (Outcome, error) {
	log := s.log.With(zap.Uint("series_id", id), zap.String("op", op))

	var events []engine.Event
	run := func(ctx context.Context) (engine.Series, engine.Catalog, error) {
		var cat engine.Catalog
		next, err := s.repo.Mutate(ctx, id, func(cur engine.Series, c engine.Catalog) (engine.Series, error) {
			cat = c
			cmd, err := build(cur)
			if err != nil {
				return cur, err
			}
			evs, next, err := engine.Apply(cur, c, cmd)
			events = evs
			return next, err
		})
		return next, cat, err
	}

	snap, err := s.dispatch(ctx, id, run)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrGuard), errors.Is(err, engine.ErrTurn):
			log.Debug("operation rejected", zap.Error(err))
		case errors.Is(err, store.ErrSeriesNotFound), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			log.Debug("operation not run", zap.Error(err))
		default:
			log.Error("operation failed", zap.Error(err))
		}
		return Outcome{}, err
	}

	for _, e := range events {
		log.Debug("event",
			zap.String("type", string(e.Type)),
			zap.String("team", string(e.Team)),
			zap.String("kind", string(e.Kind)),
			zap.Int("step", e.Step),
			zap.Uint("map_id", e.MapID),
			zap.Uint("mode_id", e.ModeID),
		)
	}
	log.Info("operation committed", zap.String("state", string(snap.Series.State)), zap.Int("version", snap.Version))
	return Outcome{Series: snap.Series, Catalog: snap.Catalog, Version: snap.Version}, nil
}

// dispatch runs op on the series' lobby, restarting the lobby once if it was
// stopped between lookup and dispatch.
func (s *Service) dispatch(ctx context.Context, id uint, op lobby.Op) (lobby.Snapshot, error) {
	for attempt := 0; ; attempt++ {
		lb, err := s.Lobby(ctx, id)
		if err != nil {
			return lobby.Snapshot{}, err
		}
		snap, err := lb.Execute(ctx, op)
		if errors.Is(err, lobby.ErrClosed) && attempt == 0 {
			continue
		}
		return snap, err
	}
}

// Lobby returns the running lobby for the series, starting it from storage
// when needed. Missing series report store.ErrSeriesNotFound.
func (s *Service) Lobby(ctx context.Context, id uint) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	lb, err := s.ask(ctx, hub.GetLobby{SeriesID: id, Reply: reply}, reply)
	if err != nil || lb != nil {
		return lb, err
	}

	series, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cat, err := s.repo.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return s.ask(ctx, hub.EnsureLobby{SeriesID: id, Series: series, Catalog: cat, Reply: reply}, reply)
}

func (s *Service) ask(ctx context.Context, msg hub.HubMsg, reply <-chan *lobby.Lobby) (*lobby.Lobby, error) {
	select {
	case s.hub.Inbox() <- msg:
	case <-s.hub.Done():
		return nil, ErrUnavailable
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case lb := <-reply:
		return lb, nil
	case <-s.hub.Done():
		return nil, ErrUnavailable
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) withCatalog(ctx context.Context, series engine.Series) (Outcome, error) {
	cat, err := s.repo.Catalog(ctx)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Series: series, Catalog: cat}, nil
}
