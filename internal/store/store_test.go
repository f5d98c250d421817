package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DoyleJ11/veto-backend/internal/engine"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(DriverSQLite, "file::memory:?_foreign_keys=on", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, Migrate(db))
	_, err = Seed(context.Background(), db, HCSCatalog, engine.SlayerModeName)
	require.NoError(t, err)
	return db
}

// ids resolves catalog names to ids for readable tests.
type ids struct {
	maps  map[string]uint
	modes map[string]uint
}

func catalogIDs(t *testing.T, cat engine.Catalog) ids {
	t.Helper()
	out := ids{maps: map[string]uint{}, modes: map[string]uint{}}
	for id, m := range cat.Maps {
		out.maps[m.Name] = id
	}
	for id, m := range cat.Modes {
		out.modes[m.Name] = id
	}
	return out
}

func apply(t *testing.T, st *SeriesStore, id uint, cmd engine.Command) engine.Series {
	t.Helper()
	s, err := st.Mutate(context.Background(), id, func(cur engine.Series, cat engine.Catalog) (engine.Series, error) {
		_, next, err := engine.Apply(cur, cat, cmd)
		return next, err
	})
	require.NoError(t, err, "%s", cmd.Type)
	return s
}

func TestSeed_IsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	res, err := Seed(ctx, db, HCSCatalog, engine.SlayerModeName)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{}, res)

	counts, err := NewCatalogStore(db).Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), counts.Modes)
	assert.Equal(t, int64(9), counts.Maps)

	cat, err := NewSeriesStore(db, "").Catalog(ctx)
	require.NoError(t, err)
	n := catalogIDs(t, cat)

	slayer, ok := cat.SlayerMode()
	require.True(t, ok)
	assert.Equal(t, "Slayer", slayer.Name)
	assert.False(t, slayer.IsObjective)
	assert.True(t, cat.Modes[n.modes["Neutral Bomb"]].IsObjective)

	aquarius := cat.Maps[n.maps["Aquarius"]]
	assert.ElementsMatch(t, []uint{n.modes["Slayer"], n.modes["Capture the Flag"], n.modes["Neutral Bomb"]}, aquarius.ModeIDs)
	assert.False(t, cat.Supports(n.maps["Lattice"], n.modes["Slayer"]))
}

func TestSeed_FirstRunKeepsSlayerNonObjective(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var row Mode
	require.NoError(t, db.Where("name = ?", "Slayer").First(&row).Error)
	assert.False(t, row.IsObjective)

	cat, err := NewSeriesStore(db, "").Catalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, row.ID, cat.SlayerModeID)
}

func TestSeed_PrunesRowsOutsidePool(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := NewSeriesStore(db, "")
	cs := NewCatalogStore(db)

	ffa, err := cs.CreateMode(ctx, "Free For All", false)
	require.NoError(t, err)
	_, err = cs.CreateMap(ctx, "Empyrean", []uint{ffa.ID})
	require.NoError(t, err)
	vip, err := cs.CreateMode(ctx, "VIP", true)
	require.NoError(t, err)
	bazaar, err := cs.CreateMap(ctx, "Bazaar", []uint{vip.ID})
	require.NoError(t, err)

	// Bazaar VIP is banned in a live series, so both rows must survive.
	s, err := st.Create(ctx, "Alpha", "Bravo")
	require.NoError(t, err)
	apply(t, st, s.ID, engine.Command{Type: engine.CmdConfirmFormat, SeriesType: engine.Bo3})
	apply(t, st, s.ID, engine.Command{Type: engine.CmdBanObjectiveCombo, Team: engine.TeamA, MapID: bazaar.ID, ModeID: vip.ID})

	res, err := Seed(ctx, db, HCSCatalog, engine.SlayerModeName)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{ModesPruned: 1, MapsPruned: 1}, res)

	_, err = cs.GetMode(ctx, ffa.ID)
	assert.ErrorIs(t, err, ErrModeNotFound)
	kept, err := cs.GetMap(ctx, bazaar.ID)
	require.NoError(t, err)
	assert.Empty(t, kept.ModeIDs)
	_, err = cs.GetMode(ctx, vip.ID)
	require.NoError(t, err)

	cat, err := st.Catalog(ctx)
	require.NoError(t, err)
	assert.False(t, cat.Supports(bazaar.ID, vip.ID))
}

func TestSeriesStore_CreateAndLookup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := NewSeriesStore(db, "")

	s, err := st.Create(ctx, "", "  ")
	require.NoError(t, err)
	assert.Equal(t, DefaultTeamA, s.TeamA)
	assert.Equal(t, DefaultTeamB, s.TeamB)
	assert.Equal(t, engine.StateIdle, s.State)
	assert.Len(t, s.Code, codeLength)
	assert.True(t, s.Turn.IsZero())

	byCode, err := st.GetByCode(ctx, s.Code)
	require.NoError(t, err)
	assert.Equal(t, s.ID, byCode.ID)

	_, err = st.Create(ctx, "Alpha", "Bravo")
	require.NoError(t, err)
	all, err := st.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, st.Delete(ctx, s.ID))
	_, err = st.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSeriesNotFound)
}

func TestSeriesStore_MissingSeries(t *testing.T) {
	st := NewSeriesStore(newTestDB(t), "")
	ctx := context.Background()

	_, err := st.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrSeriesNotFound)
	_, err = st.GetByCode(ctx, "NOPE00")
	assert.ErrorIs(t, err, ErrSeriesNotFound)
	_, err = st.Mutate(ctx, 999, func(s engine.Series, _ engine.Catalog) (engine.Series, error) { return s, nil })
	assert.ErrorIs(t, err, ErrSeriesNotFound)
	assert.ErrorIs(t, st.Delete(ctx, 999), ErrSeriesNotFound)
}

func TestSeriesStore_MutatePersistsFullCeremony(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := NewSeriesStore(db, "")

	cat, err := st.Catalog(ctx)
	require.NoError(t, err)
	n := catalogIDs(t, cat)

	s, err := st.Create(ctx, "", "")
	require.NoError(t, err)

	cmds := []engine.Command{
		{Type: engine.CmdAssignRoles, TeamA: "Alpha", TeamB: "Bravo"},
		{Type: engine.CmdConfirmFormat, SeriesType: engine.Bo3},
		{Type: engine.CmdBanObjectiveCombo, Team: engine.TeamA, ModeID: n.modes["Capture the Flag"], MapID: n.maps["Aquarius"]},
		{Type: engine.CmdBanObjectiveCombo, Team: engine.TeamB, ModeID: n.modes["King of the Hill"], MapID: n.maps["Live Fire"]},
		{Type: engine.CmdBanObjectiveCombo, Team: engine.TeamA, ModeID: n.modes["Oddball"], MapID: n.maps["Recharge"]},
		{Type: engine.CmdBanObjectiveCombo, Team: engine.TeamB, ModeID: n.modes["Strongholds"], MapID: n.maps["Lattice"]},
		{Type: engine.CmdBanObjectiveCombo, Team: engine.TeamA, ModeID: n.modes["Capture the Flag"], MapID: n.maps["Origin"]},
		{Type: engine.CmdBanSlayerMap, Team: engine.TeamB, MapID: n.maps["Streets"]},
		{Type: engine.CmdBanSlayerMap, Team: engine.TeamA, MapID: n.maps["Solitude"]},
		{Type: engine.CmdPickObjectiveCombo, Team: engine.TeamB, ModeID: n.modes["King of the Hill"], MapID: n.maps["Recharge"]},
		{Type: engine.CmdPickSlayerMap, Team: engine.TeamA, MapID: n.maps["Live Fire"]},
		{Type: engine.CmdPickObjectiveCombo, Team: engine.TeamB, ModeID: n.modes["Oddball"], MapID: n.maps["Lattice"]},
	}

	var last engine.Series
	for _, cmd := range cmds {
		last = apply(t, st, s.ID, cmd)
	}
	assert.Equal(t, engine.StateSeriesComplete, last.State)

	loaded, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, last.State, loaded.State)
	assert.Equal(t, last.Rounds, loaded.Rounds)
	assert.Equal(t, last.Bans, loaded.Bans)
	assert.Equal(t, engine.RulesetTSD, loaded.Ruleset)
	assert.Equal(t, "Alpha", loaded.TeamA)
	assert.Equal(t, n.modes["Slayer"], loaded.Rounds[1].ModeID)

	counts, err := NewCatalogStore(db).Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Rounds)
	assert.Equal(t, int64(7), counts.Bans)
}

func TestSeriesStore_MutateFailureWritesNothing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := NewSeriesStore(db, "")

	s, err := st.Create(ctx, "Alpha", "Bravo")
	require.NoError(t, err)
	before := apply(t, st, s.ID, engine.Command{Type: engine.CmdConfirmFormat, SeriesType: engine.Bo5})

	boom := errors.New("boom")
	_, err = st.Mutate(ctx, s.ID, func(cur engine.Series, _ engine.Catalog) (engine.Series, error) {
		return engine.Series{}, boom
	})
	require.ErrorIs(t, err, boom)

	// Out-of-turn ban is rejected by the engine and rolled back.
	_, err = st.Mutate(ctx, s.ID, func(cur engine.Series, cat engine.Catalog) (engine.Series, error) {
		_, next, err := engine.Apply(cur, cat, engine.Command{Type: engine.CmdBanSlayerMap, Team: engine.TeamB, MapID: 1})
		return next, err
	})
	require.ErrorIs(t, err, engine.ErrTurn)

	after, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, before.State, after.State)
	assert.Equal(t, before.BanIndex, after.BanIndex)
	assert.Equal(t, before.Rounds, after.Rounds)
	assert.Empty(t, after.Bans)
}

func TestSeriesStore_UndoAndResetTrimRows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := NewSeriesStore(db, "")
	cat, err := st.Catalog(ctx)
	require.NoError(t, err)
	n := catalogIDs(t, cat)

	s, err := st.Create(ctx, "Alpha", "Bravo")
	require.NoError(t, err)
	apply(t, st, s.ID, engine.Command{Type: engine.CmdConfirmFormat, SeriesType: engine.Bo7})
	apply(t, st, s.ID, engine.Command{Type: engine.CmdBanObjectiveCombo, Team: engine.TeamA, ModeID: n.modes["Oddball"], MapID: n.maps["Lattice"]})
	apply(t, st, s.ID, engine.Command{Type: engine.CmdBanObjectiveCombo, Team: engine.TeamB, ModeID: n.modes["Oddball"], MapID: n.maps["Recharge"]})

	undone := apply(t, st, s.ID, engine.Command{Type: engine.CmdUndo})
	assert.Equal(t, 1, undone.BanIndex)
	assert.Equal(t, engine.TeamB, undone.Turn.Team)

	loaded, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Bans, 1)
	assert.Equal(t, n.maps["Lattice"], loaded.Bans[0].MapID)

	apply(t, st, s.ID, engine.Command{Type: engine.CmdReset})
	counts, err := NewCatalogStore(db).Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.Rounds)
	assert.Zero(t, counts.Bans)

	loaded, err = st.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.StateIdle, loaded.State)
	assert.Equal(t, "Alpha", loaded.TeamA)
	assert.Empty(t, loaded.SeriesType)
}

func TestCatalogStore_ModeAndMapCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	cs := NewCatalogStore(db)

	ffa, err := cs.CreateMode(ctx, " Free For All ", false)
	require.NoError(t, err)
	assert.Equal(t, "Free For All", ffa.Name)
	assert.False(t, ffa.IsObjective)
	stored, err := cs.GetMode(ctx, ffa.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsObjective)

	_, err = cs.CreateMode(ctx, "Oddball", true)
	assert.ErrorIs(t, err, ErrDuplicateName)

	m, err := cs.CreateMap(ctx, "Empyrean", []uint{ffa.ID, ffa.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{ffa.ID}, m.ModeIDs)

	_, err = cs.CreateMap(ctx, "Bazaar", []uint{9999})
	assert.ErrorIs(t, err, ErrModeNotFound)

	renamed := "Empyrean II"
	m, err = cs.UpdateMap(ctx, m.ID, MapPatch{Name: &renamed, ModeIDs: []uint{}})
	require.NoError(t, err)
	assert.Equal(t, renamed, m.Name)
	assert.Empty(t, m.ModeIDs)

	objective := true
	ffa, err = cs.UpdateMode(ctx, ffa.ID, ModePatch{IsObjective: &objective})
	require.NoError(t, err)
	assert.True(t, ffa.IsObjective)
	assert.Equal(t, "Free For All", ffa.Name)

	require.NoError(t, cs.DeleteMap(ctx, m.ID))
	_, err = cs.GetMap(ctx, m.ID)
	assert.ErrorIs(t, err, ErrMapNotFound)

	require.NoError(t, cs.DeleteMode(ctx, ffa.ID))
	_, err = cs.GetMode(ctx, ffa.ID)
	assert.ErrorIs(t, err, ErrModeNotFound)
}

func TestCatalogStore_DeleteReferencedIsRefused(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := NewSeriesStore(db, "")
	cs := NewCatalogStore(db)
	cat, err := st.Catalog(ctx)
	require.NoError(t, err)
	n := catalogIDs(t, cat)

	s, err := st.Create(ctx, "Alpha", "Bravo")
	require.NoError(t, err)
	apply(t, st, s.ID, engine.Command{Type: engine.CmdConfirmFormat, SeriesType: engine.Bo3})
	apply(t, st, s.ID, engine.Command{Type: engine.CmdBanObjectiveCombo, Team: engine.TeamA, ModeID: n.modes["Neutral Bomb"], MapID: n.maps["Aquarius"]})

	assert.ErrorIs(t, cs.DeleteMap(ctx, n.maps["Aquarius"]), ErrInUse)
	assert.ErrorIs(t, cs.DeleteMode(ctx, n.modes["Neutral Bomb"]), ErrInUse)

	// Unreferenced rows still delete, and their links go with them.
	require.NoError(t, cs.DeleteMap(ctx, n.maps["Fortress"]))
	ctf, err := cs.GetMode(ctx, n.modes["Capture the Flag"])
	require.NoError(t, err)
	assert.Equal(t, "Capture the Flag", ctf.Name)
}
