package engine

import (
	"errors"
	"reflect"
	"testing"
)

const (
	modeSlayer uint = iota + 1
	modeCTF
	modeKOTH
	modeOddball
)

const (
	mapAquarius uint = iota + 10
	mapLiveFire
	mapRecharge
	mapStreets
	mapOrigin
	mapLattice
	mapSolitude
	mapFortress
)

func testCatalog() Catalog {
	modes := []Mode{
		{ID: modeSlayer, Name: "Slayer"},
		{ID: modeCTF, Name: "Capture the Flag", IsObjective: true},
		{ID: modeKOTH, Name: "King of the Hill", IsObjective: true},
		{ID: modeOddball, Name: "Oddball", IsObjective: true},
	}
	maps := []Map{
		{ID: mapAquarius, Name: "Aquarius", ModeIDs: []uint{modeSlayer, modeCTF}},
		{ID: mapLiveFire, Name: "Live Fire", ModeIDs: []uint{modeSlayer, modeKOTH, modeOddball}},
		{ID: mapRecharge, Name: "Recharge", ModeIDs: []uint{modeSlayer, modeKOTH, modeOddball}},
		{ID: mapStreets, Name: "Streets", ModeIDs: []uint{modeSlayer}},
		{ID: mapOrigin, Name: "Origin", ModeIDs: []uint{modeSlayer, modeCTF}},
		{ID: mapLattice, Name: "Lattice", ModeIDs: []uint{modeKOTH, modeOddball}},
		{ID: mapSolitude, Name: "Solitude", ModeIDs: []uint{modeSlayer}},
		{ID: mapFortress, Name: "Fortress", ModeIDs: []uint{modeCTF}},
	}
	return NewCatalog(maps, modes, modeSlayer)
}

func mustApply(t *testing.T, s Series, cmd Command) Series {
	t.Helper()
	_, next, err := Apply(s, testCatalog(), cmd)
	if err != nil {
		t.Fatalf("%s: unexpected err: %v", cmd.Type, err)
	}
	return next
}

// The seven legal bans of the reference ceremony, in schedule order.
var scenarioBans = []Command{
	{Type: CmdBanObjectiveCombo, Team: TeamA, ModeID: modeCTF, MapID: mapAquarius},
	{Type: CmdBanObjectiveCombo, Team: TeamB, ModeID: modeKOTH, MapID: mapLiveFire},
	{Type: CmdBanObjectiveCombo, Team: TeamA, ModeID: modeOddball, MapID: mapRecharge},
	{Type: CmdBanObjectiveCombo, Team: TeamB, ModeID: modeCTF, MapID: mapOrigin},
	{Type: CmdBanObjectiveCombo, Team: TeamA, ModeID: modeKOTH, MapID: mapLattice},
	{Type: CmdBanSlayerMap, Team: TeamB, MapID: mapStreets},
	{Type: CmdBanSlayerMap, Team: TeamA, MapID: mapSolitude},
}

// Bo3 picks following the bans above.
var scenarioPicks = []Command{
	{Type: CmdPickObjectiveCombo, Team: TeamB, ModeID: modeKOTH, MapID: mapRecharge},
	{Type: CmdPickSlayerMap, Team: TeamA, MapID: mapLiveFire},
	{Type: CmdPickObjectiveCombo, Team: TeamB, ModeID: modeOddball, MapID: mapLattice},
}

func confirmedSeries(t *testing.T, format SeriesType) Series {
	t.Helper()
	s := NewSeries("", "")
	s = mustApply(t, s, Command{Type: CmdAssignRoles, TeamA: "Alpha", TeamB: "Bravo"})
	return mustApply(t, s, Command{Type: CmdConfirmFormat, SeriesType: format})
}

func pickWindowSeries(t *testing.T) Series {
	t.Helper()
	s := confirmedSeries(t, Bo3)
	for _, cmd := range scenarioBans {
		s = mustApply(t, s, cmd)
	}
	return s
}

func TestConfirmFormat_CreatesTemplateSlots(t *testing.T) {
	cases := []struct {
		name   string
		format SeriesType
		want   []SlotType
	}{
		{name: "Bo3", format: Bo3, want: []SlotType{SlotObjective, SlotSlayer, SlotObjective}},
		{name: "Bo5", format: Bo5, want: []SlotType{SlotObjective, SlotSlayer, SlotObjective, SlotObjective, SlotSlayer}},
		{name: "Bo7", format: Bo7, want: []SlotType{SlotObjective, SlotSlayer, SlotObjective, SlotObjective, SlotSlayer, SlotObjective, SlotSlayer}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := confirmedSeries(t, tc.format)
			if len(s.Rounds) != len(tc.want) {
				t.Fatalf("rounds: got %d, want %d", len(s.Rounds), len(tc.want))
			}
			for i, r := range s.Rounds {
				if r.Order != i || r.SlotType != tc.want[i] || r.Picked() {
					t.Fatalf("round %d: got %+v, want slot %s", i, r, tc.want[i])
				}
			}
			if s.State != StateBanPhase || s.BanIndex != 0 || s.Ruleset != RulesetTSD {
				t.Fatalf("unexpected series after confirm: %+v", s)
			}
			want := Turn{Team: TeamA, Action: ActionBan, Kind: KindObjectiveCombo}
			if s.Turn != want {
				t.Fatalf("turn: got %+v, want %+v", s.Turn, want)
			}
		})
	}
}

func TestConfirmFormat_Guards(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(t *testing.T) Series
		format SeriesType
	}{
		{name: "unknown series type", setup: func(*testing.T) Series { return NewSeries("Alpha", "Bravo") }, format: "Bo9"},
		{name: "already configured", setup: func(t *testing.T) Series { return confirmedSeries(t, Bo3) }, format: Bo5},
		{name: "pick window", setup: pickWindowSeries, format: Bo3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Apply(tc.setup(t), testCatalog(), Command{Type: CmdConfirmFormat, SeriesType: tc.format})
			if !errors.Is(err, ErrGuard) {
				t.Fatalf("want ErrGuard, got %v", err)
			}
		})
	}
}

func TestConfirmFormat_AllowedFromIdle(t *testing.T) {
	s := mustApply(t, NewSeries("Alpha", "Bravo"), Command{Type: CmdConfirmFormat, SeriesType: Bo5})
	if s.State != StateBanPhase || len(s.Rounds) != 5 {
		t.Fatalf("got state %s with %d rounds", s.State, len(s.Rounds))
	}
}

func TestAssignRoles(t *testing.T) {
	cases := []struct {
		name    string
		setup   Series
		a, b    string
		wantErr bool
	}{
		{name: "from idle", setup: NewSeries("Team A", "Team B"), a: "Alpha", b: "Bravo"},
		{name: "blank team", setup: NewSeries("", ""), a: "Alpha", b: "  ", wantErr: true},
		{name: "same names", setup: NewSeries("", ""), a: "Alpha", b: "Alpha", wantErr: true},
		{name: "not idle", setup: Series{State: StateSeriesSetup}, a: "Alpha", b: "Bravo", wantErr: true},
		{name: "codes on own side", setup: NewSeries("", ""), a: "A", b: "B"},
		{name: "team a labelled B", setup: NewSeries("", ""), a: "B", b: "Bravo", wantErr: true},
		{name: "team b labelled A", setup: NewSeries("", ""), a: "Alpha", b: " A ", wantErr: true},
		{name: "crossed codes", setup: NewSeries("", ""), a: "B", b: "A", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events, s, err := Apply(tc.setup, testCatalog(), Command{Type: CmdAssignRoles, TeamA: tc.a, TeamB: tc.b})
			if tc.wantErr {
				if !errors.Is(err, ErrGuard) {
					t.Fatalf("want ErrGuard, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if s.State != StateSeriesSetup || s.TeamA != tc.a || s.TeamB != tc.b {
				t.Fatalf("unexpected series: %+v", s)
			}
			if !ContainsEvent(events, EvtRolesAssigned) {
				t.Fatalf("expected EvtRolesAssigned")
			}
		})
	}
}

func TestBanPhase_FollowsSchedule(t *testing.T) {
	s := confirmedSeries(t, Bo3)

	for i, cmd := range scenarioBans {
		if s.State != StateBanPhase {
			t.Fatalf("ban %d: left ban phase early (%s)", i, s.State)
		}
		step := BanSchedule[i]
		if s.Turn != (Turn{Team: step.Team, Action: ActionBan, Kind: step.Kind}) {
			t.Fatalf("ban %d: turn %+v does not match schedule %+v", i, s.Turn, step)
		}
		s = mustApply(t, s, cmd)
	}

	if len(s.Bans) != len(BanSchedule) {
		t.Fatalf("want %d bans, got %d", len(BanSchedule), len(s.Bans))
	}
	for i, b := range s.Bans {
		if b.StepIndex != i || b.ByTeam != BanSchedule[i].Team || b.Kind != BanSchedule[i].Kind {
			t.Fatalf("ban %d: got %+v, want %+v", i, b, BanSchedule[i])
		}
		if b.Kind == KindSlayerMap && b.ObjectiveModeID != 0 {
			t.Fatalf("slayer ban %d carries an objective mode", i)
		}
	}
}

func TestScenario_AlphaBravoBo3(t *testing.T) {
	s := confirmedSeries(t, Bo3)
	if len(s.Rounds) != 3 {
		t.Fatalf("want 3 rounds, got %d", len(s.Rounds))
	}

	var events []Event
	var err error
	for _, cmd := range scenarioBans {
		events, s, err = Apply(s, testCatalog(), cmd)
		if err != nil {
			t.Fatalf("ban %+v: %v", cmd, err)
		}
	}
	if !ContainsEvent(events, EvtPickWindowOpened) {
		t.Fatalf("expected EvtPickWindowOpened after the last ban")
	}
	if s.State != StatePickWindow || s.RoundIndex != 0 {
		t.Fatalf("got state %s round %d", s.State, s.RoundIndex)
	}
	want := Turn{Team: TeamB, Action: ActionPick, Kind: KindObjectiveCombo}
	if s.Turn != want {
		t.Fatalf("turn: got %+v, want %+v", s.Turn, want)
	}

	for _, cmd := range scenarioPicks {
		events, s, err = Apply(s, testCatalog(), cmd)
		if err != nil {
			t.Fatalf("pick %+v: %v", cmd, err)
		}
	}
	if !ContainsEvent(events, EvtSeriesCompleted) {
		t.Fatalf("expected EvtSeriesCompleted")
	}
	if s.State != StateSeriesComplete || !s.Turn.IsZero() {
		t.Fatalf("got state %s turn %+v", s.State, s.Turn)
	}

	slayer := s.Rounds[1]
	if slayer.ModeID != modeSlayer || slayer.PickedBy != TeamA || slayer.MapID != mapLiveFire || !slayer.Locked {
		t.Fatalf("slayer round: %+v", slayer)
	}
}

func TestPickingTeamForGame(t *testing.T) {
	for g := 1; g <= 9; g++ {
		want := TeamA
		if g%2 == 1 {
			want = TeamB
		}
		if got := PickingTeamForGame(g); got != want {
			t.Fatalf("game %d: got %s, want %s", g, got, want)
		}
	}
}

func TestDeriveTurn(t *testing.T) {
	rounds := []Round{{Order: 0, SlotType: SlotObjective}, {Order: 1, SlotType: SlotSlayer}}
	cases := []struct {
		name  string
		setup Series
		want  Turn
	}{
		{name: "idle", setup: Series{State: StateIdle}, want: Turn{}},
		{name: "B combo ban", setup: Series{State: StateBanPhase, BanIndex: 1}, want: Turn{Team: TeamB, Action: ActionBan, Kind: KindObjectiveCombo}},
		{name: "B slayer ban", setup: Series{State: StateBanPhase, BanIndex: 5}, want: Turn{Team: TeamB, Action: ActionBan, Kind: KindSlayerMap}},
		{name: "A slayer pick game 2", setup: Series{State: StatePickWindow, RoundIndex: 1, Rounds: rounds}, want: Turn{Team: TeamA, Action: ActionPick, Kind: KindSlayerMap}},
		{name: "complete", setup: Series{State: StateSeriesComplete, Rounds: rounds}, want: Turn{}},
		{name: "aborted", setup: Series{State: StateAborted}, want: Turn{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveTurn(tc.setup); got != tc.want {
				t.Fatalf("got %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestTurnOwnership_RejectsWithoutStateChange(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T) Series
		cmd   Command
	}{
		{
			name:  "B bans on A's turn",
			setup: func(t *testing.T) Series { return confirmedSeries(t, Bo3) },
			cmd:   Command{Type: CmdBanObjectiveCombo, Team: TeamB, ModeID: modeCTF, MapID: mapAquarius},
		},
		{
			name:  "slayer ban during combo step",
			setup: func(t *testing.T) Series { return confirmedSeries(t, Bo3) },
			cmd:   Command{Type: CmdBanSlayerMap, Team: TeamA, MapID: mapStreets},
		},
		{
			name:  "pick during ban phase",
			setup: func(t *testing.T) Series { return confirmedSeries(t, Bo3) },
			cmd:   Command{Type: CmdPickObjectiveCombo, Team: TeamA, ModeID: modeCTF, MapID: mapAquarius},
		},
		{
			name:  "A picks game 1",
			setup: pickWindowSeries,
			cmd:   Command{Type: CmdPickObjectiveCombo, Team: TeamA, ModeID: modeKOTH, MapID: mapRecharge},
		},
		{
			name:  "ban during pick window",
			setup: pickWindowSeries,
			cmd:   Command{Type: CmdBanObjectiveCombo, Team: TeamB, ModeID: modeKOTH, MapID: mapRecharge},
		},
		{
			name:  "ban while idle",
			setup: func(*testing.T) Series { return NewSeries("Alpha", "Bravo") },
			cmd:   Command{Type: CmdBanObjectiveCombo, Team: TeamA, ModeID: modeCTF, MapID: mapAquarius},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := tc.setup(t)
			events, after, err := Apply(before, testCatalog(), tc.cmd)
			if !errors.Is(err, ErrTurn) {
				t.Fatalf("want ErrTurn, got %v", err)
			}
			var turnErr *TurnError
			if !errors.As(err, &turnErr) || turnErr.Reason == "" {
				t.Fatalf("want *TurnError with a reason, got %T", err)
			}
			if events != nil {
				t.Fatalf("expected no events, got %+v", events)
			}
			if !reflect.DeepEqual(before, after) {
				t.Fatalf("state changed on rejected command:\nbefore %+v\nafter  %+v", before, after)
			}
		})
	}
}

func TestPickSlayerMap_OnObjectiveSlotIsGuardError(t *testing.T) {
	s := pickWindowSeries(t)

	// Correct team for game 1, wrong slot kind.
	_, _, err := Apply(s, testCatalog(), Command{Type: CmdPickSlayerMap, Team: TeamB, MapID: mapAquarius})
	if !errors.Is(err, ErrGuard) {
		t.Fatalf("want ErrGuard, got %v", err)
	}

	s = mustApply(t, s, scenarioPicks[0])
	_, _, err = Apply(s, testCatalog(), Command{Type: CmdPickObjectiveCombo, Team: TeamA, ModeID: modeCTF, MapID: mapFortress})
	if !errors.Is(err, ErrGuard) {
		t.Fatalf("objective pick on slayer slot: want ErrGuard, got %v", err)
	}
}

func TestBanObjectiveCombo_AlreadyBanned(t *testing.T) {
	s := confirmedSeries(t, Bo3)
	s = mustApply(t, s, scenarioBans[0])

	_, _, err := Apply(s, testCatalog(), Command{Type: CmdBanObjectiveCombo, Team: TeamB, ModeID: modeCTF, MapID: mapAquarius})
	var guardErr *GuardError
	if !errors.As(err, &guardErr) {
		t.Fatalf("want *GuardError, got %v", err)
	}
	if guardErr.Reason != "That combo is already banned" {
		t.Fatalf("unexpected reason %q", guardErr.Reason)
	}
}

func TestBanLegality(t *testing.T) {
	atSlayerBan := func(t *testing.T) Series {
		s := confirmedSeries(t, Bo3)
		for _, cmd := range scenarioBans[:5] {
			s = mustApply(t, s, cmd)
		}
		return s
	}

	cases := []struct {
		name  string
		setup func(t *testing.T) Series
		cmd   Command
	}{
		{
			name:  "slayer is not an objective",
			setup: func(t *testing.T) Series { return confirmedSeries(t, Bo3) },
			cmd:   Command{Type: CmdBanObjectiveCombo, Team: TeamA, ModeID: modeSlayer, MapID: mapAquarius},
		},
		{
			name:  "map does not support mode",
			setup: func(t *testing.T) Series { return confirmedSeries(t, Bo3) },
			cmd:   Command{Type: CmdBanObjectiveCombo, Team: TeamA, ModeID: modeCTF, MapID: mapLattice},
		},
		{
			name:  "unknown map",
			setup: func(t *testing.T) Series { return confirmedSeries(t, Bo3) },
			cmd:   Command{Type: CmdBanObjectiveCombo, Team: TeamA, ModeID: modeCTF, MapID: 999},
		},
		{
			name:  "unknown mode",
			setup: func(t *testing.T) Series { return confirmedSeries(t, Bo3) },
			cmd:   Command{Type: CmdBanObjectiveCombo, Team: TeamA, ModeID: 999, MapID: mapAquarius},
		},
		{
			name:  "slayer ban on map without slayer",
			setup: atSlayerBan,
			cmd:   Command{Type: CmdBanSlayerMap, Team: TeamB, MapID: mapLattice},
		},
		{
			name: "slayer map banned twice",
			setup: func(t *testing.T) Series {
				return mustApply(t, atSlayerBan(t), scenarioBans[5])
			},
			cmd: Command{Type: CmdBanSlayerMap, Team: TeamA, MapID: mapStreets},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Apply(tc.setup(t), testCatalog(), tc.cmd)
			if !errors.Is(err, ErrGuard) {
				t.Fatalf("want ErrGuard, got %v", err)
			}
		})
	}
}

func TestBanSlayerMap_WithoutSlayerMode(t *testing.T) {
	s := confirmedSeries(t, Bo3)
	for _, cmd := range scenarioBans[:5] {
		s = mustApply(t, s, cmd)
	}
	cat := testCatalog()
	cat.SlayerModeID = 0

	_, _, err := Apply(s, cat, scenarioBans[5])
	if !errors.Is(err, ErrGuard) {
		t.Fatalf("want ErrGuard, got %v", err)
	}
}

func TestPickLegality(t *testing.T) {
	afterGame1 := func(t *testing.T) Series { return mustApply(t, pickWindowSeries(t), scenarioPicks[0]) }
	afterGame2 := func(t *testing.T) Series { return mustApply(t, afterGame1(t), scenarioPicks[1]) }

	cases := []struct {
		name   string
		setup  func(t *testing.T) Series
		cmd    Command
		reason string
	}{
		{
			name:   "banned combo",
			setup:  pickWindowSeries,
			cmd:    Command{Type: CmdPickObjectiveCombo, Team: TeamB, ModeID: modeCTF, MapID: mapAquarius},
			reason: "Combo is banned",
		},
		{
			name:   "slayer-banned map",
			setup:  afterGame1,
			cmd:    Command{Type: CmdPickSlayerMap, Team: TeamA, MapID: mapStreets},
			reason: "This Slayer map is banned",
		},
		{
			name:   "slayer map reuse",
			setup:  afterGame1,
			cmd:    Command{Type: CmdPickSlayerMap, Team: TeamA, MapID: mapRecharge},
			reason: "Map already used in this series",
		},
		{
			name:   "objective map reuse with another mode",
			setup:  afterGame2,
			cmd:    Command{Type: CmdPickObjectiveCombo, Team: TeamB, ModeID: modeOddball, MapID: mapLiveFire},
			reason: "Map already used in this series",
		},
		{
			name:   "slayer on objective-only map",
			setup:  afterGame1,
			cmd:    Command{Type: CmdPickSlayerMap, Team: TeamA, MapID: mapFortress},
			reason: "Map is not valid for Slayer",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Apply(tc.setup(t), testCatalog(), tc.cmd)
			var guardErr *GuardError
			if !errors.As(err, &guardErr) {
				t.Fatalf("want *GuardError, got %v", err)
			}
			if guardErr.Reason != tc.reason {
				t.Fatalf("reason: got %q, want %q", guardErr.Reason, tc.reason)
			}
		})
	}
}

func TestPickedMapsAreUnique(t *testing.T) {
	s := pickWindowSeries(t)
	for _, cmd := range scenarioPicks {
		s = mustApply(t, s, cmd)
	}

	seen := map[uint]bool{}
	for _, r := range s.Rounds {
		if seen[r.MapID] {
			t.Fatalf("map %d picked twice", r.MapID)
		}
		seen[r.MapID] = true
	}
}

func TestUndo_IsStrictInverse(t *testing.T) {
	type step struct {
		cmd       Command
		checkUndo bool
	}
	var steps []step
	for i, cmd := range scenarioBans {
		// Undo is not offered once the pick window opens with nothing picked.
		steps = append(steps, step{cmd: cmd, checkUndo: i < len(scenarioBans)-1})
	}
	for i, cmd := range scenarioPicks {
		// Nor once the series is complete.
		steps = append(steps, step{cmd: cmd, checkUndo: i < len(scenarioPicks)-1})
	}

	s := confirmedSeries(t, Bo3)
	for i, st := range steps {
		before := s
		after := mustApply(t, before, st.cmd)
		if st.checkUndo {
			undone := mustApply(t, after, Command{Type: CmdUndo})
			if !reflect.DeepEqual(before, undone) {
				t.Fatalf("step %d (%s): undo did not restore state:\nbefore %+v\nundone %+v", i, st.cmd.Type, before, undone)
			}
		}
		s = after
	}
}

func TestUndo_Boundaries(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T) Series
	}{
		{name: "idle", setup: func(*testing.T) Series { return NewSeries("Alpha", "Bravo") }},
		{name: "no bans yet", setup: func(t *testing.T) Series { return confirmedSeries(t, Bo3) }},
		{name: "first pick pending", setup: pickWindowSeries},
		{
			name: "series complete",
			setup: func(t *testing.T) Series {
				s := pickWindowSeries(t)
				for _, cmd := range scenarioPicks {
					s = mustApply(t, s, cmd)
				}
				return s
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := tc.setup(t)
			_, after, err := Apply(before, testCatalog(), Command{Type: CmdUndo})
			if !errors.Is(err, ErrGuard) {
				t.Fatalf("want ErrGuard, got %v", err)
			}
			if !reflect.DeepEqual(before, after) {
				t.Fatalf("state changed on rejected undo")
			}
		})
	}
}

func TestUndo_RewindsOneStepPerCall(t *testing.T) {
	s := pickWindowSeries(t)
	s = mustApply(t, s, scenarioPicks[0])
	s = mustApply(t, s, scenarioPicks[1])

	s = mustApply(t, s, Command{Type: CmdUndo})
	if s.RoundIndex != 1 || s.Rounds[1].Picked() || !s.Rounds[0].Picked() {
		t.Fatalf("first undo: round %d rounds %+v", s.RoundIndex, s.Rounds)
	}
	s = mustApply(t, s, Command{Type: CmdUndo})
	if s.RoundIndex != 0 || s.Rounds[0].Picked() {
		t.Fatalf("second undo: round %d rounds %+v", s.RoundIndex, s.Rounds)
	}
	if s.Turn != (Turn{Team: TeamB, Action: ActionPick, Kind: KindObjectiveCombo}) {
		t.Fatalf("turn after undo: %+v", s.Turn)
	}
	if len(s.Bans) != len(BanSchedule) {
		t.Fatalf("undo in pick window touched bans")
	}
}

func TestReset_FromAnyState(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T) Series
	}{
		{name: "idle", setup: func(*testing.T) Series { return NewSeries("Alpha", "Bravo") }},
		{name: "ban phase", setup: func(t *testing.T) Series { return mustApply(t, confirmedSeries(t, Bo5), scenarioBans[0]) }},
		{name: "pick window", setup: pickWindowSeries},
		{name: "aborted", setup: func(*testing.T) Series { return Series{State: StateAborted, SeriesType: Bo3, Rounds: []Round{{}}} }},
		{
			name: "complete",
			setup: func(t *testing.T) Series {
				s := pickWindowSeries(t)
				for _, cmd := range scenarioPicks {
					s = mustApply(t, s, cmd)
				}
				return s
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events, s, err := Apply(tc.setup(t), testCatalog(), Command{Type: CmdReset})
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if s.State != StateIdle || len(s.Rounds) != 0 || len(s.Bans) != 0 || !s.Turn.IsZero() {
				t.Fatalf("not reset: %+v", s)
			}
			if s.SeriesType != "" || s.Ruleset != "" || s.BanIndex != 0 || s.RoundIndex != 0 {
				t.Fatalf("fields not cleared: %+v", s)
			}
			if !ContainsEvent(events, EvtSeriesReset) {
				t.Fatalf("expected EvtSeriesReset")
			}
		})
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s := confirmedSeries(t, Bo3)
	for _, cmd := range scenarioBans {
		s = mustApply(t, s, cmd)
	}
	snapshot := s.Clone()

	_ = mustApply(t, s, scenarioPicks[0])
	_ = mustApply(t, s, Command{Type: CmdReset})

	if !reflect.DeepEqual(s, snapshot) {
		t.Fatalf("input series was mutated")
	}
}

func TestApply_UnsupportedCommand(t *testing.T) {
	_, _, err := Apply(NewSeries("Alpha", "Bravo"), testCatalog(), Command{Type: "Hover"})
	if !errors.Is(err, ErrUnsupportedCommand) {
		t.Fatalf("want ErrUnsupportedCommand, got %v", err)
	}
}

func TestParseTeam(t *testing.T) {
	s := NewSeries("Alpha", "Bravo")
	cases := []struct {
		raw     string
		want    Team
		wantErr bool
	}{
		{raw: "A", want: TeamA},
		{raw: "B", want: TeamB},
		{raw: "Alpha", want: TeamA},
		{raw: " Bravo ", want: TeamB},
		{raw: "Charlie", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := s.ParseTeam(tc.raw)
			if tc.wantErr {
				if !errors.Is(err, ErrGuard) {
					t.Fatalf("want ErrGuard, got %v", err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("got %q, %v; want %q", got, err, tc.want)
			}
		})
	}
}

func TestResolveSlayerMode(t *testing.T) {
	cases := []struct {
		name   string
		modes  []Mode
		want   uint
		wantOK bool
	}{
		{name: "single non-objective", modes: []Mode{{ID: 1, Name: "Slayer"}, {ID: 2, Name: "CTF", IsObjective: true}}, want: 1, wantOK: true},
		{name: "renamed single", modes: []Mode{{ID: 3, Name: "Team Slayer"}}, want: 3, wantOK: true},
		{name: "several, preferred by name", modes: []Mode{{ID: 4, Name: "FFA"}, {ID: 5, Name: "Slayer"}}, want: 5, wantOK: true},
		{name: "several, none preferred", modes: []Mode{{ID: 4, Name: "FFA"}, {ID: 6, Name: "Snipers"}}},
		{name: "none", modes: []Mode{{ID: 2, Name: "CTF", IsObjective: true}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ResolveSlayerMode(tc.modes, SlayerModeName)
			if got != tc.want || ok != tc.wantOK {
				t.Fatalf("got (%d, %v), want (%d, %v)", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}
