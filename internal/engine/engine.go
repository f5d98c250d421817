package engine

import (
	"fmt"
	"strings"
	"time"
)

type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

type Action string

const (
	ActionBan  Action = "BAN"
	ActionPick Action = "PICK"
)

type Kind string

const (
	KindObjectiveCombo Kind = "OBJECTIVE_COMBO"
	KindSlayerMap      Kind = "SLAYER_MAP"
)

type SlotType string

const (
	SlotObjective SlotType = "OBJECTIVE"
	SlotSlayer    SlotType = "SLAYER"
)

type State string

const (
	StateIdle           State = "IDLE"
	StateSeriesSetup    State = "SERIES_SETUP"
	StateBanPhase       State = "BAN_PHASE"
	StatePickWindow     State = "PICK_WINDOW"
	StateSeriesComplete State = "SERIES_COMPLETE"
	StateAborted        State = "ABORTED" // reserved terminal state, only left via reset
)

type SeriesType string

const (
	Bo3 SeriesType = "Bo3"
	Bo5 SeriesType = "Bo5"
	Bo7 SeriesType = "Bo7"
)

// Turn is the single action the engine will accept next. The zero value means none.
type Turn struct {
	Team   Team
	Action Action
	Kind   Kind
}

func (t Turn) IsZero() bool { return t == Turn{} }

type Round struct {
	Order    int
	SlotType SlotType
	ModeID   uint
	PickedBy Team
	MapID    uint
	Locked   bool
}

func (r Round) Picked() bool { return r.MapID != 0 }

type Ban struct {
	StepIndex       int
	ByTeam          Team
	Kind            Kind
	MapID           uint
	ObjectiveModeID uint // zero for SLAYER_MAP bans
}

// Series is the aggregate one veto ceremony operates on.
type Series struct {
	ID         uint
	Code       string
	TeamA      string
	TeamB      string
	State      State
	Ruleset    string
	SeriesType SeriesType
	RoundIndex int
	BanIndex   int
	Turn       Turn
	Rounds     []Round
	Bans       []Ban
	CreatedAt  time.Time
}

type CommandType string

const (
	CmdAssignRoles        CommandType = "AssignRoles"
	CmdConfirmFormat      CommandType = "ConfirmFormat"
	CmdBanObjectiveCombo  CommandType = "BanObjectiveCombo"
	CmdBanSlayerMap       CommandType = "BanSlayerMap"
	CmdPickObjectiveCombo CommandType = "PickObjectiveCombo"
	CmdPickSlayerMap      CommandType = "PickSlayerMap"
	CmdUndo               CommandType = "Undo"
	CmdReset              CommandType = "Reset"
)

/*
	CmdAssignRoles        -> EvtRolesAssigned
	CmdConfirmFormat      -> EvtFormatConfirmed -> EvtTurnAdvanced
	CmdBanObjectiveCombo  -> EvtMapBanned -> EvtTurnAdvanced | EvtPickWindowOpened
	CmdBanSlayerMap       -> EvtMapBanned -> EvtTurnAdvanced | EvtPickWindowOpened
	CmdPickObjectiveCombo -> EvtMapPicked -> EvtTurnAdvanced | EvtSeriesCompleted
	CmdPickSlayerMap      -> EvtMapPicked -> EvtTurnAdvanced | EvtSeriesCompleted
	CmdUndo               -> EvtStepUndone
	CmdReset              -> EvtSeriesReset
*/

// Command is a caller request. Team must already be normalized to a code.
type Command struct {
	Type       CommandType
	Team       Team
	TeamA      string
	TeamB      string
	SeriesType SeriesType
	MapID      uint
	ModeID     uint
}

type EventType string

const (
	EvtRolesAssigned    EventType = "RolesAssigned"
	EvtFormatConfirmed  EventType = "FormatConfirmed"
	EvtMapBanned        EventType = "MapBanned"
	EvtMapPicked        EventType = "MapPicked"
	EvtTurnAdvanced     EventType = "TurnAdvanced"
	EvtPickWindowOpened EventType = "PickWindowOpened"
	EvtSeriesCompleted  EventType = "SeriesCompleted"
	EvtStepUndone       EventType = "StepUndone"
	EvtSeriesReset      EventType = "SeriesReset"
)

type Event struct {
	Type   EventType
	Team   Team
	Kind   Kind
	Step   int
	MapID  uint
	ModeID uint
}

// Apply runs cmd against s and returns the emitted events and the next series.
// s is never modified; on error it is returned as-is.
func Apply(s Series, cat Catalog, cmd Command) ([]Event, Series, error) {
	next := s.Clone()

	var (
		events []Event
		err    error
	)

	switch cmd.Type {
	case CmdAssignRoles:
		events, err = assignRoles(&next, cmd)
	case CmdConfirmFormat:
		events, err = confirmFormat(&next, cmd)
	case CmdBanObjectiveCombo:
		events, err = banObjectiveCombo(&next, cat, cmd)
	case CmdBanSlayerMap:
		events, err = banSlayerMap(&next, cat, cmd)
	case CmdPickObjectiveCombo:
		events, err = pickObjectiveCombo(&next, cat, cmd)
	case CmdPickSlayerMap:
		events, err = pickSlayerMap(&next, cat, cmd)
	case CmdUndo:
		events, err = undoLast(&next)
	case CmdReset:
		events = reset(&next)
	default:
		return nil, s, ErrUnsupportedCommand
	}

	if err != nil {
		return nil, s, err
	}
	return events, next, nil
}

func assignRoles(s *Series, cmd Command) ([]Event, error) {
	if s.State != StateIdle {
		return nil, guard("Roles can only be assigned in IDLE")
	}
	teamA, teamB := strings.TrimSpace(cmd.TeamA), strings.TrimSpace(cmd.TeamB)
	if teamA == "" || teamB == "" {
		return nil, guard("Both team_a and team_b are required")
	}
	if teamA == teamB {
		return nil, guard("team_a and team_b must differ")
	}
	if err := CheckTeamLabels(teamA, teamB); err != nil {
		return nil, err
	}

	s.TeamA, s.TeamB = teamA, teamB
	s.State = StateSeriesSetup
	return []Event{{Type: EvtRolesAssigned}}, nil
}

func confirmFormat(s *Series, cmd Command) ([]Event, error) {
	if s.State != StateIdle && s.State != StateSeriesSetup {
		return nil, guard("Series already configured")
	}
	slots, ok := RoundTemplates[cmd.SeriesType]
	if !ok {
		return nil, guard("Invalid series_type")
	}

	s.Ruleset = RulesetTSD
	s.SeriesType = cmd.SeriesType
	s.Rounds = make([]Round, len(slots))
	for i, slot := range slots {
		s.Rounds[i] = Round{Order: i, SlotType: slot}
	}
	s.Bans = nil
	s.State = StateBanPhase
	s.BanIndex = 0
	s.RoundIndex = 0
	s.Turn = DeriveTurn(*s)

	return []Event{
		{Type: EvtFormatConfirmed},
		{Type: EvtTurnAdvanced, Team: s.Turn.Team, Kind: s.Turn.Kind, Step: s.BanIndex},
	}, nil
}

func banObjectiveCombo(s *Series, cat Catalog, cmd Command) ([]Event, error) {
	if err := expectTurn(*s, cmd.Team, ActionBan); err != nil {
		return nil, err
	}
	if s.State != StateBanPhase {
		return nil, guard("Not in ban phase")
	}
	if err := expectKind(*s, KindObjectiveCombo); err != nil {
		return nil, err
	}

	// Legality
	if err := objectiveCombo(cat, cmd.ModeID, cmd.MapID); err != nil {
		return nil, err
	}
	if s.ComboBanned(cmd.ModeID, cmd.MapID) {
		return nil, guard("That combo is already banned")
	}

	step := s.BanIndex
	s.Bans = append(s.Bans, Ban{
		StepIndex:       step,
		ByTeam:          cmd.Team,
		Kind:            KindObjectiveCombo,
		MapID:           cmd.MapID,
		ObjectiveModeID: cmd.ModeID,
	})

	events := []Event{{Type: EvtMapBanned, Team: cmd.Team, Kind: KindObjectiveCombo, Step: step, MapID: cmd.MapID, ModeID: cmd.ModeID}}
	return append(events, advanceBan(s)...), nil
}

func banSlayerMap(s *Series, cat Catalog, cmd Command) ([]Event, error) {
	if err := expectTurn(*s, cmd.Team, ActionBan); err != nil {
		return nil, err
	}
	if s.State != StateBanPhase {
		return nil, guard("Not in ban phase")
	}
	if err := expectKind(*s, KindSlayerMap); err != nil {
		return nil, err
	}

	slayer, err := slayerMap(cat, cmd.MapID)
	if err != nil {
		return nil, err
	}
	if s.SlayerBanned(cmd.MapID) {
		return nil, guard("That Slayer map is already banned")
	}

	step := s.BanIndex
	s.Bans = append(s.Bans, Ban{
		StepIndex: step,
		ByTeam:    cmd.Team,
		Kind:      KindSlayerMap,
		MapID:     cmd.MapID,
	})

	events := []Event{{Type: EvtMapBanned, Team: cmd.Team, Kind: KindSlayerMap, Step: step, MapID: cmd.MapID, ModeID: slayer.ID}}
	return append(events, advanceBan(s)...), nil
}

func pickObjectiveCombo(s *Series, cat Catalog, cmd Command) ([]Event, error) {
	if err := expectTurn(*s, cmd.Team, ActionPick); err != nil {
		return nil, err
	}
	if s.State != StatePickWindow {
		return nil, guard("Not in pick window")
	}
	r, ok := s.CurrentRound()
	if !ok || r.SlotType != SlotObjective {
		return nil, guard("This round is not Objective")
	}
	if err := expectKind(*s, KindObjectiveCombo); err != nil {
		return nil, err
	}

	if err := objectiveCombo(cat, cmd.ModeID, cmd.MapID); err != nil {
		return nil, err
	}
	if s.ComboBanned(cmd.ModeID, cmd.MapID) {
		return nil, guard("Combo is banned")
	}
	if s.MapUsed(cmd.MapID) {
		return nil, guard("Map already used in this series")
	}

	return pick(s, cmd.Team, cmd.ModeID, cmd.MapID), nil
}

func pickSlayerMap(s *Series, cat Catalog, cmd Command) ([]Event, error) {
	if err := expectTurn(*s, cmd.Team, ActionPick); err != nil {
		return nil, err
	}
	if s.State != StatePickWindow {
		return nil, guard("Not in pick window")
	}
	r, ok := s.CurrentRound()
	if !ok || r.SlotType != SlotSlayer {
		return nil, guard("This round is not Slayer")
	}
	if err := expectKind(*s, KindSlayerMap); err != nil {
		return nil, err
	}

	slayer, err := slayerMap(cat, cmd.MapID)
	if err != nil {
		return nil, err
	}
	if s.SlayerBanned(cmd.MapID) {
		return nil, guard("This Slayer map is banned")
	}
	if s.MapUsed(cmd.MapID) {
		return nil, guard("Map already used in this series")
	}

	return pick(s, cmd.Team, slayer.ID, cmd.MapID), nil
}

func pick(s *Series, team Team, modeID, mapID uint) []Event {
	r := &s.Rounds[s.RoundIndex]
	r.ModeID = modeID
	r.PickedBy = team
	r.MapID = mapID
	r.Locked = true

	events := []Event{{Type: EvtMapPicked, Team: team, Kind: KindForSlot(r.SlotType), Step: r.Order, MapID: mapID, ModeID: modeID}}
	return append(events, advancePick(s)...)
}

func advanceBan(s *Series) []Event {
	s.BanIndex++
	if s.BanIndex < len(BanSchedule) {
		s.Turn = DeriveTurn(*s)
		return []Event{{Type: EvtTurnAdvanced, Team: s.Turn.Team, Kind: s.Turn.Kind, Step: s.BanIndex}}
	}

	// Move to game 1 pick
	s.State = StatePickWindow
	s.RoundIndex = 0
	s.Turn = DeriveTurn(*s)
	return []Event{{Type: EvtPickWindowOpened, Team: s.Turn.Team, Kind: s.Turn.Kind, Step: s.RoundIndex}}
}

func advancePick(s *Series) []Event {
	if s.RoundIndex < len(s.Rounds)-1 {
		s.RoundIndex++
		s.Turn = DeriveTurn(*s)
		return []Event{{Type: EvtTurnAdvanced, Team: s.Turn.Team, Kind: s.Turn.Kind, Step: s.RoundIndex}}
	}

	s.State = StateSeriesComplete
	s.Turn = Turn{}
	return []Event{{Type: EvtSeriesCompleted}}
}

// undoLast reverses exactly one committed ban or pick.
func undoLast(s *Series) ([]Event, error) {
	switch s.State {
	case StateBanPhase:
		if len(s.Bans) == 0 {
			return nil, guard("Nothing to undo")
		}
		last := 0
		for i, b := range s.Bans {
			if b.StepIndex > s.Bans[last].StepIndex {
				last = i
			}
		}
		ban := s.Bans[last]
		s.Bans = append(s.Bans[:last], s.Bans[last+1:]...)
		if len(s.Bans) == 0 {
			s.Bans = nil
		}
		s.BanIndex = ban.StepIndex
		s.Turn = DeriveTurn(*s)
		return []Event{{Type: EvtStepUndone, Team: ban.ByTeam, Kind: ban.Kind, Step: ban.StepIndex, MapID: ban.MapID, ModeID: ban.ObjectiveModeID}}, nil

	case StatePickWindow:
		r, ok := s.CurrentRound()
		if !ok {
			return nil, guard("Nothing to undo")
		}
		if !r.Picked() {
			if s.RoundIndex == 0 {
				return nil, guard("Nothing to undo")
			}
			s.RoundIndex--
		}
		cleared := s.Rounds[s.RoundIndex]
		s.Rounds[s.RoundIndex] = Round{Order: cleared.Order, SlotType: cleared.SlotType}
		s.Turn = DeriveTurn(*s)
		return []Event{{Type: EvtStepUndone, Team: cleared.PickedBy, Kind: KindForSlot(cleared.SlotType), Step: cleared.Order, MapID: cleared.MapID, ModeID: cleared.ModeID}}, nil
	}

	return nil, guard("Undo not available in current state")
}

func reset(s *Series) []Event {
	s.Rounds = nil
	s.Bans = nil
	s.Ruleset = ""
	s.SeriesType = ""
	s.RoundIndex = 0
	s.BanIndex = 0
	s.Turn = Turn{}
	s.State = StateIdle
	return []Event{{Type: EvtSeriesReset}}
}

// DeriveTurn computes the expected turn from state, indices and rounds.
func DeriveTurn(s Series) Turn {
	switch s.State {
	case StateBanPhase:
		if s.BanIndex >= 0 && s.BanIndex < len(BanSchedule) {
			step := BanSchedule[s.BanIndex]
			return Turn{Team: step.Team, Action: ActionBan, Kind: step.Kind}
		}
	case StatePickWindow:
		if r, ok := s.CurrentRound(); ok {
			return Turn{Team: PickingTeamForGame(s.RoundIndex + 1), Action: ActionPick, Kind: KindForSlot(r.SlotType)}
		}
	}
	return Turn{}
}

// expectTurn compares the caller's claim against the recomputed turn, never the cached one.
func expectTurn(s Series, team Team, action Action) error {
	t := DeriveTurn(s)
	if t.Team != team || t.Action != action {
		return wrongTurn("Not your turn")
	}
	return nil
}

func expectKind(s Series, kind Kind) error {
	t := DeriveTurn(s)
	if t.Kind != kind {
		return wrongTurn(fmt.Sprintf("Wrong action kind (expected %s)", t.Kind))
	}
	return nil
}

func objectiveCombo(cat Catalog, modeID, mapID uint) error {
	mode, ok := cat.Modes[modeID]
	if !ok {
		return guard("Unknown mode")
	}
	if !mode.IsObjective {
		return guard("Mode must be objective")
	}
	if _, ok := cat.Maps[mapID]; !ok {
		return guard("Unknown map")
	}
	if !cat.Supports(mapID, modeID) {
		return guard("Map does not support this objective")
	}
	return nil
}

func slayerMap(cat Catalog, mapID uint) (Mode, error) {
	slayer, ok := cat.SlayerMode()
	if !ok {
		return Mode{}, guard("No Slayer mode configured")
	}
	if _, ok := cat.Maps[mapID]; !ok {
		return Mode{}, guard("Unknown map")
	}
	if !cat.Supports(mapID, slayer.ID) {
		return Mode{}, guard("Map is not valid for Slayer")
	}
	return slayer, nil
}
