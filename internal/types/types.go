package types

import (
	"time"

	"github.com/DoyleJ11/veto-backend/internal/engine"
)

const (
	MsgStateSnapshot = "StateSnapshot"
	MsgError         = "Error"
)

type ServerMessage struct {
	Type    string      `json:"type"` // "StateSnapshot" | "Error"
	Version int         `json:"version,omitempty"`
	Series  *SeriesView `json:"series,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type TurnView struct {
	Team     engine.Team   `json:"team"`
	TeamName string        `json:"team_name"`
	Action   engine.Action `json:"action"`
	Kind     engine.Kind   `json:"kind"`
}

type RoundView struct {
	Order    int             `json:"order"`
	SlotType engine.SlotType `json:"slot_type"`
	ModeID   uint            `json:"mode_id,omitempty"`
	Mode     string          `json:"mode,omitempty"`
	PickedBy engine.Team     `json:"picked_by"`
	MapID    uint            `json:"map_id,omitempty"`
	Map      string          `json:"map,omitempty"`
	Locked   bool            `json:"locked"`
}

type BanView struct {
	StepIndex       int         `json:"step_index"`
	ByTeam          engine.Team `json:"by_team"`
	Kind            engine.Kind `json:"kind"`
	MapID           uint        `json:"map_id"`
	Map             string      `json:"map"`
	ObjectiveModeID uint        `json:"objective_mode_id,omitempty"`
	ObjectiveMode   string      `json:"objective_mode,omitempty"`
}

// SeriesView is the wire form of a series, with catalog names resolved.
type SeriesView struct {
	ID         uint              `json:"id"`
	Code       string            `json:"code"`
	TeamA      string            `json:"team_a"`
	TeamB      string            `json:"team_b"`
	State      engine.State      `json:"state"`
	Ruleset    string            `json:"ruleset"`
	SeriesType engine.SeriesType `json:"series_type,omitempty"`
	RoundIndex int               `json:"round_index"`
	BanIndex   int               `json:"ban_index"`
	Turn       *TurnView         `json:"turn"`
	Rounds     []RoundView       `json:"rounds"`
	Bans       []BanView         `json:"bans"`
	CreatedAt  time.Time         `json:"created_at"`
}

func NewSeriesView(s engine.Series, cat engine.Catalog) SeriesView {
	v := SeriesView{
		ID:         s.ID,
		Code:       s.Code,
		TeamA:      s.TeamA,
		TeamB:      s.TeamB,
		State:      s.State,
		Ruleset:    s.Ruleset,
		SeriesType: s.SeriesType,
		RoundIndex: s.RoundIndex,
		BanIndex:   s.BanIndex,
		Rounds:     make([]RoundView, 0, len(s.Rounds)),
		Bans:       make([]BanView, 0, len(s.Bans)),
		CreatedAt:  s.CreatedAt,
	}
	if !s.Turn.IsZero() {
		v.Turn = &TurnView{
			Team:     s.Turn.Team,
			TeamName: s.TeamName(s.Turn.Team),
			Action:   s.Turn.Action,
			Kind:     s.Turn.Kind,
		}
	}
	for _, r := range s.Rounds {
		v.Rounds = append(v.Rounds, RoundView{
			Order:    r.Order,
			SlotType: r.SlotType,
			ModeID:   r.ModeID,
			Mode:     cat.Modes[r.ModeID].Name,
			PickedBy: r.PickedBy,
			MapID:    r.MapID,
			Map:      cat.Maps[r.MapID].Name,
			Locked:   r.Locked,
		})
	}
	for _, b := range s.Bans {
		v.Bans = append(v.Bans, BanView{
			StepIndex:       b.StepIndex,
			ByTeam:          b.ByTeam,
			Kind:            b.Kind,
			MapID:           b.MapID,
			Map:             cat.Maps[b.MapID].Name,
			ObjectiveModeID: b.ObjectiveModeID,
			ObjectiveMode:   cat.Modes[b.ObjectiveModeID].Name,
		})
	}
	return v
}

// NewSnapshotMessage wraps a committed series for the live stream.
func NewSnapshotMessage(version int, s engine.Series, cat engine.Catalog) ServerMessage {
	v := NewSeriesView(s, cat)
	return ServerMessage{Type: MsgStateSnapshot, Version: version, Series: &v}
}
