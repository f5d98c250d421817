package engine

import (
	"slices"
	"strings"
)

func NewSeries(teamA, teamB string) Series {
	s := Series{
		TeamA: teamA,
		TeamB: teamB,
		State: StateIdle,
	}
	s.Turn = DeriveTurn(s)
	return s
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// Clone returns a copy sharing no slices with s.
func (s Series) Clone() Series {
	c := s
	c.Rounds = slices.Clone(s.Rounds)
	c.Bans = slices.Clone(s.Bans)
	return c
}

func (s Series) CurrentRound() (Round, bool) {
	if s.RoundIndex < 0 || s.RoundIndex >= len(s.Rounds) {
		return Round{}, false
	}
	return s.Rounds[s.RoundIndex], true
}

// MapUsed reports whether mapID was already picked for any round.
func (s Series) MapUsed(mapID uint) bool {
	return slices.ContainsFunc(s.Rounds, func(r Round) bool { return r.MapID == mapID })
}

func (s Series) ComboBanned(modeID, mapID uint) bool {
	return slices.ContainsFunc(s.Bans, func(b Ban) bool {
		return b.Kind == KindObjectiveCombo && b.ObjectiveModeID == modeID && b.MapID == mapID
	})
}

func (s Series) SlayerBanned(mapID uint) bool {
	return slices.ContainsFunc(s.Bans, func(b Ban) bool {
		return b.Kind == KindSlayerMap && b.MapID == mapID
	})
}

// TeamName returns the display label for a team code.
func (s Series) TeamName(t Team) string {
	switch t {
	case TeamA:
		return s.TeamA
	case TeamB:
		return s.TeamB
	default:
		return ""
	}
}

// CheckTeamLabels rejects a label equal to the other side's code, which
// ParseTeam would resolve to the wrong team.
func CheckTeamLabels(teamA, teamB string) error {
	if strings.TrimSpace(teamA) == string(TeamB) || strings.TrimSpace(teamB) == string(TeamA) {
		return guard("team_a cannot be labelled B and team_b cannot be labelled A")
	}
	return nil
}

// ParseTeam normalizes a canonical code or an exact team label to a code.
func (s Series) ParseTeam(raw string) (Team, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == string(TeamA), raw == string(TeamB):
		return Team(raw), nil
	case raw != "" && raw == s.TeamA:
		return TeamA, nil
	case raw != "" && raw == s.TeamB:
		return TeamB, nil
	default:
		return "", guard("Invalid or unknown team")
	}
}
