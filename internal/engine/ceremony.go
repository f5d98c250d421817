package engine

// RulesetTSD is recorded on a series when its format is confirmed.
const RulesetTSD = "TSD_8s_v2"

// SlayerModeName is the catalog name of the default designated non-objective mode.
const SlayerModeName = "Slayer"

type BanStep struct {
	Team Team
	Kind Kind
}

// BanSchedule is the fixed 3-2-1-1 ban ceremony.
var BanSchedule = []BanStep{
	// Objective combo bans
	{Team: TeamA, Kind: KindObjectiveCombo},
	{Team: TeamB, Kind: KindObjectiveCombo},
	{Team: TeamA, Kind: KindObjectiveCombo},
	{Team: TeamB, Kind: KindObjectiveCombo},
	{Team: TeamA, Kind: KindObjectiveCombo},
	// Slayer map bans
	{Team: TeamB, Kind: KindSlayerMap},
	{Team: TeamA, Kind: KindSlayerMap},
}

var RoundTemplates = map[SeriesType][]SlotType{
	Bo3: {SlotObjective, SlotSlayer, SlotObjective},
	Bo5: {SlotObjective, SlotSlayer, SlotObjective, SlotObjective, SlotSlayer},
	Bo7: {SlotObjective, SlotSlayer, SlotObjective, SlotObjective, SlotSlayer, SlotObjective, SlotSlayer},
}

// PickingTeamForGame returns the team picking 1-based game g. Team B picks odd games.
func PickingTeamForGame(g int) Team {
	if g%2 == 1 {
		return TeamB
	}
	return TeamA
}

// KindForSlot maps a round slot to the combo kind picked into it.
func KindForSlot(slot SlotType) Kind {
	if slot == SlotSlayer {
		return KindSlayerMap
	}
	return KindObjectiveCombo
}

func ParseSeriesType(raw string) (SeriesType, bool) {
	t := SeriesType(raw)
	_, ok := RoundTemplates[t]
	return t, ok
}
