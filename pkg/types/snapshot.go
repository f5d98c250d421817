package types

// SeriesView:
//   id: number
//   code: string // join code
//   team_a: string
//   team_b: string
//   state: "IDLE" | "SERIES_SETUP" | "BAN_PHASE" | "PICK_WINDOW" | "SERIES_COMPLETE" | "ABORTED"
//   ruleset: string // "TSD_8s_v2" once confirmed
//   series_type: "Bo3" | "Bo5" | "Bo7"
//   round_index: number
//   ban_index: number
//   turn: null | { team: "A" | "B", team_name: string, action: "BAN" | "PICK",
//                  kind: "OBJECTIVE_COMBO" | "SLAYER_MAP" }
//   rounds: [{ order, slot_type: "OBJECTIVE" | "SLAYER", mode_id?, mode?, picked_by,
//              map_id?, map?, locked }]
//   bans: [{ step_index, by_team, kind, map_id, map, objective_mode_id?, objective_mode? }]
//   created_at: RFC 3339 timestamp
