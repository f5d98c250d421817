package types

// Client -> Server
// The live stream is read-only. Ceremony operations are HTTP calls:
//
// POST /api/series/{id}/assign_roles:
//   team_a: string
//   team_b: string
//
// POST /api/series/{id}/confirm_tsd:
//   series_type: "Bo3" | "Bo5" | "Bo7"
//
// POST /api/series/{id}/ban_objective_combo, pick_objective_combo:
//   team: "A" | "B" | team display name
//   map_id: number
//   mode_id: number
//
// POST /api/series/{id}/ban_slayer_map, pick_slayer_map:
//   team: "A" | "B" | team display name
//   map_id: number
//
// POST /api/series/{id}/undo: {}
// POST /api/series/{id}/reset: {}
//
// Operation response:
//   detail: string
//   series: SeriesView (see snapshot.go)
//
// Rejected operation (400):
//   detail: string
//   code: "GUARD" | "TURN" | "VALIDATION"
//   fields: { [field]: string } // validation only

// Server -> Client (GET /ws?series={id})
// StateSnapshot: sent on connect and after every committed operation
//   type: "StateSnapshot"
//   version: number // committed operations since the lobby started
//   series: SeriesView
//
// Error:
//   type: "Error"
//   error: string
