package store

import "time"

type Mode struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:64;uniqueIndex;not null"`
	IsObjective bool   `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Mode) TableName() string { return "game_modes" }

type Map struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:64;uniqueIndex;not null"`
	Modes     []Mode `gorm:"many2many:map_modes;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Series struct {
	ID         uint   `gorm:"primaryKey"`
	Code       string `gorm:"size:12;uniqueIndex;not null"`
	TeamA      string `gorm:"size:64;not null"`
	TeamB      string `gorm:"size:64;not null"`
	State      string `gorm:"size:24;not null;index"`
	Ruleset    string `gorm:"size:32"`
	SeriesType string `gorm:"size:8"`
	RoundIndex int    `gorm:"not null;default:0"`
	BanIndex   int    `gorm:"not null;default:0"`

	// Cached turn, recomputed on every load.
	TurnTeam   string `gorm:"size:1"`
	TurnAction string `gorm:"size:8"`
	TurnKind   string `gorm:"size:24"`

	Rounds    []Round `gorm:"foreignKey:SeriesID;constraint:OnDelete:CASCADE"`
	Bans      []Ban   `gorm:"foreignKey:SeriesID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Series) TableName() string { return "series" }

type Round struct {
	ID       uint   `gorm:"primaryKey"`
	SeriesID uint   `gorm:"not null;uniqueIndex:idx_series_round_order,priority:1"`
	Order    int    `gorm:"column:round_order;not null;uniqueIndex:idx_series_round_order,priority:2"`
	SlotType string `gorm:"size:16;not null"`
	ModeID   *uint
	Mode     *Mode  `gorm:"constraint:OnDelete:RESTRICT"`
	PickedBy string `gorm:"size:1"`
	MapID    *uint
	Map      *Map `gorm:"constraint:OnDelete:RESTRICT"`
	Locked   bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Round) TableName() string { return "series_rounds" }

type Ban struct {
	ID              uint   `gorm:"primaryKey"`
	SeriesID        uint   `gorm:"not null;uniqueIndex:idx_series_ban_step,priority:1"`
	StepIndex       int    `gorm:"not null;uniqueIndex:idx_series_ban_step,priority:2"`
	ByTeam          string `gorm:"size:1;not null"`
	Kind            string `gorm:"size:24;not null"`
	MapID           uint   `gorm:"not null"`
	Map             *Map   `gorm:"constraint:OnDelete:RESTRICT"`
	ObjectiveModeID *uint
	ObjectiveMode   *Mode `gorm:"foreignKey:ObjectiveModeID;constraint:OnDelete:RESTRICT"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Ban) TableName() string { return "series_bans" }

// Models lists every table in migration order.
func Models() []any {
	return []any{&Mode{}, &Map{}, &Series{}, &Round{}, &Ban{}}
}
