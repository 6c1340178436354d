package sim

import "time"

// CommandType enumerates the supported inbound player commands.
type CommandType string

const (
	CommandTowerOp       CommandType = "TowerOp"
	CommandPlayerOp      CommandType = "PlayerOp"
	CommandSkillInput    CommandType = "SkillInput"
	CommandScreenRequest CommandType = "ScreenRequest"
)

// TowerOpCommand carries a tower create/upgrade/sell request.
type TowerOpCommand struct {
	Action     string  `json:"action"`
	TowerIndex int     `json:"towerIndex"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// PlayerOpCommand carries a player lifecycle or movement request.
type PlayerOpCommand struct {
	Action   string  `json:"action"`
	HeroType string  `json:"heroType,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// SkillInputCommand requests an ability execution.
type SkillInputCommand struct {
	AbilityID    string   `json:"abilityId"`
	TargetEntity string   `json:"targetEntity,omitempty"`
	TargetX      *float64 `json:"targetX,omitempty"`
	TargetY      *float64 `json:"targetY,omitempty"`
}

// ScreenRequestCommand asks for an area-of-interest snapshot.
type ScreenRequestCommand struct {
	Action  string  `json:"action"`
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Command represents a player intent captured for processing on the next tick.
type Command struct {
	OriginTick uint64                `json:"originTick"`
	ActorID    string                `json:"actorId"`
	Type       CommandType           `json:"type"`
	IssuedAt   time.Time             `json:"issuedAt"`
	Tower      *TowerOpCommand       `json:"tower,omitempty"`
	Player     *PlayerOpCommand      `json:"player,omitempty"`
	Skill      *SkillInputCommand    `json:"skill,omitempty"`
	Screen     *ScreenRequestCommand `json:"screen,omitempty"`
}
