package proto

import "fmt"

// Envelope is the wire shape shared by every topic: a category, an action,
// and an action-specific data payload.
type Envelope struct {
	T string `json:"t"`
	A string `json:"a"`
	D any    `json:"d"`
}

// Categories carried in Envelope.T.
const (
	CategoryHero       = "hero"
	CategoryUnit       = "unit"
	CategoryCreep      = "creep"
	CategoryTower      = "tower"
	CategoryProjectile = "projectile"
	CategoryHeartbeat  = "heartbeat"
	CategoryCampaign   = "campaign"
	CategoryCreepWave  = "creep_wave"
	CategoryPlayer     = "player"
	CategoryScreen     = "screen_response"
)

// Actions carried in Envelope.A. The player kind additionally accepts the
// spelled-out attack and skill actions.
const (
	ActionCreate = "C"
	ActionMove   = "M"
	ActionDelete = "D"
	ActionResult = "R"
	ActionAttack = "attack"
	ActionSkill  = "skill"
)

// TopicBroadcast is the shared outbound topic.
const TopicBroadcast = "td/all/res"

// TopicPlayerSend is the inbound command topic for one player.
func TopicPlayerSend(player string) string {
	return fmt.Sprintf("td/%s/send", player)
}

// TopicScreenResponse is the per-player area snapshot topic.
func TopicScreenResponse(player string) string {
	return fmt.Sprintf("td/%s/screen_response", player)
}

// Message is one outbound publication. Critical messages survive
// backpressure; non-critical ones may be dropped oldest-first.
type Message struct {
	Topic    string   `json:"topic"`
	Envelope Envelope `json:"envelope"`
	Critical bool     `json:"-"`
}

// HeartbeatPayload reports simulation liveness every two game seconds.
type HeartbeatPayload struct {
	Tick        uint64  `json:"tick"`
	GameTime    float64 `json:"game_time"`
	EntityCount int     `json:"entity_count"`
	HeroCount   int     `json:"hero_count"`
	UnitCount   int     `json:"unit_count"`
	CreepCount  int     `json:"creep_count"`
}

// CreatePayload announces a new entity.
type CreatePayload struct {
	ID    string  `json:"id"`
	Name  string  `json:"name,omitempty"`
	Owner string  `json:"owner,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	HP    float64 `json:"hp,omitempty"`
	MaxHP float64 `json:"max_hp,omitempty"`
}

// MovePayload announces a movement target or position update.
type MovePayload struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	TargetX float64 `json:"tx,omitempty"`
	TargetY float64 `json:"ty,omitempty"`
	Speed   float64 `json:"speed,omitempty"`
}

// DamagePayload reports resolved damage against a target.
type DamagePayload struct {
	ID       string  `json:"id"`
	Source   string  `json:"source,omitempty"`
	Physical float64 `json:"phys"`
	Magical  float64 `json:"magi"`
	Pure     float64 `json:"real"`
	HP       float64 `json:"hp"`
	Dodged   bool    `json:"dodged,omitempty"`
	Crit     bool    `json:"crit,omitempty"`
}

// DeletePayload announces an entity removal.
type DeletePayload struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// LevelUpPayload announces a hero level change.
type LevelUpPayload struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
}

// WavePayload announces creep wave progress.
type WavePayload struct {
	WaveIndex int     `json:"wave_index"`
	GameTime  float64 `json:"game_time"`
}

// ResultPayload acknowledges a player-initiated action.
type ResultPayload struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// OK is the success acknowledgement.
func OK() ResultPayload {
	return ResultPayload{Status: "ok"}
}

// Failed builds a failure acknowledgement with a short reason.
func Failed(reason string) ResultPayload {
	return ResultPayload{Status: "failed", Reason: reason}
}

// ScreenAreaPayload is the per-player area-of-interest snapshot.
type ScreenAreaPayload struct {
	Area      ScreenArea     `json:"area"`
	Entities  []ScreenEntity `json:"entities"`
	Players   []ScreenPlayer `json:"players"`
	Timestamp int64          `json:"timestamp"`
}

type ScreenArea struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

type ScreenEntity struct {
	ID         string     `json:"id"`
	EntityType string     `json:"entity_type"`
	Position   [2]float64 `json:"position"`
	Health     [2]float64 `json:"health"`
	Name       string     `json:"name,omitempty"`
	Owner      string     `json:"owner,omitempty"`
}

type ScreenPlayer struct {
	Name      string          `json:"name"`
	Position  [2]float64      `json:"position"`
	Health    [2]float64      `json:"health"`
	HeroType  string          `json:"hero_type,omitempty"`
	Abilities []ScreenAbility `json:"abilities"`
}

type ScreenAbility struct {
	AbilityID         string  `json:"ability_id"`
	CooldownRemaining float64 `json:"cooldown_remaining"`
	IsAvailable       bool    `json:"is_available"`
}

// InboundEnvelope is the shape read off a player's send topic.
type InboundEnvelope struct {
	Name string `json:"name"`
	T    string `json:"t"`
	A    string `json:"a"`
	D    any    `json:"d"`
}

// Inbound command kinds.
const (
	KindTower         = "tower"
	KindPlayer        = "player"
	KindScreenRequest = "screen_request"
	KindSkill         = "skill"
)
