package world

import "siegefall/server/internal/ecs"

// Position is a world-space location in metres.
type Position struct {
	X float64
	Y float64
}

// Velocity is the per-second movement vector.
type Velocity struct {
	X float64
	Y float64
}

// CombatStats carries the mutable combat numbers for a living entity. Only
// the outcome dispatcher mutates HP.
type CombatStats struct {
	HP          float64
	MaxHP       float64
	MoveSpeed   float64
	PhysicalDef float64
	MagicDef    float64

	Mana    float64
	MaxMana float64

	DodgeChance float64
	CritChance  float64
	Lifesteal   float64
	SpellVamp   float64
}

// AttackProfile drives auto-attacks. Cooldown counts down in seconds and is
// reset to AttackInterval when a projectile is fired.
type AttackProfile struct {
	PhysicalAtk     float64
	AttackInterval  float64
	Range           float64
	Cooldown        float64
	ProjectileSpeed float64
}

// UnitKind classifies a unit for AI, rewards, and wire categories.
type UnitKind string

const (
	UnitHero          UnitKind = "Hero"
	UnitCreep         UnitKind = "Creep"
	UnitEnemy         UnitKind = "Enemy"
	UnitNeutral       UnitKind = "Neutral"
	UnitBoss          UnitKind = "Boss"
	UnitElite         UnitKind = "Elite"
	UnitMinion        UnitKind = "Minion"
	UnitTrainingDummy UnitKind = "TrainingDummy"
	UnitSummon        UnitKind = "Summon"
)

// BountyTier selects the reward sharing rule when a unit dies.
type BountyTier string

const (
	BountyNone   BountyTier = "None"
	BountyNormal BountyTier = "Normal"
	BountySiege  BountyTier = "Siege"
	BountyBoss   BountyTier = "Boss"
)

// Unit is the semantic descriptor shared by heroes, creeps, and summons.
type Unit struct {
	ID         string
	Name       string
	Kind       UnitKind
	AIKind     string
	AggroRange float64
	Abilities  []string
	SpawnX     float64
	SpawnY     float64
	ExpReward  float64
	GoldReward float64
	Bounty     BountyTier
}

// Attribute tags a hero's primary attribute.
type Attribute string

const (
	AttributeStrength     Attribute = "strength"
	AttributeAgility      Attribute = "agility"
	AttributeIntelligence Attribute = "intelligence"
)

// GrowthCurve is per-level attribute gain.
type GrowthCurve struct {
	Strength     float64
	Agility      float64
	Intelligence float64
}

// Hero carries progression state on top of Unit.
type Hero struct {
	Strength     float64
	Agility      float64
	Intelligence float64
	Primary      Attribute
	Level        int
	XP           float64
	XPToNext     float64
	SkillPoints  int
	Growth       GrowthCurve
	HeroType     string
	OwnerPlayer  string
}

// CreepStatus is the creep movement state.
type CreepStatus int

const (
	CreepPreWalk CreepStatus = iota
	CreepWalk
	CreepStop
)

// Creep follows a named path. BlockTower, when set, pins the creep in place
// until the tower releases it or dies; the handle may be stale and every read
// must re-check liveness.
type Creep struct {
	PathName   string
	Waypoint   int
	BlockTower ecs.Handle
	Status     CreepStatus
}

// TowerNeighbor is one entry of a tower's per-tick target list.
type TowerNeighbor struct {
	Ent    ecs.Handle
	DistSq float64
}

// Tower tracks targeting and creep-blocking state. The neighbour list is
// rewritten by the neighbourhood stage each tick; entries may reference
// entities that die later in the tick.
type Tower struct {
	NearbyCreeps []TowerNeighbor
	BlockCreeps  []ecs.Handle
	BlockRadius  float64
	BlockLimit   int
	OwnerPlayer  string
}

// Projectile flies toward a point or a captured target. Damage values and the
// owner's faction are captured at spawn so the owner's death mid-flight
// changes nothing.
type Projectile struct {
	TimeLeft       float64
	Owner          ecs.Handle
	Target         ecs.Handle
	TargetX        float64
	TargetY        float64
	Radius         float64
	Speed          float64
	DamagePhysical float64
	DamageMagic    float64
	DamagePure     float64
	OwnerFaction   Faction
	HasFaction     bool
}

// CheckPoint is one waypoint of a path.
type CheckPoint struct {
	Name  string
	Class string
	X     float64
	Y     float64
}

// Path is an ordered list of checkpoints.
type Path struct {
	Name   string
	Points []CheckPoint
}

// CreepEmitter is the prototype bundle used to spawn one creep kind.
type CreepEmitter struct {
	Name   string
	Unit   Unit
	Stats  CombatStats
	Attack AttackProfile
}

// Emit schedules one creep spawn within a wave.
type Emit struct {
	TimeOffset float64
	CreepName  string
}

// PathCreeps lists the emits for one path within a wave.
type PathCreeps struct {
	PathName string
	Emits    []Emit
}

// CreepWave is one scheduled wave.
type CreepWave struct {
	StartTime float64
	Paths     []PathCreeps
}

// CurrentCreepWave is the wave engine cursor. WaveIndex may equal len(waves),
// which is the terminal state.
type CurrentCreepWave struct {
	WaveIndex     int
	NextEmitIndex []int
	Started       bool
}

// TowerTemplate is a buildable tower owned by a player.
type TowerTemplate struct {
	Name   string
	Cost   float64
	Stats  CombatStats
	Attack AttackProfile
}

// Player is a connected participant's account state.
type Player struct {
	Name   string
	Gold   float64
	Hero   ecs.Handle
	Towers []TowerTemplate
}
