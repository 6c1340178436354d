package world

import (
	"sync"

	"siegefall/server/internal/combat"
	"siegefall/server/internal/ecs"
)

// OutcomeKind enumerates the side-effect events systems enqueue during a tick.
type OutcomeKind string

const (
	OutcomeProjectileSpawn OutcomeKind = "ProjectileSpawn"
	OutcomeCreepSpawn      OutcomeKind = "CreepSpawn"
	OutcomeTowerSpawn      OutcomeKind = "TowerSpawn"
	OutcomeCreepStop       OutcomeKind = "CreepStop"
	OutcomeCreepWalk       OutcomeKind = "CreepWalk"
	OutcomeDamage          OutcomeKind = "Damage"
	OutcomeHeal            OutcomeKind = "Heal"
	OutcomeDeath           OutcomeKind = "Death"
	OutcomeGainExperience  OutcomeKind = "GainExperience"
	OutcomeUpdateAttack    OutcomeKind = "UpdateAttack"
	OutcomeSpawnUnit       OutcomeKind = "SpawnUnit"
)

// ProjectileSpawnOutcome asks the dispatcher to create a projectile using the
// source's attack profile captured at apply time.
type ProjectileSpawnOutcome struct {
	OriginX float64
	OriginY float64
	Source  ecs.Handle
	Target  ecs.Handle
}

// CreepSpawnOutcome asks for a creep at the head of the named path.
type CreepSpawnOutcome struct {
	EmitterName string
	PathName    string
	X           float64
	Y           float64
}

// TowerSpawnOutcome asks for a tower built from a player's template.
type TowerSpawnOutcome struct {
	X        float64
	Y        float64
	Owner    string
	Template TowerTemplate
}

// CreepStopOutcome pins a creep against a blocking tower.
type CreepStopOutcome struct {
	Tower ecs.Handle
	Creep ecs.Handle
}

// CreepWalkOutcome releases a creep back into its path.
type CreepWalkOutcome struct {
	Creep ecs.Handle
}

// DamageOutcome queues one damage instance for the resolve stage.
type DamageOutcome struct {
	X        float64
	Y        float64
	Instance combat.DamageInstance
}

// HealOutcome restores hp, clamped at max.
type HealOutcome struct {
	X      float64
	Y      float64
	Target ecs.Handle
	Amount float64
}

// DeathOutcome schedules cleanup and destruction of an entity.
type DeathOutcome struct {
	X   float64
	Y   float64
	Ent ecs.Handle
}

// GainExperienceOutcome grants hero experience.
type GainExperienceOutcome struct {
	Target ecs.Handle
	Amount float64
}

// UpdateAttackOutcome replaces a unit's attack profile, used by transforms.
type UpdateAttackOutcome struct {
	Target ecs.Handle
	Attack AttackProfile
}

// SpawnUnitOutcome creates a unit from a summon definition.
type SpawnUnitOutcome struct {
	UnitType string
	X        float64
	Y        float64
	Owner    ecs.Handle
	Duration float64
	Faction  Faction
}

// Outcome is one queued event; exactly one payload pointer matches Kind.
type Outcome struct {
	Kind            OutcomeKind
	ProjectileSpawn *ProjectileSpawnOutcome
	CreepSpawn      *CreepSpawnOutcome
	TowerSpawn      *TowerSpawnOutcome
	CreepStop       *CreepStopOutcome
	CreepWalk       *CreepWalkOutcome
	Damage          *DamageOutcome
	Heal            *HealOutcome
	Death           *DeathOutcome
	GainExperience  *GainExperienceOutcome
	UpdateAttack    *UpdateAttackOutcome
	SpawnUnit       *SpawnUnitOutcome
}

// OutcomeQueue collects outcomes across parallel stages. Drain is called once
// per tick; anything appended after the drain lands in the next tick's batch.
type OutcomeQueue struct {
	mu    sync.Mutex
	items []Outcome
}

func NewOutcomeQueue() *OutcomeQueue {
	return &OutcomeQueue{}
}

// Append adds outcomes under the queue lock. Stages accumulate locally and
// merge once to keep contention low.
func (q *OutcomeQueue) Append(outcomes ...Outcome) {
	if q == nil || len(outcomes) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, outcomes...)
	q.mu.Unlock()
}

// Drain removes and returns the queued outcomes in FIFO order.
func (q *OutcomeQueue) Drain() []Outcome {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	drained := q.items
	q.items = nil
	return drained
}

// Len reports the number of pending outcomes.
func (q *OutcomeQueue) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
