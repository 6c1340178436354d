package world

import (
	"fmt"
	"math/rand"
	"sync"

	"siegefall/server/internal/ecs"
	"siegefall/server/internal/net/proto"
	"siegefall/server/internal/sim"
	"siegefall/server/internal/spatial"
	"siegefall/server/logging"
)

// Outbox receives outbound wire messages. Enqueue reports whether the message
// was accepted; the publication layer owns drop and retry policy.
type Outbox interface {
	Enqueue(msg proto.Message) bool
}

type nopOutbox struct{}

func (nopOutbox) Enqueue(proto.Message) bool { return true }

// SkillInput is a queued request to execute an ability.
type SkillInput struct {
	Caster    ecs.Handle
	AbilityID string
	Target    ecs.Handle
	HasPoint  bool
	X         float64
	Y         float64
}

// UnitTemplate bundles the components needed to spawn one unit kind.
type UnitTemplate struct {
	Unit   Unit
	Stats  CombatStats
	Attack AttackProfile
}

// Config tunes world construction.
type Config struct {
	TPS       int
	RNGSeed   int64
	Publisher logging.Publisher
	Outbox    Outbox
}

// World is the single authoritative simulation state. Systems read it
// concurrently within a tick level; only the dispatcher stages mutate combat
// state.
type World struct {
	Store       *ecs.Store
	Positions   *ecs.Table[Position]
	Velocities  *ecs.Table[Velocity]
	Stats       *ecs.Table[CombatStats]
	Attacks     *ecs.Table[AttackProfile]
	Units       *ecs.Table[Unit]
	Heroes      *ecs.Table[Hero]
	Factions    *ecs.Table[Faction]
	Creeps      *ecs.Table[Creep]
	Towers      *ecs.Table[Tower]
	Projectiles *ecs.Table[Projectile]
	Skills      *ecs.Table[Skill]
	Effects     *ecs.Table[SkillEffect]

	Searcher *spatial.Searcher
	Outcomes *OutcomeQueue
	Clock    *sim.Clock
	RNG      *rand.Rand

	Publisher logging.Publisher
	Outbox    Outbox

	Players  map[string]*Player
	Paths    map[string]*Path
	Emitters map[string]*CreepEmitter
	UnitDefs map[string]*UnitTemplate
	Waves    []CreepWave
	Wave     CurrentCreepWave

	inputMu     sync.Mutex
	skillInputs []SkillInput

	pendingDeaths []DeathOutcome
}

func New(cfg Config) *World {
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	outbox := cfg.Outbox
	if outbox == nil {
		outbox = nopOutbox{}
	}
	seed := cfg.RNGSeed
	if seed == 0 {
		seed = 1
	}

	store := ecs.NewStore()
	w := &World{
		Store:       store,
		Positions:   ecs.NewTable[Position](store),
		Velocities:  ecs.NewTable[Velocity](store),
		Stats:       ecs.NewTable[CombatStats](store),
		Attacks:     ecs.NewTable[AttackProfile](store),
		Units:       ecs.NewTable[Unit](store),
		Heroes:      ecs.NewTable[Hero](store),
		Factions:    ecs.NewTable[Faction](store),
		Creeps:      ecs.NewTable[Creep](store),
		Towers:      ecs.NewTable[Tower](store),
		Projectiles: ecs.NewTable[Projectile](store),
		Skills:      ecs.NewTable[Skill](store),
		Effects:     ecs.NewTable[SkillEffect](store),
		Searcher:    spatial.NewSearcher(),
		Outcomes:    NewOutcomeQueue(),
		Clock:       sim.NewClock(cfg.TPS),
		RNG:         rand.New(rand.NewSource(seed)),
		Publisher:   publisher,
		Outbox:      outbox,
		Players:     make(map[string]*Player),
		Paths:       make(map[string]*Path),
		Emitters:    make(map[string]*CreepEmitter),
		UnitDefs:    make(map[string]*UnitTemplate),
	}
	return w
}

// EntityID renders a handle as a stable wire identifier.
func EntityID(h ecs.Handle) string {
	if h.IsNil() {
		return ""
	}
	return fmt.Sprintf("e%d.%d", h.Index, h.Generation)
}

// ParseEntityID reverses EntityID. Unknown shapes return the nil handle.
func ParseEntityID(id string) ecs.Handle {
	var index, generation uint32
	if _, err := fmt.Sscanf(id, "e%d.%d", &index, &generation); err != nil {
		return ecs.Nil
	}
	return ecs.Handle{Index: index, Generation: generation}
}

// PushSkillInput queues an ability request for the skill runtime stage.
func (w *World) PushSkillInput(input SkillInput) {
	w.inputMu.Lock()
	w.skillInputs = append(w.skillInputs, input)
	w.inputMu.Unlock()
}

// DrainSkillInputs removes and returns the queued ability requests.
func (w *World) DrainSkillInputs() []SkillInput {
	w.inputMu.Lock()
	defer w.inputMu.Unlock()
	inputs := w.skillInputs
	w.skillInputs = nil
	return inputs
}

// Publish hands a wire message to the outbox.
func (w *World) Publish(msg proto.Message) {
	if w == nil || w.Outbox == nil {
		return
	}
	w.Outbox.Enqueue(msg)
}

// Broadcast publishes on the shared topic.
func (w *World) Broadcast(category, action string, data any, critical bool) {
	w.Publish(proto.Message{
		Topic:    proto.TopicBroadcast,
		Envelope: proto.Envelope{T: category, A: action, D: data},
		Critical: critical,
	})
}

// SpawnUnitEntity creates a positioned unit with stats and faction.
func (w *World) SpawnUnitEntity(tpl UnitTemplate, pos Position, faction Faction) ecs.Handle {
	h := w.Store.Create()
	unit := tpl.Unit
	unit.SpawnX = pos.X
	unit.SpawnY = pos.Y
	w.Units.Set(h, unit)
	w.Positions.Set(h, pos)
	w.Stats.Set(h, tpl.Stats)
	if tpl.Attack.AttackInterval > 0 {
		w.Attacks.Set(h, tpl.Attack)
	}
	w.Factions.Set(h, faction)
	return h
}

// SpawnHero creates a hero entity plus its skills for the listed abilities.
func (w *World) SpawnHero(tpl UnitTemplate, hero Hero, pos Position, faction Faction) ecs.Handle {
	h := w.SpawnUnitEntity(tpl, pos, faction)
	if hero.Level == 0 {
		hero.Level = 1
	}
	if hero.XPToNext == 0 {
		hero.XPToNext = XPToNext(hero.Level)
	}
	w.Heroes.Set(h, hero)
	return h
}

// SpawnCreep instantiates an emitter prototype at the head of its path.
func (w *World) SpawnCreep(emitter *CreepEmitter, pathName string, pos Position, faction Faction) ecs.Handle {
	h := w.SpawnUnitEntity(UnitTemplate{Unit: emitter.Unit, Stats: emitter.Stats, Attack: emitter.Attack}, pos, faction)
	w.Creeps.Set(h, Creep{PathName: pathName, Status: CreepPreWalk})
	return h
}

// SpawnTower creates a tower entity and marks the towers index dirty.
func (w *World) SpawnTower(tpl TowerTemplate, pos Position, owner string, faction Faction) ecs.Handle {
	h := w.Store.Create()
	w.Positions.Set(h, pos)
	w.Stats.Set(h, tpl.Stats)
	w.Attacks.Set(h, tpl.Attack)
	w.Factions.Set(h, faction)
	w.Towers.Set(h, Tower{BlockRadius: 60, BlockLimit: 1, OwnerPlayer: owner})
	w.Searcher.MarkTowersDirty()
	return h
}

// SpawnProjectile creates a projectile with damage captured from the owner.
func (w *World) SpawnProjectile(owner, target ecs.Handle, origin Position, attack AttackProfile) ecs.Handle {
	h := w.Store.Create()
	w.Positions.Set(h, origin)
	targetPos := origin
	if p := w.Positions.Get(target); p != nil {
		targetPos = *p
	}
	speed := attack.ProjectileSpeed
	if speed <= 0 {
		speed = 300
	}
	projectile := Projectile{
		TimeLeft:       5.0,
		Owner:          owner,
		Target:         target,
		TargetX:        targetPos.X,
		TargetY:        targetPos.Y,
		Speed:          speed,
		DamagePhysical: attack.PhysicalAtk,
	}
	if f := w.Factions.Get(owner); f != nil {
		projectile.OwnerFaction = *f
		projectile.HasFaction = true
	}
	w.Projectiles.Set(h, projectile)
	return h
}

// HeartbeatCounts tallies entity classes for the heartbeat payload.
func (w *World) HeartbeatCounts() proto.HeartbeatPayload {
	return proto.HeartbeatPayload{
		Tick:        w.Clock.TickID,
		GameTime:    w.Clock.Time,
		EntityCount: w.Store.Len(),
		HeroCount:   w.Heroes.Len(),
		UnitCount:   w.Units.Len(),
		CreepCount:  w.Creeps.Len(),
	}
}

// ModifierSum totals the live stat modifiers of one type attached to an
// entity. Buffs carry positive values, debuffs negative.
func (w *World) ModifierSum(target ecs.Handle, modifierType string) float64 {
	total := 0.0
	w.Effects.Each(func(_ ecs.Handle, eff *SkillEffect) {
		if !eff.HasTarget || eff.Target != target {
			return
		}
		if eff.ModifierType != modifierType {
			return
		}
		if eff.Kind != EffectBuff && eff.Kind != EffectDebuff {
			return
		}
		total += eff.ModifierValue
	})
	return total
}

// Maintain commits entity destruction and drops dead skills.
func (w *World) Maintain() []ecs.Handle {
	removed := w.Store.Maintain()
	if len(removed) == 0 {
		return nil
	}
	// Skills die with their owner.
	dead := make(map[ecs.Handle]bool, len(removed))
	for _, h := range removed {
		dead[h] = true
	}
	for _, sh := range w.Skills.Handles() {
		skill := w.Skills.Get(sh)
		if skill != nil && dead[skill.Owner] {
			w.Store.Destroy(sh)
		}
	}
	return removed
}
