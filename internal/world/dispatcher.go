package world

import (
	"context"

	"github.com/google/uuid"

	"siegefall/server/internal/combat"
	"siegefall/server/internal/ecs"
	"siegefall/server/internal/net/proto"
	"siegefall/server/logging"
	combatlog "siegefall/server/logging/combat"
	lifecyclelog "siegefall/server/logging/lifecycle"
)

// ResolveDamage drains the tick's outcome queue exactly once and applies
// every non-death variant in FIFO order. Deaths, whether drained or produced
// here, wait for the death stage; outcomes enqueued while applying land in
// the next tick's batch because the queue was already drained.
func (w *World) ResolveDamage(ctx context.Context) {
	batch := w.Outcomes.Drain()
	for _, outcome := range batch {
		switch outcome.Kind {
		case OutcomeProjectileSpawn:
			w.applyProjectileSpawn(outcome.ProjectileSpawn)
		case OutcomeCreepSpawn:
			w.applyCreepSpawn(outcome.CreepSpawn)
		case OutcomeTowerSpawn:
			w.applyTowerSpawn(outcome.TowerSpawn)
		case OutcomeCreepStop:
			w.applyCreepStop(outcome.CreepStop)
		case OutcomeCreepWalk:
			w.applyCreepWalk(outcome.CreepWalk)
		case OutcomeDamage:
			w.applyDamage(ctx, outcome.Damage)
		case OutcomeHeal:
			w.applyHeal(outcome.Heal)
		case OutcomeGainExperience:
			w.applyGainExperience(outcome.GainExperience)
		case OutcomeUpdateAttack:
			w.applyUpdateAttack(outcome.UpdateAttack)
		case OutcomeSpawnUnit:
			w.applySpawnUnit(outcome.SpawnUnit)
		case OutcomeDeath:
			if outcome.Death != nil {
				w.pendingDeaths = append(w.pendingDeaths, *outcome.Death)
			}
		}
	}
}

// ResolveDeaths processes the deaths gathered by the damage stage. Runs last
// so every damage instance of the tick is applied first.
func (w *World) ResolveDeaths(ctx context.Context) {
	deaths := w.pendingDeaths
	w.pendingDeaths = nil
	for i := range deaths {
		w.applyDeath(ctx, &deaths[i])
	}
}

func (w *World) applyProjectileSpawn(o *ProjectileSpawnOutcome) {
	if o == nil {
		return
	}
	attack := w.Attacks.Get(o.Source)
	if attack == nil {
		return
	}
	ph := w.SpawnProjectile(o.Source, o.Target, Position{X: o.OriginX, Y: o.OriginY}, *attack)
	w.Broadcast(proto.CategoryProjectile, proto.ActionCreate, proto.CreatePayload{
		ID:    EntityID(ph),
		Owner: EntityID(o.Source),
		X:     o.OriginX,
		Y:     o.OriginY,
	}, true)
}

func (w *World) applyCreepSpawn(o *CreepSpawnOutcome) {
	if o == nil {
		return
	}
	emitter := w.Emitters[o.EmitterName]
	if emitter == nil {
		return
	}
	ch := w.SpawnCreep(emitter, o.PathName, Position{X: o.X, Y: o.Y}, Faction{ID: FactionEnemy, Team: 2})
	w.Broadcast(proto.CategoryCreep, proto.ActionCreate, proto.CreatePayload{
		ID:    EntityID(ch),
		Name:  emitter.Unit.Name,
		X:     o.X,
		Y:     o.Y,
		HP:    emitter.Stats.HP,
		MaxHP: emitter.Stats.MaxHP,
	}, true)
	lifecyclelog.Spawn(context.Background(), w.Publisher, w.Clock.TickID,
		logging.EntityRef{ID: EntityID(ch), Kind: logging.EntityKindCreep},
		lifecyclelog.SpawnPayload{Name: emitter.Unit.Name, X: o.X, Y: o.Y})
}

func (w *World) applyTowerSpawn(o *TowerSpawnOutcome) {
	if o == nil {
		return
	}
	th := w.SpawnTower(o.Template, Position{X: o.X, Y: o.Y}, o.Owner, Faction{ID: FactionPlayer, Team: 1})
	w.Broadcast(proto.CategoryTower, proto.ActionCreate, proto.CreatePayload{
		ID:    EntityID(th),
		Name:  o.Template.Name,
		Owner: o.Owner,
		X:     o.X,
		Y:     o.Y,
		HP:    o.Template.Stats.HP,
		MaxHP: o.Template.Stats.MaxHP,
	}, true)
}

func (w *World) applyCreepStop(o *CreepStopOutcome) {
	if o == nil {
		return
	}
	creep := w.Creeps.Get(o.Creep)
	if creep == nil || !w.Store.Alive(o.Creep) || !w.Store.Alive(o.Tower) {
		return
	}
	creep.BlockTower = o.Tower
	creep.Status = CreepStop
	if tower := w.Towers.Get(o.Tower); tower != nil {
		tower.BlockCreeps = append(tower.BlockCreeps, o.Creep)
	}
	if pos := w.Positions.Get(o.Creep); pos != nil {
		w.Broadcast(proto.CategoryCreep, proto.ActionMove, proto.MovePayload{
			ID: EntityID(o.Creep),
			X:  pos.X,
			Y:  pos.Y,
		}, false)
	}
}

func (w *World) applyCreepWalk(o *CreepWalkOutcome) {
	if o == nil {
		return
	}
	creep := w.Creeps.Get(o.Creep)
	if creep == nil {
		return
	}
	creep.BlockTower = ecs.Nil
	creep.Status = CreepPreWalk
}

func (w *World) applyDamage(ctx context.Context, o *DamageOutcome) {
	if o == nil {
		return
	}
	target := o.Instance.Target
	stats := w.Stats.Get(target)
	if stats == nil || !w.Store.Alive(target) {
		return
	}
	if stats.HP < 0 {
		// Should not happen; clamp and keep going.
		w.Publisher.Publish(ctx, logging.Event{
			Type:     "combat.negative_hp",
			Tick:     w.Clock.TickID,
			Actor:    logging.EntityRef{ID: EntityID(target), Kind: logging.EntityKindUnit},
			Severity: logging.SeverityError,
			Category: logging.CategoryCombat,
		})
		stats.HP = 0
	}

	var attacker combat.AttackerStats
	if sourceStats := w.Stats.Get(o.Instance.Source); sourceStats != nil {
		attacker = combat.AttackerStats{
			CritChance: sourceStats.CritChance,
			Lifesteal:  sourceStats.Lifesteal,
			SpellVamp:  sourceStats.SpellVamp,
		}
	}
	defender := combat.DefenderStats{
		Armor:       stats.PhysicalDef + w.ModifierSum(target, "armor_reduction"),
		MagicResist: stats.MagicDef,
		DodgeChance: stats.DodgeChance,
	}

	result := combat.Resolve(o.Instance, attacker, defender, w.RNG)
	stats.HP -= result.Total
	if stats.HP < 0 {
		stats.HP = 0
	}

	w.Broadcast(proto.CategoryUnit, proto.ActionResult, proto.DamagePayload{
		ID:       EntityID(target),
		Source:   EntityID(o.Instance.Source),
		Physical: result.Physical,
		Magical:  result.Magical,
		Pure:     result.Pure,
		HP:       stats.HP,
		Dodged:   result.Dodged,
		Crit:     result.Crit,
	}, true)
	combatlog.Damage(ctx, w.Publisher, w.Clock.TickID,
		logging.EntityRef{ID: EntityID(o.Instance.Source), Kind: logging.EntityKindUnit},
		logging.EntityRef{ID: EntityID(target), Kind: logging.EntityKindUnit},
		combatlog.DamagePayload{
			Physical:     result.Physical,
			Magical:      result.Magical,
			Pure:         result.Pure,
			Absorbed:     result.Absorbed,
			Dodged:       result.Dodged,
			Crit:         result.Crit,
			TargetHealth: stats.HP,
		})

	if result.Healing > 0 && w.Store.Alive(o.Instance.Source) {
		w.Outcomes.Append(Outcome{
			Kind: OutcomeHeal,
			Heal: &HealOutcome{X: o.X, Y: o.Y, Target: o.Instance.Source, Amount: result.Healing},
		})
	}
	if stats.HP <= 0 {
		w.Outcomes.Append(Outcome{
			Kind:  OutcomeDeath,
			Death: &DeathOutcome{X: o.X, Y: o.Y, Ent: target},
		})
	}
}

func (w *World) applyHeal(o *HealOutcome) {
	if o == nil {
		return
	}
	stats := w.Stats.Get(o.Target)
	if stats == nil || !w.Store.Alive(o.Target) {
		return
	}
	stats.HP += o.Amount
	if stats.HP > stats.MaxHP {
		stats.HP = stats.MaxHP
	}
}

func (w *World) applyGainExperience(o *GainExperienceOutcome) {
	if o == nil {
		return
	}
	w.GrantExperience(o.Target, o.Amount)
}

func (w *World) applyUpdateAttack(o *UpdateAttackOutcome) {
	if o == nil || !w.Store.Alive(o.Target) {
		return
	}
	w.Attacks.Set(o.Target, o.Attack)
}

func (w *World) applySpawnUnit(o *SpawnUnitOutcome) {
	if o == nil {
		return
	}
	tpl := w.UnitDefs[o.UnitType]
	if tpl == nil {
		return
	}
	uh := w.SpawnUnitEntity(*tpl, Position{X: o.X, Y: o.Y}, o.Faction)
	if o.Duration > 0 {
		// Summons expire through a tracking effect.
		eh := w.Store.Create()
		w.Effects.Set(eh, SkillEffect{
			ID:            uuid.NewString(),
			Caster:        o.Owner,
			Target:        uh,
			HasTarget:     true,
			Kind:          EffectSummon,
			Duration:      o.Duration,
			RemainingTime: o.Duration,
		})
	}
	w.Broadcast(proto.CategoryUnit, proto.ActionCreate, proto.CreatePayload{
		ID:    EntityID(uh),
		Name:  tpl.Unit.Name,
		Owner: EntityID(o.Owner),
		X:     o.X,
		Y:     o.Y,
		HP:    tpl.Stats.HP,
		MaxHP: tpl.Stats.MaxHP,
	}, true)
}

func (w *World) applyDeath(ctx context.Context, o *DeathOutcome) {
	if o == nil {
		return
	}
	if !w.Store.Alive(o.Ent) || w.Store.PendingDestroy(o.Ent) {
		return
	}

	if w.Towers.Has(o.Ent) {
		w.cleanupTowerDeath(o.Ent)
	}
	if w.Creeps.Has(o.Ent) {
		w.cleanupCreepDeath(o.Ent)
	}
	if unit := w.Units.Get(o.Ent); unit != nil {
		w.distributeRewards(o.Ent, unit, Position{X: o.X, Y: o.Y})
	}

	w.Store.Destroy(o.Ent)

	category := proto.CategoryUnit
	kind := logging.EntityKindUnit
	switch {
	case w.Projectiles.Has(o.Ent):
		category = proto.CategoryProjectile
		kind = logging.EntityKindProjectile
	case w.Creeps.Has(o.Ent):
		category = proto.CategoryCreep
		kind = logging.EntityKindCreep
	case w.Towers.Has(o.Ent):
		category = proto.CategoryTower
		kind = logging.EntityKindTower
	case w.Heroes.Has(o.Ent):
		category = proto.CategoryHero
		kind = logging.EntityKindHero
	}
	w.Broadcast(category, proto.ActionDelete, proto.DeletePayload{
		ID: EntityID(o.Ent),
		X:  o.X,
		Y:  o.Y,
	}, true)
	if category != proto.CategoryProjectile {
		combatlog.Death(ctx, w.Publisher, w.Clock.TickID,
			logging.EntityRef{ID: EntityID(o.Ent), Kind: kind},
			combatlog.DeathPayload{X: o.X, Y: o.Y})
	}
}

// cleanupTowerDeath releases every creep the tower was blocking.
func (w *World) cleanupTowerDeath(th ecs.Handle) {
	tower := w.Towers.Get(th)
	if tower == nil {
		return
	}
	for _, ch := range tower.BlockCreeps {
		if !w.Store.Alive(ch) {
			continue
		}
		w.Outcomes.Append(Outcome{
			Kind:      OutcomeCreepWalk,
			CreepWalk: &CreepWalkOutcome{Creep: ch},
		})
	}
	tower.BlockCreeps = nil
	w.Searcher.MarkTowersDirty()
}

// cleanupCreepDeath strips the creep from tower neighbour and block lists.
func (w *World) cleanupCreepDeath(ch ecs.Handle) {
	w.Towers.Each(func(_ ecs.Handle, tower *Tower) {
		kept := tower.BlockCreeps[:0]
		for _, blocked := range tower.BlockCreeps {
			if blocked != ch {
				kept = append(kept, blocked)
			}
		}
		tower.BlockCreeps = kept

		neighbours := tower.NearbyCreeps[:0]
		for _, neighbour := range tower.NearbyCreeps {
			if neighbour.Ent != ch {
				neighbours = append(neighbours, neighbour)
			}
		}
		tower.NearbyCreeps = neighbours
	})
}
