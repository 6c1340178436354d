// Package skill runs the ability pipeline each tick: cooldown bookkeeping,
// queued cast requests, and the aging of live effects.
package skill

import (
	"context"

	"github.com/google/uuid"

	"siegefall/server/internal/ability"
	"siegefall/server/internal/combat"
	"siegefall/server/internal/ecs"
	"siegefall/server/internal/world"
	"siegefall/server/logging"
	skillslog "siegefall/server/logging/skills"
)

// Runtime binds the handler registry to the loaded ability definitions. The
// registry is an explicit dependency; nothing here is global.
type Runtime struct {
	Registry *ability.Registry
	Defs     map[string]*ability.Definition
}

func NewRuntime(reg *ability.Registry, defs map[string]*ability.Definition) *Runtime {
	if defs == nil {
		defs = make(map[string]*ability.Definition)
	}
	return &Runtime{Registry: reg, Defs: defs}
}

// Step advances every skill, executes the tick's queued casts, then ages the
// live effects. Damage and healing go through the outcome queue so the
// dispatcher stays the only hp writer.
func (rt *Runtime) Step(w *world.World) {
	dt := w.Clock.Delta
	now := w.Clock.Time

	w.Skills.Each(func(_ ecs.Handle, s *world.Skill) {
		s.Advance(dt, now)
	})

	for _, input := range w.DrainSkillInputs() {
		rt.executeInput(w, input)
	}

	rt.ageEffects(w, dt, now)
}

func (rt *Runtime) executeInput(w *world.World, input world.SkillInput) {
	ctx := context.Background()
	actor := logging.EntityRef{ID: world.EntityID(input.Caster), Kind: logging.EntityKindHero}
	reject := func(reason string) {
		skillslog.CastRejected(ctx, w.Publisher, w.Clock.TickID, actor,
			skillslog.RejectPayload{AbilityID: input.AbilityID, Reason: reason})
	}

	if !w.Store.Alive(input.Caster) {
		reject("caster_dead")
		return
	}
	skill := rt.findSkill(w, input.Caster, input.AbilityID)
	if skill == nil {
		reject("skill_not_learned")
		return
	}
	def := rt.Defs[input.AbilityID]
	handler, ok := rt.Registry.Lookup(input.AbilityID)
	if def == nil || !ok {
		reject("unknown_ability")
		return
	}
	if !skill.Ready() {
		reject("not_ready")
		return
	}
	level, ok := def.Level(skill.Level)
	if !ok {
		reject("unknown_level")
		return
	}

	req := ability.Request{
		Caster:    input.Caster,
		Target:    input.Target,
		HasTarget: !input.Target.IsNil(),
		HasPoint:  input.HasPoint,
		PointX:    input.X,
		PointY:    input.Y,
		Level:     skill.Level,
	}
	stats := w.Stats.Get(input.Caster)
	state := ability.CasterState{
		CooldownRemaining: skill.CooldownRemaining,
		Charges:           skill.Charges,
		MaxCharges:        skill.MaxCharges,
		ToggleState:       skill.ToggleState,
	}
	if stats != nil {
		state.Mana = stats.Mana
	}
	if !handler.CanExecute(req, def, state) {
		reject("checks_failed")
		return
	}

	if skill.IsToggle && skill.ToggleState {
		// Toggling off removes the stance's effects; no cost, no cooldown.
		skill.ToggleState = false
		rt.removeSkillEffects(w, input.Caster, input.AbilityID)
		skillslog.Cast(ctx, w.Publisher, w.Clock.TickID, actor,
			skillslog.CastPayload{AbilityID: input.AbilityID, Level: skill.Level})
		return
	}

	effects := handler.Execute(req, def, level)
	if len(effects) == 0 {
		reject("no_effects")
		return
	}

	if skill.IsToggle {
		// Entering a stance only flips the state and applies its effects;
		// the skill stays Ready so it can be dropped again at any time.
		skill.ToggleState = true
	} else {
		if stats != nil {
			stats.Mana -= level.ManaCost
			if stats.Mana < 0 {
				stats.Mana = 0
			}
		}
		skill.CooldownRemaining = level.Cooldown
		if skill.MaxCharges > 0 && skill.Charges > 0 {
			skill.Charges--
		}
	}

	for _, eff := range effects {
		rt.applyEffect(w, input.Caster, input.AbilityID, eff)
	}
	skillslog.Cast(ctx, w.Publisher, w.Clock.TickID, actor,
		skillslog.CastPayload{AbilityID: input.AbilityID, Level: skill.Level, Effects: len(effects)})
}

func (rt *Runtime) findSkill(w *world.World, owner ecs.Handle, abilityID string) *world.Skill {
	var found *world.Skill
	w.Skills.Each(func(_ ecs.Handle, s *world.Skill) {
		if found == nil && s.Owner == owner && s.AbilityID == abilityID {
			found = s
		}
	})
	return found
}

// applyEffect translates one declarative effect. Instant damage and healing
// become outcomes the dispatcher resolves this tick; everything durable
// becomes a live effect entity.
func (rt *Runtime) applyEffect(w *world.World, caster ecs.Handle, abilityID string, eff ability.Effect) {
	now := w.Clock.Time
	switch eff.Kind {
	case ability.EffectDamage:
		pos := targetPosition(w, eff.Damage.Target)
		w.Outcomes.Append(world.Outcome{
			Kind: world.OutcomeDamage,
			Damage: &world.DamageOutcome{
				X: pos.X,
				Y: pos.Y,
				Instance: combat.DamageInstance{
					Source:  caster,
					Target:  eff.Damage.Target,
					Magical: eff.Damage.Amount,
				},
			},
		})
	case ability.EffectHeal:
		pos := targetPosition(w, eff.Heal.Target)
		w.Outcomes.Append(world.Outcome{
			Kind: world.OutcomeHeal,
			Heal: &world.HealOutcome{X: pos.X, Y: pos.Y, Target: eff.Heal.Target, Amount: eff.Heal.Amount},
		})
	case ability.EffectStatusModifier:
		mod := eff.StatusModifier
		kind := world.EffectBuff
		if mod.Value < 0 {
			kind = world.EffectDebuff
		}
		instance := world.SkillEffect{
			ID:            uuid.NewString(),
			SourceSkillID: abilityID,
			Caster:        caster,
			Target:        mod.Target,
			HasTarget:     true,
			Kind:          kind,
			ModifierType:  mod.ModifierType,
			ModifierValue: mod.Value,
		}
		if mod.Duration == nil {
			instance.Permanent = true
		} else {
			instance.Duration = *mod.Duration
			instance.RemainingTime = *mod.Duration
		}
		w.Effects.Set(w.Store.Create(), instance)
	case ability.EffectSummon:
		s := eff.Summon
		faction := world.Faction{ID: world.FactionNeutral}
		if f := w.Factions.Get(caster); f != nil {
			faction = *f
		}
		duration := 0.0
		if s.Duration != nil {
			duration = *s.Duration
		}
		for i := 0; i < s.Count; i++ {
			w.Outcomes.Append(world.Outcome{
				Kind: world.OutcomeSpawnUnit,
				SpawnUnit: &world.SpawnUnitOutcome{
					UnitType: s.UnitType,
					X:        s.X,
					Y:        s.Y,
					Owner:    caster,
					Duration: duration,
					Faction:  faction,
				},
			})
		}
	case ability.EffectAreaEffect:
		zone := eff.AreaEffect
		instance := world.SkillEffect{
			ID:            uuid.NewString(),
			SourceSkillID: abilityID,
			Caster:        caster,
			HasPoint:      true,
			PointX:        zone.CenterX,
			PointY:        zone.CenterY,
			Kind:          world.EffectAreaEffect,
			Duration:      zone.Duration,
			RemainingTime: zone.Duration,
			Radius:        zone.Radius,
			TickInterval:  zone.TickInterval,
			LastTickTime:  now,
			EffectType:    zone.EffectType,
		}
		if zone.DamagePerTick != nil {
			instance.DamagePerTick = *zone.DamagePerTick
		}
		w.Effects.Set(w.Store.Create(), instance)
	}
}

// removeSkillEffects drops every live effect a caster's skill produced.
func (rt *Runtime) removeSkillEffects(w *world.World, caster ecs.Handle, abilityID string) {
	for _, eh := range w.Effects.Handles() {
		eff := w.Effects.Get(eh)
		if eff == nil || eff.Caster != caster || eff.SourceSkillID != abilityID {
			continue
		}
		w.Store.Destroy(eh)
	}
}

const areaEffectHitLimit = 64

// ageEffects counts down durations, fires periodic pulses, and retires
// expired effects. A summon's tracking effect kills the summoned unit when it
// runs out.
func (rt *Runtime) ageEffects(w *world.World, dt, now float64) {
	ctx := context.Background()
	for _, eh := range w.Effects.Handles() {
		eff := w.Effects.Get(eh)
		if eff == nil {
			continue
		}
		if !eff.Permanent {
			eff.RemainingTime -= dt
		}

		switch eff.Kind {
		case world.EffectDamageOverTime:
			if eff.HasTarget && eff.ShouldTick(now) && w.Store.Alive(eff.Target) {
				pos := targetPosition(w, eff.Target)
				w.Outcomes.Append(world.Outcome{
					Kind: world.OutcomeDamage,
					Damage: &world.DamageOutcome{
						X: pos.X,
						Y: pos.Y,
						Instance: combat.DamageInstance{
							Source:  eff.Caster,
							Target:  eff.Target,
							Magical: eff.DamagePerTick,
						},
					},
				})
			}
		case world.EffectHealOverTime:
			if eff.HasTarget && eff.ShouldTick(now) && w.Store.Alive(eff.Target) {
				pos := targetPosition(w, eff.Target)
				w.Outcomes.Append(world.Outcome{
					Kind: world.OutcomeHeal,
					Heal: &world.HealOutcome{X: pos.X, Y: pos.Y, Target: eff.Target, Amount: eff.HealPerTick},
				})
			}
		case world.EffectAreaEffect:
			if eff.ShouldTick(now) {
				rt.pulseArea(w, eff)
			}
		}

		if !eff.Expired() {
			continue
		}
		if eff.Kind == world.EffectSummon && eff.HasTarget && w.Store.Alive(eff.Target) {
			pos := targetPosition(w, eff.Target)
			w.Outcomes.Append(world.Outcome{
				Kind:  world.OutcomeDeath,
				Death: &world.DeathOutcome{X: pos.X, Y: pos.Y, Ent: eff.Target},
			})
		}
		skillslog.EffectExpired(ctx, w.Publisher, w.Clock.TickID,
			logging.EntityRef{ID: world.EntityID(eff.Caster), Kind: logging.EntityKindHero},
			skillslog.ExpirePayload{AbilityID: eff.SourceSkillID, EffectID: eff.ID})
		w.Store.Destroy(eh)
	}
}

// pulseArea damages every hostile unit inside the zone. A zone whose caster
// is gone hits everything; it no longer has a side.
func (rt *Runtime) pulseArea(w *world.World, eff *world.SkillEffect) {
	if eff.DamagePerTick <= 0 {
		return
	}
	casterFaction := w.Factions.Get(eff.Caster)
	hits := w.Searcher.Units.RadiusK(eff.PointX, eff.PointY, eff.Radius, areaEffectHitLimit)
	for _, hit := range hits {
		if hit.Ent == eff.Caster || !w.Store.Alive(hit.Ent) || w.Store.PendingDestroy(hit.Ent) {
			continue
		}
		if casterFaction != nil {
			tf := w.Factions.Get(hit.Ent)
			if tf == nil || !world.Hostile(*casterFaction, *tf) {
				continue
			}
		}
		pos := targetPosition(w, hit.Ent)
		w.Outcomes.Append(world.Outcome{
			Kind: world.OutcomeDamage,
			Damage: &world.DamageOutcome{
				X: pos.X,
				Y: pos.Y,
				Instance: combat.DamageInstance{
					Source:  eff.Caster,
					Target:  hit.Ent,
					Magical: eff.DamagePerTick,
				},
			},
		})
	}
}

func targetPosition(w *world.World, h ecs.Handle) world.Position {
	if pos := w.Positions.Get(h); pos != nil {
		return *pos
	}
	return world.Position{}
}
