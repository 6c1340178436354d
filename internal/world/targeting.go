package world

import "siegefall/server/internal/ecs"

const (
	heroTargetLimit  = 8
	heroRangeEpsilon = 50.0
)

// StepTowerTargets fires towers whose cooldown is ready at the head of their
// neighbour list. Cooldowns count down here; only the dispatcher mutates hp.
func (w *World) StepTowerTargets() {
	dt := w.Clock.Delta
	var pending []Outcome
	ecs.Join2(w.Towers, w.Attacks, func(th ecs.Handle, tower *Tower, attack *AttackProfile) {
		if attack.Cooldown > 0 {
			attack.Cooldown -= dt
			return
		}
		var target ecs.Handle
		for _, neighbour := range tower.NearbyCreeps {
			if w.Store.Alive(neighbour.Ent) && !w.Store.PendingDestroy(neighbour.Ent) {
				target = neighbour.Ent
				break
			}
		}
		if target.IsNil() {
			return
		}
		pos := w.Positions.Get(th)
		if pos == nil {
			return
		}
		attack.Cooldown = attack.AttackInterval
		pending = append(pending, Outcome{
			Kind: OutcomeProjectileSpawn,
			ProjectileSpawn: &ProjectileSpawnOutcome{
				OriginX: pos.X,
				OriginY: pos.Y,
				Source:  th,
				Target:  target,
			},
		})
	})
	w.Outcomes.Append(pending...)
}

// StepHeroTargets runs hero auto-attacks: the nearest hostile unit within
// attack range wins; the outer ring is only probed so an almost-in-range
// target keeps the cooldown primed instead of resetting it.
func (w *World) StepHeroTargets() {
	dt := w.Clock.Delta
	var pending []Outcome
	ecs.Join3(w.Heroes, w.Attacks, w.Positions, func(hh ecs.Handle, _ *Hero, attack *AttackProfile, pos *Position) {
		if attack.Cooldown > 0 {
			attack.Cooldown -= dt
			return
		}
		heroFaction := w.Factions.Get(hh)
		if heroFaction == nil {
			return
		}
		reach := attack.Range + w.ModifierSum(hh, "range_bonus")
		inner, _ := w.Searcher.Units.DualRadiusK(pos.X, pos.Y, reach, reach+heroRangeEpsilon, heroTargetLimit)
		var target ecs.Handle
		for _, hit := range inner {
			if hit.Ent == hh || !w.Store.Alive(hit.Ent) || w.Store.PendingDestroy(hit.Ent) {
				continue
			}
			tf := w.Factions.Get(hit.Ent)
			if tf == nil || !Hostile(*heroFaction, *tf) {
				continue
			}
			target = hit.Ent
			break
		}
		if target.IsNil() {
			return
		}
		attack.Cooldown = attack.AttackInterval
		pending = append(pending, Outcome{
			Kind: OutcomeProjectileSpawn,
			ProjectileSpawn: &ProjectileSpawnOutcome{
				OriginX: pos.X,
				OriginY: pos.Y,
				Source:  hh,
				Target:  target,
			},
		})
	})
	w.Outcomes.Append(pending...)
}
