package world

import (
	"math"

	"siegefall/server/internal/combat"
	"siegefall/server/internal/ecs"
)

const (
	projectileArriveDistSq = 1.0
	projectileAOELimit     = 64
)

// StepProjectiles advances every projectile and resolves impacts. A radius
// above 1 makes the impact an area hit re-scanned through the Searcher.
func (w *World) StepProjectiles() {
	dt := w.Clock.Delta
	var pending []Outcome
	ecs.Join2(w.Projectiles, w.Positions, func(ph ecs.Handle, projectile *Projectile, pos *Position) {
		if w.Store.PendingDestroy(ph) {
			return
		}
		projectile.TimeLeft -= dt
		if projectile.TimeLeft <= 0 {
			pending = append(pending, Outcome{
				Kind:  OutcomeDeath,
				Death: &DeathOutcome{X: pos.X, Y: pos.Y, Ent: ph},
			})
			return
		}

		// Home onto a still-living target.
		if w.Store.Alive(projectile.Target) {
			if tp := w.Positions.Get(projectile.Target); tp != nil {
				projectile.TargetX = tp.X
				projectile.TargetY = tp.Y
			}
		}

		dx := projectile.TargetX - pos.X
		dy := projectile.TargetY - pos.Y
		distSq := dx*dx + dy*dy
		stepLen := projectile.Speed * dt

		if distSq < projectileArriveDistSq || stepLen*stepLen >= distSq {
			pos.X = projectile.TargetX
			pos.Y = projectile.TargetY
			pending = append(pending, w.resolveImpact(ph, projectile, *pos)...)
			return
		}

		dist := math.Sqrt(distSq)
		pos.X += dx / dist * stepLen
		pos.Y += dy / dist * stepLen
	})
	w.Outcomes.Append(pending...)
}

func (w *World) resolveImpact(ph ecs.Handle, projectile *Projectile, at Position) []Outcome {
	var pending []Outcome
	instance := combat.DamageInstance{
		Source:   projectile.Owner,
		Physical: projectile.DamagePhysical,
		Magical:  projectile.DamageMagic,
		Pure:     projectile.DamagePure,
		Flags:    combat.DamageFlags{CanCrit: true, CanDodge: true},
	}

	if projectile.Radius > 1 {
		hits := w.Searcher.Units.RadiusK(at.X, at.Y, projectile.Radius, projectileAOELimit)
		for _, hit := range hits {
			if !w.Store.Alive(hit.Ent) || hit.Ent == projectile.Owner {
				continue
			}
			if projectile.HasFaction {
				tf := w.Factions.Get(hit.Ent)
				if tf == nil || !Hostile(projectile.OwnerFaction, *tf) {
					continue
				}
			}
			aoe := instance
			aoe.Target = hit.Ent
			pending = append(pending, Outcome{
				Kind:   OutcomeDamage,
				Damage: &DamageOutcome{X: at.X, Y: at.Y, Instance: aoe},
			})
		}
	} else if w.Store.Alive(projectile.Target) {
		single := instance
		single.Target = projectile.Target
		pending = append(pending, Outcome{
			Kind:   OutcomeDamage,
			Damage: &DamageOutcome{X: at.X, Y: at.Y, Instance: single},
		})
	}

	pending = append(pending, Outcome{
		Kind:  OutcomeDeath,
		Death: &DeathOutcome{X: at.X, Y: at.Y, Ent: ph},
	})
	return pending
}
