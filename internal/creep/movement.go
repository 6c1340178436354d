// Package creep implements creep path following and the wave spawn engine.
package creep

import (
	"math"

	"siegefall/server/internal/ecs"
	"siegefall/server/internal/net/proto"
	"siegefall/server/internal/world"
)

// StepMovement advances every walking creep along its path. Blocked creeps
// stand still until their tower releases them or dies.
func StepMovement(w *world.World) {
	dt := w.Clock.Delta
	var pending []world.Outcome

	ecs.Join3(w.Creeps, w.Positions, w.Stats, func(ch ecs.Handle, c *world.Creep, pos *world.Position, stats *world.CombatStats) {
		if w.Store.PendingDestroy(ch) {
			return
		}
		path := w.Paths[c.PathName]
		if path == nil || len(path.Points) == 0 {
			return
		}

		if !c.BlockTower.IsNil() {
			if w.Store.Alive(c.BlockTower) {
				return
			}
			// Blocking tower died without releasing us.
			pending = append(pending, world.Outcome{
				Kind:      world.OutcomeCreepWalk,
				CreepWalk: &world.CreepWalkOutcome{Creep: ch},
			})
			return
		}

		switch c.Status {
		case world.CreepStop:
			c.Status = world.CreepPreWalk
		case world.CreepPreWalk:
			if c.Waypoint >= len(path.Points) {
				pending = append(pending, deathOutcome(ch, pos))
				return
			}
			next := path.Points[c.Waypoint]
			w.Broadcast(proto.CategoryCreep, proto.ActionMove, proto.MovePayload{
				ID:      world.EntityID(ch),
				X:       pos.X,
				Y:       pos.Y,
				TargetX: next.X,
				TargetY: next.Y,
				Speed:   stats.MoveSpeed,
			}, false)
			c.Status = world.CreepWalk
		case world.CreepWalk:
			if c.Waypoint >= len(path.Points) {
				pending = append(pending, deathOutcome(ch, pos))
				return
			}
			next := path.Points[c.Waypoint]
			dx := next.X - pos.X
			dy := next.Y - pos.Y
			distSq := dx*dx + dy*dy
			step := stats.MoveSpeed * dt
			if distSq > step*step {
				dist := math.Sqrt(distSq)
				pos.X += dx / dist * step
				pos.Y += dy / dist * step
				return
			}

			// Snap to the waypoint and aim for the next one.
			pos.X = next.X
			pos.Y = next.Y
			c.Waypoint++
			if c.Waypoint >= len(path.Points) {
				pending = append(pending, deathOutcome(ch, pos))
				return
			}
			upcoming := path.Points[c.Waypoint]
			w.Broadcast(proto.CategoryCreep, proto.ActionMove, proto.MovePayload{
				ID:      world.EntityID(ch),
				X:       pos.X,
				Y:       pos.Y,
				TargetX: upcoming.X,
				TargetY: upcoming.Y,
				Speed:   stats.MoveSpeed,
			}, false)
		}
	})

	w.Outcomes.Append(pending...)
}

func deathOutcome(ch ecs.Handle, pos *world.Position) world.Outcome {
	return world.Outcome{
		Kind:  world.OutcomeDeath,
		Death: &world.DeathOutcome{X: pos.X, Y: pos.Y, Ent: ch},
	}
}
