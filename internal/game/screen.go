package game

import (
	"time"

	"siegefall/server/internal/ecs"
	"siegefall/server/internal/net/proto"
	"siegefall/server/internal/sim"
	"siegefall/server/internal/world"
)

// handleScreenRequest answers an area-of-interest query with a snapshot of
// everything inside the rectangle, published on the requester's response
// topic only.
func (g *Game) handleScreenRequest(cmd sim.Command) {
	op := cmd.Screen
	if op == nil {
		return
	}
	if _, ok := g.w.Players[cmd.ActorID]; !ok {
		g.reject(cmd.ActorID, proto.KindScreenRequest, op.Action, "not_connected")
		return
	}

	area := proto.ScreenArea{
		MinX: op.CenterX - op.Width/2,
		MinY: op.CenterY - op.Height/2,
		MaxX: op.CenterX + op.Width/2,
		MaxY: op.CenterY + op.Height/2,
	}
	payload := proto.ScreenAreaPayload{
		Area:      area,
		Entities:  g.collectEntities(area),
		Players:   g.collectPlayers(),
		Timestamp: time.Now().UnixMilli(),
	}
	g.w.Publish(proto.Message{
		Topic:    proto.TopicScreenResponse(cmd.ActorID),
		Envelope: proto.Envelope{T: proto.CategoryScreen, A: proto.ActionResult, D: payload},
		Critical: true,
	})
}

func inArea(area proto.ScreenArea, pos *world.Position) bool {
	return pos.X >= area.MinX && pos.X <= area.MaxX && pos.Y >= area.MinY && pos.Y <= area.MaxY
}

func (g *Game) collectEntities(area proto.ScreenArea) []proto.ScreenEntity {
	var entities []proto.ScreenEntity
	ecs.Join2(g.w.Units, g.w.Positions, func(h ecs.Handle, unit *world.Unit, pos *world.Position) {
		if g.w.Store.PendingDestroy(h) || !inArea(area, pos) {
			return
		}
		entity := proto.ScreenEntity{
			ID:         world.EntityID(h),
			EntityType: entityType(g.w, h),
			Position:   [2]float64{pos.X, pos.Y},
			Name:       unit.Name,
		}
		if stats := g.w.Stats.Get(h); stats != nil {
			entity.Health = [2]float64{stats.HP, stats.MaxHP}
		}
		if hero := g.w.Heroes.Get(h); hero != nil {
			entity.Owner = hero.OwnerPlayer
		}
		entities = append(entities, entity)
	})
	ecs.Join2(g.w.Towers, g.w.Positions, func(h ecs.Handle, tower *world.Tower, pos *world.Position) {
		if g.w.Store.PendingDestroy(h) || !inArea(area, pos) {
			return
		}
		entity := proto.ScreenEntity{
			ID:         world.EntityID(h),
			EntityType: "tower",
			Position:   [2]float64{pos.X, pos.Y},
			Owner:      tower.OwnerPlayer,
		}
		if stats := g.w.Stats.Get(h); stats != nil {
			entity.Health = [2]float64{stats.HP, stats.MaxHP}
		}
		entities = append(entities, entity)
	})
	return entities
}

func entityType(w *world.World, h ecs.Handle) string {
	switch {
	case w.Heroes.Has(h):
		return "hero"
	case w.Creeps.Has(h):
		return "creep"
	default:
		return "unit"
	}
}

func (g *Game) collectPlayers() []proto.ScreenPlayer {
	var players []proto.ScreenPlayer
	for name, player := range g.w.Players {
		if !g.w.Store.Alive(player.Hero) {
			continue
		}
		entry := proto.ScreenPlayer{Name: name}
		if pos := g.w.Positions.Get(player.Hero); pos != nil {
			entry.Position = [2]float64{pos.X, pos.Y}
		}
		if stats := g.w.Stats.Get(player.Hero); stats != nil {
			entry.Health = [2]float64{stats.HP, stats.MaxHP}
		}
		if hero := g.w.Heroes.Get(player.Hero); hero != nil {
			entry.HeroType = hero.HeroType
		}
		g.w.Skills.Each(func(_ ecs.Handle, s *world.Skill) {
			if s.Owner != player.Hero {
				return
			}
			entry.Abilities = append(entry.Abilities, proto.ScreenAbility{
				AbilityID:         s.AbilityID,
				CooldownRemaining: s.CooldownRemaining,
				IsAvailable:       s.Ready(),
			})
		})
		players = append(players, entry)
	}
	return players
}
