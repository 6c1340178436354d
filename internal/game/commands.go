package game

import (
	"context"

	"siegefall/server/internal/net/proto"
	"siegefall/server/internal/sim"
	"siegefall/server/internal/world"
	lifecyclelog "siegefall/server/logging/lifecycle"
	networklog "siegefall/server/logging/network"

	"siegefall/server/logging"
)

// processStaged executes the tick's staged commands in arrival order. Command
// effects go through the outcome queue like every other system's.
func (g *Game) processStaged() {
	cmds := g.staged
	g.staged = nil
	for _, cmd := range cmds {
		switch cmd.Type {
		case sim.CommandTowerOp:
			g.handleTowerOp(cmd)
		case sim.CommandPlayerOp:
			g.handlePlayerOp(cmd)
		case sim.CommandSkillInput:
			g.handleSkillInput(cmd)
		case sim.CommandScreenRequest:
			g.handleScreenRequest(cmd)
		}
	}
}

func (g *Game) reject(actor, kind, action, reason string) {
	networklog.CommandRejected(context.Background(), g.deps.Publisher, g.w.Clock.TickID,
		networklog.RejectPayload{Player: actor, Kind: kind, Action: action, Reason: reason})
}

func (g *Game) ack(category string, payload proto.ResultPayload) {
	g.w.Broadcast(category, proto.ActionResult, payload, true)
}

func (g *Game) handleTowerOp(cmd sim.Command) {
	op := cmd.Tower
	if op == nil {
		return
	}
	player, ok := g.w.Players[cmd.ActorID]
	if !ok {
		g.reject(cmd.ActorID, proto.KindTower, op.Action, "not_connected")
		g.ack(proto.CategoryTower, proto.Failed("not_connected"))
		return
	}
	if op.Action != proto.ActionCreate {
		g.reject(cmd.ActorID, proto.KindTower, op.Action, "unknown_action")
		g.ack(proto.CategoryTower, proto.Failed("unknown_action"))
		return
	}
	if op.TowerIndex < 0 || op.TowerIndex >= len(player.Towers) {
		g.reject(cmd.ActorID, proto.KindTower, op.Action, "bad_tower_index")
		g.ack(proto.CategoryTower, proto.Failed("bad_tower_index"))
		return
	}
	template := player.Towers[op.TowerIndex]
	if player.Gold < template.Cost {
		g.reject(cmd.ActorID, proto.KindTower, op.Action, "insufficient_gold")
		g.ack(proto.CategoryTower, proto.Failed("insufficient_gold"))
		return
	}
	player.Gold -= template.Cost
	g.w.Outcomes.Append(world.Outcome{
		Kind: world.OutcomeTowerSpawn,
		TowerSpawn: &world.TowerSpawnOutcome{
			X:        op.X,
			Y:        op.Y,
			Owner:    cmd.ActorID,
			Template: template,
		},
	})
	g.ack(proto.CategoryTower, proto.OK())
}

func (g *Game) handlePlayerOp(cmd sim.Command) {
	op := cmd.Player
	if op == nil {
		return
	}
	switch op.Action {
	case proto.ActionCreate:
		g.connectPlayer(cmd.ActorID, op)
	case proto.ActionMove:
		g.movePlayer(cmd.ActorID, op)
	case proto.ActionDelete:
		g.disconnectPlayer(cmd.ActorID)
	case proto.ActionAttack:
		// Recognised but not honoured: heroes acquire attack targets
		// themselves, so a manual attack order has nothing to drive.
		g.reject(cmd.ActorID, proto.KindPlayer, op.Action, "not_supported")
		g.ack(proto.CategoryPlayer, proto.Failed("not_supported"))
	default:
		g.reject(cmd.ActorID, proto.KindPlayer, op.Action, "unknown_action")
		g.ack(proto.CategoryPlayer, proto.Failed("unknown_action"))
	}
}

func (g *Game) connectPlayer(actor string, op *sim.PlayerOpCommand) {
	if _, exists := g.w.Players[actor]; exists {
		g.reject(actor, proto.KindPlayer, op.Action, "already_connected")
		g.ack(proto.CategoryPlayer, proto.Failed("already_connected"))
		return
	}
	heroType := op.HeroType
	if heroType == "" {
		heroType = g.defaultHero
	}
	tpl := g.heroDefs[heroType]
	if tpl == nil {
		g.reject(actor, proto.KindPlayer, op.Action, "unknown_hero")
		g.ack(proto.CategoryPlayer, proto.Failed("unknown_hero"))
		return
	}

	pos := world.Position{X: op.X, Y: op.Y}
	base := g.heroBases[heroType]
	base.HeroType = heroType
	base.OwnerPlayer = actor
	hh := g.w.SpawnHero(*tpl, base, pos, world.Faction{ID: world.FactionPlayer, Team: 1})
	for _, abilityID := range tpl.Unit.Abilities {
		s := world.Skill{AbilityID: abilityID, Owner: hh, Level: 1, MaxLevel: 1}
		if def := g.runtime.Defs[abilityID]; def != nil {
			s.MaxLevel = def.MaxLevel
			s.IsToggle = def.Kind == "Toggle"
		}
		g.w.Skills.Set(g.w.Store.Create(), s)
	}

	g.w.Players[actor] = &world.Player{
		Name:   actor,
		Gold:   g.startingGold,
		Hero:   hh,
		Towers: append([]world.TowerTemplate(nil), g.towerTemplates...),
	}
	g.w.Broadcast(proto.CategoryHero, proto.ActionCreate, proto.CreatePayload{
		ID:    world.EntityID(hh),
		Name:  heroType,
		Owner: actor,
		X:     pos.X,
		Y:     pos.Y,
		HP:    tpl.Stats.HP,
		MaxHP: tpl.Stats.MaxHP,
	}, true)
	lifecyclelog.Spawn(context.Background(), g.deps.Publisher, g.w.Clock.TickID,
		logging.EntityRef{ID: world.EntityID(hh), Kind: logging.EntityKindHero},
		lifecyclelog.SpawnPayload{Name: heroType, X: pos.X, Y: pos.Y})
	g.ack(proto.CategoryPlayer, proto.OK())
}

func (g *Game) movePlayer(actor string, op *sim.PlayerOpCommand) {
	player, ok := g.w.Players[actor]
	if !ok || !g.w.Store.Alive(player.Hero) {
		g.reject(actor, proto.KindPlayer, op.Action, "no_hero")
		g.ack(proto.CategoryPlayer, proto.Failed("no_hero"))
		return
	}
	pos := g.w.Positions.Get(player.Hero)
	if pos == nil {
		return
	}
	pos.X = op.X
	pos.Y = op.Y
	speed := 0.0
	if stats := g.w.Stats.Get(player.Hero); stats != nil {
		speed = stats.MoveSpeed
	}
	g.w.Broadcast(proto.CategoryHero, proto.ActionMove, proto.MovePayload{
		ID:    world.EntityID(player.Hero),
		X:     pos.X,
		Y:     pos.Y,
		Speed: speed,
	}, false)
}

func (g *Game) disconnectPlayer(actor string) {
	player, ok := g.w.Players[actor]
	if !ok {
		g.reject(actor, proto.KindPlayer, proto.ActionDelete, "not_connected")
		return
	}
	if g.w.Store.Alive(player.Hero) {
		pos := world.Position{}
		if p := g.w.Positions.Get(player.Hero); p != nil {
			pos = *p
		}
		g.w.Outcomes.Append(world.Outcome{
			Kind:  world.OutcomeDeath,
			Death: &world.DeathOutcome{X: pos.X, Y: pos.Y, Ent: player.Hero},
		})
	}
	delete(g.w.Players, actor)
	g.ack(proto.CategoryPlayer, proto.OK())
}

func (g *Game) handleSkillInput(cmd sim.Command) {
	op := cmd.Skill
	if op == nil {
		return
	}
	player, ok := g.w.Players[cmd.ActorID]
	if !ok {
		g.reject(cmd.ActorID, proto.KindSkill, "", "not_connected")
		return
	}
	input := world.SkillInput{
		Caster:    player.Hero,
		AbilityID: op.AbilityID,
		Target:    world.ParseEntityID(op.TargetEntity),
	}
	if op.TargetX != nil && op.TargetY != nil {
		input.HasPoint = true
		input.X = *op.TargetX
		input.Y = *op.TargetY
	}
	g.w.PushSkillInput(input)
}
