package game

import (
	"context"
	"testing"

	"siegefall/server/internal/ability"
	"siegefall/server/internal/combat"
	"siegefall/server/internal/net/proto"
	"siegefall/server/internal/sim"
	"siegefall/server/internal/world"
)

type captureOutbox struct {
	msgs []proto.Message
}

func (o *captureOutbox) Enqueue(msg proto.Message) bool {
	o.msgs = append(o.msgs, msg)
	return true
}

func (o *captureOutbox) count(category string) int {
	n := 0
	for _, msg := range o.msgs {
		if msg.Envelope.T == category {
			n++
		}
	}
	return n
}

func testConfig(outbox world.Outbox) Config {
	return Config{
		TPS:         10,
		RNGSeed:     7,
		Workers:     2,
		DefaultHero: "test_hero",
		Outbox:      outbox,
		AbilityDefs: map[string]*ability.Definition{
			"three_stage_technique": {
				ID:       "three_stage_technique",
				Target:   ability.TargetUnit,
				MaxLevel: 4,
				Levels:   map[string]ability.LevelData{"1": {Cooldown: 8, ManaCost: 60}},
			},
		},
		HeroDefs: map[string]*world.UnitTemplate{
			"test_hero": {
				Unit:  world.Unit{Name: "test_hero", Kind: world.UnitHero, Abilities: []string{"three_stage_technique"}},
				Stats: world.CombatStats{HP: 500, MaxHP: 500, Mana: 100, MaxMana: 100, MoveSpeed: 120},
			},
		},
		TowerTemplates: []world.TowerTemplate{{
			Name:   "arrow_tower",
			Cost:   70,
			Stats:  world.CombatStats{HP: 800, MaxHP: 800},
			Attack: world.AttackProfile{PhysicalAtk: 30, AttackInterval: 1.2, Range: 400},
		}},
	}
}

func step(t *testing.T, g *Game, tick uint64) {
	t.Helper()
	if err := g.Step(context.Background(), sim.LoopTickContext{Tick: tick, Delta: 0.1}); err != nil {
		t.Fatalf("step %d: %v", tick, err)
	}
}

func connect(t *testing.T, g *Game, actor string) {
	t.Helper()
	g.Apply([]sim.Command{{
		ActorID: actor,
		Type:    sim.CommandPlayerOp,
		Player:  &sim.PlayerOpCommand{Action: proto.ActionCreate, X: 10, Y: 20},
	}})
	step(t, g, 1)
}

func TestStageGraphLevels(t *testing.T) {
	g, err := New(testConfig(nil))
	if err != nil {
		t.Fatal(err)
	}
	levels := g.scheduler.Levels()
	if len(levels) != 10 {
		t.Fatalf("levels = %d, want 10", len(levels))
	}
	if len(levels[0]) != 1 || levels[0][0] != "neighbourhood_refresh" {
		t.Errorf("level 0 = %v, want the searcher rebuild alone", levels[0])
	}
	if levels[len(levels)-1][0] != "death_resolve" {
		t.Errorf("final level = %v, want death_resolve", levels[len(levels)-1])
	}
}

// Command intake writes the component tables the searcher rebuild reads, so
// the two stages must never share a scheduler level.
func TestCommandIntakeOrderedAfterSearcherRebuild(t *testing.T) {
	g, err := New(testConfig(nil))
	if err != nil {
		t.Fatal(err)
	}
	refreshLevel, intakeLevel := -1, -1
	for i, level := range g.scheduler.Levels() {
		for _, name := range level {
			switch name {
			case "neighbourhood_refresh":
				refreshLevel = i
			case "player_command_intake":
				intakeLevel = i
			}
		}
	}
	if refreshLevel < 0 || intakeLevel < 0 {
		t.Fatalf("stages missing from scheduler levels: refresh=%d intake=%d", refreshLevel, intakeLevel)
	}
	if intakeLevel <= refreshLevel {
		t.Fatalf("intake at level %d, refresh at level %d; intake must run strictly later", intakeLevel, refreshLevel)
	}
}

func TestConnectSpawnsHeroWithSkills(t *testing.T) {
	outbox := &captureOutbox{}
	g, err := New(testConfig(outbox))
	if err != nil {
		t.Fatal(err)
	}
	connect(t, g, "p1")

	player, ok := g.World().Players["p1"]
	if !ok {
		t.Fatal("player not registered")
	}
	if player.Gold != 100 {
		t.Errorf("gold = %v, want starting 100", player.Gold)
	}
	if !g.World().Store.Alive(player.Hero) {
		t.Fatal("hero not alive")
	}
	if got := g.World().Skills.Len(); got != 1 {
		t.Errorf("skills = %d, want 1", got)
	}
	if outbox.count(proto.CategoryHero) == 0 {
		t.Error("no hero create broadcast")
	}
}

func TestPlayerAttackActionAcksFailure(t *testing.T) {
	outbox := &captureOutbox{}
	g, err := New(testConfig(outbox))
	if err != nil {
		t.Fatal(err)
	}
	connect(t, g, "p1")

	g.Apply([]sim.Command{{
		ActorID: "p1",
		Type:    sim.CommandPlayerOp,
		Player:  &sim.PlayerOpCommand{Action: proto.ActionAttack},
	}})
	step(t, g, 2)

	var ack *proto.ResultPayload
	for _, msg := range outbox.msgs {
		if msg.Envelope.T != proto.CategoryPlayer || msg.Envelope.A != proto.ActionResult {
			continue
		}
		if payload, ok := msg.Envelope.D.(proto.ResultPayload); ok {
			ack = &payload
		}
	}
	if ack == nil {
		t.Fatal("no player acknowledgement published")
	}
	if ack.Status != "failed" || ack.Reason != "not_supported" {
		t.Fatalf("ack = %+v, want a failed/not_supported acknowledgement", ack)
	}
}

func TestTowerBuildValidatesIndexAndGold(t *testing.T) {
	g, err := New(testConfig(&captureOutbox{}))
	if err != nil {
		t.Fatal(err)
	}
	connect(t, g, "p1")
	player := g.World().Players["p1"]

	g.Apply([]sim.Command{{
		ActorID: "p1",
		Type:    sim.CommandTowerOp,
		Tower:   &sim.TowerOpCommand{Action: proto.ActionCreate, TowerIndex: 5, X: 100, Y: 100},
	}})
	step(t, g, 2)
	if player.Gold != 100 {
		t.Errorf("gold after bad index = %v, want untouched 100", player.Gold)
	}
	if got := g.World().Towers.Len(); got != 0 {
		t.Fatalf("towers after bad index = %d, want 0", got)
	}

	g.Apply([]sim.Command{{
		ActorID: "p1",
		Type:    sim.CommandTowerOp,
		Tower:   &sim.TowerOpCommand{Action: proto.ActionCreate, TowerIndex: 0, X: 100, Y: 100},
	}})
	step(t, g, 3)
	if player.Gold != 30 {
		t.Errorf("gold after build = %v, want 30", player.Gold)
	}
	if got := g.World().Towers.Len(); got != 1 {
		t.Fatalf("towers after build = %d, want 1", got)
	}

	g.Apply([]sim.Command{{
		ActorID: "p1",
		Type:    sim.CommandTowerOp,
		Tower:   &sim.TowerOpCommand{Action: proto.ActionCreate, TowerIndex: 0, X: 200, Y: 100},
	}})
	step(t, g, 4)
	if player.Gold != 30 {
		t.Errorf("gold after unaffordable build = %v, want 30", player.Gold)
	}
}

func TestLethalDamageDestroysNextTick(t *testing.T) {
	g, err := New(testConfig(nil))
	if err != nil {
		t.Fatal(err)
	}
	w := g.World()
	victim := w.SpawnUnitEntity(world.UnitTemplate{
		Unit:  world.Unit{Name: "victim", Kind: world.UnitCreep},
		Stats: world.CombatStats{HP: 50, MaxHP: 50},
	}, world.Position{X: 5, Y: 5}, world.Faction{ID: world.FactionEnemy, Team: 2})

	w.Outcomes.Append(world.Outcome{
		Kind: world.OutcomeDamage,
		Damage: &world.DamageOutcome{
			X: 5, Y: 5,
			Instance: combat.DamageInstance{Target: victim, Physical: 100},
		},
	})
	step(t, g, 1)
	if !w.Store.Alive(victim) {
		t.Fatal("victim destroyed in the damage tick; death resolves the following tick")
	}
	if stats := w.Stats.Get(victim); stats.HP != 0 {
		t.Fatalf("hp = %v, want clamped to 0", stats.HP)
	}

	step(t, g, 2)
	if w.Store.Alive(victim) {
		t.Fatal("victim still alive after the death tick")
	}
}

func TestHeartbeatCadence(t *testing.T) {
	outbox := &captureOutbox{}
	g, err := New(testConfig(outbox))
	if err != nil {
		t.Fatal(err)
	}
	if outbox.count(proto.CategoryHeartbeat) != 1 {
		t.Fatalf("heartbeats after init = %d, want 1", outbox.count(proto.CategoryHeartbeat))
	}

	// 25 ticks at 0.1s crosses the 2 second mark once.
	for i := uint64(1); i <= 25; i++ {
		step(t, g, i)
	}
	if got := outbox.count(proto.CategoryHeartbeat); got != 2 {
		t.Fatalf("heartbeats after 2.5s = %d, want 2", got)
	}
}

func TestScreenRequestAnswersRequesterOnly(t *testing.T) {
	outbox := &captureOutbox{}
	g, err := New(testConfig(outbox))
	if err != nil {
		t.Fatal(err)
	}
	connect(t, g, "p1")

	g.Apply([]sim.Command{{
		ActorID: "p1",
		Type:    sim.CommandScreenRequest,
		Screen:  &sim.ScreenRequestCommand{CenterX: 0, CenterY: 0, Width: 200, Height: 200},
	}})
	step(t, g, 2)

	var snapshot *proto.ScreenAreaPayload
	for _, msg := range outbox.msgs {
		if msg.Topic != proto.TopicScreenResponse("p1") {
			continue
		}
		payload, ok := msg.Envelope.D.(proto.ScreenAreaPayload)
		if !ok {
			t.Fatalf("screen payload type %T", msg.Envelope.D)
		}
		snapshot = &payload
	}
	if snapshot == nil {
		t.Fatal("no screen response published")
	}
	if len(snapshot.Entities) != 1 {
		t.Fatalf("entities = %d, want the hero only", len(snapshot.Entities))
	}
	if snapshot.Entities[0].EntityType != "hero" {
		t.Errorf("entity type = %q, want hero", snapshot.Entities[0].EntityType)
	}
	if len(snapshot.Players) != 1 || snapshot.Players[0].Name != "p1" {
		t.Errorf("players = %+v, want p1", snapshot.Players)
	}
	if len(snapshot.Players[0].Abilities) != 1 {
		t.Errorf("abilities = %d, want 1", len(snapshot.Players[0].Abilities))
	}
}
