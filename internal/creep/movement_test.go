package creep

import (
	"context"
	"testing"

	"siegefall/server/internal/world"
)

func newTestWorld() *world.World {
	return world.New(world.Config{TPS: 10, RNGSeed: 3})
}

func endTick(w *world.World) {
	ctx := context.Background()
	w.ResolveDamage(ctx)
	w.ResolveDeaths(ctx)
	w.Maintain()
}

func creepTemplate(speed float64) world.UnitTemplate {
	return world.UnitTemplate{
		Unit:  world.Unit{Name: "grunt"},
		Stats: world.CombatStats{HP: 100, MaxHP: 100, MoveSpeed: speed},
	}
}

func TestCreepWalksPathAndExpiresAtEnd(t *testing.T) {
	w := newTestWorld()
	w.Paths["lane"] = &world.Path{Name: "lane", Points: []world.CheckPoint{
		{X: 0, Y: 0},
		{X: 30, Y: 0},
	}}
	ch := w.SpawnUnitEntity(creepTemplate(100), world.Position{}, world.Faction{ID: world.FactionEnemy, Team: 2})
	w.Creeps.Set(ch, world.Creep{PathName: "lane", Status: world.CreepPreWalk})
	w.Clock.Advance(0.1) // 10 units per step

	StepMovement(w) // pre-walk announces the first leg
	if got := w.Creeps.Get(ch).Status; got != world.CreepWalk {
		t.Fatalf("status = %v, want walking", got)
	}
	StepMovement(w) // snaps onto the head checkpoint, aims at the second
	if got := w.Creeps.Get(ch).Waypoint; got != 1 {
		t.Fatalf("waypoint = %d, want 1", got)
	}

	for i := 0; i < 3; i++ {
		StepMovement(w)
	}
	pos := w.Positions.Get(ch)
	if pos.X != 30 || pos.Y != 0 {
		t.Fatalf("position = (%v, %v), want the path end", pos.X, pos.Y)
	}
	endTick(w)
	if w.Store.Alive(ch) {
		t.Fatal("creep survived reaching the end of its path")
	}
}

func TestBlockedCreepStandsStill(t *testing.T) {
	w := newTestWorld()
	w.Paths["lane"] = &world.Path{Name: "lane", Points: []world.CheckPoint{{X: 0}, {X: 100}}}
	th := w.SpawnTower(world.TowerTemplate{Name: "arrow", Stats: world.CombatStats{HP: 100, MaxHP: 100}},
		world.Position{X: 20}, "p1", world.Faction{ID: world.FactionPlayer, Team: 1})
	ch := w.SpawnUnitEntity(creepTemplate(100), world.Position{X: 10}, world.Faction{ID: world.FactionEnemy, Team: 2})
	w.Creeps.Set(ch, world.Creep{PathName: "lane", Status: world.CreepStop, BlockTower: th})
	w.Clock.Advance(0.1)

	StepMovement(w)
	pos := w.Positions.Get(ch)
	if pos.X != 10 {
		t.Fatalf("blocked creep moved to %v", pos.X)
	}
	if n := w.Outcomes.Len(); n != 0 {
		t.Fatalf("outcomes = %d, want none while the tower lives", n)
	}
}

func TestCreepReleasesWhenBlockingTowerDies(t *testing.T) {
	w := newTestWorld()
	w.Paths["lane"] = &world.Path{Name: "lane", Points: []world.CheckPoint{{X: 0}, {X: 100}}}
	th := w.SpawnTower(world.TowerTemplate{Name: "arrow", Stats: world.CombatStats{HP: 100, MaxHP: 100}},
		world.Position{X: 20}, "p1", world.Faction{ID: world.FactionPlayer, Team: 1})
	ch := w.SpawnUnitEntity(creepTemplate(100), world.Position{X: 10}, world.Faction{ID: world.FactionEnemy, Team: 2})
	w.Creeps.Set(ch, world.Creep{PathName: "lane", Status: world.CreepStop, BlockTower: th})
	w.Clock.Advance(0.1)

	// The tower vanishes without going through its own death cleanup.
	w.Store.Destroy(th)
	w.Maintain()

	StepMovement(w)
	endTick(w)
	creep := w.Creeps.Get(ch)
	if !creep.BlockTower.IsNil() || creep.Status != world.CreepPreWalk {
		t.Fatalf("creep = %+v, want released into pre-walk", creep)
	}
}
