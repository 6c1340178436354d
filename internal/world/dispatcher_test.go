package world

import (
	"context"
	"testing"

	"siegefall/server/internal/combat"
)

func newTestWorld() *World {
	return New(Config{TPS: 10, RNGSeed: 7})
}

// endTick mirrors the damage, death, and maintain stages of one tick.
func endTick(w *World) {
	ctx := context.Background()
	w.ResolveDamage(ctx)
	w.ResolveDeaths(ctx)
	w.Maintain()
}

func dummyTemplate(hp float64) UnitTemplate {
	return UnitTemplate{
		Unit:  Unit{Name: "dummy"},
		Stats: CombatStats{HP: hp, MaxHP: hp},
	}
}

func TestLethalDamageKillsOnFollowingTick(t *testing.T) {
	w := newTestWorld()
	h := w.SpawnUnitEntity(dummyTemplate(100), Position{}, Faction{ID: FactionEnemy, Team: 2})
	w.Clock.Advance(0.1)

	w.Outcomes.Append(Outcome{
		Kind:   OutcomeDamage,
		Damage: &DamageOutcome{Instance: combat.DamageInstance{Target: h, Pure: 150}},
	})
	endTick(w)

	if !w.Store.Alive(h) {
		t.Fatal("target destroyed in the same tick as the damage")
	}
	if stats := w.Stats.Get(h); stats.HP != 0 {
		t.Fatalf("hp = %v, want 0", stats.HP)
	}

	endTick(w)
	if w.Store.Alive(h) {
		t.Fatal("target still alive after the death tick")
	}
}

func TestArmorReductionDebuffIncreasesDamage(t *testing.T) {
	w := newTestWorld()
	tpl := dummyTemplate(1000)
	tpl.Stats.PhysicalDef = 100
	h := w.SpawnUnitEntity(tpl, Position{}, Faction{ID: FactionEnemy, Team: 2})
	w.Clock.Advance(0.1)

	w.Outcomes.Append(Outcome{
		Kind:   OutcomeDamage,
		Damage: &DamageOutcome{Instance: combat.DamageInstance{Target: h, Physical: 100}},
	})
	endTick(w)
	if stats := w.Stats.Get(h); stats.HP != 950 {
		t.Fatalf("hp with full armor = %v, want 950", stats.HP)
	}

	eh := w.Store.Create()
	w.Effects.Set(eh, SkillEffect{
		Kind:          EffectDebuff,
		Target:        h,
		HasTarget:     true,
		ModifierType:  "armor_reduction",
		ModifierValue: -100,
		Permanent:     true,
	})
	w.Outcomes.Append(Outcome{
		Kind:   OutcomeDamage,
		Damage: &DamageOutcome{Instance: combat.DamageInstance{Target: h, Physical: 100}},
	})
	endTick(w)
	if stats := w.Stats.Get(h); stats.HP != 850 {
		t.Fatalf("hp with stripped armor = %v, want 850", stats.HP)
	}
}

func TestHealClampsAtMax(t *testing.T) {
	w := newTestWorld()
	h := w.SpawnUnitEntity(dummyTemplate(100), Position{}, Faction{ID: FactionPlayer, Team: 1})
	w.Stats.Get(h).HP = 50
	w.Clock.Advance(0.1)

	w.Outcomes.Append(Outcome{Kind: OutcomeHeal, Heal: &HealOutcome{Target: h, Amount: 80}})
	endTick(w)
	if stats := w.Stats.Get(h); stats.HP != 100 {
		t.Fatalf("hp = %v, want clamped to 100", stats.HP)
	}
}

func TestTowerDeathReleasesBlockedCreeps(t *testing.T) {
	w := newTestWorld()
	th := w.SpawnTower(TowerTemplate{Name: "arrow", Stats: CombatStats{HP: 200, MaxHP: 200}},
		Position{}, "p1", Faction{ID: FactionPlayer, Team: 1})
	ch := w.SpawnUnitEntity(dummyTemplate(100), Position{X: 10}, Faction{ID: FactionEnemy, Team: 2})
	w.Creeps.Set(ch, Creep{PathName: "lane", Status: CreepStop, BlockTower: th})
	w.Towers.Get(th).BlockCreeps = append(w.Towers.Get(th).BlockCreeps, ch)
	w.Clock.Advance(0.1)

	w.Outcomes.Append(Outcome{Kind: OutcomeDeath, Death: &DeathOutcome{Ent: th}})
	endTick(w) // tower dies; the release lands in the next batch
	endTick(w) // release applied

	creep := w.Creeps.Get(ch)
	if creep.Status != CreepPreWalk {
		t.Fatalf("creep status = %v, want pre-walk", creep.Status)
	}
	if !creep.BlockTower.IsNil() {
		t.Fatal("creep still references the dead tower")
	}
	if w.Store.Alive(th) {
		t.Fatal("tower survived its death")
	}
}

func TestRewardsShareByBountyTier(t *testing.T) {
	w := newTestWorld()
	tpl := dummyTemplate(100)
	tpl.Unit.Name = "siege_creep"
	tpl.Unit.ExpReward = 90
	tpl.Unit.GoldReward = 40
	tpl.Unit.Bounty = BountySiege
	ch := w.SpawnUnitEntity(tpl, Position{}, Faction{ID: FactionEnemy, Team: 2})

	near := w.SpawnHero(dummyTemplate(500), Hero{OwnerPlayer: "p1"},
		Position{X: 100}, Faction{ID: FactionPlayer, Team: 1})
	far := w.SpawnHero(dummyTemplate(500), Hero{OwnerPlayer: "p2"},
		Position{X: 900}, Faction{ID: FactionPlayer, Team: 1})
	w.Players["p1"] = &Player{Name: "p1"}
	w.Players["p2"] = &Player{Name: "p2"}

	w.Clock.Advance(0.1)
	w.RefreshNeighbourhood()
	w.Outcomes.Append(Outcome{Kind: OutcomeDeath, Death: &DeathOutcome{Ent: ch}})
	endTick(w) // creep dies: gold pays now, experience is queued
	endTick(w) // experience applied

	if gold := w.Players["p1"].Gold; gold != 40 {
		t.Fatalf("near player gold = %v, want 40", gold)
	}
	if gold := w.Players["p2"].Gold; gold != 0 {
		t.Fatalf("far player gold = %v, want 0 outside the gold radius", gold)
	}
	if xp := w.Heroes.Get(near).XP; xp != 90 {
		t.Fatalf("nearest hero xp = %v, want the full 90", xp)
	}
	if xp := w.Heroes.Get(far).XP; xp != 30 {
		t.Fatalf("second hero xp = %v, want a third share", xp)
	}
}

func TestMaintainDropsSkillsOfDeadOwner(t *testing.T) {
	w := newTestWorld()
	hh := w.SpawnHero(dummyTemplate(100), Hero{OwnerPlayer: "p1"},
		Position{}, Faction{ID: FactionPlayer, Team: 1})
	w.Skills.Set(w.Store.Create(), Skill{AbilityID: "fire_dash", Owner: hh, Level: 1})

	w.Store.Destroy(hh)
	w.Maintain() // hero removed, skill queued
	w.Maintain() // skill removed
	if n := w.Skills.Len(); n != 0 {
		t.Fatalf("skills = %d, want 0 after owner death", n)
	}
}

func TestEntityIDRoundTrip(t *testing.T) {
	w := newTestWorld()
	h := w.Store.Create()
	if got := ParseEntityID(EntityID(h)); got != h {
		t.Fatalf("round trip = %+v, want %+v", got, h)
	}
	if !ParseEntityID("garbage").IsNil() {
		t.Fatal("garbage id parsed to a live handle")
	}
	if EntityID(ParseEntityID("")) != "" {
		t.Fatal("empty id not nil")
	}
}
