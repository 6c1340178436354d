package world

import (
	"math"
	"testing"
)

func TestGrantExperienceCrossesOneLevel(t *testing.T) {
	w := newTestWorld()
	tpl := dummyTemplate(500)
	tpl.Stats.Mana = 200
	tpl.Stats.MaxMana = 200
	hh := w.SpawnHero(tpl, Hero{
		OwnerPlayer: "p1",
		Growth:      GrowthCurve{Strength: 2, Agility: 1, Intelligence: 1.5},
	}, Position{}, Faction{ID: FactionPlayer, Team: 1})

	w.GrantExperience(hh, 120)

	hero := w.Heroes.Get(hh)
	if hero.Level != 2 {
		t.Fatalf("level = %d, want 2", hero.Level)
	}
	if hero.XP != 20 || hero.XPToNext != 200 {
		t.Fatalf("xp = %v/%v, want 20/200", hero.XP, hero.XPToNext)
	}
	if hero.SkillPoints != 1 {
		t.Fatalf("skill points = %d, want 1", hero.SkillPoints)
	}

	stats := w.Stats.Get(hh)
	if stats.MaxHP != 540 || stats.HP != 540 {
		t.Fatalf("hp = %v/%v, want growth to add 40", stats.HP, stats.MaxHP)
	}
	if stats.MaxMana != 218 {
		t.Fatalf("max mana = %v, want 218", stats.MaxMana)
	}
	if math.Abs(stats.PhysicalDef-0.14) > 1e-9 {
		t.Fatalf("armor = %v, want 0.14", stats.PhysicalDef)
	}
}

func TestGrantExperienceChainsLevels(t *testing.T) {
	w := newTestWorld()
	hh := w.SpawnHero(dummyTemplate(500), Hero{OwnerPlayer: "p1"},
		Position{}, Faction{ID: FactionPlayer, Team: 1})

	// 100 + 200 crossed, 50 left toward level 4's 300.
	w.GrantExperience(hh, 350)
	hero := w.Heroes.Get(hh)
	if hero.Level != 3 || hero.XP != 50 || hero.XPToNext != 300 {
		t.Fatalf("progression = level %d xp %v/%v, want 3 50/300", hero.Level, hero.XP, hero.XPToNext)
	}
}

func TestXPToNextScalesWithLevel(t *testing.T) {
	cases := []struct {
		level int
		want  float64
	}{
		{0, 100},
		{1, 100},
		{2, 200},
		{10, 1000},
	}
	for _, tc := range cases {
		if got := XPToNext(tc.level); got != tc.want {
			t.Errorf("XPToNext(%d) = %v, want %v", tc.level, got, tc.want)
		}
	}
}
