package world

import (
	"context"

	"siegefall/server/internal/ecs"
	"siegefall/server/internal/net/proto"
	"siegefall/server/logging"
	lifecyclelog "siegefall/server/logging/lifecycle"
)

// Per-point attribute conversions applied on level up.
const (
	hpPerStrength    = 20.0
	armorPerAgility  = 0.14
	manaPerIntellect = 12.0
)

// XPToNext is the experience required to leave the given level.
func XPToNext(level int) float64 {
	if level < 1 {
		level = 1
	}
	return 100 * float64(level)
}

// GrantExperience applies experience to a hero, crossing as many level
// thresholds as the amount covers. Each level applies the growth curve to the
// hero's combat stats and announces the level on the wire.
func (w *World) GrantExperience(h ecs.Handle, amount float64) {
	hero := w.Heroes.Get(h)
	if hero == nil || amount <= 0 {
		return
	}
	hero.XP += amount
	for hero.XP >= hero.XPToNext {
		hero.XP -= hero.XPToNext
		hero.Level++
		hero.SkillPoints++
		hero.XPToNext = XPToNext(hero.Level)
		w.applyGrowth(h, hero)

		w.Broadcast(proto.CategoryHero, proto.ActionResult, proto.LevelUpPayload{
			ID:    EntityID(h),
			Level: hero.Level,
		}, true)
		lifecyclelog.LevelUp(context.Background(), w.Publisher, w.Clock.TickID,
			logging.EntityRef{ID: EntityID(h), Kind: logging.EntityKindHero},
			lifecyclelog.LevelUpPayload{Level: hero.Level, XP: hero.XP})
	}
}

func (w *World) applyGrowth(h ecs.Handle, hero *Hero) {
	hero.Strength += hero.Growth.Strength
	hero.Agility += hero.Growth.Agility
	hero.Intelligence += hero.Growth.Intelligence

	stats := w.Stats.Get(h)
	if stats == nil {
		return
	}
	hpGain := hero.Growth.Strength * hpPerStrength
	stats.MaxHP += hpGain
	stats.HP += hpGain
	stats.PhysicalDef += hero.Growth.Agility * armorPerAgility
	manaGain := hero.Growth.Intelligence * manaPerIntellect
	stats.MaxMana += manaGain
	stats.Mana += manaGain
}
