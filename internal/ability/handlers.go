package ability

import "math"

// DefaultHandlers returns the built-in ability set.
func DefaultHandlers() []Handler {
	return []Handler{
		SniperMode{Base{ID: "sniper_mode"}},
		SaikaReinforcements{Base{ID: "saika_reinforcements"}},
		ThreeStageTechnique{Base{ID: "three_stage_technique"}},
		RainIronCannon{Base{ID: "rain_iron_cannon"}},
		FireDash{Base{ID: "fire_dash"}},
	}
}

// SniperMode is a toggle stance: longer range and heavier shots at the cost
// of attack and movement speed. All modifiers are unbounded in time and live
// until the stance is toggled off.
type SniperMode struct {
	Base
}

func (SniperMode) Execute(req Request, def *Definition, level LevelData) []Effect {
	mods := []struct {
		kind  string
		value float64
	}{
		{"range_bonus", Num(level.Extra, "range_bonus", 250)},
		{"damage_bonus", Num(level.Extra, "damage_bonus", 0.30)},
		{"attack_speed_bonus", Num(level.Extra, "attack_speed_bonus", -0.3)},
		{"move_speed_bonus", Num(level.Extra, "move_speed_bonus", -0.5)},
		{"accuracy_bonus", Num(level.Extra, "accuracy_bonus", 0.15)},
	}
	effects := make([]Effect, 0, len(mods))
	for _, m := range mods {
		effects = append(effects, Effect{
			Kind: EffectStatusModifier,
			StatusModifier: &StatusModifierEffect{
				Target:       req.Caster,
				ModifierType: m.kind,
				Value:        m.value,
			},
		})
	}
	return effects
}

// SaikaReinforcements summons gunners in a circle around the target point.
// Summon i stands at angle 2π·(i+1)/N on the formation ring.
type SaikaReinforcements struct {
	Base
}

func (SaikaReinforcements) Execute(req Request, def *Definition, level LevelData) []Effect {
	if !req.HasPoint {
		return nil
	}
	count := int(Num(level.Extra, "summon_count", 2))
	if count <= 0 {
		return nil
	}
	radius := Num(level.Extra, "formation_radius", 100)
	duration := Num(level.Extra, "summon_duration", 50)
	unitType := Str(level.Extra, "unit_type", "saika_gunner")

	effects := make([]Effect, 0, count)
	for i := 0; i < count; i++ {
		angle := 2 * math.Pi * float64(i+1) / float64(count)
		d := duration
		effects = append(effects, Effect{
			Kind: EffectSummon,
			Summon: &SummonEffect{
				X:        req.PointX + radius*math.Cos(angle),
				Y:        req.PointY + radius*math.Sin(angle),
				UnitType: unitType,
				Count:    1,
				Duration: &d,
			},
		})
	}
	return effects
}

// ThreeStageTechnique lands a burst of strikes on one unit, then shreds its
// armor for a short window.
type ThreeStageTechnique struct {
	Base
}

func (ThreeStageTechnique) Execute(req Request, def *Definition, level LevelData) []Effect {
	if !req.HasTarget {
		return nil
	}
	attacks := int(Num(level.Extra, "attacks_count", 3))
	damage := Num(level.Extra, "damage_per_attack", 75)
	armorReduction := Num(level.Extra, "armor_reduction", 2.0)
	duration := Num(level.Extra, "reduction_duration", 3.0)

	effects := make([]Effect, 0, attacks+1)
	for i := 0; i < attacks; i++ {
		effects = append(effects, Effect{
			Kind:   EffectDamage,
			Damage: &DamageEffect{Target: req.Target, Amount: damage},
		})
	}
	effects = append(effects, Effect{
		Kind: EffectStatusModifier,
		StatusModifier: &StatusModifierEffect{
			Target:       req.Target,
			ModifierType: "armor_reduction",
			Value:        -armorReduction,
			Duration:     &duration,
		},
	})
	return effects
}

// RainIronCannon carpets an area with falling shot. The total damage is
// spread evenly over the zone's ticks.
type RainIronCannon struct {
	Base
}

func (RainIronCannon) Execute(req Request, def *Definition, level LevelData) []Effect {
	if !req.HasPoint {
		return nil
	}
	total := Num(level.Extra, "damage", 80)
	radius := Num(level.Extra, "radius", 300)
	duration := Num(level.Extra, "duration", 3)
	ticks := Num(level.Extra, "total_ticks", 15)
	if ticks <= 0 {
		ticks = 1
	}
	perTick := total / ticks
	return []Effect{{
		Kind: EffectAreaEffect,
		AreaEffect: &AreaEffectEffect{
			CenterX:       req.PointX,
			CenterY:       req.PointY,
			Radius:        radius,
			EffectType:    "rain_iron_cannon",
			DamagePerTick: &perTick,
			Duration:      duration,
			TickInterval:  duration / ticks,
		},
	}}
}

// FireDash launches the caster toward a point and leaves a burning trail
// behind. The speed boost carries the destination so movement can resolve it;
// the trail is a short-lived zone at the dash origin line's far end.
type FireDash struct {
	Base
}

func (FireDash) Execute(req Request, def *Definition, level LevelData) []Effect {
	if !req.HasPoint {
		return nil
	}
	dashDuration := Num(level.Extra, "dash_duration", 0.5)
	trailDamage := Num(level.Extra, "trail_damage_per_tick", 10)
	trailDuration := Num(level.Extra, "trail_duration", 2.0)
	return []Effect{
		{
			Kind: EffectStatusModifier,
			StatusModifier: &StatusModifierEffect{
				Target:       req.Caster,
				ModifierType: "dash_speed",
				Value:        Num(level.Extra, "dash_speed", 800),
				Duration:     &dashDuration,
			},
		},
		{
			Kind: EffectAreaEffect,
			AreaEffect: &AreaEffectEffect{
				CenterX:       req.PointX,
				CenterY:       req.PointY,
				Radius:        Num(level.Extra, "trail_radius", 120),
				EffectType:    "dash_trail",
				DamagePerTick: &trailDamage,
				Duration:      trailDuration,
				TickInterval:  Num(level.Extra, "trail_tick_interval", 0.5),
			},
		},
	}
}
