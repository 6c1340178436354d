package ability

import "siegefall/server/internal/ecs"

// EffectKind tags the populated payload of an Effect.
type EffectKind string

const (
	EffectDamage         EffectKind = "damage"
	EffectHeal           EffectKind = "heal"
	EffectStatusModifier EffectKind = "status_modifier"
	EffectSummon         EffectKind = "summon"
	EffectAreaEffect     EffectKind = "area_effect"
)

// DamageEffect deals a flat amount to one unit.
type DamageEffect struct {
	Target ecs.Handle
	Amount float64
}

// HealEffect restores a flat amount to one unit.
type HealEffect struct {
	Target ecs.Handle
	Amount float64
}

// StatusModifierEffect attaches a named stat modifier. A nil Duration means
// the modifier lasts until something removes it, such as toggling off.
type StatusModifierEffect struct {
	Target       ecs.Handle
	ModifierType string
	Value        float64
	Duration     *float64
}

// SummonEffect creates units at a position. A nil Duration summons
// permanently.
type SummonEffect struct {
	X        float64
	Y        float64
	UnitType string
	Count    int
	Duration *float64
}

// AreaEffectEffect plants a ticking zone at a point.
type AreaEffectEffect struct {
	CenterX       float64
	CenterY       float64
	Radius        float64
	EffectType    string
	DamagePerTick *float64
	Duration      float64
	TickInterval  float64
}

// Effect is one declarative consequence of executing an ability. Exactly the
// payload matching Kind is populated.
type Effect struct {
	Kind           EffectKind
	Damage         *DamageEffect
	Heal           *HealEffect
	StatusModifier *StatusModifierEffect
	Summon         *SummonEffect
	AreaEffect     *AreaEffectEffect
}
