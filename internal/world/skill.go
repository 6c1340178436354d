package world

import "siegefall/server/internal/ecs"

// Skill is a per-owner instance of an ability definition, carrying cooldown
// and charge state. Level 0 means the skill is not yet learned.
type Skill struct {
	AbilityID             string
	Owner                 ecs.Handle
	Level                 int
	MaxLevel              int
	CooldownRemaining     float64
	Charges               int
	MaxCharges            int
	ChargeRestoreInterval float64
	LastChargeTime        float64
	IsToggle              bool
	ToggleState           bool
}

// Ready reports whether the skill can execute right now. Toggles ignore
// cooldown when switching off.
func (s *Skill) Ready() bool {
	if s == nil || s.Level <= 0 {
		return false
	}
	if s.IsToggle && s.ToggleState {
		return true
	}
	if s.CooldownRemaining > 0 {
		if s.MaxCharges > 0 && s.Charges > 0 {
			return true
		}
		return false
	}
	if s.MaxCharges > 0 && s.Charges == 0 {
		return false
	}
	return true
}

// Advance ticks cooldown down and restores charges on their interval.
func (s *Skill) Advance(dt, now float64) {
	if s == nil {
		return
	}
	if s.CooldownRemaining > 0 {
		s.CooldownRemaining -= dt
		if s.CooldownRemaining < 0 {
			s.CooldownRemaining = 0
		}
	}
	if s.MaxCharges > 0 && s.Charges < s.MaxCharges && s.ChargeRestoreInterval > 0 {
		if now-s.LastChargeTime >= s.ChargeRestoreInterval {
			s.Charges++
			s.LastChargeTime = now
		}
	}
}

// SkillEffectKind classifies a live effect instance.
type SkillEffectKind string

const (
	EffectBuff           SkillEffectKind = "Buff"
	EffectDebuff         SkillEffectKind = "Debuff"
	EffectDamage         SkillEffectKind = "Damage"
	EffectHeal           SkillEffectKind = "Heal"
	EffectAura           SkillEffectKind = "Aura"
	EffectTransform      SkillEffectKind = "Transform"
	EffectSummon         SkillEffectKind = "Summon"
	EffectArea           SkillEffectKind = "Area"
	EffectDamageOverTime SkillEffectKind = "DamageOverTime"
	EffectHealOverTime   SkillEffectKind = "HealOverTime"
	EffectAreaEffect     SkillEffectKind = "AreaEffect"
)

// SkillEffect is a live effect produced by executing an ability. It carries
// enough data to complete even if the source skill is destroyed.
type SkillEffect struct {
	ID            string
	SourceSkillID string
	Caster        ecs.Handle
	Target        ecs.Handle
	HasTarget     bool
	HasPoint      bool
	PointX        float64
	PointY        float64
	Kind          SkillEffectKind
	Duration      float64
	RemainingTime float64
	Permanent     bool
	Radius        float64
	TickInterval  float64
	LastTickTime  float64
	Stacks        int
	MaxStacks     int

	ModifierType  string
	ModifierValue float64
	DamagePerTick float64
	HealPerTick   float64
	EffectType    string
}

// ShouldTick reports whether a periodic effect is due to pulse and records
// the pulse time when it is.
func (e *SkillEffect) ShouldTick(now float64) bool {
	if e == nil || e.TickInterval <= 0 {
		return false
	}
	if now-e.LastTickTime < e.TickInterval {
		return false
	}
	e.LastTickTime = now
	return true
}

// Expired reports whether the effect's remaining time has run out.
func (e *SkillEffect) Expired() bool {
	if e == nil {
		return true
	}
	if e.Permanent {
		return false
	}
	return e.RemainingTime <= 0
}
