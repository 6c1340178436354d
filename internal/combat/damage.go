package combat

import (
	"math/rand"

	"siegefall/server/internal/ecs"
)

// DamageFlags control which mitigation steps apply to an instance.
type DamageFlags struct {
	CanCrit           bool
	CanDodge          bool
	IgnoreArmor       bool
	IgnoreMagicResist bool
}

// DamageInstance is one queued packet of damage, captured at emit time so the
// source may die before it resolves.
type DamageInstance struct {
	Source   ecs.Handle
	Target   ecs.Handle
	Physical float64
	Magical  float64
	Pure     float64
	Flags    DamageFlags
}

// AttackerStats are the source-side numbers the formula reads.
type AttackerStats struct {
	CritChance float64
	Lifesteal  float64
	SpellVamp  float64
}

// DefenderStats are the target-side numbers the formula reads.
type DefenderStats struct {
	Armor       float64
	MagicResist float64
	DodgeChance float64
}

// DamageResult is the resolved outcome of one instance.
type DamageResult struct {
	Physical float64
	Magical  float64
	Pure     float64
	Total    float64
	Absorbed float64
	Healing  float64
	Dodged   bool
	Crit     bool
}

const (
	magicResistCap = 0.75
	// armorAmpCap bounds how much negative armor can amplify physical
	// damage; it also keeps the reduction curve clear of the pole at
	// armor = -100.
	armorAmpCap = -1.0
)

// Resolve applies the mitigation pipeline: dodge, crit, armor, magic resist,
// then lifesteal and spell vamp on what got through.
func Resolve(inst DamageInstance, attacker AttackerStats, defender DefenderStats, rng *rand.Rand) DamageResult {
	var result DamageResult

	if inst.Flags.CanDodge && defender.DodgeChance > 0 {
		if roll(rng) < defender.DodgeChance {
			result.Dodged = true
			return result
		}
	}

	physical := inst.Physical
	if inst.Flags.CanCrit && attacker.CritChance > 0 {
		if roll(rng) < attacker.CritChance {
			physical *= 2
			result.Crit = true
		}
	}

	if physical > 0 && !inst.Flags.IgnoreArmor {
		reduction := armorReduction(defender.Armor)
		absorbed := physical * reduction
		physical -= absorbed
		result.Absorbed += absorbed
	}

	magical := inst.Magical
	if magical > 0 && !inst.Flags.IgnoreMagicResist {
		reduction := defender.MagicResist / 100
		if reduction > magicResistCap {
			reduction = magicResistCap
		}
		absorbed := magical * reduction
		magical -= absorbed
		result.Absorbed += absorbed
	}

	result.Physical = physical
	result.Magical = magical
	result.Pure = inst.Pure
	result.Total = physical + magical + inst.Pure
	result.Healing = physical*attacker.Lifesteal + magical*attacker.SpellVamp
	return result
}

// armorReduction maps armor to a physical damage reduction fraction. Stacked
// armor debuffs can drive the input to -100 or beyond, where the curve's
// denominator hits zero and flips sign; amplification bottoms out at the cap
// instead.
func armorReduction(armor float64) float64 {
	if armor <= -50 {
		return armorAmpCap
	}
	return armor / (armor + 100)
}

func roll(rng *rand.Rand) float64 {
	if rng == nil {
		return 1.0
	}
	return rng.Float64()
}
