package combat

import (
	"math"
	"math/rand"
	"testing"
)

func TestResolvePlainPhysical(t *testing.T) {
	inst := DamageInstance{Physical: 150}
	result := Resolve(inst, AttackerStats{}, DefenderStats{}, nil)
	if result.Total != 150 || result.Physical != 150 {
		t.Fatalf("expected 150 through with no mitigation, got %+v", result)
	}
	if result.Dodged || result.Crit {
		t.Fatalf("expected no rolls without flags, got %+v", result)
	}
}

func TestResolveArmorReduction(t *testing.T) {
	inst := DamageInstance{Physical: 200}
	result := Resolve(inst, AttackerStats{}, DefenderStats{Armor: 100}, nil)
	// 100 armor absorbs half.
	if math.Abs(result.Physical-100) > 1e-9 {
		t.Fatalf("expected 100 physical after armor, got %f", result.Physical)
	}
	if math.Abs(result.Absorbed-100) > 1e-9 {
		t.Fatalf("expected 100 absorbed, got %f", result.Absorbed)
	}
}

func TestResolveNegativeArmorAmplifiesWithCap(t *testing.T) {
	cases := []struct {
		armor float64
		want  float64
	}{
		{-50, 200},  // exactly at the cap: damage doubles
		{-100, 200}, // the raw curve's pole; clamped, no infinities
		{-150, 200}, // beyond the pole the raw curve would *reduce* damage
		{-25, 100 * (1 + 25.0/75.0)},
	}
	for _, tc := range cases {
		inst := DamageInstance{Physical: 100}
		result := Resolve(inst, AttackerStats{}, DefenderStats{Armor: tc.armor}, nil)
		if math.IsInf(result.Physical, 0) || math.IsNaN(result.Physical) {
			t.Fatalf("armor %v produced non-finite damage %v", tc.armor, result.Physical)
		}
		if math.Abs(result.Physical-tc.want) > 1e-9 {
			t.Errorf("armor %v: physical = %v, want %v", tc.armor, result.Physical, tc.want)
		}
	}
}

func TestResolveIgnoreArmor(t *testing.T) {
	inst := DamageInstance{Physical: 200, Flags: DamageFlags{IgnoreArmor: true}}
	result := Resolve(inst, AttackerStats{}, DefenderStats{Armor: 100}, nil)
	if result.Physical != 200 {
		t.Fatalf("expected armor ignored, got %f", result.Physical)
	}
}

func TestResolveMagicResistCap(t *testing.T) {
	inst := DamageInstance{Magical: 100}
	result := Resolve(inst, AttackerStats{}, DefenderStats{MagicResist: 200}, nil)
	if math.Abs(result.Magical-25) > 1e-9 {
		t.Fatalf("expected resist capped at 75%%, got %f through", result.Magical)
	}
}

func TestResolvePureUntouched(t *testing.T) {
	inst := DamageInstance{Pure: 60}
	result := Resolve(inst, AttackerStats{}, DefenderStats{Armor: 500, MagicResist: 500}, nil)
	if result.Total != 60 || result.Pure != 60 {
		t.Fatalf("expected pure damage untouched, got %+v", result)
	}
}

func TestResolveDodgeZeroesTotal(t *testing.T) {
	inst := DamageInstance{Physical: 100, Flags: DamageFlags{CanDodge: true}}
	rng := rand.New(rand.NewSource(1))
	dodged := false
	for i := 0; i < 200; i++ {
		result := Resolve(inst, AttackerStats{}, DefenderStats{DodgeChance: 0.5}, rng)
		if result.Dodged {
			dodged = true
			if result.Total != 0 {
				t.Fatalf("expected zero total on dodge, got %f", result.Total)
			}
		}
	}
	if !dodged {
		t.Fatalf("expected at least one dodge in 200 rolls at 50%%")
	}
}

func TestResolveCritDoublesPhysicalOnly(t *testing.T) {
	inst := DamageInstance{Physical: 50, Magical: 30, Flags: DamageFlags{CanCrit: true}}
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		result := Resolve(inst, AttackerStats{CritChance: 1.0}, DefenderStats{}, rng)
		if !result.Crit {
			t.Fatalf("expected guaranteed crit")
		}
		if result.Physical != 100 || result.Magical != 30 {
			t.Fatalf("expected only physical doubled, got %+v", result)
		}
	}
}

func TestResolveLifestealAndSpellVamp(t *testing.T) {
	inst := DamageInstance{Physical: 100, Magical: 100}
	attacker := AttackerStats{Lifesteal: 0.2, SpellVamp: 0.1}
	result := Resolve(inst, attacker, DefenderStats{Armor: 100, MagicResist: 50}, nil)
	// 50 physical through, 50 magical through.
	want := 50*0.2 + 50*0.1
	if math.Abs(result.Healing-want) > 1e-9 {
		t.Fatalf("expected healing %f, got %f", want, result.Healing)
	}
}
