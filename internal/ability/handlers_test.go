package ability

import (
	"math"
	"testing"

	"siegefall/server/internal/ecs"
)

func testRequest() Request {
	return Request{Caster: ecs.Handle{Index: 1, Generation: 1}, Level: 1}
}

func defFor(id string, target TargetKind, extra map[string]any) *Definition {
	return &Definition{
		ID:       id,
		Target:   target,
		MaxLevel: 1,
		Levels:   map[string]LevelData{"1": {Extra: extra}},
	}
}

func TestSniperModeGrantsFiveModifiers(t *testing.T) {
	h := SniperMode{Base{ID: "sniper_mode"}}
	def := defFor("sniper_mode", TargetNone, nil)
	level, _ := def.Level(1)
	req := testRequest()

	effects := h.Execute(req, def, level)
	if len(effects) != 5 {
		t.Fatalf("effects = %d, want 5", len(effects))
	}
	want := map[string]float64{
		"range_bonus":        250,
		"damage_bonus":       0.30,
		"attack_speed_bonus": -0.3,
		"move_speed_bonus":   -0.5,
		"accuracy_bonus":     0.15,
	}
	for _, eff := range effects {
		if eff.Kind != EffectStatusModifier || eff.StatusModifier == nil {
			t.Fatalf("effect kind = %q, want status modifier", eff.Kind)
		}
		mod := eff.StatusModifier
		expect, ok := want[mod.ModifierType]
		if !ok {
			t.Fatalf("unexpected modifier %q", mod.ModifierType)
		}
		if mod.Value != expect {
			t.Errorf("%s = %v, want %v", mod.ModifierType, mod.Value, expect)
		}
		if mod.Duration != nil {
			t.Errorf("%s has duration %v, want unbounded", mod.ModifierType, *mod.Duration)
		}
		if mod.Target != req.Caster {
			t.Errorf("%s targets %v, want caster", mod.ModifierType, mod.Target)
		}
		delete(want, mod.ModifierType)
	}
	if len(want) != 0 {
		t.Errorf("missing modifiers: %v", want)
	}
}

func TestSaikaReinforcementsFormation(t *testing.T) {
	h := SaikaReinforcements{Base{ID: "saika_reinforcements"}}
	def := defFor("saika_reinforcements", TargetPoint, map[string]any{
		"summon_count":     float64(2),
		"formation_radius": float64(100),
	})
	level, _ := def.Level(1)
	req := testRequest()
	req.HasPoint = true
	req.PointX = 100
	req.PointY = 200

	effects := h.Execute(req, def, level)
	if len(effects) != 2 {
		t.Fatalf("effects = %d, want 2", len(effects))
	}
	wantPos := [][2]float64{
		{100 + 100*math.Cos(math.Pi), 200 + 100*math.Sin(math.Pi)},
		{100 + 100*math.Cos(2*math.Pi), 200 + 100*math.Sin(2*math.Pi)},
	}
	for i, eff := range effects {
		if eff.Kind != EffectSummon || eff.Summon == nil {
			t.Fatalf("effect %d kind = %q, want summon", i, eff.Kind)
		}
		s := eff.Summon
		if s.UnitType != "saika_gunner" {
			t.Errorf("summon %d unit type = %q, want saika_gunner", i, s.UnitType)
		}
		if math.Abs(s.X-wantPos[i][0]) > 1e-9 || math.Abs(s.Y-wantPos[i][1]) > 1e-9 {
			t.Errorf("summon %d at (%v, %v), want (%v, %v)", i, s.X, s.Y, wantPos[i][0], wantPos[i][1])
		}
		if s.Duration == nil || *s.Duration != 50 {
			t.Errorf("summon %d duration = %v, want 50", i, s.Duration)
		}
	}
}

func TestThreeStageTechniqueBurst(t *testing.T) {
	h := ThreeStageTechnique{Base{ID: "three_stage_technique"}}
	def := defFor("three_stage_technique", TargetUnit, nil)
	level, _ := def.Level(1)
	req := testRequest()
	req.HasTarget = true
	req.Target = ecs.Handle{Index: 7, Generation: 3}

	effects := h.Execute(req, def, level)
	if len(effects) != 4 {
		t.Fatalf("effects = %d, want 4", len(effects))
	}
	for i := 0; i < 3; i++ {
		if effects[i].Kind != EffectDamage || effects[i].Damage == nil {
			t.Fatalf("effect %d kind = %q, want damage", i, effects[i].Kind)
		}
		if effects[i].Damage.Amount != 75 {
			t.Errorf("damage %d = %v, want 75", i, effects[i].Damage.Amount)
		}
		if effects[i].Damage.Target != req.Target {
			t.Errorf("damage %d targets %v, want %v", i, effects[i].Damage.Target, req.Target)
		}
	}
	mod := effects[3].StatusModifier
	if effects[3].Kind != EffectStatusModifier || mod == nil {
		t.Fatalf("final effect kind = %q, want status modifier", effects[3].Kind)
	}
	if mod.ModifierType != "armor_reduction" || mod.Value != -2.0 {
		t.Errorf("modifier = %s %v, want armor_reduction -2", mod.ModifierType, mod.Value)
	}
	if mod.Duration == nil || *mod.Duration != 3.0 {
		t.Errorf("modifier duration = %v, want 3", mod.Duration)
	}
}

func TestThreeStageTechniqueHonoursAttacksCount(t *testing.T) {
	h := ThreeStageTechnique{Base{ID: "three_stage_technique"}}
	def := defFor("three_stage_technique", TargetUnit, map[string]any{
		"attacks_count":     float64(5),
		"damage_per_attack": float64(110),
	})
	level, _ := def.Level(1)
	req := testRequest()
	req.HasTarget = true
	req.Target = ecs.Handle{Index: 7, Generation: 3}

	effects := h.Execute(req, def, level)
	if len(effects) != 6 {
		t.Fatalf("effects = %d, want 5 strikes plus the debuff", len(effects))
	}
	for i := 0; i < 5; i++ {
		if effects[i].Kind != EffectDamage || effects[i].Damage == nil || effects[i].Damage.Amount != 110 {
			t.Fatalf("effect %d = %+v, want 110 damage", i, effects[i])
		}
	}
	if effects[5].Kind != EffectStatusModifier {
		t.Fatalf("final effect kind = %q, want status modifier", effects[5].Kind)
	}
}

func TestRainIronCannonSingleZone(t *testing.T) {
	h := RainIronCannon{Base{ID: "rain_iron_cannon"}}
	def := defFor("rain_iron_cannon", TargetPoint, map[string]any{
		"damage":      float64(80),
		"radius":      float64(300),
		"duration":    float64(3),
		"total_ticks": float64(15),
	})
	level, _ := def.Level(1)
	req := testRequest()
	req.HasPoint = true
	req.PointX = 400
	req.PointY = -50

	effects := h.Execute(req, def, level)
	if len(effects) != 1 {
		t.Fatalf("effects = %d, want 1", len(effects))
	}
	zone := effects[0].AreaEffect
	if effects[0].Kind != EffectAreaEffect || zone == nil {
		t.Fatalf("effect kind = %q, want area effect", effects[0].Kind)
	}
	if zone.CenterX != 400 || zone.CenterY != -50 || zone.Radius != 300 {
		t.Errorf("zone = (%v, %v) r=%v, want (400, -50) r=300", zone.CenterX, zone.CenterY, zone.Radius)
	}
	if zone.EffectType != "rain_iron_cannon" || zone.Duration != 3 {
		t.Errorf("zone type/duration = %s/%v", zone.EffectType, zone.Duration)
	}
	if zone.DamagePerTick == nil || math.Abs(*zone.DamagePerTick-80.0/15.0) > 1e-9 {
		t.Errorf("damage per tick = %v, want %v", zone.DamagePerTick, 80.0/15.0)
	}
}

func TestPointAbilityWithoutPoint(t *testing.T) {
	handlers := []Handler{
		SaikaReinforcements{Base{ID: "saika_reinforcements"}},
		RainIronCannon{Base{ID: "rain_iron_cannon"}},
		FireDash{Base{ID: "fire_dash"}},
	}
	for _, h := range handlers {
		def := defFor(h.AbilityID(), TargetPoint, nil)
		level, _ := def.Level(1)
		if effects := h.Execute(testRequest(), def, level); len(effects) != 0 {
			t.Errorf("%s without point produced %d effects", h.AbilityID(), len(effects))
		}
	}
}

func TestCanExecuteDefault(t *testing.T) {
	def := defFor("three_stage_technique", TargetUnit, nil)
	def.Levels["1"] = LevelData{ManaCost: 60}
	base := testRequest()
	base.HasTarget = true
	base.Target = ecs.Handle{Index: 2, Generation: 1}

	cases := []struct {
		name  string
		req   func() Request
		state CasterState
		want  bool
	}{
		{"ready", func() Request { return base }, CasterState{Mana: 100}, true},
		{"on cooldown", func() Request { return base }, CasterState{CooldownRemaining: 1.5, Mana: 100}, false},
		{"cooldown but charge", func() Request { return base }, CasterState{CooldownRemaining: 1.5, Charges: 1, Mana: 100}, true},
		{"no mana", func() Request { return base }, CasterState{Mana: 59.9}, false},
		{"no target", func() Request {
			r := base
			r.HasTarget = false
			return r
		}, CasterState{Mana: 100}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanExecuteDefault(tc.req(), def, tc.state); got != tc.want {
				t.Fatalf("CanExecuteDefault = %v, want %v", got, tc.want)
			}
		})
	}

	toggleDef := defFor("sniper_mode", TargetNone, nil)
	toggleDef.Kind = KindToggle
	if !CanExecuteDefault(testRequest(), toggleDef, CasterState{ToggleState: true, CooldownRemaining: 9}) {
		t.Fatal("toggling off should bypass cooldown")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	for _, h := range DefaultHandlers() {
		if err := reg.Register(h); err != nil {
			t.Fatalf("register %s: %v", h.AbilityID(), err)
		}
	}
	if err := reg.Register(SniperMode{Base{ID: "sniper_mode"}}); err == nil {
		t.Fatal("duplicate registration accepted")
	}
	if _, ok := reg.Lookup("saika_reinforcements"); !ok {
		t.Fatal("lookup failed for registered handler")
	}
	if _, ok := reg.Lookup("missing"); ok {
		t.Fatal("lookup succeeded for unknown id")
	}
}
