// Package campaign loads the JSONC data files describing a playable mission:
// entities, abilities, the map, and the wave schedule. Loading is strict;
// a dangling reference fails the load rather than surfacing mid-match.
package campaign

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iancoleman/orderedmap"

	"siegefall/server/internal/ability"
	"siegefall/server/internal/world"
)

// Campaign is the fully resolved mission data, keyed and validated.
type Campaign struct {
	Name      string
	Heroes    map[string]*world.UnitTemplate
	HeroBases map[string]world.Hero
	Enemies   map[string]*world.UnitTemplate
	Neutrals  map[string]*world.UnitTemplate
	Summons   map[string]*world.UnitTemplate
	Emitters  map[string]*world.CreepEmitter
	Paths     map[string]*world.Path
	Waves     []world.CreepWave
	Towers    []world.TowerTemplate

	StartingGold float64
	DefaultHero  string

	Abilities    map[string]*ability.Definition
	rawAbilities *orderedmap.OrderedMap
}

type statsFile struct {
	HP          float64 `json:"hp"`
	Mana        float64 `json:"mana"`
	MoveSpeed   float64 `json:"move_speed"`
	PhysicalDef float64 `json:"physical_def"`
	MagicDef    float64 `json:"magic_def"`
	DodgeChance float64 `json:"dodge_chance"`
	CritChance  float64 `json:"crit_chance"`
	Lifesteal   float64 `json:"lifesteal"`
	SpellVamp   float64 `json:"spell_vamp"`
}

func (s statsFile) combatStats() world.CombatStats {
	return world.CombatStats{
		HP:          s.HP,
		MaxHP:       s.HP,
		MoveSpeed:   s.MoveSpeed,
		PhysicalDef: s.PhysicalDef,
		MagicDef:    s.MagicDef,
		Mana:        s.Mana,
		MaxMana:     s.Mana,
		DodgeChance: s.DodgeChance,
		CritChance:  s.CritChance,
		Lifesteal:   s.Lifesteal,
		SpellVamp:   s.SpellVamp,
	}
}

type attackFile struct {
	PhysicalAtk     float64 `json:"physical_atk"`
	AttackInterval  float64 `json:"attack_interval"`
	Range           float64 `json:"range"`
	ProjectileSpeed float64 `json:"projectile_speed"`
}

func (a attackFile) profile() world.AttackProfile {
	return world.AttackProfile{
		PhysicalAtk:     a.PhysicalAtk,
		AttackInterval:  a.AttackInterval,
		Range:           a.Range,
		ProjectileSpeed: a.ProjectileSpeed,
	}
}

type growthFile struct {
	Strength     float64 `json:"strength"`
	Agility      float64 `json:"agility"`
	Intelligence float64 `json:"intelligence"`
}

type heroFile struct {
	Attribute    string     `json:"attribute"`
	Strength     float64    `json:"strength"`
	Agility      float64    `json:"agility"`
	Intelligence float64    `json:"intelligence"`
	Stats        statsFile  `json:"stats"`
	Attack       attackFile `json:"attack"`
	Growth       growthFile `json:"growth"`
	Abilities    []string   `json:"abilities"`
}

type unitFile struct {
	Kind       string     `json:"kind"`
	Stats      statsFile  `json:"stats"`
	Attack     attackFile `json:"attack"`
	ExpReward  float64    `json:"exp_reward"`
	GoldReward float64    `json:"gold_reward"`
	Bounty     string     `json:"bounty"`
	Abilities  []string   `json:"abilities"`
}

// entityFile mirrors entity.jsonc: heroes the players pick, hostile AI
// enemies, lane creeps, neutral camps, and units summonable by abilities.
type entityFile struct {
	Heroes   map[string]heroFile `json:"heroes"`
	Enemies  map[string]unitFile `json:"enemies"`
	Creeps   map[string]unitFile `json:"creeps"`
	Neutrals map[string]unitFile `json:"neutrals"`
	Summons  map[string]unitFile `json:"summons"`
}

// The map file uses the PascalCase section and field names the campaign
// editor exports: CheckPoint, Path, Creep, Tower, and CreepWave.
type checkpointEntry struct {
	Name  string  `json:"Name"`
	Class string  `json:"Class"`
	X     float64 `json:"X"`
	Y     float64 `json:"Y"`
}

type pathEntry struct {
	Name   string   `json:"Name"`
	Points []string `json:"Points"`
}

// creepEntry carries the lane overrides; attack and rewards come from the
// entity definition with the same name.
type creepEntry struct {
	Name         string  `json:"Name"`
	HP           float64 `json:"HP"`
	DefendPhysic float64 `json:"DefendPhysic"`
	DefendMagic  float64 `json:"DefendMagic"`
	MoveSpeed    float64 `json:"MoveSpeed"`
}

type towerProperty struct {
	Hp    float64 `json:"Hp"`
	Block float64 `json:"Block"`
	Cost  float64 `json:"Cost"`
}

type towerAttack struct {
	Range           float64 `json:"Range"`
	AttackSpeed     float64 `json:"AttackSpeed"`
	Physic          float64 `json:"Physic"`
	Magic           float64 `json:"Magic"`
	ProjectileSpeed float64 `json:"ProjectileSpeed"`
}

type towerEntry struct {
	Name     string        `json:"Name"`
	Property towerProperty `json:"Property"`
	Attack   towerAttack   `json:"Attack"`
}

type waveCreepEntry struct {
	Time  float64 `json:"Time"`
	Creep string  `json:"Creep"`
}

type waveDetailEntry struct {
	Path   string           `json:"Path"`
	Creeps []waveCreepEntry `json:"Creeps"`
}

type waveEntry struct {
	Name      string            `json:"Name"`
	StartTime float64           `json:"StartTime"`
	Detail    []waveDetailEntry `json:"Detail"`
}

type mapFile struct {
	CheckPoint []checkpointEntry `json:"CheckPoint"`
	Path       []pathEntry       `json:"Path"`
	Creep      []creepEntry      `json:"Creep"`
	Tower      []towerEntry      `json:"Tower"`
	CreepWave  []waveEntry       `json:"CreepWave"`
}

type campaignSection struct {
	Name         string  `json:"name"`
	StartingGold float64 `json:"starting_gold"`
	DefaultHero  string  `json:"default_hero"`
}

type stageSection struct {
	Name string `json:"name"`
	Map  string `json:"map"`
}

type missionFile struct {
	Campaign campaignSection `json:"campaign"`
	Stages   []stageSection  `json:"stages"`
}

// Load reads and cross-validates the four campaign files in dir. The mission
// file names the stage's map file; a single-stage mission is the norm.
func Load(dir string) (*Campaign, error) {
	var entities entityFile
	if err := readJSONC(dir, "entity", &entities); err != nil {
		return nil, err
	}
	var mission missionFile
	if err := readJSONC(dir, "mission", &mission); err != nil {
		return nil, err
	}
	mapName := "map"
	if len(mission.Stages) > 0 && mission.Stages[0].Map != "" {
		mapName = mission.Stages[0].Map
	}
	var worldMap mapFile
	if err := readJSONC(dir, mapName, &worldMap); err != nil {
		return nil, err
	}
	abilityData, err := readFile(dir, "ability")
	if err != nil {
		return nil, err
	}
	raw, defs, err := parseAbilities(StripComments(abilityData))
	if err != nil {
		return nil, err
	}

	c := &Campaign{
		Name:         mission.Campaign.Name,
		Heroes:       make(map[string]*world.UnitTemplate, len(entities.Heroes)),
		HeroBases:    make(map[string]world.Hero, len(entities.Heroes)),
		Enemies:      make(map[string]*world.UnitTemplate, len(entities.Enemies)),
		Neutrals:     make(map[string]*world.UnitTemplate, len(entities.Neutrals)),
		Summons:      make(map[string]*world.UnitTemplate, len(entities.Summons)),
		Emitters:     make(map[string]*world.CreepEmitter, len(worldMap.Creep)),
		Paths:        make(map[string]*world.Path, len(worldMap.Path)),
		Towers:       make([]world.TowerTemplate, 0, len(worldMap.Tower)),
		StartingGold: mission.Campaign.StartingGold,
		DefaultHero:  mission.Campaign.DefaultHero,
		Abilities:    defs,
		rawAbilities: raw,
	}

	for name, hero := range entities.Heroes {
		for _, abilityID := range hero.Abilities {
			if _, ok := defs[abilityID]; !ok {
				return nil, fmt.Errorf("campaign: hero %q references unknown ability %q", name, abilityID)
			}
		}
		c.Heroes[name] = &world.UnitTemplate{
			Unit: world.Unit{
				Name:      name,
				Kind:      world.UnitHero,
				Abilities: append([]string(nil), hero.Abilities...),
			},
			Stats:  hero.Stats.combatStats(),
			Attack: hero.Attack.profile(),
		}
		c.HeroBases[name] = world.Hero{
			Strength:     hero.Strength,
			Agility:      hero.Agility,
			Intelligence: hero.Intelligence,
			Primary:      world.Attribute(hero.Attribute),
			Growth: world.GrowthCurve{
				Strength:     hero.Growth.Strength,
				Agility:      hero.Growth.Agility,
				Intelligence: hero.Growth.Intelligence,
			},
			HeroType: name,
		}
	}
	for name, enemy := range entities.Enemies {
		for _, abilityID := range enemy.Abilities {
			if _, ok := defs[abilityID]; !ok {
				return nil, fmt.Errorf("campaign: enemy %q references unknown ability %q", name, abilityID)
			}
		}
		c.Enemies[name] = &world.UnitTemplate{
			Unit:   unitDescriptor(name, enemy, world.UnitEnemy),
			Stats:  enemy.Stats.combatStats(),
			Attack: enemy.Attack.profile(),
		}
	}
	for name, neutral := range entities.Neutrals {
		c.Neutrals[name] = &world.UnitTemplate{
			Unit:   unitDescriptor(name, neutral, world.UnitNeutral),
			Stats:  neutral.Stats.combatStats(),
			Attack: neutral.Attack.profile(),
		}
	}
	for name, summon := range entities.Summons {
		c.Summons[name] = &world.UnitTemplate{
			Unit:   unitDescriptor(name, summon, world.UnitSummon),
			Stats:  summon.Stats.combatStats(),
			Attack: summon.Attack.profile(),
		}
	}

	checkpoints := make(map[string]world.CheckPoint, len(worldMap.CheckPoint))
	for _, cp := range worldMap.CheckPoint {
		checkpoints[cp.Name] = world.CheckPoint{Name: cp.Name, Class: cp.Class, X: cp.X, Y: cp.Y}
	}
	for _, path := range worldMap.Path {
		points := make([]world.CheckPoint, 0, len(path.Points))
		for _, pointName := range path.Points {
			cp, ok := checkpoints[pointName]
			if !ok {
				return nil, fmt.Errorf("campaign: path %q references unknown checkpoint %q", path.Name, pointName)
			}
			points = append(points, cp)
		}
		c.Paths[path.Name] = &world.Path{Name: path.Name, Points: points}
	}

	for _, lane := range worldMap.Creep {
		def, ok := entities.Creeps[lane.Name]
		if !ok {
			return nil, fmt.Errorf("campaign: map creep %q has no entity definition", lane.Name)
		}
		stats := def.Stats.combatStats()
		stats.HP = lane.HP
		stats.MaxHP = lane.HP
		stats.PhysicalDef = lane.DefendPhysic
		stats.MagicDef = lane.DefendMagic
		stats.MoveSpeed = lane.MoveSpeed
		c.Emitters[lane.Name] = &world.CreepEmitter{
			Name:   lane.Name,
			Unit:   unitDescriptor(lane.Name, def, world.UnitCreep),
			Stats:  stats,
			Attack: def.Attack.profile(),
		}
	}

	for _, tower := range worldMap.Tower {
		c.Towers = append(c.Towers, world.TowerTemplate{
			Name: tower.Name,
			Cost: tower.Property.Cost,
			Stats: world.CombatStats{
				HP:    tower.Property.Hp,
				MaxHP: tower.Property.Hp,
			},
			Attack: world.AttackProfile{
				PhysicalAtk:     tower.Attack.Physic,
				AttackInterval:  tower.Attack.AttackSpeed,
				Range:           tower.Attack.Range,
				ProjectileSpeed: tower.Attack.ProjectileSpeed,
			},
		})
	}

	for _, wave := range worldMap.CreepWave {
		resolved := world.CreepWave{StartTime: wave.StartTime}
		for _, detail := range wave.Detail {
			if _, ok := c.Paths[detail.Path]; !ok {
				return nil, fmt.Errorf("campaign: wave %q references unknown path %q", wave.Name, detail.Path)
			}
			emits := make([]world.Emit, 0, len(detail.Creeps))
			for _, emit := range detail.Creeps {
				if _, ok := c.Emitters[emit.Creep]; !ok {
					return nil, fmt.Errorf("campaign: wave %q references unknown creep %q", wave.Name, emit.Creep)
				}
				emits = append(emits, world.Emit{TimeOffset: emit.Time, CreepName: emit.Creep})
			}
			resolved.Paths = append(resolved.Paths, world.PathCreeps{PathName: detail.Path, Emits: emits})
		}
		c.Waves = append(c.Waves, resolved)
	}

	if c.DefaultHero != "" {
		if _, ok := c.Heroes[c.DefaultHero]; !ok {
			return nil, fmt.Errorf("campaign: default hero %q not defined", c.DefaultHero)
		}
	}
	return c, nil
}

// ValidateHandlers checks that every loaded ability has a registered handler.
func (c *Campaign) ValidateHandlers(reg *ability.Registry) error {
	for id := range c.Abilities {
		if _, ok := reg.Lookup(id); !ok {
			return fmt.Errorf("campaign: ability %q has no handler", id)
		}
	}
	return nil
}

func unitDescriptor(name string, unit unitFile, fallback world.UnitKind) world.Unit {
	kind := world.UnitKind(unit.Kind)
	if kind == "" {
		kind = fallback
	}
	bounty := world.BountyTier(unit.Bounty)
	if bounty == "" {
		bounty = world.BountyNone
	}
	return world.Unit{
		Name:       name,
		Kind:       kind,
		Abilities:  append([]string(nil), unit.Abilities...),
		ExpReward:  unit.ExpReward,
		GoldReward: unit.GoldReward,
		Bounty:     bounty,
	}
}

func readJSONC(dir, name string, out any) error {
	data, err := readFile(dir, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(StripComments(data), out); err != nil {
		return fmt.Errorf("campaign: parse %s: %w", name, err)
	}
	return nil
}

// readFile tries the .jsonc extension first, then .json.
func readFile(dir, name string) ([]byte, error) {
	for _, ext := range []string{".jsonc", ".json"} {
		data, err := os.ReadFile(filepath.Join(dir, name+ext))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("campaign: read %s%s: %w", name, ext, err)
		}
	}
	return nil, fmt.Errorf("campaign: missing %s.jsonc in %s", name, dir)
}
