// Command campaign-schema emits JSON Schemas for the campaign data files so
// editors can validate entity.jsonc, map.jsonc, mission.jsonc, and
// ability.jsonc without loading the server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
)

type statsDoc struct {
	HP          float64 `json:"hp" jsonschema:"description=Maximum hit points"`
	Mana        float64 `json:"mana"`
	MoveSpeed   float64 `json:"move_speed"`
	PhysicalDef float64 `json:"physical_def"`
	MagicDef    float64 `json:"magic_def"`
	DodgeChance float64 `json:"dodge_chance"`
	CritChance  float64 `json:"crit_chance"`
	Lifesteal   float64 `json:"lifesteal"`
	SpellVamp   float64 `json:"spell_vamp"`
}

type attackDoc struct {
	PhysicalAtk     float64 `json:"physical_atk"`
	AttackInterval  float64 `json:"attack_interval" jsonschema:"description=Seconds between attacks"`
	Range           float64 `json:"range"`
	ProjectileSpeed float64 `json:"projectile_speed" jsonschema:"description=Zero means instant hit"`
}

type growthDoc struct {
	Strength     float64 `json:"strength"`
	Agility      float64 `json:"agility"`
	Intelligence float64 `json:"intelligence"`
}

type heroDoc struct {
	Attribute    string    `json:"attribute" jsonschema:"enum=strength,enum=agility,enum=intelligence"`
	Strength     float64   `json:"strength"`
	Agility      float64   `json:"agility"`
	Intelligence float64   `json:"intelligence"`
	Stats        statsDoc  `json:"stats"`
	Attack       attackDoc `json:"attack"`
	Growth       growthDoc `json:"growth"`
	Abilities    []string  `json:"abilities"`
}

type unitDoc struct {
	Kind       string    `json:"kind,omitempty" jsonschema:"enum=Creep,enum=Enemy,enum=Neutral,enum=Boss,enum=Summon,enum=Unit"`
	Stats      statsDoc  `json:"stats"`
	Attack     attackDoc `json:"attack"`
	ExpReward  float64   `json:"exp_reward,omitempty"`
	GoldReward float64   `json:"gold_reward,omitempty"`
	Bounty     string    `json:"bounty,omitempty" jsonschema:"enum=None,enum=Normal,enum=Siege,enum=Boss"`
	Abilities  []string  `json:"abilities,omitempty"`
}

type entityDoc struct {
	Heroes   map[string]heroDoc `json:"heroes"`
	Enemies  map[string]unitDoc `json:"enemies,omitempty"`
	Creeps   map[string]unitDoc `json:"creeps"`
	Neutrals map[string]unitDoc `json:"neutrals,omitempty"`
	Summons  map[string]unitDoc `json:"summons,omitempty"`
}

// The map file keeps the editor export's PascalCase section and field names.
type checkpointDoc struct {
	Name  string  `json:"Name"`
	Class string  `json:"Class,omitempty" jsonschema:"enum=spawn,enum=turn,enum=goal"`
	X     float64 `json:"X"`
	Y     float64 `json:"Y"`
}

type pathDoc struct {
	Name   string   `json:"Name"`
	Points []string `json:"Points" jsonschema:"description=Checkpoint names in walk order"`
}

type creepDoc struct {
	Name         string  `json:"Name" jsonschema:"description=Must match an entity creep definition"`
	HP           float64 `json:"HP"`
	DefendPhysic float64 `json:"DefendPhysic"`
	DefendMagic  float64 `json:"DefendMagic"`
	MoveSpeed    float64 `json:"MoveSpeed"`
}

type towerPropertyDoc struct {
	Hp    float64 `json:"Hp"`
	Block float64 `json:"Block" jsonschema:"description=How many creeps the tower can hold in place"`
	Cost  float64 `json:"Cost"`
}

type towerAttackDoc struct {
	Range           float64 `json:"Range"`
	AttackSpeed     float64 `json:"AttackSpeed" jsonschema:"description=Seconds between attacks"`
	Physic          float64 `json:"Physic"`
	Magic           float64 `json:"Magic,omitempty"`
	ProjectileSpeed float64 `json:"ProjectileSpeed,omitempty"`
}

type towerDoc struct {
	Name     string           `json:"Name"`
	Property towerPropertyDoc `json:"Property"`
	Attack   towerAttackDoc   `json:"Attack"`
}

type waveCreepDoc struct {
	Time  float64 `json:"Time" jsonschema:"description=Seconds after the wave starts"`
	Creep string  `json:"Creep"`
}

type waveDetailDoc struct {
	Path   string         `json:"Path"`
	Creeps []waveCreepDoc `json:"Creeps"`
}

type waveDoc struct {
	Name      string          `json:"Name"`
	StartTime float64         `json:"StartTime"`
	Detail    []waveDetailDoc `json:"Detail"`
}

type mapDoc struct {
	CheckPoint []checkpointDoc `json:"CheckPoint"`
	Path       []pathDoc       `json:"Path"`
	Creep      []creepDoc      `json:"Creep"`
	Tower      []towerDoc      `json:"Tower,omitempty"`
	CreepWave  []waveDoc       `json:"CreepWave"`
}

type campaignDoc struct {
	Name         string  `json:"name"`
	StartingGold float64 `json:"starting_gold"`
	DefaultHero  string  `json:"default_hero"`
}

type stageDoc struct {
	Name string `json:"name"`
	Map  string `json:"map" jsonschema:"description=Map file name without extension"`
}

type missionDoc struct {
	Campaign campaignDoc `json:"campaign"`
	Stages   []stageDoc  `json:"stages"`
}

type abilityDoc struct {
	Name     string                    `json:"name"`
	Kind     string                    `json:"kind" jsonschema:"enum=Active,enum=Toggle,enum=Passive"`
	Target   string                    `json:"target" jsonschema:"enum=None,enum=Unit,enum=Point"`
	Cast     string                    `json:"cast,omitempty"`
	MaxLevel int                       `json:"max_level,omitempty"`
	Levels   map[string]map[string]any `json:"levels" jsonschema:"description=Per-level numbers keyed by level string"`
}

type abilityFileDoc struct {
	Abilities map[string]abilityDoc `json:"abilities"`
}

func main() {
	out := flag.String("out", "schemas", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		fatal(err)
	}

	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
	}
	targets := []struct {
		name string
		doc  any
	}{
		{"entity", &entityDoc{}},
		{"map", &mapDoc{}},
		{"mission", &missionDoc{}},
		{"ability", &abilityFileDoc{}},
	}
	for _, target := range targets {
		schema := reflector.Reflect(target.doc)
		encoded, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			fatal(err)
		}
		path := filepath.Join(*out, target.name+".schema.json")
		if err := os.WriteFile(path, append(encoded, '\n'), 0o644); err != nil {
			fatal(err)
		}
		fmt.Println(path)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "campaign-schema: %v\n", err)
	os.Exit(1)
}
