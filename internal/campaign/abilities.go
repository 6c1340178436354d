package campaign

import (
	"encoding/json"
	"fmt"

	"github.com/iancoleman/orderedmap"

	"siegefall/server/internal/ability"
)

// parseAbilities decodes the ability file while keeping the original key
// order, so a re-serialised file diffs cleanly against the source. The file
// is a document with a single "abilities" section mapping id to definition.
func parseAbilities(data []byte) (*orderedmap.OrderedMap, map[string]*ability.Definition, error) {
	doc := orderedmap.New()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, nil, fmt.Errorf("campaign: parse ability: %w", err)
	}
	section, ok := doc.Get("abilities")
	if !ok {
		return nil, nil, fmt.Errorf("campaign: ability file has no abilities section")
	}
	inner, ok := section.(orderedmap.OrderedMap)
	if !ok {
		return nil, nil, fmt.Errorf("campaign: abilities section is not an object")
	}
	raw := &inner

	defs := make(map[string]*ability.Definition, len(raw.Keys()))
	for _, id := range raw.Keys() {
		value, _ := raw.Get(id)
		obj, ok := value.(orderedmap.OrderedMap)
		if !ok {
			return nil, nil, fmt.Errorf("campaign: ability %q is not an object", id)
		}
		def, err := parseDefinition(id, obj)
		if err != nil {
			return nil, nil, err
		}
		defs[id] = def
	}
	return raw, defs, nil
}

func parseDefinition(id string, obj orderedmap.OrderedMap) (*ability.Definition, error) {
	def := &ability.Definition{ID: id, Name: id}
	if v, ok := stringField(obj, "name"); ok {
		def.Name = v
	}
	if v, ok := stringField(obj, "kind"); ok {
		def.Kind = ability.Kind(v)
	}
	if v, ok := stringField(obj, "target"); ok {
		def.Target = ability.TargetKind(v)
	}
	if v, ok := stringField(obj, "cast"); ok {
		def.Cast = ability.CastKind(v)
	}
	if v, ok := numberField(obj, "max_level"); ok {
		def.MaxLevel = int(v)
	}

	levelsValue, ok := obj.Get("levels")
	if !ok {
		return nil, fmt.Errorf("campaign: ability %q has no levels", id)
	}
	levels, ok := levelsValue.(orderedmap.OrderedMap)
	if !ok {
		return nil, fmt.Errorf("campaign: ability %q levels is not an object", id)
	}
	def.Levels = make(map[string]ability.LevelData, len(levels.Keys()))
	for _, levelKey := range levels.Keys() {
		levelValue, _ := levels.Get(levelKey)
		levelObj, ok := levelValue.(orderedmap.OrderedMap)
		if !ok {
			return nil, fmt.Errorf("campaign: ability %q level %q is not an object", id, levelKey)
		}
		def.Levels[levelKey] = parseLevel(levelObj)
	}
	if def.MaxLevel == 0 {
		def.MaxLevel = len(def.Levels)
	}
	return def, nil
}

// parseLevel lifts the known tuning fields and keeps everything else in
// Extra for the handler to interpret.
func parseLevel(obj orderedmap.OrderedMap) ability.LevelData {
	data := ability.LevelData{}
	for _, field := range obj.Keys() {
		value, _ := obj.Get(field)
		switch field {
		case "cooldown":
			data.Cooldown, _ = value.(float64)
		case "mana_cost":
			data.ManaCost, _ = value.(float64)
		case "cast_time":
			data.CastTime, _ = value.(float64)
		case "range":
			data.Range, _ = value.(float64)
		default:
			if data.Extra == nil {
				data.Extra = make(map[string]any)
			}
			data.Extra[field] = value
		}
	}
	return data
}

// MarshalAbilities re-serialises the ability file with its original key order,
// restoring the abilities wrapper.
func (c *Campaign) MarshalAbilities() ([]byte, error) {
	if c == nil || c.rawAbilities == nil {
		return nil, fmt.Errorf("campaign: no ability data loaded")
	}
	doc := orderedmap.New()
	doc.Set("abilities", *c.rawAbilities)
	return json.MarshalIndent(doc, "", "  ")
}

func stringField(obj orderedmap.OrderedMap, key string) (string, bool) {
	value, ok := obj.Get(key)
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

func numberField(obj orderedmap.OrderedMap, key string) (float64, bool) {
	value, ok := obj.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := value.(float64)
	return n, ok
}
