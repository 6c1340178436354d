// Package ability holds the static ability definitions and the stateless
// handlers that turn an execution request into a list of effects. Handlers
// never touch entity storage; all state lives in the caller's skill instance
// and the per-level data.
package ability

import (
	"encoding/json"
	"strconv"

	"siegefall/server/internal/ecs"
)

// Kind classifies how an ability is used.
type Kind string

const (
	KindActive   Kind = "Active"
	KindToggle   Kind = "Toggle"
	KindUltimate Kind = "Ultimate"
	KindPassive  Kind = "Passive"
)

// TargetKind declares what a request must carry.
type TargetKind string

const (
	TargetNone  TargetKind = "None"
	TargetPoint TargetKind = "Point"
	TargetUnit  TargetKind = "Unit"
)

// CastKind declares the cast style.
type CastKind string

const (
	CastInstant   CastKind = "Instant"
	CastChanneled CastKind = "Channeled"
)

// LevelData is the per-level tuning block. Extra carries ability-specific
// numbers pulled by key with a handler-side default.
type LevelData struct {
	Cooldown float64
	ManaCost float64
	CastTime float64
	Range    float64
	Extra    map[string]any
}

// Definition is one ability as loaded from the campaign.
type Definition struct {
	ID       string
	Name     string
	Kind     Kind
	Target   TargetKind
	Cast     CastKind
	MaxLevel int
	Levels   map[string]LevelData
}

// Level returns the tuning block for a numeric level. The table is keyed by
// the level number rendered as a string.
func (d *Definition) Level(n int) (LevelData, bool) {
	if d == nil {
		return LevelData{}, false
	}
	data, ok := d.Levels[strconv.Itoa(n)]
	return data, ok
}

// Num pulls a numeric custom value with a default. Absence is never fatal.
func Num(extra map[string]any, key string, fallback float64) float64 {
	if extra == nil {
		return fallback
	}
	switch v := extra[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return fallback
}

// Str pulls a string custom value with a default.
func Str(extra map[string]any, key, fallback string) string {
	if extra == nil {
		return fallback
	}
	if v, ok := extra[key].(string); ok {
		return v
	}
	return fallback
}

// Request is one ability execution attempt.
type Request struct {
	Caster    ecs.Handle
	Target    ecs.Handle
	HasTarget bool
	HasPoint  bool
	PointX    float64
	PointY    float64
	Level     int
}

// CasterState is the snapshot of the caster's skill and resources that the
// default checks read.
type CasterState struct {
	CooldownRemaining float64
	Charges           int
	MaxCharges        int
	Mana              float64
	ToggleState       bool
}

// Result reports an execution attempt to the requester.
type Result struct {
	Success      bool
	Effects      []Effect
	ErrorMessage string
}
