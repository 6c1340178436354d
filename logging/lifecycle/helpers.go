package lifecycle

import (
	"context"

	"siegefall/server/logging"
)

const (
	// EventSpawn is emitted when the dispatcher creates a new entity.
	EventSpawn logging.EventType = "lifecycle.spawn"
	// EventDespawn is emitted when an entity is committed for destruction.
	EventDespawn logging.EventType = "lifecycle.despawn"
	// EventLevelUp is emitted when a hero crosses an experience threshold.
	EventLevelUp logging.EventType = "lifecycle.level_up"
)

type SpawnPayload struct {
	Name string  `json:"name,omitempty"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type LevelUpPayload struct {
	Level int     `json:"level"`
	XP    float64 `json:"xp"`
}

func Spawn(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SpawnPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSpawn,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

func Despawn(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDespawn,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
	})
}

func LevelUp(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload LevelUpPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventLevelUp,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}
